// Package identity resolves callers into principals.
package identity

import (
	"context"

	"github.com/aimd54/academy-progression/internal/models"
)

// Provider resolves the principal acting on the engine.
type Provider interface {
	ByID(ctx context.Context, userID uint) (models.Principal, error)
	ByUsername(ctx context.Context, username string) (models.Principal, error)
}

// UserSource is the user profile lookup a Provider reads from.
type UserSource interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// UserProvider resolves principals from stored user profiles.
type UserProvider struct {
	users UserSource
}

// NewUserProvider creates a provider over users.
func NewUserProvider(users UserSource) *UserProvider {
	return &UserProvider{users: users}
}

// ByID resolves a principal by user id. Unknown users yield models.ErrUserNotFound.
func (p *UserProvider) ByID(ctx context.Context, userID uint) (models.Principal, error) {
	user, err := p.users.GetByID(ctx, userID)
	if err != nil {
		return models.Principal{}, err
	}
	return PrincipalOf(user), nil
}

// ByUsername resolves a principal by username.
func (p *UserProvider) ByUsername(ctx context.Context, username string) (models.Principal, error) {
	user, err := p.users.GetByUsername(ctx, username)
	if err != nil {
		return models.Principal{}, err
	}
	return PrincipalOf(user), nil
}

// PrincipalOf returns the principal of a user profile.
func PrincipalOf(user *models.User) models.Principal {
	return models.Principal{UserID: user.ID, IsCoach: user.IsCoach}
}
