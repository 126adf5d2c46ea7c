package mocks

import (
	"context"
	"fmt"

	"github.com/aimd54/academy-progression/internal/models"
)

// MockUserRepository is a simple mock for user repository
type MockUserRepository struct {
	GetByIDFunc       func(id uint) (*models.User, error)
	GetByUsernameFunc func(username string) (*models.User, error)
	Users             []models.User
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(id)
	}
	for i := range m.Users {
		if m.Users[i].ID == id {
			u := m.Users[i]
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user %d: %w", id, models.ErrUserNotFound)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if m.GetByUsernameFunc != nil {
		return m.GetByUsernameFunc(username)
	}
	for i := range m.Users {
		if m.Users[i].Username == username {
			u := m.Users[i]
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", username, models.ErrUserNotFound)
}
