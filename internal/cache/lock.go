package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aimd54/academy-progression/internal/models"
)

const lockKeyPrefix = "progression:lock:user:"

// LockKey returns the lock key of a user.
func LockKey(userID uint) string {
	return fmt.Sprintf("%s%d", lockKeyPrefix, userID)
}

// UserLocker serializes write operations per user. It never waits: a held lock fails fast.
type UserLocker struct {
	cache Cache
	ttl   time.Duration
}

// NewUserLocker creates a locker whose locks expire after ttl.
func NewUserLocker(c Cache, ttl time.Duration) *UserLocker {
	return &UserLocker{cache: c, ttl: ttl}
}

// Acquire takes the lock of a user. It returns models.ErrBusy when the lock is held.
// The returned release function only deletes the lock while this holder still owns it.
func (l *UserLocker) Acquire(ctx context.Context, userID uint) (func(context.Context) error, error) {
	key := LockKey(userID)
	token := uuid.NewString()

	ok, err := l.cache.SetNX(ctx, key, token, l.ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock for user %d: %w", userID, err)
	}
	if !ok {
		return nil, fmt.Errorf("user %d: %w", userID, models.ErrBusy)
	}

	release := func(ctx context.Context) error {
		if _, err := l.cache.DelIfEqual(ctx, key, token); err != nil {
			return fmt.Errorf("failed to release lock for user %d: %w", userID, err)
		}
		return nil
	}
	return release, nil
}
