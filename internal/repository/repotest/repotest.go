// Package repotest provides migrated in-memory SQLite stores for tests.
package repotest

import (
	"context"
	"testing"

	"github.com/aimd54/academy-progression/internal/models"
	"github.com/aimd54/academy-progression/internal/repository"
	"github.com/aimd54/academy-progression/pkg/logger"
)

// NewDB opens a migrated in-memory database that is closed when the test ends.
func NewDB(t *testing.T) *repository.DB {
	t.Helper()

	db, err := repository.NewSQLiteDB(":memory:", logger.Nop())
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.AutoMigrate(); err != nil {
		t.Fatalf("Failed to auto-migrate tables: %v", err)
	}
	return db
}

// NewStore opens a migrated in-memory store seeded with challenges.
func NewStore(t *testing.T, challenges ...models.Challenge) *repository.Store {
	t.Helper()

	store := repository.NewStore(NewDB(t))
	if len(challenges) > 0 {
		if err := store.Challenges.Upsert(context.Background(), challenges); err != nil {
			t.Fatalf("Failed to seed challenges: %v", err)
		}
	}
	return store
}

// CreateUser inserts a user and returns it.
func CreateUser(t *testing.T, store *repository.Store, username, position string, coach bool) *models.User {
	t.Helper()

	user := &models.User{Username: username, Email: username + "@example.com", Position: position, IsCoach: coach}
	if err := store.Users.Create(context.Background(), user); err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}
