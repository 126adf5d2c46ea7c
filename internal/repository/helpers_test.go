package repository

import (
	"context"
	"testing"

	"github.com/aimd54/academy-progression/internal/models"
	"github.com/aimd54/academy-progression/pkg/logger"
)

// setupTestDB creates a migrated in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewSQLiteDB(":memory:", logger.Nop())
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.AutoMigrate(); err != nil {
		t.Fatalf("Failed to auto-migrate tables: %v", err)
	}

	return db
}

func uintPtr(v uint) *uint {
	return &v
}

// createTestChallenge creates a challenge with the given ID.
func createTestChallenge(t *testing.T, db *DB, id uint, category string, level int, prerequisite *uint) *models.Challenge {
	t.Helper()

	challenge := &models.Challenge{
		ID:             id,
		Title:          category + " drill",
		Category:       category,
		Level:          level,
		PrerequisiteID: prerequisite,
		RewardWeight:   1,
	}
	if err := NewChallengeRepository(db).Create(context.Background(), challenge); err != nil {
		t.Fatalf("Failed to create test challenge: %v", err)
	}
	return challenge
}
