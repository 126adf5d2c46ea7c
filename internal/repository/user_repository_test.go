package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aimd54/academy-progression/internal/models"
)

func TestUserRepository_CRUD(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	player := &models.User{Username: "alice", Email: "alice@example.com", Position: "striker"}
	coach := &models.User{Username: "coach", IsCoach: true}
	require.NoError(t, repo.Create(ctx, player))
	require.NoError(t, repo.Create(ctx, coach))

	got, err := repo.GetByID(ctx, player.ID)
	require.NoError(t, err)
	assert.Equal(t, "striker", got.Position)

	got, err = repo.GetByUsername(ctx, "coach")
	require.NoError(t, err)
	assert.True(t, got.IsCoach)

	player.Position = "defender"
	require.NoError(t, repo.Update(ctx, player))
	got, err = repo.GetByID(ctx, player.ID)
	require.NoError(t, err)
	assert.Equal(t, "defender", got.Position)

	coaches, err := repo.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, coaches, 1)
	assert.Equal(t, "coach", coaches[0].Username)

	_, err = repo.GetByID(ctx, 999)
	assert.True(t, errors.Is(err, models.ErrUserNotFound))
	_, err = repo.GetByUsername(ctx, "nobody")
	assert.True(t, errors.Is(err, models.ErrUserNotFound))
}

func TestStore_TransactionRollback(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	boom := errors.New("boom")
	err := store.Transaction(ctx, func(tx *Store) error {
		if err := tx.Users.Create(ctx, &models.User{Username: "ghost"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = store.Users.GetByUsername(ctx, "ghost")
	assert.True(t, errors.Is(err, models.ErrUserNotFound))

	require.NoError(t, store.Transaction(ctx, func(tx *Store) error {
		return tx.Users.Create(ctx, &models.User{Username: "kept"})
	}))
	_, err = store.Users.GetByUsername(ctx, "kept")
	assert.NoError(t, err)
}
