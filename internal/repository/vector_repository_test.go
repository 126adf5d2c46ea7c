package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aimd54/academy-progression/internal/models"
)

func TestVectorRepository_GetMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewVectorRepository(db)

	vec, err := repo.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, vec)
}

func TestVectorRepository_GetOrCreateForUpdate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewVectorRepository(db)
	ctx := context.Background()

	vec, err := repo.GetOrCreateForUpdate(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultAttributeValue, vec.Pace)
	assert.Equal(t, models.DefaultAttributeValue, vec.Overall)
	assert.Equal(t, 0, vec.Version)

	// Second call returns the existing row instead of inserting.
	vec.Pace = 70
	vec.Version = 1
	require.NoError(t, repo.Update(ctx, vec, 0))

	again, err := repo.GetOrCreateForUpdate(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 70.0, again.Pace)
	assert.Equal(t, 1, again.Version)
}

func TestVectorRepository_UpdateVersionGuard(t *testing.T) {
	db := setupTestDB(t)
	repo := NewVectorRepository(db)
	ctx := context.Background()

	vec, err := repo.GetOrCreateForUpdate(ctx, 1)
	require.NoError(t, err)

	vec.Passing = 60
	vec.Version = 1
	vec.LastUpdated = time.Now()
	require.NoError(t, repo.Update(ctx, vec, 0))

	stale := *vec
	stale.Passing = 10
	stale.Version = 1
	err = repo.Update(ctx, &stale, 0)
	assert.True(t, errors.Is(err, models.ErrConcurrentModification))

	got, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 60.0, got.Passing)
}
