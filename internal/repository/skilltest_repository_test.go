package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aimd54/academy-progression/internal/models"
)

func newSample(playerID uint, takenAt time.Time) *models.SkillTestSample {
	s := &models.SkillTestSample{
		SampleUUID:  uuid.NewString(),
		PlayerID:    playerID,
		SubmittedBy: playerID,
		Position:    "midfielder",
		Overall:     70,
		TakenAt:     takenAt,
	}
	s.SetResult(models.TestPassing, 45, 99)
	return s
}

func TestSkillTestRepository_ListAndLatest(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSkillTestRepository(db)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, newSample(1, base)))
	require.NoError(t, repo.Create(ctx, newSample(1, base.Add(48*time.Hour))))
	require.NoError(t, repo.Create(ctx, newSample(1, base.Add(24*time.Hour))))
	require.NoError(t, repo.Create(ctx, newSample(2, base.Add(72*time.Hour))))

	list, err := repo.ListByPlayer(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.True(t, list[0].TakenAt.Equal(base.Add(48*time.Hour)))
	assert.True(t, list[2].TakenAt.Equal(base))

	limited, err := repo.ListByPlayer(ctx, 1, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	latest, err := repo.Latest(ctx, 1)
	require.NoError(t, err)
	assert.True(t, latest.TakenAt.Equal(base.Add(48*time.Hour)))
	assert.Equal(t, models.Ratings{models.TestPassing: 99}, latest.Ratings())
	assert.Equal(t, models.Measurements{models.TestPassing: 45}, latest.Raw())

	_, err = repo.Latest(ctx, 3)
	assert.True(t, errors.Is(err, models.ErrSkillTestNotFound))
}
