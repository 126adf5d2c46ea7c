package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/aimd54/academy-progression/internal/models"
)

// SkillTestRepository stores skill test samples. Samples are never updated.
type SkillTestRepository struct {
	db *DB
}

// NewSkillTestRepository creates a new skill test repository.
func NewSkillTestRepository(db *DB) *SkillTestRepository {
	return &SkillTestRepository{db: db}
}

// Create stores a new sample.
func (r *SkillTestRepository) Create(ctx context.Context, sample *models.SkillTestSample) error {
	if err := r.db.ctx(ctx).Create(sample).Error; err != nil {
		return fmt.Errorf("failed to create skill test sample: %w", err)
	}
	return nil
}

// ListByPlayer retrieves the samples of a player, newest first. A limit <= 0 returns all of them.
func (r *SkillTestRepository) ListByPlayer(ctx context.Context, playerID uint, limit int) ([]models.SkillTestSample, error) {
	q := r.db.ctx(ctx).
		Where("player_id = ?", playerID).
		Order("taken_at DESC").
		Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var samples []models.SkillTestSample
	if err := q.Find(&samples).Error; err != nil {
		return nil, fmt.Errorf("failed to list skill tests for player %d: %w", playerID, err)
	}
	return samples, nil
}

// Latest retrieves the most recent sample of a player.
func (r *SkillTestRepository) Latest(ctx context.Context, playerID uint) (*models.SkillTestSample, error) {
	var sample models.SkillTestSample
	err := r.db.ctx(ctx).
		Where("player_id = ?", playerID).
		Order("taken_at DESC").
		Order("id DESC").
		First(&sample).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("player %d: %w", playerID, models.ErrSkillTestNotFound)
		}
		return nil, fmt.Errorf("failed to get latest skill test for player %d: %w", playerID, err)
	}
	return &sample, nil
}
