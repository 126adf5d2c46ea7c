package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aimd54/academy-progression/internal/models"
)

// ChallengeRepository handles challenge catalog database operations.
type ChallengeRepository struct {
	db *DB
}

// NewChallengeRepository creates a new challenge repository.
func NewChallengeRepository(db *DB) *ChallengeRepository {
	return &ChallengeRepository{db: db}
}

// Create creates a new challenge.
func (r *ChallengeRepository) Create(ctx context.Context, challenge *models.Challenge) error {
	if err := r.db.ctx(ctx).Create(challenge).Error; err != nil {
		return fmt.Errorf("failed to create challenge: %w", err)
	}
	return nil
}

// Upsert inserts challenges, updating existing rows with the same ID.
func (r *ChallengeRepository) Upsert(ctx context.Context, challenges []models.Challenge) error {
	if len(challenges) == 0 {
		return nil
	}
	err := r.db.ctx(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"title", "description", "category", "level", "prerequisite_id", "reward_weight", "is_weekly", "updated_at",
			}),
		}).
		Create(&challenges).Error
	if err != nil {
		return fmt.Errorf("failed to upsert %d challenges: %w", len(challenges), err)
	}
	return nil
}

// GetByID retrieves a challenge by ID.
func (r *ChallengeRepository) GetByID(ctx context.Context, id uint) (*models.Challenge, error) {
	var challenge models.Challenge
	if err := r.db.ctx(ctx).First(&challenge, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("challenge %d: %w", id, models.ErrChallengeNotFound)
		}
		return nil, fmt.Errorf("failed to get challenge %d: %w", id, err)
	}
	return &challenge, nil
}

// List retrieves the whole catalog ordered by category, level and ID.
func (r *ChallengeRepository) List(ctx context.Context) ([]models.Challenge, error) {
	var challenges []models.Challenge
	err := r.db.ctx(ctx).
		Order("category ASC").
		Order("level ASC").
		Order("id ASC").
		Find(&challenges).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}
	return challenges, nil
}

// Count returns the catalog size.
func (r *ChallengeRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.ctx(ctx).Model(&models.Challenge{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count challenges: %w", err)
	}
	return count, nil
}
