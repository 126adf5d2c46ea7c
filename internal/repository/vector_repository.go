package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aimd54/academy-progression/internal/models"
)

// VectorRepository handles player skill vector database operations.
type VectorRepository struct {
	db *DB
}

// NewVectorRepository creates a new skill vector repository.
func NewVectorRepository(db *DB) *VectorRepository {
	return &VectorRepository{db: db}
}

// Get retrieves the vector of a user. It returns (nil, nil) when the user has none yet.
func (r *VectorRepository) Get(ctx context.Context, userID uint) (*models.PlayerSkillVector, error) {
	return r.get(r.db.ctx(ctx), userID)
}

// GetOrCreateForUpdate returns the locked vector of a user, creating the default vector first when missing.
func (r *VectorRepository) GetOrCreateForUpdate(ctx context.Context, userID uint) (*models.PlayerSkillVector, error) {
	err := r.db.ctx(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(models.NewPlayerSkillVector(userID)).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create skill vector for user %d: %w", userID, err)
	}

	vec, err := r.get(r.db.forUpdate(ctx), userID)
	if err != nil {
		return nil, err
	}
	if vec == nil {
		return nil, fmt.Errorf("skill vector for user %d vanished after insert: %w", userID, models.ErrConcurrentModification)
	}
	return vec, nil
}

func (r *VectorRepository) get(q *gorm.DB, userID uint) (*models.PlayerSkillVector, error) {
	var vec models.PlayerSkillVector
	if err := q.Where("user_id = ?", userID).First(&vec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get skill vector for user %d: %w", userID, err)
	}
	return &vec, nil
}

// Update writes vec if its stored version still equals expectedVersion.
// vec.Version must already hold the new version.
func (r *VectorRepository) Update(ctx context.Context, vec *models.PlayerSkillVector, expectedVersion int) error {
	result := r.db.ctx(ctx).Model(&models.PlayerSkillVector{}).
		Where("user_id = ? AND version = ?", vec.UserID, expectedVersion).
		Updates(map[string]interface{}{
			"pace":         vec.Pace,
			"shooting":     vec.Shooting,
			"passing":      vec.Passing,
			"dribbling":    vec.Dribbling,
			"juggles":      vec.Juggles,
			"first_touch":  vec.FirstTouch,
			"overall":      vec.Overall,
			"version":      vec.Version,
			"last_updated": vec.LastUpdated,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update skill vector for user %d: %w", vec.UserID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("skill vector for user %d at version %d: %w", vec.UserID, expectedVersion, models.ErrConcurrentModification)
	}
	return nil
}
