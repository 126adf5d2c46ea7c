package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"github.com/aimd54/academy-progression/internal/models"
)

// BadgeRepository handles badge-related database operations.
type BadgeRepository struct {
	db *DB
}

// NewBadgeRepository creates a new badge repository.
func NewBadgeRepository(db *DB) *BadgeRepository {
	return &BadgeRepository{db: db}
}

// Award stores a badge for a (user, challenge) pair.
// It is idempotent: when the pair already holds a badge, that badge is returned and awarded is false.
func (r *BadgeRepository) Award(ctx context.Context, badge *models.Badge) (stored *models.Badge, awarded bool, err error) {
	result := r.db.ctx(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(badge)
	if result.Error != nil {
		return nil, false, fmt.Errorf("failed to award badge: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		return badge, true, nil
	}

	existing, err := r.Get(ctx, badge.UserID, badge.ChallengeID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// Get retrieves the badge a user earned for a challenge.
func (r *BadgeRepository) Get(ctx context.Context, userID, challengeID uint) (*models.Badge, error) {
	var badge models.Badge
	err := r.db.ctx(ctx).
		Where("user_id = ? AND challenge_id = ?", userID, challengeID).
		First(&badge).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get badge for user %d challenge %d: %w", userID, challengeID, err)
	}
	return &badge, nil
}

// ListByUser retrieves all badges earned by a user with their challenge preloaded, newest first.
func (r *BadgeRepository) ListByUser(ctx context.Context, userID uint) ([]models.Badge, error) {
	var badges []models.Badge
	err := r.db.ctx(ctx).
		Where("user_id = ?", userID).
		Preload("Challenge").
		Order("earned_at DESC").
		Order("id DESC").
		Find(&badges).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list badges for user %d: %w", userID, err)
	}
	return badges, nil
}

// CountByCategory returns the number of badges of a user per challenge category.
func (r *BadgeRepository) CountByCategory(ctx context.Context, userID uint) ([]CategoryCount, error) {
	var rows []CategoryCount
	err := r.db.ctx(ctx).Model(&models.Badge{}).
		Select("challenges.category AS category, COUNT(*) AS count").
		Joins("JOIN challenges ON challenges.id = badges.challenge_id").
		Where("badges.user_id = ?", userID).
		Group("challenges.category").
		Order("challenges.category ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count badges by category for user %d: %w", userID, err)
	}
	return rows, nil
}
