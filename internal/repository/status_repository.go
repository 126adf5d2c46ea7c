package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aimd54/academy-progression/internal/models"
)

// StatusRepository handles per-user challenge status database operations.
type StatusRepository struct {
	db *DB
}

// NewStatusRepository creates a new status repository.
func NewStatusRepository(db *DB) *StatusRepository {
	return &StatusRepository{db: db}
}

// CreateBatch inserts status rows in one statement.
// A row that already exists fails the whole batch with gorm.ErrDuplicatedKey.
func (r *StatusRepository) CreateBatch(ctx context.Context, statuses []models.ChallengeStatus) error {
	if len(statuses) == 0 {
		return nil
	}
	if err := r.db.ctx(ctx).Create(&statuses).Error; err != nil {
		return fmt.Errorf("failed to create %d challenge statuses: %w", len(statuses), err)
	}
	return nil
}

// CreateIfMissing inserts a status row unless one already exists. It reports whether a row was inserted.
func (r *StatusRepository) CreateIfMissing(ctx context.Context, status *models.ChallengeStatus) (bool, error) {
	result := r.db.ctx(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(status)
	if result.Error != nil {
		return false, fmt.Errorf("failed to create challenge status: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Get retrieves the status of one challenge for a user.
func (r *StatusRepository) Get(ctx context.Context, userID, challengeID uint) (*models.ChallengeStatus, error) {
	return r.get(r.db.ctx(ctx), userID, challengeID)
}

// GetForUpdate retrieves a status row and locks it until the surrounding transaction ends.
func (r *StatusRepository) GetForUpdate(ctx context.Context, userID, challengeID uint) (*models.ChallengeStatus, error) {
	return r.get(r.db.forUpdate(ctx), userID, challengeID)
}

func (r *StatusRepository) get(q *gorm.DB, userID, challengeID uint) (*models.ChallengeStatus, error) {
	var status models.ChallengeStatus
	err := q.Where("user_id = ? AND challenge_id = ?", userID, challengeID).First(&status).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %d challenge %d: %w", userID, challengeID, models.ErrStatusNotFound)
		}
		return nil, fmt.Errorf("failed to get challenge status: %w", err)
	}
	return &status, nil
}

// ListByUser retrieves every status row of a user.
func (r *StatusRepository) ListByUser(ctx context.Context, userID uint) ([]models.ChallengeStatus, error) {
	var statuses []models.ChallengeStatus
	err := r.db.ctx(ctx).
		Where("user_id = ?", userID).
		Order("challenge_id ASC").
		Find(&statuses).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list challenge statuses for user %d: %w", userID, err)
	}
	return statuses, nil
}

// ListByUserAndChallenges retrieves the status rows of a user for the given challenges, keyed by challenge ID.
func (r *StatusRepository) ListByUserAndChallenges(ctx context.Context, userID uint, challengeIDs []uint) (map[uint]models.ChallengeStatus, error) {
	out := make(map[uint]models.ChallengeStatus, len(challengeIDs))
	if len(challengeIDs) == 0 {
		return out, nil
	}
	var statuses []models.ChallengeStatus
	err := r.db.ctx(ctx).
		Where("user_id = ? AND challenge_id IN ?", userID, challengeIDs).
		Find(&statuses).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list challenge statuses for user %d: %w", userID, err)
	}
	for _, s := range statuses {
		out[s.ChallengeID] = s
	}
	return out, nil
}

// CountByUser returns how many status rows a user has.
func (r *StatusRepository) CountByUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.ctx(ctx).Model(&models.ChallengeStatus{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count challenge statuses for user %d: %w", userID, err)
	}
	return count, nil
}

// CountCompleted returns how many challenges a user has completed.
func (r *StatusRepository) CountCompleted(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.ctx(ctx).Model(&models.ChallengeStatus{}).
		Where("user_id = ? AND state = ?", userID, models.StateCompleted).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count completed challenges for user %d: %w", userID, err)
	}
	return count, nil
}

// CategoryCount is a per-category aggregate.
type CategoryCount struct {
	Category string
	Count    int64
}

// CountCompletedByCategory returns the completed challenge count of a user per catalog category.
func (r *StatusRepository) CountCompletedByCategory(ctx context.Context, userID uint) ([]CategoryCount, error) {
	var rows []CategoryCount
	err := r.db.ctx(ctx).Model(&models.ChallengeStatus{}).
		Select("challenges.category AS category, COUNT(*) AS count").
		Joins("JOIN challenges ON challenges.id = challenge_statuses.challenge_id").
		Where("challenge_statuses.user_id = ? AND challenge_statuses.state = ?", userID, models.StateCompleted).
		Group("challenges.category").
		Order("challenges.category ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count completed challenges by category for user %d: %w", userID, err)
	}
	return rows, nil
}

// CompareAndSetState moves a status row from one state to another.
// The update only applies while the row is still in state from; otherwise
// models.ErrConcurrentModification is returned and nothing changes. Moves that are not
// forward in LOCKED -> AVAILABLE -> COMPLETED fail with models.ErrInvalidTransition.
func (r *StatusRepository) CompareAndSetState(ctx context.Context, userID, challengeID uint, from, to models.ChallengeState, at time.Time) error {
	if !from.CanAdvanceTo(to) {
		return fmt.Errorf("user %d challenge %d %s->%s: %w", userID, challengeID, from, to, models.ErrInvalidTransition)
	}

	updates := map[string]interface{}{"state": to}
	switch to {
	case models.StateAvailable:
		updates["unlocked_at"] = at
	case models.StateCompleted:
		updates["completed_at"] = at
	}

	result := r.db.ctx(ctx).Model(&models.ChallengeStatus{}).
		Where("user_id = ? AND challenge_id = ? AND state = ?", userID, challengeID, from).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update challenge status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("user %d challenge %d %s->%s: %w", userID, challengeID, from, to, models.ErrConcurrentModification)
	}
	return nil
}
