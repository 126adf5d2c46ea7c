// Package status tracks the per-user LOCKED, AVAILABLE and COMPLETED state of catalog challenges.
package status

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/aimd54/academy-progression/internal/models"
	"github.com/aimd54/academy-progression/internal/service/catalog"
	"github.com/aimd54/academy-progression/pkg/logger"
)

// Store is the status persistence used by the tracker. Callers pass a
// transaction-bound store when the transition is part of a larger unit.
type Store interface {
	CreateBatch(ctx context.Context, statuses []models.ChallengeStatus) error
	CreateIfMissing(ctx context.Context, status *models.ChallengeStatus) (bool, error)
	Get(ctx context.Context, userID, challengeID uint) (*models.ChallengeStatus, error)
	GetForUpdate(ctx context.Context, userID, challengeID uint) (*models.ChallengeStatus, error)
	ListByUser(ctx context.Context, userID uint) ([]models.ChallengeStatus, error)
	ListByUserAndChallenges(ctx context.Context, userID uint, challengeIDs []uint) (map[uint]models.ChallengeStatus, error)
	CountByUser(ctx context.Context, userID uint) (int64, error)
	CompareAndSetState(ctx context.Context, userID, challengeID uint, from, to models.ChallengeState, at time.Time) error
}

// Tracker applies state transitions against a Store.
type Tracker struct {
	catalog *catalog.Catalog
	now     func() time.Time
	log     *logger.Logger
}

// NewTracker creates a status tracker over a catalog.
func NewTracker(cat *catalog.Catalog, log *logger.Logger) *Tracker {
	return &Tracker{catalog: cat, now: time.Now, log: log.Component("status")}
}

// WithClock replaces the time source.
func (t *Tracker) WithClock(now func() time.Time) *Tracker {
	t.now = now
	return t
}

// InitialState returns the state a challenge starts in for a new user.
func InitialState(ch models.Challenge) models.ChallengeState {
	if ch.Level == 1 || ch.IsWeekly {
		return models.StateAvailable
	}
	return models.StateLocked
}

// Initialize creates one status row per catalog challenge for a user and returns how many were created.
// It fails with models.ErrAlreadyInitialized when the user already has any row.
func (t *Tracker) Initialize(ctx context.Context, store Store, userID uint) (int, error) {
	existing, err := store.CountByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	if existing > 0 {
		return 0, fmt.Errorf("user %d has %d statuses: %w", userID, existing, models.ErrAlreadyInitialized)
	}

	now := t.now()
	challenges := t.catalog.All()
	rows := make([]models.ChallengeStatus, 0, len(challenges))
	for _, ch := range challenges {
		row := models.ChallengeStatus{
			UserID:      userID,
			ChallengeID: ch.ID,
			State:       InitialState(ch),
		}
		if row.State == models.StateAvailable {
			unlocked := now
			row.UnlockedAt = &unlocked
		}
		rows = append(rows, row)
	}

	if err := store.CreateBatch(ctx, rows); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, fmt.Errorf("user %d: %w", userID, models.ErrAlreadyInitialized)
		}
		return 0, err
	}

	t.log.Debug().Uint("user_id", userID).Int("count", len(rows)).Msg("Initialized challenge statuses")
	return len(rows), nil
}

// GetStatus returns the stored status, or a LOCKED placeholder for a catalog challenge without a row.
func (t *Tracker) GetStatus(ctx context.Context, store Store, userID, challengeID uint) (*models.ChallengeStatus, error) {
	if !t.catalog.Contains(challengeID) {
		return nil, fmt.Errorf("challenge %d: %w", challengeID, models.ErrChallengeNotFound)
	}
	st, err := store.Get(ctx, userID, challengeID)
	if errors.Is(err, models.ErrStatusNotFound) {
		return lockedPlaceholder(userID, challengeID), nil
	}
	return st, err
}

// ListForUser returns one status per catalog challenge, LOCKED placeholders filling the gaps.
func (t *Tracker) ListForUser(ctx context.Context, store Store, userID uint) (map[uint]models.ChallengeStatus, error) {
	rows, err := store.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make(map[uint]models.ChallengeStatus, t.catalog.Len())
	for _, ch := range t.catalog.All() {
		out[ch.ID] = *lockedPlaceholder(userID, ch.ID)
	}
	for _, row := range rows {
		if _, inCatalog := out[row.ChallengeID]; inCatalog {
			out[row.ChallengeID] = row
		}
	}
	return out, nil
}

// TransitionToAvailable unlocks a LOCKED challenge. It reports whether the state changed;
// AVAILABLE and COMPLETED rows are left alone. A missing row is models.ErrStatusNotFound.
func (t *Tracker) TransitionToAvailable(ctx context.Context, store Store, userID, challengeID uint) (bool, error) {
	st, err := store.GetForUpdate(ctx, userID, challengeID)
	if err != nil {
		return false, err
	}
	if st.State != models.StateLocked {
		return false, nil
	}
	if err := store.CompareAndSetState(ctx, userID, challengeID, models.StateLocked, models.StateAvailable, t.now()); err != nil {
		return false, err
	}
	t.log.Debug().Uint("user_id", userID).Uint("challenge_id", challengeID).Msg("Challenge unlocked")
	return true, nil
}

// Unlock makes a challenge AVAILABLE for a user. With createMissing a missing row is
// inserted as AVAILABLE; otherwise a missing row is skipped without error.
func (t *Tracker) Unlock(ctx context.Context, store Store, userID, challengeID uint, createMissing bool) (bool, error) {
	changed, err := t.TransitionToAvailable(ctx, store, userID, challengeID)
	if !errors.Is(err, models.ErrStatusNotFound) {
		return changed, err
	}
	if !createMissing {
		return false, nil
	}
	now := t.now()
	created, err := store.CreateIfMissing(ctx, &models.ChallengeStatus{
		UserID:      userID,
		ChallengeID: challengeID,
		State:       models.StateAvailable,
		UnlockedAt:  &now,
	})
	if err != nil {
		return false, err
	}
	if created {
		t.log.Debug().Uint("user_id", userID).Uint("challenge_id", challengeID).Msg("Challenge status created as available")
	}
	return created, nil
}

// TransitionToCompleted completes an AVAILABLE challenge. COMPLETED rows fail with
// models.ErrAlreadyCompleted, anything else (including no row) with models.ErrNotAvailable.
func (t *Tracker) TransitionToCompleted(ctx context.Context, store Store, userID, challengeID uint) (*models.ChallengeStatus, error) {
	st, err := store.GetForUpdate(ctx, userID, challengeID)
	if errors.Is(err, models.ErrStatusNotFound) {
		st, err = lockedPlaceholder(userID, challengeID), nil
	}
	if err != nil {
		return nil, err
	}

	switch st.State {
	case models.StateCompleted:
		return nil, fmt.Errorf("user %d challenge %d: %w", userID, challengeID, models.ErrAlreadyCompleted)
	case models.StateAvailable:
	default:
		return nil, fmt.Errorf("user %d challenge %d is %s: %w", userID, challengeID, st.State, models.ErrNotAvailable)
	}

	now := t.now()
	if err := store.CompareAndSetState(ctx, userID, challengeID, models.StateAvailable, models.StateCompleted, now); err != nil {
		return nil, err
	}
	st.State = models.StateCompleted
	st.CompletedAt = &now
	return st, nil
}

func lockedPlaceholder(userID, challengeID uint) *models.ChallengeStatus {
	return &models.ChallengeStatus{UserID: userID, ChallengeID: challengeID, State: models.StateLocked}
}
