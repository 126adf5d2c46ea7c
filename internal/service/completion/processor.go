// Package completion processes challenge completions: status transition, attribute
// rewards, unlock propagation and badge award.
package completion

import (
	"context"
	"fmt"
	"time"

	"github.com/aimd54/academy-progression/internal/config"
	"github.com/aimd54/academy-progression/internal/models"
	"github.com/aimd54/academy-progression/internal/repository"
	"github.com/aimd54/academy-progression/internal/service/attributes"
	"github.com/aimd54/academy-progression/internal/service/catalog"
	"github.com/aimd54/academy-progression/internal/service/status"
	"github.com/aimd54/academy-progression/pkg/logger"
)

// Unlock propagation modes.
const (
	UnlockSuccessor = "successor"
	UnlockLevel     = "level"
)

// DefaultBadgeIcon is the icon of badges awarded on completion.
const DefaultBadgeIcon = "/badges/default_badge.png"

// Result is the outcome of a completion.
type Result struct {
	Challenge    models.Challenge
	Status       *models.ChallengeStatus
	Vector       *models.PlayerSkillVector
	Unlocked     []uint
	UnlockMode   string
	Badge        *models.Badge
	BadgeAwarded bool
}

// Processor completes challenges inside a caller-provided transaction.
type Processor struct {
	catalog    *catalog.Catalog
	tracker    *status.Tracker
	aggregator *attributes.Aggregator
	cfg        config.CompletionConfig
	now        func() time.Time
	log        *logger.Logger
}

// NewProcessor creates a completion processor.
func NewProcessor(
	cat *catalog.Catalog,
	tracker *status.Tracker,
	aggregator *attributes.Aggregator,
	cfg config.CompletionConfig,
	log *logger.Logger,
) *Processor {
	return &Processor{
		catalog:    cat,
		tracker:    tracker,
		aggregator: aggregator,
		cfg:        cfg,
		now:        time.Now,
		log:        log.Component("completion"),
	}
}

// WithClock replaces the time source.
func (p *Processor) WithClock(now func() time.Time) *Processor {
	p.now = now
	return p
}

// Boosts returns the specific and base boosts of a reward weight.
func (p *Processor) Boosts(rewardWeight int) (specific, base float64) {
	w := float64(rewardWeight)
	return w * p.cfg.SpecificMultiplier, w * p.cfg.BaseMultiplier
}

// Complete marks a challenge COMPLETED for a user and applies every side effect through tx.
// tx must be a transaction-bound store; any error leaves the caller to roll back.
func (p *Processor) Complete(ctx context.Context, tx *repository.Store, userID, challengeID uint) (*Result, error) {
	ch, err := p.catalog.GetByID(challengeID)
	if err != nil {
		return nil, err
	}

	st, err := p.tracker.TransitionToCompleted(ctx, tx.Statuses, userID, challengeID)
	if err != nil {
		return nil, err
	}

	specific, base := p.Boosts(ch.RewardWeight)
	deltas := Deltas(ch.Category, specific)

	vec, err := tx.Vectors.GetOrCreateForUpdate(ctx, userID)
	if err != nil {
		return nil, err
	}
	expected := vec.Version
	p.aggregator.ApplyCompletion(vec, deltas, base, p.now())
	if err := tx.Vectors.Update(ctx, vec, expected); err != nil {
		return nil, err
	}

	p.log.Debug().
		Uint("user_id", userID).
		Uint("challenge_id", challengeID).
		Str("category", ch.Category).
		Float64("specific_boost", specific).
		Float64("base_boost", base).
		Interface("deltas", deltas).
		Float64("overall", vec.Overall).
		Msg("Applied completion rewards")

	unlocked, mode, err := p.propagate(ctx, tx, userID, ch)
	if err != nil {
		return nil, err
	}

	badge, awarded, err := tx.Badges.Award(ctx, &models.Badge{
		UserID:      userID,
		ChallengeID: ch.ID,
		Name:        ch.Title + " Badge",
		Description: fmt.Sprintf("Awarded for completing %s", ch.Title),
		Icon:        DefaultBadgeIcon,
		EarnedAt:    p.now(),
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Challenge:    *ch,
		Status:       st,
		Vector:       vec,
		Unlocked:     unlocked,
		UnlockMode:   mode,
		Badge:        badge,
		BadgeAwarded: awarded,
	}, nil
}

// propagate unlocks direct successors, or the next level of the category once every
// challenge at the current level, weekly ones included, is completed. Weekly challenges
// unlock nothing themselves.
func (p *Processor) propagate(ctx context.Context, tx *repository.Store, userID uint, ch *models.Challenge) ([]uint, string, error) {
	if ch.IsWeekly {
		return nil, "", nil
	}

	if successors := p.catalog.Successors(ch.ID); len(successors) > 0 {
		unlocked, err := p.unlockAll(ctx, tx, userID, successors)
		return unlocked, UnlockSuccessor, err
	}

	next := p.catalog.Cohort(ch.Category, ch.Level+1)
	if len(next) == 0 {
		return nil, "", nil
	}

	current := p.catalog.AtLevel(ch.Category, ch.Level)
	ids := make([]uint, 0, len(current))
	for _, c := range current {
		ids = append(ids, c.ID)
	}
	statuses, err := tx.Statuses.ListByUserAndChallenges(ctx, userID, ids)
	if err != nil {
		return nil, "", err
	}
	for _, id := range ids {
		if statuses[id].State != models.StateCompleted {
			p.log.Debug().
				Uint("user_id", userID).
				Str("category", ch.Category).
				Int("level", ch.Level).
				Uint("pending_challenge_id", id).
				Msg("Current level incomplete, next level stays locked")
			return nil, "", nil
		}
	}

	nextIDs := make([]uint, 0, len(next))
	for _, c := range next {
		nextIDs = append(nextIDs, c.ID)
	}
	unlocked, err := p.unlockAll(ctx, tx, userID, nextIDs)
	return unlocked, UnlockLevel, err
}

func (p *Processor) unlockAll(ctx context.Context, tx *repository.Store, userID uint, ids []uint) ([]uint, error) {
	var unlocked []uint
	for _, id := range ids {
		changed, err := p.tracker.Unlock(ctx, tx.Statuses, userID, id, p.cfg.UnlockCreatesMissingStatus)
		if err != nil {
			return nil, fmt.Errorf("failed to unlock challenge %d: %w", id, err)
		}
		if changed {
			unlocked = append(unlocked, id)
		}
	}
	return unlocked, nil
}
