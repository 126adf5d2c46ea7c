// Package progression exposes the challenge progression and player rating operations.
package progression

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/aimd54/academy-progression/internal/cache"
	"github.com/aimd54/academy-progression/internal/config"
	"github.com/aimd54/academy-progression/internal/metrics"
	"github.com/aimd54/academy-progression/internal/models"
	"github.com/aimd54/academy-progression/internal/repository"
	"github.com/aimd54/academy-progression/internal/service/attributes"
	"github.com/aimd54/academy-progression/internal/service/catalog"
	"github.com/aimd54/academy-progression/internal/service/completion"
	"github.com/aimd54/academy-progression/internal/service/rating"
	"github.com/aimd54/academy-progression/internal/service/skilltest"
	"github.com/aimd54/academy-progression/internal/service/status"
	"github.com/aimd54/academy-progression/pkg/logger"
)

// Operation names used in logs and metrics.
const (
	OpInitialize    = "initialize_statuses"
	OpComplete      = "complete_challenge"
	OpSubmitTest    = "submit_skill_test"
	conflictBusy    = "busy"
	conflictVersion = "modification"
)

// Engine wires the catalog, status tracker, completion processor and skill test
// service over one store.
type Engine struct {
	store      *repository.Store
	catalog    *catalog.Catalog
	cfg        config.ProgressionConfig
	converter  *rating.Converter
	tracker    *status.Tracker
	processor  *completion.Processor
	skillTests *skilltest.Service
	vectors    *cache.VectorCache
	locker     *cache.UserLocker
	log        *logger.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithCache enables the skill vector cache and the per-user fail-fast lock.
func WithCache(c cache.Cache) Option {
	return func(e *Engine) {
		e.vectors = cache.NewVectorCache(c, e.cfg.VectorCacheTTL())
		e.locker = cache.NewUserLocker(c, e.cfg.LockTTL())
	}
}

// WithClock replaces the time source of every component.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.tracker.WithClock(now)
		e.processor.WithClock(now)
		e.skillTests.WithClock(now)
	}
}

// New creates an engine over an already loaded catalog.
func New(store *repository.Store, cat *catalog.Catalog, cfg config.ProgressionConfig, log *logger.Logger, opts ...Option) *Engine {
	converter := rating.NewConverter(cfg.Rating)
	aggregator := attributes.NewAggregator(cfg.Blend)
	tracker := status.NewTracker(cat, log)

	e := &Engine{
		store:      store,
		catalog:    cat,
		cfg:        cfg,
		converter:  converter,
		tracker:    tracker,
		processor:  completion.NewProcessor(cat, tracker, aggregator, cfg.Completion, log),
		skillTests: skilltest.NewService(converter, aggregator, log),
		log:        log.Component("progression"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Load builds the catalog from the store and creates an engine.
func Load(ctx context.Context, store *repository.Store, cfg config.ProgressionConfig, log *logger.Logger, opts ...Option) (*Engine, error) {
	cat, err := catalog.Load(ctx, store.Challenges)
	if err != nil {
		return nil, err
	}
	log.Info().Int("challenges", cat.Len()).Strs("categories", cat.Categories()).Msg("Challenge catalog loaded")
	return New(store, cat, cfg, log, opts...), nil
}

// Catalog returns the loaded catalog.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// InitializeChallengeStatuses creates the status rows of a new user and returns how many were created.
func (e *Engine) InitializeChallengeStatuses(ctx context.Context, userID uint) (int, error) {
	start := time.Now()
	defer metrics.ObserveOperation(OpInitialize, start)
	log := e.log.WithOperation(OpInitialize, uuid.NewString())

	var created int
	err := e.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		created, err = e.tracker.Initialize(ctx, tx.Statuses, userID)
		return err
	})
	if err != nil {
		log.Warn().Err(err).Uint("user_id", userID).Msg("Failed to initialize challenge statuses")
		return 0, err
	}

	metrics.RecordStatusesInitialized()
	log.Info().Uint("user_id", userID).Int("statuses", created).Msg("Challenge statuses initialized")
	return created, nil
}

// CompleteChallenge completes a challenge for a user and applies its rewards and unlocks.
func (e *Engine) CompleteChallenge(ctx context.Context, userID, challengeID uint) (*ChallengeStatusView, error) {
	start := time.Now()
	defer metrics.ObserveOperation(OpComplete, start)
	log := e.log.WithOperation(OpComplete, uuid.NewString())

	release, err := e.lock(ctx, OpComplete, userID)
	if err != nil {
		metrics.RecordCompletionFailure(failureReason(err))
		return nil, err
	}
	defer release()

	var res *completion.Result
	err = e.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		res, err = e.processor.Complete(ctx, tx, userID, challengeID)
		return err
	})
	if err != nil {
		reason := failureReason(err)
		metrics.RecordCompletionFailure(reason)
		if errors.Is(err, models.ErrConcurrentModification) {
			metrics.RecordConflict(OpComplete, conflictVersion)
		}
		log.Warn().Err(err).
			Uint("user_id", userID).
			Uint("challenge_id", challengeID).
			Str("reason", reason).
			Msg("Challenge completion rejected")
		return nil, err
	}

	e.invalidate(ctx, log, userID)

	metrics.RecordChallengeCompleted(catalog.NormalizeCategory(res.Challenge.Category))
	metrics.RecordUnlocks(res.UnlockMode, len(res.Unlocked))
	if res.BadgeAwarded {
		metrics.RecordBadgeAwarded()
	}

	log.Info().
		Uint("user_id", userID).
		Uint("challenge_id", challengeID).
		Str("category", res.Challenge.Category).
		Uints("unlocked", res.Unlocked).
		Str("unlock_mode", res.UnlockMode).
		Float64("overall", res.Vector.Overall).
		Msg("Challenge completed")

	return newChallengeStatusView(res), nil
}

// GetChallengesWithStatus returns every catalog challenge with the user's state, ordered by ID.
func (e *Engine) GetChallengesWithStatus(ctx context.Context, userID uint) ([]ChallengeView, error) {
	statuses, err := e.tracker.ListForUser(ctx, e.store.Statuses, userID)
	if err != nil {
		return nil, err
	}

	all := e.catalog.All()
	views := make([]ChallengeView, 0, len(all))
	for _, ch := range all {
		st := statuses[ch.ID]
		views = append(views, ChallengeView{
			ID:             ch.ID,
			Title:          ch.Title,
			Description:    ch.Description,
			Category:       ch.Category,
			Level:          ch.Level,
			PrerequisiteID: ch.PrerequisiteID,
			RewardWeight:   ch.RewardWeight,
			IsWeekly:       ch.IsWeekly,
			State:          st.State,
			UnlockedAt:     st.UnlockedAt,
			CompletedAt:    st.CompletedAt,
		})
	}
	return views, nil
}

// SubmitSkillTest rates raw measurements for a player and blends them into the player's vector.
// An empty position falls back to the player profile, then to the default position.
func (e *Engine) SubmitSkillTest(
	ctx context.Context,
	userID uint,
	raw models.Measurements,
	position string,
	submittedBy models.Principal,
) (*SkillTestSampleView, error) {
	start := time.Now()
	defer metrics.ObserveOperation(OpSubmitTest, start)
	log := e.log.WithOperation(OpSubmitTest, uuid.NewString())

	label := "profile"
	if position != "" {
		label = e.converter.Position(position)
	}

	release, err := e.lock(ctx, OpSubmitTest, userID)
	if err != nil {
		metrics.RecordSkillTestSubmitted(label, "rejected")
		return nil, err
	}
	defer release()

	var res *skilltest.Result
	err = e.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		res, err = e.skillTests.Submit(ctx, tx, submittedBy, skilltest.Submission{
			PlayerID:     userID,
			Measurements: raw,
			Position:     position,
		})
		return err
	})
	if err != nil {
		metrics.RecordSkillTestSubmitted(label, "rejected")
		if errors.Is(err, models.ErrConcurrentModification) {
			metrics.RecordConflict(OpSubmitTest, conflictVersion)
		}
		log.Warn().Err(err).
			Uint("player_id", userID).
			Uint("submitted_by", submittedBy.UserID).
			Msg("Skill test submission rejected")
		return nil, err
	}

	e.invalidate(ctx, log, userID)

	metrics.RecordSkillTestSubmitted(res.Sample.Position, "accepted")
	for test, r := range res.Ratings {
		metrics.RecordSkillTestRating(string(test), r)
	}

	log.Info().
		Uint("player_id", userID).
		Uint("submitted_by", submittedBy.UserID).
		Str("sample_uuid", res.Sample.SampleUUID).
		Str("position", res.Sample.Position).
		Float64("test_overall", res.Sample.Overall).
		Float64("overall", res.Vector.Overall).
		Msg("Skill test submitted")

	view := newSampleView(res.Sample)
	view.Vector = newVectorView(res.Vector)
	return view, nil
}

// GetPlayerSkillVector returns the vector of a user, or the default vector when the user has none.
// Reads go through the vector cache when one is configured.
func (e *Engine) GetPlayerSkillVector(ctx context.Context, userID uint) (*PlayerSkillVectorView, error) {
	if e.vectors != nil {
		vec, err := e.vectors.Get(ctx, userID)
		switch {
		case err != nil:
			metrics.RecordVectorCacheResult("error")
			e.log.Warn().Err(err).Uint("user_id", userID).Msg("Skill vector cache read failed, using store")
		case vec != nil:
			metrics.RecordVectorCacheResult("hit")
			return newVectorView(vec), nil
		default:
			metrics.RecordVectorCacheResult("miss")
		}
	}

	vec, err := e.store.Vectors.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if vec == nil {
		return newVectorView(models.NewPlayerSkillVector(userID)), nil
	}

	if e.vectors != nil {
		e.cacheVector(ctx, vec)
	}
	return newVectorView(vec), nil
}

// cacheVector stores vec and drops it again when the stored version moved on meanwhile.
// Writers invalidate after commit, so a stale entry never outlives this check.
func (e *Engine) cacheVector(ctx context.Context, vec *models.PlayerSkillVector) {
	if err := e.vectors.Put(ctx, vec); err != nil {
		e.log.Warn().Err(err).Uint("user_id", vec.UserID).Msg("Failed to cache skill vector")
		return
	}

	current, err := e.store.Vectors.Get(ctx, vec.UserID)
	switch {
	case err != nil:
		e.log.Warn().Err(err).Uint("user_id", vec.UserID).Msg("Failed to recheck cached skill vector")
	case current != nil && current.Version == vec.Version:
		return
	default:
		metrics.RecordVectorCacheResult("stale")
	}
	e.invalidate(ctx, e.log, vec.UserID)
}

// ListSkillTests returns a player's samples, newest first. A limit <= 0 returns all of them.
func (e *Engine) ListSkillTests(ctx context.Context, principal models.Principal, playerID uint, limit int) ([]SkillTestSampleView, error) {
	samples, err := e.skillTests.List(ctx, e.store.SkillTests, principal, playerID, limit)
	if err != nil {
		return nil, err
	}
	views := make([]SkillTestSampleView, 0, len(samples))
	for i := range samples {
		views = append(views, *newSampleView(&samples[i]))
	}
	return views, nil
}

// LatestSkillTest returns a player's most recent sample.
func (e *Engine) LatestSkillTest(ctx context.Context, principal models.Principal, playerID uint) (*SkillTestSampleView, error) {
	sample, err := e.skillTests.Latest(ctx, e.store.SkillTests, principal, playerID)
	if err != nil {
		return nil, err
	}
	return newSampleView(sample), nil
}

// GetChallengeStatistics summarizes a user's completions and badges per category.
func (e *Engine) GetChallengeStatistics(ctx context.Context, userID uint) (*ChallengeStatistics, error) {
	completed, err := e.store.Statuses.CountCompleted(ctx, userID)
	if err != nil {
		return nil, err
	}
	byCategory, err := e.store.Statuses.CountCompletedByCategory(ctx, userID)
	if err != nil {
		return nil, err
	}
	badges, err := e.store.Badges.CountByCategory(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &ChallengeStatistics{
		UserID:              userID,
		TotalChallenges:     e.catalog.Len(),
		Completed:           completed,
		CompletedByCategory: foldCategories(byCategory),
		BadgesByCategory:    foldCategories(badges),
		ActivityLevel:       e.cfg.Blend.ActivityLevel(completed),
	}, nil
}

// GetUserBadges returns the badges of a user, newest first.
func (e *Engine) GetUserBadges(ctx context.Context, userID uint) ([]BadgeView, error) {
	badges, err := e.store.Badges.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	views := make([]BadgeView, 0, len(badges))
	for i := range badges {
		views = append(views, *newBadgeView(&badges[i]))
	}
	return views, nil
}

// lock takes the user's lock when a cache is configured. The returned release never fails the caller.
func (e *Engine) lock(ctx context.Context, op string, userID uint) (func(), error) {
	if e.locker == nil {
		return func() {}, nil
	}
	release, err := e.locker.Acquire(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrBusy) {
			metrics.RecordConflict(op, conflictBusy)
		}
		return nil, err
	}
	return func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			e.log.Warn().Err(err).Uint("user_id", userID).Msg("Failed to release user lock")
		}
	}, nil
}

func (e *Engine) invalidate(ctx context.Context, log *logger.Logger, userID uint) {
	if e.vectors == nil {
		return
	}
	if err := e.vectors.Invalidate(ctx, userID); err != nil {
		log.Warn().Err(err).Uint("user_id", userID).Msg("Failed to invalidate cached skill vector")
	}
}

// failureReason maps an error to a metrics label.
func failureReason(err error) string {
	switch {
	case errors.Is(err, models.ErrChallengeNotFound):
		return "not_found"
	case errors.Is(err, models.ErrAlreadyCompleted):
		return "already_completed"
	case errors.Is(err, models.ErrNotAvailable):
		return "not_available"
	case errors.Is(err, models.ErrConcurrentModification):
		return "conflict"
	case errors.Is(err, models.ErrBusy):
		return "busy"
	default:
		return "error"
	}
}

func foldCategories(rows []repository.CategoryCount) map[string]int64 {
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[catalog.NormalizeCategory(row.Category)] += row.Count
	}
	return out
}
