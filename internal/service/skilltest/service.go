// Package skilltest rates physical test submissions and blends them into player skill vectors.
package skilltest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aimd54/academy-progression/internal/models"
	"github.com/aimd54/academy-progression/internal/repository"
	"github.com/aimd54/academy-progression/internal/service/attributes"
	"github.com/aimd54/academy-progression/internal/service/rating"
	"github.com/aimd54/academy-progression/pkg/logger"
)

// Submission is one set of raw measurements for a player.
type Submission struct {
	PlayerID     uint
	Measurements models.Measurements
	// Position overrides the player profile position when set.
	Position string
	// TakenAt defaults to now.
	TakenAt time.Time
}

// Result is the outcome of a submission.
type Result struct {
	Sample  *models.SkillTestSample
	Vector  *models.PlayerSkillVector
	Ratings models.Ratings
	Blend   attributes.BlendResult
}

// History is the read side of stored samples.
type History interface {
	ListByPlayer(ctx context.Context, playerID uint, limit int) ([]models.SkillTestSample, error)
	Latest(ctx context.Context, playerID uint) (*models.SkillTestSample, error)
}

// Service handles skill test submissions.
type Service struct {
	converter  *rating.Converter
	aggregator *attributes.Aggregator
	now        func() time.Time
	newID      func() string
	log        *logger.Logger
}

// NewService creates a skill test service.
func NewService(converter *rating.Converter, aggregator *attributes.Aggregator, log *logger.Logger) *Service {
	return &Service{
		converter:  converter,
		aggregator: aggregator,
		now:        time.Now,
		newID:      uuid.NewString,
		log:        log.Component("skilltest"),
	}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Submit rates the measurements, stores the sample and blends the ratings into the
// player's vector. tx must be a transaction-bound store.
func (s *Service) Submit(ctx context.Context, tx *repository.Store, principal models.Principal, sub Submission) (*Result, error) {
	if !principal.CanActFor(sub.PlayerID) {
		return nil, fmt.Errorf("user %d cannot submit tests for player %d: %w", principal.UserID, sub.PlayerID, models.ErrForbidden)
	}
	if len(sub.Measurements) == 0 {
		return nil, models.NewValidationError("measurements", "at least one test result is required")
	}

	position, err := s.resolvePosition(ctx, tx.Users, sub)
	if err != nil {
		return nil, err
	}

	ratings, err := s.converter.RateAll(sub.Measurements, position)
	if err != nil {
		return nil, err
	}

	completed, err := tx.Statuses.CountCompleted(ctx, sub.PlayerID)
	if err != nil {
		return nil, err
	}

	vec, err := tx.Vectors.GetOrCreateForUpdate(ctx, sub.PlayerID)
	if err != nil {
		return nil, err
	}
	expected := vec.Version
	now := s.now()
	blend := s.aggregator.BlendTestRatings(vec, ratings, completed, now)

	takenAt := sub.TakenAt
	if takenAt.IsZero() {
		takenAt = now
	}
	sample := &models.SkillTestSample{
		SampleUUID:    s.newID(),
		PlayerID:      sub.PlayerID,
		SubmittedBy:   principal.UserID,
		Position:      position,
		Overall:       rating.Overall(ratings),
		ActivityLevel: blend.ActivityLevel,
		TakenAt:       takenAt,
	}
	for test, r := range ratings {
		sample.SetResult(test, sub.Measurements[test], r)
	}

	if err := tx.SkillTests.Create(ctx, sample); err != nil {
		return nil, err
	}
	if err := tx.Vectors.Update(ctx, vec, expected); err != nil {
		return nil, err
	}

	s.log.Debug().
		Uint("player_id", sub.PlayerID).
		Uint("submitted_by", principal.UserID).
		Str("position", position).
		Interface("ratings", ratings).
		Int64("completed_challenges", completed).
		Float64("activity_weight", blend.ActivityWeight).
		Float64("overall", vec.Overall).
		Msg("Blended skill test ratings")

	return &Result{Sample: sample, Vector: vec, Ratings: ratings, Blend: blend}, nil
}

// resolvePosition picks the submitted position, then the profile position, then the default.
func (s *Service) resolvePosition(ctx context.Context, users *repository.UserRepository, sub Submission) (string, error) {
	if sub.Position != "" {
		return s.converter.Position(sub.Position), nil
	}

	user, err := users.GetByID(ctx, sub.PlayerID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			s.log.Warn().Uint("player_id", sub.PlayerID).Msg("No player profile, using default position")
			return s.converter.Position(""), nil
		}
		return "", err
	}
	return s.converter.Position(user.Position), nil
}

// List returns a player's samples, newest first.
func (s *Service) List(ctx context.Context, history History, principal models.Principal, playerID uint, limit int) ([]models.SkillTestSample, error) {
	if !principal.CanActFor(playerID) {
		return nil, fmt.Errorf("user %d cannot read tests of player %d: %w", principal.UserID, playerID, models.ErrForbidden)
	}
	return history.ListByPlayer(ctx, playerID, limit)
}

// Latest returns a player's most recent sample.
func (s *Service) Latest(ctx context.Context, history History, principal models.Principal, playerID uint) (*models.SkillTestSample, error) {
	if !principal.CanActFor(playerID) {
		return nil, fmt.Errorf("user %d cannot read tests of player %d: %w", principal.UserID, playerID, models.ErrForbidden)
	}
	return history.Latest(ctx, playerID)
}
