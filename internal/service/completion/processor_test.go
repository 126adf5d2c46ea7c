package completion

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aimd54/academy-progression/internal/config"
	"github.com/aimd54/academy-progression/internal/models"
	"github.com/aimd54/academy-progression/internal/repository"
	"github.com/aimd54/academy-progression/internal/repository/repotest"
	"github.com/aimd54/academy-progression/internal/service/attributes"
	"github.com/aimd54/academy-progression/internal/service/catalog"
	"github.com/aimd54/academy-progression/internal/service/status"
	"github.com/aimd54/academy-progression/pkg/logger"
)

var fixedNow = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

func ptr(v uint) *uint { return &v }

func testChallenges() []models.Challenge {
	return []models.Challenge{
		// passing: 1 -> 2 chain, plus a level cohort 3,4 unlocking level 2 challenge 5.
		{ID: 1, Title: "Wall passes", Category: "passing", Level: 1, RewardWeight: 100},
		{ID: 2, Title: "Long balls", Category: "passing", Level: 2, PrerequisiteID: ptr(1), RewardWeight: 1},
		{ID: 3, Title: "Cone dribble", Category: "Dribbling", Level: 1, RewardWeight: 1},
		{ID: 4, Title: "Slalom", Category: "dribbling", Level: 1, RewardWeight: 1},
		{ID: 5, Title: "Tight spaces", Category: "dribbling", Level: 2, RewardWeight: 1},
		{ID: 6, Title: "Weekly dribble-off", Category: "dribbling", Level: 1, RewardWeight: 1, IsWeekly: true},
		{ID: 7, Title: "Set pieces", Category: "set_pieces", Level: 1, RewardWeight: 3},
		{ID: 8, Title: "Shape", Category: "tactical", Level: 1, RewardWeight: 2},
	}
}

type fixture struct {
	store     *repository.Store
	processor *Processor
	tracker   *status.Tracker
}

func setup(t *testing.T, cfg config.CompletionConfig, challenges ...models.Challenge) *fixture {
	t.Helper()
	if len(challenges) == 0 {
		challenges = testChallenges()
	}
	store := repotest.NewStore(t, challenges...)
	cat, err := catalog.New(challenges)
	require.NoError(t, err)

	clock := func() time.Time { return fixedNow }
	tracker := status.NewTracker(cat, logger.Nop()).WithClock(clock)
	processor := NewProcessor(cat, tracker, attributes.NewAggregator(config.DefaultBlendConfig()), cfg, logger.Nop()).WithClock(clock)
	return &fixture{store: store, processor: processor, tracker: tracker}
}

func (f *fixture) complete(t *testing.T, userID, challengeID uint) (*Result, error) {
	t.Helper()
	var res *Result
	err := f.store.Transaction(context.Background(), func(tx *repository.Store) error {
		var err error
		res, err = f.processor.Complete(context.Background(), tx, userID, challengeID)
		return err
	})
	return res, err
}

func (f *fixture) state(t *testing.T, userID, challengeID uint) models.ChallengeState {
	t.Helper()
	st, err := f.tracker.GetStatus(context.Background(), f.store.Statuses, userID, challengeID)
	require.NoError(t, err)
	return st.State
}

func (f *fixture) init(t *testing.T, userID uint) {
	t.Helper()
	_, err := f.tracker.Initialize(context.Background(), f.store.Statuses, userID)
	require.NoError(t, err)
}

func TestDeltas(t *testing.T) {
	tests := []struct {
		category string
		want     attributes.Deltas
	}{
		{"passing", attributes.Deltas{models.AttrPassing: 10, models.AttrFirstTouch: 5}},
		{"SHOOTING", attributes.Deltas{models.AttrShooting: 10}},
		{"dribbling", attributes.Deltas{models.AttrDribbling: 10, models.AttrFirstTouch: 3}},
		{"fitness", attributes.Deltas{models.AttrPace: 10}},
		{"juggles", attributes.Deltas{models.AttrJuggles: 10, models.AttrFirstTouch: 3}},
		{" first_touch ", attributes.Deltas{models.AttrFirstTouch: 10, models.AttrDribbling: 3}},
		{"tactical", attributes.Deltas{
			models.AttrPace: 5, models.AttrShooting: 5, models.AttrPassing: 5,
			models.AttrDribbling: 5, models.AttrJuggles: 5, models.AttrFirstTouch: 5,
		}},
		{"weekly_special", attributes.Deltas{}},
	}
	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			got := Deltas(tt.category, 10)
			require.Len(t, got, len(tt.want))
			for attr, v := range tt.want {
				assert.InDelta(t, v, got[attr], 1e-9, attr)
			}
		})
	}
}

func TestComplete_PassingExample(t *testing.T) {
	f := setup(t, config.DefaultCompletionConfig())
	f.init(t, 1)

	res, err := f.complete(t, 1, 1)
	require.NoError(t, err)

	assert.Equal(t, models.StateCompleted, res.Status.State)
	require.NotNil(t, res.Status.CompletedAt)
	assert.Equal(t, 99.0, res.Vector.Passing)
	assert.Equal(t, 99.0, res.Vector.FirstTouch)
	assert.Equal(t, 50.0, res.Vector.Pace)
	assert.Equal(t, 99.0, res.Vector.Overall)

	stored, err := f.store.Vectors.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 99.0, stored.Passing)
	assert.Equal(t, 1, stored.Version)
	assert.True(t, stored.LastUpdated.Equal(fixedNow))
}

func TestComplete_Twice(t *testing.T) {
	f := setup(t, config.DefaultCompletionConfig())
	f.init(t, 1)

	_, err := f.complete(t, 1, 3)
	require.NoError(t, err)
	before, err := f.store.Vectors.Get(context.Background(), 1)
	require.NoError(t, err)

	_, err = f.complete(t, 1, 3)
	assert.True(t, errors.Is(err, models.ErrAlreadyCompleted))

	after, err := f.store.Vectors.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestComplete_Errors(t *testing.T) {
	f := setup(t, config.DefaultCompletionConfig())
	f.init(t, 1)

	_, err := f.complete(t, 1, 404)
	assert.True(t, errors.Is(err, models.ErrChallengeNotFound))

	_, err = f.complete(t, 1, 2)
	assert.True(t, errors.Is(err, models.ErrNotAvailable))

	vec, err := f.store.Vectors.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, vec, "failed completions leave no vector behind")
}

func TestComplete_UnlocksDirectSuccessor(t *testing.T) {
	f := setup(t, config.DefaultCompletionConfig())
	f.init(t, 1)
	assert.Equal(t, models.StateLocked, f.state(t, 1, 2))

	res, err := f.complete(t, 1, 1)
	require.NoError(t, err)

	assert.Equal(t, UnlockSuccessor, res.UnlockMode)
	assert.Equal(t, []uint{2}, res.Unlocked)
	assert.Equal(t, models.StateAvailable, f.state(t, 1, 2))
}

func TestComplete_LevelUnlock(t *testing.T) {
	f := setup(t, config.DefaultCompletionConfig())
	f.init(t, 1)

	// Weekly challenges never propagate themselves.
	res, err := f.complete(t, 1, 6)
	require.NoError(t, err)
	assert.Empty(t, res.Unlocked)
	assert.Equal(t, models.StateLocked, f.state(t, 1, 5))

	res, err = f.complete(t, 1, 3)
	require.NoError(t, err)
	assert.Empty(t, res.Unlocked, "sibling 4 still open")
	assert.Equal(t, models.StateLocked, f.state(t, 1, 5))

	res, err = f.complete(t, 1, 4)
	require.NoError(t, err)
	assert.Equal(t, UnlockLevel, res.UnlockMode)
	assert.Equal(t, []uint{5}, res.Unlocked)
	assert.Equal(t, models.StateAvailable, f.state(t, 1, 5))
}

func TestComplete_OpenWeeklySiblingBlocksNextLevel(t *testing.T) {
	f := setup(t, config.DefaultCompletionConfig())
	f.init(t, 1)
	require.Equal(t, models.StateAvailable, f.state(t, 1, 6))

	_, err := f.complete(t, 1, 3)
	require.NoError(t, err)
	res, err := f.complete(t, 1, 4)
	require.NoError(t, err)

	assert.Empty(t, res.Unlocked)
	assert.Empty(t, res.UnlockMode)
	assert.Equal(t, models.StateLocked, f.state(t, 1, 5))
	assert.Equal(t, models.StateAvailable, f.state(t, 1, 6))
}

func TestComplete_MissingSuccessorRow(t *testing.T) {
	challenges := testChallenges()

	f := setup(t, config.DefaultCompletionConfig(), challenges...)
	require.NoError(t, f.store.Statuses.CreateBatch(context.Background(), []models.ChallengeStatus{
		{UserID: 1, ChallengeID: 1, State: models.StateAvailable},
	}))
	res, err := f.complete(t, 1, 1)
	require.NoError(t, err)
	assert.Empty(t, res.Unlocked)
	_, err = f.store.Statuses.Get(context.Background(), 1, 2)
	assert.True(t, errors.Is(err, models.ErrStatusNotFound))

	cfg := config.DefaultCompletionConfig()
	cfg.UnlockCreatesMissingStatus = true
	f = setup(t, cfg, challenges...)
	require.NoError(t, f.store.Statuses.CreateBatch(context.Background(), []models.ChallengeStatus{
		{UserID: 1, ChallengeID: 1, State: models.StateAvailable},
	}))
	res, err = f.complete(t, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint{2}, res.Unlocked)
	assert.Equal(t, models.StateAvailable, f.state(t, 1, 2))
}

func TestComplete_UnmatchedCategoryOnlyBoostsOverall(t *testing.T) {
	f := setup(t, config.DefaultCompletionConfig())
	f.init(t, 1)

	res, err := f.complete(t, 1, 7)
	require.NoError(t, err)

	for _, attr := range models.Attributes {
		assert.Equal(t, 50.0, res.Vector.Get(attr), attr)
	}
	assert.Equal(t, 56.0, res.Vector.Overall)
}

func TestComplete_Tactical(t *testing.T) {
	f := setup(t, config.DefaultCompletionConfig())
	f.init(t, 1)

	res, err := f.complete(t, 1, 8)
	require.NoError(t, err)

	// w=2: specific 10 split as 5 per attribute, base 4.
	for _, attr := range models.Attributes {
		assert.Equal(t, 55.0, res.Vector.Get(attr), attr)
	}
	assert.Equal(t, 59.0, res.Vector.Overall)
}

func TestComplete_AwardsBadgeOnce(t *testing.T) {
	f := setup(t, config.DefaultCompletionConfig())
	f.init(t, 1)

	res, err := f.complete(t, 1, 1)
	require.NoError(t, err)
	require.NotNil(t, res.Badge)
	assert.True(t, res.BadgeAwarded)
	assert.Equal(t, "Wall passes Badge", res.Badge.Name)
	assert.Equal(t, DefaultBadgeIcon, res.Badge.Icon)

	badges, err := f.store.Badges.ListByUser(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, badges, 1)
}

func TestComplete_RolledBackWithTransaction(t *testing.T) {
	f := setup(t, config.DefaultCompletionConfig())
	f.init(t, 1)
	ctx := context.Background()
	abort := errors.New("abort")

	err := f.store.Transaction(ctx, func(tx *repository.Store) error {
		res, err := f.processor.Complete(ctx, tx, 1, 1)
		require.NoError(t, err)
		require.Equal(t, []uint{2}, res.Unlocked)
		return abort
	})
	assert.ErrorIs(t, err, abort)

	assert.Equal(t, models.StateAvailable, f.state(t, 1, 1))
	assert.Equal(t, models.StateLocked, f.state(t, 1, 2))
	vec, err := f.store.Vectors.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, vec)
	badges, err := f.store.Badges.ListByUser(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, badges)
}
