package progression

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aimd54/academy-progression/internal/cache"
	"github.com/aimd54/academy-progression/internal/config"
	"github.com/aimd54/academy-progression/internal/metrics"
	"github.com/aimd54/academy-progression/internal/models"
	"github.com/aimd54/academy-progression/internal/repository"
	"github.com/aimd54/academy-progression/internal/repository/repotest"
	"github.com/aimd54/academy-progression/internal/service/catalog"
	"github.com/aimd54/academy-progression/pkg/logger"
	"github.com/aimd54/academy-progression/test/mocks"
)

var fixedNow = time.Date(2025, 7, 14, 18, 0, 0, 0, time.UTC)

func ptr(v uint) *uint { return &v }

func testChallenges() []models.Challenge {
	return []models.Challenge{
		{ID: 1, Title: "Wall passes", Category: "passing", Level: 1, RewardWeight: 1},
		{ID: 2, Title: "Long balls", Category: "passing", Level: 2, PrerequisiteID: ptr(1), RewardWeight: 1},
		{ID: 3, Title: "Cone dribble", Category: "dribbling", Level: 1, RewardWeight: 1},
		{ID: 4, Title: "Shuttle runs", Category: "fitness", Level: 1, RewardWeight: 1, IsWeekly: true},
	}
}

func newEngine(t *testing.T, opts ...Option) (*Engine, *repository.Store) {
	t.Helper()
	challenges := testChallenges()
	store := repotest.NewStore(t, challenges...)
	cat, err := catalog.New(challenges)
	require.NoError(t, err)

	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return New(store, cat, config.DefaultProgressionConfig(), logger.Nop(), opts...), store
}

func TestEngine_InitializeAndList(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()

	before := testutil.ToFloat64(metrics.StatusesInitializedTotal)
	n, err := e.InitializeChallengeStatuses(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.StatusesInitializedTotal))

	views, err := e.GetChallengesWithStatus(ctx, 1)
	require.NoError(t, err)
	require.Len(t, views, 4)
	states := make([]models.ChallengeState, 0, len(views))
	for _, v := range views {
		states = append(states, v.State)
	}
	assert.Equal(t, []models.ChallengeState{
		models.StateAvailable, models.StateLocked, models.StateAvailable, models.StateAvailable,
	}, states)
	assert.Equal(t, ptr(1), views[1].PrerequisiteID)

	_, err = e.InitializeChallengeStatuses(ctx, 1)
	assert.True(t, errors.Is(err, models.ErrAlreadyInitialized))
}

func TestEngine_GetChallengesWithStatus_Uninitialized(t *testing.T) {
	e, _ := newEngine(t)

	views, err := e.GetChallengesWithStatus(context.Background(), 9)
	require.NoError(t, err)
	require.Len(t, views, 4)
	for _, v := range views {
		assert.Equal(t, models.StateLocked, v.State)
	}
}

func TestEngine_CompleteChallenge(t *testing.T) {
	mc := mocks.NewMockCache()
	e, _ := newEngine(t, WithCache(mc))
	ctx := context.Background()
	_, err := e.InitializeChallengeStatuses(ctx, 1)
	require.NoError(t, err)

	completed := metrics.ChallengesCompletedTotal.WithLabelValues("passing")
	unlocked := metrics.ChallengesUnlockedTotal.WithLabelValues("successor")
	beforeCompleted, beforeUnlocked := testutil.ToFloat64(completed), testutil.ToFloat64(unlocked)

	view, err := e.CompleteChallenge(ctx, 1, 1)
	require.NoError(t, err)

	assert.Equal(t, models.StateCompleted, view.State)
	require.NotNil(t, view.CompletedAt)
	assert.True(t, view.CompletedAt.Equal(fixedNow))
	assert.Equal(t, []uint{2}, view.Unlocked)
	require.NotNil(t, view.Badge)
	assert.Equal(t, "Wall passes Badge", view.Badge.Name)
	assert.Equal(t, "passing", view.Badge.Category)

	// w=1: passing +5, first_touch +2.5, base +2.
	assert.Equal(t, 55.0, view.Vector.Passing)
	assert.Equal(t, 52.5, view.Vector.FirstTouch)
	assert.InDelta(t, (4*50+55+52.5)/6.0+2, view.Vector.Overall, 1e-9)
	assert.Equal(t, 1, view.Vector.Version)

	assert.Equal(t, beforeCompleted+1, testutil.ToFloat64(completed))
	assert.Equal(t, beforeUnlocked+1, testutil.ToFloat64(unlocked))
	assert.False(t, mc.Has(cache.LockKey(1)), "lock released")
	assert.Equal(t, 1, mc.Calls["setnx"])
	assert.Equal(t, 1, mc.Calls["delifequal"])

	views, err := e.GetChallengesWithStatus(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StateAvailable, views[1].State)
}

func TestEngine_CompleteChallenge_Rejected(t *testing.T) {
	e, store := newEngine(t)
	ctx := context.Background()
	_, err := e.InitializeChallengeStatuses(ctx, 1)
	require.NoError(t, err)

	notFound := metrics.ChallengeCompletionFailuresTotal.WithLabelValues("not_found")
	notAvailable := metrics.ChallengeCompletionFailuresTotal.WithLabelValues("not_available")
	beforeNotFound, beforeNotAvailable := testutil.ToFloat64(notFound), testutil.ToFloat64(notAvailable)

	_, err = e.CompleteChallenge(ctx, 1, 404)
	assert.True(t, errors.Is(err, models.ErrChallengeNotFound))
	_, err = e.CompleteChallenge(ctx, 1, 2)
	assert.True(t, errors.Is(err, models.ErrNotAvailable))

	assert.Equal(t, beforeNotFound+1, testutil.ToFloat64(notFound))
	assert.Equal(t, beforeNotAvailable+1, testutil.ToFloat64(notAvailable))

	_, err = e.CompleteChallenge(ctx, 1, 3)
	require.NoError(t, err)
	before, err := store.Vectors.Get(ctx, 1)
	require.NoError(t, err)

	_, err = e.CompleteChallenge(ctx, 1, 3)
	assert.True(t, errors.Is(err, models.ErrAlreadyCompleted))
	after, err := store.Vectors.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestEngine_BusyUser(t *testing.T) {
	mc := mocks.NewMockCache()
	e, _ := newEngine(t, WithCache(mc))
	ctx := context.Background()
	_, err := e.InitializeChallengeStatuses(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, mc.Set(ctx, cache.LockKey(1), "other-holder", time.Minute))

	busy := metrics.ConcurrencyConflictsTotal.WithLabelValues(OpComplete, "busy")
	before := testutil.ToFloat64(busy)

	_, err = e.CompleteChallenge(ctx, 1, 1)
	assert.True(t, errors.Is(err, models.ErrBusy))
	assert.Equal(t, before+1, testutil.ToFloat64(busy))

	_, err = e.SubmitSkillTest(ctx, 1, models.Measurements{models.TestSprint: 2}, "", models.Principal{UserID: 1})
	assert.True(t, errors.Is(err, models.ErrBusy))

	assert.True(t, mc.Has(cache.LockKey(1)), "foreign lock left alone")

	views, err := e.GetChallengesWithStatus(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StateAvailable, views[0].State)
}

func TestEngine_VectorReadThrough(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := cache.NewRedisCacheFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = rc.Close() })

	e, _ := newEngine(t, WithCache(rc))
	ctx := context.Background()
	key := cache.VectorKey(1)

	vec, err := e.GetPlayerSkillVector(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 50.0, vec.Overall)
	assert.Equal(t, 0, vec.Version)
	assert.False(t, mr.Exists(key), "default vector is not cached")

	_, err = e.InitializeChallengeStatuses(ctx, 1)
	require.NoError(t, err)
	_, err = e.CompleteChallenge(ctx, 1, 3)
	require.NoError(t, err)
	assert.False(t, mr.Exists(cache.LockKey(1)))

	vec, err = e.GetPlayerSkillVector(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 55.0, vec.Dribbling)
	assert.True(t, mr.Exists(key))

	hits := metrics.VectorCacheRequestsTotal.WithLabelValues("hit")
	before := testutil.ToFloat64(hits)
	vec, err = e.GetPlayerSkillVector(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 55.0, vec.Dribbling)
	assert.Equal(t, before+1, testutil.ToFloat64(hits))

	_, err = e.CompleteChallenge(ctx, 1, 4)
	require.NoError(t, err)
	assert.False(t, mr.Exists(key), "write invalidates the cached vector")

	vec, err = e.GetPlayerSkillVector(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 55.0, vec.Pace)
	assert.Equal(t, 2, vec.Version)
}

func TestEngine_VectorCacheFailureFallsBackToStore(t *testing.T) {
	mc := mocks.NewMockCache()
	e, store := newEngine(t, WithCache(mc))
	ctx := context.Background()

	require.NoError(t, store.DB().Create(&models.PlayerSkillVector{
		UserID: 1, Pace: 70, Shooting: 50, Passing: 50, Dribbling: 50, Juggles: 50, FirstTouch: 50, Overall: 53.3, Version: 3,
	}).Error)
	mc.Err = errors.New("connection refused")

	vec, err := e.GetPlayerSkillVector(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 70.0, vec.Pace)
	assert.Equal(t, 3, vec.Version)
}

// slowFillCache runs beforeSet ahead of the first Set, standing in for a write that
// commits and invalidates while a reader is still filling the cache.
type slowFillCache struct {
	*mocks.MockCache
	beforeSet func()
}

func (c *slowFillCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if c.beforeSet != nil {
		fn := c.beforeSet
		c.beforeSet = nil
		fn()
	}
	return c.MockCache.Set(ctx, key, value, expiration)
}

func TestEngine_VectorCacheDropsStaleFill(t *testing.T) {
	mc := &slowFillCache{MockCache: mocks.NewMockCache()}
	e, store := newEngine(t, WithCache(mc))
	ctx := context.Background()
	key := cache.VectorKey(1)

	require.NoError(t, store.DB().Create(&models.PlayerSkillVector{
		UserID: 1, Pace: 50, Shooting: 50, Passing: 50, Dribbling: 50, Juggles: 50, FirstTouch: 50, Overall: 50, Version: 1,
	}).Error)

	mc.beforeSet = func() {
		err := store.Transaction(ctx, func(tx *repository.Store) error {
			vec, err := tx.Vectors.GetOrCreateForUpdate(ctx, 1)
			if err != nil {
				return err
			}
			vec.Pace = 60
			vec.Version = 2
			return tx.Vectors.Update(ctx, vec, 1)
		})
		require.NoError(t, err)
		require.NoError(t, mc.Del(ctx, key))
	}

	stale := metrics.VectorCacheRequestsTotal.WithLabelValues("stale")
	before := testutil.ToFloat64(stale)

	vec, err := e.GetPlayerSkillVector(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, vec.Version, "the read itself returns what it saw")
	assert.False(t, mc.Has(key), "stale fill is removed")
	assert.Equal(t, before+1, testutil.ToFloat64(stale))

	vec, err = e.GetPlayerSkillVector(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, vec.Version)
	assert.Equal(t, 60.0, vec.Pace)
	assert.True(t, mc.Has(key), "fresh fill stays cached")
}

func TestEngine_SubmitSkillTest(t *testing.T) {
	e, store := newEngine(t)
	ctx := context.Background()
	player := repotest.CreateUser(t, store, "ana", config.PositionStriker, false)
	coach := repotest.CreateUser(t, store, "coach", "", true)
	owner := models.Principal{UserID: player.ID}

	accepted := metrics.SkillTestsSubmittedTotal.WithLabelValues(config.PositionStriker, "accepted")
	before := testutil.ToFloat64(accepted)

	view, err := e.SubmitSkillTest(ctx, player.ID, models.Measurements{models.TestSprint: 1.9}, "", owner)
	require.NoError(t, err)
	assert.Equal(t, config.PositionStriker, view.Position)
	assert.InDelta(t, 74.5, view.Ratings[models.TestSprint], 1e-9)
	assert.Equal(t, 1.9, view.Raw[models.TestSprint])
	assert.NotEmpty(t, view.SampleUUID)
	require.NotNil(t, view.Vector)
	assert.InDelta(t, 64.7, view.Vector.Pace, 1e-9)
	assert.Equal(t, before+1, testutil.ToFloat64(accepted))

	stored, err := e.GetPlayerSkillVector(ctx, player.ID)
	require.NoError(t, err)
	assert.InDelta(t, 64.7, stored.Pace, 1e-9)

	samples, err := e.ListSkillTests(ctx, models.Principal{UserID: coach.ID, IsCoach: true}, player.ID, 10)
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, view.SampleUUID, samples[0].SampleUUID)

	latest, err := e.LatestSkillTest(ctx, owner, player.ID)
	require.NoError(t, err)
	assert.Equal(t, view.SampleUUID, latest.SampleUUID)

	_, err = e.LatestSkillTest(ctx, models.Principal{UserID: 99}, player.ID)
	assert.True(t, errors.Is(err, models.ErrForbidden))
}

func TestEngine_SubmitSkillTest_Rejected(t *testing.T) {
	e, store := newEngine(t)
	ctx := context.Background()

	rejected := metrics.SkillTestsSubmittedTotal.WithLabelValues("profile", "rejected")
	before := testutil.ToFloat64(rejected)

	_, err := e.SubmitSkillTest(ctx, 1, models.Measurements{models.TestSprint: 2}, "", models.Principal{UserID: 2})
	assert.True(t, errors.Is(err, models.ErrForbidden))

	_, err = e.SubmitSkillTest(ctx, 1, models.Measurements{models.TestPassing: -3}, "", models.Principal{UserID: 1})
	var verr *models.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "passing", verr.Field)

	assert.Equal(t, before+2, testutil.ToFloat64(rejected))

	samples, err := store.SkillTests.ListByPlayer(ctx, 1, 0)
	require.NoError(t, err)
	assert.Empty(t, samples)
}

func TestEngine_StatisticsAndBadges(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()
	_, err := e.InitializeChallengeStatuses(ctx, 1)
	require.NoError(t, err)
	for _, id := range []uint{1, 3} {
		_, err := e.CompleteChallenge(ctx, 1, id)
		require.NoError(t, err)
	}

	stats, err := e.GetChallengeStatistics(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalChallenges)
	assert.Equal(t, int64(2), stats.Completed)
	assert.Equal(t, map[string]int64{"passing": 1, "dribbling": 1}, stats.CompletedByCategory)
	assert.Equal(t, map[string]int64{"passing": 1, "dribbling": 1}, stats.BadgesByCategory)
	assert.InDelta(t, 0.1, stats.ActivityLevel, 1e-9)

	badges, err := e.GetUserBadges(ctx, 1)
	require.NoError(t, err)
	require.Len(t, badges, 2)
	assert.Equal(t, uint(3), badges[0].ChallengeID)
	assert.Equal(t, "dribbling", badges[0].Category)
	assert.Equal(t, "Wall passes Badge", badges[1].Name)

	empty, err := e.GetChallengeStatistics(ctx, 2)
	require.NoError(t, err)
	assert.Zero(t, empty.Completed)
	assert.Empty(t, empty.CompletedByCategory)
}

func TestLoad(t *testing.T) {
	store := repotest.NewStore(t, testChallenges()...)

	e, err := Load(context.Background(), store, config.DefaultProgressionConfig(), logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, 4, e.Catalog().Len())

	broken := repotest.NewStore(t, models.Challenge{ID: 1, Title: "Orphan", Category: "passing", Level: 2, PrerequisiteID: ptr(7), RewardWeight: 1})
	_, err = Load(context.Background(), broken, config.DefaultProgressionConfig(), logger.Nop())
	assert.True(t, errors.Is(err, models.ErrValidation))
}
