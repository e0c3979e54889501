package fitness

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stridelab/stridecoach/internal/workouts"
	"github.com/stridelab/stridecoach/pkg/models"
)

func f(v float64) *float64 { return &v }

func twoWorkouts(now time.Time) []models.Workout {
	return []models.Workout{
		{
			ID: 1, UserID: 1, Start: now.Add(-3 * 24 * time.Hour), Activity: models.ActivityRun,
			DurationSec: f(1800), DistanceM: f(5000), MaxSpeedMS: f(4.5), TrainingLoad: f(50),
		},
		{
			ID: 2, UserID: 1, Start: now.Add(-20 * 24 * time.Hour), Activity: models.ActivityRun,
			DurationSec: f(3600), DistanceM: f(10000), MaxSpeedMS: f(5.0), TrainingLoad: f(120),
		},
	}
}

func TestComputeTwoWorkouts(t *testing.T) {
	now := time.Now()
	m := Compute(twoWorkouts(now), now)

	require.NotNil(t, m.VMAKmh)
	assert.Equal(t, 19.80, *m.VMAKmh) // 5.0 m/s × 3.6 × 1.1

	assert.Equal(t, 50.0, m.Load7d)
	assert.Equal(t, 170.0, m.Load28d)
	assert.Equal(t, 170.0, m.Form)
	assert.Equal(t, 50.0, m.Fatigue)

	require.NotNil(t, m.EnduranceRatio)
	assert.Equal(t, 0.50, *m.EnduranceRatio) // only the 60 min session counts

	assert.Equal(t, models.RecommendationContinue, m.Recommendation)
}

func TestComputeDeterministicUnderPermutation(t *testing.T) {
	now := time.Now()
	ws := twoWorkouts(now)
	ws = append(ws, models.Workout{
		ID: 3, UserID: 1, Start: now.Add(-10 * 24 * time.Hour),
		DurationSec: f(2700), DistanceM: f(8000), TrainingLoad: f(80), VO2MaxEst: f(52.4),
	})

	want := Compute(ws, now)
	for i := 0; i < 10; i++ {
		shuffled := make([]models.Workout, len(ws))
		copy(shuffled, ws)
		rand.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, Compute(shuffled, now))
	}
}

func TestComputeIdempotent(t *testing.T) {
	now := time.Now()
	ws := twoWorkouts(now)
	assert.Equal(t, Compute(ws, now), Compute(ws, now))
}

func TestComputeEmptySet(t *testing.T) {
	m := Compute(nil, time.Now())

	assert.Nil(t, m.VMAKmh)
	assert.Nil(t, m.VO2MaxEst)
	assert.Nil(t, m.EnduranceRatio)
	assert.Nil(t, m.Race10KMin)
	assert.Zero(t, m.Load7d)
	assert.Zero(t, m.Load28d)
	assert.Equal(t, models.RecommendationContinue, m.Recommendation)
}

func TestComputeVO2MaxTakesReportedMaximum(t *testing.T) {
	now := time.Now()
	ws := []models.Workout{
		{ID: 1, UserID: 1, Start: now, VO2MaxEst: f(48.2)},
		{ID: 2, UserID: 1, Start: now, VO2MaxEst: f(51.7)},
		{ID: 3, UserID: 1, Start: now}, // not measured
	}
	m := Compute(ws, now)
	require.NotNil(t, m.VO2MaxEst)
	assert.Equal(t, 51.7, *m.VO2MaxEst)
}

func TestRace10KPrefersFastestSplit(t *testing.T) {
	now := time.Now()
	ws := []models.Workout{
		{ID: 1, UserID: 1, Start: now, DurationSec: f(1800), DistanceM: f(5000), FastestSplit10K: f(2760)}, // 46:00
		{ID: 2, UserID: 1, Start: now, DurationSec: f(3600), DistanceM: f(10000), FastestSplit10K: f(2700)}, // 45:00
	}
	m := Compute(ws, now)
	require.NotNil(t, m.Race10KMin)
	assert.Equal(t, 45.0, *m.Race10KMin)
}

func TestRace10KRiegelExtrapolation(t *testing.T) {
	now := time.Now()
	// A single 5 km effort in 30 min: t2 = 1800 × 2^1.06 ≈ 3754 s ≈ 62.57 min.
	ws := []models.Workout{
		{ID: 1, UserID: 1, Start: now, DurationSec: f(1800), DistanceM: f(5000)},
	}
	m := Compute(ws, now)
	require.NotNil(t, m.Race10KMin)
	assert.InDelta(t, 62.57, *m.Race10KMin, 0.05)
	assert.Greater(t, *m.Race10KMin, 0.0)
}

func TestRace10KNeverInfinite(t *testing.T) {
	now := time.Now()
	// Zero distance must not feed the extrapolation.
	ws := []models.Workout{
		{ID: 1, UserID: 1, Start: now, DurationSec: f(1800), DistanceM: f(0)},
	}
	m := Compute(ws, now)
	assert.Nil(t, m.Race10KMin)
}

func TestRestRecommendationThreshold(t *testing.T) {
	assert.Equal(t, models.RecommendationRest, DailyRecommendation(100, 50))
	assert.Equal(t, models.RecommendationContinue, DailyRecommendation(75, 50))  // exactly 1.5× is not over
	assert.Equal(t, models.RecommendationContinue, DailyRecommendation(0, 0))
}

func TestLoadWindowBoundaries(t *testing.T) {
	now := time.Now()
	ws := []models.Workout{
		{ID: 1, UserID: 1, Start: now.Add(-6 * 24 * time.Hour), TrainingLoad: f(10)},
		{ID: 2, UserID: 1, Start: now.Add(-27 * 24 * time.Hour), TrainingLoad: f(20)},
		{ID: 3, UserID: 1, Start: now.Add(-29 * 24 * time.Hour), TrainingLoad: f(40)}, // outside both windows
	}
	m := Compute(ws, now)
	assert.Equal(t, 10.0, m.Load7d)
	assert.Equal(t, 30.0, m.Load28d)
}

func TestStoreAppendOnlyPerDate(t *testing.T) {
	db, err := workouts.OpenMemoryDB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	require.NoError(t, workouts.SeedUser(ctx, db, models.UserProfile{UserID: 1, PreferredActivity: models.ActivityRun}))

	s := NewStore(db)
	now := time.Now()
	first := Compute(twoWorkouts(now), now)
	first.UserID = 1
	require.NoError(t, s.Save(ctx, first))

	// A second save for the same date must not overwrite the first row.
	second := first
	second.Load7d = 999
	require.NoError(t, s.Save(ctx, second))

	got, err := s.Latest(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, first.Load7d, got.Load7d)
	assert.Equal(t, first.Recommendation, got.Recommendation)
}
