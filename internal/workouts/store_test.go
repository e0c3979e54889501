package workouts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stridelab/stridecoach/pkg/fault"
	"github.com/stridelab/stridecoach/pkg/models"
)

func f(v float64) *float64 { return &v }

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := OpenMemoryDB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	require.NoError(t, SeedUser(ctx, db, models.UserProfile{
		UserID:            1,
		PreferredActivity: models.ActivityRun,
		MainGoal:          "10k",
		WeightKg:          f(70),
	}))

	now := time.Now().UTC()
	require.NoError(t, SeedWorkout(ctx, db, models.Workout{
		ID: 101, UserID: 1, Start: now.Add(-3 * 24 * time.Hour), Activity: models.ActivityRun,
		DurationSec: f(1800), DistanceM: f(5000), MaxSpeedMS: f(4.5), TrainingLoad: f(50), AvgHR: f(150), MaxHR: f(172),
	}))
	require.NoError(t, SeedWorkout(ctx, db, models.Workout{
		ID: 102, UserID: 1, Start: now.Add(-20 * 24 * time.Hour), Activity: models.ActivityRun,
		DurationSec: f(3600), DistanceM: f(10000), MaxSpeedMS: f(5.0), TrainingLoad: f(120),
	}))
	require.NoError(t, SeedWorkout(ctx, db, models.Workout{
		ID: 103, UserID: 1, Start: now.Add(-40 * 24 * time.Hour), Activity: models.ActivityCycle,
		DurationSec: f(5400), DistanceM: f(40000),
	}))

	return NewStore(db)
}

func TestListWorkoutsOrderAndFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	all, err := s.ListWorkouts(ctx, 1, 0, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Descending by start time.
	assert.Equal(t, int64(101), all[0].ID)
	assert.Equal(t, int64(102), all[1].ID)
	assert.Equal(t, int64(103), all[2].ID)

	runs, err := s.ListWorkouts(ctx, 1, 0, models.ActivityRun)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	limited, err := s.ListWorkouts(ctx, 1, 1, "")
	require.NoError(t, err)
	require.Len(t, limited, 1)
}

func TestListWorkoutsNullableFields(t *testing.T) {
	s := newTestStore(t)

	all, err := s.ListWorkouts(context.Background(), 1, 0, "")
	require.NoError(t, err)

	w := all[2] // the cycle workout has no HR, load or splits
	assert.Nil(t, w.AvgHR)
	assert.Nil(t, w.TrainingLoad)
	assert.Nil(t, w.FastestSplit10K)
	require.NotNil(t, w.DurationSec)
	assert.Equal(t, 5400.0, *w.DurationSec)
}

func TestListWorkoutsUnknownUser(t *testing.T) {
	s := newTestStore(t)

	_, err := s.ListWorkouts(context.Background(), 999, 0, "")
	require.Error(t, err)
	assert.Equal(t, fault.NotFound, fault.KindOf(err))
}

func TestAggregateWindow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	agg, err := s.Aggregate(ctx, 1, time.Now().UTC().Add(-28*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), agg.Count)
	assert.Equal(t, 15000.0, agg.TotalDistance)
	require.NotNil(t, agg.MaxSpeedMS)
	assert.Equal(t, 5.0, *agg.MaxSpeedMS)
}

func TestAggregateEmptyWindowNoDivideByZero(t *testing.T) {
	s := newTestStore(t)

	agg, err := s.Aggregate(context.Background(), 1, time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(0), agg.Count)
	assert.Zero(t, agg.TotalDistance)
	assert.Nil(t, agg.AvgDistance)
	assert.Nil(t, agg.AvgHR)
}

func TestGetProfile(t *testing.T) {
	s := newTestStore(t)

	p, err := s.GetProfile(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, models.ActivityRun, p.PreferredActivity)
	assert.Equal(t, "10k", p.MainGoal)
	require.NotNil(t, p.WeightKg)
	assert.Equal(t, 70.0, *p.WeightKg)

	_, err = s.GetProfile(context.Background(), 42)
	assert.Equal(t, fault.NotFound, fault.KindOf(err))
}
