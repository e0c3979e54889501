package workouts

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/stridelab/stridecoach/pkg/fault"
	"github.com/stridelab/stridecoach/pkg/models"
)

// DefaultListLimit bounds ListWorkouts when the caller passes no limit.
const DefaultListLimit = 100

// Store implements contracts.WorkoutStore over SQLite.
type Store struct {
	db *sql.DB
}

// NewStore wraps an opened database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const workoutColumns = `id, user_id, start_time, activity, duration_sec, distance_m,
	avg_speed_ms, max_speed_ms, avg_hr, max_hr, calories,
	elevation_gain_m, elevation_loss_m, avg_cadence, max_cadence, stride_length_m,
	training_load, aerobic_te, anaerobic_te, vo2max,
	zone_1_sec, zone_2_sec, zone_3_sec, zone_4_sec, zone_5_sec,
	fastest_split_1000, fastest_split_5000, fastest_split_10000`

// ListWorkouts returns up to limit workouts ordered by start time descending.
func (s *Store) ListWorkouts(ctx context.Context, userID int64, limit int, activity models.ActivityKind) ([]models.Workout, error) {
	if err := s.userExists(ctx, userID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := `SELECT ` + workoutColumns + ` FROM workouts WHERE user_id = ?`
	args := []any{userID}
	if activity != "" {
		query += ` AND activity = ?`
		args = append(args, string(activity))
	}
	query += ` ORDER BY start_time DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fault.Wrap(fault.Unavailable, "workout store query", err)
	}
	defer rows.Close()

	var out []models.Workout
	for rows.Next() {
		w, err := scanWorkout(rows)
		if err != nil {
			return nil, fault.Wrap(fault.Unavailable, "workout store scan", err)
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fault.Wrap(fault.Unavailable, "workout store rows", err)
	}
	return out, nil
}

// Aggregate summarises a user's workouts since the given instant. Averages
// over an empty window are nil, never a division by zero.
func (s *Store) Aggregate(ctx context.Context, userID int64, since time.Time) (*models.WorkoutAggregate, error) {
	if err := s.userExists(ctx, userID); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(duration_sec), 0),
		       COALESCE(SUM(distance_m), 0),
		       COALESCE(SUM(calories), 0),
		       AVG(distance_m),
		       AVG(avg_hr),
		       MAX(distance_m),
		       MAX(max_speed_ms)
		FROM workouts
		WHERE user_id = ? AND start_time >= ?`,
		userID, since.UTC().Format(time.RFC3339))

	agg := models.WorkoutAggregate{UserID: userID}
	var avgDist, avgHR, maxDist, maxSpeed sql.NullFloat64
	err := row.Scan(&agg.Count, &agg.TotalDuration, &agg.TotalDistance, &agg.TotalCalories,
		&avgDist, &avgHR, &maxDist, &maxSpeed)
	if err != nil {
		return nil, fault.Wrap(fault.Unavailable, "workout aggregate", err)
	}
	agg.AvgDistance = fromNull(avgDist)
	agg.AvgHR = fromNull(avgHR)
	agg.MaxDistance = fromNull(maxDist)
	agg.MaxSpeedMS = fromNull(maxSpeed)
	return &agg, nil
}

// GetProfile returns the user's coaching profile.
func (s *Store) GetProfile(ctx context.Context, userID int64) (*models.UserProfile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, preferred_activity, main_goal, birth_date, weight_kg, height_cm,
		       current_fitness, fatigue, form,
		       predicted_5k, predicted_10k, predicted_half, predicted_full,
		       hr_zone_1, hr_zone_2, hr_zone_3, hr_zone_4, hr_zone_5
		FROM users WHERE id = ?`, userID)

	p := models.UserProfile{}
	var activity string
	var goal, birth sql.NullString
	var weight, height, fitness, fatigue, form sql.NullFloat64
	var p5, p10, pHalf, pFull sql.NullFloat64
	var z [5]sql.NullFloat64
	err := row.Scan(&p.UserID, &activity, &goal, &birth, &weight, &height,
		&fitness, &fatigue, &form, &p5, &p10, &pHalf, &pFull,
		&z[0], &z[1], &z[2], &z[3], &z[4])
	if err == sql.ErrNoRows {
		return nil, fault.Newf(fault.NotFound, "user %d not found", userID)
	}
	if err != nil {
		return nil, fault.Wrap(fault.Unavailable, "user profile query", err)
	}

	p.PreferredActivity = models.ActivityKind(activity)
	if goal.Valid {
		p.MainGoal = goal.String
	}
	if birth.Valid {
		if t, err := time.Parse("2006-01-02", birth.String); err == nil {
			p.BirthDate = &t
		}
	}
	p.WeightKg = fromNull(weight)
	p.HeightCm = fromNull(height)
	p.CurrentFitness = fromNull(fitness)
	p.Fatigue = fromNull(fatigue)
	p.Form = fromNull(form)
	p.Predicted5K = fromNull(p5)
	p.Predicted10K = fromNull(p10)
	p.PredictedHalf = fromNull(pHalf)
	p.PredictedFull = fromNull(pFull)
	for i := range z {
		p.HRZoneFloors[i] = fromNull(z[i])
	}
	return &p, nil
}

func (s *Store) userExists(ctx context.Context, userID int64) error {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ?`, userID).Scan(&one)
	if err == sql.ErrNoRows {
		return fault.Newf(fault.NotFound, "user %d not found", userID)
	}
	if err != nil {
		return fault.Wrap(fault.Unavailable, "workout store", err)
	}
	return nil
}

func scanWorkout(rows *sql.Rows) (models.Workout, error) {
	var w models.Workout
	var start, activity string
	n := make([]sql.NullFloat64, 24)
	err := rows.Scan(&w.ID, &w.UserID, &start, &activity,
		&n[0], &n[1], &n[2], &n[3], &n[4], &n[5], &n[6],
		&n[7], &n[8], &n[9], &n[10], &n[11],
		&n[12], &n[13], &n[14], &n[15],
		&n[16], &n[17], &n[18], &n[19], &n[20],
		&n[21], &n[22], &n[23])
	if err != nil {
		return w, err
	}
	t, err := time.Parse(time.RFC3339, start)
	if err != nil {
		return w, fmt.Errorf("parse start_time %q: %w", start, err)
	}
	w.Start = t
	w.Activity = models.ActivityKind(activity)
	w.DurationSec = fromNull(n[0])
	w.DistanceM = fromNull(n[1])
	w.AvgSpeedMS = fromNull(n[2])
	w.MaxSpeedMS = fromNull(n[3])
	w.AvgHR = fromNull(n[4])
	w.MaxHR = fromNull(n[5])
	w.Calories = fromNull(n[6])
	w.ElevationGainM = fromNull(n[7])
	w.ElevationLossM = fromNull(n[8])
	w.AvgCadence = fromNull(n[9])
	w.MaxCadence = fromNull(n[10])
	w.StrideLengthM = fromNull(n[11])
	w.TrainingLoad = fromNull(n[12])
	w.AerobicTE = fromNull(n[13])
	w.AnaerobicTE = fromNull(n[14])
	w.VO2MaxEst = fromNull(n[15])
	for i := 0; i < 5; i++ {
		w.ZoneSec[i] = fromNull(n[16+i])
	}
	w.FastestSplit1K = fromNull(n[21])
	w.FastestSplit5K = fromNull(n[22])
	w.FastestSplit10K = fromNull(n[23])
	return w, nil
}

func fromNull(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
