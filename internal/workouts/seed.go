package workouts

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/stridelab/stridecoach/pkg/models"
)

// Seeding helpers. The gateway itself is read-only; these writers exist for
// tests and for local development without a synced ingestion pipeline.

// SeedUser inserts a user profile row.
func SeedUser(ctx context.Context, db *sql.DB, p models.UserProfile) error {
	var birth any
	if p.BirthDate != nil {
		birth = p.BirthDate.Format("2006-01-02")
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO users (id, preferred_activity, main_goal, birth_date, weight_kg, height_cm,
		                   current_fitness, fatigue, form,
		                   predicted_5k, predicted_10k, predicted_half, predicted_full,
		                   hr_zone_1, hr_zone_2, hr_zone_3, hr_zone_4, hr_zone_5)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.UserID, string(p.PreferredActivity), nullStr(p.MainGoal), birth,
		toNull(p.WeightKg), toNull(p.HeightCm),
		toNull(p.CurrentFitness), toNull(p.Fatigue), toNull(p.Form),
		toNull(p.Predicted5K), toNull(p.Predicted10K), toNull(p.PredictedHalf), toNull(p.PredictedFull),
		toNull(p.HRZoneFloors[0]), toNull(p.HRZoneFloors[1]), toNull(p.HRZoneFloors[2]),
		toNull(p.HRZoneFloors[3]), toNull(p.HRZoneFloors[4]))
	if err != nil {
		return fmt.Errorf("seed user %d: %w", p.UserID, err)
	}
	return nil
}

// SeedWorkout inserts a workout row.
func SeedWorkout(ctx context.Context, db *sql.DB, w models.Workout) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO workouts (id, user_id, start_time, activity, duration_sec, distance_m,
		                      avg_speed_ms, max_speed_ms, avg_hr, max_hr, calories,
		                      elevation_gain_m, elevation_loss_m, avg_cadence, max_cadence, stride_length_m,
		                      training_load, aerobic_te, anaerobic_te, vo2max,
		                      zone_1_sec, zone_2_sec, zone_3_sec, zone_4_sec, zone_5_sec,
		                      fastest_split_1000, fastest_split_5000, fastest_split_10000)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.UserID, w.Start.UTC().Format(time.RFC3339), string(w.Activity),
		toNull(w.DurationSec), toNull(w.DistanceM),
		toNull(w.AvgSpeedMS), toNull(w.MaxSpeedMS), toNull(w.AvgHR), toNull(w.MaxHR), toNull(w.Calories),
		toNull(w.ElevationGainM), toNull(w.ElevationLossM), toNull(w.AvgCadence), toNull(w.MaxCadence), toNull(w.StrideLengthM),
		toNull(w.TrainingLoad), toNull(w.AerobicTE), toNull(w.AnaerobicTE), toNull(w.VO2MaxEst),
		toNull(w.ZoneSec[0]), toNull(w.ZoneSec[1]), toNull(w.ZoneSec[2]), toNull(w.ZoneSec[3]), toNull(w.ZoneSec[4]),
		toNull(w.FastestSplit1K), toNull(w.FastestSplit5K), toNull(w.FastestSplit10K))
	if err != nil {
		return fmt.Errorf("seed workout %d: %w", w.ID, err)
	}
	return nil
}

func toNull(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}
