package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/stridelab/stridecoach/internal/fitness"
	"github.com/stridelab/stridecoach/pkg/contracts"
	"github.com/stridelab/stridecoach/pkg/models"
)

// metrics payloads list at most this many recent workouts to the model.
const metricsWorkoutWindow = 100

// metricsPayload is the observation returned by get_user_metrics_from_db.
type metricsPayload struct {
	Metrics        models.DerivedMetrics `json:"metrics"`
	Recommendation string                `json:"recommendation"`
	Profile        *models.UserProfile   `json:"profile,omitempty"`
	RecentWorkouts []workoutSummary      `json:"recent_workouts"`
}

// workoutSummary is the compact per-workout view fed to the model.
type workoutSummary struct {
	Date        string   `json:"date"`
	Activity    string   `json:"activity"`
	DurationMin *float64 `json:"duration_min,omitempty"`
	DistanceKm  *float64 `json:"distance_km,omitempty"`
	AvgHR       *float64 `json:"avg_hr,omitempty"`
}

// NewMetricsTool derives the user's current performance metrics live from
// the workout store. The payload is computed fresh on every call.
func NewMetricsTool(store contracts.WorkoutStore) Tool {
	return Tool{
		Name: "get_user_metrics_from_db",
		Description: "Fetch the user's current training metrics: estimated VMA and VO2max, " +
			"7-day and 28-day training loads, endurance ratio, predicted 10k time, " +
			"daily recommendation, profile and recent workouts.",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"user_id": map[string]any{
					"type":        "integer",
					"description": "Identifier of the user whose metrics to fetch.",
				},
			},
			"required": []string{"user_id"},
		},
		Run: func(ctx context.Context, args map[string]any) (string, error) {
			userID, err := intArg(args, "user_id")
			if err != nil {
				return "", err
			}

			workouts, err := store.ListWorkouts(ctx, userID, metricsWorkoutWindow, "")
			if err != nil {
				return "", err
			}

			now := time.Now()
			m := fitness.Compute(workouts, now)
			m.UserID = userID
			m.CalculationDate = now

			payload := metricsPayload{
				Metrics:        m,
				Recommendation: m.Recommendation,
				RecentWorkouts: summarize(workouts, 10),
			}
			// Profile is best-effort context; its absence is not a tool failure.
			if profile, perr := store.GetProfile(ctx, userID); perr == nil {
				payload.Profile = profile
			}

			b, err := json.Marshal(payload)
			if err != nil {
				return "", fmt.Errorf("encode metrics: %w", err)
			}
			return string(b), nil
		},
	}
}

func summarize(workouts []models.Workout, max int) []workoutSummary {
	if len(workouts) > max {
		workouts = workouts[:max]
	}
	out := make([]workoutSummary, len(workouts))
	for i, w := range workouts {
		s := workoutSummary{
			Date:     w.Start.Format("2006-01-02"),
			Activity: string(w.Activity),
			AvgHR:    w.AvgHR,
		}
		if w.DurationSec != nil {
			v := *w.DurationSec / 60
			s.DurationMin = &v
		}
		if w.DistanceM != nil {
			v := *w.DistanceM / 1000
			s.DistanceKm = &v
		}
		out[i] = s
	}
	return out
}

// intArg decodes an integer argument, tolerating the float64 JSON decoding
// and models that quote their numbers.
func intArg(args map[string]any, key string) (int64, error) {
	switch v := args[key].(type) {
	case float64:
		return int64(v), nil
	case string:
		var n int64
		if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
			return 0, fmt.Errorf("argument %q is not an integer", key)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("argument %q is not an integer", key)
	}
}
