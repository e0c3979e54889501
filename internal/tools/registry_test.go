package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stridelab/stridecoach/internal/workouts"
	"github.com/stridelab/stridecoach/pkg/models"
)

func echoTool() Tool {
	return Tool{
		Name:        "echo",
		Description: "echoes its input",
		Schema: map[string]any{
			"type":     "object",
			"required": []string{"text"},
		},
		Run: func(_ context.Context, args map[string]any) (string, error) {
			return args["text"].(string), nil
		},
	}
}

func failTool() Tool {
	return Tool{
		Name:   "fail",
		Schema: map[string]any{"type": "object"},
		Run: func(_ context.Context, _ map[string]any) (string, error) {
			return "", errors.New("backend exploded")
		},
	}
}

func TestRegistryDefinitionsStableOrder(t *testing.T) {
	r := NewRegistry(failTool(), echoTool())
	defs := r.Definitions()
	require.Len(t, defs, 2)
	assert.Equal(t, "echo", defs[0].Name)
	assert.Equal(t, "fail", defs[1].Name)
}

func TestDispatchSuccess(t *testing.T) {
	r := NewRegistry(echoTool())
	obs := r.Dispatch(context.Background(), models.ToolCall{
		Name:      "echo",
		Arguments: json.RawMessage(`{"text":"hello"}`),
	})
	assert.Equal(t, "hello", obs)
}

func TestDispatchUnknownToolIsObservation(t *testing.T) {
	r := NewRegistry(echoTool())
	obs := r.Dispatch(context.Background(), models.ToolCall{Name: "nope"})

	var payload map[string]string
	require.NoError(t, json.Unmarshal([]byte(obs), &payload))
	assert.Contains(t, payload["error"], "unknown tool")
}

func TestDispatchMissingRequiredArgument(t *testing.T) {
	r := NewRegistry(echoTool())
	obs := r.Dispatch(context.Background(), models.ToolCall{
		Name:      "echo",
		Arguments: json.RawMessage(`{}`),
	})

	var payload map[string]string
	require.NoError(t, json.Unmarshal([]byte(obs), &payload))
	assert.Contains(t, payload["error"], `"text"`)
}

func TestDispatchMalformedArguments(t *testing.T) {
	r := NewRegistry(echoTool())
	obs := r.Dispatch(context.Background(), models.ToolCall{
		Name:      "echo",
		Arguments: json.RawMessage(`not json`),
	})

	var payload map[string]string
	require.NoError(t, json.Unmarshal([]byte(obs), &payload))
	assert.Contains(t, payload["error"], "invalid arguments")
}

func TestDispatchToolErrorIsObservation(t *testing.T) {
	r := NewRegistry(failTool())
	obs := r.Dispatch(context.Background(), models.ToolCall{Name: "fail"})

	var payload map[string]string
	require.NoError(t, json.Unmarshal([]byte(obs), &payload))
	assert.Equal(t, "backend exploded", payload["error"])
}

func TestMetricsToolLivePayload(t *testing.T) {
	db, err := workouts.OpenMemoryDB()
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, workouts.SeedUser(ctx, db, models.UserProfile{
		UserID: 1, PreferredActivity: models.ActivityRun,
	}))
	now := time.Now()
	maxSpeed := 5.0
	dur := 3600.0
	dist := 10000.0
	require.NoError(t, workouts.SeedWorkout(ctx, db, models.Workout{
		UserID: 1, Start: now.Add(-24 * time.Hour), Activity: models.ActivityRun,
		DurationSec: &dur, DistanceM: &dist, MaxSpeedMS: &maxSpeed,
	}))

	tool := NewMetricsTool(workouts.NewStore(db))
	out, err := tool.Run(ctx, map[string]any{"user_id": float64(1)})
	require.NoError(t, err)

	var payload metricsPayload
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	require.NotNil(t, payload.Metrics.VMAKmh)
	assert.InDelta(t, 19.8, *payload.Metrics.VMAKmh, 0.001)
	assert.Equal(t, models.RecommendationContinue, payload.Recommendation)
	require.Len(t, payload.RecentWorkouts, 1)
	assert.Equal(t, "run", payload.RecentWorkouts[0].Activity)
}

func TestMetricsToolUnknownUser(t *testing.T) {
	db, err := workouts.OpenMemoryDB()
	require.NoError(t, err)
	defer db.Close()

	r := NewRegistry(NewMetricsTool(workouts.NewStore(db)))
	obs := r.Dispatch(context.Background(), models.ToolCall{
		Name:      "get_user_metrics_from_db",
		Arguments: json.RawMessage(`{"user_id": 42}`),
	})

	var payload map[string]string
	require.NoError(t, json.Unmarshal([]byte(obs), &payload))
	assert.Contains(t, payload["error"], "user")
}

type fixedRetriever struct{ text string }

func (f fixedRetriever) Retrieve(_ context.Context, _ string, _ int) (string, error) {
	return f.text, nil
}

func TestKnowledgeTool(t *testing.T) {
	tool := NewKnowledgeTool(fixedRetriever{text: "progressive overload wins"}, 4)
	r := NewRegistry(tool)

	obs := r.Dispatch(context.Background(), models.ToolCall{
		Name:      "get_training_knowledge",
		Arguments: json.RawMessage(`{"query":"how to improve VMA"}`),
	})
	assert.Equal(t, "progressive overload wins", obs)
}

func TestWeatherToolKnownAndUnknownCity(t *testing.T) {
	r := NewRegistry(NewWeatherTool())

	obs := r.Dispatch(context.Background(), models.ToolCall{
		Name:      "get_weather_forecast",
		Arguments: json.RawMessage(`{"location":"Paris"}`),
	})
	var payload map[string]string
	require.NoError(t, json.Unmarshal([]byte(obs), &payload))
	assert.Contains(t, payload["forecast"], "Partly cloudy")

	obs = r.Dispatch(context.Background(), models.ToolCall{
		Name:      "get_weather_forecast",
		Arguments: json.RawMessage(`{"location":"Atlantis"}`),
	})
	require.NoError(t, json.Unmarshal([]byte(obs), &payload))
	assert.Contains(t, payload["forecast"], "No forecast available")
}
