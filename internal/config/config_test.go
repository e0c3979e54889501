package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "gpt-3.5-turbo", cfg.LLMModel)
	assert.Equal(t, float64(0), cfg.LLMTemperature)
	assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
	assert.Equal(t, 120, cfg.TurnTimeoutSeconds)
	assert.Equal(t, 120*time.Second, cfg.TurnTimeout())
	assert.Equal(t, 8, cfg.ToolCallBudget)
	assert.Equal(t, 2000, cfg.MaxMessageLength)
	assert.Equal(t, 4, cfg.RetrievalTopK)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LLM_MODEL", "gpt-4o-mini")
	t.Setenv("TOOL_CALL_BUDGET", "3")
	t.Setenv("TURN_TIMEOUT_SECONDS", "30")

	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", cfg.LLMModel)
	assert.Equal(t, 3, cfg.ToolCallBudget)
	assert.Equal(t, 30*time.Second, cfg.TurnTimeout())
}

func TestLoadRejectsDegenerateLimits(t *testing.T) {
	t.Setenv("TOOL_CALL_BUDGET", "0")

	_, err := Load(context.Background())
	require.Error(t, err)
}
