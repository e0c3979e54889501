// Package config loads the runtime configuration of the coaching core from
// environment variables.
package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config holds every tunable of the coaching core.
type Config struct {
	Port    int    `env:"PORT,default=8080"`
	Version string `env:"VERSION,default=0.4.0"`
	DBPath  string `env:"DB_PATH,default=data/stridecoach.db"`

	// LLM transport.
	LLMProvider     string  `env:"LLM_PROVIDER,default=openai"`
	LLMModel        string  `env:"LLM_MODEL,default=gpt-3.5-turbo"`
	LLMTemperature  float64 `env:"LLM_TEMPERATURE,default=0"`
	LLMBaseURL      string  `env:"LLM_BASE_URL"`
	OpenAIAPIKey    string  `env:"OPENAI_API_KEY"`
	AnthropicAPIKey string  `env:"ANTHROPIC_API_KEY"`
	OllamaEndpoint  string  `env:"OLLAMA_ENDPOINT,default=http://localhost:11434"`

	// Knowledge index.
	EmbeddingProvider   string `env:"EMBEDDING_PROVIDER,default=openai"`
	EmbeddingModel      string `env:"EMBEDDING_MODEL,default=text-embedding-3-small"`
	KnowledgeCorpusPath string `env:"KNOWLEDGE_CORPUS_PATH,default=knowledge"`
	RetrievalTopK       int    `env:"RETRIEVAL_TOP_K,default=4"`
	// When set, chunks are stored in PostgreSQL/pgvector instead of the
	// embedded in-memory store.
	PgvectorURL string `env:"PGVECTOR_URL"`

	// Agent turn limits.
	TurnTimeoutSeconds int `env:"TURN_TIMEOUT_SECONDS,default=120"`
	ToolCallBudget     int `env:"TOOL_CALL_BUDGET,default=8"`
	MaxMessageLength   int `env:"MAX_MESSAGE_LENGTH,default=2000"`

	// Tracing.
	OTELEnabled  bool   `env:"OTEL_ENABLED,default=false"`
	OTELEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT,default=localhost:4317"`
	ServiceName  string `env:"OTEL_SERVICE_NAME,default=stridecoach"`
}

// Load reads the configuration from the process environment.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("load env config: %w", err)
	}
	if cfg.ToolCallBudget < 1 {
		return nil, fmt.Errorf("TOOL_CALL_BUDGET must be at least 1, got %d", cfg.ToolCallBudget)
	}
	if cfg.MaxMessageLength < 1 {
		return nil, fmt.Errorf("MAX_MESSAGE_LENGTH must be at least 1, got %d", cfg.MaxMessageLength)
	}
	return &cfg, nil
}

// TurnTimeout returns the per-turn deadline as a duration.
func (c *Config) TurnTimeout() time.Duration {
	return time.Duration(c.TurnTimeoutSeconds) * time.Second
}

// TelemetryConfig is the tracing slice of the configuration.
type TelemetryConfig struct {
	Enabled        bool
	OTLPEndpoint   string
	ServiceName    string
	ServiceVersion string
}

// Telemetry returns the tracing configuration.
func (c *Config) Telemetry() TelemetryConfig {
	return TelemetryConfig{
		Enabled:        c.OTELEnabled,
		OTLPEndpoint:   c.OTELEndpoint,
		ServiceName:    c.ServiceName,
		ServiceVersion: c.Version,
	}
}
