// Package server is the composition root of the coaching core: it loads the
// configuration and wires the stores, knowledge index, LLM client, agent
// engine, and HTTP surface into a ready-to-serve handler.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/stridelab/stridecoach/internal/agent"
	"github.com/stridelab/stridecoach/internal/api"
	"github.com/stridelab/stridecoach/internal/api/handlers"
	"github.com/stridelab/stridecoach/internal/config"
	"github.com/stridelab/stridecoach/internal/conversation"
	"github.com/stridelab/stridecoach/internal/embeddings"
	"github.com/stridelab/stridecoach/internal/fitness"
	"github.com/stridelab/stridecoach/internal/guardrails"
	"github.com/stridelab/stridecoach/internal/knowledge"
	"github.com/stridelab/stridecoach/internal/llm"
	"github.com/stridelab/stridecoach/internal/observe"
	"github.com/stridelab/stridecoach/internal/telemetry"
	"github.com/stridelab/stridecoach/internal/tools"
	"github.com/stridelab/stridecoach/internal/vectorstore"
	"github.com/stridelab/stridecoach/internal/workouts"
	"github.com/stridelab/stridecoach/pkg/contracts"
)

// Server holds the initialized coaching core.
type Server struct {
	Handler http.Handler
	Port    int
	DB      *sql.DB

	// ShutdownFunc flushes telemetry on graceful shutdown.
	ShutdownFunc func(context.Context) error
}

// New initializes all components from the environment.
func New(ctx context.Context) (*Server, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	return NewWithConfig(ctx, cfg)
}

// NewWithConfig initializes the coaching core with an explicit configuration.
func NewWithConfig(ctx context.Context, cfg *config.Config) (*Server, error) {
	shutdown, err := telemetry.Init(cfg.Telemetry())
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	db, err := workouts.OpenDB(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	workoutStore := workouts.NewStore(db)
	metricsStore := fitness.NewStore(db)
	log.Info().Str("path", cfg.DBPath).Msg("Database ready")

	convStore, err := conversation.NewSQLiteStore(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("conversation store: %w", err)
	}

	// Knowledge index: embeddings + vector store + corpus.
	embedder, err := embeddings.ForProvider(
		cfg.EmbeddingProvider, cfg.EmbeddingModel, cfg.OpenAIAPIKey, cfg.OllamaEndpoint)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("embedding driver: %w", err)
	}

	var store contracts.VectorStore
	if cfg.PgvectorURL != "" {
		pg, err := vectorstore.NewPgvectorStore(ctx, cfg.PgvectorURL, embedder.Dimensions())
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("pgvector store: %w", err)
		}
		store = pg
	} else {
		store = vectorstore.NewEmbeddedStore()
	}

	index := knowledge.NewIndex(embedder, store, cfg.RetrievalTopK)
	if err := index.BuildFromDir(ctx, cfg.KnowledgeCorpusPath); err != nil {
		log.Warn().Err(err).Msg("Knowledge index build failed, retrieval unavailable")
	}

	collector := observe.NewCollector(nil)
	chatClient, err := llm.NewClient(llm.Options{
		Primary:        cfg.LLMProvider,
		Model:          cfg.LLMModel,
		Temperature:    cfg.LLMTemperature,
		OpenAIKey:      cfg.OpenAIAPIKey,
		OpenAIBaseURL:  cfg.LLMBaseURL,
		AnthropicKey:   cfg.AnthropicAPIKey,
		OllamaEndpoint: cfg.OllamaEndpoint,
	}, collector)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("llm client: %w", err)
	}

	registry := tools.NewRegistry(
		tools.NewMetricsTool(workoutStore),
		tools.NewKnowledgeTool(index, cfg.RetrievalTopK),
		tools.NewWeatherTool(),
	)

	engine := agent.New(chatClient, registry, convStore,
		guardrails.NewValidator(cfg.MaxMessageLength),
		agent.Options{
			ToolCallBudget: cfg.ToolCallBudget,
			TurnTimeout:    cfg.TurnTimeout(),
		})

	h := handlers.New(engine, workoutStore, metricsStore)
	router := api.NewRouter(cfg.Version, h, collector.Handler())

	log.Info().
		Str("llm_provider", cfg.LLMProvider).
		Str("llm_model", cfg.LLMModel).
		Str("vector_store", store.Kind()).
		Int("tool_call_budget", cfg.ToolCallBudget).
		Msg("Coaching core initialized")

	return &Server{
		Handler:      router,
		Port:         cfg.Port,
		DB:           db,
		ShutdownFunc: shutdown,
	}, nil
}
