// Package contracts defines the service interfaces between the components of
// the coaching core. Handlers and the agent engine depend on these
// interfaces, so swapping an in-memory implementation for a persistent one
// (or a scripted LLM for a live one in tests) is a wiring-only change.
package contracts

import (
	"context"
	"time"

	"github.com/stridelab/stridecoach/pkg/models"
)

// ── Workout Store Gateway ───────────────────────────────────

// WorkoutStore is the read-only accessor for workout records and the user
// profile. Implementations never mutate ingested data.
type WorkoutStore interface {
	// ListWorkouts returns up to limit workouts ordered by start time
	// descending. activity filters by kind when non-empty.
	ListWorkouts(ctx context.Context, userID int64, limit int, activity models.ActivityKind) ([]models.Workout, error)

	// Aggregate summarises the user's workouts since the given instant.
	Aggregate(ctx context.Context, userID int64, since time.Time) (*models.WorkoutAggregate, error)

	// GetProfile returns the user's coaching profile snapshot.
	GetProfile(ctx context.Context, userID int64) (*models.UserProfile, error)
}

// ── LLM ─────────────────────────────────────────────────────

// ChatClient performs one chat-completion call with tool use.
type ChatClient interface {
	Complete(ctx context.Context, req *models.CompletionRequest) (*models.CompletionResponse, error)
}

// ── Knowledge Index ─────────────────────────────────────────

// EmbeddingDriver turns a batch of texts into dense vectors.
type EmbeddingDriver interface {
	Kind() string
	Dimensions() int
	MaxBatchSize() int
	Embed(ctx context.Context, texts []string) ([][]float64, error)
	HealthCheck(ctx context.Context) error
}

// VectorStore stores embedded chunks and serves cosine top-k search.
// Built once at startup, read-only thereafter; concurrent reads are safe.
type VectorStore interface {
	Kind() string
	Upsert(ctx context.Context, docs []models.KnowledgeDoc) error
	Search(ctx context.Context, vector []float64, topK int) ([]models.SearchResult, error)
	Count(ctx context.Context) (int, error)
}

// Retriever answers a natural-language query with concatenated chunk text.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) (string, error)
}

// ── Conversation Store ──────────────────────────────────────

// ConversationStore owns the per-thread checkpoint log. Appends are atomic
// and exactly-once; turns on the same thread are serialised through Acquire.
type ConversationStore interface {
	// Load returns the full ordered message log for a thread. A thread that
	// has never been written returns an empty log, not an error.
	Load(ctx context.Context, threadID string) ([]models.ChatMessage, error)

	// Append atomically adds a batch of messages as the next turn.
	Append(ctx context.Context, threadID string, msgs []models.ChatMessage) error

	// Acquire takes the single-writer lock for a thread. It fails with a
	// Busy fault if a turn is already in progress. The returned release
	// function must be called exactly once.
	Acquire(threadID string) (release func(), err error)
}
