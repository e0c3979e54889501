// Package models defines the wire and domain models shared across the
// coaching core: workout facts, derived performance metrics, chat messages,
// tool calls, knowledge documents, and the streaming response envelope.
package models

import (
	"encoding/json"
	"time"
)

// ── Activity & Workouts ─────────────────────────────────────

// ActivityKind enumerates the supported workout activities.
type ActivityKind string

const (
	ActivityRun   ActivityKind = "run"
	ActivityCycle ActivityKind = "cycle"
	ActivitySwim  ActivityKind = "swim"
	ActivityWalk  ActivityKind = "walk"
	ActivityHike  ActivityKind = "hike"
	ActivityOther ActivityKind = "other"
)

// Workout is an immutable fact produced by the ingestion pipeline.
// All numeric measurements are nullable: a nil pointer means "not measured".
type Workout struct {
	ID       int64        `json:"id"`
	UserID   int64        `json:"user_id"`
	Start    time.Time    `json:"start_time"`
	Activity ActivityKind `json:"activity"`

	DurationSec *float64 `json:"duration_sec,omitempty"`
	DistanceM   *float64 `json:"distance_m,omitempty"`
	AvgSpeedMS  *float64 `json:"avg_speed_ms,omitempty"`
	MaxSpeedMS  *float64 `json:"max_speed_ms,omitempty"`

	AvgHR    *float64 `json:"avg_hr,omitempty"`
	MaxHR    *float64 `json:"max_hr,omitempty"`
	Calories *float64 `json:"calories,omitempty"`

	ElevationGainM *float64 `json:"elevation_gain_m,omitempty"`
	ElevationLossM *float64 `json:"elevation_loss_m,omitempty"`
	AvgCadence     *float64 `json:"avg_cadence,omitempty"`
	MaxCadence     *float64 `json:"max_cadence,omitempty"`
	StrideLengthM  *float64 `json:"stride_length_m,omitempty"`

	TrainingLoad *float64 `json:"training_load,omitempty"`
	AerobicTE    *float64 `json:"aerobic_te,omitempty"`
	AnaerobicTE  *float64 `json:"anaerobic_te,omitempty"`
	VO2MaxEst    *float64 `json:"vo2max,omitempty"`

	// Seconds spent in each of the five heart-rate zones.
	ZoneSec [5]*float64 `json:"zone_sec,omitempty"`

	// Fastest split times, in seconds.
	FastestSplit1K  *float64 `json:"fastest_split_1000,omitempty"`
	FastestSplit5K  *float64 `json:"fastest_split_5000,omitempty"`
	FastestSplit10K *float64 `json:"fastest_split_10000,omitempty"`
}

// WorkoutAggregate summarises a user's workouts over a time window.
type WorkoutAggregate struct {
	UserID        int64    `json:"user_id"`
	Count         int64    `json:"count"`
	TotalDuration float64  `json:"total_duration_sec"`
	TotalDistance float64  `json:"total_distance_m"`
	TotalCalories float64  `json:"total_calories"`
	AvgDistance   *float64 `json:"avg_distance_m,omitempty"`
	AvgHR         *float64 `json:"avg_hr,omitempty"`
	MaxDistance   *float64 `json:"max_distance_m,omitempty"`
	MaxSpeedMS    *float64 `json:"max_speed_ms,omitempty"`
}

// UserProfile is the per-user coaching state. The core only reads it.
type UserProfile struct {
	UserID            int64        `json:"user_id"`
	PreferredActivity ActivityKind `json:"preferred_activity"`
	MainGoal          string       `json:"main_goal,omitempty"`

	BirthDate *time.Time `json:"birth_date,omitempty"`
	WeightKg  *float64   `json:"weight_kg,omitempty"`
	HeightCm  *float64   `json:"height_cm,omitempty"`

	CurrentFitness *float64 `json:"current_fitness,omitempty"`
	Fatigue        *float64 `json:"fatigue,omitempty"`
	Form           *float64 `json:"form,omitempty"`

	// Predicted race times, in minutes.
	Predicted5K   *float64 `json:"predicted_5k,omitempty"`
	Predicted10K  *float64 `json:"predicted_10k,omitempty"`
	PredictedHalf *float64 `json:"predicted_half,omitempty"`
	PredictedFull *float64 `json:"predicted_full,omitempty"`

	// Lower bounds of the five heart-rate zones, bpm.
	HRZoneFloors [5]*float64 `json:"hr_zone_floors,omitempty"`
}

// ── Derived Metrics ─────────────────────────────────────────

// Recommendation values emitted by the metrics engine. Rest is advised when
// fatigue exceeds 1.5 times form.
const (
	RecommendationRest     = "rest advised"
	RecommendationContinue = "continue current plan"
)

// DerivedMetrics is the output of the metrics engine for one
// (user, calculation date) pair. Nil pointers mean "could not be derived
// from the available workouts".
type DerivedMetrics struct {
	UserID          int64     `json:"user_id"`
	CalculationDate time.Time `json:"calculation_date"`

	VMAKmh    *float64 `json:"vma_kmh,omitempty"`
	VO2MaxEst *float64 `json:"vo2max,omitempty"`

	Load7d  float64 `json:"load_7d"`
	Load28d float64 `json:"load_28d"`
	Form    float64 `json:"form"`
	Fatigue float64 `json:"fatigue"`

	EnduranceRatio *float64 `json:"endurance_ratio,omitempty"`
	// Predicted 10 k race time, in minutes.
	Race10KMin *float64 `json:"race_10k_min,omitempty"`

	Recommendation string `json:"recommendation"`
}

// ── Chat & Tool Calling ─────────────────────────────────────

// Mode selects the agent's system directive.
type Mode string

const (
	ModeConversational Mode = "conversational"
	ModePlanGenerator  Mode = "plan_generator"
)

// Valid reports whether the mode is one the agent understands.
func (m Mode) Valid() bool {
	return m == ModeConversational || m == ModePlanGenerator
}

// ChatMessage is one entry of a conversation log. The same shape is used for
// the persistent checkpoint and for the outbound LLM payload.
type ChatMessage struct {
	Role       string     `json:"role"` // system, user, assistant, tool
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"`
}

// ToolCall is a structured tool invocation requested by the LLM.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolDefinition declares a callable tool to the LLM.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Schema      map[string]any `json:"schema"`
}

// TokenUsage carries per-call token accounting.
type TokenUsage struct {
	PromptTokens     int64   `json:"prompt_tokens"`
	CompletionTokens int64   `json:"completion_tokens"`
	TotalTokens      int64   `json:"total_tokens"`
	CostUSD          float64 `json:"cost_usd"`
}

// CompletionRequest is one outbound chat-completion call.
type CompletionRequest struct {
	Model       string
	Messages    []ChatMessage
	Tools       []ToolDefinition
	Temperature *float64
	MaxTokens   int
}

// CompletionResponse is the assistant message plus usage metadata.
type CompletionResponse struct {
	Message   ChatMessage
	Model     string
	Provider  string
	Usage     TokenUsage
	LatencyMs int64
}

// ── Knowledge Index ─────────────────────────────────────────

// KnowledgeDoc is a text chunk of the coaching corpus with its embedding.
type KnowledgeDoc struct {
	ID        string            `json:"id"`
	Source    string            `json:"source"`
	Content   string            `json:"content"`
	Vector    []float64         `json:"vector,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// SearchResult is one retrieved chunk with its cosine similarity score.
type SearchResult struct {
	Doc   KnowledgeDoc `json:"doc"`
	Score float64      `json:"score"`
}

// ── Request / Response Envelope ─────────────────────────────

// ChatRequest is the inbound turn submission. Authentication happens at an
// external gateway; user_id arrives as a trusted claim.
type ChatRequest struct {
	ThreadID string `json:"thread_id,omitempty"`
	UserID   int64  `json:"user_id"`
	Mode     Mode   `json:"mode"`
	Message  string `json:"message"`

	// Plan, when set on a plan_generator turn with an empty message, is
	// composed into the request message server-side.
	Plan *PlanRequest `json:"plan,omitempty"`
}

// Stream event types for the newline-delimited JSON response.
const (
	StreamContent = "content"
	StreamEnd     = "end"
	StreamError   = "error"
)

// StreamEndData is the terminal payload of a successful stream.
const StreamEndData = "Stream finished."

// StreamEvent is one line of the NDJSON response stream.
type StreamEvent struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

// ── Plan Generation ─────────────────────────────────────────

// PlanRequest parameterises a plan_generator turn. DurationWeeks 0 means the
// agent determines the preparation duration itself (4–20 weeks).
type PlanRequest struct {
	Goal            string `json:"goal"`
	Level           string `json:"level"`
	SessionsPerWeek int    `json:"sessions_per_week"`
	TargetTime      string `json:"target_time,omitempty"`
	DurationWeeks   int    `json:"duration_weeks,omitempty"`
}
