// Package handlers implements the HTTP handlers of the coaching API.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/stridelab/stridecoach/internal/agent"
	"github.com/stridelab/stridecoach/internal/fitness"
	"github.com/stridelab/stridecoach/pkg/contracts"
	"github.com/stridelab/stridecoach/pkg/fault"
	"github.com/stridelab/stridecoach/pkg/models"
)

// TurnRunner is the slice of the agent engine the chat handler needs.
type TurnRunner interface {
	Turn(ctx context.Context, req models.ChatRequest, sink func(string)) (*agent.Result, error)
}

// MetricsSaver persists derived metrics snapshots.
type MetricsSaver interface {
	Save(ctx context.Context, m models.DerivedMetrics) error
}

// Handlers bundles the dependencies of the HTTP surface.
type Handlers struct {
	engine   TurnRunner
	workouts contracts.WorkoutStore
	metrics  MetricsSaver
}

// New creates the handler set.
func New(engine TurnRunner, workouts contracts.WorkoutStore, metrics MetricsSaver) *Handlers {
	return &Handlers{engine: engine, workouts: workouts, metrics: metrics}
}

// writeFault reports an error as JSON with the status its kind maps to.
func writeFault(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(fault.HTTPStatus(err))
	json.NewEncoder(w).Encode(map[string]string{
		"error": fault.Message(err),
		"kind":  fault.KindOf(err).String(),
	})
}

// Chat runs one conversation turn and streams the response as NDJSON:
// zero or more content events, then a terminal end event. Failures before
// any content was written map the fault kind onto the HTTP status; failures
// after that replace the end event with an error event.
func (h *Handlers) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFault(w, fault.Wrap(fault.Validation, "decode request", err))
		return
	}

	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)
	started := false

	writeEvent := func(typ, data string) {
		if !started {
			w.Header().Set("Content-Type", "application/x-ndjson")
			w.WriteHeader(http.StatusOK)
			started = true
		}
		enc.Encode(models.StreamEvent{Type: typ, Data: data})
		if flusher != nil {
			flusher.Flush()
		}
	}

	result, err := h.engine.Turn(r.Context(), req, func(content string) {
		writeEvent(models.StreamContent, content)
	})
	if err != nil {
		if started {
			// Too late for a status code; the error terminates the stream.
			writeEvent(models.StreamError, fault.Message(err))
			return
		}
		writeFault(w, err)
		return
	}

	writeEvent(models.StreamEnd, models.StreamEndData)
	log.Debug().Str("thread_id", result.ThreadID).Msg("Chat stream finished")
}

// UserMetrics derives the user's current metrics from the workout log,
// persists the daily snapshot, and returns it.
func (h *Handlers) UserMetrics(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		writeFault(w, fault.New(fault.Validation, "user id must be an integer"))
		return
	}

	workouts, err := h.workouts.ListWorkouts(r.Context(), userID, 100, "")
	if err != nil {
		writeFault(w, err)
		return
	}

	now := time.Now()
	m := fitness.Compute(workouts, now)
	m.UserID = userID
	m.CalculationDate = now

	// Snapshot persistence is append-only per day; failures are not fatal
	// to the read path.
	if err := h.metrics.Save(r.Context(), m); err != nil {
		log.Warn().Int64("user_id", userID).Err(err).Msg("Failed to persist metrics snapshot")
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(m)
}
