// Package agent runs the coaching conversation loop: validate the inbound
// message, restore the thread checkpoint, alternate between reasoning
// (completions) and acting (tool calls) under a per-turn budget, stream the
// final answer, and checkpoint the finished turn atomically.
package agent

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/stridelab/stridecoach/internal/guardrails"
	"github.com/stridelab/stridecoach/internal/plan"
	"github.com/stridelab/stridecoach/internal/tools"
	"github.com/stridelab/stridecoach/pkg/contracts"
	"github.com/stridelab/stridecoach/pkg/fault"
	"github.com/stridelab/stridecoach/pkg/models"
)

// Defaults for a turn.
const (
	DefaultToolCallBudget = 8
	DefaultTurnTimeout    = 120 * time.Second
)

// Engine orchestrates one conversation turn at a time.
type Engine struct {
	llm       contracts.ChatClient
	registry  *tools.Registry
	store     contracts.ConversationStore
	validator *guardrails.Validator

	budget  int
	timeout time.Duration
}

// Options bound a turn. Zero values fall back to the defaults.
type Options struct {
	ToolCallBudget int
	TurnTimeout    time.Duration
}

// New wires an engine.
func New(llm contracts.ChatClient, registry *tools.Registry, store contracts.ConversationStore, validator *guardrails.Validator, opts Options) *Engine {
	if opts.ToolCallBudget <= 0 {
		opts.ToolCallBudget = DefaultToolCallBudget
	}
	if opts.TurnTimeout <= 0 {
		opts.TurnTimeout = DefaultTurnTimeout
	}
	return &Engine{
		llm:       llm,
		registry:  registry,
		store:     store,
		validator: validator,
		budget:    opts.ToolCallBudget,
		timeout:   opts.TurnTimeout,
	}
}

// Result is the outcome of a successful turn.
type Result struct {
	ThreadID string
	Content  string
	Rounds   int
}

// Turn runs one conversation turn. sink receives the final assistant content
// exactly once on success; on any failure the checkpoint is left untouched
// and the caller may resubmit the same message.
func (e *Engine) Turn(ctx context.Context, req models.ChatRequest, sink func(string)) (*Result, error) {
	if !req.Mode.Valid() {
		return nil, fault.Newf(fault.Validation, "unknown mode %q", req.Mode)
	}
	if req.Mode == models.ModePlanGenerator && req.Plan != nil && req.Message == "" {
		req.Message = plan.Message(*req.Plan)
	}
	if err := e.validator.CheckMessage(req.Message); err != nil {
		return nil, err
	}

	threadID := req.ThreadID
	if threadID == "" {
		threadID = uuid.NewString()
	}

	release, err := e.store.Acquire(threadID)
	if err != nil {
		return nil, err
	}
	defer release()

	history, err := e.store.Load(ctx, threadID)
	if err != nil {
		return nil, err
	}

	userMsg := models.ChatMessage{Role: "user", Content: req.Message}

	// The directive is prepended per call and never checkpointed.
	outbound := make([]models.ChatMessage, 0, len(history)+2)
	outbound = append(outbound, models.ChatMessage{Role: "system", Content: directiveFor(string(req.Mode), req.UserID)})
	outbound = append(outbound, history...)
	outbound = append(outbound, userMsg)

	// Messages created by this turn, checkpointed together on success.
	turnMsgs := []models.ChatMessage{userMsg}

	turnCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	defs := e.registry.Definitions()
	actRounds := 0
	for {
		resp, err := e.llm.Complete(turnCtx, &models.CompletionRequest{
			Messages: outbound,
			Tools:    defs,
		})
		if err != nil {
			return nil, err
		}

		if len(resp.Message.ToolCalls) == 0 {
			final := resp.Message
			turnMsgs = append(turnMsgs, final)

			if req.Mode == models.ModePlanGenerator {
				weeks, perr := plan.Validate(final.Content)
				if perr != nil {
					log.Warn().
						Str("thread_id", threadID).
						Err(perr).
						Msg("Generated plan failed structural validation")
					return nil, fault.Wrap(fault.Upstream, "generated plan failed structural validation", perr)
				}
				log.Info().
					Str("thread_id", threadID).
					Int("weeks", weeks).
					Msg("Generated plan validated")
			}

			sink(final.Content)

			if err := e.store.Append(ctx, threadID, turnMsgs); err != nil {
				return nil, err
			}
			log.Info().
				Str("thread_id", threadID).
				Str("mode", string(req.Mode)).
				Int("rounds", actRounds).
				Msg("Turn complete")
			return &Result{ThreadID: threadID, Content: final.Content, Rounds: actRounds}, nil
		}

		if actRounds >= e.budget {
			log.Warn().
				Str("thread_id", threadID).
				Int("budget", e.budget).
				Msg("Tool-call budget exhausted")
			return nil, fault.Newf(fault.Overrun, "tool-call budget of %d exhausted", e.budget)
		}

		outbound = append(outbound, resp.Message)
		turnMsgs = append(turnMsgs, resp.Message)
		for _, call := range resp.Message.ToolCalls {
			observation := e.registry.Dispatch(turnCtx, call)
			toolMsg := models.ChatMessage{
				Role:       "tool",
				Content:    observation,
				ToolCallID: call.ID,
				Name:       call.Name,
			}
			outbound = append(outbound, toolMsg)
			turnMsgs = append(turnMsgs, toolMsg)
		}
		actRounds++

		log.Debug().
			Str("thread_id", threadID).
			Int("round", actRounds).
			Int("tool_calls", len(resp.Message.ToolCalls)).
			Msg("Acting on tool calls")
	}
}
