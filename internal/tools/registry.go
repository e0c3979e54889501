// Package tools holds the agent's callable tools behind stable names and
// JSON-schema contracts. Tool failures never abort a turn: they come back as
// error observations the model can react to.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/stridelab/stridecoach/pkg/models"
)

// Tool is one callable capability. Run receives decoded arguments and
// returns a text observation. Tools read state, never mutate it.
type Tool struct {
	Name        string
	Description string
	Schema      map[string]any
	Run         func(ctx context.Context, args map[string]any) (string, error)
}

// Registry resolves tool calls by name.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry builds a registry from the given tools.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		r.tools[t.Name] = t
	}
	return r
}

// Definitions returns the tool declarations for the LLM payload, in stable
// name order.
func (r *Registry) Definitions() []models.ToolDefinition {
	defs := make([]models.ToolDefinition, 0, len(r.tools))
	for _, t := range r.tools {
		defs = append(defs, models.ToolDefinition{
			Name:        t.Name,
			Description: t.Description,
			Schema:      t.Schema,
		})
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Dispatch executes one tool call and always returns an observation string.
// Unknown tools, malformed arguments, and tool failures are reported to the
// model as {"error": ...} JSON rather than failing the turn.
func (r *Registry) Dispatch(ctx context.Context, call models.ToolCall) string {
	t, ok := r.tools[call.Name]
	if !ok {
		return errObservation(fmt.Sprintf("unknown tool %q", call.Name))
	}

	args := map[string]any{}
	if len(call.Arguments) > 0 {
		if err := json.Unmarshal(call.Arguments, &args); err != nil {
			return errObservation(fmt.Sprintf("invalid arguments for %s: %v", call.Name, err))
		}
	}

	if missing := missingRequired(t.Schema, args); missing != "" {
		return errObservation(fmt.Sprintf("missing required argument %q for %s", missing, call.Name))
	}

	observation, err := t.Run(ctx, args)
	if err != nil {
		log.Warn().Str("tool", call.Name).Err(err).Msg("Tool call failed")
		return errObservation(err.Error())
	}
	return observation
}

// missingRequired returns the first required schema field absent from args.
func missingRequired(schema, args map[string]any) string {
	required, _ := schema["required"].([]string)
	if required == nil {
		if raw, ok := schema["required"].([]any); ok {
			for _, r := range raw {
				if s, ok := r.(string); ok {
					required = append(required, s)
				}
			}
		}
	}
	for _, field := range required {
		if _, ok := args[field]; !ok {
			return field
		}
	}
	return ""
}

func errObservation(msg string) string {
	b, _ := json.Marshal(map[string]string{"error": msg})
	return string(b)
}
