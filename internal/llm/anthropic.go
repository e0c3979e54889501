package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/stridelab/stridecoach/pkg/models"
)

// ── Anthropic wire format ───────────────────────────────────

type antContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`

	// tool_use (assistant)
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	// tool_result (user)
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
}

type antMessage struct {
	Role    string            `json:"role"`
	Content []antContentBlock `json:"content"`
}

type antTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

type antRequest struct {
	Model       string       `json:"model"`
	System      string       `json:"system,omitempty"`
	Messages    []antMessage `json:"messages"`
	Tools       []antTool    `json:"tools,omitempty"`
	Temperature *float64     `json:"temperature,omitempty"`
	MaxTokens   int          `json:"max_tokens"`
}

type antResponse struct {
	ID      string            `json:"id"`
	Content []antContentBlock `json:"content"`
	Usage   struct {
		InputTokens  int64 `json:"input_tokens"`
		OutputTokens int64 `json:"output_tokens"`
	} `json:"usage"`
}

type anthropicProvider struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

func newAnthropicProvider(apiKey string) *anthropicProvider {
	return &anthropicProvider{
		apiKey:   apiKey,
		endpoint: "https://api.anthropic.com",
		client:   &http.Client{Timeout: 120 * time.Second},
	}
}

func (p *anthropicProvider) name() string { return "anthropic" }

func (p *anthropicProvider) complete(ctx context.Context, req *models.CompletionRequest) (*models.CompletionResponse, string, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	system, messages := toAnthropicMessages(req.Messages)
	body, _ := json.Marshal(antRequest{
		Model:       req.Model,
		System:      system,
		Messages:    messages,
		Tools:       toAnthropicTools(req.Tools),
		Temperature: req.Temperature,
		MaxTokens:   maxTokens,
	})

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, "error", fmt.Errorf("anthropic: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, "error", fmt.Errorf("anthropic: request failed: %w", err)
	}
	defer httpResp.Body.Close()

	status := strconv.Itoa(httpResp.StatusCode)
	if httpResp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(httpResp.Body)
		return nil, status, fmt.Errorf("anthropic: status %d: %s", httpResp.StatusCode, string(respBody))
	}

	var antResp antResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&antResp); err != nil {
		return nil, status, fmt.Errorf("anthropic: decode response: %w", err)
	}

	msg := models.ChatMessage{Role: "assistant"}
	for _, block := range antResp.Content {
		switch block.Type {
		case "text":
			msg.Content += block.Text
		case "tool_use":
			msg.ToolCalls = append(msg.ToolCalls, models.ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: block.Input,
			})
		}
	}

	resp := &models.CompletionResponse{
		Message: msg,
		Model:   req.Model,
		Usage: models.TokenUsage{
			PromptTokens:     antResp.Usage.InputTokens,
			CompletionTokens: antResp.Usage.OutputTokens,
			TotalTokens:      antResp.Usage.InputTokens + antResp.Usage.OutputTokens,
		},
	}
	return resp, status, nil
}

// toAnthropicMessages extracts the system directive and converts the rest to
// the block format: assistant tool calls become tool_use blocks, tool
// observations become user tool_result blocks.
func toAnthropicMessages(msgs []models.ChatMessage) (string, []antMessage) {
	var system string
	var out []antMessage
	for _, m := range msgs {
		switch m.Role {
		case "system":
			if system != "" {
				system += "\n\n"
			}
			system += m.Content

		case "tool":
			out = append(out, antMessage{
				Role: "user",
				Content: []antContentBlock{{
					Type:      "tool_result",
					ToolUseID: m.ToolCallID,
					Content:   m.Content,
				}},
			})

		case "assistant":
			blocks := []antContentBlock{}
			if m.Content != "" {
				blocks = append(blocks, antContentBlock{Type: "text", Text: m.Content})
			}
			for _, tc := range m.ToolCalls {
				blocks = append(blocks, antContentBlock{
					Type:  "tool_use",
					ID:    tc.ID,
					Name:  tc.Name,
					Input: tc.Arguments,
				})
			}
			out = append(out, antMessage{Role: "assistant", Content: blocks})

		default:
			out = append(out, antMessage{
				Role:    m.Role,
				Content: []antContentBlock{{Type: "text", Text: m.Content}},
			})
		}
	}
	return system, out
}

func toAnthropicTools(defs []models.ToolDefinition) []antTool {
	out := make([]antTool, len(defs))
	for i, d := range defs {
		out[i] = antTool{
			Name:        d.Name,
			Description: d.Description,
			InputSchema: d.Schema,
		}
	}
	return out
}
