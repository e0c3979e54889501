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

// ollamaProvider talks to Ollama's OpenAI-compatible endpoint, so it reuses
// the OpenAI wire types. No auth is required for a local daemon.
type ollamaProvider struct {
	endpoint string
	client   *http.Client
}

func newOllamaProvider(endpoint string) *ollamaProvider {
	if endpoint == "" {
		endpoint = "http://localhost:11434"
	}
	return &ollamaProvider{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 120 * time.Second},
	}
}

func (p *ollamaProvider) name() string { return "ollama" }

func (p *ollamaProvider) complete(ctx context.Context, req *models.CompletionRequest) (*models.CompletionResponse, string, error) {
	body, _ := json.Marshal(oaRequest{
		Model:       req.Model,
		Messages:    toOpenAIMessages(req.Messages),
		Tools:       toOpenAITools(req.Tools),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, "error", fmt.Errorf("ollama: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, "error", fmt.Errorf("ollama: request failed: %w", err)
	}
	defer httpResp.Body.Close()

	status := strconv.Itoa(httpResp.StatusCode)
	if httpResp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(httpResp.Body)
		return nil, status, fmt.Errorf("ollama: status %d: %s", httpResp.StatusCode, string(respBody))
	}

	var oaResp oaResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&oaResp); err != nil {
		return nil, status, fmt.Errorf("ollama: decode response: %w", err)
	}
	if len(oaResp.Choices) == 0 {
		return nil, status, fmt.Errorf("ollama: empty choices")
	}

	resp := &models.CompletionResponse{
		Message: fromOpenAIMessage(oaResp.Choices[0].Message),
		Model:   req.Model,
		Usage: models.TokenUsage{
			PromptTokens:     oaResp.Usage.PromptTokens,
			CompletionTokens: oaResp.Usage.CompletionTokens,
			TotalTokens:      oaResp.Usage.TotalTokens,
		},
	}
	return resp, status, nil
}
