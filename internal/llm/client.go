// Package llm is the outbound chat-completion client. It speaks native
// tool-calling to OpenAI-compatible, Anthropic, and Ollama backends, falls
// back across configured providers, and records exactly one usage
// observation per outbound call.
package llm

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/stridelab/stridecoach/internal/observe"
	"github.com/stridelab/stridecoach/pkg/fault"
	"github.com/stridelab/stridecoach/pkg/models"
)

// provider is one concrete LLM transport. complete returns the upstream
// HTTP status as a string for the usage observation ("error" when the
// request never produced a status).
type provider interface {
	name() string
	complete(ctx context.Context, req *models.CompletionRequest) (*models.CompletionResponse, string, error)
}

// Options configures the client. Providers are instantiated for every
// credential present; Primary names the one tried first.
type Options struct {
	Primary        string // openai, anthropic, ollama
	Model          string
	Temperature    float64
	OpenAIKey      string
	OpenAIBaseURL  string
	AnthropicKey   string
	OllamaEndpoint string

	// Endpoint label attached to usage observations.
	Endpoint string
}

// Client routes completion requests across the configured providers.
type Client struct {
	providers []provider
	primary   string
	model     string
	temp      float64
	endpoint  string
	collector *observe.Collector

	// Rolling latency per provider, used to order fallbacks.
	latencyMu sync.RWMutex
	latencies map[string]int64
}

// NewClient builds a client from the options. At least one provider must be
// configured.
func NewClient(opts Options, collector *observe.Collector) (*Client, error) {
	var providers []provider
	if opts.OpenAIKey != "" {
		providers = append(providers, newOpenAIProvider(opts.OpenAIKey, opts.OpenAIBaseURL))
	}
	if opts.AnthropicKey != "" {
		providers = append(providers, newAnthropicProvider(opts.AnthropicKey))
	}
	if opts.OllamaEndpoint != "" {
		providers = append(providers, newOllamaProvider(opts.OllamaEndpoint))
	}
	if len(providers) == 0 {
		return nil, errors.New("no LLM provider configured")
	}

	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = "/api/v1/chat"
	}

	c := &Client{
		providers: providers,
		primary:   opts.Primary,
		model:     opts.Model,
		temp:      opts.Temperature,
		endpoint:  endpoint,
		collector: collector,
		latencies: make(map[string]int64),
	}
	log.Info().
		Int("providers", len(providers)).
		Str("primary", opts.Primary).
		Str("model", opts.Model).
		Msg("LLM client ready")
	return c, nil
}

// Complete sends one chat completion, falling back across providers. Each
// attempt is recorded with the collector, success or failure. When every
// provider fails the caller gets an Upstream fault and may safely retry.
func (c *Client) Complete(ctx context.Context, req *models.CompletionRequest) (*models.CompletionResponse, error) {
	if req.Model == "" {
		req.Model = c.model
	}
	if req.Temperature == nil {
		t := c.temp
		req.Temperature = &t
	}

	var lastErr error
	for _, p := range c.ordered() {
		start := time.Now()
		resp, status, err := p.complete(ctx, req)
		elapsed := time.Since(start)

		var promptTok, completionTok int64
		if resp != nil {
			promptTok = resp.Usage.PromptTokens
			completionTok = resp.Usage.CompletionTokens
		}
		cost := c.collector.Record(c.endpoint, req.Model, status, promptTok, completionTok, elapsed)

		if err != nil {
			log.Warn().
				Str("provider", p.name()).
				Str("status", status).
				Err(err).
				Msg("Provider call failed, trying next")
			lastErr = err
			if ctx.Err() != nil {
				// The turn deadline elapsed; further fallbacks are pointless.
				return nil, fault.Wrap(fault.Upstream, "completion deadline exceeded", ctx.Err())
			}
			continue
		}

		c.observeLatency(p.name(), elapsed.Milliseconds())
		resp.Provider = p.name()
		resp.LatencyMs = elapsed.Milliseconds()
		resp.Usage.CostUSD = cost
		return resp, nil
	}

	return nil, fault.Wrap(fault.Upstream, "all providers failed", lastErr)
}

// ordered returns providers with the primary first and the rest sorted by
// rolling latency.
func (c *Client) ordered() []provider {
	out := make([]provider, len(c.providers))
	copy(out, c.providers)

	c.latencyMu.RLock()
	defer c.latencyMu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		if pi, pj := out[i].name() == c.primary, out[j].name() == c.primary; pi != pj {
			return pi
		}
		li, lj := c.latencies[out[i].name()], c.latencies[out[j].name()]
		if li == 0 {
			li = 1000
		}
		if lj == 0 {
			lj = 1000
		}
		return li < lj
	})
	return out
}

func (c *Client) observeLatency(name string, ms int64) {
	c.latencyMu.Lock()
	defer c.latencyMu.Unlock()
	prev := c.latencies[name]
	if prev == 0 {
		c.latencies[name] = ms
	} else {
		// Exponential moving average, weighted toward history.
		c.latencies[name] = (prev*7 + ms*3) / 10
	}
}
