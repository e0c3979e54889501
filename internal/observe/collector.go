// Package observe tracks every outbound LLM call: request counts, token
// consumption, estimated cost and wall-clock latency, exported in Prometheus
// format. Collection happens inside the LLM client, so there is exactly one
// observation per outbound call; requests rejected before reaching a model
// never show up here.
package observe

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// ModelCost is the price of one model in USD per million tokens.
type ModelCost struct {
	InputPerMTok  float64
	OutputPerMTok float64
}

// defaultCostTable carries list prices for the models the platform routes
// to. Unknown models fall back to defaultCost so cost totals never silently
// drop calls.
var defaultCostTable = map[string]ModelCost{
	"gpt-3.5-turbo":             {InputPerMTok: 0.50, OutputPerMTok: 1.50},
	"gpt-4o":                    {InputPerMTok: 2.50, OutputPerMTok: 10.00},
	"gpt-4o-mini":               {InputPerMTok: 0.15, OutputPerMTok: 0.60},
	"claude-3-5-haiku-latest":   {InputPerMTok: 0.80, OutputPerMTok: 4.00},
	"claude-3-5-sonnet-latest":  {InputPerMTok: 3.00, OutputPerMTok: 15.00},
	"claude-sonnet-4-20250514":  {InputPerMTok: 3.00, OutputPerMTok: 15.00},
}

var defaultCost = ModelCost{InputPerMTok: 1.00, OutputPerMTok: 3.00}

// Collector owns the AI usage metrics on a private registry, keeping the
// scrape output free of default Go runtime noise.
type Collector struct {
	registry *prometheus.Registry
	costs    map[string]ModelCost

	requests *prometheus.CounterVec
	tokens   *prometheus.CounterVec
	cost     *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewCollector creates a collector with the default cost table. Entries in
// costOverrides replace or extend the defaults.
func NewCollector(costOverrides map[string]ModelCost) *Collector {
	registry := prometheus.NewRegistry()
	auto := promauto.With(registry)

	costs := make(map[string]ModelCost, len(defaultCostTable)+len(costOverrides))
	for k, v := range defaultCostTable {
		costs[k] = v
	}
	for k, v := range costOverrides {
		costs[k] = v
	}

	return &Collector{
		registry: registry,
		costs:    costs,
		requests: auto.NewCounterVec(prometheus.CounterOpts{
			Name: "ai_requests_total",
			Help: "Outbound LLM calls by endpoint, model and status.",
		}, []string{"endpoint", "model", "status"}),
		tokens: auto.NewCounterVec(prometheus.CounterOpts{
			Name: "ai_tokens_total",
			Help: "Tokens consumed by endpoint, model and type (input/output).",
		}, []string{"endpoint", "model", "type"}),
		cost: auto.NewCounterVec(prometheus.CounterOpts{
			Name: "ai_cost_usd_total",
			Help: "Estimated spend in USD by endpoint and model.",
		}, []string{"endpoint", "model"}),
		duration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ai_request_duration_seconds",
			Help:    "Wall-clock duration of outbound LLM calls.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"endpoint", "model"}),
	}
}

// Record captures one outbound LLM call and returns its estimated cost.
// status is the upstream HTTP status ("200", "500") or "error" for
// transport failures.
func (c *Collector) Record(endpoint, model, status string, promptTokens, completionTokens int64, elapsed time.Duration) float64 {
	c.requests.WithLabelValues(endpoint, model, status).Inc()
	c.duration.WithLabelValues(endpoint, model).Observe(elapsed.Seconds())

	if promptTokens > 0 {
		c.tokens.WithLabelValues(endpoint, model, "input").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		c.tokens.WithLabelValues(endpoint, model, "output").Add(float64(completionTokens))
	}

	usd := c.CostUSD(model, promptTokens, completionTokens)
	if usd > 0 {
		c.cost.WithLabelValues(endpoint, model).Add(usd)
	}

	log.Debug().
		Str("endpoint", endpoint).
		Str("model", model).
		Str("status", status).
		Int64("prompt_tokens", promptTokens).
		Int64("completion_tokens", completionTokens).
		Float64("cost_usd", usd).
		Dur("elapsed", elapsed).
		Msg("LLM call recorded")
	return usd
}

// CostUSD prices a call without recording it.
func (c *Collector) CostUSD(model string, promptTokens, completionTokens int64) float64 {
	price, ok := c.costs[model]
	if !ok {
		price = defaultCost
	}
	return float64(promptTokens)/1e6*price.InputPerMTok +
		float64(completionTokens)/1e6*price.OutputPerMTok
}

// Handler serves the collector's registry in Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
