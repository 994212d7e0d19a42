// Package metrics holds the Prometheus collectors for the service. Each
// Collector owns a private registry so independent instances never collide.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/coolbeans/legiscompare/pkg/llm"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "legiscompare"

// Collector holds all Prometheus metrics for the application.
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// LLM metrics
	LLMCalls    *prometheus.CounterVec
	LLMDuration *prometheus.HistogramVec
	LLMTokens   *prometheus.CounterVec

	// Analysis metrics
	FlowRuns     *prometheus.CounterVec
	FlowDuration *prometheus.HistogramVec
	Analyses     *prometheus.CounterVec

	// Citation metrics
	Citations  *prometheus.CounterVec
	LinkChecks *prometheus.CounterVec
}

// NewCollector creates a collector with its own registry.
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		LLMCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "llm_calls_total",
				Help:      "Total number of LLM generation calls",
			},
			[]string{"provider", "model", "status"},
		),
		LLMDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "llm_call_duration_seconds",
				Help:      "LLM call duration in seconds, including retries",
				Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
			},
			[]string{"provider"},
		),
		LLMTokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "llm_tokens_total",
				Help:      "Total tokens consumed by LLM calls",
			},
			[]string{"provider", "model", "direction"},
		),
		FlowRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "flow_runs_total",
				Help:      "Total number of analysis flow runs",
			},
			[]string{"flow", "status"},
		),
		FlowDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "flow_duration_seconds",
				Help:      "Analysis flow duration in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
			},
			[]string{"flow"},
		),
		Analyses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "analyses_total",
				Help:      "Total number of processed analysis requests",
			},
			[]string{"plan", "status"},
		),
		Citations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "citations_total",
				Help:      "Citations found in rendered text",
			},
			[]string{"kind", "linked"},
		),
		LinkChecks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "link_checks_total",
				Help:      "Citation URL checks by result",
			},
			[]string{"status"},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.LLMCalls,
		c.LLMDuration,
		c.LLMTokens,
		c.FlowRuns,
		c.FlowDuration,
		c.Analyses,
		c.Citations,
		c.LinkChecks,
	)

	return c
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// ObserveHTTPRequest records one served request.
func (c *Collector) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveLLMCall records one generation call. It satisfies llm.MetricsRecorder.
func (c *Collector) ObserveLLMCall(provider, model, status string, duration time.Duration, usage llm.TokenUsage) {
	c.LLMCalls.WithLabelValues(provider, model, status).Inc()
	c.LLMDuration.WithLabelValues(provider).Observe(duration.Seconds())
	if usage.PromptTokens > 0 {
		c.LLMTokens.WithLabelValues(provider, model, "prompt").Add(float64(usage.PromptTokens))
	}
	if usage.CompletionTokens > 0 {
		c.LLMTokens.WithLabelValues(provider, model, "completion").Add(float64(usage.CompletionTokens))
	}
}

// ObserveFlow records one flow run.
func (c *Collector) ObserveFlow(flow string, err error, duration time.Duration) {
	c.FlowRuns.WithLabelValues(flow, statusLabel(err)).Inc()
	c.FlowDuration.WithLabelValues(flow).Observe(duration.Seconds())
}

// ObserveAnalysis records one processed request.
func (c *Collector) ObserveAnalysis(plan string, err error) {
	c.Analyses.WithLabelValues(plan, statusLabel(err)).Inc()
}

// ObserveCitation records one citation found while rendering.
func (c *Collector) ObserveCitation(kind string, linked bool) {
	c.Citations.WithLabelValues(kind, strconv.FormatBool(linked)).Inc()
}

// ObserveLinkCheck records one URL check result.
func (c *Collector) ObserveLinkCheck(status string) {
	c.LinkChecks.WithLabelValues(status).Inc()
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
