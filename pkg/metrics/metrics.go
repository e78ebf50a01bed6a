package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRequestSize     *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Business metrics
	AnalysesCompleted  *prometheus.CounterVec
	AnalysisRetries    prometheus.Counter
	ChatMessages       *prometheus.CounterVec
	ProjectsSuggested  prometheus.Counter
	LimitDenials       *prometheus.CounterVec
	FallbacksUsed      *prometheus.CounterVec
	SubscriptionsSold  *prometheus.CounterVec
	MemoryExtractions  *prometheus.CounterVec

	// Upstream metrics
	LLMRequestDuration *prometheus.HistogramVec
	GitHubAPIDuration  prometheus.Histogram

	// Store metrics
	StoreFailures prometheus.Counter
}

// New creates a new Metrics instance with all metrics registered
func New() *Metrics {
	m := &Metrics{
		// HTTP metrics
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 5000, 10000, 50000, 100000, 500000, 1000000},
			},
			[]string{"method", "path"},
		),
		HTTPResponseSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 5000, 10000, 50000, 100000, 500000, 1000000},
			},
			[]string{"method", "path"},
		),

		// Business metrics
		AnalysesCompleted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analyses_completed_total",
				Help: "Total number of profile analyses completed",
			},
			[]string{"mode"}, // single, two_phase
		),
		AnalysisRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "analysis_retries_total",
			Help: "Total number of analysis attempts retried after a malformed model response",
		}),
		ChatMessages: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chat_messages_total",
				Help: "Total number of chat messages processed",
			},
			[]string{"plan"},
		),
		ProjectsSuggested: promauto.NewCounter(prometheus.CounterOpts{
			Name: "projects_suggested_total",
			Help: "Total number of project recommendation batches generated",
		}),
		LimitDenials: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "limit_denials_total",
				Help: "Total number of requests denied by plan limits",
			},
			[]string{"plan", "usage_type"},
		),
		FallbacksUsed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "model_fallbacks_total",
				Help: "Total number of requests served on the fallback model",
			},
			[]string{"plan"},
		),
		SubscriptionsSold: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "subscriptions_sold_total",
				Help: "Total number of subscriptions sold",
			},
			[]string{"tier"}, // student, pro, ultimate
		),
		MemoryExtractions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "memory_extractions_total",
				Help: "Total number of end-of-session memory extractions",
			},
			[]string{"status"}, // success, failed
		),

		// Upstream metrics
		LLMRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "llm_request_duration_seconds",
				Help:    "Upstream model request duration in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
			},
			[]string{"model"},
		),
		GitHubAPIDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "github_api_duration_seconds",
			Help:    "GitHub API fetch duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}),

		// Store metrics
		StoreFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "store_failures_total",
			Help: "Total number of usage store failures (checks fail closed)",
		}),
	}

	return m
}

// Middleware creates an Echo middleware for Prometheus metrics
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			path := c.Path() // Use route pattern, not actual path (e.g., /api/v1/analysis/:id)

			if req.ContentLength > 0 {
				m.HTTPRequestSize.WithLabelValues(req.Method, path).Observe(float64(req.ContentLength))
			}

			err := next(c)

			status := c.Response().Status
			duration := time.Since(start).Seconds()

			m.HTTPRequestsTotal.WithLabelValues(req.Method, path, strconv.Itoa(status)).Inc()
			m.HTTPRequestDuration.WithLabelValues(req.Method, path, strconv.Itoa(status)).Observe(duration)
			m.HTTPResponseSize.WithLabelValues(req.Method, path).Observe(float64(c.Response().Size))

			return err
		}
	}
}

// RecordAnalysisCompleted increments the analyses counter for the given mode
func (m *Metrics) RecordAnalysisCompleted(mode string) {
	m.AnalysesCompleted.WithLabelValues(mode).Inc()
}

// RecordAnalysisRetry increments the retry counter
func (m *Metrics) RecordAnalysisRetry() {
	m.AnalysisRetries.Inc()
}

// RecordChatMessage increments the chat message counter for the given plan
func (m *Metrics) RecordChatMessage(plan string) {
	m.ChatMessages.WithLabelValues(plan).Inc()
}

// RecordProjectsSuggested increments the project suggestions counter
func (m *Metrics) RecordProjectsSuggested() {
	m.ProjectsSuggested.Inc()
}

// RecordLimitDenial increments the limit denial counter
func (m *Metrics) RecordLimitDenial(plan, usageType string) {
	m.LimitDenials.WithLabelValues(plan, usageType).Inc()
}

// RecordFallback increments the fallback model counter
func (m *Metrics) RecordFallback(plan string) {
	m.FallbacksUsed.WithLabelValues(plan).Inc()
}

// RecordSubscriptionSold increments subscriptions sold counter
func (m *Metrics) RecordSubscriptionSold(tier string) {
	m.SubscriptionsSold.WithLabelValues(tier).Inc()
}

// RecordMemoryExtraction increments the memory extraction counter
func (m *Metrics) RecordMemoryExtraction(success bool) {
	status := "failed"
	if success {
		status = "success"
	}
	m.MemoryExtractions.WithLabelValues(status).Inc()
}

// RecordLLMRequest records an upstream model request duration
func (m *Metrics) RecordLLMRequest(model string, duration time.Duration) {
	m.LLMRequestDuration.WithLabelValues(model).Observe(duration.Seconds())
}

// RecordGitHubFetch records a GitHub API fetch duration
func (m *Metrics) RecordGitHubFetch(duration time.Duration) {
	m.GitHubAPIDuration.Observe(duration.Seconds())
}

// RecordStoreFailure increments the store failure counter
func (m *Metrics) RecordStoreFailure() {
	m.StoreFailures.Inc()
}
