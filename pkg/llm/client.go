package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// maxResponseSize limits the response body to prevent memory exhaustion.
const maxResponseSize = 10 * 1024 * 1024 // 10MB

// MetricsRecorder observes completed generation calls.
type MetricsRecorder interface {
	ObserveLLMCall(provider, model, status string, duration time.Duration, usage TokenUsage)
}

// BreakerConfig configures the endpoint circuit breaker.
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig trips after 80% of at least five calls fail.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// Client is a Generator that talks to one provider endpoint.
type Client struct {
	endpoint      Endpoint
	provider      Provider
	httpClient    *http.Client
	retryConfig   RetryConfig
	breakerConfig BreakerConfig
	breaker       *gobreaker.CircuitBreaker
	logger        *zap.Logger
	metrics       MetricsRecorder
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithRetryConfig sets the retry configuration.
func WithRetryConfig(cfg RetryConfig) ClientOption {
	return func(client *Client) {
		client.retryConfig = cfg
	}
}

// WithBreakerConfig sets the circuit breaker configuration.
func WithBreakerConfig(cfg BreakerConfig) ClientOption {
	return func(client *Client) {
		client.breakerConfig = cfg
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(client *Client) {
		client.logger = logger
	}
}

// WithMetrics records every call on m.
func WithMetrics(m MetricsRecorder) ClientOption {
	return func(client *Client) {
		client.metrics = m
	}
}

// NewClient creates a client for the endpoint. The provider must be registered.
func NewClient(endpoint Endpoint, opts ...ClientOption) (*Client, error) {
	provider := GetProvider(endpoint.Provider)
	if provider == nil {
		return nil, fmt.Errorf("unknown provider %q (available: %v)", endpoint.Provider, ListProviders())
	}
	if endpoint.Model == "" {
		endpoint.Model = provider.DefaultModel()
	}

	c := &Client{
		endpoint:      endpoint,
		provider:      provider,
		retryConfig:   DefaultRetryConfig(),
		breakerConfig: DefaultBreakerConfig(),
		httpClient: &http.Client{
			Timeout: 180 * time.Second,
		},
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.breaker = c.newBreaker()
	return c, nil
}

func (c *Client) newBreaker() *gobreaker.CircuitBreaker {
	cfg := c.breakerConfig
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        c.endpoint.Provider + "/" + c.endpoint.Model,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			c.logger.Warn("LLM circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		// Only endpoint trouble counts against the breaker; bad requests do not.
		IsSuccessful: func(err error) bool {
			return err == nil || IsFatal(err)
		},
	})
}

// Endpoint returns the endpoint the client talks to.
func (c *Client) Endpoint() Endpoint {
	return c.endpoint
}

// Generate sends the request, retrying transient failures with backoff.
func (c *Client) Generate(ctx context.Context, req Request) (*Response, error) {
	if req.Prompt == "" {
		return nil, NewFatalError(errors.New("prompt is required"))
	}

	requestID := uuid.New().String()
	startedAt := time.Now()
	logger := c.logger.With(
		zap.String("request_id", requestID),
		zap.String("prompt", req.Name),
		zap.String("provider", c.endpoint.Provider),
		zap.String("model", c.endpoint.Model))

	maxAttempts := c.retryConfig.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := c.executeThroughBreaker(ctx, req)
		if err == nil {
			resp.RequestID = requestID
			logger.Debug("LLM request completed",
				zap.Int("attempt", attempt),
				zap.Int("total_tokens", resp.Usage.TotalTokens),
				zap.Duration("duration", time.Since(startedAt)))
			c.observe("success", startedAt, resp.Usage)
			return resp, nil
		}

		lastErr = err
		if IsFatal(err) || errors.Is(err, ErrCircuitOpen) {
			break
		}

		if attempt < maxAttempts {
			backoff := c.retryConfig.backoff(attempt)
			logger.Debug("LLM request failed, retrying",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", maxAttempts),
				zap.Duration("backoff", backoff),
				zap.Error(err))

			select {
			case <-ctx.Done():
				c.observe("canceled", startedAt, TokenUsage{})
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	logger.Warn("LLM request failed", zap.Error(lastErr), zap.Duration("duration", time.Since(startedAt)))
	c.observe("error", startedAt, TokenUsage{})
	return nil, fmt.Errorf("llm request %s failed: %w", requestID, lastErr)
}

func (c *Client) executeThroughBreaker(ctx context.Context, req Request) (*Response, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.doRequest(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
		}
		return nil, err
	}
	return result.(*Response), nil
}

func (c *Client) observe(status string, startedAt time.Time, usage TokenUsage) {
	if c.metrics == nil {
		return
	}
	c.metrics.ObserveLLMCall(c.endpoint.Provider, c.endpoint.Model, status, time.Since(startedAt), usage)
}

// doRequest executes a single HTTP request to the endpoint.
func (c *Client) doRequest(ctx context.Context, req Request) (*Response, error) {
	body, err := c.provider.BuildRequestBody(c.endpoint, req)
	if err != nil {
		return nil, NewFatalError(fmt.Errorf("build request body: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.provider.BuildURL(c.endpoint), bytes.NewReader(body))
	if err != nil {
		return nil, NewFatalError(fmt.Errorf("create HTTP request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	c.provider.SetHeaders(httpReq, c.endpoint)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, NewFatalError(ctx.Err())
		}
		return nil, NewTransientError(fmt.Errorf("HTTP request failed: %w", err))
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return nil, NewTransientError(fmt.Errorf("read response body: %w", err))
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, classifyHTTPError(httpResp.StatusCode, respBody)
	}

	resp, err := c.provider.ParseResponse(respBody, c.endpoint)
	if err != nil {
		return nil, NewTransientError(err)
	}
	return resp, nil
}

// classifyHTTPError determines if an HTTP error is transient or fatal.
func classifyHTTPError(statusCode int, body []byte) error {
	bodyStr := string(body)
	if len(bodyStr) > 200 {
		bodyStr = bodyStr[:200] + "..."
	}

	err := fmt.Errorf("LLM API error (status %d): %s", statusCode, bodyStr)

	switch {
	case statusCode == http.StatusTooManyRequests,
		statusCode == http.StatusRequestTimeout:
		return NewTransientError(err)
	case statusCode >= 500:
		return NewTransientError(err)
	default:
		// Auth, bad request and unknown statuses are not worth retrying.
		return NewFatalError(err)
	}
}
