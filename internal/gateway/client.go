package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"jobscout/internal/config"
	"jobscout/internal/errors"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// TokenSource supplies the bearer credential for authenticated backend calls.
// An empty token with a nil error means no user is signed in.
type TokenSource interface {
	IDToken(ctx context.Context) (string, error)
}

// MetricsRecorder receives one observation per backend call plus the domain
// counters the client maintains. A nil recorder disables instrumentation.
type MetricsRecorder interface {
	RecordBackendRequest(ctx context.Context, operation string, duration time.Duration, err error)
	RecordBusinessMetric(ctx context.Context, metricType string, success bool)
}

// Client is the remote operation gateway: one typed method per backend
// capability. It classifies every failure into the client error taxonomy and
// never retries on its own; bounded retries are the caller's decision.
type Client struct {
	baseURL string
	long    *http.Client // generous ceiling, the backend runs AI inference synchronously
	quick   *http.Client // health and lookup calls
	tokens  TokenSource
	limiter *LimiterManager
	logger  *errors.Logger

	searchBreaker  *OperationBreaker
	analyzeBreaker *OperationBreaker
	reportBreaker  *OperationBreaker

	// Per-operation-group deadlines, tighter than the shared client timeout.
	searchTimeout  time.Duration
	analyzeTimeout time.Duration
	reportTimeout  time.Duration

	analysisJobLimit int

	metrics           MetricsRecorder
	onUnauthenticated func()
}

// Option configures optional client collaborators.
type Option func(*Client)

// WithMetrics attaches a backend-call metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(c *Client) { c.metrics = m }
}

// WithUnauthenticatedHook registers a callback fired whenever the backend
// rejects a call with 401. The session store uses it to force a logout.
func WithUnauthenticatedHook(fn func()) Option {
	return func(c *Client) { c.onUnauthenticated = fn }
}

// NewClient builds a gateway client from configuration.
func NewClient(cfg *config.Config, tokens TokenSource, logger *errors.Logger, opts ...Option) *Client {
	transport := otelhttp.NewTransport(http.DefaultTransport)

	searchCfg := cfg.GetSearchConfig()
	analyzeCfg := cfg.GetAnalyzeConfig()
	reportCfg := cfg.GetReportConfig()

	c := &Client{
		baseURL: strings.TrimRight(cfg.Backend.BaseURL, "/"),
		long: &http.Client{
			Timeout:   cfg.Backend.Timeout,
			Transport: transport,
		},
		quick: &http.Client{
			Timeout:   cfg.Backend.QuickTimeout,
			Transport: transport,
		},
		tokens:           tokens,
		logger:           logger,
		searchBreaker:    NewOperationBreaker("search", &searchCfg, logger),
		analyzeBreaker:   NewOperationBreaker("analyze", &analyzeCfg, logger),
		reportBreaker:    NewOperationBreaker("report", &reportCfg, logger),
		searchTimeout:    operationTimeout(&searchCfg),
		analyzeTimeout:   operationTimeout(&analyzeCfg),
		reportTimeout:    operationTimeout(&reportCfg),
		analysisJobLimit: cfg.App.AnalysisJobLimit,
	}

	if cfg.Backend.RateLimit.Enabled {
		c.limiter = NewRateLimiter(cfg.Backend.RateLimit.RequestsPerMin, cfg.Backend.RateLimit.BurstCapacity, logger)
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// operationTimeout resolves the configured deadline for an operation group.
func operationTimeout(opCfg *config.OperationConfig) time.Duration {
	if opCfg.Timeout != nil {
		return *opCfg.Timeout
	}
	return 0
}

// deadlineFor bounds a call with the operation group's deadline. A zero
// duration leaves the context untouched.
func deadlineFor(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

// Close releases background resources held by the client.
func (c *Client) Close() {
	if c.limiter != nil {
		c.limiter.Close()
	}
}

// BreakerStats reports the state of each operation-group circuit breaker.
func (c *Client) BreakerStats() map[string]any {
	return map[string]any{
		"search":  c.searchBreaker.GetStats(),
		"analyze": c.analyzeBreaker.GetStats(),
		"report":  c.reportBreaker.GetStats(),
	}
}

// request is one outbound backend call before classification.
type request struct {
	operation   string
	method      string
	path        string
	body        io.Reader
	contentType string
	authed      bool
	client      *http.Client
}

// do executes a backend call and returns the raw response body, or a
// classified AppError.
func (c *Client) do(ctx context.Context, req request) ([]byte, error) {
	start := time.Now()
	body, err := c.execute(ctx, req)
	if c.metrics != nil {
		c.metrics.RecordBackendRequest(ctx, req.operation, time.Since(start), err)
	}
	return body, err
}

// recordBusiness bumps one domain counter with the call's outcome.
func (c *Client) recordBusiness(ctx context.Context, metricType string, err error) {
	if c.metrics != nil {
		c.metrics.RecordBusinessMetric(ctx, metricType, err == nil)
	}
}

func (c *Client) execute(ctx context.Context, req request) ([]byte, error) {
	if c.limiter != nil && !c.limiter.Allow(req.operation) {
		c.logger.Warn("Outbound rate limit exceeded", "operation", req.operation)
		if c.metrics != nil {
			c.metrics.RecordBusinessMetric(ctx, "rate_limit_hit", false)
		}
		return nil, errors.NewTransientError(errors.ErrCodeRateLimited,
			"Too many requests in a short time. Wait a moment and try again.", nil)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, req.body)
	if err != nil {
		return nil, errors.NewInternalError("REQUEST_BUILD_FAILED", "failed to build backend request", err)
	}
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	httpReq.Header.Set("Accept", "application/json")

	if req.authed {
		token, err := c.tokens.IDToken(ctx)
		if err != nil {
			return nil, err
		}
		if token == "" {
			return nil, errors.NewAuthError(errors.ErrCodeUnauthenticated,
				"Please sign in to continue.", nil)
		}
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := req.client.Do(httpReq)
	if err != nil {
		return nil, c.classifyTransportError(req.operation, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewTransientError(errors.ErrCodeBackendUnavailable,
			"The connection was interrupted. Please try again.", err)
	}

	if resp.StatusCode >= 400 {
		return nil, c.classifyStatus(req.operation, resp.StatusCode, respBody)
	}

	return respBody, nil
}

// classifyTransportError maps no-response failures onto the transient bucket.
func (c *Client) classifyTransportError(operation string, err error) error {
	c.logger.Warn("Backend call failed without a response",
		"operation", operation,
		"error", err.Error())

	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return errors.NewTransientError(errors.ErrCodeNetworkTimeout,
			"The request timed out. The service may be busy; please try again.", err)
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.NewTransientError(errors.ErrCodeNetworkTimeout,
			"The request timed out. The service may be busy; please try again.", err)
	}

	return errors.NewTransientError(errors.ErrCodeBackendUnavailable,
		"Could not reach the service. Check your connection and try again.", err)
}

// classifyStatus maps error responses onto the client taxonomy. 401 fires the
// forced-logout hook; other 4xx surface the backend's detail message verbatim.
func (c *Client) classifyStatus(operation string, status int, body []byte) error {
	switch {
	case status == http.StatusUnauthorized:
		c.logger.Warn("Backend rejected credential", "operation", operation)
		if c.onUnauthenticated != nil {
			c.onUnauthenticated()
		}
		return errors.NewAuthError(errors.ErrCodeUnauthenticated,
			"Your session has expired. Please sign in again.", nil)

	case status == http.StatusTooManyRequests:
		return errors.NewTransientError(errors.ErrCodeRateLimited,
			"The service is receiving too many requests. Wait a moment and try again.", nil)

	case status >= 500:
		c.logger.Warn("Backend reported a server error",
			"operation", operation,
			"status", status)
		return errors.NewTransientError(errors.ErrCodeBackendUnavailable,
			"The service is temporarily unavailable. Please try again.", nil)

	default:
		detail := extractDetail(body)
		if detail == "" {
			detail = fmt.Sprintf("The request was rejected (HTTP %d).", status)
		}
		return errors.NewBackendError(errors.ErrCodeBackendDetail, detail, nil).
			WithContext("operation", operation).
			WithContext("status", status)
	}
}

// extractDetail pulls the structured detail message out of an error body.
// FastAPI-style backends send {"detail": "..."} or {"detail": [{...}]}.
func extractDetail(body []byte) string {
	var envelope struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}

	switch d := envelope.Detail.(type) {
	case string:
		return d
	case nil:
		return ""
	default:
		rendered, err := json.Marshal(d)
		if err != nil {
			return ""
		}
		return string(rendered)
	}
}

// postJSON marshals a JSON body for an authenticated long-running call.
func (c *Client) postJSON(ctx context.Context, operation, path string, payload any, client *http.Client) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.NewInternalError("ENCODE_FAILED", "failed to encode request body", err)
	}
	return c.do(ctx, request{
		operation:   operation,
		method:      http.MethodPost,
		path:        path,
		body:        bytes.NewReader(body),
		contentType: "application/json",
		authed:      true,
		client:      client,
	})
}
