package odoo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	qerr "github.com/tb0hdan/odoo-query-mcp/pkg/errors"
	"github.com/tb0hdan/odoo-query-mcp/pkg/telemetry"
)

const (
	endpointPath     = "/jsonrpc"
	maxResponseBytes = 32 << 20
	defaultTimeout   = 30 * time.Second
)

// RetryPolicy bounds retries of transient failures.
type RetryPolicy struct {
	// MaxAttempts counts the first attempt.
	MaxAttempts     int
	InitialInterval time.Duration
	Multiplier      float64
	MaxInterval     time.Duration
}

// DefaultRetryPolicy returns 3 attempts starting at 1s and doubling.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: time.Second,
		Multiplier:      2,
		MaxInterval:     10 * time.Second,
	}
}

func (p RetryPolicy) backOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.Multiplier = p.Multiplier
	b.MaxInterval = p.MaxInterval
	b.RandomizationFactor = 0
	return b
}

// Client is a JSON-RPC session against one ERP database. The user id is
// resolved on first use and reused for every later call.
type Client struct {
	creds      Credentials
	endpoint   string
	httpClient *http.Client
	retry      RetryPolicy
	logger     zerolog.Logger
	metrics    *telemetry.Metrics

	mu  sync.Mutex
	uid int64
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithRetryPolicy overrides the retry policy.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(c *Client) {
		if policy.MaxAttempts < 1 {
			policy.MaxAttempts = 1
		}
		if policy.Multiplier < 1 {
			policy.Multiplier = 1
		}
		c.retry = policy
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMetrics records attempts and failures into m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient creates a client for creds. No network call is made until the
// first query.
func NewClient(creds Credentials, opts ...Option) (*Client, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	c := &Client{
		creds:      creds,
		endpoint:   strings.TrimRight(creds.URL, "/") + endpointPath,
		httpClient: &http.Client{Timeout: defaultTimeout},
		retry:      DefaultRetryPolicy(),
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.logger = c.logger.With().Str("component", "odoo").Str("db", creds.Database).Logger()
	return c, nil
}

type rpcRequest struct {
	JSONRPC string    `json:"jsonrpc"`
	Method  string    `json:"method"`
	Params  rpcParams `json:"params"`
	ID      string    `json:"id"`
}

type rpcParams struct {
	Service string `json:"service"`
	Method  string `json:"method"`
	Args    []any  `json:"args"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	} `json:"data"`
}

// Call runs model.method through execute_kw. Methods outside the read-only
// allow-list fail before any network I/O.
func (c *Client) Call(ctx context.Context, model, method string, args []any, kwargs map[string]any) (json.RawMessage, error) {
	if err := Guard(method); err != nil {
		return nil, err
	}
	uid, err := c.authenticate(ctx)
	if err != nil {
		return nil, err
	}
	if args == nil {
		args = []any{}
	}
	if kwargs == nil {
		kwargs = map[string]any{}
	}
	return c.dispatch(ctx, model, method, "object", "execute_kw",
		[]any{c.creds.Database, uid, c.creds.APIKey, model, method, args, kwargs})
}

// UID returns the cached user id, or 0 before the first authentication.
func (c *Client) UID() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.uid
}

func (c *Client) authenticate(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.uid > 0 {
		return c.uid, nil
	}

	raw, err := c.dispatch(ctx, "", "authenticate", "common", "authenticate",
		[]any{c.creds.Database, c.creds.Username, c.creds.APIKey, map[string]any{}})
	if err != nil {
		return 0, err
	}

	var uid int64
	if err := json.Unmarshal(raw, &uid); err != nil || uid <= 0 {
		return 0, qerr.Newf(qerr.CodeAuth, "ERP rejected credentials for user %q", c.creds.Username)
	}
	c.uid = uid
	c.logger.Debug().Int64("uid", uid).Msg("Authenticated")
	return uid, nil
}

// dispatch posts one JSON-RPC request, retrying transient failures.
func (c *Client) dispatch(ctx context.Context, model, method, service, rpcMethod string, args []any) (json.RawMessage, error) {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  "call",
		Params:  rpcParams{Service: service, Method: rpcMethod, Args: args},
		ID:      uuid.NewString(),
	})
	if err != nil {
		return nil, qerr.New(qerr.CodeValidation, "failed to encode request", err)
	}

	attempt := 0
	operation := func() (json.RawMessage, error) {
		attempt++
		c.metrics.RecordRPCAttempt(ctx, model, method, attempt)
		result, err := c.post(ctx, body)
		if err == nil {
			return result, nil
		}
		if ctx.Err() != nil || !qerr.IsRetryable(err) {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}
	notify := func(err error, next time.Duration) {
		c.logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("max_attempts", c.retry.MaxAttempts).
			Dur("backoff", next).
			Str("model", model).
			Str("method", method).
			Msg("Retrying ERP call")
	}

	result, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(c.retry.backOff()),
		backoff.WithMaxTries(uint(c.retry.MaxAttempts)), //nolint:gosec
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(notify),
	)
	if err == nil {
		return result, nil
	}

	qe, ok := qerr.As(err)
	if !ok {
		// Cancelled while waiting between attempts.
		qe = qerr.New(qerr.CodeConnection, "ERP call cancelled", err)
	}
	qe.WithContext("attempts", attempt)
	c.metrics.RecordRPCFailure(ctx, model, method, string(qe.Code))
	c.logger.Error().
		Err(qe).
		Int("attempts", attempt).
		Str("model", model).
		Str("method", method).
		Msg("ERP call failed")
	return nil, qe
}

func (c *Client) post(ctx context.Context, body []byte) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, qerr.New(qerr.CodeConnection, "invalid ERP endpoint", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, qerr.New(qerr.CodeConnection, "ERP unreachable", err).
			WithRetryable(ctx.Err() == nil)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, qerr.New(qerr.CodeConnection, "failed to read ERP response", err).
			WithRetryable(ctx.Err() == nil)
	}

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, qerr.Newf(qerr.CodeAPI, "ERP returned HTTP %d: %s", resp.StatusCode, snippet(data)).
			WithContext("status", resp.StatusCode).
			WithRetryable(true)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, qerr.Newf(qerr.CodeAuth, "ERP returned HTTP %d", resp.StatusCode).
			WithContext("status", resp.StatusCode)
	case resp.StatusCode >= http.StatusBadRequest:
		return nil, qerr.Newf(qerr.CodeAPI, "ERP returned HTTP %d: %s", resp.StatusCode, snippet(data)).
			WithContext("status", resp.StatusCode)
	}

	var envelope rpcResponse
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, qerr.New(qerr.CodeAPI, "malformed JSON-RPC response", err)
	}
	if envelope.Error != nil {
		return nil, envelope.Error.toQueryError()
	}
	if envelope.Result == nil {
		return nil, qerr.Newf(qerr.CodeAPI, "JSON-RPC response has neither result nor error")
	}
	return envelope.Result, nil
}

func (e *rpcError) toQueryError() *qerr.QueryError {
	msg := e.Data.Message
	if msg == "" {
		msg = e.Message
	}
	code := qerr.CodeAPI
	switch e.Data.Name {
	case "odoo.exceptions.AccessDenied", "odoo.exceptions.AccessError":
		code = qerr.CodeAuth
	}
	return qerr.Newf(code, "ERP error: %s", msg).
		WithContext("rpc_code", e.Code).
		WithContext("exception", e.Data.Name)
}

func snippet(data []byte) string {
	const maxLen = 200
	s := strings.TrimSpace(string(data))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "empty body"
	}
	return s
}

func (c *Client) String() string {
	return fmt.Sprintf("odoo.Client(%s, db=%s, user=%s)", c.endpoint, c.creds.Database, c.creds.Username)
}
