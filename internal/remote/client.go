package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront/domain"
	"github.com/fjod/go_cart/storefront/internal/metrics"
	"github.com/fjod/go_cart/storefront/pkg/circuitbreaker"
	"github.com/fjod/go_cart/storefront/pkg/logger"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxBodyBytes = 4 << 20 // 4MB

// Result is the uniform outcome of every backend call. Transport failures and
// non-2xx answers both arrive as Success=false; callers never see a raw error.
type Result[T any] struct {
	Success bool
	Data    T
	Status  int
	Message string
	Kind    domain.ErrorKind
}

// Err converts a failed result into a *domain.Error, or nil on success.
func (r Result[T]) Err() error {
	if r.Success {
		return nil
	}
	return &domain.Error{Kind: r.Kind, Status: r.Status, Message: r.Message}
}

type rawResponse struct {
	status int
	body   []byte
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
	breaker    *circuitbreaker.Breaker[rawResponse]
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.httpClient = h
	}
}

func WithBreaker(s circuitbreaker.Settings) Option {
	return func(c *Client) {
		c.breaker = circuitbreaker.New[rawResponse](s)
	}
}

// NewClient builds a client for the backend at baseURL. A zero timeout leaves the
// transport default in place.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithSession returns a copy of the client that authenticates as s.
func (c *Client) WithSession(s domain.Session) *Client {
	cp := *c
	cp.token = s.Token
	return &cp
}

func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

func call[T any](ctx context.Context, c *Client, op, method, path string, query url.Values, body any) Result[T] {
	start := time.Now()
	res := doCall[T](ctx, c, op, method, path, query, body)

	outcome := "success"
	if !res.Success {
		outcome = string(res.Kind)
	}
	metrics.ObserveRemoteCall(op, outcome, time.Since(start))
	return res
}

func doCall[T any](ctx context.Context, c *Client, op, method, path string, query url.Values, body any) Result[T] {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return transportFailure[T](ctx, op, fmt.Errorf("failed to marshal request: %w", err))
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return transportFailure[T](ctx, op, fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	raw, err := c.execute(req)
	if err != nil {
		return transportFailure[T](ctx, op, err)
	}

	if raw.status < 200 || raw.status > 299 {
		return Result[T]{
			Success: false,
			Status:  raw.status,
			Message: rejectionMessage(raw),
			Kind:    domain.KindBackendRejection,
		}
	}

	data, err := decode[T](raw.body)
	if err != nil {
		return transportFailure[T](ctx, op, fmt.Errorf("failed to decode response: %w", err))
	}
	return Result[T]{Success: true, Data: data, Status: raw.status}
}

func (c *Client) execute(req *http.Request) (rawResponse, error) {
	send := func() (rawResponse, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return rawResponse{}, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return rawResponse{}, fmt.Errorf("failed to read response: %w", err)
		}
		return rawResponse{status: resp.StatusCode, body: body}, nil
	}

	if c.breaker == nil {
		return send()
	}
	return c.breaker.Execute(send)
}

func transportFailure[T any](ctx context.Context, op string, err error) Result[T] {
	if !errors.Is(err, context.Canceled) {
		logger.WithContext(ctx).WithError(err).WithField("op", op).Warn("backend call failed")
	}
	return Result[T]{
		Success: false,
		Status:  http.StatusInternalServerError,
		Message: domain.NetworkErrorMessage,
		Kind:    domain.KindTransport,
	}
}

func decode[T any](body []byte) (T, error) {
	var out T
	if p, ok := any(&out).(*string); ok {
		var s string
		if json.Unmarshal(body, &s) == nil {
			*p = s
		} else {
			*p = strings.TrimSpace(string(body))
		}
		return out, nil
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, err
	}
	return out, nil
}

// rejectionMessage pulls the best human-readable message out of an error body.
func rejectionMessage(raw rawResponse) string {
	trimmed := bytes.TrimSpace(raw.body)
	if len(trimmed) > 0 {
		var payload struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if json.Unmarshal(trimmed, &payload) == nil {
			if m := strings.TrimSpace(payload.Message); m != "" {
				return m
			}
			if m := strings.TrimSpace(payload.Error); m != "" {
				return m
			}
		}
		var s string
		if json.Unmarshal(trimmed, &s) == nil && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
		if trimmed[0] != '{' && trimmed[0] != '[' {
			return string(trimmed)
		}
	}
	if text := http.StatusText(raw.status); text != "" {
		return text
	}
	return fmt.Sprintf("request failed with status %d", raw.status)
}
