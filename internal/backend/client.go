// Package backend is the HTTP client for the Code2Deploy REST API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"code2deploy-console/internal/model"
)

const maxBodyBytes = 10 << 20

type Config struct {
	BaseURL string
	Timeout time.Duration

	BreakerName         string
	BreakerMaxRequests  uint32
	BreakerInterval     time.Duration
	BreakerTimeout      time.Duration
	BreakerFailureRatio float64
	BreakerMinRequests  uint32
}

func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:             baseURL,
		Timeout:             15 * time.Second,
		BreakerName:         "c2d-api",
		BreakerMaxRequests:  1,
		BreakerInterval:     60 * time.Second,
		BreakerTimeout:      30 * time.Second,
		BreakerFailureRatio: 0.5,
		BreakerMinRequests:  5,
	}
}

// Request describes one call. Path is relative to the API base URL and
// keeps the backend's trailing slash. Body is sent as JSON unless Form is
// set.
type Request struct {
	Method   string
	Path     string
	Query    url.Values
	Body     any
	Form     *Form
	Header   http.Header
	Resource string
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*http.Response]
	logger     *slog.Logger
}

func New(cfg Config, logger *slog.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	parsed, err := url.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("backend base URL %q is not absolute", cfg.BaseURL)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BreakerName == "" {
		cfg.BreakerName = "c2d-api"
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}

	settings := gobreaker.Settings{
		Name:        cfg.BreakerName,
		MaxRequests: cfg.BreakerMaxRequests,
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.BreakerMinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.BreakerFailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			breakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
		// A caller walking away is not a backend failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	}
	breakerState.WithLabelValues(cfg.BreakerName).Set(0)

	return &Client{
		baseURL:    base,
		httpClient: &http.Client{Transport: transport, Timeout: cfg.Timeout},
		breaker:    gobreaker.NewCircuitBreaker[*http.Response](settings),
		logger:     logger,
	}, nil
}

// Do performs exactly one attempt. A 2xx body is decoded into out when out
// is non-nil. A 401 expires the credentials before the error is returned.
func (c *Client) Do(ctx context.Context, creds Credentials, req Request, out any) error {
	if creds == nil {
		creds = Anonymous
	}

	httpReq, err := c.newRequest(ctx, creds, req)
	if err != nil {
		return err
	}

	resource := req.Resource
	if resource == "" {
		resource = "other"
	}
	started := time.Now()

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 500 {
			defer func() { _ = resp.Body.Close() }()
			body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
			return nil, parseError(resp.StatusCode, body)
		}
		return resp, nil
	})
	callDuration.WithLabelValues(resource, httpReq.Method).Observe(time.Since(started).Seconds())

	if err != nil {
		return c.transportError(ctx, resource, httpReq, err)
	}
	defer func() { _ = resp.Body.Close() }()

	callsTotal.WithLabelValues(resource, httpReq.Method, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		apiErr := parseError(resp.StatusCode, body)
		if resp.StatusCode == http.StatusUnauthorized {
			creds.Expire(ctx)
		}
		c.logger.DebugContext(ctx, "backend rejected call",
			slog.String("resource", resource),
			slog.String("method", httpReq.Method),
			slog.String("path", httpReq.URL.Path),
			slog.Int("status", resp.StatusCode),
			slog.String("code", apiErr.Code),
		)
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode %s response: %w", resource, err)
	}
	return nil
}

func (c *Client) transportError(ctx context.Context, resource string, req *http.Request, err error) error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		callsTotal.WithLabelValues(resource, req.Method, strconv.Itoa(apiErr.Status)).Inc()
		c.logger.WarnContext(ctx, "backend server error",
			slog.String("resource", resource),
			slog.String("path", req.URL.Path),
			slog.Int("status", apiErr.Status),
		)
		return apiErr
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		callsTotal.WithLabelValues(resource, req.Method, "breaker_open").Inc()
		return fmt.Errorf("%w: %v", model.ErrBackendUnavailable, err)
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		callsTotal.WithLabelValues(resource, req.Method, "canceled").Inc()
		return ctxErr
	}

	callsTotal.WithLabelValues(resource, req.Method, "network_error").Inc()
	c.logger.WarnContext(ctx, "backend unreachable",
		slog.String("resource", resource),
		slog.String("path", req.URL.Path),
		slog.String("error", err.Error()),
	)
	return fmt.Errorf("%w: %v", model.ErrNetwork, err)
}

func (c *Client) newRequest(ctx context.Context, creds Credentials, req Request) (*http.Request, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	target := c.baseURL + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var (
		body        io.Reader
		contentType string
	)
	switch {
	case req.Form != nil:
		r, ct, err := req.Form.encode()
		if err != nil {
			return nil, err
		}
		body, contentType = r, ct
	case req.Body != nil:
		raw, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body, contentType = bytes.NewReader(raw), "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build backend request: %w", err)
	}

	for k, vals := range req.Header {
		for _, v := range vals {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	token, err := creds.AccessToken(ctx)
	if err != nil {
		return nil, err
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	return httpReq, nil
}

// State exposes the breaker state for health reporting.
func (c *Client) State() gobreaker.State {
	return c.breaker.State()
}
