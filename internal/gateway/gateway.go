// Package gateway is the single path through which the client talks to the ARCO API.
// It normalizes headers, encodes bodies, classifies failures into internal/errors
// codes and reacts to rejected sessions by clearing them and redirecting to login.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/arco-rh/arco-client/internal/adapters/scheduler"
	"github.com/arco-rh/arco-client/internal/domain/model"
	apperrors "github.com/arco-rh/arco-client/internal/errors"
	"github.com/arco-rh/arco-client/internal/observability/metrics"
	"github.com/arco-rh/arco-client/internal/observability/statsd"
	"github.com/arco-rh/arco-client/internal/ports"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const (
	contentTypeJSON = "application/json"
	headerRequestID = "X-Request-ID"

	defaultTimeout       = 30 * time.Second
	defaultRedirectDelay = time.Second
	defaultLoginPath     = "/login.html"
)

// Config holds the gateway settings.
type Config struct {
	BaseURL       string
	Timeout       time.Duration // Upper bound for one round trip, body included
	RedirectDelay time.Duration // Pause between clearing a rejected session and the login redirect
	LoginPath     string
	// DownloadExpiresSession makes a 401 on Download clear the session and redirect,
	// like every other verb. Off by default.
	DownloadExpiresSession bool
}

// Options groups dependencies for Gateway.
type Options struct {
	Config    Config
	Sessions  ports.SessionGate // Required: token source and session reset
	Navigator ports.Navigator   // Required: login redirect target
	Scheduler ports.Scheduler   // Optional: defaults to wall-clock timers
	Files     ports.FileSink    // Optional: required only by Download
	Client    *http.Client      // Optional: defaults to a client with Config.Timeout
	Logger    *slog.Logger      // Optional: structured logger
	Metrics   statsd.Sink       // Optional: request metrics
}

// Gateway issues API calls. It is safe for concurrent use; calls are not ordered
// relative to each other.
type Gateway struct {
	cfg       Config
	base      *url.URL
	sessions  ports.SessionGate
	navigator ports.Navigator
	scheduler ports.Scheduler
	files     ports.FileSink
	client    *http.Client
	logger    *slog.Logger
	metrics   statsd.Sink

	mu       sync.Mutex
	redirect ports.Task
}

// New constructs a Gateway.
func New(opts Options) (*Gateway, error) {
	if opts.Sessions == nil {
		return nil, errors.New("session gate is required")
	}
	if opts.Navigator == nil {
		return nil, errors.New("navigator is required")
	}

	base, err := parseBaseURL(opts.Config.BaseURL)
	if err != nil {
		return nil, err
	}

	cfg := opts.Config
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RedirectDelay <= 0 {
		cfg.RedirectDelay = defaultRedirectDelay
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = defaultLoginPath
	}

	sched := opts.Scheduler
	if sched == nil {
		sched = scheduler.Timer{}
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Gateway{
		cfg:       cfg,
		base:      base,
		sessions:  opts.Sessions,
		navigator: opts.Navigator,
		scheduler: sched,
		files:     opts.Files,
		client:    client,
		logger:    logger.With("component", "gateway"),
		metrics:   opts.Metrics,
	}, nil
}

// MustNew constructs a Gateway and panics on error.
func MustNew(opts Options) *Gateway {
	g, err := New(opts)
	if err != nil {
		panic(err) //nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
	}
	return g
}

func parseBaseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("base URL is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base URL must be http or https, got %q", raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("base URL has no host: %q", raw)
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

// Get issues a GET with the given query parameters.
func (g *Gateway) Get(ctx context.Context, path string, params Params, opts ...CallOption) (*model.Envelope, error) {
	return g.do(ctx, http.MethodGet, path, params, nil, opts)
}

// Post sends body as JSON, or as multipart when body is a *Form. A nil body is sent as {}.
func (g *Gateway) Post(ctx context.Context, path string, body any, opts ...CallOption) (*model.Envelope, error) {
	return g.do(ctx, http.MethodPost, path, nil, orEmpty(body), opts)
}

// Put behaves like Post with the PUT verb.
func (g *Gateway) Put(ctx context.Context, path string, body any, opts ...CallOption) (*model.Envelope, error) {
	return g.do(ctx, http.MethodPut, path, nil, orEmpty(body), opts)
}

// Patch behaves like Post with the PATCH verb.
func (g *Gateway) Patch(ctx context.Context, path string, body any, opts ...CallOption) (*model.Envelope, error) {
	return g.do(ctx, http.MethodPatch, path, nil, orEmpty(body), opts)
}

// Delete issues a DELETE without a body.
func (g *Gateway) Delete(ctx context.Context, path string, opts ...CallOption) (*model.Envelope, error) {
	return g.do(ctx, http.MethodDelete, path, nil, nil, opts)
}

// PendingRedirect returns the most recently scheduled login redirect, or nil
// when no request has been rejected with 401 yet.
func (g *Gateway) PendingRedirect() ports.Task {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.redirect
}

func orEmpty(body any) any {
	if body == nil {
		return struct{}{}
	}
	return body
}

func (g *Gateway) do(
	ctx context.Context,
	method, path string,
	params Params,
	body any,
	opts []CallOption,
) (*model.Envelope, error) {
	o := buildCallOptions(opts)

	req, err := g.newRequest(ctx, method, path, params, body)
	if err != nil {
		return nil, err
	}
	g.decorate(ctx, req, o)

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		err = g.transportError(ctx, err)
		g.observe(ctx, req, 0, time.Since(start), err)
		return nil, err
	}
	defer resp.Body.Close()

	var env *model.Envelope
	raw, readErr := io.ReadAll(resp.Body)
	switch {
	case readErr != nil && ctx.Err() != nil:
		err = readErr
	case readErr != nil:
		err = unreadable(resp.StatusCode, readErr)
	default:
		env, err = classify(resp.StatusCode, raw)
	}
	g.observe(ctx, req, resp.StatusCode, time.Since(start), err)

	if resp.StatusCode == http.StatusUnauthorized {
		g.expireSession(ctx, req)
	}
	return env, err
}

func (g *Gateway) newRequest(ctx context.Context, method, path string, params Params, body any) (*http.Request, error) {
	target := g.resolve(path, params)

	var (
		reader      io.Reader
		contentType = contentTypeJSON
	)
	switch b := body.(type) {
	case nil:
	case *Form:
		buf, ct, err := b.encode()
		if err != nil {
			return nil, apperrors.Validationf("encode form: %v", err)
		}
		reader, contentType = buf, ct
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", contentTypeJSON)
	return req, nil
}

// resolve joins path onto the base URL and appends the encoded params.
// path is in URL path syntax: percent escapes in it are kept as sent.
func (g *Gateway) resolve(path string, params Params) string {
	u := *g.base
	rel, query, _ := strings.Cut(path, "?")
	joined := strings.TrimRight(u.EscapedPath(), "/") + "/" + strings.TrimLeft(rel, "/")
	if unescaped, err := url.PathUnescape(joined); err == nil {
		u.Path, u.RawPath = unescaped, joined
	} else {
		u.Path, u.RawPath = joined, ""
	}

	encoded := params.Encode()
	switch {
	case query != "" && encoded != "":
		u.RawQuery = query + "&" + encoded
	case encoded != "":
		u.RawQuery = encoded
	default:
		u.RawQuery = query
	}
	return u.String()
}

// decorate adds the request id, caller headers and, unless the call is public,
// the bearer token. A missing token does not block the request.
func (g *Gateway) decorate(ctx context.Context, req *http.Request, o callOptions) {
	req.Header.Set(headerRequestID, uuid.NewString())
	for k, v := range o.headers {
		switch http.CanonicalHeaderKey(k) {
		case "Content-Type", "Authorization":
			continue
		}
		req.Header.Set(k, v)
	}

	if o.public {
		return
	}
	if token, ok := g.sessions.Token(ctx); ok {
		(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(req)
	}
}

// expireSession clears the session and schedules the login redirect, in that order.
func (g *Gateway) expireSession(ctx context.Context, req *http.Request) {
	detached := context.WithoutCancel(ctx)

	g.logger.WarnContext(ctx, "session rejected by server, clearing",
		"method", req.Method,
		"path", req.URL.Path,
		"request_id", req.Header.Get(headerRequestID),
	)
	if err := g.sessions.ClearSession(detached); err != nil {
		g.logger.ErrorContext(ctx, "clear rejected session", "error", err)
	}

	task := g.scheduler.Schedule(g.cfg.RedirectDelay, func() {
		if err := g.navigator.Navigate(detached, g.cfg.LoginPath); err != nil {
			g.logger.ErrorContext(detached, "redirect to login", "destination", g.cfg.LoginPath, "error", err)
			return
		}
		metrics.EmitSession(g.metrics, metrics.SessionRedirected)
	})
	metrics.EmitSession(g.metrics, metrics.SessionRedirectScheduled)

	g.mu.Lock()
	g.redirect = task
	g.mu.Unlock()
}

func (g *Gateway) observe(ctx context.Context, req *http.Request, status int, elapsed time.Duration, err error) {
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	metrics.EmitRequest(g.metrics, metrics.RequestMetric{
		Method:   req.Method,
		Status:   status,
		Result:   result,
		Duration: elapsed,
		Err:      err,
	})

	attrs := []any{
		"method", req.Method,
		"path", req.URL.Path,
		"status", status,
		"duration_ms", elapsed.Milliseconds(),
		"request_id", req.Header.Get(headerRequestID),
	}
	if err != nil {
		g.logger.DebugContext(ctx, "api request failed", append(attrs, "error", err)...)
		return
	}
	g.logger.DebugContext(ctx, "api request", attrs...)
}
