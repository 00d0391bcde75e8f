package bootstrap

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/arco-rh/arco-client/config"
	"github.com/arco-rh/arco-client/internal/adapters/authroles"
	"github.com/arco-rh/arco-client/internal/adapters/filesink"
	"github.com/arco-rh/arco-client/internal/adapters/navigator"
	"github.com/arco-rh/arco-client/internal/gateway"
	"github.com/arco-rh/arco-client/internal/observability/statsd"
	"github.com/arco-rh/arco-client/internal/ports"
	"github.com/arco-rh/arco-client/internal/service"
)

// Client holds the wired session and request pipeline.
type Client struct {
	Gateway   *gateway.Gateway
	Sessions  *service.SessionStore
	Auth      *service.AuthService
	Guard     *service.PageGuard
	Resources *service.ResourceService
	Navigator ports.Navigator
	Metrics   *statsd.Client

	closers []io.Closer
}

// ClientDeps groups dependencies for client initialization.
type ClientDeps struct {
	Config *config.AppConfig   // Required
	Store  ports.KeyValueStore // Required: session storage, see BuildStorage
	Out    io.Writer           // Optional: where navigation is announced, defaults to io.Discard
	Logger *slog.Logger        // Optional: structured logger
	HTTP   *http.Client        // Optional: transport override, used by tests
	Nav    ports.Navigator     // Optional: replaces the writer navigator
	Sched  ports.Scheduler     // Optional: replaces wall-clock timers
	Closer io.Closer           // Optional: released by Client.Close, usually the storage closer
}

// BuildClient wires storage, gateway and services from configuration.
func BuildClient(deps ClientDeps) (*Client, error) {
	if deps.Config == nil {
		return nil, errors.New("config is required")
	}
	if deps.Store == nil {
		return nil, errors.New("session storage is required")
	}
	cfg := deps.Config

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	out := deps.Out
	if out == nil {
		out = io.Discard
	}
	nav := deps.Nav
	if nav == nil {
		nav = navigator.NewWriter(out, logger)
	}

	metrics := buildMetrics(logger, cfg.Observability)

	sessions := service.NewSessionStore(service.SessionStoreOptions{
		Store: deps.Store,
		Roles: authroles.StaticRouter{
			AdminPath:     cfg.Routes.Admin,
			CompanyPath:   cfg.Routes.Company,
			CandidatePath: cfg.Routes.Candidate,
		},
		HomePath: cfg.Routes.Home,
		Logger:   logger,
		Metrics:  metrics,
	})

	gw, err := gateway.New(gateway.Options{
		Config: gateway.Config{
			BaseURL:                cfg.API.BaseURL,
			Timeout:                cfg.API.Timeout,
			RedirectDelay:          cfg.API.RedirectDelay,
			LoginPath:              cfg.Routes.Login,
			DownloadExpiresSession: cfg.API.DownloadExpiresSession,
		},
		Sessions:  sessions,
		Navigator: nav,
		Scheduler: deps.Sched,
		Files:     filesink.NewDir(cfg.DownloadDir),
		Client:    deps.HTTP,
		Logger:    logger,
		Metrics:   metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("build gateway: %w", err)
	}

	c := &Client{
		Gateway:   gw,
		Sessions:  sessions,
		Auth:      service.NewAuthService(service.AuthServiceOptions{API: gw, Sessions: sessions, Logger: logger}),
		Guard:     service.NewPageGuard(service.PageGuardOptions{Sessions: sessions, Navigator: nav, LoginPath: cfg.Routes.Login, Logger: logger}),
		Resources: service.NewResourceService(gw),
		Navigator: nav,
		Metrics:   metrics,
	}
	if deps.Closer != nil {
		c.closers = append(c.closers, deps.Closer)
	}
	c.closers = append(c.closers, metrics)
	return c, nil
}

// WaitRedirect blocks until a login redirect scheduled by a rejected request has run.
// It returns immediately when none is pending.
func (c *Client) WaitRedirect() {
	if task := c.Gateway.PendingRedirect(); task != nil {
		<-task.Done()
	}
}

// Close releases storage and metrics connections.
func (c *Client) Close() error {
	var errs []error
	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// buildMetrics configures the statsd sink. Failures leave a disabled client so
// metrics never block the request pipeline.
func buildMetrics(logger *slog.Logger, cfg config.ObservabilityConfig) *statsd.Client {
	client, err := statsd.NewClient(statsd.Config{
		Enabled: cfg.Metrics.IsEnabled(),
		Address: cfg.Metrics.StatsdAddress,
		Prefix:  cfg.Metrics.Prefix,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("failed to initialise statsd client", "error", err)
		client, _ = statsd.NewClient(statsd.Config{Prefix: cfg.Metrics.Prefix, Logger: logger})
	}
	return client
}
