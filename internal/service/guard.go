package service

import (
	"context"
	"log/slog"

	domainauth "github.com/arco-rh/arco-client/internal/domain/auth"
	"github.com/arco-rh/arco-client/internal/ports"
)

// Deny reasons reported in Decision.Reason.
const (
	ReasonUnauthenticated = "authentication required"
	ReasonWrongRole       = "insufficient role"
	ReasonAlreadySignedIn = "already signed in"
)

// Decision is the outcome of a page guard.
type Decision struct {
	Allowed  bool
	Redirect string // Where the user was sent when not allowed
	Reason   string
}

// PageGuardOptions groups dependencies for PageGuard.
type PageGuardOptions struct {
	Sessions  *SessionStore   // Required
	Navigator ports.Navigator // Required
	LoginPath string
	Logger    *slog.Logger // Optional: structured logger
}

// PageGuard decides whether a page may be shown for the current session and
// navigates away when it may not.
type PageGuard struct {
	sessions  *SessionStore
	navigator ports.Navigator
	loginPath string
	logger    *slog.Logger
}

// NewPageGuard constructs a new PageGuard.
func NewPageGuard(opts PageGuardOptions) *PageGuard {
	if opts.Sessions == nil {
		//nolint:forbidigo // Service construction must fail fast during wiring when dependencies are missing
		panic("SessionStore is required")
	}
	if opts.Navigator == nil {
		//nolint:forbidigo // Service construction must fail fast during wiring when dependencies are missing
		panic("Navigator is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	loginPath := opts.LoginPath
	if loginPath == "" {
		loginPath = "/login.html"
	}

	return &PageGuard{
		sessions:  opts.Sessions,
		navigator: opts.Navigator,
		loginPath: loginPath,
		logger:    logger.With("component", "guard"),
	}
}

// RequireAuthenticated allows the page only with a stored session; otherwise it sends the user to login.
func (g *PageGuard) RequireAuthenticated(ctx context.Context) Decision {
	if g.sessions.IsAuthenticated(ctx) {
		return Decision{Allowed: true}
	}
	return g.deny(ctx, g.loginPath, ReasonUnauthenticated)
}

// RequireRole allows the page only for role. Signed-in users with another role are
// sent to their own dashboard and the mismatch is logged as a warning.
func (g *PageGuard) RequireRole(ctx context.Context, role domainauth.Role) Decision {
	if d := g.RequireAuthenticated(ctx); !d.Allowed {
		return d
	}
	if g.sessions.HasRole(ctx, role) {
		return Decision{Allowed: true}
	}

	dest := g.sessions.RedirectTarget(ctx)
	g.logger.WarnContext(ctx, "page requires another role",
		"required", string(role),
		"redirect", dest,
	)
	return g.deny(ctx, dest, ReasonWrongRole)
}

// RedirectIfAuthenticated keeps signed-in users away from public-only pages such as login.
func (g *PageGuard) RedirectIfAuthenticated(ctx context.Context) Decision {
	if !g.sessions.IsAuthenticated(ctx) {
		return Decision{Allowed: true}
	}
	return g.deny(ctx, g.sessions.RedirectTarget(ctx), ReasonAlreadySignedIn)
}

func (g *PageGuard) deny(ctx context.Context, dest, reason string) Decision {
	if err := g.navigator.Navigate(ctx, dest); err != nil {
		g.logger.ErrorContext(ctx, "guard redirect failed", "destination", dest, "error", err)
	}
	return Decision{Redirect: dest, Reason: reason}
}
