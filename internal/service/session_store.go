package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	domainauth "github.com/arco-rh/arco-client/internal/domain/auth"
	apperrors "github.com/arco-rh/arco-client/internal/errors"
	"github.com/arco-rh/arco-client/internal/observability/metrics"
	"github.com/arco-rh/arco-client/internal/observability/statsd"
	"github.com/arco-rh/arco-client/internal/ports"
)

// Storage keys shared with every other client of the same storage.
const (
	KeyToken   = "token"
	KeyProfile = "userData"
)

var (
	errNoProfile        = errors.New("no stored profile")
	errProfileMalformed = errors.New("stored profile is malformed")
)

// SessionStoreOptions groups dependencies for SessionStore.
type SessionStoreOptions struct {
	Store    ports.KeyValueStore // Required: durable key/value storage
	Roles    ports.RoleRouter    // Optional: role to dashboard mapping; without it every role goes home
	HomePath string              // Fallback destination for unknown or missing roles
	Logger   *slog.Logger        // Optional: structured logger
	Metrics  statsd.Sink         // Optional: session lifecycle counters
}

// SessionStore keeps the bearer token and the cached user profile in durable storage.
// Every read goes to storage; nothing is cached in memory, so the token and profile
// always reflect what the last writer left behind.
type SessionStore struct {
	store    ports.KeyValueStore
	roles    ports.RoleRouter
	homePath string
	logger   *slog.Logger
	metrics  statsd.Sink
}

// NewSessionStore constructs a new SessionStore.
func NewSessionStore(opts SessionStoreOptions) *SessionStore {
	if opts.Store == nil {
		//nolint:forbidigo // Service construction must fail fast during wiring when dependencies are missing
		panic("KeyValueStore is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &SessionStore{
		store:    opts.Store,
		roles:    opts.Roles,
		homePath: opts.HomePath,
		logger:   logger.With("component", "session"),
		metrics:  opts.Metrics,
	}
}

// SaveSession stores token and profile, overwriting any previous session.
// When the profile write fails the previous token is put back, so a failed save
// never leaves a new token next to an old profile.
func (s *SessionStore) SaveSession(ctx context.Context, token string, profile domainauth.Profile) error {
	if token == "" {
		return apperrors.ValidationField(KeyToken, "token is required")
	}
	if profile == nil {
		return apperrors.ValidationField(KeyProfile, "profile is required")
	}

	raw, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	prev, hadPrev, err := s.store.Get(ctx, KeyToken)
	if err != nil {
		return fmt.Errorf("read token: %w", err)
	}

	if err := s.store.Set(ctx, KeyToken, token); err != nil {
		return fmt.Errorf("write token: %w", err)
	}

	if err := s.store.Set(ctx, KeyProfile, string(raw)); err != nil {
		writeErr := fmt.Errorf("write profile: %w", err)
		if rbErr := s.restoreToken(ctx, prev, hadPrev); rbErr != nil {
			return errors.Join(writeErr, fmt.Errorf("restore token: %w", rbErr))
		}
		return writeErr
	}

	metrics.EmitSession(s.metrics, metrics.SessionSaved)
	s.logger.DebugContext(ctx, "session saved", "role", string(profile.Role()))
	return nil
}

func (s *SessionStore) restoreToken(ctx context.Context, prev string, hadPrev bool) error {
	if hadPrev {
		return s.store.Set(ctx, KeyToken, prev)
	}
	return s.store.Delete(ctx, KeyToken)
}

// CurrentProfile returns the stored profile, or nil when there is none or it cannot be read.
func (s *SessionStore) CurrentProfile(ctx context.Context) domainauth.Profile {
	p, err := s.loadProfile(ctx)
	if err != nil {
		s.logProfileError(ctx, err)
		return nil
	}
	return p
}

func (s *SessionStore) loadProfile(ctx context.Context) (domainauth.Profile, error) {
	raw, ok, err := s.store.Get(ctx, KeyProfile)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	if !ok || raw == "" {
		return nil, errNoProfile
	}

	var p domainauth.Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("%w: %w", errProfileMalformed, err)
	}
	if p == nil {
		return nil, errNoProfile
	}
	return p, nil
}

func (s *SessionStore) logProfileError(ctx context.Context, err error) {
	if errors.Is(err, errNoProfile) {
		return
	}
	s.logger.WarnContext(ctx, "stored profile unavailable", "error", err)
}

// Token returns the stored bearer token.
func (s *SessionStore) Token(ctx context.Context) (string, bool) {
	token, ok, err := s.store.Get(ctx, KeyToken)
	if err != nil {
		s.logger.WarnContext(ctx, "stored token unavailable", "error", err)
		return "", false
	}
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// IsAuthenticated reports whether both a token and a readable profile are stored.
func (s *SessionStore) IsAuthenticated(ctx context.Context) bool {
	if _, ok := s.Token(ctx); !ok {
		return false
	}
	return s.CurrentProfile(ctx) != nil
}

// HasRole reports whether the stored profile carries exactly role.
func (s *SessionStore) HasRole(ctx context.Context, role domainauth.Role) bool {
	p := s.CurrentProfile(ctx)
	if p == nil || role == "" {
		return false
	}
	return p.Role() == role
}

// ClearSession removes both keys. Clearing an empty session is not an error.
func (s *SessionStore) ClearSession(ctx context.Context) error {
	var errs []error
	if err := s.store.Delete(ctx, KeyToken); err != nil {
		errs = append(errs, fmt.Errorf("delete token: %w", err))
	}
	if err := s.store.Delete(ctx, KeyProfile); err != nil {
		errs = append(errs, fmt.Errorf("delete profile: %w", err))
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	metrics.EmitSession(s.metrics, metrics.SessionCleared)
	s.logger.DebugContext(ctx, "session cleared")
	return nil
}

// MergeProfile overlays partial on the stored profile and writes the result.
// With no usable stored profile, partial is written on its own.
func (s *SessionStore) MergeProfile(ctx context.Context, partial domainauth.Profile) error {
	current, err := s.loadProfile(ctx)
	switch {
	case err == nil:
	case errors.Is(err, errNoProfile), errors.Is(err, errProfileMalformed):
		s.logProfileError(ctx, err)
		current = nil
	default:
		return err
	}

	raw, err := json.Marshal(current.Overlay(partial))
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := s.store.Set(ctx, KeyProfile, string(raw)); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	return nil
}

// RedirectTarget returns the dashboard for the stored role, or the home path when
// there is no profile or the role has no dashboard.
func (s *SessionStore) RedirectTarget(ctx context.Context) string {
	p := s.CurrentProfile(ctx)
	if p == nil {
		s.logger.WarnContext(ctx, "no profile stored, using home", "home", s.homePath)
		return s.homePath
	}

	role := p.Role()
	if s.roles != nil {
		if dest, ok := s.roles.Destination(role); ok {
			return dest
		}
	}

	s.logger.WarnContext(ctx, "no dashboard for role, using home", "role", string(role), "home", s.homePath)
	return s.homePath
}
