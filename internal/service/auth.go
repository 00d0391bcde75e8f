package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	domainauth "github.com/arco-rh/arco-client/internal/domain/auth"
	"github.com/arco-rh/arco-client/internal/domain/model"
	apperrors "github.com/arco-rh/arco-client/internal/errors"
	"github.com/arco-rh/arco-client/internal/gateway"
	"golang.org/x/sync/singleflight"
)

// API endpoints used by AuthService.
const (
	PathLogin                = "/auth/login"
	PathRegister             = "/auth/registro"
	PathProfile              = "/auth/perfil"
	PathChangePassword       = "/auth/cambiar-contraseña"
	PathRequestPasswordReset = "/auth/solicitar-recuperacion"
	PathResetPassword        = "/auth/restablecer-contraseña"
)

var errIncompleteGrant = errors.New("response has no token or usuario")

// APIClient is the part of the gateway the services call.
type APIClient interface {
	Get(ctx context.Context, path string, params gateway.Params, opts ...gateway.CallOption) (*model.Envelope, error)
	Post(ctx context.Context, path string, body any, opts ...gateway.CallOption) (*model.Envelope, error)
	Put(ctx context.Context, path string, body any, opts ...gateway.CallOption) (*model.Envelope, error)
	Patch(ctx context.Context, path string, body any, opts ...gateway.CallOption) (*model.Envelope, error)
	Delete(ctx context.Context, path string, opts ...gateway.CallOption) (*model.Envelope, error)
}

var _ APIClient = (*gateway.Gateway)(nil)

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	API      APIClient     // Required: request gateway
	Sessions *SessionStore // Required: session persistence
	Logger   *slog.Logger  // Optional: structured logger
}

// AuthService drives the account endpoints and keeps the stored session in step with them.
type AuthService struct {
	api      APIClient
	sessions *SessionStore
	logger   *slog.Logger
	profile  singleflight.Group
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	if opts.API == nil {
		//nolint:forbidigo // Service construction must fail fast during wiring when dependencies are missing
		panic("APIClient is required")
	}
	if opts.Sessions == nil {
		//nolint:forbidigo // Service construction must fail fast during wiring when dependencies are missing
		panic("SessionStore is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &AuthService{
		api:      opts.API,
		sessions: opts.Sessions,
		logger:   logger.With("component", "auth"),
	}
}

// LoginResult describes a session that was just opened.
type LoginResult struct {
	Profile     domainauth.Profile
	Destination string // Dashboard for the profile's role
	Message     string // Server message, if any
}

// Login posts credentials and stores the returned session.
func (s *AuthService) Login(ctx context.Context, creds domainauth.Credentials) (*LoginResult, error) {
	if err := validatePayload(creds); err != nil {
		return nil, err
	}

	env, err := s.api.Post(ctx, PathLogin, creds, gateway.Public())
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return s.openSession(ctx, env, "login failed")
}

// Register creates an account. When the server answers with a session it is stored
// like a login; otherwise the result has no profile and only carries the message.
func (s *AuthService) Register(ctx context.Context, reg domainauth.Registration) (*LoginResult, error) {
	if err := validatePayload(reg); err != nil {
		return nil, err
	}
	if reg.Role != domainauth.RoleCompany {
		reg.Company = nil
	}

	env, err := s.api.Post(ctx, PathRegister, reg, gateway.Public())
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if !env.Success {
		return nil, apperrors.Rejected(env, "registration failed")
	}
	if !env.HasData() {
		return &LoginResult{Message: env.Message}, nil
	}
	return s.openSession(ctx, env, "registration failed")
}

func (s *AuthService) openSession(ctx context.Context, env *model.Envelope, fallback string) (*LoginResult, error) {
	if !env.Success {
		return nil, apperrors.Rejected(env, fallback)
	}

	var grant domainauth.SessionGrant
	if err := env.Decode(&grant); err != nil {
		return nil, apperrors.Unparseable(http.StatusOK, err)
	}
	if !grant.Complete() {
		return nil, apperrors.Unparseable(http.StatusOK, errIncompleteGrant)
	}

	if err := s.sessions.SaveSession(ctx, grant.Token, grant.Profile); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	s.logger.InfoContext(ctx, "session opened",
		"user_id", grant.Profile.Identifier(),
		"role", string(grant.Profile.Role()),
	)
	return &LoginResult{
		Profile:     grant.Profile.Clone(),
		Destination: s.sessions.RedirectTarget(ctx),
		Message:     env.Message,
	}, nil
}

// FetchProfile refreshes the stored profile from the server and returns the merged result.
// Concurrent callers share one request, which runs detached from any single
// caller's cancellation; each caller still stops waiting when its own ctx ends.
func (s *AuthService) FetchProfile(ctx context.Context) (domainauth.Profile, error) {
	work := context.WithoutCancel(ctx)
	ch := s.profile.DoChan(PathProfile, func() (any, error) {
		env, err := s.api.Get(work, PathProfile, nil)
		if err != nil {
			return nil, fmt.Errorf("fetch profile: %w", err)
		}
		if !env.Success {
			return nil, apperrors.Rejected(env, "could not load profile")
		}
		fresh, err := profileFromEnvelope(env)
		if err != nil {
			return nil, err
		}
		if err := s.sessions.MergeProfile(work, fresh); err != nil {
			return nil, fmt.Errorf("merge profile: %w", err)
		}
		return s.sessions.CurrentProfile(work), nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	if res.Shared {
		s.logger.DebugContext(ctx, "profile fetch shared with concurrent caller")
	}
	p, _ := res.Val.(domainauth.Profile)
	return p.Clone(), nil
}

// UpdateProfile sends changes and merges what the server confirms into the stored profile.
// When the server echoes no profile, the submitted changes are merged instead.
func (s *AuthService) UpdateProfile(ctx context.Context, changes domainauth.Profile) (domainauth.Profile, error) {
	if len(changes) == 0 {
		return nil, apperrors.Validation("no profile changes given")
	}

	env, err := s.api.Put(ctx, PathProfile, changes)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	if !env.Success {
		return nil, apperrors.Rejected(env, "could not update profile")
	}

	confirmed := changes
	if env.HasData() {
		if confirmed, err = profileFromEnvelope(env); err != nil {
			return nil, err
		}
	}
	if err := s.sessions.MergeProfile(ctx, confirmed); err != nil {
		return nil, fmt.Errorf("merge profile: %w", err)
	}
	return s.sessions.CurrentProfile(ctx), nil
}

// profileFromEnvelope accepts either the profile itself or {"usuario": profile} as data.
func profileFromEnvelope(env *model.Envelope) (domainauth.Profile, error) {
	var wrapped struct {
		User json.RawMessage `json:"usuario"`
	}
	raw := env.Data
	if err := json.Unmarshal(raw, &wrapped); err == nil && len(wrapped.User) > 0 && string(wrapped.User) != "null" {
		raw = wrapped.User
	}

	var p domainauth.Profile
	if err := json.Unmarshal(raw, &p); err != nil || p == nil {
		if err == nil {
			err = model.ErrNoData
		}
		return nil, apperrors.Unparseable(http.StatusOK, err)
	}
	return p, nil
}

// ChangePassword updates the password of the signed-in user.
func (s *AuthService) ChangePassword(ctx context.Context, change domainauth.PasswordChange) (string, error) {
	if err := validatePayload(change); err != nil {
		return "", err
	}
	return s.send(ctx, s.api.Put, PathChangePassword, change, "could not change password")
}

// RequestPasswordReset asks the server to email a reset link.
func (s *AuthService) RequestPasswordReset(ctx context.Context, req domainauth.PasswordResetRequest) (string, error) {
	if err := validatePayload(req); err != nil {
		return "", err
	}
	return s.send(ctx, s.api.Post, PathRequestPasswordReset, req, "could not request password reset", gateway.Public())
}

// ResetPassword completes a reset with the emailed token.
func (s *AuthService) ResetPassword(ctx context.Context, reset domainauth.PasswordReset) (string, error) {
	if err := validatePayload(reset); err != nil {
		return "", err
	}
	return s.send(ctx, s.api.Post, PathResetPassword, reset, "could not reset password", gateway.Public())
}

type sendFunc func(ctx context.Context, path string, body any, opts ...gateway.CallOption) (*model.Envelope, error)

// send issues a body-carrying call whose only useful output is the server message.
func (s *AuthService) send(
	ctx context.Context,
	verb sendFunc,
	path string,
	body any,
	fallback string,
	opts ...gateway.CallOption,
) (string, error) {
	env, err := verb(ctx, path, body, opts...)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	if !env.Success {
		return "", apperrors.Rejected(env, fallback)
	}
	return env.Message, nil
}

// Logout drops the stored session. The server keeps no session state to revoke.
func (s *AuthService) Logout(ctx context.Context) error {
	if err := s.sessions.ClearSession(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	s.logger.InfoContext(ctx, "session closed")
	return nil
}
