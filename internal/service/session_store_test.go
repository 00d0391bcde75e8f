package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/arco-rh/arco-client/internal/adapters/authroles"
	"github.com/arco-rh/arco-client/internal/adapters/memory"
	domainauth "github.com/arco-rh/arco-client/internal/domain/auth"
	apperrors "github.com/arco-rh/arco-client/internal/errors"
	"github.com/arco-rh/arco-client/internal/mocks"
	"github.com/arco-rh/arco-client/internal/observability/statsd"
	"github.com/arco-rh/arco-client/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var testRoutes = authroles.StaticRouter{
	AdminPath:     "/admin/dashboard.html",
	CompanyPath:   "/empresa/dashboard.html",
	CandidatePath: "/candidato/dashboard.html",
}

func newTestSessionStore(t *testing.T) (*SessionStore, *memory.Store) {
	t.Helper()
	kv := memory.NewStore()
	return NewSessionStore(SessionStoreOptions{
		Store:    kv,
		Roles:    testRoutes,
		HomePath: "/index.html",
	}), kv
}

func TestNewSessionStore_RequiresStore(t *testing.T) {
	assert.Panics(t, func() { NewSessionStore(SessionStoreOptions{}) })
}

func TestSessionStore_RoundTrip(t *testing.T) {
	s, kv := newTestSessionStore(t)
	ctx := context.Background()

	profile := testutil.NewProfile().
		WithRole(domainauth.RoleCompany).
		With("activo", true).
		With("tags", []any{"a", "b"}).
		With("empresa", map[string]any{"nit": "900"}).
		Build()

	require.NoError(t, s.SaveSession(ctx, "tok123", profile))

	assert.Equal(t, profile, s.CurrentProfile(ctx))
	token, ok := s.Token(ctx)
	assert.True(t, ok)
	assert.Equal(t, "tok123", token)
	assert.True(t, s.IsAuthenticated(ctx))
	assert.Equal(t, 2, kv.Len())
}

func TestSessionStore_SaveOverwrites(t *testing.T) {
	s, _ := newTestSessionStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveSession(ctx, "old", testutil.NewProfile().WithName("Old").Build()))
	require.NoError(t, s.SaveSession(ctx, "new", testutil.NewProfile().WithName("New").Build()))

	token, _ := s.Token(ctx)
	assert.Equal(t, "new", token)
	assert.Equal(t, "New", s.CurrentProfile(ctx).DisplayName())
}

func TestSessionStore_SaveRejectsIncompleteSession(t *testing.T) {
	s, kv := newTestSessionStore(t)
	ctx := context.Background()

	err := s.SaveSession(ctx, "", testutil.NewProfile().Build())
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, KeyToken, apperrors.GetField(err))

	err = s.SaveSession(ctx, "tok", nil)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, 0, kv.Len())
}

func TestSessionStore_MergeIsOverlay(t *testing.T) {
	s, _ := newTestSessionStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveSession(ctx, "tok", domainauth.Profile{"a": float64(1), "b": float64(2)}))
	require.NoError(t, s.MergeProfile(ctx, domainauth.Profile{"b": float64(3), "c": float64(4)}))

	assert.Equal(t, domainauth.Profile{"a": float64(1), "b": float64(3), "c": float64(4)}, s.CurrentProfile(ctx))
	token, ok := s.Token(ctx)
	assert.True(t, ok, "merge must not touch the token")
	assert.Equal(t, "tok", token)
}

func TestSessionStore_MergeWithoutProfileWritesPartial(t *testing.T) {
	s, kv := newTestSessionStore(t)
	ctx := context.Background()

	require.NoError(t, s.MergeProfile(ctx, domainauth.Profile{"nombre": "Ana"}))
	assert.Equal(t, domainauth.Profile{"nombre": "Ana"}, s.CurrentProfile(ctx))

	require.NoError(t, kv.Set(ctx, KeyProfile, "{broken"))
	require.NoError(t, s.MergeProfile(ctx, domainauth.Profile{"nombre": "Luz"}))
	assert.Equal(t, domainauth.Profile{"nombre": "Luz"}, s.CurrentProfile(ctx))
}

func TestSessionStore_ClearIsIdempotent(t *testing.T) {
	s, kv := newTestSessionStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveSession(ctx, "tok", testutil.NewProfile().Build()))

	require.NoError(t, s.ClearSession(ctx))
	assert.False(t, s.IsAuthenticated(ctx))
	require.NoError(t, s.ClearSession(ctx))
	assert.False(t, s.IsAuthenticated(ctx))
	assert.Equal(t, 0, kv.Len())
}

func TestSessionStore_AuthenticatedPredicateMatchesReads(t *testing.T) {
	s, kv := newTestSessionStore(t)
	ctx := context.Background()

	consistent := func(step string) {
		t.Helper()
		_, hasToken := s.Token(ctx)
		hasProfile := s.CurrentProfile(ctx) != nil
		assert.Equal(t, hasToken && hasProfile, s.IsAuthenticated(ctx), step)
	}

	steps := []struct {
		name string
		op   func()
	}{
		{"initial", func() {}},
		{"save", func() { require.NoError(t, s.SaveSession(ctx, "a", testutil.NewProfile().Build())) }},
		{"clear", func() { require.NoError(t, s.ClearSession(ctx)) }},
		{"save again", func() { require.NoError(t, s.SaveSession(ctx, "b", testutil.NewProfile().Build())) }},
		{"token removed externally", func() { require.NoError(t, kv.Delete(ctx, KeyToken)) }},
		{"save after drift", func() { require.NoError(t, s.SaveSession(ctx, "c", testutil.NewProfile().Build())) }},
		{"profile corrupted externally", func() { require.NoError(t, kv.Set(ctx, KeyProfile, "not json")) }},
		{"clear twice", func() {
			require.NoError(t, s.ClearSession(ctx))
			require.NoError(t, s.ClearSession(ctx))
		}},
	}

	for _, step := range steps {
		step.op()
		consistent(step.name)
	}
}

func TestSessionStore_HasRoleIsExact(t *testing.T) {
	s, _ := newTestSessionStore(t)
	ctx := context.Background()

	assert.False(t, s.HasRole(ctx, domainauth.RoleCompany), "no session")

	require.NoError(t, s.SaveSession(ctx, "tok", testutil.NewProfile().WithRole(domainauth.RoleAdmin).Build()))
	assert.False(t, s.HasRole(ctx, domainauth.RoleCompany), "admin is not company")
	assert.True(t, s.HasRole(ctx, domainauth.RoleAdmin))
	assert.False(t, s.HasRole(ctx, "Administrador"))
	assert.False(t, s.HasRole(ctx, ""))

	require.NoError(t, s.SaveSession(ctx, "tok", testutil.NewProfile().WithRole(domainauth.RoleCompany).Build()))
	assert.True(t, s.HasRole(ctx, domainauth.RoleCompany))
}

func TestSessionStore_CurrentProfileSwallowsMalformedJSON(t *testing.T) {
	var logs bytes.Buffer
	kv := memory.NewStore()
	s := NewSessionStore(SessionStoreOptions{
		Store:  kv,
		Logger: slog.New(slog.NewJSONHandler(&logs, nil)),
	})
	ctx := context.Background()

	for _, raw := range []string{"{not json", `"text"`, `[1,2]`} {
		require.NoError(t, kv.Set(ctx, KeyProfile, raw))
		assert.Nil(t, s.CurrentProfile(ctx), raw)
	}
	assert.Contains(t, logs.String(), "stored profile unavailable")

	logs.Reset()
	require.NoError(t, kv.Set(ctx, KeyProfile, "null"))
	assert.Nil(t, s.CurrentProfile(ctx))
	assert.Empty(t, logs.String(), "a missing profile is not worth a warning")
}

func TestSessionStore_RedirectTarget(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		profile domainauth.Profile
		want    string
	}{
		{name: "admin", profile: testutil.NewProfile().WithRole(domainauth.RoleAdmin).Build(), want: "/admin/dashboard.html"},
		{name: "company", profile: testutil.NewProfile().WithRole(domainauth.RoleCompany).Build(), want: "/empresa/dashboard.html"},
		{name: "candidate", profile: testutil.NewProfile().WithRole(domainauth.RoleCandidate).Build(), want: "/candidato/dashboard.html"},
		{name: "english role key", profile: domainauth.Profile{"role": "candidato"}, want: "/candidato/dashboard.html"},
		{name: "unknown role", profile: testutil.NewProfile().WithRole("reclutador").Build(), want: "/index.html"},
		{name: "missing role", profile: testutil.NewProfile().WithoutRole().Build(), want: "/index.html"},
		{name: "no session", profile: nil, want: "/index.html"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestSessionStore(t)
			if tt.profile != nil {
				require.NoError(t, s.SaveSession(ctx, "tok", tt.profile))
			}
			assert.Equal(t, tt.want, s.RedirectTarget(ctx))
		})
	}
}

func TestSessionStore_RedirectTargetLogsUnknownRole(t *testing.T) {
	var logs bytes.Buffer
	s := NewSessionStore(SessionStoreOptions{
		Store:    memory.NewStore(),
		Roles:    testRoutes,
		HomePath: "/",
		Logger:   slog.New(slog.NewJSONHandler(&logs, nil)),
	})
	ctx := context.Background()

	require.NoError(t, s.SaveSession(ctx, "tok", testutil.NewProfile().WithRole("guest").Build()))
	assert.Equal(t, "/", s.RedirectTarget(ctx))
	assert.Contains(t, logs.String(), `"role":"guest"`)
	assert.Contains(t, logs.String(), `"level":"WARN"`)
}

func TestSessionStore_RedirectTargetLogsMissingProfile(t *testing.T) {
	var logs bytes.Buffer
	s := NewSessionStore(SessionStoreOptions{
		Store:    memory.NewStore(),
		Roles:    testRoutes,
		HomePath: "/",
		Logger:   slog.New(slog.NewJSONHandler(&logs, nil)),
	})

	assert.Equal(t, "/", s.RedirectTarget(context.Background()))
	assert.Contains(t, logs.String(), "no profile stored")
	assert.Contains(t, logs.String(), `"level":"WARN"`)
}

func TestSessionStore_SaveRollsBackTokenWhenProfileWriteFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	kv := mocks.NewMockKeyValueStore(ctrl)
	s := NewSessionStore(SessionStoreOptions{Store: kv})
	ctx := context.Background()
	boom := errors.New("quota exceeded")

	gomock.InOrder(
		kv.EXPECT().Get(ctx, KeyToken).Return("previous", true, nil),
		kv.EXPECT().Set(ctx, KeyToken, "fresh").Return(nil),
		kv.EXPECT().Set(ctx, KeyProfile, gomock.Any()).Return(boom),
		kv.EXPECT().Set(ctx, KeyToken, "previous").Return(nil),
	)

	err := s.SaveSession(ctx, "fresh", testutil.NewProfile().Build())
	require.ErrorIs(t, err, boom)
}

func TestSessionStore_SaveRemovesTokenWhenNothingToRestore(t *testing.T) {
	ctrl := gomock.NewController(t)
	kv := mocks.NewMockKeyValueStore(ctrl)
	s := NewSessionStore(SessionStoreOptions{Store: kv})
	ctx := context.Background()
	boom := errors.New("disk full")
	rbErr := errors.New("still full")

	gomock.InOrder(
		kv.EXPECT().Get(ctx, KeyToken).Return("", false, nil),
		kv.EXPECT().Set(ctx, KeyToken, "fresh").Return(nil),
		kv.EXPECT().Set(ctx, KeyProfile, gomock.Any()).Return(boom),
		kv.EXPECT().Delete(ctx, KeyToken).Return(rbErr),
	)

	err := s.SaveSession(ctx, "fresh", testutil.NewProfile().Build())
	require.ErrorIs(t, err, boom)
	require.ErrorIs(t, err, rbErr)
}

func TestSessionStore_StorageUnavailableReadsAsAnonymous(t *testing.T) {
	ctrl := gomock.NewController(t)
	kv := mocks.NewMockKeyValueStore(ctrl)
	s := NewSessionStore(SessionStoreOptions{Store: kv, HomePath: "/"})
	ctx := context.Background()
	unavailable := errors.New("storage unavailable")

	kv.EXPECT().Get(ctx, gomock.Any()).Return("", false, unavailable).AnyTimes()

	assert.False(t, s.IsAuthenticated(ctx))
	assert.Nil(t, s.CurrentProfile(ctx))
	assert.False(t, s.HasRole(ctx, domainauth.RoleAdmin))
	assert.Equal(t, "/", s.RedirectTarget(ctx))

	err := s.MergeProfile(ctx, domainauth.Profile{"x": "y"})
	require.ErrorIs(t, err, unavailable)
}

func TestSessionStore_ClearJoinsDeleteErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	kv := mocks.NewMockKeyValueStore(ctrl)
	s := NewSessionStore(SessionStoreOptions{Store: kv})
	ctx := context.Background()
	errTok := errors.New("tok")

	kv.EXPECT().Delete(ctx, KeyToken).Return(errTok)
	kv.EXPECT().Delete(ctx, KeyProfile).Return(nil)

	err := s.ClearSession(ctx)
	require.ErrorIs(t, err, errTok)
}

func TestSessionStore_EmitsLifecycleMetrics(t *testing.T) {
	var rec statsd.Recorder
	s := NewSessionStore(SessionStoreOptions{Store: memory.NewStore(), Metrics: &rec})
	ctx := context.Background()

	require.NoError(t, s.SaveSession(ctx, "tok", testutil.NewProfile().Build()))
	require.NoError(t, s.ClearSession(ctx))

	events := rec.Named("session.event")
	require.Len(t, events, 2)
	assert.Equal(t, "saved", events[0].Tags["event"])
	assert.Equal(t, "cleared", events[1].Tags["event"])
}
