package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/arco-rh/arco-client/internal/adapters/memory"
	domainauth "github.com/arco-rh/arco-client/internal/domain/auth"
	portmocks "github.com/arco-rh/arco-client/internal/mocks"
	mocks "github.com/arco-rh/arco-client/internal/mocks/auth"
	"github.com/arco-rh/arco-client/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestGuard(t *testing.T, logs *bytes.Buffer) (*PageGuard, *SessionStore, *mocks.RecordingNavigator) {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(logs, nil))
	sessions := NewSessionStore(SessionStoreOptions{
		Store:    memory.NewStore(),
		Roles:    testRoutes,
		HomePath: "/index.html",
		Logger:   logger,
	})
	nav := &mocks.RecordingNavigator{}
	guard := NewPageGuard(PageGuardOptions{
		Sessions:  sessions,
		Navigator: nav,
		LoginPath: "/login.html",
		Logger:    logger,
	})
	return guard, sessions, nav
}

func TestNewPageGuard_RequiresDependencies(t *testing.T) {
	sessions := NewSessionStore(SessionStoreOptions{Store: memory.NewStore()})
	assert.Panics(t, func() { NewPageGuard(PageGuardOptions{Navigator: &mocks.RecordingNavigator{}}) })
	assert.Panics(t, func() { NewPageGuard(PageGuardOptions{Sessions: sessions}) })
}

func TestPageGuard_RequireAuthenticated(t *testing.T) {
	var logs bytes.Buffer
	guard, sessions, nav := newTestGuard(t, &logs)
	ctx := context.Background()

	d := guard.RequireAuthenticated(ctx)
	assert.Equal(t, Decision{Redirect: "/login.html", Reason: ReasonUnauthenticated}, d)
	assert.Equal(t, []string{"/login.html"}, nav.Destinations())

	require.NoError(t, sessions.SaveSession(ctx, "tok", testutil.NewProfile().Build()))
	assert.True(t, guard.RequireAuthenticated(ctx).Allowed)
	assert.Len(t, nav.Destinations(), 1, "allowed pages do not navigate")
}

func TestPageGuard_RequireRole(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		stored   domainauth.Profile
		required domainauth.Role
		want     Decision
	}{
		{
			name:     "anonymous goes to login",
			required: domainauth.RoleAdmin,
			want:     Decision{Redirect: "/login.html", Reason: ReasonUnauthenticated},
		},
		{
			name:     "matching role",
			stored:   testutil.NewProfile().WithRole(domainauth.RoleAdmin).Build(),
			required: domainauth.RoleAdmin,
			want:     Decision{Allowed: true},
		},
		{
			name:     "admin is not company",
			stored:   testutil.NewProfile().WithRole(domainauth.RoleAdmin).Build(),
			required: domainauth.RoleCompany,
			want:     Decision{Redirect: "/admin/dashboard.html", Reason: ReasonWrongRole},
		},
		{
			name:     "candidate sent to own dashboard",
			stored:   testutil.NewProfile().WithRole(domainauth.RoleCandidate).Build(),
			required: domainauth.RoleCompany,
			want:     Decision{Redirect: "/candidato/dashboard.html", Reason: ReasonWrongRole},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			guard, sessions, nav := newTestGuard(t, &logs)
			if tt.stored != nil {
				require.NoError(t, sessions.SaveSession(ctx, "tok", tt.stored))
			}

			got := guard.RequireRole(ctx, tt.required)
			assert.Equal(t, tt.want, got)
			if got.Allowed {
				assert.Empty(t, nav.Destinations())
				return
			}
			assert.Equal(t, []string{tt.want.Redirect}, nav.Destinations())
			if tt.want.Reason == ReasonWrongRole {
				assert.Contains(t, logs.String(), "page requires another role")
			}
		})
	}
}

func TestPageGuard_RedirectIfAuthenticated(t *testing.T) {
	var logs bytes.Buffer
	guard, sessions, nav := newTestGuard(t, &logs)
	ctx := context.Background()

	assert.True(t, guard.RedirectIfAuthenticated(ctx).Allowed)
	assert.Empty(t, nav.Destinations())

	require.NoError(t, sessions.SaveSession(ctx, "tok", testutil.NewProfile().WithRole(domainauth.RoleCompany).Build()))
	d := guard.RedirectIfAuthenticated(ctx)
	assert.False(t, d.Allowed)
	assert.Equal(t, "/empresa/dashboard.html", d.Redirect)
	assert.Equal(t, ReasonAlreadySignedIn, d.Reason)
	assert.Equal(t, []string{"/empresa/dashboard.html"}, nav.Destinations())
}

func TestPageGuard_NavigationFailureStillDenies(t *testing.T) {
	ctrl := gomock.NewController(t)
	nav := portmocks.NewMockNavigator(ctrl)
	nav.EXPECT().Navigate(gomock.Any(), "/login.html").Return(errors.New("closed")).Times(1)

	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))
	guard := NewPageGuard(PageGuardOptions{
		Sessions:  NewSessionStore(SessionStoreOptions{Store: memory.NewStore(), Logger: logger}),
		Navigator: nav,
		LoginPath: "/login.html",
		Logger:    logger,
	})

	d := guard.RequireAuthenticated(context.Background())
	assert.False(t, d.Allowed)
	assert.Equal(t, "/login.html", d.Redirect)
	assert.Contains(t, logs.String(), "guard redirect failed")
}
