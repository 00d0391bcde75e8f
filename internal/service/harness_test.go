package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/arco-rh/arco-client/internal/adapters/memory"
	"github.com/arco-rh/arco-client/internal/gateway"
	mocks "github.com/arco-rh/arco-client/internal/mocks/auth"
	"github.com/stretchr/testify/require"
)

// apiHarness wires a real gateway and session store against a test server.
type apiHarness struct {
	api       *gateway.Gateway
	sessions  *SessionStore
	kv        *memory.Store
	journal   *mocks.Journal
	navigator *mocks.RecordingNavigator
	scheduler *mocks.ManualScheduler
}

func newAPIHarness(t *testing.T, handler http.Handler) *apiHarness {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	journal := &mocks.Journal{}
	kv := memory.NewStore()
	sessions := NewSessionStore(SessionStoreOptions{
		Store:    &mocks.JournalStore{KeyValueStore: kv, Journal: journal},
		Roles:    testRoutes,
		HomePath: "/index.html",
	})
	nav := &mocks.RecordingNavigator{Journal: journal}
	sched := &mocks.ManualScheduler{Journal: journal}

	api, err := gateway.New(gateway.Options{
		Config: gateway.Config{
			BaseURL:       srv.URL + "/api",
			Timeout:       2 * time.Second,
			RedirectDelay: time.Second,
			LoginPath:     "/login.html",
		},
		Sessions:  sessions,
		Navigator: nav,
		Scheduler: sched,
	})
	require.NoError(t, err)

	return &apiHarness{
		api:       api,
		sessions:  sessions,
		kv:        kv,
		journal:   journal,
		navigator: nav,
		scheduler: sched,
	}
}

func respond(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}
