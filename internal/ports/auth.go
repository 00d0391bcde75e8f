package ports

// Package ports defines interfaces (hexagonal ports) for the client session and request pipeline.
// Implementations live in internal/adapters; orchestration in internal/service and internal/gateway.

import (
	"context"
	"io"
	"time"

	domainauth "github.com/arco-rh/arco-client/internal/domain/auth"
)

// KeyValueStore is durable string storage addressed by key, the process-side
// equivalent of browser local storage.
type KeyValueStore interface {
	// Get returns the stored value and true, or "" and false when the key is absent.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// Navigator moves the user to another destination (page path or URL).
type Navigator interface {
	Navigate(ctx context.Context, destination string) error
}

// FileSink receives downloaded payloads and returns where they were stored.
type FileSink interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}

// RoleRouter maps a role tag to its dashboard destination.
type RoleRouter interface {
	Destination(role domainauth.Role) (string, bool)
}

// Task is a scheduled unit of work.
type Task interface {
	// Cancel stops the task if it has not run yet and reports whether it did so.
	Cancel() bool
	// Done is closed after the task ran or was cancelled.
	Done() <-chan struct{}
}

// Scheduler runs fn once after delay.
type Scheduler interface {
	Schedule(delay time.Duration, fn func()) Task
}

// SessionGate is the part of the session the request pipeline depends on:
// reading the bearer token and dropping a session the server rejected.
type SessionGate interface {
	Token(ctx context.Context) (string, bool)
	ClearSession(ctx context.Context) error
}
