// Package auth contains simple hand-written test doubles for the session ports.
// These are lightweight and suitable for unit tests without codegen.
package auth

import (
	"context"
	"sync"
	"time"

	"github.com/arco-rh/arco-client/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.Navigator     = (*RecordingNavigator)(nil)
	_ ports.Scheduler     = (*ManualScheduler)(nil)
	_ ports.KeyValueStore = (*JournalStore)(nil)
)

// Journal records side effects from several doubles in the order they happened.
type Journal struct {
	mu      sync.Mutex
	entries []string
}

// Add appends an entry.
func (j *Journal) Add(entry string) {
	if j == nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, entry)
}

// Entries returns a copy of the recorded entries.
func (j *Journal) Entries() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

// RecordingNavigator remembers every destination it was asked to navigate to.
type RecordingNavigator struct {
	Journal *Journal
	Err     error

	mu           sync.Mutex
	destinations []string
}

func (n *RecordingNavigator) Navigate(_ context.Context, destination string) error {
	n.mu.Lock()
	n.destinations = append(n.destinations, destination)
	n.mu.Unlock()
	n.Journal.Add("navigate:" + destination)
	return n.Err
}

// Destinations returns the recorded destinations in call order.
func (n *RecordingNavigator) Destinations() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.destinations...)
}

// ManualScheduler queues tasks until Flush is called, so tests never sleep.
type ManualScheduler struct {
	Journal *Journal

	mu      sync.Mutex
	pending []*ManualTask
}

// ManualTask is a task owned by ManualScheduler.
type ManualTask struct {
	Delay time.Duration

	fn   func()
	done chan struct{}
	once sync.Once
	ran  bool
}

func (s *ManualScheduler) Schedule(delay time.Duration, fn func()) ports.Task {
	t := &ManualTask{Delay: delay, fn: fn, done: make(chan struct{})}
	s.mu.Lock()
	s.pending = append(s.pending, t)
	s.mu.Unlock()
	s.Journal.Add("schedule")
	return t
}

// Pending returns the number of tasks that have neither run nor been cancelled.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.pending {
		if !t.finished() {
			n++
		}
	}
	return n
}

// Tasks returns every task scheduled so far.
func (s *ManualScheduler) Tasks() []*ManualTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*ManualTask(nil), s.pending...)
}

// Flush runs every pending task in scheduling order and returns how many ran.
func (s *ManualScheduler) Flush() int {
	s.mu.Lock()
	tasks := append([]*ManualTask(nil), s.pending...)
	s.mu.Unlock()

	ran := 0
	for _, t := range tasks {
		if t.run() {
			ran++
		}
	}
	return ran
}

func (t *ManualTask) run() bool {
	ran := false
	t.once.Do(func() {
		t.fn()
		t.ran = true
		ran = true
		close(t.done)
	})
	return ran
}

func (t *ManualTask) Cancel() bool {
	cancelled := false
	t.once.Do(func() {
		cancelled = true
		close(t.done)
	})
	return cancelled
}

func (t *ManualTask) Done() <-chan struct{} { return t.done }

// Ran reports whether the task function was executed.
func (t *ManualTask) Ran() bool {
	select {
	case <-t.done:
		return t.ran
	default:
		return false
	}
}

func (t *ManualTask) finished() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// JournalStore wraps a store and journals every write.
type JournalStore struct {
	ports.KeyValueStore
	Journal *Journal
}

func (s *JournalStore) Set(ctx context.Context, key, value string) error {
	s.Journal.Add("set:" + key)
	return s.KeyValueStore.Set(ctx, key, value)
}

func (s *JournalStore) Delete(ctx context.Context, key string) error {
	s.Journal.Add("delete:" + key)
	return s.KeyValueStore.Delete(ctx, key)
}
