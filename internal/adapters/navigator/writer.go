// Package navigator provides Navigator adapters for non-browser hosts.
package navigator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/arco-rh/arco-client/internal/ports"
)

var _ ports.Navigator = (*Writer)(nil)

// Writer "navigates" by announcing the destination on an output stream,
// which is how a terminal client points the user at the next step.
type Writer struct {
	out    io.Writer
	logger *slog.Logger

	mu   sync.Mutex
	last string
}

// NewWriter creates a navigator writing to out.
func NewWriter(out io.Writer, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{out: out, logger: logger}
}

func (w *Writer) Navigate(ctx context.Context, destination string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.last = destination
	w.logger.InfoContext(ctx, "navigate", "destination", destination)
	if _, err := fmt.Fprintf(w.out, "-> %s\n", destination); err != nil {
		return fmt.Errorf("write navigation: %w", err)
	}
	return nil
}

// Last returns the most recent destination, or "" if none.
func (w *Writer) Last() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}
