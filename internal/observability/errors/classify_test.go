package errors

import (
	"context"
	goerrors "errors"
	"fmt"
	"io/fs"
	"testing"

	apperrors "github.com/arco-rh/arco-client/internal/errors"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "app error", err: apperrors.FromStatus(403, "", nil), want: "forbidden"},
		{name: "wrapped app error", err: fmt.Errorf("fetch: %w", apperrors.Network(goerrors.New("dial"), true)), want: "network_unreachable"},
		{name: "canceled", err: fmt.Errorf("get: %w", context.Canceled), want: "canceled"},
		{name: "deadline", err: context.DeadlineExceeded, want: "timeout"},
		{name: "innermost type", err: fmt.Errorf("open: %w", &fs.PathError{Op: "open", Path: "x", Err: fs.ErrNotExist}), want: "errors_errorstring"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}
