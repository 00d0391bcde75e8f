package gateway

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"syscall"

	"github.com/arco-rh/arco-client/internal/domain/model"
	apperrors "github.com/arco-rh/arco-client/internal/errors"
)

// classify turns a status and body into the caller-visible result.
//
// A 2xx answer returns its envelope untouched, including success:false. An empty
// 2xx body reads as a bare success. A 2xx body that is not an envelope is
// ResponseUnparseable. Any other status becomes the matching AppError, using the
// server message when the body carried one and MsgUnparseable when it was not JSON.
func classify(status int, body []byte) (*model.Envelope, error) {
	ok := status >= http.StatusOK && status < http.StatusMultipleChoices
	empty := len(bytes.TrimSpace(body)) == 0

	if ok {
		if empty {
			return &model.Envelope{Success: true}, nil
		}
		env, err := model.ParseEnvelope(body)
		if err != nil {
			return nil, apperrors.Unparseable(status, err)
		}
		return env, nil
	}

	if empty {
		return nil, apperrors.FromStatus(status, "", nil)
	}
	env, err := model.ParseEnvelope(body)
	if err != nil {
		return nil, statusUnparseable(status, err)
	}
	return nil, apperrors.FromStatus(status, env.Message, env)
}

// unreadable classifies a response whose body could not be read in full.
// The status still decides the code, so a truncated 401 is Unauthorized.
func unreadable(status int, cause error) error {
	if status >= http.StatusOK && status < http.StatusMultipleChoices {
		return apperrors.Unparseable(status, cause)
	}
	return statusUnparseable(status, cause)
}

// statusUnparseable keeps the status-derived code for a non-2xx body that is not
// an envelope, and reports it with the synthesized envelope's message.
func statusUnparseable(status int, cause error) *apperrors.AppError {
	env := &model.Envelope{Success: false, Message: apperrors.MsgUnparseable}
	appErr := apperrors.FromStatus(status, env.Message, env)
	appErr.Cause = cause
	return appErr
}

// transportError maps a failure that produced no usable response.
// Caller cancellation is returned as is. Connectivity failures and timeouts
// become NetworkUnreachable; anything else is returned unchanged.
func (g *Gateway) transportError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return err
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apperrors.Network(err, true)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Network(err, true)
	}
	if isConnectivity(err) {
		return apperrors.Network(err, false)
	}
	return err
}

func isConnectivity(err error) bool {
	var (
		opErr  *net.OpError
		dnsErr *net.DNSError
	)
	switch {
	case errors.As(err, &opErr), errors.As(err, &dnsErr):
		return true
	case errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, syscall.ECONNRESET):
		return true
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return true
	}
	return false
}
