package metrics

import (
	"strconv"
	"time"

	obserrors "github.com/arco-rh/arco-client/internal/observability/errors"
	"github.com/arco-rh/arco-client/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Session event names.
const (
	SessionSaved             = "saved"
	SessionCleared           = "cleared"
	SessionRedirectScheduled = "redirect_scheduled"
	SessionRedirected        = "redirected"
)

// RequestMetric captures one gateway round trip.
type RequestMetric struct {
	Method   string
	Status   int
	Result   string
	Duration time.Duration
	Err      error
}

// EmitRequest emits the request counter and, when known, its duration.
func EmitRequest(sink statsd.Sink, in RequestMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"method": in.Method,
		"result": in.Result,
	}
	if in.Status > 0 {
		tags["status"] = strconv.Itoa(in.Status)
	}
	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("http.request", 1, tags)

	if in.Duration > 0 {
		sink.Timing("http.request.duration", in.Duration, CloneTags(tags))
	}
}

// EmitSession counts a session lifecycle event.
func EmitSession(sink statsd.Sink, event string) {
	if sink == nil {
		return
	}
	sink.Count("session.event", 1, map[string]string{"event": event})
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
