package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/arco-rh/arco-client/internal/domain/model"
)

// ErrorCode represents a category of client error.
type ErrorCode string

const (
	// ErrCodeUnauthorized indicates the server rejected the session (HTTP 401).
	ErrCodeUnauthorized ErrorCode = "unauthorized"
	// ErrCodeForbidden indicates the session lacks permission (HTTP 403).
	ErrCodeForbidden ErrorCode = "forbidden"
	// ErrCodeNotFound indicates the resource does not exist (HTTP 404).
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeServer indicates an internal server error (HTTP 500).
	ErrCodeServer ErrorCode = "server_error"
	// ErrCodeHTTP indicates any other non-success HTTP status.
	ErrCodeHTTP ErrorCode = "http_error"
	// ErrCodeNetwork indicates the server could not be reached or did not answer in time.
	ErrCodeNetwork ErrorCode = "network_unreachable"
	// ErrCodeUnparseable indicates a successful status whose body was not a JSON envelope.
	ErrCodeUnparseable ErrorCode = "response_unparseable"
	// ErrCodeValidation indicates invalid input or a domain-level rejection reported by the server.
	ErrCodeValidation ErrorCode = "validation"
)

// Default human-readable messages used when the server does not provide one.
const (
	MsgUnauthorized = "unauthorized"
	MsgForbidden    = "insufficient permissions"
	MsgNotFound     = "resource not found"
	MsgServer       = "internal server error"
	MsgHTTP         = "the request could not be completed"
	MsgNetwork      = "could not reach the server, check your connection"
	MsgTimeout      = "the server did not respond in time"
	MsgUnparseable  = "could not process server response"
	MsgDownload     = "the file could not be downloaded"
)

// AppError represents a classified client error with a code, a human-readable message,
// and optional HTTP context. It supports errors.Is and errors.As through Unwrap.
type AppError struct {
	// Code categorizes the error type
	Code ErrorCode
	// Message is safe to show to the user as-is
	Message string
	// Status is the HTTP status that produced the error, 0 when no response was received
	Status int
	// Envelope is the parsed (or synthesized) response body, when there was one
	Envelope *model.Envelope
	// Cause is the underlying error (optional)
	Cause error
	// Field is the specific input field that failed validation (optional)
	Field string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// FromStatus classifies a non-success HTTP status. serverMessage wins over the
// status default when it is not empty.
func FromStatus(status int, serverMessage string, env *model.Envelope) *AppError {
	code, fallback := statusCode(status)
	msg := serverMessage
	if msg == "" {
		msg = fallback
	}
	return &AppError{
		Code:     code,
		Message:  msg,
		Status:   status,
		Envelope: env,
	}
}

func statusCode(status int) (ErrorCode, string) {
	switch status {
	case http.StatusUnauthorized:
		return ErrCodeUnauthorized, MsgUnauthorized
	case http.StatusForbidden:
		return ErrCodeForbidden, MsgForbidden
	case http.StatusNotFound:
		return ErrCodeNotFound, MsgNotFound
	case http.StatusInternalServerError:
		return ErrCodeServer, MsgServer
	default:
		return ErrCodeHTTP, MsgHTTP
	}
}

// Network creates a NetworkUnreachable error wrapping the transport failure.
func Network(cause error, timeout bool) *AppError {
	msg := MsgNetwork
	if timeout {
		msg = MsgTimeout
	}
	return &AppError{
		Code:    ErrCodeNetwork,
		Message: msg,
		Cause:   cause,
	}
}

// Unparseable creates a ResponseUnparseable error carrying the synthesized envelope.
func Unparseable(status int, cause error) *AppError {
	return &AppError{
		Code:     ErrCodeUnparseable,
		Message:  MsgUnparseable,
		Status:   status,
		Envelope: &model.Envelope{Success: false, Message: MsgUnparseable},
		Cause:    cause,
	}
}

// Download creates the error returned when a file download fails with a non-success
// status. The code follows the status; the message is always MsgDownload.
func Download(status int) *AppError {
	code, _ := statusCode(status)
	return &AppError{
		Code:    code,
		Message: MsgDownload,
		Status:  status,
	}
}

// Validation creates a new Validation error.
func Validation(message string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: message,
	}
}

// Validationf creates a new Validation error with formatted message.
func Validationf(format string, args ...any) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf(format, args...),
	}
}

// ValidationField creates a new Validation error for a specific field.
func ValidationField(field, message string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: message,
		Field:   field,
	}
}

// Rejected creates a Validation error for a 2xx envelope whose success flag is false.
func Rejected(env *model.Envelope, fallback string) *AppError {
	msg := fallback
	if env != nil && env.Message != "" {
		msg = env.Message
	}
	return &AppError{
		Code:     ErrCodeValidation,
		Message:  msg,
		Envelope: env,
	}
}

// isCode checks if an error has a specific error code.
func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsUnauthorized checks if an error is an Unauthorized error.
func IsUnauthorized(err error) bool {
	return isCode(err, ErrCodeUnauthorized)
}

// IsForbidden checks if an error is a Forbidden error.
func IsForbidden(err error) bool {
	return isCode(err, ErrCodeForbidden)
}

// IsNotFound checks if an error is a NotFound error.
func IsNotFound(err error) bool {
	return isCode(err, ErrCodeNotFound)
}

// IsServerError checks if an error is a ServerError error.
func IsServerError(err error) bool {
	return isCode(err, ErrCodeServer)
}

// IsHTTPError checks if an error is a GenericHttpError error.
func IsHTTPError(err error) bool {
	return isCode(err, ErrCodeHTTP)
}

// IsNetwork checks if an error is a NetworkUnreachable error.
func IsNetwork(err error) bool {
	return isCode(err, ErrCodeNetwork)
}

// IsUnparseable checks if an error is a ResponseUnparseable error.
func IsUnparseable(err error) bool {
	return isCode(err, ErrCodeUnparseable)
}

// IsValidation checks if an error is a Validation error.
func IsValidation(err error) bool {
	return isCode(err, ErrCodeValidation)
}

// GetCode returns the ErrorCode from an error, or empty string if not an AppError.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// GetField returns the Field from an error, or empty string if not an AppError or no field set.
func GetField(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}

// Message returns the text to show a user for err: the AppError message when
// there is one, otherwise err.Error().
func Message(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return err.Error()
}
