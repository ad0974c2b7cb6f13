package errors

import (
	"fmt"
	"maps"
	"net/http"
)

// AppError is the error every layer returns once a failure has a meaning
// beyond its cause. The control API renders it with Response.
type AppError struct {
	Code       ErrorCode      `json:"code"`
	Message    string         `json:"message"`
	Retryable  bool           `json:"retryable"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Cause      error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return string(e.Code) + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
}

func (e *AppError) Unwrap() error { return e.Cause }

// WithCause records the underlying error.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail adds one detail for the client.
func (e *AppError) WithDetail(key string, value any) *AppError {
	return e.WithDetails(map[string]any{key: value})
}

// WithDetails merges details into e.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any, len(details))
	}
	maps.Copy(e.Details, details)
	return e
}

// New builds an AppError whose Retryable flag follows code.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

func about(key, value string) map[string]any {
	return map[string]any{key: value}
}

func ServiceUnavailable(service string) *AppError {
	e := New(ErrCodeServiceUnavailable, fmt.Sprintf("The %s is temporarily unavailable. Please try again.", service), http.StatusServiceUnavailable)
	e.Details = about("service", service)
	return e
}

func Timeout(operation string) *AppError {
	e := New(ErrCodeTimeout, "The request took too long. Please try again.", http.StatusGatewayTimeout)
	e.Details = about("operation", operation)
	return e
}

func RateLimited() *AppError {
	return New(ErrCodeRateLimited, "Too many requests. Please wait a moment and try again.", http.StatusTooManyRequests)
}

// NotFound names the missing resource, and its id when known.
func NotFound(resource, id string) *AppError {
	e := New(ErrCodeNotFound, fmt.Sprintf("The requested %s was not found.", resource), http.StatusNotFound)
	e.Details = about("resource", resource)
	if id != "" {
		e.Details["id"] = id
	}
	return e
}

func Conflict(reason string) *AppError {
	return New(ErrCodeConflict, reason, http.StatusConflict)
}

func InvalidInput(field, reason string) *AppError {
	e := New(ErrCodeInvalidInput, "Invalid input: "+reason, http.StatusBadRequest)
	if field != "" {
		e.Details = about("field", field)
	}
	return e
}

// Validation reports a request that failed struct validation.
func Validation(message string) *AppError {
	return New(ErrCodeInvalidInput, message, http.StatusBadRequest)
}

func MissingField(field string) *AppError {
	e := New(ErrCodeMissingField, "Missing required field: "+field, http.StatusBadRequest)
	e.Details = about("field", field)
	return e
}

// Internal hides cause from clients behind a generic message.
func Internal(cause error) *AppError {
	return New(ErrCodeInternal, "An unexpected error occurred. Please try again or contact support.", http.StatusInternalServerError).
		WithCause(cause)
}

func ExternalServiceError(service string, cause error) *AppError {
	e := New(ErrCodeExternalService, fmt.Sprintf("The %s service encountered an error. Please try again.", service), http.StatusBadGateway)
	e.Details = about("service", service)
	return e.WithCause(cause)
}

// ConnectFailure means the audio source could not be joined, either because
// it refused or because the join deadline passed.
func ConnectFailure(source string, cause error) *AppError {
	e := New(ErrCodeConnectFailure, fmt.Sprintf("Unable to join the %s audio source.", source), http.StatusServiceUnavailable)
	e.Details = about("source", source)
	return e.WithCause(cause)
}

// PipelineFailure means one stage of one utterance's audio pipeline failed.
func PipelineFailure(stage string, cause error) *AppError {
	e := New(ErrCodePipelineFailure, fmt.Sprintf("Audio pipeline stage %s failed.", stage), http.StatusInternalServerError)
	e.Details = about("stage", stage)
	return e.WithCause(cause)
}

func TranscriptionFailure(provider string, cause error) *AppError {
	e := New(ErrCodeTranscriptionFailure, fmt.Sprintf("Transcription via %s failed.", provider), http.StatusBadGateway)
	e.Details = about("provider", provider)
	return e.WithCause(cause)
}

func ResolutionFailure(speakerID string, cause error) *AppError {
	e := New(ErrCodeResolutionFailure, "Speaker name could not be resolved.", http.StatusBadGateway)
	e.Details = about("speaker_id", speakerID)
	return e.WithCause(cause)
}

// SessionActive rejects a start while sessionID is recording.
func SessionActive(sessionID string) *AppError {
	return Conflict("A recording session is already in progress.").WithDetail("session_id", sessionID)
}

func NoActiveSession() *AppError {
	return NotFound("session", "")
}
