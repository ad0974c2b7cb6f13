package errors

// ErrorCode is the machine-readable kind of an AppError.
type ErrorCode string

// Codes a client may retry after a wait.
const (
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrCodeTimeout            ErrorCode = "TIMEOUT"
	ErrCodeRateLimited        ErrorCode = "RATE_LIMITED"
	ErrCodeExternalService    ErrorCode = "EXTERNAL_SERVICE_ERROR"
)

// Request and state codes.
const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
)

// Recording codes.
const (
	// ErrCodeConnectFailure: the audio source could not be joined.
	ErrCodeConnectFailure ErrorCode = "CONNECT_FAILURE"
	// ErrCodePipelineFailure: decode or transcode failed for one utterance.
	ErrCodePipelineFailure ErrorCode = "PIPELINE_FAILURE"
	// ErrCodeTranscriptionFailure: no backend produced a transcript.
	ErrCodeTranscriptionFailure ErrorCode = "TRANSCRIPTION_FAILURE"
	// ErrCodeResolutionFailure: a speaker's display name could not be looked up.
	ErrCodeResolutionFailure ErrorCode = "RESOLUTION_FAILURE"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeServiceUnavailable:   true,
	ErrCodeTimeout:              true,
	ErrCodeRateLimited:          true,
	ErrCodeExternalService:      true,
	ErrCodeConnectFailure:       true,
	ErrCodeTranscriptionFailure: true,
}

// IsRetryableCode reports whether a failure with code may succeed if tried again.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
