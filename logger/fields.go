package logger

import "time"

// Field keys shared by every component.
const (
	FieldComponent = "component"
	FieldTraceID   = "trace_id"
	FieldSpanID    = "span_id"
	FieldRequestID = "request_id"
	FieldSessionID = "session_id"
	FieldOperation = "operation"
	FieldError     = "error"
	FieldDuration  = "duration_ms"
)

// Field keys of the recording pipeline.
const (
	FieldSpeakerID = "speaker_id"
	FieldClip      = "clip"
	FieldStage     = "stage"
	FieldState     = "state"
	FieldExitCode  = "exit_code"
	FieldJobID     = "job_id"
	FieldProvider  = "provider"
)

// Fields pairs up keys and values. Non-string keys and a trailing key
// without a value are dropped.
//
//	log.Info("clip closed", logger.Fields(logger.FieldSpeakerID, id, "bytes", n))
func Fields(kvs ...any) map[string]any {
	m := make(map[string]any, len(kvs)/2)
	for i := 0; i+1 < len(kvs); i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// ErrorFields names a failed operation and its error.
func ErrorFields(op string, err error) map[string]any {
	return MergeWithError(map[string]any{FieldOperation: op}, err)
}

// DurationFields names an operation and how long it took.
func DurationFields(op string, d time.Duration) map[string]any {
	return map[string]any{FieldOperation: op, FieldDuration: d.Milliseconds()}
}

// MergeWithError sets the error field on fields, allocating when nil.
func MergeWithError(fields map[string]any, err error) map[string]any {
	if fields == nil {
		fields = map[string]any{}
	}
	fields[FieldError] = err.Error()
	return fields
}
