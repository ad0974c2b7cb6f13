package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestConstructors(t *testing.T) {
	cause := stderrors.New("connection reset")
	tests := []struct {
		name      string
		err       *AppError
		code      ErrorCode
		status    int
		retryable bool
	}{
		{"unavailable", ServiceUnavailable("directory"), ErrCodeServiceUnavailable, http.StatusServiceUnavailable, true},
		{"timeout", Timeout("upload"), ErrCodeTimeout, http.StatusGatewayTimeout, true},
		{"rate limited", RateLimited(), ErrCodeRateLimited, http.StatusTooManyRequests, true},
		{"not found", NotFound("session", "s1"), ErrCodeNotFound, http.StatusNotFound, false},
		{"conflict", Conflict("busy"), ErrCodeConflict, http.StatusConflict, false},
		{"invalid", InvalidInput("guild_id", "must be numeric"), ErrCodeInvalidInput, http.StatusBadRequest, false},
		{"validation", Validation("bad body"), ErrCodeInvalidInput, http.StatusBadRequest, false},
		{"missing", MissingField("channel_id"), ErrCodeMissingField, http.StatusBadRequest, false},
		{"internal", Internal(cause), ErrCodeInternal, http.StatusInternalServerError, false},
		{"external", ExternalServiceError("whisper", cause), ErrCodeExternalService, http.StatusBadGateway, true},
		{"connect", ConnectFailure("voice", cause), ErrCodeConnectFailure, http.StatusServiceUnavailable, true},
		{"pipeline", PipelineFailure("transcode", cause), ErrCodePipelineFailure, http.StatusInternalServerError, false},
		{"transcription", TranscriptionFailure("whisper", cause), ErrCodeTranscriptionFailure, http.StatusBadGateway, true},
		{"resolution", ResolutionFailure("42", cause), ErrCodeResolutionFailure, http.StatusBadGateway, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code || tt.err.HTTPStatus != tt.status || tt.err.Retryable != tt.retryable {
				t.Errorf("got %s/%d/%v, want %s/%d/%v",
					tt.err.Code, tt.err.HTTPStatus, tt.err.Retryable, tt.code, tt.status, tt.retryable)
			}
			if tt.err.Message == "" {
				t.Error("empty message")
			}
		})
	}
}

func TestRecordingDetails(t *testing.T) {
	if d := PipelineFailure("decode", nil).Details; d["stage"] != "decode" {
		t.Errorf("PipelineFailure details = %v", d)
	}
	if d := ResolutionFailure("42", nil).Details; d["speaker_id"] != "42" {
		t.Errorf("ResolutionFailure details = %v", d)
	}
	active := SessionActive("s1")
	if active.Code != ErrCodeConflict || active.Details["session_id"] != "s1" {
		t.Errorf("SessionActive = %+v", active)
	}
	none := NoActiveSession()
	if none.Code != ErrCodeNotFound || len(none.Details) != 1 {
		t.Errorf("NoActiveSession = %+v", none)
	}
}

func TestErrorString(t *testing.T) {
	if got := Conflict("busy").Error(); got != "CONFLICT: busy" {
		t.Errorf("Error() = %q", got)
	}
	got := Conflict("busy").WithCause(stderrors.New("lock held")).Error()
	if got != "CONFLICT: busy (cause: lock held)" {
		t.Errorf("Error() with cause = %q", got)
	}
}

func TestDetailsMerge(t *testing.T) {
	e := Conflict("busy").WithDetail("a", 1).WithDetails(map[string]any{"b": 2, "a": 3})
	if len(e.Details) != 2 || e.Details["a"] != 3 || e.Details["b"] != 2 {
		t.Errorf("details = %v", e.Details)
	}
}

func TestUnwrapThroughWrapping(t *testing.T) {
	cause := stderrors.New("eof")
	wrapped := fmt.Errorf("flush clip: %w", ConnectFailure("voice", cause))

	if !stderrors.Is(wrapped, cause) {
		t.Error("cause not reachable")
	}
	appErr, ok := AsAppError(wrapped)
	if !ok || appErr.Code != ErrCodeConnectFailure {
		t.Fatalf("AsAppError = %v, %v", appErr, ok)
	}
	if _, ok := AsAppError(cause); ok {
		t.Error("plain error reported as AppError")
	}
}

func TestResponse(t *testing.T) {
	resp := Internal(stderrors.New("secret")).Response("req-9")
	if resp.Error.Code != ErrCodeInternal || resp.Error.RequestID != "req-9" {
		t.Errorf("response = %+v", resp)
	}
	if resp.Error.Details != nil {
		t.Errorf("internal error leaked details: %v", resp.Error.Details)
	}
}

func TestIsRetryableCode(t *testing.T) {
	for _, c := range []ErrorCode{ErrCodeTimeout, ErrCodeConnectFailure, ErrCodeTranscriptionFailure} {
		if !IsRetryableCode(c) {
			t.Errorf("%s not retryable", c)
		}
	}
	for _, c := range []ErrorCode{ErrCodeInternal, ErrCodePipelineFailure, ErrCodeResolutionFailure, "UNKNOWN"} {
		if IsRetryableCode(c) {
			t.Errorf("%s retryable", c)
		}
	}
}
