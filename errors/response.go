package errors

import stderrors "errors"

// ErrorResponse is the body of every failed control API call.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody is the client view of an AppError. The cause is left out.
type ErrorBody struct {
	Code      ErrorCode      `json:"code"`
	Message   string         `json:"message"`
	Retryable bool           `json:"retryable"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
}

// Response renders e for the request that failed. requestID may be empty.
func (e *AppError) Response(requestID string) ErrorResponse {
	body := ErrorBody{Code: e.Code, Message: e.Message, Retryable: e.Retryable, RequestID: requestID}
	if len(e.Details) > 0 {
		body.Details = e.Details
	}
	return ErrorResponse{Error: body}
}

// AsAppError finds the *AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	ok := stderrors.As(err, &appErr)
	return appErr, ok
}
