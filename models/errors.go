package models

import (
	"errors"
	"fmt"
)

// Error codes used in scrape results and API responses.
const (
	ErrCodeInvalidURL     = "INVALID_URL"
	ErrCodeEngineLaunch   = "ENGINE_LAUNCH_FAILED"
	ErrCodeNavigation     = "NAVIGATION_FAILED"
	ErrCodeExtraction     = "EXTRACTION_FAILED"
	ErrCodeHTTP           = "HTTP_FAILED"
	ErrCodeAttemptTimeout = "ATTEMPT_TIMEOUT"
	ErrCodeOverallTimeout = "OVERALL_TIMEOUT"
	ErrCodeCanceled       = "CANCELED"

	// API-layer codes.
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ScrapeError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type ScrapeError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// Cause is the human-readable part of the error used in result envelopes:
// the message followed by the wrapped error, without the code prefix.
func (e *ScrapeError) Cause() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Retryable reports whether another attempt may succeed.
func (e *ScrapeError) Retryable() bool {
	switch e.Code {
	case ErrCodeInvalidURL, ErrCodeOverallTimeout, ErrCodeCanceled:
		return false
	default:
		return true
	}
}

// NewScrapeError creates a new ScrapeError.
func NewScrapeError(code, message string, err error) *ScrapeError {
	return &ScrapeError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *ScrapeError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}

// CodeOf returns the code of the first ScrapeError in err's chain,
// or ErrCodeInternal when there is none.
func CodeOf(err error) string {
	var se *ScrapeError
	if errors.As(err, &se) {
		return se.Code
	}
	return ErrCodeInternal
}

// ErrorResponse is the body of API-level failures (bad input, auth, rate
// limiting) that happen before any scrape runs.
type ErrorResponse struct {
	Success bool         `json:"success"`
	Error   *ErrorDetail `json:"error"`
}

// NewErrorResponse builds an ErrorResponse.
func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{Error: &ErrorDetail{Code: code, Message: message}}
}
