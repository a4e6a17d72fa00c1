package errors

import (
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Error codes surfaced to tool callers. Vendor-supplied codes are passed
// through when the error envelope carries one; the rest are synthesized from
// the failure class.
const (
	CodeConfiguration     = "CONFIGURATION_ERROR"
	CodeInvalidRequest    = "INVALID_REQUEST"
	CodeAuthInvalid       = "AUTH_INVALID"
	CodeRateLimited       = "RATE_LIMITED"
	CodeNotFound          = "NOT_FOUND"
	CodeInsufficientFunds = "INSUFFICIENT_FUNDS"
	CodeValidation        = "VALIDATION_ERROR"
	CodeNetwork           = "NETWORK_ERROR"
	CodeInternal          = "INTERNAL_ERROR"
)

// APIError is a classified failure from the vendor API or from local
// validation. HTTPStatus is 0 for failures that never produced an HTTP
// response (network errors, configuration defects).
type APIError struct {
	Code          string         `json:"code"`
	Message       string         `json:"message"`
	HTTPStatus    int            `json:"httpStatus"`
	Details       map[string]any `json:"details,omitempty"`
	CorrelationID string         `json:"correlationId"`
	Timestamp     time.Time      `json:"timestamp"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Retryable reports whether the failure is worth retrying. Client errors in
// the 400 range represent a request defect, not a transient condition, and
// are never retried. Configuration and validation defects never retry even
// though they carry no HTTP status.
func (e *APIError) Retryable() bool {
	switch e.Code {
	case CodeConfiguration, CodeInvalidRequest, CodeValidation:
		return false
	}
	return e.HTTPStatus < 400 || e.HTTPStatus >= 500
}

// WithDetail attaches a structured detail to the error.
func (e *APIError) WithDetail(key string, value any) *APIError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// ToJSON serializes the error for logs and tool payloads.
func (e *APIError) ToJSON() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// New creates a classified error with no HTTP status.
func New(code, message string) *APIError {
	return &APIError{
		Code:          code,
		Message:       message,
		Timestamp:     time.Now(),
		CorrelationID: uuid.New().String(),
	}
}

// NewHTTP creates a classified error carrying the vendor HTTP status.
func NewHTTP(code, message string, status int) *APIError {
	err := New(code, message)
	err.HTTPStatus = status
	return err
}

// Network wraps a transport-level failure (DNS, refused connection, timeout)
// with status 0.
func Network(err error) *APIError {
	return New(CodeNetwork, err.Error())
}

// Wrap converts an arbitrary error into an APIError, passing classified
// errors through untouched.
func Wrap(err error, code string) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return New(code, err.Error())
}

// As extracts an APIError from an error chain.
func As(err error) (*APIError, bool) {
	var apiErr *APIError
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}

// CodeForStatus synthesizes an error code for responses whose envelope did
// not carry one.
func CodeForStatus(status int) string {
	switch status {
	case 401, 403:
		return CodeAuthInvalid
	case 402:
		return CodeInsufficientFunds
	case 404:
		return CodeNotFound
	case 429:
		return CodeRateLimited
	case 400, 422:
		return CodeValidation
	case 0:
		return CodeNetwork
	default:
		return CodeInternal
	}
}

// suggestions maps known codes to troubleshooting hints shown by the
// interactive tools.
var suggestions = map[string]string{
	CodeConfiguration:     "Set SKYTASK_API_KEY before calling any tool.",
	CodeAuthInvalid:       "Verify the API key is current and has access to the requested product.",
	CodeRateLimited:       "Slow down the request rate or reduce the batch size.",
	CodeInsufficientFunds: "Top up the account balance before placing orders.",
	CodeValidation:        "Check the AOI geometry and capture window; extend the window if it is too narrow.",
	CodeNotFound:          "Confirm the identifier; feasibility checks expire after their validity deadline.",
	CodeNetwork:           "Check connectivity to the vendor API and retry.",
}

// Suggestion returns the troubleshooting hint for a code, empty when none is
// known.
func Suggestion(code string) string {
	return suggestions[code]
}
