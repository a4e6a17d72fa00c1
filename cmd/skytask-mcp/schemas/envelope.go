package schemas

import (
	"github.com/skytask-mcp/skytask/cmd/skytask-mcp/errors"
)

// ToolError is the machine-readable failure payload inside a tool response.
type ToolError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Suggestion string         `json:"suggestion,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
}

// ToolResponse is the envelope every tool returns to the dispatch layer: a
// success flag plus either the domain payload or a structured error. A raw
// error never crosses the tool boundary.
type ToolResponse struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ToolError `json:"error,omitempty"`
}

// OK wraps a domain payload in a success envelope.
func OK(data any) ToolResponse {
	return ToolResponse{Success: true, Data: data}
}

// Fail converts any error into a failure envelope, annotating known codes
// with troubleshooting suggestions.
func Fail(err error) ToolResponse {
	apiErr := errors.Wrap(err, errors.CodeInternal)
	return ToolResponse{
		Success: false,
		Error: &ToolError{
			Code:       apiErr.Code,
			Message:    apiErr.Message,
			Suggestion: errors.Suggestion(apiErr.Code),
			Details:    apiErr.Details,
		},
	}
}
