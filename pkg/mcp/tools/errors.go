package tools

import (
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
)

// ErrorResponse is the JSON body of a tool result flagged IsError.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// NewErrorResult reports a problem the calling agent can fix, such as a
// blank question or an unknown table, as a tool result rather than a
// JSON-RPC error. Infrastructure failures stay Go errors.
func NewErrorResult(code, message string) *mcp.CallToolResult {
	return NewErrorResultWithDetails(code, message, nil)
}

// NewErrorResultWithDetails is NewErrorResult with extra machine-readable context.
func NewErrorResultWithDetails(code, message string, details any) *mcp.CallToolResult {
	body, _ := json.Marshal(ErrorResponse{
		Error:   true,
		Code:    code,
		Message: message,
		Details: details,
	})
	result := mcp.NewToolResultText(string(body))
	result.IsError = true
	return result
}
