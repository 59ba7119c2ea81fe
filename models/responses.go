package models

// APIResponse is the envelope of every HTTP response body.
//
// Success reports the outcome, Message carries a human-readable status or
// error text and Data holds the payload of successful calls.
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// OK wraps a successful payload.
func OK(message string, data any) APIResponse {
	return APIResponse{Success: true, Message: message, Data: data}
}

// Fail wraps an error message.
func Fail(message string) APIResponse {
	return APIResponse{Success: false, Message: message}
}
