package utils

import "time"

// APIResponse is the JSON envelope every endpoint returns.  Error carries
// the machine-readable code of a failure; Message is for humans.
type APIResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Data      any       `json:"data,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func SuccessResponse(message string, data any) APIResponse {
	return APIResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

func ErrorResponse(message, code string) APIResponse {
	return APIResponse{
		Success:   false,
		Message:   message,
		Error:     code,
		Timestamp: time.Now().UTC(),
	}
}
