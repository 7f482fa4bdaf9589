package core

// ErrorResponse is the body sent for failures that are not tied to a field
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
