package model

// SetInputRequest carries the latest value typed into the input field
type SetInputRequest struct {
	Input string `json:"input"`
}

// SubmitRequest optionally replaces the input before submitting,
// which is what pressing the activate key on the input field does.
type SubmitRequest struct {
	Input *string `json:"input,omitempty"`
}

// SubmitResponse reports whether a generation cycle was started
type SubmitResponse struct {
	Accepted bool         `json:"accepted"`
	State    SessionState `json:"state"`
}

// ClipboardResponse exposes the text last written to a session clipboard
type ClipboardResponse struct {
	Text string `json:"text"`
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
