package model

import "time"

// Conversion is one (original, alias) pair produced by a generation cycle.
// It is never mutated after creation.
type Conversion struct {
	Original  string    `json:"original"`
	Alias     string    `json:"alias"`
	CreatedAt time.Time `json:"created_at"`
}

// Phase is the coarse state of a session as seen by the display layer.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseGenerating Phase = "generating"
	PhaseReady      Phase = "ready"
)

// SessionState is a read-only snapshot of everything a UI needs to render
type SessionState struct {
	ID         string       `json:"id"`
	Phase      Phase        `json:"phase"`
	Input      string       `json:"input"`
	CanSubmit  bool         `json:"can_submit"`
	Result     string       `json:"result,omitempty"`
	Generating bool         `json:"generating"`
	Copied     bool         `json:"copied"`
	History    []Conversion `json:"history"`
}
