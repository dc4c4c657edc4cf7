package service

import "errors"

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionClosed    = errors.New("session closed")
	ErrNoResult         = errors.New("no shortened URL to copy")
	ErrEntryNotFound    = errors.New("history entry not found")
	ErrClipboardFailure = errors.New("failed to write to clipboard")
	ErrClipboardRead    = errors.New("clipboard is not readable")
)
