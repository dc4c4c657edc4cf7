package repository

import (
	"context"
	"errors"
	"sync"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("github.com/zhejian/link-shortener/internal/repository")

var ErrClipboardUnavailable = errors.New("clipboard unavailable")

// Clipboard is a last-write-wins text slot
type Clipboard interface {
	WriteText(ctx context.Context, text string) error
	ReadText(ctx context.Context) (string, error)
}

// MemoryClipboard keeps the clipboard text in process memory
type MemoryClipboard struct {
	mu   sync.RWMutex
	text string
}

// NewMemoryClipboard creates an empty in-memory clipboard
func NewMemoryClipboard() *MemoryClipboard {
	return &MemoryClipboard{}
}

func (m *MemoryClipboard) WriteText(_ context.Context, text string) error {
	m.mu.Lock()
	m.text = text
	m.mu.Unlock()
	return nil
}

func (m *MemoryClipboard) ReadText(_ context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.text, nil
}
