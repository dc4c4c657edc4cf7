package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/zhejian/link-shortener/internal/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/zhejian/link-shortener/internal/service")

const (
	DefaultGenerateDelay  = 800 * time.Millisecond
	DefaultCopyResetAfter = 2 * time.Second
	DefaultIdleTTL        = 30 * time.Minute
)

// Clipboard is the write-only clipboard collaborator of a session.
type Clipboard interface {
	WriteText(ctx context.Context, text string) error
}

// ClipboardReader is implemented by clipboards whose content can be inspected
type ClipboardReader interface {
	ReadText(ctx context.Context) (string, error)
}

// SessionConfig holds the timing and capacity settings of a session
type SessionConfig struct {
	GenerateDelay   time.Duration
	CopyResetAfter  time.Duration
	HistoryCapacity int
	// IdleTTL is how long a session may go untouched before it is expired
	IdleTTL time.Duration
}

func (c SessionConfig) withDefaults() SessionConfig {
	if c.GenerateDelay <= 0 {
		c.GenerateDelay = DefaultGenerateDelay
	}
	if c.CopyResetAfter <= 0 {
		c.CopyResetAfter = DefaultCopyResetAfter
	}
	if c.HistoryCapacity <= 0 {
		c.HistoryCapacity = DefaultHistoryCapacity
	}
	if c.IdleTTL <= 0 {
		c.IdleTTL = DefaultIdleTTL
	}
	return c
}

// Session drives one user's submit/copy workflow.
//
// Generation and the copied flag revert are scheduled on the clock and
// tagged with an epoch. A callback whose epoch is stale, or that fires
// after Close, leaves the state untouched.
type Session struct {
	id        string
	cfg       SessionConfig
	generator *Generator
	store     *ConversionStore
	clipboard Clipboard
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *Metrics

	mu         sync.Mutex
	input      string
	generating bool
	copied     bool
	closed     bool
	genEpoch   uint64
	copyEpoch  uint64
	genTimer   clockwork.Timer
	genSpan    trace.Span
	copyTimer  clockwork.Timer

	lastActive atomic.Int64 // unix nanoseconds on clock
}

// NewSession creates an idle session
func NewSession(id string, cfg SessionConfig, generator *Generator, clipboard Clipboard, clock clockwork.Clock, logger *slog.Logger, metrics *Metrics) *Session {
	cfg = cfg.withDefaults()
	s := &Session{
		id:        id,
		cfg:       cfg,
		generator: generator,
		store:     NewConversionStore(cfg.HistoryCapacity),
		clipboard: clipboard,
		clock:     clock,
		logger:    logger.With(slog.String("session_id", id)),
		metrics:   metrics,
	}
	s.Touch()
	return s
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// Touch marks the session as used now
func (s *Session) Touch() {
	s.lastActive.Store(s.clock.Now().UnixNano())
}

// IdleFor returns how long ago the session was last touched
func (s *Session) IdleFor() time.Duration {
	return s.clock.Since(time.Unix(0, s.lastActive.Load()))
}

// SetInput stores the latest typed value
func (s *Session) SetInput(input string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	s.input = input
	return nil
}

// CanSubmit reports whether Submit would start a generation cycle
func (s *Session) CanSubmit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canSubmitLocked()
}

func (s *Session) canSubmitLocked() bool {
	return !s.closed && !s.generating && s.input != "" && IsValidURL(s.input)
}

// Submit starts a generation cycle for the current input. It returns false
// and changes nothing when the input is empty or invalid, when a cycle is
// already in flight or when the session is closed.
func (s *Session) Submit(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.canSubmitLocked() {
		s.metrics.submitRefused(ctx)
		s.logger.DebugContext(ctx, "submission refused",
			slog.Bool("generating", s.generating),
			slog.Bool("closed", s.closed))
		return false
	}

	original := s.input
	s.generating = true
	s.genEpoch++
	epoch := s.genEpoch

	_, span := tracer.Start(ctx, "session.generate",
		trace.WithAttributes(
			attribute.String("session.id", s.id),
			attribute.String("url.original", original),
		),
	)
	s.genSpan = span
	s.genTimer = s.clock.AfterFunc(s.cfg.GenerateDelay, func() {
		s.completeGeneration(epoch, original)
	})

	s.logger.DebugContext(ctx, "generation scheduled",
		slog.String("original", original),
		slog.Duration("delay", s.cfg.GenerateDelay))
	return true
}

func (s *Session) completeGeneration(epoch uint64, original string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || epoch != s.genEpoch {
		return
	}

	c := s.generator.Generate(original)
	s.store.Record(c)
	s.generating = false
	s.genTimer = nil

	if s.genSpan != nil {
		s.genSpan.SetAttributes(attribute.String("url.alias", c.Alias))
		s.genSpan.End()
		s.genSpan = nil
	}

	s.metrics.conversionRecorded(context.Background())
	s.logger.Info("conversion recorded",
		slog.String("original", c.Original),
		slog.String("alias", c.Alias))
}

// Copy writes the active alias to the clipboard and raises the copied flag
// until CopyResetAfter has elapsed. On a clipboard failure the state is
// left unchanged.
//
// The clipboard write runs without holding the session lock so a slow
// backend does not stall State and the other intents.
func (s *Session) Copy(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	alias, ok := s.store.Current()
	s.mu.Unlock()
	if !ok {
		return ErrNoResult
	}

	if err := s.writeClipboard(ctx, alias, "result"); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Closed while the write was in flight
	if s.closed {
		return ErrSessionClosed
	}
	s.copied = true
	s.copyEpoch++
	epoch := s.copyEpoch
	if s.copyTimer != nil {
		s.copyTimer.Stop()
	}
	s.copyTimer = s.clock.AfterFunc(s.cfg.CopyResetAfter, func() {
		s.resetCopied(epoch)
	})
	return nil
}

func (s *Session) resetCopied(epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || epoch != s.copyEpoch {
		return
	}
	s.copied = false
	s.copyTimer = nil
}

// CopyHistoryEntry writes the alias of history row index to the clipboard.
// The active result and the copied flag are not affected.
func (s *Session) CopyHistoryEntry(ctx context.Context, index int) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	entry, ok := s.store.Entry(index)
	s.mu.Unlock()
	if !ok {
		return ErrEntryNotFound
	}
	return s.writeClipboard(ctx, entry.Alias, "history")
}

func (s *Session) writeClipboard(ctx context.Context, text, source string) error {
	ctx, span := tracer.Start(ctx, "clipboard.write",
		trace.WithAttributes(
			attribute.String("session.id", s.id),
			attribute.String("clipboard.source", source),
		),
	)
	defer span.End()

	if err := s.clipboard.WriteText(ctx, text); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "clipboard write failed")
		s.metrics.clipboardFailed(ctx)
		s.logger.WarnContext(ctx, "clipboard write failed",
			slog.String("source", source),
			slog.String("error", err.Error()))
		return fmt.Errorf("%w: %w", ErrClipboardFailure, err)
	}

	s.metrics.copied(ctx, source)
	return nil
}

// Clipboard returns the collaborator the session writes to
func (s *Session) Clipboard() Clipboard {
	return s.clipboard
}

// State returns a snapshot for the display layer
func (s *Session) State() model.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, _ := s.store.Current()
	phase := model.PhaseIdle
	switch {
	case s.generating:
		phase = model.PhaseGenerating
	case result != "":
		phase = model.PhaseReady
	}

	return model.SessionState{
		ID:         s.id,
		Phase:      phase,
		Input:      s.input,
		CanSubmit:  s.canSubmitLocked(),
		Result:     result,
		Generating: s.generating,
		Copied:     s.copied,
		History:    s.store.History(),
	}
}

// Close tears the session down. Pending callbacks become no-ops and every
// later intent is refused.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.genEpoch++
	s.copyEpoch++

	if s.genTimer != nil {
		s.genTimer.Stop()
		s.genTimer = nil
	}
	if s.genSpan != nil {
		s.genSpan.SetStatus(codes.Error, "session closed before generation completed")
		s.genSpan.End()
		s.genSpan = nil
	}
	if s.copyTimer != nil {
		s.copyTimer.Stop()
		s.copyTimer = nil
	}
	s.generating = false
}
