package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/zhejian/link-shortener/internal/model"
)

// ClipboardFactory hands out the clipboard handle of a new session
type ClipboardFactory func(sessionID string) Clipboard

// SessionServiceInterface defines the contract used by the HTTP layer
type SessionServiceInterface interface {
	Create(ctx context.Context) (*model.SessionState, error)
	Get(ctx context.Context, id string) (*model.SessionState, error)
	SetInput(ctx context.Context, id, input string) (*model.SessionState, error)
	Submit(ctx context.Context, id string, input *string) (*model.SubmitResponse, error)
	Copy(ctx context.Context, id string) (*model.SessionState, error)
	CopyHistoryEntry(ctx context.Context, id string, index int) (*model.SessionState, error)
	Clipboard(ctx context.Context, id string) (*model.ClipboardResponse, error)
	Delete(ctx context.Context, id string) error
}

// SessionService owns every open session of the process
type SessionService struct {
	cfg        SessionConfig
	generator  *Generator
	clipboards ClipboardFactory
	clock      clockwork.Clock
	logger     *slog.Logger
	metrics    *Metrics

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionService creates a session registry. metrics may be nil.
func NewSessionService(cfg SessionConfig, generator *Generator, clipboards ClipboardFactory, clock clockwork.Clock, logger *slog.Logger, metrics *Metrics) *SessionService {
	return &SessionService{
		cfg:        cfg.withDefaults(),
		generator:  generator,
		clipboards: clipboards,
		clock:      clock,
		logger:     logger,
		metrics:    metrics,
		sessions:   make(map[string]*Session),
	}
}

// Create opens a new idle session
func (s *SessionService) Create(ctx context.Context) (*model.SessionState, error) {
	id := uuid.NewString()
	sess := NewSession(id, s.cfg, s.generator, s.clipboards(id), s.clock, s.logger, s.metrics)

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	s.metrics.sessionOpened(ctx)
	s.logger.InfoContext(ctx, "session created", slog.String("session_id", id))

	state := sess.State()
	return &state, nil
}

// Get returns the current state of a session
func (s *SessionService) Get(ctx context.Context, id string) (*model.SessionState, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	state := sess.State()
	return &state, nil
}

// SetInput records the latest typed value
func (s *SessionService) SetInput(ctx context.Context, id, input string) (*model.SessionState, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	if err := sess.SetInput(input); err != nil {
		return nil, err
	}
	state := sess.State()
	return &state, nil
}

// Submit optionally replaces the input and then submits it.
// A refused submission is reported through Accepted, not as an error.
func (s *SessionService) Submit(ctx context.Context, id string, input *string) (*model.SubmitResponse, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	if input != nil {
		if err := sess.SetInput(*input); err != nil {
			return nil, err
		}
	}
	accepted := sess.Submit(ctx)
	return &model.SubmitResponse{
		Accepted: accepted,
		State:    sess.State(),
	}, nil
}

// Copy copies the active result of a session
func (s *SessionService) Copy(ctx context.Context, id string) (*model.SessionState, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	if err := sess.Copy(ctx); err != nil {
		return nil, err
	}
	state := sess.State()
	return &state, nil
}

// CopyHistoryEntry copies one history row of a session
func (s *SessionService) CopyHistoryEntry(ctx context.Context, id string, index int) (*model.SessionState, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	if err := sess.CopyHistoryEntry(ctx, index); err != nil {
		return nil, err
	}
	state := sess.State()
	return &state, nil
}

// Clipboard returns what the session last wrote to its clipboard
func (s *SessionService) Clipboard(ctx context.Context, id string) (*model.ClipboardResponse, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	reader, ok := sess.Clipboard().(ClipboardReader)
	if !ok {
		return nil, ErrClipboardRead
	}
	text, err := reader.ReadText(ctx)
	if err != nil {
		return nil, fmt.Errorf("read clipboard: %w", err)
	}
	return &model.ClipboardResponse{Text: text}, nil
}

// Delete closes a session and forgets it
func (s *SessionService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	sess.Close()
	s.metrics.sessionClosed(ctx)
	s.logger.InfoContext(ctx, "session closed", slog.String("session_id", id))
	return nil
}

// CloseAll tears down every open session, used on shutdown
func (s *SessionService) CloseAll() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.Close()
		s.metrics.sessionClosed(context.Background())
	}
	s.logger.Info("all sessions closed", slog.Int("count", len(sessions)))
}

// Len returns the number of open sessions
func (s *SessionService) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// ExpireIdle closes and forgets every session untouched for at least
// IdleTTL. It returns how many sessions were expired.
func (s *SessionService) ExpireIdle(ctx context.Context) int {
	s.mu.Lock()
	var expired []*Session
	for id, sess := range s.sessions {
		if sess.IdleFor() >= s.cfg.IdleTTL {
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range expired {
		sess.Close()
		s.metrics.sessionExpired(ctx)
		s.logger.InfoContext(ctx, "session expired",
			slog.String("session_id", sess.ID()),
			slog.Duration("idle", sess.IdleFor()))
	}
	return len(expired)
}

// RunExpiry sweeps idle sessions on a ticker until ctx is done
func (s *SessionService) RunExpiry(ctx context.Context) {
	interval := s.cfg.IdleTTL / 4
	if interval <= 0 {
		interval = s.cfg.IdleTTL
	}
	ticker := s.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			if n := s.ExpireIdle(ctx); n > 0 {
				s.logger.DebugContext(ctx, "idle sweep finished", slog.Int("expired", n))
			}
		case <-ctx.Done():
			s.logger.Info("session expiry stopped")
			return
		}
	}
}

// lookup returns the session and marks it as used
func (s *SessionService) lookup(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.Touch()
	return sess, nil
}

// Ensure SessionService implements SessionServiceInterface at compile time
var _ SessionServiceInterface = (*SessionService)(nil)
