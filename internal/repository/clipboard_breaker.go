package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerSettings configures the circuit breaker guarding a clipboard backend
type BreakerSettings struct {
	Name             string
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// NewClipboardBreaker builds a breaker that opens after FailureThreshold
// consecutive failures and probes again after OpenTimeout.
func NewClipboardBreaker(settings BreakerSettings, logger *slog.Logger) *gobreaker.CircuitBreaker {
	threshold := settings.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: 1,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("clipboard breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})
}

// BreakerClipboard routes calls to next through a shared circuit breaker
type BreakerClipboard struct {
	next Clipboard
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerClipboard wraps next with cb
func NewBreakerClipboard(next Clipboard, cb *gobreaker.CircuitBreaker) *BreakerClipboard {
	return &BreakerClipboard{next: next, cb: cb}
}

func (b *BreakerClipboard) WriteText(ctx context.Context, text string) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.next.WriteText(ctx, text)
	})
	return translateBreakerErr(err)
}

func (b *BreakerClipboard) ReadText(ctx context.Context) (string, error) {
	text, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.ReadText(ctx)
	})
	if err != nil {
		return "", translateBreakerErr(err)
	}
	return text.(string), nil
}

func translateBreakerErr(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w", ErrClipboardUnavailable, err)
	}
	return err
}
