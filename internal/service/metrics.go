package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics counts session activity. A nil *Metrics records nothing.
type Metrics struct {
	conversions       metric.Int64Counter
	refusedSubmits    metric.Int64Counter
	copies            metric.Int64Counter
	clipboardFailures metric.Int64Counter
	activeSessions    metric.Int64UpDownCounter
	expiredSessions   metric.Int64Counter
}

// NewMetrics registers the session instruments on meter
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	conversions, err := meter.Int64Counter("shortener.conversions",
		metric.WithDescription("Completed generation cycles"))
	if err != nil {
		return nil, err
	}
	refused, err := meter.Int64Counter("shortener.submits.refused",
		metric.WithDescription("Submissions refused by the input guard"))
	if err != nil {
		return nil, err
	}
	copies, err := meter.Int64Counter("shortener.copies",
		metric.WithDescription("Successful clipboard writes"))
	if err != nil {
		return nil, err
	}
	failures, err := meter.Int64Counter("shortener.clipboard.failures",
		metric.WithDescription("Failed clipboard writes"))
	if err != nil {
		return nil, err
	}
	active, err := meter.Int64UpDownCounter("shortener.sessions.active",
		metric.WithDescription("Open sessions"))
	if err != nil {
		return nil, err
	}

	expired, err := meter.Int64Counter("shortener.sessions.expired",
		metric.WithDescription("Sessions closed after sitting idle"))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		conversions:       conversions,
		refusedSubmits:    refused,
		copies:            copies,
		clipboardFailures: failures,
		activeSessions:    active,
		expiredSessions:   expired,
	}, nil
}

func (m *Metrics) conversionRecorded(ctx context.Context) {
	if m == nil {
		return
	}
	m.conversions.Add(ctx, 1)
}

func (m *Metrics) submitRefused(ctx context.Context) {
	if m == nil {
		return
	}
	m.refusedSubmits.Add(ctx, 1)
}

func (m *Metrics) copied(ctx context.Context, source string) {
	if m == nil {
		return
	}
	m.copies.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
}

func (m *Metrics) clipboardFailed(ctx context.Context) {
	if m == nil {
		return
	}
	m.clipboardFailures.Add(ctx, 1)
}

func (m *Metrics) sessionOpened(ctx context.Context) {
	if m == nil {
		return
	}
	m.activeSessions.Add(ctx, 1)
}

func (m *Metrics) sessionClosed(ctx context.Context) {
	if m == nil {
		return
	}
	m.activeSessions.Add(ctx, -1)
}

func (m *Metrics) sessionExpired(ctx context.Context) {
	if m == nil {
		return
	}
	m.activeSessions.Add(ctx, -1)
	m.expiredSessions.Add(ctx, 1)
}
