package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RedisClipboard stores one session's clipboard under clipboard:<session-id>
type RedisClipboard struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisClipboard creates a clipboard for sessionID. A zero ttl keeps
// the key until it is overwritten.
func NewRedisClipboard(client *redis.Client, sessionID string, ttl time.Duration) *RedisClipboard {
	return &RedisClipboard{
		client: client,
		key:    ClipboardKey(sessionID),
		ttl:    ttl,
	}
}

// ClipboardKey returns the redis key of a session clipboard
func ClipboardKey(sessionID string) string {
	return fmt.Sprintf("clipboard:%s", sessionID)
}

// WriteText overwrites the stored text
func (r *RedisClipboard) WriteText(ctx context.Context, text string) error {
	ctx, span := tracer.Start(ctx, "cache.set",
		trace.WithAttributes(
			attribute.String("db.system", "redis"),
			attribute.String("db.operation", "SET"),
			attribute.String("cache.key", r.key),
		),
	)
	defer span.End()

	if err := r.client.Set(ctx, r.key, text, r.ttl).Err(); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// ReadText returns the stored text, empty when nothing was written yet
func (r *RedisClipboard) ReadText(ctx context.Context) (string, error) {
	ctx, span := tracer.Start(ctx, "cache.get",
		trace.WithAttributes(
			attribute.String("db.system", "redis"),
			attribute.String("db.operation", "GET"),
			attribute.String("cache.key", r.key),
		),
	)
	defer span.End()

	text, err := r.client.Get(ctx, r.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		span.RecordError(err)
		return "", err
	}
	return text, nil
}
