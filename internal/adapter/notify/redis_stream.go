package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cactuswealth/wealth-analytics/internal/domain"
)

// DefaultMaxLen caps the stream length so an idle consumer cannot grow it without bound.
const DefaultMaxLen = 10000

// RedisStreamNotifier appends notifications to a Redis stream consumed by the
// notification delivery worker.
type RedisStreamNotifier struct {
	Client redis.UniversalClient
	Stream string
	MaxLen int64
}

func NewRedisStreamNotifier(client redis.UniversalClient, stream string) *RedisStreamNotifier {
	return &RedisStreamNotifier{Client: client, Stream: stream, MaxLen: DefaultMaxLen}
}

// Notify enqueues n and returns once Redis has acknowledged the entry.
func (r *RedisStreamNotifier) Notify(ctx context.Context, n domain.Notification) error {
	createdAt := n.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	err := r.Client.XAdd(ctx, &redis.XAddArgs{
		Stream: r.Stream,
		MaxLen: r.MaxLen,
		Approx: true,
		Values: map[string]any{
			"user_id":    n.UserID.String(),
			"message":    n.Message,
			"created_at": createdAt.UTC().Format(time.RFC3339),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to enqueue notification on %s: %w", r.Stream, err)
	}
	return nil
}
