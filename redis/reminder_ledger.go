package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ReminderLedger records sent reminders in Redis so several instances and
// restarts do not mail the same appointment twice.
type ReminderLedger struct {
	client *redis.Client
	ttl    time.Duration
}

func NewReminderLedger(client *redis.Client, ttl time.Duration) *ReminderLedger {
	return &ReminderLedger{client: client, ttl: ttl}
}

func (l *ReminderLedger) MarkReminded(ctx context.Context, id uuid.UUID) (bool, error) {
	return l.client.SetNX(ctx, reminderKey(id), 1, l.ttl).Result()
}

func (l *ReminderLedger) Forget(ctx context.Context, id uuid.UUID) error {
	return l.client.Del(ctx, reminderKey(id)).Err()
}

func reminderKey(id uuid.UUID) string {
	return "reminder:" + id.String()
}
