package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/meinhoongagan/clinic-booking/models"
	"github.com/meinhoongagan/clinic-booking/scheduling"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// SlotSource answers availability queries.
type SlotSource interface {
	GetAvailableSlots(ctx context.Context, q scheduling.AvailabilityQuery) ([]scheduling.Slot, error)
}

// AvailabilityCache is a read-through cache in front of the availability
// service. Each doctor-day is one hash keyed availability:{doctor}:{date}
// whose fields are {center}|{visitKind}, so a booking drops every variant of
// that day at once. The booking write path never reads from here.
type AvailabilityCache struct {
	client *redis.Client
	next   SlotSource
	ttl    time.Duration
	log    *zap.Logger
}

func NewAvailabilityCache(client *redis.Client, next SlotSource, ttl time.Duration, log *zap.Logger) *AvailabilityCache {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &AvailabilityCache{client: client, next: next, ttl: ttl, log: log}
}

var (
	_ SlotSource             = (*AvailabilityCache)(nil)
	_ scheduling.Observer    = (*AvailabilityCache)(nil)
	_ scheduling.Invalidator = (*AvailabilityCache)(nil)
)

func dayKey(doctorID uuid.UUID, date string) string {
	return fmt.Sprintf("availability:%s:%s", doctorID, date)
}

func doctorPattern(doctorID uuid.UUID) string {
	return fmt.Sprintf("availability:%s:*", doctorID)
}

func queryField(q scheduling.AvailabilityQuery) string {
	kind := q.VisitKind
	if kind == "" {
		kind = models.VisitClinic
	}
	center := "-"
	if q.CenterID != nil && kind != models.VisitHome {
		center = q.CenterID.String()
	}
	return center + "|" + string(kind)
}

// GetAvailableSlots serves from Redis when possible. Cache failures fall
// through to the underlying source.
func (c *AvailabilityCache) GetAvailableSlots(ctx context.Context, q scheduling.AvailabilityQuery) ([]scheduling.Slot, error) {
	key, field := dayKey(q.DoctorID, q.Date), queryField(q)

	raw, err := c.client.HGet(ctx, key, field).Bytes()
	switch {
	case err == nil:
		var slots []scheduling.Slot
		if jerr := json.Unmarshal(raw, &slots); jerr == nil {
			return slots, nil
		}
		c.log.Warn("discarding undecodable cache entry", zap.String("key", key), zap.String("field", field))
	case err != redis.Nil:
		c.log.Warn("availability cache read failed", zap.String("key", key), zap.Error(err))
	}

	slots, err := c.next.GetAvailableSlots(ctx, q)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(slots)
	if err != nil {
		return slots, nil
	}
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, field, payload)
	pipe.Expire(ctx, key, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		c.log.Warn("availability cache write failed", zap.String("key", key), zap.Error(err))
	}
	return slots, nil
}

// AppointmentChanged drops the cached days an event touched.
func (c *AvailabilityCache) AppointmentChanged(ctx context.Context, e scheduling.Event) {
	if e.Kind == scheduling.EventConflict {
		return
	}
	keys := []string{dayKey(e.Appointment.DoctorID, e.Appointment.Date)}
	if e.PreviousDate != "" && e.PreviousDate != e.Appointment.Date {
		keys = append(keys, dayKey(e.Appointment.DoctorID, e.PreviousDate))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn("availability cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

// InvalidateDoctor drops every cached day of a doctor after a schedule edit.
func (c *AvailabilityCache) InvalidateDoctor(ctx context.Context, doctorID uuid.UUID) {
	iter := c.client.Scan(ctx, 0, doctorPattern(doctorID), 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.log.Warn("availability cache scan failed", zap.String("doctor_id", doctorID.String()), zap.Error(err))
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn("availability cache invalidation failed", zap.String("doctor_id", doctorID.String()), zap.Error(err))
	}
}
