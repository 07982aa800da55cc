package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/smarttransit/transfer-booking-backend/internal/models"
)

// AvailabilityCache keeps display availability for a short time. It is
// never consulted when resolving a booking.
type AvailabilityCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewAvailabilityCache creates a cache; ttl <= 0 uses TTLAvailability
func NewAvailabilityCache(rdb *redis.Client, ttl time.Duration) *AvailabilityCache {
	if ttl <= 0 {
		ttl = TTLAvailability
	}
	return &AvailabilityCache{rdb: rdb, ttl: ttl}
}

// GetSlots returns the cached slots; found is false on a miss
func (c *AvailabilityCache) GetSlots(ctx context.Context, activityID int64, date string) ([]models.TimeSlot, bool, error) {
	raw, err := c.rdb.Get(ctx, AvailabilityKey(activityID, date)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read availability cache: %w", err)
	}

	var slots []models.TimeSlot
	if err := json.Unmarshal(raw, &slots); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached availability: %w", err)
	}
	return slots, true, nil
}

// SetSlots stores slots under the activity day key
func (c *AvailabilityCache) SetSlots(ctx context.Context, activityID int64, date string, slots []models.TimeSlot) error {
	raw, err := json.Marshal(slots)
	if err != nil {
		return fmt.Errorf("failed to encode availability: %w", err)
	}

	if err := c.rdb.Set(ctx, AvailabilityKey(activityID, date), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write availability cache: %w", err)
	}
	return nil
}
