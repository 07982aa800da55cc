package redisx

import (
	"fmt"
	"time"
)

const (
	// Display availability: availability:{activity_id}:{yyyy-mm-dd} -> JSON []TimeSlot
	KeyAvailability = "availability:%d:%s"
)

var (
	TTLAvailability = 10 * time.Minute
)

// AvailabilityKey returns the cache key of one activity day
func AvailabilityKey(activityID int64, date string) string {
	return fmt.Sprintf(KeyAvailability, activityID, date)
}
