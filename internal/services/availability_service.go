package services

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/transfer-booking-backend/internal/models"
	"github.com/smarttransit/transfer-booking-backend/pkg/bokun"
)

// DateLayout is the booking date format used by Bokun
const DateLayout = "2006-01-02"

// BokunAPI is the subset of the signed client used by the services
type BokunAPI interface {
	Get(ctx context.Context, path string, query url.Values) (*bokun.Response, error)
	GetOnce(ctx context.Context, path string, query url.Values) (*bokun.Response, error)
	Post(ctx context.Context, path string, body interface{}, query url.Values) (*bokun.Response, error)
}

// AvailabilityCache stores display listings of time slots
type AvailabilityCache interface {
	GetSlots(ctx context.Context, activityID int64, date string) ([]models.TimeSlot, bool, error)
	SetSlots(ctx context.Context, activityID int64, date string, slots []models.TimeSlot) error
}

// AvailabilityService fetches time slots for an activity and date
type AvailabilityService struct {
	client   BokunAPI
	cache    AvailabilityCache
	location *time.Location
	logger   *logrus.Logger
}

// NewAvailabilityService creates a new availability service. cache may be nil.
func NewAvailabilityService(client BokunAPI, cache AvailabilityCache, location *time.Location, logger *logrus.Logger) *AvailabilityService {
	if location == nil {
		location = time.UTC
	}
	return &AvailabilityService{
		client:   client,
		cache:    cache,
		location: location,
		logger:   logger,
	}
}

// Location returns the timezone slot times are interpreted in
func (s *AvailabilityService) Location() *time.Location {
	return s.location
}

// FetchSlots always asks Bokun. Used for every resolution feeding a mutating call.
func (s *AvailabilityService) FetchSlots(ctx context.Context, activityID int64, date time.Time) ([]models.TimeSlot, error) {
	day := date.In(s.location).Format(DateLayout)

	query, err := bokun.EncodeQuery(bokun.AvailabilityQuery{
		Start:          day,
		End:            day,
		IncludeSoldOut: true,
	})
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Get(ctx, bokun.AvailabilityPath(activityID), query)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch availability for activity %d: %w", activityID, err)
	}

	var records []models.AvailabilityRecord
	if err := resp.Decode(&records); err != nil {
		return nil, err
	}

	return s.toSlots(records)
}

// ListSlots serves display listings, cached when a cache is configured
func (s *AvailabilityService) ListSlots(ctx context.Context, activityID int64, date time.Time) ([]models.TimeSlot, error) {
	day := date.In(s.location).Format(DateLayout)

	if s.cache != nil {
		slots, ok, err := s.cache.GetSlots(ctx, activityID, day)
		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"activity_id": activityID,
				"date":        day,
				"error":       err,
			}).Warn("Availability cache read failed")
		} else if ok {
			return slots, nil
		}
	}

	slots, err := s.FetchSlots(ctx, activityID, date)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetSlots(ctx, activityID, day, slots); err != nil {
			s.logger.WithFields(logrus.Fields{
				"activity_id": activityID,
				"date":        day,
				"error":       err,
			}).Warn("Availability cache write failed")
		}
	}

	return slots, nil
}

// toSlots converts raw records. Upstream ordering is not trusted, so the
// result is sorted by (date, start time).
func (s *AvailabilityService) toSlots(records []models.AvailabilityRecord) ([]models.TimeSlot, error) {
	slots := make([]models.TimeSlot, 0, len(records))

	for _, r := range records {
		day := time.UnixMilli(r.Date).In(s.location).Format(DateLayout)

		start, err := time.ParseInLocation(DateLayout+" 15:04", day+" "+r.StartTime, s.location)
		if err != nil {
			return nil, fmt.Errorf("invalid start time %q for slot %d: %w", r.StartTime, r.StartTimeID, err)
		}

		available := r.AvailabilityCount
		if r.SoldOut || r.Unavailable {
			available = 0
		}

		extraPrices := make(map[int64]int, len(r.ExtraPrices))
		for id, price := range r.ExtraPrices {
			extraID, err := strconv.ParseInt(id, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid extra id %q in slot %d: %w", id, r.StartTimeID, err)
			}
			extraPrices[extraID] = int(price)
		}

		slots = append(slots, models.TimeSlot{
			ID:             r.StartTimeID,
			Start:          start,
			Date:           day,
			Time:           start.Format("15:04"),
			StartTime:      r.StartTime,
			Available:      available,
			CategoryPrices: categoryPrices(r.PricesByCategory),
			ExtraPrices:    extraPrices,
		})
	}

	sort.SliceStable(slots, func(i, j int) bool {
		if slots[i].Date != slots[j].Date {
			return slots[i].Date < slots[j].Date
		}
		return slots[i].Start.Before(slots[j].Start)
	})

	return slots, nil
}

// categoryPrices takes the highest category price as adult and the lowest as child
func categoryPrices(prices map[string]float64) models.CategoryPrices {
	if len(prices) == 0 {
		return models.CategoryPrices{}
	}

	high, low := math.Inf(-1), math.Inf(1)
	for _, p := range prices {
		high = math.Max(high, p)
		low = math.Min(low, p)
	}

	return models.CategoryPrices{Adult: int(high), Child: int(low)}
}
