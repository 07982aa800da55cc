package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/transfer-booking-backend/internal/models"
	"github.com/smarttransit/transfer-booking-backend/pkg/bokun"
)

// CatalogStore is the read-only local catalog
type CatalogStore interface {
	GetProduct(ctx context.Context, productID int64) (*models.BookableProduct, error)
	ListProducts(ctx context.Context) ([]models.BookableProduct, error)
	GetPlace(ctx context.Context, placeID int64) (*models.Place, error)
}

// CatalogResolver turns products, dates and semantic names into remote ids.
// Every lookup that feeds a cart call reads fresh documents from Bokun.
type CatalogResolver struct {
	client       BokunAPI
	availability *AvailabilityService
	logger       *logrus.Logger
}

// NewCatalogResolver creates a new catalog resolver
func NewCatalogResolver(client BokunAPI, availability *AvailabilityService, logger *logrus.Logger) *CatalogResolver {
	return &CatalogResolver{
		client:       client,
		availability: availability,
		logger:       logger,
	}
}

// ResolveActivity walks the variant fallback chain:
// (direction, hc, rt) -> (direction, hc, false) -> (direction, false, false).
// A product with a free hotel connection never resolves a hotel-connection variant.
func (r *CatalogResolver) ResolveActivity(product *models.BookableProduct, direction models.Direction, wantsHotelConnection, wantsRoundTrip bool) (int64, error) {
	if product == nil {
		return 0, &ResolutionError{Kind: ResolutionProductNotFound, Message: "product not found"}
	}

	hotelConnection := wantsHotelConnection && !product.FreeHotelConnection

	chain := []models.VariantKey{
		{Direction: direction, HotelConnection: hotelConnection, RoundTrip: wantsRoundTrip},
		{Direction: direction, HotelConnection: hotelConnection, RoundTrip: false},
		{Direction: direction, HotelConnection: false, RoundTrip: false},
	}

	for _, key := range chain {
		if activityID, ok := product.Variants[key]; ok {
			return activityID, nil
		}
	}

	return 0, &ResolutionError{
		Kind:    ResolutionConfig,
		Message: fmt.Sprintf("product %d has no plain %s variant", product.ID, direction),
	}
}

// FetchActivity loads the current activity document from Bokun
func (r *CatalogResolver) FetchActivity(ctx context.Context, activityID int64) (*models.Activity, error) {
	resp, err := r.client.Get(ctx, bokun.ActivityPath(activityID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch activity %d: %w", activityID, err)
	}

	var doc models.JSONB
	if err := resp.Decode(&doc); err != nil {
		return nil, err
	}

	activity := &models.Activity{
		ID:       activityID,
		Document: doc,
		SyncedAt: time.Now(),
	}
	if v, ok := doc["externalId"].(string); ok {
		activity.ExternalID = v
	}
	if v, ok := doc["title"].(string); ok {
		activity.Title = v
	}

	return activity, nil
}

// ResolveTimeSlot finds the slot starting at desired on its booking date.
// Without strict, the nearest later slot is used instead.
func (r *CatalogResolver) ResolveTimeSlot(ctx context.Context, activityID int64, desired time.Time, strict bool) (int64, error) {
	slots, err := r.availability.FetchSlots(ctx, activityID, desired)
	if err != nil {
		return 0, err
	}

	for _, slot := range slots {
		if slot.Start.Equal(desired) {
			return slot.ID, nil
		}
	}

	if strict {
		times := make([]string, 0, len(slots))
		for _, slot := range slots {
			times = append(times, slot.StartTime)
		}
		return 0, &ResolutionError{
			Kind:    ResolutionInvalidStartTime,
			Message: fmt.Sprintf("invalid start time: must be one of: %s", strings.Join(times, ", ")),
		}
	}

	var nearest *models.TimeSlot
	for i := range slots {
		slot := &slots[i]
		if !slot.Start.After(desired) {
			continue
		}
		if nearest == nil || slot.Start.Sub(desired) < nearest.Start.Sub(desired) {
			nearest = slot
		}
	}

	if nearest == nil {
		return 0, &ResolutionError{
			Kind: ResolutionConfig,
			Message: fmt.Sprintf("no departure of activity %d after %s",
				activityID, desired.In(r.availability.Location()).Format("2006-01-02 15:04")),
		}
	}

	r.logger.WithFields(logrus.Fields{
		"activity_id":    activityID,
		"requested_time": desired.In(r.availability.Location()).Format("15:04"),
		"resolved_time":  nearest.Time,
	}).Debug("Using nearest later departure")

	return nearest.ID, nil
}

// ResolvePricingCategories derives default, child and teen category ids
func (r *CatalogResolver) ResolvePricingCategories(doc models.JSONB) (models.PricingCategoryAssignment, error) {
	parsed, err := ParseCatalogDocument(doc)
	if err != nil {
		return models.PricingCategoryAssignment{}, &ResolutionError{Kind: ResolutionConfig, Message: err.Error()}
	}

	assignment, found := AssignPricingCategories(parsed)
	if !found {
		return assignment, &ResolutionError{
			Kind:    ResolutionMissingCategory,
			Message: fmt.Sprintf("activity %d has no default pricing category", parsed.ID),
		}
	}

	return assignment, nil
}

// ResolveExtra maps a semantic extra name to the activity's extra
func (r *CatalogResolver) ResolveExtra(doc models.JSONB, name models.ExtraName) (models.ResolvedExtra, error) {
	parsed, err := ParseCatalogDocument(doc)
	if err != nil {
		return models.ResolvedExtra{}, &ResolutionError{Kind: ResolutionConfig, Message: err.Error()}
	}

	extra, found := FindExtra(parsed, name)
	if !found {
		return extra, &ResolutionError{
			Kind:    ResolutionExtraUnavailable,
			Message: fmt.Sprintf("extra unavailable: %s", name),
		}
	}

	return extra, nil
}
