package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/transfer-booking-backend/internal/models"
)

// BookingWorkflowConfig holds configuration for the booking workflow
type BookingWorkflowConfig struct {
	DefaultCurrency string // Currency of availability based quotes (default ISK)
}

// DefaultBookingWorkflowConfig returns default configuration
func DefaultBookingWorkflowConfig() BookingWorkflowConfig {
	return BookingWorkflowConfig{
		DefaultCurrency: "ISK",
	}
}

// BookingWorkflowService puts one-way and round-trip transfers into a remote cart
type BookingWorkflowService struct {
	catalog      CatalogStore
	resolver     *CatalogResolver
	availability *AvailabilityService
	carts        *CartRegistry
	prices       *PriceTableService
	config       BookingWorkflowConfig
	logger       *logrus.Logger
}

// NewBookingWorkflowService creates a new booking workflow service
func NewBookingWorkflowService(
	catalog CatalogStore,
	resolver *CatalogResolver,
	availability *AvailabilityService,
	carts *CartRegistry,
	prices *PriceTableService,
	config BookingWorkflowConfig,
	logger *logrus.Logger,
) *BookingWorkflowService {
	if config.DefaultCurrency == "" {
		config.DefaultCurrency = DefaultBookingWorkflowConfig().DefaultCurrency
	}
	return &BookingWorkflowService{
		catalog:      catalog,
		resolver:     resolver,
		availability: availability,
		carts:        carts,
		prices:       prices,
		config:       config,
		logger:       logger,
	}
}

// legPlan is everything needed to book one direction
type legPlan struct {
	direction   models.Direction
	departure   time.Time
	pickupID    *int64
	pickupText  string
	dropoffID   *int64
	dropoffText string
}

// ============================================================================
// BOOK
// ============================================================================

// Book adds the outbound leg and, for round trips, the inbound leg to the cart.
// A failed outbound leg is returned as-is and the inbound leg is never attempted.
func (s *BookingWorkflowService) Book(ctx context.Context, req models.BookingRequest) (*models.BookingResult, error) {
	// 1. Validate request
	if err := validateBookingRequest(req); err != nil {
		return nil, err
	}

	// 2. Load product
	product, err := s.loadProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if product.MaxPeople > 0 && req.Travelers() > product.MaxPeople {
		return nil, &ValidationError{
			Message: fmt.Sprintf("product %d takes at most %d travelers", product.ID, product.MaxPeople),
		}
	}

	// 3. Open cart session
	cart, err := s.carts.Open(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	logger := s.logger.WithFields(logrus.Fields{
		"session_id": cart.SessionID(),
		"product_id": product.ID,
		"round_trip": req.RoundTrip,
	})

	// 4. Outbound leg
	outbound := legPlan{
		direction:   req.Direction,
		departure:   req.Departure,
		pickupID:    req.PickupPlaceID,
		pickupText:  req.PickupText,
		dropoffID:   req.DropoffPlaceID,
		dropoffText: req.DropoffText,
	}

	outLeg, state, err := s.bookLeg(ctx, cart, product, req, outbound)
	if err != nil {
		logger.WithError(err).Warn("Outbound leg failed")
		return nil, err
	}

	result := &models.BookingResult{
		SessionID: cart.SessionID(),
		Outbound:  *outLeg,
		Cart:      state,
	}

	if !req.RoundTrip {
		logger.Info("One-way transfer added to cart")
		return result, nil
	}

	// 5. Inbound leg only with a usable session from the outbound call
	if state == nil || state.SessionID == "" {
		logger.Warn("Outbound cart carried no session id, skipping inbound leg")
		return result, nil
	}

	inbound := legPlan{
		direction:   req.Direction.Opposite(),
		departure:   *req.ReturnDeparture,
		pickupID:    req.DropoffPlaceID,
		pickupText:  req.DropoffText,
		dropoffID:   req.PickupPlaceID,
		dropoffText: req.PickupText,
	}

	inLeg, state, err := s.bookLeg(ctx, cart, product, req, inbound)
	if err != nil {
		logger.WithError(err).Warn("Inbound leg failed, outbound leg stays in cart")
		return nil, err
	}

	result.Inbound = inLeg
	result.Cart = state

	logger.Info("Round-trip transfer added to cart")
	return result, nil
}

// bookLeg resolves every identifier from fresh documents and adds the leg
func (s *BookingWorkflowService) bookLeg(
	ctx context.Context,
	cart *CartService,
	product *models.BookableProduct,
	req models.BookingRequest,
	plan legPlan,
) (*models.LegResult, *models.CartState, error) {
	// 1. Activity variant
	activityID, err := s.resolver.ResolveActivity(product, plan.direction, req.HotelConnection, req.RoundTrip)
	if err != nil {
		return nil, nil, err
	}

	// 2. Fresh catalog document and departure
	activity, err := s.resolver.FetchActivity(ctx, activityID)
	if err != nil {
		return nil, nil, err
	}

	startTimeID, err := s.resolver.ResolveTimeSlot(ctx, activityID, plan.departure, req.StrictTime)
	if err != nil {
		return nil, nil, err
	}

	// 3. Categories and extras
	categories, err := s.resolver.ResolvePricingCategories(activity.Document)
	if err != nil {
		return nil, nil, err
	}

	bookings := make([]models.PricingCategoryBooking, 0, req.Travelers())
	groups := []struct {
		count      int
		categoryID int64
		selections []models.ExtraSelection
	}{
		{req.Adults, categories.Default, req.AdultExtras},
		{req.Children, categories.Child, req.ChildExtras},
		{req.Teenagers, categories.Teen, req.TeenExtras},
	}

	for _, group := range groups {
		if group.count == 0 {
			continue
		}
		extras, err := s.resolveExtras(activity.Document, group.selections)
		if err != nil {
			return nil, nil, err
		}
		for i := 0; i < group.count; i++ {
			bookings = append(bookings, models.PricingCategoryBooking{
				PricingCategoryID: group.categoryID,
				Extras:            extras,
			})
		}
	}

	// 4. Locations
	date := plan.departure.In(s.availability.Location()).Format(DateLayout)
	addReq := models.AddActivityRequest{
		ActivityID:              activityID,
		StartTimeID:             startTimeID,
		Date:                    date,
		PricingCategoryBookings: bookings,
	}

	if req.CustomLocations {
		addReq.PickupPlaceDescription = s.describePlace(ctx, plan.pickupID, plan.pickupText)
		addReq.DropoffPlaceDescription = s.describePlace(ctx, plan.dropoffID, plan.dropoffText)
		addReq.Pickup = addReq.PickupPlaceDescription != ""
	} else {
		addReq.PickupPlaceID = plan.pickupID
		addReq.DropoffPlaceID = plan.dropoffID
		addReq.Pickup = plan.pickupID != nil
	}

	// 5. Add to cart
	state, err := cart.AddActivity(ctx, addReq)
	if err != nil {
		return nil, nil, err
	}

	return &models.LegResult{
		Direction:   plan.direction,
		ActivityID:  activityID,
		StartTimeID: startTimeID,
		Date:        date,
	}, state, nil
}

// resolveExtras builds the extras carried by every passenger of a group
func (s *BookingWorkflowService) resolveExtras(doc models.JSONB, selections []models.ExtraSelection) ([]models.ExtraBooking, error) {
	extras := make([]models.ExtraBooking, 0, len(selections))

	for _, sel := range selections {
		extra, err := s.resolver.ResolveExtra(doc, sel.Name)
		if err != nil {
			return nil, err
		}

		units := sel.Units
		if units <= 0 {
			units = 1
		}

		booking := models.ExtraBooking{
			ExtraID:   extra.ID,
			UnitCount: units,
			Answers:   []models.ExtraAnswer{},
		}
		if sel.Answer != "" && len(extra.QuestionIDs) > 0 {
			booking.Answers = append(booking.Answers, models.ExtraAnswer{
				QuestionID: extra.QuestionIDs[0],
				Values:     []string{sel.Answer},
			})
		}

		extras = append(extras, booking)
	}

	return extras, nil
}

// PlaceTitle looks up the title of a known place
func (s *BookingWorkflowService) PlaceTitle(ctx context.Context, placeID int64) (string, bool) {
	place, err := s.catalog.GetPlace(ctx, placeID)
	if err != nil {
		s.logger.WithError(err).WithField("place_id", placeID).Warn("Place lookup failed")
		return "", false
	}
	if place == nil {
		return "", false
	}
	return place.Title, true
}

// describePlace prefers the title of a known place, then the caller's text,
// then the raw id.
func (s *BookingWorkflowService) describePlace(ctx context.Context, placeID *int64, text string) string {
	if placeID == nil {
		return text
	}
	if title, ok := s.PlaceTitle(ctx, *placeID); ok {
		return title
	}
	if text != "" {
		return text
	}
	return strconv.FormatInt(*placeID, 10)
}

// ============================================================================
// LISTINGS AND QUOTES
// ============================================================================

// Departures lists the time slots of the matching product variant for display
func (s *BookingWorkflowService) Departures(ctx context.Context, productID int64, direction models.Direction, hotelConnection, roundTrip bool, date time.Time) ([]models.TimeSlot, error) {
	if !direction.Valid() {
		return nil, &ValidationError{Message: fmt.Sprintf("invalid direction %q", direction)}
	}

	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	activityID, err := s.resolver.ResolveActivity(product, direction, hotelConnection, roundTrip)
	if err != nil {
		return nil, err
	}

	return s.availability.ListSlots(ctx, activityID, date)
}

// Quote prices a party: per vehicle from the price table for private and
// luxury products, per seat from the first open departure otherwise.
func (s *BookingWorkflowService) Quote(ctx context.Context, productID int64, travelers int, date time.Time) (*models.Quote, error) {
	if travelers < 1 {
		return nil, &ValidationError{Message: "at least one traveler is required"}
	}

	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	quote := &models.Quote{
		ProductID: product.ID,
		Kind:      product.Kind,
		Travelers: travelers,
	}

	if !product.Kind.SingleSeatBooking() {
		price, currency, err := s.prices.Price(product.Kind, travelers)
		if err != nil {
			return nil, err
		}
		quote.Amount = price
		quote.Currency = currency
		quote.Source = "price_table"
		return quote, nil
	}

	activityID, err := s.resolver.ResolveActivity(product, models.DirectionOutbound, false, false)
	if err != nil {
		return nil, err
	}

	slots, err := s.availability.ListSlots(ctx, activityID, date)
	if err != nil {
		return nil, err
	}

	for _, slot := range slots {
		if slot.Available < travelers {
			continue
		}
		quote.Amount = float64(slot.CategoryPrices.Adult * travelers)
		quote.Currency = s.config.DefaultCurrency
		quote.Source = "availability"
		return quote, nil
	}

	return nil, &ResolutionError{
		Kind:    ResolutionConfig,
		Message: fmt.Sprintf("no departure of product %d on %s has room for %d travelers", product.ID, date.Format(DateLayout), travelers),
	}
}

func (s *BookingWorkflowService) loadProduct(ctx context.Context, productID int64) (*models.BookableProduct, error) {
	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product %d: %w", productID, err)
	}
	if product == nil {
		return nil, &ResolutionError{
			Kind:    ResolutionProductNotFound,
			Message: fmt.Sprintf("product %d not found", productID),
		}
	}
	return product, nil
}

func validateBookingRequest(req models.BookingRequest) error {
	if !req.Direction.Valid() {
		return &ValidationError{Message: fmt.Sprintf("invalid direction %q", req.Direction)}
	}
	if req.Adults < 0 || req.Children < 0 || req.Teenagers < 0 {
		return &ValidationError{Message: "passenger counts cannot be negative"}
	}
	if req.Travelers() < 1 {
		return &ValidationError{Message: "at least one traveler is required"}
	}
	if req.Departure.IsZero() {
		return &ValidationError{Message: "departure is required"}
	}
	if req.RoundTrip {
		if req.ReturnDeparture == nil {
			return &ValidationError{Message: "return departure is required for round trips"}
		}
		if !req.ReturnDeparture.After(req.Departure) {
			return &ValidationError{Message: "return departure must be after departure"}
		}
	}

	for _, group := range [][]models.ExtraSelection{req.AdultExtras, req.ChildExtras, req.TeenExtras} {
		for _, sel := range group {
			if !KnownExtra(sel.Name) {
				return &ValidationError{Message: fmt.Sprintf("unknown extra %q", sel.Name)}
			}
		}
	}

	return nil
}
