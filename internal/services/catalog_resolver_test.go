package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/smarttransit/transfer-booking-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver(t *testing.T) (*fakeBokun, *CatalogResolver) {
	fb, client := newFakeBokun(t)
	availability := NewAvailabilityService(client, nil, nil, testLogger())
	return fb, NewCatalogResolver(client, availability, testLogger())
}

func TestResolveActivity_FallbackChain(t *testing.T) {
	out := models.DirectionOutbound
	full := map[models.VariantKey]int64{
		{Direction: out, HotelConnection: true, RoundTrip: true}:   1,
		{Direction: out, HotelConnection: true, RoundTrip: false}:  2,
		{Direction: out, HotelConnection: false, RoundTrip: true}:  3,
		{Direction: out, HotelConnection: false, RoundTrip: false}: 4,
	}
	noRoundTrips := map[models.VariantKey]int64{
		{Direction: out, HotelConnection: true, RoundTrip: false}:  2,
		{Direction: out, HotelConnection: false, RoundTrip: false}: 4,
	}
	plainOnly := map[models.VariantKey]int64{
		{Direction: out, HotelConnection: false, RoundTrip: false}: 4,
	}

	tests := []struct {
		name     string
		variants map[models.VariantKey]int64
		freeHC   bool
		hc, rt   bool
		want     int64
	}{
		{"exact match", full, false, true, true, 1},
		{"plain request", full, false, false, false, 4},
		{"round trip without hotel connection", full, false, false, true, 3},
		{"drop round trip", noRoundTrips, false, true, true, 2},
		{"drop hotel connection too", plainOnly, false, true, true, 4},
		{"free hotel connection overrides caller", full, true, true, true, 3},
		{"free hotel connection with plain fallback", noRoundTrips, true, true, true, 4},
	}

	_, resolver := newTestResolver(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			product := &models.BookableProduct{ID: 7, FreeHotelConnection: tt.freeHC, Variants: tt.variants}
			got, err := resolver.ResolveActivity(product, out, tt.hc, tt.rt)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveActivity_MissingPlainVariant(t *testing.T) {
	_, resolver := newTestResolver(t)

	product := &models.BookableProduct{
		ID: 7,
		Variants: map[models.VariantKey]int64{
			{Direction: models.DirectionInbound, HotelConnection: false, RoundTrip: false}: 4,
		},
	}

	_, err := resolver.ResolveActivity(product, models.DirectionOutbound, false, false)
	assert.True(t, IsResolutionKind(err, ResolutionConfig))

	_, err = resolver.ResolveActivity(nil, models.DirectionOutbound, false, false)
	assert.True(t, IsResolutionKind(err, ResolutionProductNotFound))
}

func TestResolveTimeSlot(t *testing.T) {
	tests := []struct {
		name    string
		desired int
		strict  bool
		want    int64
		kind    ResolutionKind
		message string
	}{
		{name: "exact match", desired: 830, strict: true, want: 101},
		{name: "exact match on sold out slot", desired: 1800, strict: true, want: 103},
		{name: "strict lists sorted times", desired: 900, strict: true, kind: ResolutionInvalidStartTime,
			message: "invalid start time: must be one of: 08:30, 14:00, 18:00"},
		{name: "nearest later departure", desired: 900, strict: false, want: 102},
		{name: "nearest later before first", desired: 600, strict: false, want: 101},
		{name: "nothing later", desired: 2000, strict: false, kind: ResolutionConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb, resolver := newTestResolver(t)
			fb.reply("GET", "/activity.json/55/availabilities", availabilityJSON())

			got, err := resolver.ResolveTimeSlot(context.Background(), 55, at(tt.desired/100, tt.desired%100), tt.strict)

			if tt.kind != "" {
				require.Error(t, err)
				assert.True(t, IsResolutionKind(err, tt.kind))
				if tt.message != "" {
					assert.Equal(t, tt.message, err.Error())
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			calls := fb.callsTo("GET", "/activity.json/55/availabilities")
			require.Len(t, calls, 1)
			assert.Equal(t, "2024-05-01", calls[0].Query.Get("start"))
			assert.Equal(t, "2024-05-01", calls[0].Query.Get("end"))
			assert.Equal(t, "true", calls[0].Query.Get("includeSoldOut"))
		})
	}
}

func TestResolveTimeSlot_ListsUpstreamTimes(t *testing.T) {
	fb, resolver := newTestResolver(t)
	fb.reply("GET", "/activity.json/55/availabilities", fmt.Sprintf(`[
		{"date": %d, "startTime": "13:15", "startTimeId": 102, "availabilityCount": 5},
		{"date": %d, "startTime": "9:00", "startTimeId": 101, "availabilityCount": 5}
	]`, may1, may1))

	_, err := resolver.ResolveTimeSlot(context.Background(), 55, at(10, 0), true)
	require.Error(t, err)
	assert.Equal(t, "invalid start time: must be one of: 9:00, 13:15", err.Error())

	id, err := resolver.ResolveTimeSlot(context.Background(), 55, at(9, 0), true)
	require.NoError(t, err)
	assert.Equal(t, int64(101), id)
}

func TestResolveTimeSlot_FetchesEveryTime(t *testing.T) {
	fb, resolver := newTestResolver(t)
	fb.reply("GET", "/activity.json/55/availabilities", availabilityJSON())

	for i := 0; i < 2; i++ {
		_, err := resolver.ResolveTimeSlot(context.Background(), 55, at(8, 30), true)
		require.NoError(t, err)
	}

	assert.Len(t, fb.callsTo("GET", "/activity.json/55/availabilities"), 2)
}

func TestFetchActivity(t *testing.T) {
	fb, resolver := newTestResolver(t)
	fb.reply("GET", "/activity.json/55", activityJSON(55))

	activity, err := resolver.FetchActivity(context.Background(), 55)
	require.NoError(t, err)

	assert.Equal(t, int64(55), activity.ID)
	assert.Equal(t, "AT-55", activity.ExternalID)
	assert.Equal(t, "Airport transfer 55", activity.Title)

	categories, err := resolver.ResolvePricingCategories(activity.Document)
	require.NoError(t, err)
	assert.Equal(t, models.PricingCategoryAssignment{Default: 11, Child: 12, Teen: 13}, categories)

	extra, err := resolver.ResolveExtra(activity.Document, models.ExtraFlightDelayGuarantee)
	require.NoError(t, err)
	assert.Equal(t, models.ResolvedExtra{ID: 21, QuestionIDs: []int64{31}}, extra)

	_, err = resolver.ResolveExtra(activity.Document, models.ExtraOddSizeBaggage)
	require.Error(t, err)
	assert.True(t, IsResolutionKind(err, ResolutionExtraUnavailable))
	assert.Equal(t, "extra unavailable: odd_size_baggage", err.Error())
}

func TestResolvePricingCategories_NoDefault(t *testing.T) {
	_, resolver := newTestResolver(t)

	doc := mustJSONB(t, `{"id": 3, "pricingCategories": [{"id": 1, "title": "Kids", "ticketCategory": "CHILD"}]}`)

	_, err := resolver.ResolvePricingCategories(doc)
	assert.True(t, IsResolutionKind(err, ResolutionMissingCategory))
}
