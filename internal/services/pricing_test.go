package services

import (
	"testing"

	"github.com/smarttransit/transfer-booking-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignPricingCategories(t *testing.T) {
	adult := models.PricingCategory{ID: 1, Title: "Adult", TicketCategory: "ADULT", DefaultCategory: true}
	child := models.PricingCategory{ID: 2, Title: "Kids", TicketCategory: "CHILD"}
	teen := models.PricingCategory{ID: 3, Title: "Teenager 12-15", TicketCategory: "OTHER"}
	childTitle := models.PricingCategory{ID: 4, Title: "Children", TicketCategory: "OTHER"}

	tests := []struct {
		name       string
		categories []models.PricingCategory
		want       models.PricingCategoryAssignment
		found      bool
	}{
		{
			name:       "all three present",
			categories: []models.PricingCategory{adult, child, teen},
			want:       models.PricingCategoryAssignment{Default: 1, Child: 2, Teen: 3},
			found:      true,
		},
		{
			name:       "child falls back to default",
			categories: []models.PricingCategory{adult},
			want:       models.PricingCategoryAssignment{Default: 1, Child: 1, Teen: 1},
			found:      true,
		},
		{
			name:       "teen falls back to child",
			categories: []models.PricingCategory{adult, child},
			want:       models.PricingCategoryAssignment{Default: 1, Child: 2, Teen: 2},
			found:      true,
		},
		{
			name:       "child matched on title",
			categories: []models.PricingCategory{adult, childTitle},
			want:       models.PricingCategoryAssignment{Default: 1, Child: 4, Teen: 4},
			found:      true,
		},
		{
			name: "default category can match child",
			categories: []models.PricingCategory{
				{ID: 7, Title: "Child ticket", TicketCategory: "OTHER", DefaultCategory: true},
				child,
			},
			want:  models.PricingCategoryAssignment{Default: 7, Child: 7, Teen: 7},
			found: true,
		},
		{
			name:       "no default category",
			categories: []models.PricingCategory{child, teen},
			found:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := AssignPricingCategories(models.CatalogDocument{PricingCategories: tt.categories})
			assert.Equal(t, tt.found, found)
			if tt.found {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestFindExtra(t *testing.T) {
	doc := models.CatalogDocument{
		BookableExtras: []models.BookableExtra{
			{ID: 5, ExternalID: "ChildSeat", Questions: []models.ExtraQuestion{{ID: 50}}},
			{ID: 6, ExternalID: "childseat14-36kg"},
			{ID: 7, ExternalID: "DelayGuarantee", Questions: []models.ExtraQuestion{{ID: 70}, {ID: 71}}},
			{ID: 8, ExternalID: "OddSizedBaggage"},
		},
	}

	tests := []struct {
		name  string
		extra models.ExtraName
		want  models.ResolvedExtra
		found bool
	}{
		{"first alias match wins", models.ExtraChildSeatChild, models.ResolvedExtra{ID: 5, QuestionIDs: []int64{50}}, true},
		{"case insensitive with questions", models.ExtraFlightDelayGuarantee, models.ResolvedExtra{ID: 7, QuestionIDs: []int64{70, 71}}, true},
		{"second alias", models.ExtraOddSizeBaggage, models.ResolvedExtra{ID: 8}, true},
		{"absent extra", models.ExtraBaggage, models.ResolvedExtra{}, false},
		{"unknown name", models.ExtraName("lunch"), models.ResolvedExtra{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := FindExtra(doc, tt.extra)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAssignExtras(t *testing.T) {
	doc, err := ParseCatalogDocument(mustJSONB(t, activityJSON(1)))
	require.NoError(t, err)

	assignment := AssignExtras(doc)

	assert.Equal(t, int64(21), assignment[models.ExtraFlightDelayGuarantee].ID)
	assert.Equal(t, int64(22), assignment[models.ExtraBaggage].ID)
	assert.Equal(t, int64(23), assignment[models.ExtraChildSeatInfant].ID)
	_, ok := assignment[models.ExtraOddSizeBaggage]
	assert.False(t, ok)
	_, ok = assignment[models.ExtraChildSeatChild]
	assert.False(t, ok)
}

func TestCrossSaleItemsShareCategoryLogic(t *testing.T) {
	item := models.CrossSaleItem{
		ID: 9,
		Document: mustJSONB(t, `{"pricingCategories": [
			{"id": 91, "title": "Adult", "ticketCategory": "ADULT", "defaultCategory": true},
			{"id": 92, "title": "Youth", "ticketCategory": "TEENAGER", "defaultCategory": false}
		]}`),
	}

	doc, err := ParseCatalogDocument(item.Document)
	require.NoError(t, err)

	got, found := AssignPricingCategories(doc)
	require.True(t, found)
	assert.Equal(t, models.PricingCategoryAssignment{Default: 91, Child: 91, Teen: 92}, got)
}

func mustJSONB(t *testing.T, raw string) models.JSONB {
	t.Helper()
	var doc models.JSONB
	require.NoError(t, doc.Scan([]byte(raw)))
	return doc
}
