package services

import (
	"fmt"
	"strings"

	"github.com/smarttransit/transfer-booking-backend/internal/models"
)

// extraAliases lists the known lowercase external ids of each semantic extra
var extraAliases = map[models.ExtraName][]string{
	models.ExtraFlightDelayGuarantee: {"flightdelayguarantee", "delayguarantee", "fld"},
	models.ExtraChildSeatInfant:      {"childseat0-13kg", "childseatinfant"},
	models.ExtraChildSeatChild:       {"childseat14-36kg", "childseatchild", "childseat", "childseatchildren"},
	models.ExtraBaggage:              {"extrabaggage"},
	models.ExtraOddSizeBaggage:       {"oddsizebaggage", "oddsizedbaggage"},
}

// KnownExtra reports whether name is a semantic extra with aliases
func KnownExtra(name models.ExtraName) bool {
	_, ok := extraAliases[name]
	return ok
}

// ParseCatalogDocument reads the resolution fields of an activity or cross-sale payload
func ParseCatalogDocument(doc models.JSONB) (models.CatalogDocument, error) {
	var parsed models.CatalogDocument
	if doc == nil {
		return parsed, fmt.Errorf("catalog document is empty")
	}
	if err := doc.Decode(&parsed); err != nil {
		return parsed, fmt.Errorf("failed to parse catalog document: %w", err)
	}
	return parsed, nil
}

// AssignPricingCategories picks the default, child and teen categories.
// Child is the first category whose ticketCategory+title contains CHILD,
// falling back to the default; teen matches TEEN and falls back to child.
// found is false when no category carries the default flag.
func AssignPricingCategories(doc models.CatalogDocument) (assignment models.PricingCategoryAssignment, found bool) {
	var def, child, teen *models.PricingCategory

	for i := range doc.PricingCategories {
		cat := &doc.PricingCategories[i]
		label := strings.ToUpper(cat.TicketCategory + cat.Title)

		if def == nil && cat.DefaultCategory {
			def = cat
		}
		if child == nil && strings.Contains(label, "CHILD") {
			child = cat
		}
		if teen == nil && strings.Contains(label, "TEEN") {
			teen = cat
		}
	}

	if def == nil {
		return assignment, false
	}
	if child == nil {
		child = def
	}
	if teen == nil {
		teen = child
	}

	return models.PricingCategoryAssignment{
		Default: def.ID,
		Child:   child.ID,
		Teen:    teen.ID,
	}, true
}

// FindExtra returns the first bookable extra whose lowercased external id
// is an alias of name.
func FindExtra(doc models.CatalogDocument, name models.ExtraName) (models.ResolvedExtra, bool) {
	aliases, ok := extraAliases[name]
	if !ok {
		return models.ResolvedExtra{}, false
	}

	for _, extra := range doc.BookableExtras {
		externalID := strings.ToLower(extra.ExternalID)
		for _, alias := range aliases {
			if externalID != alias {
				continue
			}

			resolved := models.ResolvedExtra{ID: extra.ID}
			for _, q := range extra.Questions {
				resolved.QuestionIDs = append(resolved.QuestionIDs, q.ID)
			}
			return resolved, true
		}
	}

	return models.ResolvedExtra{}, false
}

// AssignExtras resolves every semantic extra; unmatched names are absent
func AssignExtras(doc models.CatalogDocument) models.ExtraAssignment {
	assignment := make(models.ExtraAssignment, len(extraAliases))
	for name := range extraAliases {
		if extra, ok := FindExtra(doc, name); ok {
			assignment[name] = extra
		}
	}
	return assignment
}
