package bokun

import (
	"fmt"
	"net/url"

	"github.com/google/go-querystring/query"
)

// AvailabilityQuery selects the availability window of an activity
type AvailabilityQuery struct {
	Start          string `url:"start"`
	End            string `url:"end"`
	IncludeSoldOut bool   `url:"includeSoldOut"`
}

// ConfirmQuery controls customer notification on booking confirmation
type ConfirmQuery struct {
	SendCustomerNotification bool `url:"sendCustomerNotification"`
}

// PromoCodeQuery carries the promo code to apply to a cart
type PromoCodeQuery struct {
	PromoCode string `url:"promoCode"`
}

// EncodeQuery converts a tagged query struct into url.Values
func EncodeQuery(v interface{}) (url.Values, error) {
	values, err := query.Values(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}
	return values, nil
}
