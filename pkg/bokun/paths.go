package bokun

import "fmt"

// ActivitySearchPath is the paginated vendor activity search endpoint
const ActivitySearchPath = "/activity.json/search"

func ActivityPath(activityID int64) string {
	return fmt.Sprintf("/activity.json/%d", activityID)
}

func AvailabilityPath(activityID int64) string {
	return fmt.Sprintf("/activity.json/%d/availabilities", activityID)
}

func CartPath(sessionID string) string {
	return fmt.Sprintf("/shopping-cart.json/session/%s", sessionID)
}

func CartActivityPath(sessionID string) string {
	return CartPath(sessionID) + "/activity"
}

func RemoveActivityPath(sessionID string, bookingID int64) string {
	return fmt.Sprintf("%s/remove-activity/%d", CartPath(sessionID), bookingID)
}

func AddOrUpdateExtraPath(sessionID string, bookingID int64) string {
	return fmt.Sprintf("%s/add-or-update-extra/ACTIVITY_BOOKING/%d", CartPath(sessionID), bookingID)
}

func RemoveExtraPath(sessionID string, bookingID, extraID int64) string {
	return fmt.Sprintf("%s/remove-extra/ACTIVITY_BOOKING/%d/%d", CartPath(sessionID), bookingID, extraID)
}

func ApplyPromoCodePath(sessionID string) string {
	return CartPath(sessionID) + "/apply-promo-code"
}

func RemovePromoCodePath(sessionID string) string {
	return CartPath(sessionID) + "/remove-promo-code"
}

func ReservePath(sessionID string) string {
	return fmt.Sprintf("/booking.json/guest/%s/reserve", sessionID)
}

func ChargePath(bookingID int64) string {
	return fmt.Sprintf("/booking.json/%d/charge", bookingID)
}

func ConfirmPath(bookingID int64) string {
	return fmt.Sprintf("/booking.json/%d/confirm", bookingID)
}
