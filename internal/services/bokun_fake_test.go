package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/transfer-booking-backend/internal/models"
	"github.com/smarttransit/transfer-booking-backend/pkg/bokun"
	"github.com/stretchr/testify/require"
)

// bokunCall is one request received by the fake server
type bokunCall struct {
	Method string
	Path   string
	Query  url.Values
	Body   map[string]interface{}
}

// fakeBokun routes signed client requests to per-endpoint replies
type fakeBokun struct {
	t      *testing.T
	mu     sync.Mutex
	calls  []bokunCall
	routes map[string]func(bokunCall) string

	// fallback answers unrouted requests when set
	fallback func(bokunCall) string
}

func newFakeBokun(t *testing.T) (*fakeBokun, *bokun.Client) {
	fb := &fakeBokun{t: t, routes: make(map[string]func(bokunCall) string)}

	server := httptest.NewServer(http.HandlerFunc(fb.serve))
	t.Cleanup(server.Close)

	client, err := bokun.NewClient(bokun.Config{
		BaseURL:   server.URL,
		AccessKey: "test_access_key",
		SecretKey: "test_secret_key",
		Timeout:   5 * time.Second,
	}, testLogger())
	require.NoError(t, err)

	return fb, client
}

func (fb *fakeBokun) serve(w http.ResponseWriter, r *http.Request) {
	call := bokunCall{Method: r.Method, Path: r.URL.Path, Query: r.URL.Query()}
	if raw, _ := io.ReadAll(r.Body); len(raw) > 0 {
		_ = json.Unmarshal(raw, &call.Body)
	}

	fb.mu.Lock()
	fb.calls = append(fb.calls, call)
	handler, ok := fb.routes[r.Method+" "+r.URL.Path]
	if !ok && fb.fallback != nil {
		handler, ok = fb.fallback, true
	}
	fb.mu.Unlock()

	if !ok {
		_, _ = w.Write([]byte(fmt.Sprintf(`{"message": "no route for %s %s", "fields": {}}`, r.Method, r.URL.Path)))
		return
	}
	_, _ = w.Write([]byte(handler(call)))
}

// on registers a reply for method and path
func (fb *fakeBokun) on(method, path string, reply func(bokunCall) string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.routes[method+" "+path] = reply
}

// reply registers a fixed reply
func (fb *fakeBokun) reply(method, path, body string) {
	fb.on(method, path, func(bokunCall) string { return body })
}

func (fb *fakeBokun) callsTo(method, path string) []bokunCall {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	var out []bokunCall
	for _, c := range fb.calls {
		if c.Method == method && c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

func (fb *fakeBokun) count(method string) int {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	n := 0
	for _, c := range fb.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// ============================================================================
// Fixtures
// ============================================================================

// 2024-05-01T00:00:00Z in epoch milliseconds
const may1 = int64(1714521600000)

func cartJSON(sessionID string, total float64, promo string, bookings ...[2]int64) string {
	items := make([]map[string]interface{}, 0, len(bookings))
	for _, b := range bookings {
		items = append(items, map[string]interface{}{
			"id":         b[0],
			"activity":   map[string]interface{}{"id": b[1]},
			"totalPrice": total,
		})
	}

	doc := map[string]interface{}{
		"sessionId":        sessionID,
		"activityBookings": items,
		"customerInvoice": map[string]interface{}{
			"currency":     "ISK",
			"totalAsMoney": map[string]interface{}{"amount": total},
		},
	}
	if promo != "" {
		doc["promoCode"] = map[string]interface{}{"code": promo}
	}

	raw, _ := json.Marshal(doc)
	return string(raw)
}

func activityJSON(id int64) string {
	return fmt.Sprintf(`{
		"id": %d,
		"title": "Airport transfer %d",
		"externalId": "AT-%d",
		"pricingCategories": [
			{"id": 11, "title": "Adults", "ticketCategory": "ADULT", "defaultCategory": true},
			{"id": 12, "title": "Children 6-11", "ticketCategory": "CHILD", "defaultCategory": false},
			{"id": 13, "title": "Teenagers", "ticketCategory": "TEENAGER", "defaultCategory": false}
		],
		"bookableExtras": [
			{"id": 21, "externalId": "FLD", "title": "Flight delay guarantee", "questions": [{"id": 31}]},
			{"id": 22, "externalId": "ExtraBaggage", "title": "Extra bag", "questions": []},
			{"id": 23, "externalId": "childseat0-13kg", "title": "Infant seat", "questions": []}
		]
	}`, id, id, id)
}

// availabilityJSON returns three departures on May 1st, deliberately unsorted
func availabilityJSON() string {
	return fmt.Sprintf(`[
		{"date": %d, "startTime": "14:00", "startTimeId": 102, "soldOut": false, "unavailable": false,
		 "availabilityCount": 20, "pricesByCategory": {"11": 5990, "12": 2995}, "extraPrices": {"21": 990}},
		{"date": %d, "startTime": "08:30", "startTimeId": 101, "soldOut": false, "unavailable": false,
		 "availabilityCount": 4, "pricesByCategory": {"11": 5990, "12": 2995}, "extraPrices": {}},
		{"date": %d, "startTime": "18:00", "startTimeId": 103, "soldOut": true, "unavailable": false,
		 "availabilityCount": 30, "pricesByCategory": {"11": 5990}, "extraPrices": {}}
	]`, may1, may1, may1)
}

func at(hour, minute int) time.Time {
	return time.Date(2024, 5, 1, hour, minute, 0, 0, time.UTC)
}

// fakeCatalog is an in-memory CatalogStore
type fakeCatalog struct {
	products map[int64]*models.BookableProduct
	places   map[int64]*models.Place
}

func (c *fakeCatalog) GetProduct(ctx context.Context, id int64) (*models.BookableProduct, error) {
	return c.products[id], nil
}

func (c *fakeCatalog) ListProducts(ctx context.Context) ([]models.BookableProduct, error) {
	out := make([]models.BookableProduct, 0, len(c.products))
	for _, p := range c.products {
		out = append(out, *p)
	}
	return out, nil
}

func (c *fakeCatalog) GetPlace(ctx context.Context, id int64) (*models.Place, error) {
	return c.places[id], nil
}

// recordingSink keeps audit entries; failing makes every Record fail
type recordingSink struct {
	mu      sync.Mutex
	entries []*models.RequestLog
	failing bool
}

func (s *recordingSink) Record(ctx context.Context, entry *models.RequestLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, entry)
	if s.failing {
		return errors.New("audit store unavailable")
	}
	return nil
}
