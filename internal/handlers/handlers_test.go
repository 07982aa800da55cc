package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/transfer-booking-backend/pkg/bokun"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

// doJSON performs a request against router and decodes the JSON reply
func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}, headers map[string]string) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var out map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w.Code, out
}

// remoteBokun is a minimal Bokun stand-in keyed by "METHOD path"
type remoteBokun struct {
	mu     sync.Mutex
	routes map[string]string
	hits   map[string]int
}

func newRemoteBokun(t *testing.T) (*remoteBokun, *bokun.Client) {
	rb := &remoteBokun{routes: map[string]string{}, hits: map[string]int{}}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rb.mu.Lock()
		key := r.Method + " " + r.URL.Path
		rb.hits[key]++
		body, ok := rb.routes[key]
		rb.mu.Unlock()

		if !ok {
			body = fmt.Sprintf(`{"message": "no route for %s", "fields": {}}`, key)
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	client, err := bokun.NewClient(bokun.Config{
		BaseURL:   server.URL,
		AccessKey: "test_access_key",
		SecretKey: "test_secret_key",
		Timeout:   5 * time.Second,
	}, testLogger())
	require.NoError(t, err)

	return rb, client
}

func (rb *remoteBokun) reply(method, path, body string) {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.routes[method+" "+path] = body
}

func (rb *remoteBokun) hitCount(method, path string) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.hits[method+" "+path]
}

func cartDoc(sessionID string, total float64, promo string) string {
	doc := map[string]interface{}{
		"sessionId": sessionID,
		"activityBookings": []map[string]interface{}{
			{"id": 501, "activity": map[string]interface{}{"id": 55}, "totalPrice": total},
		},
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

