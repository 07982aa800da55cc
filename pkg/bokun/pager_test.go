package bokun

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pageOf(n int) string {
	items := make([]string, n)
	for i := range items {
		items[i] = fmt.Sprintf(`{"id": %d}`, i)
	}
	return `{"totalHits": 0, "items": [` + strings.Join(items, ",") + `]}`
}

func pagedServer(t *testing.T, sizes ...int) (*httptest.Server, *[]map[string]interface{}) {
	var bodies []map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &body))
		bodies = append(bodies, body)

		n := 0
		if i := len(bodies) - 1; i < len(sizes) {
			n = sizes[i]
		}
		_, _ = w.Write([]byte(pageOf(n)))
	}))
	t.Cleanup(server.Close)

	return server, &bodies
}

func TestPaginatedPost(t *testing.T) {
	tests := []struct {
		name      string
		sizes     []int
		wantPages int
	}{
		{"short last page stops", []int{100, 100, 99}, 3},
		{"exact multiple needs an empty page", []int{100, 100, 100}, 4},
		{"single short page", []int{7}, 1},
		{"empty result", []int{0}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, bodies := pagedServer(t, tt.sizes...)
			client := newTestClient(t, server.URL, 0)

			filter := map[string]interface{}{"vendorId": 42}
			pager := client.PaginatedPost(context.Background(), ActivitySearchPath, filter, nil, "items")

			pages := 0
			for pager.Next() {
				pages++
				assert.Equal(t, pages, pager.Body()["page"])
				assert.NotNil(t, pager.Response())
			}
			require.NoError(t, pager.Err())

			assert.Equal(t, tt.wantPages, pages)
			require.Len(t, *bodies, tt.wantPages)
			for i, body := range *bodies {
				assert.EqualValues(t, i+1, body["page"])
				assert.EqualValues(t, PageSize, body["pageSize"])
				assert.EqualValues(t, 42, body["vendorId"])
			}

			// the caller's map is untouched
			assert.Equal(t, map[string]interface{}{"vendorId": 42}, filter)

			// an exhausted pager stays exhausted
			assert.False(t, pager.Next())
			assert.Len(t, *bodies, tt.wantPages)
		})
	}
}

func TestPaginatedPost_StopsOnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message": "unauthorized vendor", "fields": {}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 0)
	pager := client.PaginatedPost(context.Background(), ActivitySearchPath, nil, nil, "")

	assert.False(t, pager.Next())

	var apiErr *APIError
	require.ErrorAs(t, pager.Err(), &apiErr)
	assert.Equal(t, "unauthorized vendor", apiErr.Message)
}
