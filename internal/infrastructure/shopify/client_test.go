package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, baseURL string) (*Client, *int) {
	t.Helper()
	client, err := NewClient(&Config{
		Domain:      "test-shop.myshopify.com",
		AccessToken: "shpat_test",
		APIBaseURL:  baseURL,
	}, zap.NewNop())
	require.NoError(t, err)

	sleeps := 0
	client.sleep = func(time.Duration) { sleeps++ }
	return client, &sleeps
}

func orderRecords(from, to int) []json.RawMessage {
	var records []json.RawMessage
	for i := from; i <= to; i++ {
		records = append(records, json.RawMessage(fmt.Sprintf(`{"id":%d}`, i)))
	}
	return records
}

func TestClient_Pages_WalksLinkPagination(t *testing.T) {
	var tokens []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokens = append(tokens, r.Header.Get("X-Shopify-Access-Token"))

		var records []json.RawMessage
		if r.URL.Query().Get("page_info") == "" {
			records = orderRecords(1, 250)
			w.Header().Set("Link", fmt.Sprintf(`<http://%s/orders.json?page_info=page2&limit=250>; rel="next"`, r.Host))
		} else {
			records = orderRecords(251, 260)
		}
		json.NewEncoder(w).Encode(map[string]any{"orders": records})
	}))
	defer server.Close()

	client, sleeps := newTestClient(t, server.URL)

	var pages, total int
	err := client.Pages(context.Background(), client.OrdersURL(DefaultPageSize), "orders", func(records []json.RawMessage) error {
		pages++
		total += len(records)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 2, pages)
	assert.Equal(t, 260, total)
	// paced between pages, but not after the terminal page
	assert.Equal(t, 1, *sleeps)
	for _, token := range tokens {
		assert.Equal(t, "shpat_test", token)
	}
}

func TestClient_Pages_StopsOnEmptyPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// claims a next page but returns no records
		w.Header().Set("Link", fmt.Sprintf(`<http://%s/orders.json?page_info=more>; rel="next"`, r.Host))
		json.NewEncoder(w).Encode(map[string]any{"orders": []json.RawMessage{}})
	}))
	defer server.Close()

	client, sleeps := newTestClient(t, server.URL)

	var pages int
	err := client.Pages(context.Background(), client.OrdersURL(DefaultPageSize), "orders", func([]json.RawMessage) error {
		pages++
		return nil
	})
	require.NoError(t, err)
	assert.Zero(t, pages)
	assert.Zero(t, *sleeps)
}

func TestClient_Pages_SurfacesStatusErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"errors":"Throttled"}`)
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL)

	err := client.Pages(context.Background(), client.OrdersURL(DefaultPageSize), "orders", func([]json.RawMessage) error {
		t.Fatal("fn must not be called on error")
		return nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRequestFailed)
	assert.Contains(t, err.Error(), "429")
	// query parameters stay out of error messages
	assert.NotContains(t, err.Error(), "status=any")
}

func TestClient_FetchInventoryItems_Batches(t *testing.T) {
	var batchSizes []int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids := strings.Split(r.URL.Query().Get("ids"), ",")
		batchSizes = append(batchSizes, len(ids))

		records := make([]json.RawMessage, len(ids))
		for i, id := range ids {
			records[i] = json.RawMessage(fmt.Sprintf(`{"id":%s}`, id))
		}
		json.NewEncoder(w).Encode(map[string]any{"inventory_items": records})
	}))
	defer server.Close()

	client, sleeps := newTestClient(t, server.URL)

	ids := make([]int64, 120)
	for i := range ids {
		ids[i] = int64(i + 1)
	}

	records, err := client.FetchInventoryItems(context.Background(), ids)
	require.NoError(t, err)

	assert.Len(t, records, 120)
	assert.Equal(t, []int{50, 50, 20}, batchSizes)
	// paced between batches only
	assert.Equal(t, 2, *sleeps)
}

func TestConfig_Validate(t *testing.T) {
	t.Run("missing domain", func(t *testing.T) {
		cfg := &Config{AccessToken: "shpat_x"}
		assert.ErrorIs(t, cfg.Validate(), ErrConfigMissingDomain)
	})

	t.Run("missing token", func(t *testing.T) {
		cfg := &Config{Domain: "shop.myshopify.com"}
		assert.ErrorIs(t, cfg.Validate(), ErrConfigMissingAccessToken)
	})

	t.Run("defaults applied", func(t *testing.T) {
		cfg := &Config{Domain: "shop.myshopify.com", AccessToken: "shpat_x"}
		require.NoError(t, cfg.Validate())
		assert.Equal(t, DefaultAPIVersion, cfg.APIVersion)
		assert.Equal(t, 30, cfg.TimeoutSeconds)
		assert.Equal(t, "https://shop.myshopify.com/admin/api/"+DefaultAPIVersion, cfg.BaseURL())
	})
}

func TestConfig_IsIgnoredLocation(t *testing.T) {
	cfg := &Config{IgnoredLocationIDs: []string{"100", "200"}}
	assert.True(t, cfg.IsIgnoredLocation(100))
	assert.False(t, cfg.IsIgnoredLocation(300))
}
