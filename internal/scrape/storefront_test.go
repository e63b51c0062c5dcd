package scrape

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dzukou/pricer/internal/config"
	"dzukou/pricer/internal/domain"
)

const searchResultsHTML = `
<html><body>
  <div class="product">
    <a class="product-link" href="/products/bamboo-straw"><span class="title">Bamboo Straw Set</span></a>
    <span class="brand">Dzukou</span>
    <span class="size">200 ml</span>
    <span class="price">$12.99</span>
  </div>
  <div class="product">
    <a class="product-link" href="https://other.example/steel-straw"><span class="title">Steel Straw</span></a>
    <span class="price">free!</span>
  </div>
  <div class="product">
    <span class="price">$5.00</span>
  </div>
</body></html>`

func testStoreConfig(baseURL string) config.StoreConfig {
	return config.StoreConfig{
		Name:       "TestStore",
		BaseURL:    baseURL,
		SearchPath: "/search?q={query}",
		Currency:   "USD",
		Selectors: config.SelectorsConfig{
			Item:  "div.product",
			Title: "span.title",
			Price: "span.price",
			URL:   "a.product-link",
			Brand: "span.brand",
			Size:  "span.size",
		},
	}
}

func TestStorefrontSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Dzukou Bamboo Straw", r.URL.Query().Get("q"))
		w.Write([]byte(searchResultsHTML))
	}))
	defer server.Close()

	store := NewStorefront(testStoreConfig(server.URL), config.ScraperConfig{Timeout: 5, MaxRequestsPerSecond: 100}, nil)

	listings, err := store.Search(context.Background(), domain.CatalogueItem{
		ItemID:   "A1",
		ItemName: "Bamboo Straw",
		Brand:    "Dzukou",
	})
	require.NoError(t, err)
	require.Len(t, listings, 2) // the title-less block is dropped

	first := listings[0]
	assert.Equal(t, "TestStore", first.Store)
	assert.Equal(t, "Bamboo Straw Set", first.Title)
	assert.Equal(t, "Dzukou", first.Brand)
	assert.Equal(t, "200 ml", first.Size)
	assert.Equal(t, "USD", first.Currency)
	assert.Equal(t, server.URL+"/products/bamboo-straw", first.URL)
	require.NotNil(t, first.ShelfPrice)
	assert.InDelta(t, 12.99, *first.ShelfPrice, 1e-9)

	second := listings[1]
	assert.Equal(t, "https://other.example/steel-straw", second.URL)
	assert.Nil(t, second.ShelfPrice) // "free!" carries no numeric token
}

func TestStorefrontRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	store := NewStorefront(testStoreConfig(server.URL), config.ScraperConfig{Timeout: 5, MaxRequestsPerSecond: 100}, nil)

	_, err := store.Search(context.Background(), domain.CatalogueItem{ItemID: "A1", ItemName: "Straw"})
	require.Error(t, err)

	// Breaker is now open: the next request fails without hitting the site.
	_, err = store.Search(context.Background(), domain.CatalogueItem{ItemID: "A1", ItemName: "Straw"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker")
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
		parsed   bool
	}{
		{"$12.99", 12.99, true},
		{" 1,299.00 USD ", 1299.00, true},
		{"18", 18.0, true},
		{"free!", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParsePrice(tt.input)
			if !tt.parsed {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, tt.expected, *got, 1e-9)
		})
	}
}

type stubStore struct {
	name     string
	listings []domain.RawListing
	err      error
}

func (s *stubStore) Name() string { return s.name }

func (s *stubStore) Search(ctx context.Context, item domain.CatalogueItem) ([]domain.RawListing, error) {
	return s.listings, s.err
}

func TestManagerSearchAll(t *testing.T) {
	manager := NewManager([]Store{
		&stubStore{name: "a", listings: []domain.RawListing{{Store: "a", Title: "one"}}},
		&stubStore{name: "broken", err: errors.New("boom")},
		&stubStore{name: "b", listings: []domain.RawListing{{Store: "b", Title: "two"}}},
	}, 2)

	listings := manager.SearchAll(context.Background(), domain.CatalogueItem{ItemID: "A1", ItemName: "Straw"})

	require.Len(t, listings, 2)
	assert.Equal(t, "a", listings[0].Store)
	assert.Equal(t, "b", listings[1].Store)
}
