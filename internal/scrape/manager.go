package scrape

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"dzukou/pricer/internal/domain"
)

// Manager fans one item's search out across all configured stores with
// bounded parallelism and collects the listings. Per-store failures are
// logged and absorbed; a broken store never sinks the item.
type Manager struct {
	stores      []Store
	concurrency int
}

func NewManager(stores []Store, concurrency int) *Manager {
	if concurrency <= 0 {
		concurrency = len(stores)
	}
	return &Manager{
		stores:      stores,
		concurrency: concurrency,
	}
}

// SearchAll queries every store for the item and returns the combined
// listings in store-configuration order.
func (m *Manager) SearchAll(ctx context.Context, item domain.CatalogueItem) []domain.RawListing {
	results := make([][]domain.RawListing, len(m.stores))

	wg := &sync.WaitGroup{}
	semaphore := make(chan struct{}, m.concurrency)

	for i, store := range m.stores {
		wg.Add(1)

		go func(idx int, store Store) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			listings, err := store.Search(ctx, item)
			if err != nil {
				log.Warnf("⚠️ Store %s failed for item %s: %v", store.Name(), item.ItemID, err)
				return
			}
			results[idx] = listings
		}(i, store)
	}

	wg.Wait()

	combined := make([]domain.RawListing, 0)
	for _, listings := range results {
		combined = append(combined, listings...)
	}
	return combined
}
