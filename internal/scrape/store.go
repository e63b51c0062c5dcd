package scrape

import (
	"context"

	"dzukou/pricer/internal/domain"
)

// Store searches one competitor site for listings matching a catalogue
// item. Implementations own their own throttling and politeness; the
// manager only bounds how many stores run at once.
type Store interface {
	Name() string
	Search(ctx context.Context, item domain.CatalogueItem) ([]domain.RawListing, error)
}
