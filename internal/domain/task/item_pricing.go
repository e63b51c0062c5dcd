package task

import "dzukou/pricer/internal/domain"

// ItemPricingTask prices a single catalogue item: scrape, match,
// aggregate and optimise. One task is enqueued per item.
type ItemPricingTask struct {
	Item        domain.CatalogueItem `json:"item"`
	Fingerprint domain.Fingerprint   `json:"fingerprint"`
}

func (t *ItemPricingTask) TaskType() string {
	return "ItemPricingTask"
}

func (t *ItemPricingTask) TaskValue() ([]byte, error) {
	return DefaultTaskValue(t)
}
