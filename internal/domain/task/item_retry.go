package task

import "dzukou/pricer/internal/domain"

// ItemRetryTask re-runs a failed item pricing task.
type ItemRetryTask struct {
	Item        domain.CatalogueItem `json:"item"`
	Fingerprint domain.Fingerprint   `json:"fingerprint"`
	RetryCount  int                  `json:"retry_count"`
	Error       string               `json:"error"` // Error message from the original failure
}

func (t *ItemRetryTask) TaskType() string {
	return "ItemRetryTask"
}

func (t *ItemRetryTask) TaskValue() ([]byte, error) {
	return DefaultTaskValue(t)
}
