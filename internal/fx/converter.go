package fx

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"resty.dev/v3"

	"dzukou/pricer/internal/config"
)

// fallbackRates are approximate static rates used when the live endpoint
// cannot be reached. Missing pairs are tried inverted before giving up.
var fallbackRates = map[string]float64{
	"EUR/USD": 1.10,
	"GBP/USD": 1.25,
	"USD/EUR": 0.91,
	"GBP/EUR": 1.14,
	"EUR/GBP": 0.88,
	"USD/GBP": 0.80,
}

// Converter converts competitor prices into the pipeline's base
// currency. Live rates are fetched once per source currency and cached
// for the process lifetime; conversion itself never fails, degrading
// through the static table down to an identity rate.
type Converter struct {
	client   *resty.Client
	ratesURL string

	mu    sync.RWMutex
	rates map[string]map[string]float64
}

type ratesResponse struct {
	Result string             `json:"result"`
	Rates  map[string]float64 `json:"rates"`
}

func NewConverter(cfg config.FXConfig) *Converter {
	client := resty.New().
		SetTimeout(time.Duration(cfg.Timeout) * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(1 * time.Second)

	return &Converter{
		client:   client,
		ratesURL: strings.TrimRight(cfg.RatesURL, "/"),
		rates:    make(map[string]map[string]float64),
	}
}

// Convert returns the amount expressed in the target currency. Identical
// currencies pass through unchanged.
func (c *Converter) Convert(ctx context.Context, amount float64, fromCurrency, toCurrency string) float64 {
	from := strings.ToUpper(strings.TrimSpace(fromCurrency))
	to := strings.ToUpper(strings.TrimSpace(toCurrency))
	if from == to || from == "" || to == "" {
		return amount
	}

	if rate, ok := c.liveRate(ctx, from, to); ok {
		return amount * rate
	}
	return amount * fallbackRate(from, to)
}

func (c *Converter) liveRate(ctx context.Context, from, to string) (float64, bool) {
	c.mu.RLock()
	table, cached := c.rates[from]
	c.mu.RUnlock()

	if !cached {
		fetched, err := c.fetchRates(ctx, from)
		if err != nil {
			log.Warnf("Failed to fetch live rates for %s, using fallback table: %v", from, err)
			fetched = map[string]float64{}
		}

		c.mu.Lock()
		c.rates[from] = fetched
		c.mu.Unlock()
		table = fetched
	}

	rate, ok := table[to]
	return rate, ok
}

func (c *Converter) fetchRates(ctx context.Context, from string) (map[string]float64, error) {
	var body ratesResponse

	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&body).
		Get(fmt.Sprintf("%s/%s", c.ratesURL, from))
	if err != nil {
		return nil, fmt.Errorf("rates request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("rates request failed with status %s", resp.Status())
	}
	if body.Result != "success" || len(body.Rates) == 0 {
		return nil, fmt.Errorf("rates response for %s is not usable", from)
	}

	log.Debugf("Cached %d live rates for %s", len(body.Rates), from)
	return body.Rates, nil
}

func fallbackRate(from, to string) float64 {
	if rate, ok := fallbackRates[from+"/"+to]; ok {
		return rate
	}
	if inverse, ok := fallbackRates[to+"/"+from]; ok {
		return 1.0 / inverse
	}
	// No conversion available; pass the amount through.
	return 1.0
}
