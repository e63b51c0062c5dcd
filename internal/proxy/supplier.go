package proxy

import (
	"context"
	"crypto/tls"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"resty.dev/v3"
)

// Supplier hands out proxy URLs for outbound scraping requests in
// round-robin order. An empty pool yields empty strings, meaning direct
// connections.
type Supplier interface {
	Get() string
}

type supplier struct {
	proxies []string
	current int
	mutex   sync.Mutex
}

// NewSupplier validates the configured proxies against the test URL in
// parallel and keeps only the working ones.
func NewSupplier(ctx context.Context, proxies []string, testURL string) (Supplier, error) {
	if len(proxies) == 0 {
		return &supplier{}, nil
	}

	log.Infof("🔄 Testing %d proxies...", len(proxies))

	validCh := make(chan string, len(proxies))
	semaphore := make(chan struct{}, 50)
	var wg sync.WaitGroup

	for _, proxyURL := range proxies {
		wg.Add(1)

		go func(proxy string) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			if probeProxy(ctx, proxy, testURL) {
				validCh <- proxy
			} else {
				log.Infof("❌ Proxy %s is not working, skipping", proxy)
			}
		}(proxyURL)
	}

	wg.Wait()
	close(validCh)

	valid := make([]string, 0, len(proxies))
	for proxy := range validCh {
		valid = append(valid, proxy)
	}

	log.Infof("✅ Proxy pool ready with %d working proxies out of %d tested", len(valid), len(proxies))

	return &supplier{proxies: valid}, nil
}

// Get returns the next proxy URL in round-robin fashion
func (s *supplier) Get() string {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if len(s.proxies) == 0 {
		return ""
	}

	proxy := s.proxies[s.current]
	s.current = (s.current + 1) % len(s.proxies)

	return proxy
}

func probeProxy(ctx context.Context, proxyURL, testURL string) bool {
	client := resty.New().
		SetTimeout(5 * time.Second).
		SetRetryCount(0).
		SetProxy(proxyURL).
		SetTLSClientConfig(&tls.Config{
			InsecureSkipVerify: true,
		})

	resp, err := client.R().
		SetContext(ctx).
		Get(testURL)
	if err != nil {
		return false
	}

	return !resp.IsError()
}
