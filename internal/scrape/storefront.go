package scrape

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
	"resty.dev/v3"

	"dzukou/pricer/internal/config"
	"dzukou/pricer/internal/domain"
	"dzukou/pricer/internal/proxy"
)

var priceTokenPattern = regexp.MustCompile(`[0-9]+(?:\.[0-9]{1,2})?`)

// Storefront is a generic HTML storefront scraper configured per store:
// a search URL template plus the CSS selectors that locate listings on
// the results page. One Storefront per competitor site.
type Storefront struct {
	cfg        config.StoreConfig
	httpClient *resty.Client
	rl         ratelimit.Limiter

	// Circuit breaker opened when the site signals quota exhaustion.
	breakerMutex sync.RWMutex
	blockedUntil time.Time
	breakerDelay time.Duration
}

func NewStorefront(storeCfg config.StoreConfig, scraperCfg config.ScraperConfig, proxySupplier proxy.Supplier) *Storefront {
	client := resty.New().
		SetTimeout(time.Duration(scraperCfg.Timeout) * time.Second).
		SetRetryCount(scraperCfg.MaxRetries).
		SetRetryWaitTime(2 * time.Second).
		SetRetryMaxWaitTime(10 * time.Second).
		SetHeader("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36").
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		SetHeader("Accept-Language", "en-US,en;q=0.5").
		SetTLSClientConfig(&tls.Config{
			InsecureSkipVerify: true,
		})

	if proxySupplier != nil {
		if proxyURL := proxySupplier.Get(); proxyURL != "" {
			client.SetProxy(proxyURL)
			log.Infof("🔗 Store %s using proxy: %s", storeCfg.Name, proxyURL)
		}
	}

	rps := scraperCfg.MaxRequestsPerSecond
	if rps <= 0 {
		rps = 1
	}

	return &Storefront{
		cfg:          storeCfg,
		httpClient:   client,
		rl:           ratelimit.New(rps),
		breakerDelay: 30 * time.Minute,
	}
}

func (s *Storefront) Name() string {
	return s.cfg.Name
}

// Search fetches the store's search results for the item and extracts
// raw listings. The query is the item name prefixed with its brand when
// known.
func (s *Storefront) Search(ctx context.Context, item domain.CatalogueItem) ([]domain.RawListing, error) {
	query := item.ItemName
	if item.Brand != "" {
		query = item.Brand + " " + item.ItemName
	}

	searchURL := s.cfg.BaseURL + strings.Replace(s.cfg.SearchPath, "{query}", url.QueryEscape(query), 1)

	html, err := s.fetchHTML(ctx, searchURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch search results from %s: %w", s.cfg.Name, err)
	}

	listings, err := s.parseListings(html)
	if err != nil {
		return nil, fmt.Errorf("failed to parse search results from %s: %w", s.cfg.Name, err)
	}

	log.Debugf("Store %s returned %d listings for %q", s.cfg.Name, len(listings), query)
	return listings, nil
}

func (s *Storefront) fetchHTML(ctx context.Context, fetchURL string) (string, error) {
	if remaining := s.breakerRemaining(); remaining > 0 {
		return "", fmt.Errorf("circuit breaker open for %s - requests disabled for %v more", s.cfg.Name, remaining.Round(time.Second))
	}

	s.rl.Take()

	resp, err := s.httpClient.R().
		SetContext(ctx).
		Get(fetchURL)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		return "", fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode() == 429 || resp.StatusCode() == 403 {
		s.openBreaker()
		return "", fmt.Errorf("store %s rate limited the scraper (status %d)", s.cfg.Name, resp.StatusCode())
	}
	if resp.IsError() {
		return "", fmt.Errorf("request failed with status: %s", resp.Status())
	}

	return resp.String(), nil
}

func (s *Storefront) parseListings(html string) ([]domain.RawListing, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	listings := make([]domain.RawListing, 0)

	doc.Find(s.cfg.Selectors.Item).Each(func(i int, sel *goquery.Selection) {
		listing := domain.RawListing{
			Store:    s.cfg.Name,
			Currency: s.cfg.Currency,
			Title:    strings.TrimSpace(sel.Find(s.cfg.Selectors.Title).First().Text()),
		}
		if listing.Title == "" {
			return
		}

		if s.cfg.Selectors.URL != "" {
			if href, ok := sel.Find(s.cfg.Selectors.URL).First().Attr("href"); ok {
				listing.URL = s.resolveURL(href)
			}
		}
		if s.cfg.Selectors.Brand != "" {
			listing.Brand = strings.TrimSpace(sel.Find(s.cfg.Selectors.Brand).First().Text())
		}
		if s.cfg.Selectors.Size != "" {
			listing.Size = strings.TrimSpace(sel.Find(s.cfg.Selectors.Size).First().Text())
		}
		if s.cfg.Selectors.Price != "" {
			listing.ShelfPrice = ParsePrice(sel.Find(s.cfg.Selectors.Price).First().Text())
		}

		listings = append(listings, listing)
	})

	return listings, nil
}

func (s *Storefront) resolveURL(href string) string {
	if href == "" || strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return strings.TrimRight(s.cfg.BaseURL, "/") + "/" + strings.TrimLeft(href, "/")
}

func (s *Storefront) breakerRemaining() time.Duration {
	s.breakerMutex.RLock()
	defer s.breakerMutex.RUnlock()

	remaining := time.Until(s.blockedUntil)
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (s *Storefront) openBreaker() {
	s.breakerMutex.Lock()
	defer s.breakerMutex.Unlock()

	s.blockedUntil = time.Now().Add(s.breakerDelay)
	log.Warnf("🚫 Circuit breaker activated for %s! Requests disabled until %v",
		s.cfg.Name, s.blockedUntil.Format("15:04:05"))
}

// ParsePrice extracts a price from free text such as "$12.99" or
// "1,299.00 USD". Returns nil when no numeric token is present.
func ParsePrice(text string) *float64 {
	token := priceTokenPattern.FindString(strings.ReplaceAll(strings.TrimSpace(text), ",", ""))
	if token == "" {
		return nil
	}
	price, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return nil
	}
	return &price
}
