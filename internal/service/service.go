package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"dzukou/pricer/internal/config"
	"dzukou/pricer/internal/domain"
	"dzukou/pricer/internal/domain/task"
	"dzukou/pricer/internal/fx"
	"dzukou/pricer/internal/pricing"
	"dzukou/pricer/internal/queue"
	"dzukou/pricer/internal/repository"
	"dzukou/pricer/internal/scrape"
	"dzukou/pricer/internal/state"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

type Service struct {
	repository  repository.RecommendationRepository
	scraper     *scrape.Manager
	converter   *fx.Converter
	queue       queue.Queue
	tracker     state.Tracker
	estimator   *pricing.Estimator
	pricingCfg  config.PricingConfig
	groupName   string
	minIdleTime time.Duration
}

func NewService(
	repository repository.RecommendationRepository,
	scraper *scrape.Manager,
	converter *fx.Converter,
	queue queue.Queue,
	tracker state.Tracker,
	estimator *pricing.Estimator,
	pricingCfg config.PricingConfig,
	groupName string,
	minIdleTime int,
) *Service {
	return &Service{
		repository:  repository,
		scraper:     scraper,
		converter:   converter,
		queue:       queue,
		tracker:     tracker,
		estimator:   estimator,
		pricingCfg:  pricingCfg,
		groupName:   groupName,
		minIdleTime: time.Duration(minIdleTime) * time.Second,
	}
}

// EnqueueCatalogue fingerprints every catalogue item and publishes one
// pricing task per item. Items already marked processed in a previous
// run are skipped so interrupted runs resume where they left off.
func (s *Service) EnqueueCatalogue(ctx context.Context, items []domain.CatalogueItem) error {
	enqueued := 0
	skipped := 0

	for _, item := range items {
		processed, err := s.tracker.IsProcessed(ctx, item.ItemID)
		if err != nil {
			log.Errorf("Failed to check progress for item %s: %v", item.ItemID, err)
			return err
		}
		if processed {
			skipped++
			continue
		}

		_, err = s.queue.AddTask(ctx, &task.ItemPricingTask{
			Item:        item,
			Fingerprint: pricing.BuildFingerprint(item),
		})
		if err != nil {
			log.Errorf("❌ Failed to add task for item %s: %v", item.ItemID, err)
			return err
		}
		enqueued++
	}

	if skipped > 0 {
		log.Infof("🔄 Resuming: %d items already processed, %d enqueued", skipped, enqueued)
	} else {
		log.Infof("✅ Enqueued %d pricing tasks", enqueued)
	}

	return nil
}

func (s *Service) RunWorkers(ctx context.Context, numWorkers int) error {
	var wg sync.WaitGroup

	// Run workers for both regular and retry tasks
	s.runWorkersForStream(ctx, &wg, numWorkers, queue.StreamPrefix+"ItemPricingTask", "main")
	s.runWorkersForStream(ctx, &wg, numWorkers/2, queue.StreamPrefix+"ItemRetryTask", "retry")

	wg.Wait()
	return nil
}

func (s *Service) runWorkersForStream(ctx context.Context, wg *sync.WaitGroup, numWorkers int, streamName, workerType string) {
	// Auto-claimer for this stream
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(s.minIdleTime)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				consumer := fmt.Sprintf("autoclaimer-%s-%d", workerType, time.Now().UnixNano())
				claimedMessages, err := s.queue.AutoClaim(ctx, s.groupName, consumer, streamName, s.minIdleTime)
				if err != nil {
					log.Errorf("❌ Failed to auto-claim messages for %s: %v", streamName, err)
					continue
				}
				if len(claimedMessages) > 0 {
					log.Infof("🔄 Auto-claimed %d messages from %s stream", len(claimedMessages), workerType)
					for _, msg := range claimedMessages {
						err := s.processMessage(ctx, &msg)
						if err != nil {
							log.Errorf("❌ Failed to process auto-claimed message %s: %v", msg.ID, err)
						}
					}
				}
			}
		}
	}()

	// Regular workers for this stream
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			consumer := fmt.Sprintf("%s-worker-%d", workerType, workerID)
			log.Infof("🚀 Starting %s worker %d as consumer %s", workerType, workerID, consumer)
			for {
				select {
				case <-ctx.Done():
					log.Infof("🛑 %s worker %d stopping", workerType, workerID)
					return
				default:
					msg, err := s.queue.GetTask(ctx, s.groupName, consumer, streamName)
					if err != nil {
						log.Errorf("❌ Failed to get task from %s: %v", streamName, err)
						continue
					}

					if msg != nil {
						err := s.processMessage(ctx, msg)
						if err != nil {
							log.Errorf("❌ Failed to process message %s: %v", msg.ID, err)
						}
					}
				}
			}
		}(i + 1)
	}
}

func (s *Service) processMessage(ctx context.Context, msg *redis.XMessage) error {
	taskType, ok := msg.Values["task_type"].(string)
	if !ok {
		return fmt.Errorf("invalid task type in message %s", msg.ID)
	}

	taskData, ok := msg.Values["task_data"].(string)
	if !ok {
		return fmt.Errorf("invalid task data in message %s", msg.ID)
	}

	var streamName string
	switch taskType {
	case "ItemPricingTask":
		streamName = queue.StreamPrefix + "ItemPricingTask"
		pricingTask, err := task.UnmarshalTask[*task.ItemPricingTask]([]byte(taskData))
		if err != nil {
			return fmt.Errorf("failed to unmarshal item pricing task data: %w", err)
		}

		if err := s.priceItem(ctx, pricingTask.Item, pricingTask.Fingerprint); err != nil {
			// Add to retry queue instead of failing completely
			retryTask := &task.ItemRetryTask{
				Item:        pricingTask.Item,
				Fingerprint: pricingTask.Fingerprint,
				RetryCount:  0,
				Error:       err.Error(),
			}

			if _, addErr := s.queue.AddTask(ctx, retryTask); addErr != nil {
				log.Errorf("❌ Failed to add retry task for item %s: %v", pricingTask.Item.ItemID, addErr)
			} else {
				log.Warnf("🔄 Added item %s to retry queue due to error: %v", pricingTask.Item.ItemID, err)
			}
		}

	case "ItemRetryTask":
		streamName = queue.StreamPrefix + "ItemRetryTask"
		retryTask, err := task.UnmarshalTask[*task.ItemRetryTask]([]byte(taskData))
		if err != nil {
			return fmt.Errorf("failed to unmarshal retry task data: %w", err)
		}

		if err := s.retryItem(ctx, retryTask); err != nil {
			return fmt.Errorf("failed to retry item: %w", err)
		}

	default:
		return fmt.Errorf("unknown task type: %s", taskType)
	}

	if err := s.queue.AckTask(ctx, streamName, s.groupName, msg.ID); err != nil {
		return fmt.Errorf("failed to ack message %s: %w", msg.ID, err)
	}

	return nil
}

// priceItem runs the full pipeline for one catalogue item: scrape
// competitor stores, match listings against the fingerprint, normalize
// prices into the item currency, aggregate comparison features and
// optimize. Items with no usable cost are recorded as flagged
// recommendations rather than retried, since retrying cannot fix the
// catalogue.
func (s *Service) priceItem(ctx context.Context, item domain.CatalogueItem, fp domain.Fingerprint) error {
	if item.COGS == nil || *item.COGS <= 0 {
		log.Warnf("⚠️ Item %s has no usable cost, skipping optimization", item.ItemID)
		rec := &domain.PriceRecommendation{
			ItemID:       item.ItemID,
			ItemName:     item.ItemName,
			CurrentPrice: item.CurrentPrice,
			Currency:     s.recommendationCurrency(item),
			Rationale:    "No cost of goods available, cannot optimize price",
			Confidence:   domain.ConfidenceLow,
			Flags:        []string{domain.FlagMissingCOGS},
		}
		if err := s.repository.SaveRecommendation(ctx, rec); err != nil {
			return fmt.Errorf("failed to save recommendation for item %s: %w", item.ItemID, err)
		}
		return s.tracker.MarkProcessed(ctx, item.ItemID)
	}

	listings := s.scraper.SearchAll(ctx, item)
	matched := pricing.MatchListings(fp, item.Brand, listings)

	currency := s.recommendationCurrency(item)
	for i := range matched {
		listing := matched[i].Listing
		if listing.ShelfPrice == nil {
			continue
		}
		fromCurrency := listing.Currency
		if fromCurrency == "" {
			fromCurrency = currency
		}
		effective := s.converter.Convert(ctx, *listing.ShelfPrice, fromCurrency, currency)
		matched[i].EffectivePrice = &effective
	}

	features := pricing.AggregateFeatures(item.CurrentPrice, matched)
	elasticity := s.estimator.ElasticityFor(item.Category)

	result, err := pricing.Optimize(
		*item.COGS,
		elasticity,
		item.CurrentPrice,
		features.MinCompetitor,
		s.pricingCfg.MarginFloor,
		s.pricingCfg.BaselineUnits,
		s.pricingCfg.PriceStep,
		s.pricingCfg.Endings,
	)
	if err != nil {
		return fmt.Errorf("failed to optimize price for item %s: %w", item.ItemID, err)
	}

	rec := buildRecommendation(item, currency, matched, features, result)

	if err := s.repository.SaveRecommendation(ctx, rec); err != nil {
		return fmt.Errorf("failed to save recommendation for item %s: %w", item.ItemID, err)
	}

	if err := s.tracker.MarkProcessed(ctx, item.ItemID); err != nil {
		return fmt.Errorf("failed to mark item %s processed: %w", item.ItemID, err)
	}

	log.Infof("✅ Priced item %s: %.2f %s (%d competitors)",
		item.ItemID, result.Price, currency, features.NumCompetitors)

	return nil
}

func (s *Service) retryItem(ctx context.Context, retryTask *task.ItemRetryTask) error {
	// Increment retry count
	retryTask.RetryCount++

	log.Infof("🔄 Retrying item %s (attempt %d)", retryTask.Item.ItemID, retryTask.RetryCount)

	if err := s.priceItem(ctx, retryTask.Item, retryTask.Fingerprint); err != nil {
		// Create new retry task with incremented count - retry indefinitely
		newRetryTask := &task.ItemRetryTask{
			Item:        retryTask.Item,
			Fingerprint: retryTask.Fingerprint,
			RetryCount:  retryTask.RetryCount,
			Error:       err.Error(),
		}

		if _, addErr := s.queue.AddTask(ctx, newRetryTask); addErr != nil {
			log.Errorf("❌ Failed to re-add retry task for item %s: %v", retryTask.Item.ItemID, addErr)
			return addErr
		}

		log.Warnf("🔄 Item %s failed again, will retry (attempt %d): %v",
			retryTask.Item.ItemID, retryTask.RetryCount, err)
		return nil
	}

	log.Infof("✅ Successfully recovered item %s after %d attempts",
		retryTask.Item.ItemID, retryTask.RetryCount)
	return nil
}

func (s *Service) recommendationCurrency(item domain.CatalogueItem) string {
	if item.Currency != "" {
		return item.Currency
	}
	return s.pricingCfg.BaseCurrency
}

func buildRecommendation(
	item domain.CatalogueItem,
	currency string,
	matched []domain.MatchedListing,
	features domain.ComparisonFeatures,
	result pricing.OptimizeResult,
) *domain.PriceRecommendation {
	price := result.Price
	units := result.Units
	profit := result.Profit

	rec := &domain.PriceRecommendation{
		ItemID:                   item.ItemID,
		ItemName:                 item.ItemName,
		CurrentPrice:             item.CurrentPrice,
		RecommendedPrice:         &price,
		Currency:                 currency,
		ExpectedUnits:            &units,
		ExpectedProfit:           &profit,
		ProfitUpliftVsCurrentPct: result.ProfitUpliftPct,
		DemandLiftVsCurrentPct:   result.DemandUpliftPct,
		CompetitorSummary:        matched,
		Rationale: fmt.Sprintf("Set price to %.2f %s to achieve estimated profit of %.2f",
			result.Price, currency, result.Profit),
	}

	if features.NumCompetitors == 0 {
		rec.Flags = append(rec.Flags, domain.FlagNoCompetitorData)
	}
	if item.CurrentPrice == nil {
		rec.Flags = append(rec.Flags, domain.FlagNoCurrentPrice)
	} else if result.Price < *item.CurrentPrice {
		rec.Flags = append(rec.Flags, domain.FlagPriceDecrease)
	}
	if features.MaxCompetitor != nil && result.Price > *features.MaxCompetitor {
		rec.Flags = append(rec.Flags, domain.FlagAboveCompetitors)
	}
	if features.Spread != nil && features.MedianCompetitor != nil &&
		*features.MedianCompetitor > 0 && *features.Spread > 0.5*(*features.MedianCompetitor) {
		rec.Flags = append(rec.Flags, domain.FlagWideCompetitorSpread)
	}

	switch {
	case features.NumCompetitors >= 3 && item.CurrentPrice != nil:
		rec.Confidence = domain.ConfidenceHigh
	case features.NumCompetitors >= 1:
		rec.Confidence = domain.ConfidenceMedium
	default:
		rec.Confidence = domain.ConfidenceLow
	}

	return rec
}
