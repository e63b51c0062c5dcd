package container

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"dzukou/pricer/internal/config"
	"dzukou/pricer/internal/fx"
	"dzukou/pricer/internal/ingest"
	"dzukou/pricer/internal/pricing"
	"dzukou/pricer/internal/proxy"
	"dzukou/pricer/internal/queue"
	"dzukou/pricer/internal/report"
	"dzukou/pricer/internal/repository"
	"dzukou/pricer/internal/scrape"
	"dzukou/pricer/internal/service"
	"dzukou/pricer/internal/state"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// progressPollInterval controls how often the pipeline checks whether
// every catalogue item has been priced.
const progressPollInterval = 2 * time.Second

// Container holds all initialized components
type Container struct {
	Config     *config.Config
	Repository repository.RecommendationRepository
	Queue      queue.Queue
	Tracker    state.Tracker

	Service *service.Service

	db    *pgxpool.Pool
	redis *redis.Client
}

// New creates a new container with all dependencies initialized
func New(cfg *config.Config) (*Container, error) {
	container := &Container{
		Config: cfg,
	}

	// Initialize proxy supplier, probing against the first configured store
	proxyTestURL := ""
	if len(cfg.Scraper.Stores) > 0 {
		proxyTestURL = cfg.Scraper.Stores[0].BaseURL
	}
	proxySupplier, err := proxy.NewSupplier(context.Background(), cfg.Scraper.Proxies, proxyTestURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize proxy supplier: %w", err)
	}

	// Initialize repository
	db, err := pgxpool.New(context.Background(),
		fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			cfg.Database.Host,
			cfg.Database.Port,
			cfg.Database.User,
			cfg.Database.Password,
			cfg.Database.Name,
		))
	if err != nil {
		return nil, err
	}
	container.db = db

	recommendationRepo := repository.NewRecommendationRepository(db)
	container.Repository = recommendationRepo

	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.Database,
	})

	// Test connection
	_, err = rdb.Ping(context.Background()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Info("✅ Connected to Redis successfully")

	redisQueue, err := queue.NewRedisQueue(rdb, cfg.Redis)
	if err != nil {
		return nil, err
	}
	container.Queue = redisQueue

	container.redis = rdb
	tracker := state.NewRedisTracker(rdb)
	container.Tracker = tracker

	// One storefront scraper per configured competitor store
	stores := make([]scrape.Store, 0, len(cfg.Scraper.Stores))
	for _, storeCfg := range cfg.Scraper.Stores {
		stores = append(stores, scrape.NewStorefront(storeCfg, cfg.Scraper, proxySupplier))
	}
	manager := scrape.NewManager(stores, cfg.Scraper.MaxWorkers)

	converter := fx.NewConverter(cfg.FX)
	estimator := pricing.NewEstimator(cfg.Pricing.ElasticityPriors)

	svc := service.NewService(
		recommendationRepo,
		manager,
		converter,
		redisQueue,
		tracker,
		estimator,
		cfg.Pricing,
		cfg.Redis.ConsumerGroup,
		cfg.Redis.MinIdleTime,
	)
	container.Service = svc

	return container, nil
}

// Run executes a full pricing pass: read the catalogue, enqueue one
// task per item, process tasks with the worker pool, and export the
// reports once every item has been priced.
func (c *Container) Run(ctx context.Context) error {
	items, err := ingest.ReadCatalogue(c.Config.Catalogue.CSVPath)
	if err != nil {
		return fmt.Errorf("failed to read catalogue: %w", err)
	}
	if len(items) == 0 {
		log.Warn("⚠️ Catalogue is empty, nothing to price")
		return nil
	}

	log.Infof("🔄 Pricing %d catalogue items", len(items))

	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	g, gctx := errgroup.WithContext(workerCtx)

	// Enqueue tasks for all items
	g.Go(func() error {
		return c.Service.EnqueueCatalogue(gctx, items)
	})

	// Run workers to process tasks
	g.Go(func() error {
		return c.Service.RunWorkers(gctx, c.Config.Scraper.MaxWorkers)
	})

	// Stop the workers once every item has been processed
	g.Go(func() error {
		ticker := time.NewTicker(progressPollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				processed, err := c.Tracker.CountProcessed(gctx)
				if err != nil {
					log.Errorf("❌ Failed to count processed items: %v", err)
					continue
				}
				if processed >= int64(len(items)) {
					log.Infof("✅ All %d items priced, stopping workers", len(items))
					cancelWorkers()
					return nil
				}
			}
		}
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}

	recs, err := c.Repository.ListRecommendations(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list recommendations: %w", err)
	}

	return report.Export(c.Config.Output.DataDir, c.Config.Output.ReportDir, recs)
}

// Close performs cleanup when shutting down
func (c *Container) Close() error {
	log.Info("Shutting down container...")

	c.db.Close()
	c.redis.Close()

	log.Info("Container shut down successfully")
	return nil
}
