package app

import (
	"context"
	"fmt"
	"time"

	"github.com/adradar-hq/ad-radar/internal/config"
	"github.com/adradar-hq/ad-radar/internal/logger"
	"github.com/adradar-hq/ad-radar/internal/radar"
	"github.com/adradar-hq/ad-radar/internal/storage"
	"github.com/adradar-hq/ad-radar/internal/targets"
	"github.com/adradar-hq/ad-radar/pkg/notifiers"
	"github.com/adradar-hq/ad-radar/pkg/scrapers"
)

// Radar is the monitoring runtime. It manages the scrape loop, coordinating
// between the target list, the scraper router, the cycle service, and the
// notifier fanout. It also handles storage initialization and cleanup.
type Radar struct {
	cfg      *config.Config
	router   *scrapers.Router
	fanout   *notifiers.Fanout
	service  *radar.Service
	interval time.Duration
	log      logger.Logger
	store    storage.Store
}

// New builds a radar runtime from config files.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*Radar, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)
	if ctx == nil {
		ctx = context.Background()
	}

	notifierReg, err := notifiers.LoadRegistry(cfg.NotifiersFile)
	if err != nil {
		return nil, fmt.Errorf("load notifiers registry: %w", err)
	}
	enabledNotifiers := notifierReg.Enabled()
	if len(enabledNotifiers) == 0 {
		return nil, fmt.Errorf("no notifiers configured")
	}

	notifierClients, err := notifiers.BuildAll(ctx, notifiers.DefaultRegistry(), enabledNotifiers, log)
	if err != nil {
		return nil, fmt.Errorf("build notifiers: %w", err)
	}
	fanout := notifiers.NewFanout(notifierClients)
	notifierSummaries := make([]map[string]string, 0, len(enabledNotifiers))
	for _, notCfg := range enabledNotifiers {
		notifierSummaries = append(notifierSummaries, map[string]string{
			"id":   notCfg.ID,
			"type": notCfg.Type,
		})
	}
	log.InfoObj("notifiers registry loaded", "notifiers_meta", map[string]any{
		"count":     len(notifierSummaries),
		"notifiers": notifierSummaries,
	})

	store, err := storage.NewStore(ctx, storage.Config{
		Type:        cfg.StorageType,
		BBoltPath:   cfg.BBoltPath,
		PostgresURL: cfg.PostgresURL,
		Options: storage.Options{
			ListingTTL:      cfg.StorageTTL,
			CleanupInterval: cfg.StorageCleanupInterval,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"listing_ttl_seconds":      int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	userAgent := scrapers.RandomUserAgent()
	client := scrapers.DefaultHTTPClient()
	router := scrapers.NewRouter(
		scrapers.NewOLXScraper(client, userAgent, log),
		scrapers.NewVintedScraper(client, userAgent, log),
	)
	log.InfoObj("scraper router ready", "platforms", router.Platforms())

	service := radar.NewService(router, store, fanout, radar.Config{
		ListingWorkers: cfg.ListingWorkers,
		DetailWorkers:  cfg.DetailWorkers,
		TargetTimeout:  cfg.TargetTimeout,
	}, log)

	return &Radar{
		cfg:      cfg,
		router:   router,
		fanout:   fanout,
		service:  service,
		interval: cfg.ScrapeInterval,
		log:      log,
		store:    store,
	}, nil
}

// Run starts the scrape loop until the context is cancelled. Cycles run one
// at a time off a single ticker, so they never overlap.
func (r *Radar) Run(ctx context.Context) error {
	if r == nil || r.service == nil {
		return fmt.Errorf("radar is not initialized")
	}
	defer r.closeStore()
	defer r.closeNotifiers()

	r.log.InfoObj("radar loop starting", "radar_state", map[string]any{
		"platforms":       r.router.Platforms(),
		"notifiers_count": r.fanout.Size(),
		"scrape_interval": r.interval.String(),
	})

	if err := r.runOnce(ctx); err != nil {
		r.log.ErrorObj("initial cycle failed", "error", err)
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.InfoObj("radar loop exiting", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if err := r.runOnce(ctx); err != nil {
				r.log.ErrorObj("scheduled cycle failed", "error", err)
			}
		}
	}
}

// runOnce reloads the target list and performs a single monitoring cycle, so
// target edits take effect without a restart.
func (r *Radar) runOnce(ctx context.Context) error {
	start := time.Now()

	tgts, err := targets.Load(r.cfg.TargetsFile, r.log)
	if err != nil {
		return fmt.Errorf("load targets: %w", err)
	}
	if len(tgts) == 0 {
		return nil
	}

	r.log.InfoObj("cycle started", "cycle_meta", map[string]any{
		"targets_count": len(tgts),
		"started_at":    start.UTC(),
	})
	batch, err := r.service.RunCycle(ctx, tgts)
	if err != nil {
		return err
	}
	r.log.InfoObj("cycle completed", "cycle_meta", map[string]any{
		"targets_count": len(tgts),
		"new_listings":  len(batch),
		"elapsed_ms":    time.Since(start).Milliseconds(),
	})
	return nil
}

// closeNotifiers releases notifier-held broker connections on shutdown.
func (r *Radar) closeNotifiers() {
	if r == nil || r.fanout == nil {
		return
	}
	if err := r.fanout.Close(); err != nil {
		r.log.ErrorObj("notifier close failed", "error", err)
	}
}

// closeStore safely closes the storage backend, logging any errors encountered.
func (r *Radar) closeStore() {
	if r == nil || r.store == nil {
		return
	}
	if err := r.store.Close(); err != nil {
		r.log.ErrorObj("storage close failed", "error", err)
	}
}
