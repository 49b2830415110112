package radar

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/adradar-hq/ad-radar/internal/domain"
	"github.com/adradar-hq/ad-radar/internal/logger"
	"github.com/adradar-hq/ad-radar/pkg/scrapers"
	"golang.org/x/sync/errgroup"
)

// Service drives one monitoring cycle: route every target to its scraper,
// enumerate unseen candidates with early-stop pagination, enrich them into
// listings, mark them seen, and hand the aggregated batch to the dispatcher.
type Service struct {
	router        *scrapers.Router
	store         SeenStore
	dispatcher    Dispatcher
	enricher      *enricher
	log           logger.Logger
	targetWorkers int
	targetTimeout time.Duration
}

// Config bounds the per-cycle concurrency and timeouts.
type Config struct {
	ListingWorkers int
	DetailWorkers  int
	TargetTimeout  time.Duration
}

// NewService wires the cycle engine.
func NewService(router *scrapers.Router, store SeenStore, dispatcher Dispatcher, cfg Config, log logger.Logger) *Service {
	if cfg.ListingWorkers < 1 {
		cfg.ListingWorkers = 1
	}
	if cfg.TargetTimeout <= 0 {
		cfg.TargetTimeout = 2 * time.Minute
	}
	log = logger.Ensure(log)
	return &Service{
		router:        router,
		store:         store,
		dispatcher:    dispatcher,
		enricher:      newEnricher(cfg.DetailWorkers, log),
		log:           log,
		targetWorkers: cfg.ListingWorkers,
		targetTimeout: cfg.TargetTimeout,
	}
}

// RunCycle executes one full pass over the targets and returns the batch of
// new listings that was dispatched. Errors below cycle granularity are
// absorbed and logged; only seen-state persistence failures abort the cycle,
// in which case nothing is dispatched.
func (s *Service) RunCycle(ctx context.Context, targets []domain.Target) ([]domain.Listing, error) {
	if s == nil || s.router == nil || s.store == nil {
		return nil, fmt.Errorf("radar service is not initialized")
	}
	if len(targets) == 0 {
		return nil, nil
	}

	agg := newCycleAggregator()

	var grp errgroup.Group
	grp.SetLimit(s.targetWorkers)
	for _, tgt := range targets {
		grp.Go(func() error {
			return s.runTarget(ctx, tgt, agg)
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, fmt.Errorf("cycle aborted: %w", err)
	}

	batch := agg.batch()
	if len(batch) == 0 {
		s.log.InfoObj("no new listings this cycle", "targets_count", len(targets))
		return nil, nil
	}

	if s.dispatcher != nil {
		if err := s.dispatcher.Dispatch(ctx, batch); err != nil {
			// Delivery is idempotent per (platform, id) downstream; a
			// dispatch failure is logged, not retried within the cycle.
			s.log.ErrorObj("dispatch failed", "dispatch_error", map[string]any{
				"batch_size": len(batch),
				"error":      err.Error(),
			})
		}
	}

	s.log.InfoObj("cycle produced new listings", "cycle_result", map[string]any{
		"targets_count": len(targets),
		"new_listings":  len(batch),
	})
	return batch, nil
}

// runTarget routes, collects, and enriches a single target. Only seen-state
// write failures are returned; everything else is absorbed here.
func (s *Service) runTarget(ctx context.Context, tgt domain.Target, agg *cycleAggregator) error {
	scraper, err := s.router.RouteFor(tgt)
	if err != nil {
		if errors.Is(err, scrapers.ErrUnsupportedPlatform) {
			s.log.WarnObj("skipping unsupported target", "target_url", tgt.URL)
			return nil
		}
		s.log.WarnObj("skipping unroutable target", "route_error", map[string]any{
			"url":   tgt.URL,
			"error": err.Error(),
		})
		return nil
	}

	tctx, cancel := context.WithTimeout(ctx, s.targetTimeout)
	defer cancel()

	cands, collectErr := collectNew(tctx, scraper, tgt, s.store, s.log)
	if collectErr != nil {
		if tctx.Err() != nil {
			// Timed-out targets contribute nothing; their listings stay
			// unseen and are retried next cycle.
			s.log.WarnObj("target timed out; discarding partial results", "target_timeout", map[string]any{
				"platform": scraper.Platform(),
				"url":      tgt.URL,
			})
			return nil
		}
		s.log.WarnObj("enumeration aborted for target", "collect_error", map[string]any{
			"platform":  scraper.Platform(),
			"url":       tgt.URL,
			"collected": len(cands),
			"error":     collectErr.Error(),
		})
	}

	cands = agg.claim(cands)
	if len(cands) == 0 {
		return nil
	}

	listings := s.enricher.enrich(tctx, scraper, cands)
	if tctx.Err() != nil && ctx.Err() == nil {
		s.log.WarnObj("target timed out during enrichment; discarding partial results", "target_timeout", map[string]any{
			"platform": scraper.Platform(),
			"url":      tgt.URL,
		})
		return nil
	}

	for _, listing := range listings {
		// Mark only once the listing is normalized and accepted into the
		// output batch. A persistence failure is fatal for the cycle:
		// nothing may count as seen unless the write stuck.
		if err := s.store.Mark(listing.Platform, listing.ID); err != nil {
			return fmt.Errorf("mark listing %s seen: %w", listing.Key(), err)
		}
		agg.append(listing)
	}

	s.log.InfoObj("target processed", "target_result", map[string]any{
		"platform":     scraper.Platform(),
		"url":          tgt.URL,
		"new_listings": len(listings),
	})
	return nil
}

// cycleAggregator holds the cross-target state of one cycle: the output batch
// and the set of listing identities already claimed, so two targets covering
// the same search cannot surface a listing twice.
type cycleAggregator struct {
	mu      sync.Mutex
	claimed map[string]bool
	out     []domain.Listing
}

func newCycleAggregator() *cycleAggregator {
	return &cycleAggregator{claimed: make(map[string]bool)}
}

// claim filters out candidates another target already claimed this cycle and
// reserves the rest, preserving order.
func (a *cycleAggregator) claim(cands []domain.ListingCandidate) []domain.ListingCandidate {
	if len(cands) == 0 {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]domain.ListingCandidate, 0, len(cands))
	for _, cand := range cands {
		key := cand.Key()
		if a.claimed[key] {
			continue
		}
		a.claimed[key] = true
		out = append(out, cand)
	}
	return out
}

func (a *cycleAggregator) append(listing domain.Listing) {
	a.mu.Lock()
	a.out = append(a.out, listing)
	a.mu.Unlock()
}

func (a *cycleAggregator) batch() []domain.Listing {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.out
}
