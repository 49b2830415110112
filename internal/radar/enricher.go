package radar

import (
	"context"

	"github.com/adradar-hq/ad-radar/internal/domain"
	"github.com/adradar-hq/ad-radar/internal/logger"
	"github.com/adradar-hq/ad-radar/pkg/scrapers"
	"golang.org/x/sync/errgroup"
)

// enricher turns unseen candidates into fully populated, platform-tagged
// listings, fetching detail pages only for candidates that arrived without
// preloaded data.
type enricher struct {
	workers int
	log     logger.Logger
}

func newEnricher(workers int, log logger.Logger) *enricher {
	if workers < 1 {
		workers = 1
	}
	return &enricher{workers: workers, log: logger.Ensure(log)}
}

// enrich resolves each candidate to a listing, preserving input order.
// A detail-fetch failure drops only that candidate; it stays unseen and is
// retried next cycle.
func (e *enricher) enrich(ctx context.Context, scraper scrapers.Scraper, cands []domain.ListingCandidate) []domain.Listing {
	if len(cands) == 0 {
		return nil
	}

	results := make([]*domain.Listing, len(cands))

	var grp errgroup.Group
	grp.SetLimit(e.workers)

	for i, cand := range cands {
		if cand.Prepopulated {
			listing := stamp(cand.Listing, cand)
			results[i] = &listing
			continue
		}

		grp.Go(func() error {
			listing, err := scraper.GetAdData(ctx, cand.URL)
			if err != nil {
				e.log.WarnObj("detail fetch failed; dropping candidate", "detail_fetch_error", map[string]any{
					"platform": cand.Platform,
					"url":      cand.URL,
					"error":    err.Error(),
				})
				return nil
			}
			listing = stamp(listing, cand)
			results[i] = &listing
			return nil
		})
	}
	_ = grp.Wait()

	out := make([]domain.Listing, 0, len(cands))
	for _, listing := range results {
		if listing != nil {
			out = append(out, *listing)
		}
	}
	return out
}

// stamp forces the candidate's identity onto the listing so downstream
// consumers can always tell the origin apart.
func stamp(listing domain.Listing, cand domain.ListingCandidate) domain.Listing {
	listing.Platform = cand.Platform
	if listing.ID == "" {
		listing.ID = cand.ID
	}
	if listing.URL == "" {
		listing.URL = cand.URL
	}
	return listing
}
