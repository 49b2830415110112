package radar

import (
	"context"

	"github.com/adradar-hq/ad-radar/internal/domain"
	"github.com/adradar-hq/ad-radar/internal/logger"
	"github.com/adradar-hq/ad-radar/pkg/scrapers"
)

// collectNew drives a scraper's candidate sequence for one target and stops
// the moment a previously seen listing shows up, even mid-page. The scraper
// feed is newest-first, so everything after the first seen hit has already
// been surfaced. When the page cap runs out before a seen hit, older unseen
// listings are simply not examined this cycle.
//
// A fetch error ends enumeration for this target only; candidates collected
// before the error are returned alongside it.
func collectNew(ctx context.Context, scraper scrapers.Scraper, tgt domain.Target, store SeenStore, log logger.Logger) ([]domain.ListingCandidate, error) {
	log = logger.Ensure(log)

	var fresh []domain.ListingCandidate
	var collectErr error

	for cand, err := range scraper.CollectListings(ctx, tgt) {
		if err != nil {
			collectErr = err
			break
		}

		seen, err := store.Seen(cand.Platform, cand.ID)
		if err != nil {
			// A read failure must not hide the listing; treat it as
			// unseen and let the mark-after-success path sort it out.
			log.WarnObj("seen lookup failed; treating listing as new", "seen_lookup_error", map[string]any{
				"platform": cand.Platform,
				"id":       cand.ID,
				"error":    err.Error(),
			})
		} else if seen {
			log.DebugObj("known listing reached; stopping enumeration", "pagination_stop", map[string]any{
				"platform":  cand.Platform,
				"id":        cand.ID,
				"collected": len(fresh),
			})
			break
		}

		fresh = append(fresh, cand)
	}

	return fresh, collectErr
}
