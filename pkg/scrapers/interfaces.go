package scrapers

import (
	"context"
	"iter"
	"net/url"
	"time"

	"github.com/adradar-hq/ad-radar/internal/domain"
	"github.com/adradar-hq/ad-radar/pkg/httpclient"
)

// Scraper is the capability set every marketplace integration implements.
// Concrete implementations live in platform-specific files (e.g., olx.go).
type Scraper interface {
	// Platform returns the identifier stamped onto listings from this marketplace.
	Platform() string

	// Supports reports whether this scraper handles the given search URL.
	Supports(u *url.URL) bool

	// OptionSpecs declares the numeric target options this platform recognizes.
	OptionSpecs() []OptionSpec

	// CollectListings enumerates candidates for the target's search,
	// newest-first, one at a time. Each call starts from page one; the
	// consumer may stop ranging at any point and no further pages are
	// fetched. A fetch failure surfaces as a non-nil error element and ends
	// the sequence.
	CollectListings(ctx context.Context, tgt domain.Target) iter.Seq2[domain.ListingCandidate, error]

	// GetAdData fetches and parses the full detail for a single listing URL.
	GetAdData(ctx context.Context, adURL string) (domain.Listing, error)
}

// HTTPClient aliases the shared httpclient.Client interface for clarity within scrapers.
type HTTPClient = httpclient.Client

// DefaultHTTPClient returns a tuned HTTP client for scraper implementations.
func DefaultHTTPClient() HTTPClient { return httpclient.NewRestyClient(30 * time.Second) }
