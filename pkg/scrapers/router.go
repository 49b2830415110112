package scrapers

import (
	"fmt"
	"net/url"
	"sync"

	"github.com/adradar-hq/ad-radar/internal/domain"
)

// ErrUnsupportedPlatform is returned when no registered scraper matches a
// target's domain. Callers treat it as a skip, not a failure.
var ErrUnsupportedPlatform = fmt.Errorf("unsupported platform")

// Router maps a target URL's domain to the registered scraper responsible
// for it. Scrapers are evaluated in registration order, first match wins.
type Router struct {
	mu       sync.RWMutex
	scrapers []Scraper
}

// NewRouter builds a router with the provided scrapers pre-registered.
func NewRouter(scrapers ...Scraper) *Router {
	r := &Router{}
	for _, s := range scrapers {
		r.Register(s)
	}
	return r
}

// Register appends a scraper to the routing order. Adding a platform requires
// only implementing the Scraper interface and registering an instance.
func (r *Router) Register(s Scraper) {
	if s == nil {
		return
	}
	r.mu.Lock()
	r.scrapers = append(r.scrapers, s)
	r.mu.Unlock()
}

// RouteFor returns the scraper responsible for the target's domain.
func (r *Router) RouteFor(tgt domain.Target) (Scraper, error) {
	u, err := url.Parse(tgt.URL)
	if err != nil {
		return nil, fmt.Errorf("parse target url %q: %w", tgt.URL, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("target url %q has no host: %w", tgt.URL, ErrUnsupportedPlatform)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.scrapers {
		if s.Supports(u) {
			return s, nil
		}
	}
	return nil, fmt.Errorf("no scraper for domain %q: %w", u.Host, ErrUnsupportedPlatform)
}

// Platforms returns the registered platform identifiers in routing order.
func (r *Router) Platforms() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.scrapers))
	for _, s := range r.scrapers {
		out = append(out, s.Platform())
	}
	return out
}
