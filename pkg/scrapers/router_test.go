package scrapers

import (
	"context"
	"errors"
	"iter"
	"net/url"
	"strings"
	"testing"

	"github.com/adradar-hq/ad-radar/internal/domain"
)

// fakeScraper matches hosts containing its platform name.
type fakeScraper struct {
	platform string
}

func (f *fakeScraper) Platform() string { return f.platform }
func (f *fakeScraper) Supports(u *url.URL) bool {
	return strings.Contains(u.Host, f.platform)
}
func (f *fakeScraper) OptionSpecs() []OptionSpec { return nil }
func (f *fakeScraper) CollectListings(context.Context, domain.Target) iter.Seq2[domain.ListingCandidate, error] {
	return func(func(domain.ListingCandidate, error) bool) {}
}
func (f *fakeScraper) GetAdData(context.Context, string) (domain.Listing, error) {
	return domain.Listing{}, nil
}

func TestRouterRoutesByDomain(t *testing.T) {
	router := NewRouter(
		&fakeScraper{platform: "olx"},
		&fakeScraper{platform: "vinted"},
	)

	s, err := router.RouteFor(domain.Target{URL: "https://www.vinted.de/catalog"})
	if err != nil {
		t.Fatalf("RouteFor: %v", err)
	}
	if s.Platform() != "vinted" {
		t.Fatalf("routed to %q, want vinted", s.Platform())
	}
}

func TestRouterFirstMatchWins(t *testing.T) {
	first := &fakeScraper{platform: "market"}
	second := &fakeScraper{platform: "market"}
	router := NewRouter(first, second)

	s, err := router.RouteFor(domain.Target{URL: "https://www.market.example/items"})
	if err != nil {
		t.Fatalf("RouteFor: %v", err)
	}
	if s != Scraper(first) {
		t.Fatalf("expected first registered scraper to win")
	}
}

func TestRouterUnsupportedDomain(t *testing.T) {
	router := NewRouter(&fakeScraper{platform: "olx"})

	_, err := router.RouteFor(domain.Target{URL: "https://www.ebay.com/sch/ps5"})
	if !errors.Is(err, ErrUnsupportedPlatform) {
		t.Fatalf("expected ErrUnsupportedPlatform, got %v", err)
	}
}

func TestRouterRejectsHostlessURL(t *testing.T) {
	router := NewRouter(&fakeScraper{platform: "olx"})

	_, err := router.RouteFor(domain.Target{URL: "not-a-url"})
	if !errors.Is(err, ErrUnsupportedPlatform) {
		t.Fatalf("expected ErrUnsupportedPlatform, got %v", err)
	}
}

func TestRouterPlatforms(t *testing.T) {
	router := NewRouter(
		&fakeScraper{platform: "olx"},
		&fakeScraper{platform: "vinted"},
	)

	got := router.Platforms()
	if len(got) != 2 || got[0] != "olx" || got[1] != "vinted" {
		t.Fatalf("unexpected platforms %v", got)
	}
}
