package scrapers

import (
	"context"
	"encoding/json"
	"net/url"
	"testing"

	"github.com/adradar-hq/ad-radar/internal/domain"
)

const vintedTargetURL = "https://www.vinted.pl/catalog?search_text=ps5"

func vintedAPIURL(pageSize, page int) string {
	parsed, err := url.Parse(vintedTargetURL)
	if err != nil {
		panic(err)
	}
	return vintedSearchURL(parsed, pageSize, page)
}

func TestVintedSearchURL(t *testing.T) {
	got := vintedAPIURL(20, 3)
	want := "https://www.vinted.pl/api/v2/catalog/items?order=newest_first&page=3&per_page=20&search_text=ps5"
	if got != want {
		t.Fatalf("search url = %q, want %q", got, want)
	}
}

func TestVintedCollectListingsPrepopulated(t *testing.T) {
	page1 := `{"items":[
		{"id":101,"title":"PS5 Digital","url":"https://www.vinted.pl/items/101-ps5-digital",
		 "price":{"amount":"1500.0","currency_code":"PLN"},
		 "user":{"login":"anna_k"},
		 "photos":[{"full_size_url":"https://img.vinted.pl/101-full.jpg","url":"https://img.vinted.pl/101.jpg"}]},
		{"id":102,"title":"PS5 Pro","path":"/items/102-ps5-pro","price":"2400.0",
		 "photo":{"url":"https://img.vinted.pl/102.jpg"}}
	]}`
	client := &mockHTTPClient{responses: map[string]mockResponse{
		vintedAPIURL(2, 1): {body: page1},
	}}
	s := NewVintedScraper(client, "", nil)

	tgt := domain.Target{URL: vintedTargetURL, Options: map[string]string{"page_size": "2", "max_pages": "1"}}
	got := collectAll(t, s, tgt)
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2", len(got))
	}

	first := got[0]
	if !first.Prepopulated {
		t.Fatal("vinted candidates must be prepopulated")
	}
	if first.Platform != "vinted" || first.ID != "101" {
		t.Fatalf("unexpected identity %s/%s", first.Platform, first.ID)
	}
	if first.Listing.Title != "PS5 Digital" {
		t.Fatalf("title = %q", first.Listing.Title)
	}
	if first.Listing.Price != "1500.0 PLN" {
		t.Fatalf("price = %q", first.Listing.Price)
	}
	if first.Listing.Seller != "anna_k" {
		t.Fatalf("seller = %q", first.Listing.Seller)
	}
	if len(first.Listing.Images) != 1 || first.Listing.Images[0] != "https://img.vinted.pl/101-full.jpg" {
		t.Fatalf("images = %v, want full-size photo preferred", first.Listing.Images)
	}

	second := got[1]
	if second.URL != "https://www.vinted.pl/items/102-ps5-pro" {
		t.Fatalf("path-only item not resolved against target host: %q", second.URL)
	}
	if second.Listing.Price != "2400.0" {
		t.Fatalf("plain-string price = %q", second.Listing.Price)
	}
	if len(second.Listing.Images) != 1 || second.Listing.Images[0] != "https://img.vinted.pl/102.jpg" {
		t.Fatalf("fallback photo not used: %v", second.Listing.Images)
	}
}

func TestVintedShortPageEndsEnumeration(t *testing.T) {
	// One item on a page sized for two: the feed is exhausted, page 2 is
	// never requested.
	page1 := `{"items":[{"id":101,"title":"PS5","url":"https://www.vinted.pl/items/101-ps5","price":"1500.0"}]}`
	client := &mockHTTPClient{responses: map[string]mockResponse{
		vintedAPIURL(2, 1): {body: page1},
	}}
	s := NewVintedScraper(client, "", nil)

	tgt := domain.Target{URL: vintedTargetURL, Options: map[string]string{"page_size": "2"}}
	got := collectAll(t, s, tgt)
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1", len(got))
	}
	if len(client.requests) != 1 {
		t.Fatalf("made %d requests, want 1", len(client.requests))
	}
}

func TestVintedEarlyBreakStopsFetching(t *testing.T) {
	page1 := `{"items":[
		{"id":101,"title":"A","url":"https://www.vinted.pl/items/101-a","price":"10.0"},
		{"id":102,"title":"B","url":"https://www.vinted.pl/items/102-b","price":"20.0"}
	]}`
	client := &mockHTTPClient{responses: map[string]mockResponse{
		vintedAPIURL(2, 1): {body: page1},
	}}
	s := NewVintedScraper(client, "", nil)

	tgt := domain.Target{URL: vintedTargetURL, Options: map[string]string{"page_size": "2"}}
	for cand, err := range s.CollectListings(context.Background(), tgt) {
		if err != nil {
			t.Fatalf("CollectListings: %v", err)
		}
		if cand.ID == "101" {
			break
		}
	}
	if len(client.requests) != 1 {
		t.Fatalf("made %d requests, want 1 (break must not fetch page 2)", len(client.requests))
	}
}

func TestVintedDropsItemsMissingFields(t *testing.T) {
	page1 := `{"items":[{"id":103,"title":"","url":"https://www.vinted.pl/items/103-x","price":"5.0"}]}`
	client := &mockHTTPClient{responses: map[string]mockResponse{
		vintedAPIURL(20, 1): {body: page1},
	}}
	s := NewVintedScraper(client, "", nil)

	got := collectAll(t, s, domain.Target{URL: vintedTargetURL})
	if len(got) != 0 {
		t.Fatalf("got %d candidates, want 0 (titleless item dropped)", len(got))
	}
}

func TestVintedPriceUnmarshal(t *testing.T) {
	var p vintedPrice
	if err := json.Unmarshal([]byte(`"12.5"`), &p); err != nil {
		t.Fatalf("plain string: %v", err)
	}
	if p.String() != "12.5" {
		t.Fatalf("plain price = %q", p.String())
	}

	p = vintedPrice{}
	if err := json.Unmarshal([]byte(`{"amount":"12.5","currency_code":"EUR"}`), &p); err != nil {
		t.Fatalf("object form: %v", err)
	}
	if p.String() != "12.5 EUR" {
		t.Fatalf("object price = %q", p.String())
	}

	if (vintedPrice{}).String() != "" {
		t.Fatal("empty price should render empty")
	}
}

func TestVintedListingID(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"https://www.vinted.pl/items/123456-wool-sweater", "123456"},
		{"https://www.vinted.de/items/987-x", "987"},
	}
	for _, tc := range cases {
		if got := vintedListingID(tc.url); got != tc.want {
			t.Fatalf("vintedListingID(%q) = %q, want %q", tc.url, got, tc.want)
		}
	}

	// Non-item URLs fall back to a stable hash.
	a := vintedListingID("https://www.vinted.pl/catalog?search_text=x")
	b := vintedListingID("https://www.vinted.pl/catalog?search_text=x")
	if a == "" || a != b {
		t.Fatalf("hash fallback not stable: %q vs %q", a, b)
	}
}

func TestVintedGetAdData(t *testing.T) {
	adURL := "https://www.vinted.pl/items/101-ps5-digital"
	page := `<html><head>
		<meta property="og:title" content="PS5 Digital">
		<meta property="og:description" content="Like new.">
		<meta property="product:price:amount" content="1500.0">
		<meta property="og:image" content="https://img.vinted.pl/101-full.jpg">
	</head><body></body></html>`
	client := &mockHTTPClient{responses: map[string]mockResponse{
		adURL: {body: page},
	}}
	s := NewVintedScraper(client, "", nil)

	listing, err := s.GetAdData(context.Background(), adURL)
	if err != nil {
		t.Fatalf("GetAdData: %v", err)
	}
	if listing.ID != "101" || listing.Title != "PS5 Digital" || listing.Price != "1500.0" {
		t.Fatalf("unexpected listing: %+v", listing)
	}
	if len(listing.Images) != 1 {
		t.Fatalf("images = %v", listing.Images)
	}
}
