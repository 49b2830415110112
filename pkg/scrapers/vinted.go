package scrapers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/adradar-hq/ad-radar/internal/domain"
	"github.com/adradar-hq/ad-radar/internal/logger"
	"golang.org/x/time/rate"
)

const (
	vintedPlatform    = "vinted"
	vintedCatalogPath = "/api/v2/catalog/items"
)

// vintedScraper retrieves rich listing metadata directly from the catalog
// search API. Candidates are always prepopulated, so the detail fetch is
// normally skipped.
type vintedScraper struct {
	client    HTTPClient
	limiter   *rate.Limiter
	userAgent string
	log       logger.Logger
}

// NewVintedScraper builds the API-backed Vinted integration.
func NewVintedScraper(client HTTPClient, userAgent string, log logger.Logger) Scraper {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &vintedScraper{
		client:    client,
		limiter:   rate.NewLimiter(rate.Limit(1), 1), // 1 req/s per platform
		userAgent: userAgent,
		log:       logger.Ensure(log),
	}
}

func (v *vintedScraper) Platform() string { return vintedPlatform }

func (v *vintedScraper) Supports(u *url.URL) bool {
	return strings.Contains(strings.ToLower(u.Host), "vinted")
}

func (v *vintedScraper) OptionSpecs() []OptionSpec {
	return []OptionSpec{
		{Key: OptionPageSize, Default: 20, Min: 1, Max: 96},
		{Key: OptionMaxPages, Default: 10, Min: 1, Max: 32},
	}
}

// CollectListings pages through the catalog API newest-first. A short page
// ends enumeration; so does the consumer breaking out of the range.
func (v *vintedScraper) CollectListings(ctx context.Context, tgt domain.Target) iter.Seq2[domain.ListingCandidate, error] {
	opts := ValidateOptions(vintedPlatform, v.OptionSpecs(), tgt.Options, v.log)
	pageSize := opts[OptionPageSize]
	maxPages := opts[OptionMaxPages]

	return func(yield func(domain.ListingCandidate, error) bool) {
		parsed, err := url.Parse(tgt.URL)
		if err != nil {
			yield(domain.ListingCandidate{}, fmt.Errorf("parse target url: %w", err))
			return
		}

		for page := 1; page <= maxPages; page++ {
			items, err := v.searchPage(ctx, parsed, pageSize, page)
			if err != nil {
				yield(domain.ListingCandidate{}, fmt.Errorf("fetch page %d: %w", page, err))
				return
			}
			if len(items) == 0 {
				return
			}

			for _, item := range items {
				listing, ok := v.buildListing(item, parsed)
				if !ok {
					continue
				}
				cand := domain.ListingCandidate{
					Platform:     vintedPlatform,
					ID:           listing.ID,
					URL:          listing.URL,
					Prepopulated: true,
					Listing:      listing,
				}
				if !yield(cand, nil) {
					return
				}
			}

			// A short page means the feed is exhausted.
			if len(items) < pageSize {
				return
			}
		}
	}
}

// GetAdData hydrates a listing from its public page metadata. With the API
// already prepopulating candidates this is only hit for retried URLs.
func (v *vintedScraper) GetAdData(ctx context.Context, adURL string) (domain.Listing, error) {
	if err := v.limiter.Wait(ctx); err != nil {
		return domain.Listing{}, err
	}

	resp, err := v.client.Get(ctx, adURL, v.headers())
	if err != nil {
		return domain.Listing{}, fmt.Errorf("http fetch: %w", err)
	}
	body := resp.Body()
	if resp.StatusCode() != http.StatusOK {
		return domain.Listing{}, fmt.Errorf("status %d body: %s", resp.StatusCode(), responseSnippet(body))
	}
	if len(body) > maxHTMLBodyBytes {
		body = body[:maxHTMLBodyBytes]
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return domain.Listing{}, fmt.Errorf("parse html: %w", err)
	}

	meta := func(sel string) string {
		if node := doc.Find(sel).First(); node.Length() > 0 {
			if val, ok := node.Attr("content"); ok {
				return strings.TrimSpace(val)
			}
		}
		return ""
	}

	title := firstNonEmpty(
		meta(`meta[property="og:title"]`),
		strings.TrimSpace(doc.Find("title").First().Text()),
	)
	if title == "" {
		return domain.Listing{}, fmt.Errorf("ad page %s has no usable metadata", adURL)
	}

	listing := domain.Listing{
		Platform:    vintedPlatform,
		ID:          vintedListingID(adURL),
		URL:         adURL,
		Title:       title,
		Price:       meta(`meta[property="product:price:amount"]`),
		Description: firstNonEmpty(meta(`meta[property="og:description"]`), meta(`meta[name="description"]`)),
	}
	if img := meta(`meta[property="og:image"]`); img != "" {
		listing.Images = []string{img}
	}
	return listing, nil
}

func (v *vintedScraper) searchPage(ctx context.Context, target *url.URL, pageSize, page int) ([]vintedItem, error) {
	if err := v.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	apiURL := vintedSearchURL(target, pageSize, page)
	resp, err := v.client.Get(ctx, apiURL, v.headers())
	if err != nil {
		return nil, fmt.Errorf("http fetch: %w", err)
	}
	body := resp.Body()
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("status %d body: %s", resp.StatusCode(), responseSnippet(body))
	}

	var decoded vintedSearchResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decode catalog response: %w", err)
	}
	return decoded.Items, nil
}

// buildListing converts an API item into a fully populated listing. Items
// missing a title, price, or URL are dropped.
func (v *vintedScraper) buildListing(item vintedItem, target *url.URL) (domain.Listing, bool) {
	adURL := strings.TrimSpace(item.URL)
	if adURL == "" && item.Path != "" {
		scheme := target.Scheme
		if scheme == "" {
			scheme = "https"
		}
		adURL = scheme + "://" + target.Host + item.Path
	}

	price := item.Price.String()
	if adURL == "" || item.Title == "" || price == "" {
		v.log.DebugObj("dropping catalog item with missing fields", "vinted_item", map[string]any{
			"id":    item.ID,
			"url":   adURL,
			"title": item.Title,
		})
		return domain.Listing{}, false
	}

	listing := domain.Listing{
		Platform:    vintedPlatform,
		ID:          strconv.FormatInt(item.ID, 10),
		URL:         adURL,
		Title:       item.Title,
		Price:       price,
		Description: firstNonEmpty(item.Description, item.Title),
	}
	if item.User != nil {
		listing.Seller = item.User.Login
	}
	for _, photo := range item.Photos {
		if u := firstNonEmpty(photo.FullSizeURL, photo.URL); u != "" {
			listing.Images = append(listing.Images, u)
		}
	}
	if len(listing.Images) == 0 && item.Photo != nil {
		if u := firstNonEmpty(item.Photo.FullSizeURL, item.Photo.URL); u != "" {
			listing.Images = []string{u}
		}
	}
	return listing, true
}

func (v *vintedScraper) headers() map[string]string {
	headers := map[string]string{"Accept": "application/json"}
	if v.userAgent != "" {
		headers["User-Agent"] = v.userAgent
	}
	return headers
}

// vintedSearchURL maps a catalog browse URL onto the search API, carrying the
// target's query filters and forcing newest-first ordering.
func vintedSearchURL(target *url.URL, pageSize, page int) string {
	api := url.URL{
		Scheme: "https",
		Host:   target.Host,
		Path:   vintedCatalogPath,
	}
	q := target.Query()
	q.Set("per_page", strconv.Itoa(pageSize))
	q.Set("page", strconv.Itoa(page))
	q.Set("order", "newest_first")
	api.RawQuery = q.Encode()
	return api.String()
}

// vintedListingID extracts the numeric id prefix of a detail URL slug, e.g.
// /items/123456-wool-sweater. Falls back to hashing the URL.
func vintedListingID(adURL string) string {
	parsed, err := url.Parse(adURL)
	if err == nil {
		segs := strings.Split(strings.Trim(parsed.Path, "/"), "/")
		if len(segs) >= 2 && segs[len(segs)-2] == "items" {
			slug := segs[len(segs)-1]
			if id, _, _ := strings.Cut(slug, "-"); id != "" {
				if _, convErr := strconv.ParseInt(id, 10, 64); convErr == nil {
					return id
				}
			}
		}
	}
	return hashURL(adURL)
}

type vintedSearchResponse struct {
	Items []vintedItem `json:"items"`
}

type vintedItem struct {
	ID          int64         `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	URL         string        `json:"url"`
	Path        string        `json:"path"`
	Price       vintedPrice   `json:"price"`
	Photo       *vintedPhoto  `json:"photo"`
	Photos      []vintedPhoto `json:"photos"`
	User        *vintedUser   `json:"user"`
}

// vintedPrice tolerates both the object form {"amount","currency_code"} and
// the older plain-string form.
type vintedPrice struct {
	Amount       string
	CurrencyCode string
}

func (p *vintedPrice) UnmarshalJSON(data []byte) error {
	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		p.Amount = plain
		return nil
	}
	var obj struct {
		Amount       string `json:"amount"`
		CurrencyCode string `json:"currency_code"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	p.Amount = obj.Amount
	p.CurrencyCode = obj.CurrencyCode
	return nil
}

func (p vintedPrice) String() string {
	if p.Amount == "" {
		return ""
	}
	if p.CurrencyCode == "" {
		return p.Amount
	}
	return p.Amount + " " + p.CurrencyCode
}

type vintedPhoto struct {
	URL         string `json:"url"`
	FullSizeURL string `json:"full_size_url"`
}

type vintedUser struct {
	Login string `json:"login"`
}
