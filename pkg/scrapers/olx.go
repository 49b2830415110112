package scrapers

import (
	"bytes"
	"context"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/adradar-hq/ad-radar/internal/domain"
	"github.com/adradar-hq/ad-radar/internal/logger"
	"golang.org/x/time/rate"
)

const (
	olxPlatform      = "olx"
	olxScheme        = "https"
	maxHTMLBodyBytes = 2 << 20 // 2 MiB
)

var olxSupportedDomains = []string{"www.olx.ua", "www.olx.pl", "www.olx.ro"}

// olxListingIDPattern matches the trailing ad identifier in OLX detail URLs.
var olxListingIDPattern = regexp.MustCompile(`-ID([0-9A-Za-z]+)\.html`)

// olxScraper walks OLX result pages via direct page requests and fetches each
// candidate's detail page separately. Candidates are never prepopulated.
type olxScraper struct {
	client    HTTPClient
	limiter   *rate.Limiter
	userAgent string
	log       logger.Logger
}

// NewOLXScraper builds the markup-scraping OLX integration.
func NewOLXScraper(client HTTPClient, userAgent string, log logger.Logger) Scraper {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &olxScraper{
		client:    client,
		limiter:   rate.NewLimiter(rate.Limit(2), 1), // 2 req/s per platform
		userAgent: userAgent,
		log:       logger.Ensure(log),
	}
}

func (o *olxScraper) Platform() string { return olxPlatform }

func (o *olxScraper) Supports(u *url.URL) bool {
	host := strings.ToLower(u.Host)
	for _, d := range olxSupportedDomains {
		if host == d {
			return true
		}
	}
	return false
}

func (o *olxScraper) OptionSpecs() []OptionSpec {
	return []OptionSpec{
		{Key: OptionMaxPages, Default: 5, Min: 1, Max: 32},
	}
}

// CollectListings walks result pages in order, yielding one candidate per ad
// card. Pages beyond the first are only requested when the consumer keeps
// ranging, so an early break never costs another fetch.
func (o *olxScraper) CollectListings(ctx context.Context, tgt domain.Target) iter.Seq2[domain.ListingCandidate, error] {
	opts := ValidateOptions(olxPlatform, o.OptionSpecs(), tgt.Options, o.log)
	maxPages := opts[OptionMaxPages]

	return func(yield func(domain.ListingCandidate, error) bool) {
		parsed, err := url.Parse(tgt.URL)
		if err != nil {
			yield(domain.ListingCandidate{}, fmt.Errorf("parse target url: %w", err))
			return
		}
		targetHost := parsed.Host

		for page := 1; page <= maxPages; page++ {
			pageURL := olxPageURL(parsed, page)
			doc, err := o.fetchDocument(ctx, pageURL)
			if err != nil {
				yield(domain.ListingCandidate{}, fmt.Errorf("fetch page %d: %w", page, err))
				return
			}

			cards := olxAdCards(doc)
			if cards == nil || cards.Length() == 0 {
				o.log.DebugObj("no ad cards on page", "olx_page", map[string]any{
					"url":  pageURL,
					"page": page,
				})
				return
			}

			stopped := false
			cards.EachWithBreak(func(_ int, card *goquery.Selection) bool {
				href := olxListingLink(card)
				if href == "" {
					return true
				}
				href = o.normalizeLink(href, targetHost)
				if href == "" {
					return true
				}

				cand := domain.ListingCandidate{
					Platform: olxPlatform,
					ID:       olxListingID(href),
					URL:      href,
				}
				if !yield(cand, nil) {
					stopped = true
					return false
				}
				return true
			})
			if stopped {
				return
			}

			if last, ok := olxLastPage(doc); ok && page >= last {
				return
			}
		}
	}
}

// GetAdData fetches and parses the full detail for a single OLX listing URL.
func (o *olxScraper) GetAdData(ctx context.Context, adURL string) (domain.Listing, error) {
	doc, err := o.fetchDocument(ctx, adURL)
	if err != nil {
		return domain.Listing{}, fmt.Errorf("fetch ad page: %w", err)
	}

	title := extractText(doc, []string{
		`[data-cy="ad_title"]`,
		`[data-testid="ad-title"]`,
		`h4.css-1au435n`,
		`h1.css-1soizd2`,
	}, " ")
	price := extractText(doc, []string{
		`[data-testid="ad-price-container"]`,
		`[data-testid="ad-price"]`,
		`h3.css-yauxmy`,
		`h3.css-ddweki`,
	}, " ")
	description := extractText(doc, []string{
		`[data-cy="ad_description"]`,
		`[data-testid="ad_description"]`,
		`div.css-19duwlz`,
		`div.css-bgzo2k`,
	}, "\n")
	seller := extractText(doc, []string{
		`[data-testid="seller-card"] h4`,
		`[data-testid="seller-contact"] h4`,
		`h4.css-14tb3q5`,
		`h4.css-1lcz6o7`,
	}, " ")

	var missing []string
	if title == "" {
		missing = append(missing, "title")
	}
	if price == "" {
		missing = append(missing, "price")
	}
	if description == "" {
		missing = append(missing, "description")
	}
	if len(missing) > 0 {
		return domain.Listing{}, fmt.Errorf("ad page missing required fields: %s", strings.Join(missing, ", "))
	}

	return domain.Listing{
		Platform:    olxPlatform,
		ID:          olxListingID(adURL),
		URL:         adURL,
		Title:       title,
		Price:       price,
		Seller:      seller,
		Images:      olxImages(doc),
		Description: description,
	}, nil
}

func (o *olxScraper) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	headers := map[string]string{}
	if o.userAgent != "" {
		headers["User-Agent"] = o.userAgent
	}

	resp, err := o.client.Get(ctx, pageURL, headers)
	if err != nil {
		return nil, fmt.Errorf("http fetch: %w", err)
	}
	body := resp.Body()
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("status %d body: %s", resp.StatusCode(), responseSnippet(body))
	}
	if len(body) > maxHTMLBodyBytes {
		body = body[:maxHTMLBodyBytes]
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// normalizeLink resolves relative hrefs against the target host and drops
// external or synthetic links (e.g. extended-region helper ads).
func (o *olxScraper) normalizeLink(href, targetHost string) string {
	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}

	if parsed.Host == "" {
		if !strings.HasPrefix(parsed.Path, "/") {
			return ""
		}
		parsed.Scheme = olxScheme
		parsed.Host = targetHost
	} else {
		supported := false
		for _, d := range olxSupportedDomains {
			if strings.EqualFold(parsed.Host, d) {
				supported = true
				break
			}
		}
		if !supported {
			return ""
		}
	}

	if strings.Contains(parsed.RawQuery, "reason=extended-region") {
		return ""
	}
	return parsed.String()
}

func olxPageURL(target *url.URL, page int) string {
	u := *target
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}

func olxAdCards(doc *goquery.Document) *goquery.Selection {
	selectors := []string{
		`[data-cy="l-card"]`,
		`[data-testid="l-card"]`,
		`div[data-cy="ad-card"]`,
		`div.css-1sw7q4x`,
	}
	for _, sel := range selectors {
		if cards := doc.Find(sel); cards.Length() > 0 {
			return cards
		}
	}
	return nil
}

func olxListingLink(card *goquery.Selection) string {
	selectors := []string{
		`a[data-cy="listing-ad-title"]`,
		`a[data-testid="ad-title"]`,
		`a[data-cy="ad-card-link"]`,
		`a[data-testid="ad-card-link"]`,
		`a.css-rc5s2u`,
		`a.css-1tqlkj0`,
	}
	for _, sel := range selectors {
		if link := card.Find(sel).First(); link.Length() > 0 {
			if href, ok := link.Attr("href"); ok && strings.TrimSpace(href) != "" {
				return strings.TrimSpace(href)
			}
		}
	}
	if link := card.Find("a[href]").First(); link.Length() > 0 {
		if href, ok := link.Attr("href"); ok {
			return strings.TrimSpace(href)
		}
	}
	return ""
}

func olxLastPage(doc *goquery.Document) (int, bool) {
	items := doc.Find("ul.pagination-list li.pagination-item")
	if items.Length() == 0 {
		return 0, false
	}
	last, err := strconv.Atoi(strings.TrimSpace(items.Last().Text()))
	if err != nil || last < 1 {
		return 0, false
	}
	return last, true
}

func olxImages(doc *goquery.Document) []string {
	var images []string
	seen := map[string]bool{}
	selectors := []string{
		`img[data-testid*="swiper-image"]`,
		`img[data-cy="gallery-image"]`,
		`img[data-testid="ad-image"]`,
	}
	for _, sel := range selectors {
		doc.Find(sel).Each(func(_ int, img *goquery.Selection) {
			if src, ok := img.Attr("src"); ok && src != "" && !seen[src] {
				seen[src] = true
				images = append(images, src)
			}
		})
	}
	return images
}

// olxListingID derives a stable per-platform id from the ad URL. OLX detail
// URLs carry an `-ID<token>.html` suffix; anything else hashes the URL.
func olxListingID(adURL string) string {
	if m := olxListingIDPattern.FindStringSubmatch(adURL); len(m) == 2 {
		return m[1]
	}
	return hashURL(adURL)
}

func extractText(doc *goquery.Document, selectors []string, separator string) string {
	for _, sel := range selectors {
		if node := doc.Find(sel).First(); node.Length() > 0 {
			parts := node.Contents().Map(func(_ int, s *goquery.Selection) string {
				return strings.TrimSpace(s.Text())
			})
			text := strings.TrimSpace(strings.Join(nonEmpty(parts), separator))
			if text != "" {
				return text
			}
		}
	}
	return ""
}

func nonEmpty(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
