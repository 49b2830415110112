package domain

// Domain contains the core models shared across packages.

// Target is one configured search URL plus its raw per-platform options.
// Immutable once parsed.
type Target struct {
	URL     string
	Options map[string]string
}

// ListingCandidate is a lightweight reference to one ad discovered while
// enumerating a target's search results. When Prepopulated is true the
// scraper already produced the full Listing and no detail fetch is needed.
type ListingCandidate struct {
	Platform     string
	ID           string
	URL          string
	Prepopulated bool
	Listing      Listing
}

// Listing is the fully populated, platform-tagged representation of one ad.
type Listing struct {
	Platform    string   `json:"platform"`
	ID          string   `json:"id"`
	URL         string   `json:"url"`
	Title       string   `json:"title"`
	Price       string   `json:"price"`
	Seller      string   `json:"seller,omitempty"`
	Images      []string `json:"images,omitempty"`
	Description string   `json:"description"`
}

// Key returns the globally unique identity of a listing.
func (l Listing) Key() string { return l.Platform + "/" + l.ID }

// Key returns the globally unique identity of the candidate's listing.
func (c ListingCandidate) Key() string { return c.Platform + "/" + c.ID }
