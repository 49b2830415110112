package notifiers

import (
	"time"

	"github.com/adradar-hq/ad-radar/internal/domain"
)

// Event represents one new listing pushed downstream.
type Event struct {
	Platform    string         `json:"platform"`
	Listing     domain.Listing `json:"listing"`
	CollectedAt time.Time      `json:"collected_at"`
}

// NewEvent constructs an Event for the given listing.
func NewEvent(listing domain.Listing) Event {
	return Event{
		Platform:    listing.Platform,
		Listing:     listing,
		CollectedAt: time.Now().UTC(),
	}
}
