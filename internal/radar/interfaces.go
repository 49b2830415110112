package radar

import (
	"context"

	"github.com/adradar-hq/ad-radar/internal/domain"
)

// SeenStore is the slice of the storage contract the cycle engine depends on.
type SeenStore interface {
	Seen(platform, id string) (bool, error)
	Mark(platform, id string) error
}

// Dispatcher receives the aggregated batch of new listings once per cycle.
// Delivery must be idempotent per (platform, id).
type Dispatcher interface {
	Dispatch(ctx context.Context, batch []domain.Listing) error
}
