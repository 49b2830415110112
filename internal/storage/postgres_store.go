package storage

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const seenListingsSchema = `
CREATE TABLE IF NOT EXISTS seen_listings (
    platform   TEXT        NOT NULL,
    listing_id TEXT        NOT NULL,
    expires_at TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (platform, listing_id)
);`

// postgresStore implements a Store backed by PostgreSQL.
type postgresStore struct {
	pool            *pgxpool.Pool
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	listingTTL      time.Duration
	cleanupInterval time.Duration
}

// openPostgres initializes a PostgreSQL-backed Store and ensures the schema exists.
func openPostgres(ctx context.Context, url string, opts Options) (Store, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if _, err := pool.Exec(ctx, seenListingsSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure seen_listings schema: %w", err)
	}

	store := &postgresStore{
		pool:            pool,
		listingTTL:      opts.ListingTTL,
		cleanupInterval: opts.CleanupInterval,
	}
	store.lastCleanup.Store(time.Now().Unix())
	return store, nil
}

// Close releases the connection pool.
func (p *postgresStore) Close() error {
	if p == nil || p.pool == nil {
		return nil
	}
	p.pool.Close()
	return nil
}

// Seen checks whether the (platform, id) pair has been surfaced before.
func (p *postgresStore) Seen(platform, id string) (bool, error) {
	if p == nil || p.pool == nil {
		return false, nil
	}

	if err := p.maybeCleanupExpired(time.Now()); err != nil {
		return false, err
	}

	var exists bool
	err := p.pool.QueryRow(context.Background(),
		`SELECT EXISTS (
		     SELECT 1 FROM seen_listings
		     WHERE platform = $1 AND listing_id = $2 AND expires_at > now()
		 )`, platform, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query seen listing: %w", err)
	}
	return exists, nil
}

// Mark records the (platform, id) pair as surfaced.
func (p *postgresStore) Mark(platform, id string) error {
	if p == nil || p.pool == nil {
		return nil
	}

	now := time.Now()
	if err := p.maybeCleanupExpired(now); err != nil {
		return err
	}

	_, err := p.pool.Exec(context.Background(),
		`INSERT INTO seen_listings (platform, listing_id, expires_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (platform, listing_id) DO UPDATE SET expires_at = EXCLUDED.expires_at`,
		platform, id, now.Add(p.listingTTL))
	if err != nil {
		return fmt.Errorf("mark seen listing: %w", err)
	}
	return nil
}

// maybeCleanupExpired deletes expired rows on a fixed cadence to avoid unbounded growth.
func (p *postgresStore) maybeCleanupExpired(now time.Time) error {
	if p == nil || p.pool == nil {
		return nil
	}

	last := time.Unix(p.lastCleanup.Load(), 0)
	if now.Sub(last) < p.cleanupInterval {
		return nil
	}

	p.cleanupMu.Lock()
	defer p.cleanupMu.Unlock()

	last = time.Unix(p.lastCleanup.Load(), 0)
	if now.Sub(last) < p.cleanupInterval {
		return nil
	}

	if _, err := p.pool.Exec(context.Background(),
		`DELETE FROM seen_listings WHERE expires_at <= now()`); err != nil {
		return fmt.Errorf("cleanup expired listings: %w", err)
	}
	p.lastCleanup.Store(now.Unix())
	return nil
}
