package storage

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Package storage provides the durable seen-listing store abstraction.

// Store tracks which (platform, id) pairs have already been surfaced.
type Store interface {
	Close() error
	Seen(platform, id string) (bool, error)
	Mark(platform, id string) error
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	ListingTTL      time.Duration
	CleanupInterval time.Duration
}

const (
	defaultListingTTL      = 30 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// Config selects and parameterizes the storage backend.
type Config struct {
	Type        string
	BBoltPath   string
	PostgresURL string
	Options     Options
}

// NewStore creates the configured storage backend.
func NewStore(ctx context.Context, cfg Config) (Store, error) {
	typ := strings.TrimSpace(strings.ToLower(cfg.Type))
	opts := normalizeOptions(cfg.Options)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(cfg.BBoltPath) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(cfg.BBoltPath, opts)
	case "postgres":
		if strings.TrimSpace(cfg.PostgresURL) == "" {
			return nil, fmt.Errorf("postgres storage requires a connection url")
		}
		return openPostgres(ctx, cfg.PostgresURL, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", cfg.Type)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.ListingTTL <= 0 {
		opts.ListingTTL = defaultListingTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

// storeKey builds the composite key under which a listing identity is stored.
func storeKey(platform, id string) string { return platform + "/" + id }

type noopStore struct{}

func (noopStore) Close() error                      { return nil }
func (noopStore) Seen(string, string) (bool, error) { return false, nil }
func (noopStore) Mark(string, string) error         { return nil }
