// Package results persists benchmark result records, one JSON document per
// workload, either on the local filesystem or in a cloud blob bucket.
package results

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/axym-research/ingestbench/internal/bench"
)

// ErrNotFound is returned when no result record exists for a workload.
var ErrNotFound = errors.New("result not found")

// Store saves and retrieves result records.
type Store interface {
	// Save persists a result record, replacing any previous record for the
	// same workload name.
	Save(ctx context.Context, res *bench.Result) error

	// Load retrieves the record for a workload name.
	Load(ctx context.Context, name string) (*bench.Result, error)

	// List returns all stored records.
	List(ctx context.Context) ([]*bench.Result, error)

	Close() error
}

// Config configures a result store.
type Config struct {
	// Backend is "local" or "blob".
	Backend string `yaml:"backend"`
	// Dir is the local results directory.
	Dir string `yaml:"dir"`
	// BucketURL is a gocloud.dev bucket URL (s3://, gs://, file://).
	BucketURL string `yaml:"bucket_url"`
	// Prefix is prepended to blob keys.
	Prefix string `yaml:"prefix"`
}

// New creates a Store for the configured backend.
func New(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", "local":
		return newLocalStore(cfg.Dir)
	case "blob":
		return newBlobStore(ctx, cfg.BucketURL, cfg.Prefix)
	default:
		return nil, fmt.Errorf("unknown results backend %q", cfg.Backend)
	}
}

// Key returns the storage key for a workload's result record.
func Key(name string) string {
	return "ingest_" + slug(name) + ".json"
}

// slug lowercases a workload name and replaces separators so the key is safe
// as a filename and a blob key.
func slug(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, s)
	return strings.Trim(s, "_")
}
