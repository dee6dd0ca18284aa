// Package workload implements the ingestion benchmarks. Each workload loads
// the same claims dataset into one target system and reports what it loaded.
package workload

import (
	"context"
	"fmt"
	"sort"

	"github.com/axym-research/ingestbench/internal/bench"
	"github.com/axym-research/ingestbench/internal/checkpoint"
	"github.com/axym-research/ingestbench/internal/config"
)

// Ingestor loads the dataset into one target system.
type Ingestor interface {
	// Name is the display name recorded in the result.
	Name() string

	// Ingest performs the load and reports rows and on-disk footprint.
	// A non-nil payload may accompany an error; whatever was measured
	// before the failure is still recorded.
	Ingest(ctx context.Context) (*bench.Payload, error)
}

// Deps carries the shared pieces each workload may need.
type Deps struct {
	Config  config.Config
	Journal checkpoint.Journal
}

type factory func(Deps) Ingestor

var registry = map[string]factory{
	"postgres": func(d Deps) Ingestor { return newPostgres(d) },
	"graph":    func(d Deps) Ingestor { return newGraph(d) },
	"duckdb":   func(d Deps) Ingestor { return newDuckDB(d) },
	"axym":     func(d Deps) Ingestor { return newAxym(d) },
}

// New returns the workload registered under key.
func New(key string, deps Deps) (Ingestor, error) {
	f, ok := registry[key]
	if !ok {
		return nil, fmt.Errorf("unknown workload %q (available: %v)", key, Keys())
	}
	return f(deps), nil
}

// Keys lists the registered workload keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(registry))
	for k := range registry {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
