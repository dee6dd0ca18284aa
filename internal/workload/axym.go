package workload

import (
	"context"
	"errors"
	"os/exec"

	"github.com/axym-research/ingestbench/internal/bench"
)

// ErrAxymUnavailable is returned when the axym CLI is not installed. The run
// still produces a result record marked pending so report output shows the
// platform's slot.
var ErrAxymUnavailable = errors.New("axym CLI not yet available")

// axymIngestor is the platform ingestion slot. Until the CLI ships it
// records a pending placeholder result.
type axymIngestor struct {
	deps Deps
}

func newAxym(d Deps) *axymIngestor {
	return &axymIngestor{deps: d}
}

func (a *axymIngestor) Name() string { return "AXYM" }

func (a *axymIngestor) Ingest(ctx context.Context) (*bench.Payload, error) {
	if _, err := exec.LookPath("axym"); err != nil {
		return &bench.Payload{
			Metadata: map[string]any{
				"status": "pending",
				"reason": "CLI under development",
			},
		}, ErrAxymUnavailable
	}

	// TODO: invoke `axym ingest <parquet>` and parse row_count/disk_bytes
	// from its output once the CLI stabilizes.
	return &bench.Payload{
		Metadata: map[string]any{
			"status": "pending",
			"reason": "CLI ingest output format not finalized",
		},
	}, ErrAxymUnavailable
}
