package workload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/axym-research/ingestbench/internal/bench"
	"github.com/axym-research/ingestbench/internal/checkpoint"
	"github.com/axym-research/ingestbench/internal/logging"
)

const claimsTable = "medicaid_claims"

// probeTimeout bounds the post-failure query that asks the database how many
// rows actually persisted.
const probeTimeout = 5 * time.Second

var claimsColumns = []string{
	"billing_provider_npi",
	"servicing_provider_npi",
	"hcpcs_code",
	"claim_from_month",
	"total_unique_beneficiaries",
	"total_claims",
	"total_paid",
}

const createClaimsTable = `
CREATE TABLE IF NOT EXISTS medicaid_claims (
	billing_provider_npi       VARCHAR(10),
	servicing_provider_npi     VARCHAR(10),
	hcpcs_code                 VARCHAR(10),
	claim_from_month           TEXT,
	total_unique_beneficiaries INTEGER,
	total_claims               INTEGER,
	total_paid                 NUMERIC
)`

// postgresIngestor loads the dataset into PostgreSQL with the COPY protocol,
// journaling progress after every batch.
type postgresIngestor struct {
	deps Deps
}

func newPostgres(d Deps) *postgresIngestor {
	return &postgresIngestor{deps: d}
}

func (p *postgresIngestor) Name() string { return "PostgreSQL" }

func (p *postgresIngestor) Ingest(ctx context.Context) (*bench.Payload, error) {
	log := logging.Component("postgres")
	cfg := p.deps.Config

	pool, err := pgxpool.New(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, createClaimsTable); err != nil {
		return nil, fmt.Errorf("create table: %w", err)
	}
	// Clear existing data for a clean benchmark run.
	if _, err := pool.Exec(ctx, "TRUNCATE TABLE "+claimsTable); err != nil {
		return nil, fmt.Errorf("truncate table: %w", err)
	}

	reader, err := OpenClaims(cfg.ParquetPath())
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	totalRows := reader.NumRows()
	log.Info("starting load", "total_rows", totalRows, "batch_size", cfg.Ingest.BatchSize)

	var loaded int64
	rows := make([]Claim, cfg.Ingest.BatchSize)
	for {
		n, rerr := reader.Read(rows)
		if n > 0 {
			batch := rows[:n]
			copied, cerr := pool.CopyFrom(ctx, pgx.Identifier{claimsTable}, claimsColumns,
				pgx.CopyFromSlice(n, func(i int) ([]any, error) {
					c := batch[i]
					return []any{
						c.BillingProviderNPI,
						c.ServicingProviderNPI,
						c.HCPCSCode,
						c.ClaimFromMonth,
						c.TotalUniqueBeneficiaries,
						c.TotalClaims,
						c.TotalPaid,
					}, nil
				}))
			loaded += copied
			if cerr != nil {
				return p.fail(ctx, pool, loaded, totalRows, fmt.Errorf("copy batch: %w", cerr))
			}

			if werr := p.deps.Journal.Write(ctx, loaded, totalRows, checkpoint.StatusRunning); werr != nil {
				// Checkpointing is bookkeeping; a failed write must not
				// abort the load.
				log.Warn("checkpoint write failed", "error", werr)
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return p.fail(ctx, pool, loaded, totalRows, fmt.Errorf("read parquet batch: %w", rerr))
		}
	}

	// Update statistics for the query planner before measuring disk.
	if _, err := pool.Exec(ctx, "ANALYZE "+claimsTable); err != nil {
		log.Warn("analyze failed", "error", err)
	}

	var diskBytes int64
	if err := pool.QueryRow(ctx, "SELECT pg_total_relation_size($1)", claimsTable).Scan(&diskBytes); err != nil {
		return p.fail(ctx, pool, loaded, totalRows, fmt.Errorf("measure table size: %w", err))
	}

	if err := p.deps.Journal.Write(ctx, loaded, totalRows, checkpoint.StatusComplete); err != nil {
		log.Warn("final checkpoint write failed", "error", err)
	}

	return &bench.Payload{
		RowCount:  loaded,
		DiskBytes: diskBytes,
		Metadata: map[string]any{
			"batch_size": cfg.Ingest.BatchSize,
			"table":      claimsTable,
		},
	}, nil
}

// fail records a final error checkpoint and reports whatever persisted. The
// persisted count is re-probed from the database on its own short deadline
// since the load's context may already be canceled.
func (p *postgresIngestor) fail(ctx context.Context, pool *pgxpool.Pool, loaded, totalRows int64, cause error) (*bench.Payload, error) {
	probeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), probeTimeout)
	defer cancel()

	var persisted int64
	if err := pool.QueryRow(probeCtx, "SELECT COUNT(*) FROM "+claimsTable).Scan(&persisted); err == nil {
		loaded = persisted
	}

	if err := p.deps.Journal.Write(probeCtx, loaded, totalRows, checkpoint.StatusError); err != nil {
		logging.Component("postgres").Warn("error checkpoint write failed", "error", err)
	}

	if errors.Is(cause, context.Canceled) {
		cause = fmt.Errorf("load interrupted: %w", cause)
	}
	return &bench.Payload{
		RowCount: loaded,
		Metadata: map[string]any{
			"batch_size": p.deps.Config.Ingest.BatchSize,
			"table":      claimsTable,
		},
	}, cause
}
