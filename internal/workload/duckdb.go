package workload

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver

	"github.com/axym-research/ingestbench/internal/bench"
	"github.com/axym-research/ingestbench/internal/checkpoint"
	"github.com/axym-research/ingestbench/internal/logging"
)

// duckdbIngestor loads the dataset into an embedded DuckDB database with a
// single CREATE TABLE AS over the parquet file.
type duckdbIngestor struct {
	deps Deps
}

func newDuckDB(d Deps) *duckdbIngestor {
	return &duckdbIngestor{deps: d}
}

func (d *duckdbIngestor) Name() string { return "DuckDB" }

func (d *duckdbIngestor) Ingest(ctx context.Context) (*bench.Payload, error) {
	log := logging.Component("duckdb")
	cfg := d.deps.Config

	if err := os.MkdirAll(filepath.Dir(cfg.DuckDB.Path), 0755); err != nil {
		return nil, fmt.Errorf("create duckdb directory: %w", err)
	}

	db, err := sql.Open("duckdb", cfg.DuckDB.Path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	defer db.Close()

	// Drop existing table for a clean benchmark run.
	if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+claimsTable); err != nil {
		return nil, fmt.Errorf("drop table: %w", err)
	}

	createSQL := fmt.Sprintf(
		"CREATE TABLE %s AS SELECT * FROM read_parquet('%s')",
		claimsTable, cfg.ParquetPath())
	if _, err := db.ExecContext(ctx, createSQL); err != nil {
		return nil, fmt.Errorf("load parquet: %w", err)
	}

	var rowCount int64
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+claimsTable).Scan(&rowCount); err != nil {
		return nil, fmt.Errorf("count rows: %w", err)
	}

	// Indexes matching the PostgreSQL table, for a fair comparison.
	indexes := []string{
		fmt.Sprintf(`CREATE INDEX idx_billing_npi ON %s("Billing_Provider_NPI")`, claimsTable),
		fmt.Sprintf(`CREATE INDEX idx_servicing_npi ON %s("Servicing_Provider_NPI")`, claimsTable),
		fmt.Sprintf(`CREATE INDEX idx_hcpcs ON %s("HCPCS_Code")`, claimsTable),
		fmt.Sprintf(`CREATE INDEX idx_claim_month ON %s("Claim_From_Month")`, claimsTable),
	}
	for _, stmt := range indexes {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
	}

	var diskBytes int64
	err = db.QueryRowContext(ctx,
		"SELECT estimated_size FROM duckdb_tables() WHERE table_name = ?", claimsTable,
	).Scan(&diskBytes)
	if err != nil {
		// The size estimate is advisory; fall back to the database file.
		log.Warn("estimated_size unavailable, using file size", "error", err)
		if fi, serr := os.Stat(cfg.DuckDB.Path); serr == nil {
			diskBytes = fi.Size()
		}
	}

	if err := d.deps.Journal.Write(ctx, rowCount, rowCount, checkpoint.StatusComplete); err != nil {
		log.Warn("checkpoint write failed", "error", err)
	}

	return &bench.Payload{
		RowCount:  rowCount,
		DiskBytes: diskBytes,
		Metadata: map[string]any{
			"table":  claimsTable,
			"source": cfg.ParquetPath(),
		},
	}, nil
}
