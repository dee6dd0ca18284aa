package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Dataset.URL == "" || cfg.Dataset.SHA256 == "" {
		t.Error("default dataset source must be set")
	}
	if cfg.Ingest.BatchSize != 100000 {
		t.Errorf("BatchSize = %d, want 100000", cfg.Ingest.BatchSize)
	}
	if !cfg.Checkpoint.Enabled {
		t.Error("checkpointing should be enabled by default")
	}
	if err := cfg.validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadYAMLOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
postgres:
  dsn: postgres://bench:secret@db:5432/bench
ingest:
  batch_size: 50000
logging:
  format: json
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Postgres.DSN != "postgres://bench:secret@db:5432/bench" {
		t.Errorf("DSN = %q, want overridden value", cfg.Postgres.DSN)
	}
	if cfg.Ingest.BatchSize != 50000 {
		t.Errorf("BatchSize = %d, want 50000", cfg.Ingest.BatchSize)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want json", cfg.Logging.Format)
	}
	// Untouched sections keep their defaults.
	if cfg.Dataset.URL == "" {
		t.Error("dataset URL should keep its default")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "postgres://env@host/db")
	t.Setenv("DATA_DIR", "/tmp/bench-data")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Postgres.DSN != "postgres://env@host/db" {
		t.Errorf("DSN = %q, want env override", cfg.Postgres.DSN)
	}
	if cfg.Dataset.Dir != "/tmp/bench-data" {
		t.Errorf("Dataset.Dir = %q, want env override", cfg.Dataset.Dir)
	}
	if cfg.ParquetPath() != filepath.Join("/tmp/bench-data", cfg.Dataset.File) {
		t.Errorf("ParquetPath() = %q, want dataset dir + file", cfg.ParquetPath())
	}
}

func TestLoadRejectsBadBatchSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte("ingest:\n  batch_size: -5\n"), 0644)

	if _, err := Load(path); err == nil {
		t.Error("expected validation error for negative batch size")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestCheckpointPath(t *testing.T) {
	cfg := Default()
	cfg.Checkpoint.Dir = "cp"
	if got := cfg.CheckpointPath("postgres"); got != filepath.Join("cp", "postgres.json") {
		t.Errorf("CheckpointPath = %q", got)
	}
}
