package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
)

func TestMaterializeDatasetDecompresses(t *testing.T) {
	tmpDir := t.TempDir()
	payload := bytes.Repeat([]byte("parquet row data\n"), 500)

	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	if err != nil {
		t.Fatalf("create encoder: %v", err)
	}
	enc.Write(payload)
	enc.Close()

	src := filepath.Join(tmpDir, "dataset.parquet.zst")
	dst := filepath.Join(tmpDir, "dataset.parquet")
	if err := os.WriteFile(src, buf.Bytes(), 0644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}

	path, err := materializeDataset(src, dst)
	if err != nil {
		t.Fatalf("materializeDataset failed: %v", err)
	}
	if path != dst {
		t.Errorf("path = %q, want %q (the path workloads read)", path, dst)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read dataset: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Error("dataset path should hold the decompressed payload")
	}
}

func TestMaterializeDatasetMovesPlainArtifact(t *testing.T) {
	tmpDir := t.TempDir()
	payload := []byte("already plain parquet bytes")

	src := filepath.Join(tmpDir, "dataset.parquet.zst")
	dst := filepath.Join(tmpDir, "dataset.parquet")
	if err := os.WriteFile(src, payload, 0644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}

	path, err := materializeDataset(src, dst)
	if err != nil {
		t.Fatalf("materializeDataset failed: %v", err)
	}
	if path != dst {
		t.Errorf("path = %q, want %q", path, dst)
	}

	got, _ := os.ReadFile(dst)
	if !bytes.Equal(got, payload) {
		t.Error("dataset path should hold the artifact bytes")
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Error("source artifact should be moved, not copied")
	}
}

func TestMaterializeDatasetSamePath(t *testing.T) {
	tmpDir := t.TempDir()
	dst := filepath.Join(tmpDir, "dataset.parquet")
	os.WriteFile(dst, []byte("data"), 0644)

	path, err := materializeDataset(dst, dst)
	if err != nil {
		t.Fatalf("materializeDataset failed: %v", err)
	}
	if path != dst {
		t.Errorf("path = %q, want %q", path, dst)
	}
}

func TestProgressCounterFreshDownload(t *testing.T) {
	var counted int64
	counter := progressCounter(0, func(n int64) { counted += n })

	counter(1000, 8000)
	counter(2500, 8000)
	counter(8000, 8000)

	if counted != 8000 {
		t.Errorf("counted = %d, want 8000", counted)
	}
}

func TestProgressCounterResumeSkipsPrefix(t *testing.T) {
	var counted int64
	counter := progressCounter(3000, func(n int64) { counted += n })

	// Positions are cumulative from byte zero; only bytes past the resume
	// offset are new this session.
	counter(4000, 8000)
	counter(8000, 8000)

	if counted != 5000 {
		t.Errorf("counted = %d, want 5000 (resumed prefix not recounted)", counted)
	}
}

func TestProgressCounterRestartAfterStalePartial(t *testing.T) {
	var counted int64
	counter := progressCounter(3000, func(n int64) { counted += n })

	// The server ignored the range request and the transfer restarted from
	// byte zero: positions drop below the watermark.
	counter(500, 2000)
	counter(2000, 2000)

	if counted != 2000 {
		t.Errorf("counted = %d, want 2000", counted)
	}
}
