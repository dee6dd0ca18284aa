package fetch

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
)

func TestIsCompressed(t *testing.T) {
	tmpDir := t.TempDir()

	plain := filepath.Join(tmpDir, "plain.bin")
	if err := os.WriteFile(plain, []byte("just some plain bytes"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	if err != nil {
		t.Fatalf("create encoder: %v", err)
	}
	enc.Write([]byte("compressed payload"))
	enc.Close()

	compressed := filepath.Join(tmpDir, "data.zst")
	if err := os.WriteFile(compressed, buf.Bytes(), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if got, err := IsCompressed(plain); err != nil || got {
		t.Errorf("IsCompressed(plain) = %v, %v; want false, nil", got, err)
	}
	if got, err := IsCompressed(compressed); err != nil || !got {
		t.Errorf("IsCompressed(zstd) = %v, %v; want true, nil", got, err)
	}

	empty := filepath.Join(tmpDir, "empty.bin")
	os.WriteFile(empty, nil, 0644)
	if got, err := IsCompressed(empty); err != nil || got {
		t.Errorf("IsCompressed(empty) = %v, %v; want false, nil", got, err)
	}
}

func TestDecompress(t *testing.T) {
	tmpDir := t.TempDir()
	payload := bytes.Repeat([]byte("claims data row\n"), 1000)

	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	if err != nil {
		t.Fatalf("create encoder: %v", err)
	}
	enc.Write(payload)
	enc.Close()

	src := filepath.Join(tmpDir, "data.parquet.zst")
	dst := filepath.Join(tmpDir, "data.parquet")
	if err := os.WriteFile(src, buf.Bytes(), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := Decompress(src, dst); err != nil {
		t.Fatalf("Decompress failed: %v", err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Error("decompressed content mismatch")
	}
	if _, err := os.Stat(dst + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file should not remain")
	}
}

func TestDecompressRejectsGarbage(t *testing.T) {
	tmpDir := t.TempDir()
	src := filepath.Join(tmpDir, "garbage.zst")
	dst := filepath.Join(tmpDir, "out.bin")
	os.WriteFile(src, []byte{0x28, 0xB5, 0x2F, 0xFD, 0xFF, 0xFF, 0xFF}, 0644)

	if err := Decompress(src, dst); err == nil {
		t.Fatal("expected error for corrupt input")
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Error("destination should not exist after failed decompress")
	}
}
