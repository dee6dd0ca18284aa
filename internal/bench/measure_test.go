package bench

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMeasureSuccess(t *testing.T) {
	ctx := context.Background()

	res := Measure(ctx, "Sleeper", func(ctx context.Context) (*Payload, error) {
		time.Sleep(200 * time.Millisecond)
		return &Payload{RowCount: 1000, DiskBytes: 2048}, nil
	})

	if res.Name != "Sleeper" {
		t.Errorf("Name = %q, want Sleeper", res.Name)
	}
	if res.Failed() {
		t.Fatalf("unexpected failure: %s", res.Error)
	}
	if res.WallTimeSeconds < 0.2 {
		t.Errorf("WallTimeSeconds = %v, want >= 0.2", res.WallTimeSeconds)
	}
	if res.WallTimeSeconds > 1.0 {
		t.Errorf("WallTimeSeconds = %v, suspiciously long for a 0.2s sleep", res.WallTimeSeconds)
	}
	if res.RowCount != 1000 {
		t.Errorf("RowCount = %d, want 1000", res.RowCount)
	}
	if res.DiskBytes != 2048 {
		t.Errorf("DiskBytes = %d, want 2048", res.DiskBytes)
	}

	// 1000 rows over ~0.2s should land near 5000 rows/sec.
	rate := res.RowsPerSecond()
	if rate < 1000 || rate > 5000 {
		t.Errorf("RowsPerSecond() = %v, want near 5000", rate)
	}
	if res.PeakMemoryMB <= 0 {
		t.Errorf("PeakMemoryMB = %v, want > 0", res.PeakMemoryMB)
	}
	if res.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}
}

func TestMeasureFailureKeepsTelemetry(t *testing.T) {
	ctx := context.Background()

	res := Measure(ctx, "Failer", func(ctx context.Context) (*Payload, error) {
		time.Sleep(50 * time.Millisecond)
		return &Payload{RowCount: 42, Metadata: map[string]any{"phase": "copy"}}, errors.New("connection reset")
	})

	if !res.Failed() {
		t.Fatal("expected failure")
	}
	if res.Error != "connection reset" {
		t.Errorf("Error = %q, want %q", res.Error, "connection reset")
	}
	if res.WallTimeSeconds <= 0 {
		t.Errorf("WallTimeSeconds = %v, want > 0 for failed run", res.WallTimeSeconds)
	}
	// Partial payload survives the failure.
	if res.RowCount != 42 {
		t.Errorf("RowCount = %d, want 42", res.RowCount)
	}
	if res.Metadata["phase"] != "copy" {
		t.Errorf("Metadata = %v, want phase=copy preserved", res.Metadata)
	}
}

func TestMeasureRecoversPanic(t *testing.T) {
	res := Measure(context.Background(), "Panicker", func(ctx context.Context) (*Payload, error) {
		panic("index out of range")
	})

	if !res.Failed() {
		t.Fatal("expected panic to be recorded as failure")
	}
	if res.Error != "panic: index out of range" {
		t.Errorf("Error = %q, want panic message", res.Error)
	}
}

func TestMeasureNilPayloadDefaults(t *testing.T) {
	res := Measure(context.Background(), "Empty", func(ctx context.Context) (*Payload, error) {
		return nil, nil
	})

	if res.RowCount != 0 || res.DiskBytes != 0 {
		t.Errorf("nil payload should yield zero counters, got rows=%d disk=%d", res.RowCount, res.DiskBytes)
	}
	if res.Metadata == nil {
		t.Error("Metadata should never be nil")
	}
}
