package bench

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestRowsPerSecond(t *testing.T) {
	tests := []struct {
		name string
		rows int64
		wall float64
		want float64
	}{
		{"normal", 1000, 0.2, 5000},
		{"zero wall", 1000, 0, 0},
		{"zero rows", 0, 0.2, 0},
		{"both zero", 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Result{RowCount: tt.rows, WallTimeSeconds: tt.wall}
			if got := r.RowsPerSecond(); got != tt.want {
				t.Errorf("RowsPerSecond() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDiskMB(t *testing.T) {
	r := Result{DiskBytes: 2 << 20}
	if got := r.DiskMB(); got != 2.0 {
		t.Errorf("DiskMB() = %v, want 2.0", got)
	}
}

func TestFailed(t *testing.T) {
	if (&Result{}).Failed() {
		t.Error("empty result should not be failed")
	}
	if !(&Result{Error: "boom"}).Failed() {
		t.Error("result with error should be failed")
	}
}

func TestResultJSONOmitsEmptyError(t *testing.T) {
	data, err := json.Marshal(&Result{Name: "Test", Metadata: map[string]any{}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(data), `"error"`) {
		t.Errorf("successful result should omit error field, got %s", data)
	}
}

func TestRound(t *testing.T) {
	if got := Round3(1.23456); got != 1.235 {
		t.Errorf("Round3(1.23456) = %v, want 1.235", got)
	}
	if got := Round1(12.34); got != 12.3 {
		t.Errorf("Round1(12.34) = %v, want 12.3", got)
	}
}
