package workload

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
)

func strp(s string) *string   { return &s }
func i32p(v int32) *int32     { return &v }
func f64p(v float64) *float64 { return &v }

func writeTestClaims(t *testing.T, path string, claims []Claim) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create parquet file: %v", err)
	}
	w := parquet.NewGenericWriter[Claim](f)
	if _, err := w.Write(claims); err != nil {
		t.Fatalf("write rows: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}
}

func TestClaimReaderRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "claims.parquet")
	claims := []Claim{
		{
			BillingProviderNPI:       strp("1234567890"),
			ServicingProviderNPI:     strp("0987654321"),
			HCPCSCode:                strp("99213"),
			ClaimFromMonth:           strp("2025-01"),
			TotalUniqueBeneficiaries: i32p(12),
			TotalClaims:              i32p(30),
			TotalPaid:                f64p(4521.50),
		},
		{
			// Nulls throughout, as in the source data.
			HCPCSCode: strp("J3490"),
		},
	}
	writeTestClaims(t, path, claims)

	r, err := OpenClaims(path)
	if err != nil {
		t.Fatalf("OpenClaims failed: %v", err)
	}
	defer r.Close()

	if r.NumRows() != 2 {
		t.Errorf("NumRows() = %d, want 2", r.NumRows())
	}

	rows := make([]Claim, 10)
	n, err := r.Read(rows)
	if err != nil && err != io.EOF {
		t.Fatalf("Read failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("Read returned %d rows, want 2", n)
	}

	got := rows[0]
	if got.BillingProviderNPI == nil || *got.BillingProviderNPI != "1234567890" {
		t.Errorf("BillingProviderNPI = %v, want 1234567890", got.BillingProviderNPI)
	}
	if got.TotalPaid == nil || *got.TotalPaid != 4521.50 {
		t.Errorf("TotalPaid = %v, want 4521.50", got.TotalPaid)
	}

	if rows[1].BillingProviderNPI != nil {
		t.Error("null column should unmarshal as nil pointer")
	}
	if rows[1].HCPCSCode == nil || *rows[1].HCPCSCode != "J3490" {
		t.Errorf("HCPCSCode = %v, want J3490", rows[1].HCPCSCode)
	}
}

func TestClaimReaderBatching(t *testing.T) {
	path := filepath.Join(t.TempDir(), "claims.parquet")
	claims := make([]Claim, 25)
	for i := range claims {
		claims[i] = Claim{TotalClaims: i32p(int32(i))}
	}
	writeTestClaims(t, path, claims)

	r, err := OpenClaims(path)
	if err != nil {
		t.Fatalf("OpenClaims failed: %v", err)
	}
	defer r.Close()

	var total int
	buf := make([]Claim, 10)
	for {
		n, err := r.Read(buf)
		total += n
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
	}
	if total != 25 {
		t.Errorf("read %d rows total, want 25", total)
	}
}
