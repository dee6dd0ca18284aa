package workload

import (
	"fmt"
	"os"

	"github.com/parquet-go/parquet-go"
)

// Claim is one row of the provider spending dataset. Every column is
// optional; the source data has nulls throughout.
type Claim struct {
	BillingProviderNPI       *string  `parquet:"Billing_Provider_NPI,optional"`
	ServicingProviderNPI     *string  `parquet:"Servicing_Provider_NPI,optional"`
	HCPCSCode                *string  `parquet:"HCPCS_Code,optional"`
	ClaimFromMonth           *string  `parquet:"Claim_From_Month,optional"`
	TotalUniqueBeneficiaries *int32   `parquet:"Total_Unique_Beneficiaries,optional"`
	TotalClaims              *int32   `parquet:"Total_Claims,optional"`
	TotalPaid                *float64 `parquet:"Total_Paid,optional"`
}

// ClaimReader streams Claim rows out of a parquet file in batches.
type ClaimReader struct {
	file   *os.File
	reader *parquet.GenericReader[Claim]
}

// OpenClaims opens the dataset artifact for batch reading.
func OpenClaims(path string) (*ClaimReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open parquet file: %w", err)
	}
	return &ClaimReader{
		file:   f,
		reader: parquet.NewGenericReader[Claim](f),
	}, nil
}

// NumRows returns the total row count from the parquet footer.
func (r *ClaimReader) NumRows() int64 {
	return r.reader.NumRows()
}

// Read fills rows with the next batch, returning io.EOF at end of data.
func (r *ClaimReader) Read(rows []Claim) (int, error) {
	return r.reader.Read(rows)
}

func (r *ClaimReader) Close() error {
	if err := r.reader.Close(); err != nil {
		r.file.Close()
		return fmt.Errorf("close parquet reader: %w", err)
	}
	return r.file.Close()
}
