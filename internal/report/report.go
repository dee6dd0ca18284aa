// Package report renders stored benchmark results as a comparison table.
package report

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/axym-research/ingestbench/internal/bench"
)

// Render writes a side-by-side comparison of result records to w. Failed
// runs are included with their error so a partial benchmark sweep still
// produces a readable report.
func Render(w io.Writer, results []*bench.Result) {
	if len(results) == 0 {
		fmt.Fprintln(w, "no results found")
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{
		"System", "Wall (s)", "CPU user (s)", "CPU sys (s)",
		"Peak mem (MB)", "Disk (MB)", "Rows", "Rows/sec", "Status",
	})
	table.SetAutoFormatHeaders(false)
	table.SetBorder(false)

	var totalWall float64
	var totalRows int64
	for _, res := range results {
		if !res.Failed() {
			totalWall += res.WallTimeSeconds
			totalRows += res.RowCount
		}
		status := "ok"
		if res.Failed() {
			status = "FAILED: " + res.Error
		}
		table.Append([]string{
			res.Name,
			fmt.Sprintf("%.3f", res.WallTimeSeconds),
			fmt.Sprintf("%.3f", res.CPUUserSeconds),
			fmt.Sprintf("%.3f", res.CPUSystemSeconds),
			fmt.Sprintf("%.1f", res.PeakMemoryMB),
			fmt.Sprintf("%.1f", res.DiskMB()),
			fmt.Sprintf("%d", res.RowCount),
			fmt.Sprintf("%.1f", res.RowsPerSecond()),
			status,
		})
	}
	table.SetFooter([]string{
		"Total (succeeded)",
		fmt.Sprintf("%.3f", totalWall),
		"", "", "", "",
		fmt.Sprintf("%d", totalRows),
		"", "",
	})
	table.Render()
}
