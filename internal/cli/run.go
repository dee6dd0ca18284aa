package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/axym-research/ingestbench/internal/bench"
	"github.com/axym-research/ingestbench/internal/checkpoint"
	"github.com/axym-research/ingestbench/internal/logging"
	"github.com/axym-research/ingestbench/internal/metrics"
	"github.com/axym-research/ingestbench/internal/results"
	"github.com/axym-research/ingestbench/internal/workload"
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "run <workload>",
		Short:     "Run one ingestion workload and record its result",
		Args:      cobra.ExactArgs(1),
		ValidArgs: workload.Keys(),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			key := args[0]

			if _, err := os.Stat(cfg.ParquetPath()); err != nil {
				return fmt.Errorf("dataset not found at %s, run `ingestbench fetch` first", cfg.ParquetPath())
			}

			journal, err := checkpoint.New(checkpoint.Config{
				Enabled: cfg.Checkpoint.Enabled,
				Path:    cfg.CheckpointPath(key),
				Observer: func(st checkpoint.State) {
					if m := metrics.Get(); m != nil {
						m.SetCheckpoint(key, float64(st.RowsLoaded), st.PctComplete)
					}
				},
			})
			if err != nil {
				return err
			}

			ing, err := workload.New(key, workload.Deps{Config: cfg, Journal: journal})
			if err != nil {
				return err
			}

			runID := logging.GenerateRunID()
			log := logging.WorkloadLogger(runID, key)
			log.Info("starting workload", "name", ing.Name())

			result := bench.Measure(ctx, ing.Name(), ing.Ingest)

			status := "ok"
			if result.Failed() {
				status = "error"
			}
			if m := metrics.Get(); m != nil {
				m.IncWorkloadsRun(key, status)
				m.SetRowsLoaded(key, float64(result.RowCount))
				m.SetWallSeconds(key, result.WallTimeSeconds)
				m.SetPeakMemoryMB(key, result.PeakMemoryMB)
			}

			store, err := results.New(ctx, cfg.Results)
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.Save(ctx, result); err != nil {
				return fmt.Errorf("save result: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "\nResult saved for %s\n", result.Name)
			fmt.Fprintf(out, "  Rows:      %d\n", result.RowCount)
			fmt.Fprintf(out, "  Wall time: %.1fs\n", result.WallTimeSeconds)
			fmt.Fprintf(out, "  Disk:      %.0f MB\n", result.DiskMB())
			fmt.Fprintf(out, "  Rows/sec:  %.0f\n", result.RowsPerSecond())

			if result.Failed() {
				return fmt.Errorf("workload %s failed: %s", key, result.Error)
			}
			return nil
		},
	}
	return cmd
}
