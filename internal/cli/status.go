package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/axym-research/ingestbench/internal/checkpoint"
	"github.com/axym-research/ingestbench/internal/workload"
)

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "status <workload>",
		Short:     "Show the latest checkpoint for a workload",
		Args:      cobra.ExactArgs(1),
		ValidArgs: workload.Keys(),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			st, err := checkpoint.Load(cfg.CheckpointPath(key))
			if errors.Is(err, checkpoint.ErrNoCheckpoint) {
				fmt.Fprintf(cmd.OutOrStdout(), "no checkpoint for %s\n", key)
				return nil
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Workload:  %s\n", key)
			fmt.Fprintf(out, "Status:    %s\n", st.Status)
			fmt.Fprintf(out, "Progress:  %d/%d rows (%.1f%%)\n", st.RowsLoaded, st.TotalRows, st.PctComplete)
			fmt.Fprintf(out, "Elapsed:   %.1fs\n", st.ElapsedSeconds)
			fmt.Fprintf(out, "Rate:      %.1f rows/sec\n", st.RowsPerSecond)
			fmt.Fprintf(out, "Updated:   %s\n", st.Timestamp.Format("2006-01-02 15:04:05 MST"))
			return nil
		},
	}
}
