package cli

import (
	"github.com/spf13/cobra"

	"github.com/axym-research/ingestbench/internal/report"
	"github.com/axym-research/ingestbench/internal/results"
)

func newReportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Print a comparison table of stored results",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := results.New(ctx, cfg.Results)
			if err != nil {
				return err
			}
			defer store.Close()

			all, err := store.List(ctx)
			if err != nil {
				return err
			}
			report.Render(cmd.OutOrStdout(), all)
			return nil
		},
	}
}
