// Package cli wires the benchmark harness commands.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/axym-research/ingestbench/internal/config"
	"github.com/axym-research/ingestbench/internal/logging"
	"github.com/axym-research/ingestbench/internal/metrics"
)

// Version and GitSHA are set at build time via -ldflags.
var (
	Version = "dev"
	GitSHA  = "unknown"
)

var (
	configPath string
	cfg        config.Config
)

// NewRootCommand builds the ingestbench command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "ingestbench",
		Short:         "Database ingestion benchmark harness",
		Long:          "ingestbench downloads the claims dataset and measures loading it into candidate storage systems.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logging.Setup(cfg.Logging)

			metrics.Init("ingestbench")
			if cfg.Metrics.Enabled {
				go func() {
					if err := metrics.StartServer(cfg.Metrics.Address); err != nil {
						logging.Component("metrics").Error("metrics server stopped", "error", err)
					}
				}()
			}
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")

	root.AddCommand(
		newFetchCommand(),
		newRunCommand(),
		newReportCommand(),
		newStatusCommand(),
		newVerifyCommand(),
		newVersionCommand(),
	)
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ingestbench %s (%s)\n", Version, GitSHA)
		},
	}
}
