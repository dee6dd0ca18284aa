package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/axym-research/ingestbench/internal/fetch"
	"github.com/axym-research/ingestbench/internal/logging"
	"github.com/axym-research/ingestbench/internal/metrics"
)

// progressCounter translates cumulative transfer positions into newly
// received byte counts. offset is where a resumed transfer starts, so the
// previously downloaded prefix is not recounted. A position below the
// watermark means the transfer restarted from byte zero.
func progressCounter(offset int64, count func(int64)) fetch.ProgressFunc {
	last := offset
	return func(transferred, total int64) {
		if transferred < last {
			last = 0
		}
		if transferred > last {
			count(transferred - last)
			last = transferred
		}
	}
}

// materializeDataset places the verified artifact at the path the workloads
// read, decompressing it when it is zstd compressed.
func materializeDataset(src, dst string) (string, error) {
	if src == dst {
		return dst, nil
	}
	compressed, err := fetch.IsCompressed(src)
	if err != nil {
		return "", err
	}
	if compressed {
		if err := fetch.Decompress(src, dst); err != nil {
			return "", err
		}
		return dst, nil
	}
	// The artifact was not compressed after all; it is the dataset.
	if err := os.Rename(src, dst); err != nil {
		return "", fmt.Errorf("move artifact into place: %w", err)
	}
	return dst, nil
}

func newFetchCommand() *cobra.Command {
	var decompress bool

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download and verify the benchmark dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.Component("fetch")

			// A compressed artifact is downloaded next to the dataset
			// path and expanded into it after verification.
			dest := cfg.ParquetPath()
			if decompress {
				dest += ".zst"
			}

			var resumeOffset int64
			if fi, err := os.Stat(dest + fetch.PartialSuffix); err == nil {
				resumeOffset = fi.Size()
			}
			counter := progressCounter(resumeOffset, func(n int64) {
				if m := metrics.Get(); m != nil {
					m.AddDownloadedBytes(float64(n))
				}
			})

			f := fetch.New(fetch.WithProgress(func(transferred, total int64) {
				counter(transferred, total)
				// Log every 64 MiB so long transfers show life without
				// flooding the output.
				if total > 0 && transferred%(64<<20) < (1<<20) {
					log.Info("downloading", "transferred", transferred, "total", total)
				}
			}))

			path, err := f.Fetch(cmd.Context(), cfg.Dataset.URL, dest, cfg.Dataset.SHA256)
			if err != nil {
				return err
			}

			if decompress {
				log.Info("decompressing artifact", "src", path, "dst", cfg.ParquetPath())
				path, err = materializeDataset(path, cfg.ParquetPath())
				if err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Dataset ready at %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&decompress, "decompress", false, "decompress the artifact if it is zstd compressed")
	return cmd
}
