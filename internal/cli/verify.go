package cli

import (
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/marcboeker/go-duckdb" // duckdb driver
	"github.com/spf13/cobra"
)

func newVerifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check connectivity to the configured target systems",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			failed := false

			pool, err := pgxpool.New(ctx, cfg.Postgres.DSN)
			if err == nil {
				err = pool.Ping(ctx)
				pool.Close()
			}
			if err != nil {
				fmt.Fprintf(out, "postgres: FAIL (%v)\n", err)
				failed = true
			} else {
				fmt.Fprintln(out, "postgres: ok")
			}

			db, err := sql.Open("duckdb", cfg.DuckDB.Path)
			if err == nil {
				err = db.PingContext(ctx)
				db.Close()
			}
			if err != nil {
				fmt.Fprintf(out, "duckdb:   FAIL (%v)\n", err)
				failed = true
			} else {
				fmt.Fprintln(out, "duckdb:   ok")
			}

			if failed {
				return fmt.Errorf("one or more target systems unreachable")
			}
			return nil
		},
	}
}
