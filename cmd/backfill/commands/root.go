// Package commands defines the backfill CLI surface.
package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	tables     []string // strategy keys to operate on
	all        bool     // operate on every registered strategy
	startBlock uint64
	endBlock   uint64
	stepSize   uint64
	withTables bool // provision target tables before running

	snapshotDir   string
	snapshotTable string
)

var rootCmd = &cobra.Command{
	Use:           "backfill",
	Short:         "backfill rebuilds derived state tables from raw execution event tables",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(listCmd, runCmd, createTablesCmd, loadSnapshotsCmd, infoCmd)
}

// Execute runs the CLI, exiting non-zero on any command failure.
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

func withSelection(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&tables, "tables", nil, "comma-separated strategy keys (see list)")
	cmd.Flags().BoolVar(&all, "all", false, "select every registered strategy")
}
