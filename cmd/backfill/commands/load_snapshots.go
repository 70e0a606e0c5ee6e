package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	appbackfill "github.com/weiihann/backfill-state-dashboard/app/backfill"
)

var loadSnapshotsCmd = &cobra.Command{
	Use:   "load-snapshots",
	Short: "Bulk-load account snapshot parquet files into the target",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app := appbackfill.Initialize(ctx)
		defer app.Close()

		summary, err := app.NewLoader().LoadDir(ctx, snapshotDir, snapshotTable)
		if err != nil {
			return err
		}
		if failed := summary.Failed(); len(failed) > 0 {
			return fmt.Errorf("%d of %d snapshot files failed", len(failed), len(summary.Results))
		}
		return nil
	},
}

func init() {
	loadSnapshotsCmd.Flags().StringVar(&snapshotDir, "dir", "", "directory containing *.parquet snapshot files")
	loadSnapshotsCmd.Flags().StringVar(&snapshotTable, "table", "default.reth_plain_accounts", "fully qualified target table")
	must(loadSnapshotsCmd.MarkFlagRequired("dir"))
	must(loadSnapshotsCmd.MarkFlagDirname("dir"))
}
