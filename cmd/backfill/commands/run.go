package commands

import (
	"github.com/spf13/cobra"

	appbackfill "github.com/weiihann/backfill-state-dashboard/app/backfill"
	"github.com/weiihann/backfill-state-dashboard/pkg/backfill"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Backfill the selected derived tables over their resolved block ranges",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app := appbackfill.Initialize(ctx)
		defer app.Close()

		strategies, err := app.Strategies(tables, all)
		if err != nil {
			return err
		}

		if withTables {
			if err := app.TargetDB.InitializeDB(ctx); err != nil {
				return err
			}
		}

		var opts backfill.RunOptions
		if cmd.Flags().Changed("start-block") {
			opts.StartBlock = &startBlock
		}
		if cmd.Flags().Changed("end-block") {
			opts.EndBlock = &endBlock
		}
		if cmd.Flags().Changed("step-size") {
			app.Runner.StepSize = stepSize
		}

		_, err = app.RunAll(ctx, strategies, opts)
		return err
	},
}

func init() {
	withSelection(runCmd)
	runCmd.Flags().Uint64Var(&startBlock, "start-block", 0, "override the resolved start block")
	runCmd.Flags().Uint64Var(&endBlock, "end-block", 0, "override the resolved end block")
	runCmd.Flags().Uint64Var(&stepSize, "step-size", backfill.DefaultStepSize, "blocks per chunk")
	runCmd.Flags().BoolVar(&withTables, "create-tables", false, "provision target tables before running")
}
