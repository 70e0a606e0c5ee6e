package commands

import (
	"strings"

	"github.com/spf13/cobra"

	appbackfill "github.com/weiihann/backfill-state-dashboard/app/backfill"
)

var createTablesCmd = &cobra.Command{
	Use:   "create-tables",
	Short: "Create the target database and the selected derived tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app := appbackfill.Initialize(ctx)
		defer app.Close()

		if all || len(tables) == 0 {
			return app.TargetDB.InitializeDB(ctx)
		}

		strategies, err := app.Strategies(tables, false)
		if err != nil {
			return err
		}
		names := make([]string, 0, len(strategies))
		for _, s := range strategies {
			names = append(names, strings.TrimPrefix(s.TargetTable(), app.TargetDB.Name+"."))
		}
		if err := app.TargetDB.CreateDbIfNotExists(ctx, app.TargetDB.Name); err != nil {
			return err
		}
		return app.TargetDB.InitTables(ctx, names...)
	},
}

func init() {
	withSelection(createTablesCmd)
}
