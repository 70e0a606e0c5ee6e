package commands

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/weiihann/backfill-state-dashboard/pkg/backfill"
	"github.com/weiihann/backfill-state-dashboard/pkg/utils"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		eras := backfill.MainnetEras()

		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		rows := [][2]string{
			{"source", utils.Env("SOURCE_CLICKHOUSE_ADDR", "localhost:9000")},
			{"target", utils.Env("TARGET_CLICKHOUSE_ADDR", utils.Env("SOURCE_CLICKHOUSE_ADDR", "localhost:9000"))},
			{"target database", utils.Env("TARGET_DATABASE", "mainnet")},
			{"step size", strconv.Itoa(utils.EnvInt("BACKFILL_STEP_SIZE", backfill.DefaultStepSize))},
			{"log level", utils.Env("LOG_LEVEL", "info")},
			{"self-destruct restriction block", strconv.FormatUint(eras.SelfDestructRestriction, 10)},
			{"empty-account clearing block", strconv.FormatUint(eras.EmptyAccountClearing, 10)},
		}
		for _, row := range rows {
			fmt.Fprintf(w, "%s\t%s\n", row[0], row[1])
		}
		return w.Flush()
	},
}
