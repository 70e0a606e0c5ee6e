package commands

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/weiihann/backfill-state-dashboard/pkg/backfill"
	"github.com/weiihann/backfill-state-dashboard/pkg/utils"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the available backfill strategies",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry := backfill.NewRegistry(utils.Env("TARGET_DATABASE", "mainnet"), backfill.MainnetEras())

		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintln(w, "KEY\tTARGET TABLE\tSOURCES\tDESCRIPTION")
		for _, key := range registry.Keys() {
			s, err := registry.Get(key)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
				s.Key(), s.TargetTable(), len(s.SourceTables()), s.Description())
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("\n%d strategies. Run them with: backfill run --tables %s\n",
			len(registry.Keys()), strings.Join(registry.Keys()[:1], ","))
		return nil
	},
}
