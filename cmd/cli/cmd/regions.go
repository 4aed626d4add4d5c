package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"cloudkeeper/core/output"
	"cloudkeeper/core/ui"
	"cloudkeeper/internal/app"
	"cloudkeeper/internal/config"
	"cloudkeeper/internal/logging"
)

var regionsCmd = &cobra.Command{
	Use:   "regions",
	Short: "List regions in the pricing catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine := app.LoadEngine(config.Get(), logging.L())
		ds := engine.Dataset()

		w := ui.NewWriter(cmd.OutOrStdout(), queryNoColor)
		if ds.Empty() {
			w.Warning("%s", output.NoDataMessage)
			return nil
		}

		counts := make(map[string]int)
		for _, r := range ds.Records() {
			counts[r.Region]++
		}

		t := w.NewTable("Region", "Instances").AlignRight(1)
		for _, region := range ds.Regions() {
			t.AddRow(region, strconv.Itoa(counts[region]))
		}
		t.Render()
		w.Println("")
		w.Success("%d regions, %d instances from %s", len(ds.Regions()), ds.Len(), ds.Source())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(regionsCmd)
	regionsCmd.Flags().BoolVar(&queryNoColor, "no-color", false, "disable colors")
}
