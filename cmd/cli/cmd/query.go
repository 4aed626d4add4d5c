// Package cmd - query command
package cmd

import (
	"net/url"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"cloudkeeper/core/output"
	"cloudkeeper/core/query"
	"cloudkeeper/core/types"
	"cloudkeeper/internal/app"
	"cloudkeeper/internal/config"
	"cloudkeeper/internal/logging"
)

var (
	queryRegion    string
	queryPrefix    string
	queryMinVCPU   int
	queryMinMemory float64
	queryMaxPrice  float64
	querySortBy    string
	queryLimit     string
	queryFormat    string
	queryCharts    bool
	queryNoColor   bool
)

// queryCmd represents the query command
var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Filter, sort and list instance prices",
	Long: `Filter the pricing catalog and print the cheapest matches.

Filters combine with AND. Unknown sort fields fall back to PricePerHourUSD;
an invalid limit shows all rows.

Sort fields:
  InstanceType, Region, vCPU, Memory, MemoryGiB,
  PricePerHourUSD, PricePerVCpu, PricePerMemoryGiB

Examples:
  cloudkeeper query --region us-east-1 --min-vcpu 4
  cloudkeeper query --prefix c5 --max-price 0.5 --sort-by vCPU --limit all
  cloudkeeper query --format json --charts`,
	Args: cobra.NoArgs,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)

	queryCmd.Flags().StringVarP(&queryRegion, "region", "r", "", "exact region code")
	queryCmd.Flags().StringVarP(&queryPrefix, "prefix", "p", "", "instance type prefix, case-insensitive")
	queryCmd.Flags().IntVar(&queryMinVCPU, "min-vcpu", 0, "minimum vCPU count")
	queryCmd.Flags().Float64Var(&queryMinMemory, "min-memory", 0, "minimum memory in GiB")
	queryCmd.Flags().Float64Var(&queryMaxPrice, "max-price", 0, "maximum price per hour in USD")
	queryCmd.Flags().StringVarP(&querySortBy, "sort-by", "s", "", "sort field (default from config)")
	queryCmd.Flags().StringVarP(&queryLimit, "limit", "n", "", "row count or 'all' (default from config)")
	queryCmd.Flags().StringVarP(&queryFormat, "format", "f", "cli", "output format (cli, json)")
	queryCmd.Flags().BoolVar(&queryCharts, "charts", false, "print chart summaries after the table")
	queryCmd.Flags().BoolVar(&queryNoColor, "no-color", false, "disable colors")
}

func runQuery(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(queryFormat)
	if err != nil {
		return err
	}

	cfg := config.Get()
	engine := app.LoadEngine(cfg, logging.L())

	c := query.ParseCriteriaWithDefaults(queryValues(cmd), cfg.Query.DefaultLimit, types.ParseSortField(cfg.Query.DefaultSortBy))
	res := engine.Execute(c)

	f, err := output.New(format, output.Options{
		NoColor: queryNoColor || os.Getenv("NO_COLOR") != "",
		Charts:  queryCharts,
		Indent:  true,
	})
	if err != nil {
		return err
	}
	return f.Render(cmd.OutOrStdout(), res)
}

// queryValues encodes the flags that were set the way the HTTP API
// receives them, so both surfaces share one parser.
func queryValues(cmd *cobra.Command) url.Values {
	v := url.Values{}
	flags := cmd.Flags()
	if flags.Changed("region") {
		v.Set("region", queryRegion)
	}
	if flags.Changed("prefix") {
		v.Set("instance_type_prefix", queryPrefix)
	}
	if flags.Changed("min-vcpu") {
		v.Set("min_vcpu", strconv.Itoa(queryMinVCPU))
	}
	if flags.Changed("min-memory") {
		v.Set("min_memory", strconv.FormatFloat(queryMinMemory, 'f', -1, 64))
	}
	if flags.Changed("max-price") {
		v.Set("max_price", strconv.FormatFloat(queryMaxPrice, 'f', -1, 64))
	}
	if flags.Changed("sort-by") {
		v.Set("sort_by", querySortBy)
	}
	if flags.Changed("limit") {
		v.Set("limit", queryLimit)
	}
	return v
}
