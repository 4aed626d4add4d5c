package output

import (
	"io"
	"strconv"

	"cloudkeeper/core/query"
	"cloudkeeper/core/ui"
)

// CLIFormatter renders results as terminal tables
type CLIFormatter struct {
	opts Options
}

// Format implements Formatter
func (f *CLIFormatter) Format() Format {
	return FormatCLI
}

// Render implements Formatter
func (f *CLIFormatter) Render(out io.Writer, res *query.Result) error {
	w := ui.NewWriter(out, f.opts.NoColor)

	if !res.DataAvailable {
		w.Warning("%s", NoDataMessage)
		return nil
	}

	summary := w.NewSummary()
	summary.Matched = res.TotalMatched
	summary.Shown = len(res.Instances)
	summary.Regions = len(res.Regions)
	summary.SortBy = res.Criteria.SortBy.Label()
	summary.Limit = res.Criteria.Limit.String()
	summary.Render()

	if len(res.Instances) == 0 {
		w.Info("no instances match the given filters")
		return nil
	}

	table := w.NewTable("Instance Type", "Region", "vCPUs", "Memory", "Price/Hour", "Price/vCPU", "Price/GiB").
		AlignRight(2, 4, 5, 6)
	for _, r := range res.Instances {
		table.AddRow(
			r.InstanceType,
			r.Region,
			strconv.Itoa(r.VCPU),
			r.MemoryRaw,
			Price(r.PricePerHourUSD),
			Price(r.PricePerVCPU),
			Price(r.PricePerMemoryGiB),
		)
	}
	table.Render()

	if f.opts.Charts {
		renderCharts(w, res)
	}
	return nil
}

func renderCharts(w *ui.Writer, res *query.Result) {
	w.Println("")
	if c := res.RegionChart; c != nil {
		chart := w.NewBarChart(c.Title)
		for i, label := range c.Labels {
			chart.Add(label, float64(c.Data[i]), strconv.Itoa(c.Data[i]))
		}
		chart.Render()
		w.Println("")
	}

	if c := res.TopChart; c != nil {
		chart := w.NewBarChart(c.Title)
		for i, label := range c.Labels {
			if c.Data[i] == nil {
				chart.Add(label, 0, NotAvailable)
				continue
			}
			chart.Add(label, *c.Data[i], Price(*c.Data[i]))
		}
		chart.Render()
		w.Println("")
	}

	if c := res.ScatterChart; c != nil {
		points := 0
		for _, ds := range c.Datasets {
			points += len(ds.Data)
		}
		w.SubHeader(c.Title)
		w.Println("  %d points plotted", points)
	}
}
