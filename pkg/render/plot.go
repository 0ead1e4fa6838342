package render

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/ranktest/pkg/analysis"
)

const (
	chartWidth  = "100%"
	chartHeight = "500px"
	chartTheme  = "dark"
	chartBG     = "#1b1b1f"
	chartText   = "#e4e4e7"
	chartMuted  = "#a1a1aa"
)

// seriesColors colors sample A and sample B.
var seriesColors = [2]string{"#5470c6", "#ee6666"}

// Plot writes an HTML page with a bar chart of every observation's mid-rank,
// one series per sample.
func Plot(w io.Writer, report *analysis.Report) error {
	longest := max(len(report.Samples[0].Ranks), len(report.Samples[1].Ranks))

	labels := make([]string, longest)
	for idx := range labels {
		labels[idx] = "#" + strconv.Itoa(idx+1)
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle:       reportTitle,
			Width:           chartWidth,
			Height:          chartHeight,
			BackgroundColor: chartBG,
			Theme:           chartTheme,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:         reportTitle,
			Subtitle:      fmt.Sprintf("%s: %s", report.Verdict, report.Detail),
			Left:          "center",
			TitleStyle:    &opts.TextStyle{Color: chartText},
			SubtitleStyle: &opts.TextStyle{Color: chartMuted},
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{
			Show:      opts.Bool(true),
			Top:       "12%",
			Left:      "center",
			TextStyle: &opts.TextStyle{Color: chartMuted},
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Observation"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Rank"}),
	)

	bar.SetXAxis(labels)

	for idx, sample := range report.Samples {
		data := make([]opts.BarData, len(sample.Ranks))
		for i, rank := range sample.Ranks {
			data[i] = opts.BarData{Value: rank}
		}

		name := fmt.Sprintf("%s (U=%s)", SampleNames[idx], formatFloat(sample.U))

		bar.AddSeries(name, data, charts.WithItemStyleOpts(opts.ItemStyle{Color: seriesColors[idx]}))
	}

	err := bar.Render(w)
	if err != nil {
		return fmt.Errorf("render chart: %w", err)
	}

	return nil
}
