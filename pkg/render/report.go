package render

import (
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/Sumatoshi-tech/ranktest/pkg/alg/utest"
	"github.com/Sumatoshi-tech/ranktest/pkg/analysis"
)

const reportTitle = "Mann-Whitney U test"

// SampleNames labels the two samples in text and chart output.
var SampleNames = [2]string{"A", "B"}

// Report writes report in the renderer's format.
func (r *Renderer) Report(w io.Writer, report *analysis.Report) error {
	done, err := r.structured(w, report)
	if done {
		return err
	}

	_, err = io.WriteString(w, r.reportText(report))
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	return nil
}

// Ranks writes ranked observations in the renderer's format.
func (r *Renderer) Ranks(w io.Writer, ranked []utest.Observation) error {
	done, err := r.structured(w, ranked)
	if done {
		return err
	}

	tbl := newTable()
	tbl.AppendHeader(table.Row{"#", "Value", "Rank"})

	for idx, obs := range ranked {
		tbl.AppendRow(table.Row{idx + 1, formatFloat(obs.Value), formatFloat(obs.Rank)})
	}

	tbl.AppendFooter(table.Row{"", "Total", humanize.Comma(int64(len(ranked)))})

	_, err = fmt.Fprintln(w, tbl.Render())
	if err != nil {
		return fmt.Errorf("write ranks: %w", err)
	}

	return nil
}

func (r *Renderer) reportText(report *analysis.Report) string {
	samples := newTable()
	samples.AppendHeader(table.Row{"Sample", "N", "Min", "Median", "Max", "Rank sum", "Mean rank", "U"})

	for idx, sample := range report.Samples {
		samples.AppendRow(table.Row{
			SampleNames[idx],
			humanize.Comma(int64(sample.Summary.Count)),
			formatFloat(sample.Summary.Min),
			formatFloat(sample.Summary.Median),
			formatFloat(sample.Summary.Max),
			formatFloat(sample.RankSum),
			formatFloat(sample.MeanRank),
			formatFloat(sample.U),
		})
	}

	stats := newTable()
	stats.AppendRows([]table.Row{
		{"min(U)", formatFloat(report.UMin)},
		{"n0*n1", humanize.Comma(int64(report.Product))},
		{"Pooled", humanize.Comma(int64(report.Pooled))},
		{"Tie groups", humanize.Comma(int64(len(report.Ties)))},
		{"Critical value", criticalText(report)},
		{"Reliable", fmt.Sprintf("%t (threshold %d)", report.ApproximationReliable, report.Threshold)},
	})

	out := r.paint(color.Bold).Sprint(reportTitle) + "\n" +
		samples.Render() + "\n\n" +
		stats.Render() + "\n\n" +
		r.verdictLine(report) + "\n"

	if !report.ApproximationReliable {
		out += r.paint(color.FgYellow).Sprintf(
			"note: both samples have at most %d observations; the normal approximation may be inaccurate\n",
			report.Threshold)
	}

	return out
}

func (r *Renderer) verdictLine(report *analysis.Report) string {
	attr := color.FgYellow

	switch report.Verdict {
	case analysis.VerdictSignificant:
		attr = color.FgGreen
	case analysis.VerdictNotSignificant:
		attr = color.FgCyan
	}

	return r.paint(attr, color.Bold).Sprint(text.FormatUpper.Apply(report.Verdict)) +
		"  " + report.Detail
}

func criticalText(report *analysis.Report) string {
	if report.CriticalValue == nil {
		return "undefined"
	}

	return strconv.FormatFloat(*report.CriticalValue, 'f', 4, 64)
}

func newTable() table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.SeparateColumns = false
	tbl.Style().Options.DrawBorder = false

	return tbl
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
