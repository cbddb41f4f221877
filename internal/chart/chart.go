// Package chart renders the monthly churn series as a self-contained HTML page.
package chart

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/huangsam/churnmill/internal/contract"
	"github.com/huangsam/churnmill/schema"
)

// Series colors and geometry for the rendered line chart.
const (
	seriesColor = "#3b82f6" // blue-500
	beforeColor = "#22c55e" // green-500
	afterColor  = "#ef4444" // red-500

	lineWidth   = 2
	chartWidth  = "100%"
	chartHeight = "500px"

	dataZoomEndPercent = 100
)

// WriteChurnChart renders the monthly series of a report into cfg.ChartFile.
// The page is fully self-contained, so it can be opened from disk or attached
// to a review without extra assets.
func WriteChurnChart(report *schema.ChurnReport, cfg *contract.Config) error {
	file, err := os.Create(cfg.ChartFile)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer func() { _ = file.Close() }()

	if err := renderChurnChart(file, report); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}

	fmt.Fprintf(os.Stderr, "💾 Wrote churn chart to %s\n", cfg.ChartFile)
	return nil
}

// renderChurnChart writes the chart HTML for a report to w.
func renderChurnChart(w io.Writer, report *schema.ChurnReport) error {
	return buildChurnLine(report).Render(w)
}

// buildChurnLine assembles the line chart for a report. When a threshold
// summary is present the series is split into a before line and an onward
// line so the two regimes read apart at a glance.
func buildChurnLine(report *schema.ChurnReport) *charts.Line {
	if len(report.Series) == 0 {
		return buildEmptyChart()
	}

	labels := make([]string, len(report.Series))
	for i, point := range report.Series {
		labels[i] = point.Month
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "churnmill",
			Width:     chartWidth,
			Height:    chartHeight,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Mean Monthly Churn",
			Subtitle: chartSubtitle(report),
			Left:     "center",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(
			opts.DataZoom{Type: "slider", Start: 0, End: dataZoomEndPercent},
			opts.DataZoom{Type: "inside"},
		),
		charts.WithXAxisOpts(opts.XAxis{Name: "Month"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Mean churn"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "8%", Left: "center"}),
		charts.WithGridOpts(opts.Grid{Top: "20%", Bottom: "15%", ContainLabel: opts.Bool(true)}),
	)
	line.SetXAxis(labels)

	if report.Summary != nil {
		before, after := splitSeriesData(report.Series, report.Summary.Threshold)
		addChurnSeries(line, fmt.Sprintf("Before %s", report.Summary.Threshold), before, beforeColor)
		addChurnSeries(line, fmt.Sprintf("From %s", report.Summary.Threshold), after, afterColor)
	} else {
		addChurnSeries(line, "Mean churn", seriesData(report.Series), seriesColor)
	}

	return line
}

// addChurnSeries attaches one smoothed, colored line series.
func addChurnSeries(line *charts.Line, name string, data []opts.LineData, color string) {
	line.AddSeries(name, data,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: color}),
		charts.WithLineStyleOpts(opts.LineStyle{Width: lineWidth, Color: color}),
	)
}

// seriesData converts the monthly points into a single line series.
func seriesData(series []schema.MonthlyChurn) []opts.LineData {
	data := make([]opts.LineData, len(series))
	for i, point := range series {
		data[i] = opts.LineData{Value: point.MeanChurn}
	}
	return data
}

// splitSeriesData produces two gap-padded series around the threshold month.
// Both slices span the full axis; months outside a side hold the echarts gap
// value "-" so each line only covers its own regime.
func splitSeriesData(series []schema.MonthlyChurn, threshold string) (before, after []opts.LineData) {
	before = make([]opts.LineData, len(series))
	after = make([]opts.LineData, len(series))
	for i, point := range series {
		// Month keys are zero-padded, so string order is chronological order.
		if point.Month < threshold {
			before[i] = opts.LineData{Value: point.MeanChurn}
			after[i] = opts.LineData{Value: "-"}
		} else {
			before[i] = opts.LineData{Value: "-"}
			after[i] = opts.LineData{Value: point.MeanChurn}
		}
	}
	return before, after
}

// buildEmptyChart keeps chart generation total for runs with no samples.
func buildEmptyChart() *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "churnmill",
			Width:     chartWidth,
			Height:    chartHeight,
		}),
		charts.WithTitleOpts(opts.Title{Title: "Mean Monthly Churn", Subtitle: "No data", Left: "center"}),
	)
	return line
}

// chartSubtitle summarizes the analysis window for the chart header.
func chartSubtitle(report *schema.ChurnReport) string {
	names := make([]string, len(report.Repos))
	for i, repo := range report.Repos {
		names[i] = filepath.Base(repo)
	}
	return fmt.Sprintf("%s from %s to %s (step %s)",
		strings.Join(names, ", "),
		report.Since.Format(contract.DateOnlyFormat),
		report.Until.Format(contract.DateOnlyFormat),
		report.Step)
}
