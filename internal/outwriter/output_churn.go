package outwriter

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/churnmill/internal/contract"
	"github.com/huangsam/churnmill/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// PrintChurnReport outputs the churn report, dispatching based on the output format configured.
// Worker failures are warned on stderr in every mode so data streams stay clean.
func PrintChurnReport(report *schema.ChurnReport, cfg *contract.Config, duration time.Duration) error {
	// Create formatters using helper
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	// Dispatcher: Handle different output formats
	switch cfg.Output {
	case schema.JSONOut:
		if err := printJSONResultsForChurn(report, cfg); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := printCSVResultsForChurn(report, cfg, fmtFloat, intFmt); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		// Default to human-readable table
		if err := printChurnTable(report, cfg, fmtFloat, intFmt, duration); err != nil {
			return fmt.Errorf("error writing churn table output: %w", err)
		}
	}

	logChurnFailures(report.Failures)
	return nil
}

// printJSONResultsForChurn handles opening the file and calling the JSON writer.
func printJSONResultsForChurn(report *schema.ChurnReport, cfg *contract.Config) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return writeJSONResultsForChurn(w, report)
	}, "Wrote JSON churn report")
}

// printCSVResultsForChurn handles opening the file and calling the CSV writer.
func printCSVResultsForChurn(report *schema.ChurnReport, cfg *contract.Config, fmtFloat func(float64) string, intFmt string) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return writeCSVResultsForChurn(w, report, fmtFloat, intFmt)
	}, "Wrote CSV churn report")
}

// printChurnTable handles opening the file and rendering the human-readable tables.
func printChurnTable(report *schema.ChurnReport, cfg *contract.Config, fmtFloat func(float64) string, intFmt string, duration time.Duration) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return writeChurnTable(w, report, cfg, fmtFloat, intFmt, duration)
	}, "Wrote table")
}

// writeChurnTable writes the monthly series table followed by summary lines.
func writeChurnTable(w io.Writer, report *schema.ChurnReport, cfg *contract.Config, fmtFloat func(float64) string, intFmt string, duration time.Duration) error {
	if len(report.Series) == 0 {
		if _, err := fmt.Fprintln(w, "No monthly churn samples found"); err != nil {
			return err
		}
	} else {
		table := tablewriter.NewWriter(w)

		// --- 1. Define Headers ---
		table.Header([]string{"Month", "Mean Churn", "Trend", "Samples"})

		// 2. Configure Alignment
		table.Configure(func(cfg *tablewriter.Config) {
			cfg.Row.Alignment.Global = tw.AlignRight
		})

		// --- 3. Prepare Data Rows ---
		// Each row's trend compares the month against the previous one
		var data [][]string
		for i, point := range report.Series {
			trend := "-"
			if i > 0 {
				trend = formatTrend(report.Series[i-1].MeanChurn, point.MeanChurn, cfg)
			}
			row := []string{
				point.Month,
				fmtFloat(point.MeanChurn),
				trend,
				fmt.Sprintf(intFmt, point.Samples),
			}
			data = append(data, row)
		}

		// --- 4. Render the table ---
		if err := table.Bulk(data); err != nil {
			return err
		}
		if err := table.Render(); err != nil {
			return err
		}
	}

	// Compute summary stats
	totalSamples := 0
	for _, point := range report.Series {
		totalSamples += point.Samples
	}
	if _, err := fmt.Fprintf(w, "Months: %d, Samples: %d, Repos: %d\n", len(report.Series), totalSamples, len(report.Repos)); err != nil {
		return err
	}

	if report.Summary != nil {
		s := report.Summary
		if _, err := fmt.Fprintf(w, "Threshold %s: before %s over %d month(s), after %s over %d month(s) [%s]\n",
			s.Threshold, fmtFloat(s.BeforeMean), s.BeforeMonths, fmtFloat(s.AfterMean), s.AfterMonths,
			formatTrend(s.BeforeMean, s.AfterMean, cfg)); err != nil {
			return err
		}
	}

	if len(report.Failures) > 0 {
		if err := writeFailureTable(w, report.Failures, cfg); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "Analysis completed in %v with %d workers. History backend: %s\n", duration, cfg.Workers, cfg.HistoryBackend); err != nil {
		return err
	}
	return nil
}

// writeFailureTable lists worker failures so a partial run is never mistaken
// for a clean one in table output.
func writeFailureTable(w io.Writer, failures []schema.WorkerFailure, cfg *contract.Config) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Worker", "Repo", "From", "To", "Reason"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, failure := range failures {
		row := []string{
			strconv.Itoa(failure.WorkerID),
			contract.TruncatePath(failure.RepoPath, getMaxTablePathWidth(cfg)),
			failure.Interval.Start.Format(contract.DateOnlyFormat),
			failure.Interval.End.Format(contract.DateOnlyFormat),
			failure.Reason,
		}
		data = append(data, row)
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "Failures: %d\n", len(failures))
	return err
}

// formatTrend picks the colored or plain trend label per configuration.
func formatTrend(before, after float64, cfg *contract.Config) string {
	if cfg.UseColors {
		return contract.GetColorTrend(before, after)
	}
	return contract.GetPlainTrend(before, after)
}

// logChurnFailures warns about worker failures on stderr.
func logChurnFailures(failures []schema.WorkerFailure) {
	for _, failure := range failures {
		contract.LogWarn(
			fmt.Sprintf("Worker %d on %s", failure.WorkerID, failure.RepoPath),
			fmt.Errorf("interval %s to %s: %s",
				failure.Interval.Start.Format(contract.DateOnlyFormat),
				failure.Interval.End.Format(contract.DateOnlyFormat),
				failure.Reason))
	}
}
