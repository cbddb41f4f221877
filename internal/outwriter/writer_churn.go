package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/huangsam/churnmill/schema"
)

// writeJSONResultsForChurn marshals the schema.ChurnReport to JSON and writes it.
func writeJSONResultsForChurn(w io.Writer, report *schema.ChurnReport) error {
	return writeJSON(w, report)
}

// writeCSVResultsForChurn writes the monthly series to a CSV writer.
// Summary and failure data stay out of the CSV; JSON carries the full envelope.
func writeCSVResultsForChurn(w io.Writer, report *schema.ChurnReport, fmtFloat func(float64) string, intFmt string) error {
	header := []string{
		"month",
		"mean_churn",
		"samples",
	}
	return writeCSVWithHeader(w, header, func(csvWriter *csv.Writer) error {
		for _, point := range report.Series {
			row := []string{
				point.Month,
				fmtFloat(point.MeanChurn),
				fmt.Sprintf(intFmt, point.Samples),
			}
			if err := csvWriter.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}
