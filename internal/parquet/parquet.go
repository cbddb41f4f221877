// Package parquet provides data structures and functions for exporting churn
// run history to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/churnmill/schema"
	"github.com/parquet-go/parquet-go"
)

// Run represents a single recorded churn analysis run with metadata.
// This struct maps to the churn_runs database table.
type Run struct {
	// RunID is the unique identifier for this run
	RunID int64 `parquet:"run_id,snappy"`

	// StartTime is when the run began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run finished (nullable, stored as TIMESTAMP with nanosecond precision)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the run in milliseconds (nullable)
	RunDurationMs *int32 `parquet:"run_duration_ms,optional,snappy"`

	// Repos holds the comma-joined repository paths analyzed by this run
	Repos string `parquet:"repos,snappy"`

	// RepoCount is the number of repositories analyzed
	RepoCount int32 `parquet:"repo_count,snappy"`

	// Workers is the per-repository worker count used by this run
	Workers int32 `parquet:"workers,snappy"`

	// WindowStart is the inclusive start of the analysis window
	WindowStart time.Time `parquet:"window_start,snappy"`

	// WindowEnd is the exclusive end of the analysis window
	WindowEnd time.Time `parquet:"window_end,snappy"`

	// Step is the interval step size, like "1 month"
	Step string `parquet:"step,snappy"`

	// Status is the terminal state of the run (completed, partial, failed)
	Status string `parquet:"status,snappy"`

	// ConfigParams contains the JSON-encoded configuration parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// Monthly represents one month of one recorded run's aggregate churn series.
// This struct maps to the churn_monthly database table.
type Monthly struct {
	// RunID references the parent run
	RunID int64 `parquet:"run_id,snappy"`

	// Month is the calendar month key, "YYYY-MM"
	Month string `parquet:"month,snappy"`

	// MeanChurn is the arithmetic mean of churn samples in the month
	MeanChurn float64 `parquet:"mean_churn,snappy"`

	// Samples is the number of (repository x interval) samples behind the mean
	Samples int32 `parquet:"samples,snappy"`
}

// WriteRunsParquet writes a slice of Run structs to a Parquet file.
func WriteRunsParquet(data []Run, outputPath string) error {
	// Create the output file
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// Create a Parquet writer using struct schema inference
	// The schema is automatically derived from the Run struct tags
	writer := parquet.NewGenericWriter[Run](file)
	defer func() { _ = writer.Close() }()

	// Write all records to the file
	// The Write method accepts a variadic slice
	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}

	return nil
}

// WriteMonthlyParquet writes a slice of Monthly structs to a Parquet file.
func WriteMonthlyParquet(data []Monthly, outputPath string) error {
	// Create the output file
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// Create a Parquet writer using struct schema inference
	// The schema is automatically derived from the Monthly struct tags
	writer := parquet.NewGenericWriter[Monthly](file)
	defer func() { _ = writer.Close() }()

	// Write all records to the file
	// The Write method accepts a variadic slice
	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}

	return nil
}

// MockFetchRuns generates sample Run data for demonstration.
func MockFetchRuns() []Run {
	now := time.Now()
	startTime1 := now.Add(-2 * time.Hour)
	endTime1 := now.Add(-1*time.Hour - 30*time.Minute)
	durationMs1 := int32(endTime1.Sub(startTime1).Milliseconds())
	configParams1 := `{"step":"1 month","workers":4,"repos":"/src/payments"}`

	startTime2 := now.Add(-24 * time.Hour)
	endTime2 := now.Add(-23 * time.Hour)
	durationMs2 := int32(endTime2.Sub(startTime2).Milliseconds())
	configParams2 := `{"step":"2 weeks","workers":8,"repos":"/src/payments,/src/billing"}`

	startTime3 := now.Add(-10 * time.Minute)
	// Note: endTime3, durationMs3, configParams3 are nil to demonstrate nullable fields

	return []Run{
		{
			RunID:         1,
			StartTime:     startTime1,
			EndTime:       &endTime1,
			RunDurationMs: &durationMs1,
			Repos:         "/src/payments",
			RepoCount:     1,
			Workers:       4,
			WindowStart:   now.AddDate(-1, 0, 0),
			WindowEnd:     now,
			Step:          "1 month",
			Status:        string(schema.RunCompleted),
			ConfigParams:  &configParams1,
		},
		{
			RunID:         2,
			StartTime:     startTime2,
			EndTime:       &endTime2,
			RunDurationMs: &durationMs2,
			Repos:         "/src/payments,/src/billing",
			RepoCount:     2,
			Workers:       8,
			WindowStart:   now.AddDate(0, -6, 0),
			WindowEnd:     now,
			Step:          "2 weeks",
			Status:        string(schema.RunPartial),
			ConfigParams:  &configParams2,
		},
		{
			RunID:         3,
			StartTime:     startTime3,
			EndTime:       nil, // Still running - nullable field
			RunDurationMs: nil, // Not yet calculated - nullable field
			Repos:         "/src/payments",
			RepoCount:     1,
			Workers:       4,
			WindowStart:   now.AddDate(0, -3, 0),
			WindowEnd:     now,
			Step:          "1 month",
			Status:        string(schema.RunRunning),
			ConfigParams:  nil, // No config stored - nullable field
		},
	}
}

// MockFetchMonthly generates sample Monthly data for demonstration.
func MockFetchMonthly() []Monthly {
	return []Monthly{
		{RunID: 1, Month: "2024-01", MeanChurn: 1523.5, Samples: 4},
		{RunID: 1, Month: "2024-02", MeanChurn: 987.25, Samples: 4},
		{RunID: 1, Month: "2024-03", MeanChurn: 2210.0, Samples: 4},
		{RunID: 2, Month: "2024-02", MeanChurn: 1100.5, Samples: 8},
		{RunID: 2, Month: "2024-03", MeanChurn: 1348.75, Samples: 8},
	}
}

// ConvertRunRecords converts schema.RunRecord to Run for Parquet export.
func ConvertRunRecords(records []schema.RunRecord) []Run {
	result := make([]Run, len(records))
	for i, record := range records {
		result[i] = Run{
			RunID:         record.RunID,
			StartTime:     record.StartTime,
			EndTime:       record.EndTime,
			RunDurationMs: record.RunDurationMs,
			Repos:         record.Repos,
			RepoCount:     record.RepoCount,
			Workers:       record.Workers,
			WindowStart:   record.WindowStart,
			WindowEnd:     record.WindowEnd,
			Step:          record.Step,
			Status:        record.Status,
			ConfigParams:  record.ConfigParams,
		}
	}
	return result
}

// ConvertMonthlyRecords converts schema.MonthlyRecord to Monthly for Parquet export.
func ConvertMonthlyRecords(records []schema.MonthlyRecord) []Monthly {
	result := make([]Monthly, len(records))
	for i, record := range records {
		result[i] = Monthly{
			RunID:     record.RunID,
			Month:     record.Month,
			MeanChurn: record.MeanChurn,
			Samples:   record.Samples,
		}
	}
	return result
}
