package iohistory

import (
	"errors"
	"fmt"

	"github.com/huangsam/churnmill/internal/contract"
	"github.com/huangsam/churnmill/internal/parquet"
)

// ExecuteHistoryExport exports recorded runs and their monthly series to Parquet files.
func ExecuteHistoryExport(cfg *contract.Config, mgr contract.StoreManager) error {
	// Validate that output file is specified
	if cfg.OutputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	store := mgr.GetRunStore()
	if store == nil {
		return errors.New("run history is not configured. Set --history-backend to sqlite, mysql or postgresql")
	}

	// Check if there's any data to export
	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get history status: %w", err)
	}

	if status.TotalRuns == 0 {
		return errors.New("no run history found to export")
	}

	fmt.Printf("Exporting data from %s backend...\n", status.Backend)
	fmt.Printf("Total runs: %d\n", status.TotalRuns)
	fmt.Printf("Total monthly rows: %d\n", status.TotalMonths)

	// Retrieve all runs
	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}

	// Retrieve all monthly rows
	monthly, err := store.GetAllMonthly()
	if err != nil {
		return fmt.Errorf("failed to retrieve monthly series: %w", err)
	}

	// Convert to Parquet format
	parquetRuns := parquet.ConvertRunRecords(runs)
	parquetMonthly := parquet.ConvertMonthlyRecords(monthly)

	// Write runs to Parquet
	runsFile := cfg.OutputFile + "_runs.parquet"
	if err := parquet.WriteRunsParquet(parquetRuns, runsFile); err != nil {
		return fmt.Errorf("failed to write runs: %w", err)
	}
	fmt.Printf("Exported %d runs to: %s\n", len(parquetRuns), runsFile)

	// Write monthly series to Parquet
	monthlyFile := cfg.OutputFile + "_monthly.parquet"
	if err := parquet.WriteMonthlyParquet(parquetMonthly, monthlyFile); err != nil {
		return fmt.Errorf("failed to write monthly series: %w", err)
	}
	fmt.Printf("Exported %d monthly rows to: %s\n", len(parquetMonthly), monthlyFile)

	fmt.Println("\nExport complete! The Parquet files can be used with:")
	fmt.Println("  - Apache Spark")
	fmt.Println("  - Apache Arrow")
	fmt.Println("  - Pandas (via pyarrow)")
	fmt.Println("  - DuckDB")
	fmt.Println("  - Any other Parquet-compatible tool")

	return nil
}
