package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/huangsam/churnmill/internal/contract"
	"github.com/huangsam/churnmill/internal/iohistory"
	"github.com/huangsam/churnmill/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// historySetup loads minimal configuration needed for history operations.
// This is used by commands that need run-history access without full shared setup.
func historySetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	// Get history-related config values
	backendStr := viper.GetString("history-backend")
	connStr := viper.GetString("history-db-connect")

	// Handle empty backend as NoneBackend
	var backend schema.DatabaseBackend
	if backendStr == "" {
		backend = schema.NoneBackend
	} else {
		backend = schema.DatabaseBackend(strings.ToLower(backendStr))
	}

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	// Get output-related config values (used by export command)
	outputFile := viper.GetString("output-file")

	// Initialize the run-history store with the loaded config
	if err := iohistory.InitStores(backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize run history: %w", err)
	}

	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr
	cfg.OutputFile = outputFile

	return nil
}

// historySetupWrapper wraps historySetup to provide PreRunE for history commands.
func historySetupWrapper(_ *cobra.Command, _ []string) error {
	return historySetup()
}

// historyMigrateSetup loads minimal configuration needed for migrate operations.
// This is a specialized setup that does NOT initialize stores or create tables,
// allowing migrations to run on a fresh database.
func historyMigrateSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	// Get history-related config values
	backendStr := viper.GetString("history-backend")
	connStr := viper.GetString("history-db-connect")

	// Handle empty backend as NoneBackend
	var backend schema.DatabaseBackend
	if backendStr == "" {
		backend = schema.NoneBackend
	} else {
		backend = schema.DatabaseBackend(strings.ToLower(backendStr))
	}

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	// For SQLite backend with empty connection string, use default path
	if backend == schema.SQLiteBackend && connStr == "" {
		connStr = contract.GetHistoryDBFilePath()
	}

	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr

	return nil
}

// historyMigrateSetupWrapper wraps historyMigrateSetup to provide PreRunE for migrate command.
func historyMigrateSetupWrapper(_ *cobra.Command, _ []string) error {
	return historyMigrateSetup()
}

// historyCmd focused on run-history data management.
//
// Note: History subcommands use minimal initialization (historySetup) instead of
// the full sharedSetup used by the report command. This avoids Git repo validation
// and complex config processing for simple history operations.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage recorded churn runs and exports",
	Long: `Manage the run history recorded by churn analyses.

When enabled, Churnmill records every analysis run, storing:
- Run metadata (timestamp, configuration, duration, status)
- The aggregate monthly churn series produced by the run

This enables longitudinal comparison of churn across runs and data export
for BI tools. Intermediate scan data is never persisted; every run
recomputes its series from Git history.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status  - Show run-history statistics
  export  - Export data to Parquet for analytics
  clear   - Remove all recorded runs
  migrate - Run database schema migrations

Examples:
  # Check run-history status
  churnmill history status

  # Export for analysis in pandas/DuckDB
  churnmill history export --output-file churn-data`,
}

// historyClearCmd clears the recorded run history.
var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all recorded churn runs",
	Long: `Delete all stored run metadata and monthly churn series.

WARNING: This action cannot be undone. Consider exporting data first.

Use this when:
- Resetting longitudinal tracking
- Database storage is full
- Starting fresh run history
- Testing history features

Examples:
  # Export before clearing
  churnmill history export --output-file backup
  churnmill history clear

  # Clear and start fresh
  churnmill history clear`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iohistory.ClearHistory(cfg.HistoryBackend, contract.GetHistoryDBFilePath(), cfg.HistoryDBConnect); err != nil {
			contract.LogFatal("Failed to clear run history", err)
		}
		fmt.Println("Run history cleared successfully.")
	},
}

// historyStatusCmd shows run-history status.
var historyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display run-history statistics and connection details",
	Long: `Show detailed information about recorded churn runs.

Displays:
- Backend type and connection status
- Total number of runs stored
- Last and oldest run timestamps
- Number of recorded monthly rows
- Database table sizes

Use this to:
- Verify run tracking is enabled and working
- Monitor data accumulation over time
- Check database connection health
- Estimate storage requirements

Examples:
  # Check run-history status
  churnmill history status`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := iohistory.Manager.GetRunStore()
		if store == nil {
			contract.LogFatal("Failed to get history status",
				errors.New("run history is not configured. Set --history-backend to sqlite, mysql or postgresql"))
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get history status", err)
		}
		iohistory.PrintHistoryStatus(status)
	},
}

// historyExportCmd exports run history to Parquet files.
var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export recorded runs to Parquet for BI tools and analytics",
	Long: `Export all recorded run history to Parquet format for use with analytics tools.

Exports two datasets:
- Runs - metadata about each churn analysis execution
- Monthly series - the aggregate (month, mean churn) rows per run

Parquet format enables:
- Fast querying with DuckDB, Apache Spark, pandas
- Efficient storage with columnar compression
- Direct import into BI tools (Tableau, Metabase, etc.)

Requires: --output-file parameter (used as the file name base)

Examples:
  # Export all data
  churnmill history export --output-file churn-data

  # Use with DuckDB for analysis
  churnmill history export --output-file data
  duckdb -c "SELECT * FROM read_parquet('data_monthly.parquet') LIMIT 10"`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iohistory.ExecuteHistoryExport(cfg, iohistory.Manager); err != nil {
			contract.LogFatal("Failed to export run history", err)
		}
	},
}

// historyMigrateCmd runs database migrations for the run-history store.
var historyMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the run-history store.

Migrations allow:
- Upgrading to new schema versions when Churnmill is updated
- Safely modifying database structure without data loss
- Rolling back schema changes if needed

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  churnmill history migrate

  # Migrate to specific version
  churnmill history migrate --target-version 1

  # Rollback to initial state
  churnmill history migrate --target-version 0`,
	PreRunE: historyMigrateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := iohistory.MigrateHistory(cfg.HistoryBackend, cfg.HistoryDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}
