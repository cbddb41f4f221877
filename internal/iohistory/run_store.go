package iohistory

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql" // MySQL driver
	"github.com/huangsam/churnmill/internal/contract"
	"github.com/huangsam/churnmill/schema"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver
)

// Table names for run-history tracking.
const (
	runsTable    = "churn_runs"
	monthlyTable = "churn_monthly"
)

// RunStoreImpl implements the RunStore interface.
type RunStoreImpl struct {
	db         *sql.DB
	backend    schema.DatabaseBackend
	driverName string
	connStr    string
}

var _ contract.RunStore = &RunStoreImpl{} // Compile-time check

// NewRunStore creates a new RunStore with the specified backend.
func NewRunStore(backend schema.DatabaseBackend, connStr string) (contract.RunStore, error) {
	var db *sql.DB
	var err error
	var driverName string

	switch backend {
	case schema.SQLiteBackend:
		driverName = "sqlite"
		dbPath := connStr
		if dbPath == "" {
			dbPath = GetHistoryDBFilePath()
		}
		db, err = sql.Open(driverName, dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite database at %q: %w. Check that the directory is writable", dbPath, err)
		}
		// Limit SQLite to a single open connection to avoid "database is locked" errors
		db.SetMaxOpenConns(1)

	case schema.MySQLBackend:
		driverName = "mysql"
		db, err = sql.Open(driverName, connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to open MySQL database: %w. Check connection string format: user:password@tcp(host:port)/dbname", err)
		}

	case schema.PostgreSQLBackend:
		driverName = "pgx"
		db, err = sql.Open(driverName, connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to open PostgreSQL database: %w. Check connection string format: host=localhost port=5432 user=postgres dbname=mydb", err)
		}

	case schema.NoneBackend:
		// Return a no-op store for disabled tracking
		return &RunStoreImpl{
			db:         nil,
			backend:    backend,
			driverName: "",
			connStr:    connStr,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported backend: %s", backend)
	}

	// Ping to verify connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		var connDetail string
		switch backend {
		case schema.MySQLBackend:
			connDetail = "Check that MySQL is running and the connection string is correct. Ensure user/password are valid."
		case schema.PostgreSQLBackend:
			connDetail = "Check that PostgreSQL is running and the connection string is correct. Ensure user/password are valid."
		default:
			connDetail = "Verify the database server is running and accessible."
		}
		return nil, fmt.Errorf("failed to connect to %s database: %w. %s", backend, err, connDetail)
	}

	// Create the table schemas
	if err := createHistoryTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history tables: %w", err)
	}

	return &RunStoreImpl{
		db:         db,
		backend:    backend,
		driverName: driverName,
		connStr:    connStr,
	}, nil
}

// createHistoryTables creates the run-history tables.
func createHistoryTables(db *sql.DB, backend schema.DatabaseBackend) error {
	tables := []struct {
		name  string
		query string
	}{
		{runsTable, getCreateRunsQuery(backend)},
		{monthlyTable, getCreateMonthlyQuery(backend)},
	}

	for _, table := range tables {
		if _, err := db.Exec(table.query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.name, err)
		}
	}

	return nil
}

// getCreateRunsQuery returns the CREATE TABLE query for churn_runs.
func getCreateRunsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(runsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6),
				run_duration_ms INT,
				repos TEXT NOT NULL,
				repo_count INT NOT NULL,
				workers INT NOT NULL,
				window_start DATETIME(6) NOT NULL,
				window_end DATETIME(6) NOT NULL,
				step VARCHAR(50) NOT NULL,
				status VARCHAR(20) NOT NULL,
				config_params TEXT
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGSERIAL PRIMARY KEY,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ,
				run_duration_ms INT,
				repos TEXT NOT NULL,
				repo_count INT NOT NULL,
				workers INT NOT NULL,
				window_start TIMESTAMPTZ NOT NULL,
				window_end TIMESTAMPTZ NOT NULL,
				step TEXT NOT NULL,
				status TEXT NOT NULL,
				config_params TEXT
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER PRIMARY KEY AUTOINCREMENT,
				start_time TEXT NOT NULL,
				end_time TEXT,
				run_duration_ms INTEGER,
				repos TEXT NOT NULL,
				repo_count INTEGER NOT NULL,
				workers INTEGER NOT NULL,
				window_start TEXT NOT NULL,
				window_end TEXT NOT NULL,
				step TEXT NOT NULL,
				status TEXT NOT NULL,
				config_params TEXT
			);
		`, quotedTableName)
	}
}

// getCreateMonthlyQuery returns the CREATE TABLE query for churn_monthly.
func getCreateMonthlyQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(monthlyTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				month VARCHAR(7) NOT NULL,
				mean_churn DOUBLE NOT NULL,
				samples INT NOT NULL,
				PRIMARY KEY (run_id, month)
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				month TEXT NOT NULL,
				mean_churn DOUBLE PRECISION NOT NULL,
				samples INT NOT NULL,
				PRIMARY KEY (run_id, month)
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER NOT NULL,
				month TEXT NOT NULL,
				mean_churn REAL NOT NULL,
				samples INTEGER NOT NULL,
				PRIMARY KEY (run_id, month)
			);
		`, quotedTableName)
	}
}

// BeginRun creates a new run row and returns its unique ID. The HEAD hash
// of each analyzed repository is recorded alongside the config params so a
// run can be tied back to the exact repository states it measured.
func (rs *RunStoreImpl) BeginRun(startTime time.Time, cfg *contract.Config, repoHashes map[string]string, configParams map[string]any) (int64, error) {
	// Skip for NoneBackend
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return 0, nil
	}

	// Serialize config params plus repository hashes to JSON
	params := make(map[string]any, len(configParams)+1)
	for key, value := range configParams {
		params[key] = value
	}
	if len(repoHashes) > 0 {
		params["repo_hashes"] = repoHashes
	}
	configJSON, err := json.Marshal(params)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	quotedTableName := quoteTableName(runsTable, rs.backend)
	repos := strings.Join(cfg.RepoPaths, ",")

	var runID int64
	switch rs.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (start_time, repos, repo_count, workers, window_start, window_end, step, status, config_params)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING run_id`, quotedTableName)
		err = rs.db.QueryRow(query, startTime, repos, len(cfg.RepoPaths), cfg.Workers,
			cfg.Since, cfg.Until, cfg.Step.String(), string(schema.RunRunning), string(configJSON)).Scan(&runID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (start_time, repos, repo_count, workers, window_start, window_end, step, status, config_params)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, quotedTableName)
		var result sql.Result
		result, err = rs.db.Exec(query, formatTime(startTime, rs.backend), repos, len(cfg.RepoPaths), cfg.Workers,
			formatTime(cfg.Since, rs.backend), formatTime(cfg.Until, rs.backend), cfg.Step.String(), string(schema.RunRunning), string(configJSON))
		if err != nil {
			return 0, err
		}
		runID, err = result.LastInsertId()
	}

	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	return runID, nil
}

// EndRun updates the run row with completion data.
func (rs *RunStoreImpl) EndRun(runID int64, endTime time.Time, status schema.RunStatus) error {
	// Skip for NoneBackend
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil
	}

	// First, get the start_time to calculate duration
	quotedTableName := quoteTableName(runsTable, rs.backend)
	var startTime time.Time

	var query string
	switch rs.backend {
	case schema.PostgreSQLBackend:
		query = fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = $1`, quotedTableName)
	default: // SQLite and MySQL
		query = fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = ?`, quotedTableName)
	}

	row := rs.db.QueryRow(query, runID)

	// Handle different time storage formats per backend
	switch rs.backend {
	case schema.SQLiteBackend:
		var startTimeStr string
		if err := row.Scan(&startTimeStr); err != nil {
			return fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
		}
		var err error
		startTime, err = time.Parse(time.RFC3339Nano, startTimeStr)
		if err != nil {
			return fmt.Errorf("failed to parse start_time: %w", err)
		}
	default: // MySQL and PostgreSQL store as native datetime
		if err := row.Scan(&startTime); err != nil {
			return fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
		}
	}

	// Calculate duration in milliseconds
	durationMs := endTime.Sub(startTime).Milliseconds()

	// Update the run with completion data
	var updateQuery string
	var args []any

	switch rs.backend {
	case schema.PostgreSQLBackend:
		updateQuery = fmt.Sprintf(`UPDATE %s SET end_time = $1, run_duration_ms = $2, status = $3 WHERE run_id = $4`, quotedTableName)
		args = []any{endTime, durationMs, string(status), runID}
	default: // SQLite and MySQL
		updateQuery = fmt.Sprintf(`UPDATE %s SET end_time = ?, run_duration_ms = ?, status = ? WHERE run_id = ?`, quotedTableName)
		args = []any{formatTime(endTime, rs.backend), durationMs, string(status), runID}
	}

	_, err := rs.db.Exec(updateQuery, args...)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	return nil
}

// RecordMonthlySeries stores the aggregate monthly series computed by a run.
func (rs *RunStoreImpl) RecordMonthlySeries(runID int64, series []schema.MonthlyChurn) error {
	// Skip for NoneBackend
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil
	}

	quotedTableName := quoteTableName(monthlyTable, rs.backend)

	var query string
	switch rs.backend {
	case schema.PostgreSQLBackend:
		query = fmt.Sprintf(`INSERT INTO %s (run_id, month, mean_churn, samples) VALUES ($1, $2, $3, $4)`, quotedTableName)
	default: // SQLite and MySQL
		query = fmt.Sprintf(`INSERT INTO %s (run_id, month, mean_churn, samples) VALUES (?, ?, ?, ?)`, quotedTableName)
	}

	for _, point := range series {
		if _, err := rs.db.Exec(query, runID, point.Month, point.MeanChurn, point.Samples); err != nil {
			return fmt.Errorf("failed to insert monthly row %s: %w", point.Month, err)
		}
	}

	return nil
}

// Close closes the underlying connection.
func (rs *RunStoreImpl) Close() error {
	if rs.db != nil {
		return rs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the run-history store.
func (rs *RunStoreImpl) GetStatus() (schema.HistoryStatus, error) {
	status := schema.HistoryStatus{
		Backend:    string(rs.backend),
		Connected:  rs.db != nil,
		TableSizes: make(map[string]int64),
	}

	if rs.backend == schema.NoneBackend || rs.db == nil {
		return status, nil
	}

	// Get total runs
	runsQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(runsTable, rs.backend))
	row := rs.db.QueryRow(runsQuery)
	if err := row.Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		// Get last run info
		lastRunQuery := fmt.Sprintf("SELECT run_id, start_time FROM %s ORDER BY run_id DESC LIMIT 1", quoteTableName(runsTable, rs.backend))
		row = rs.db.QueryRow(lastRunQuery)

		switch rs.backend {
		case schema.SQLiteBackend:
			var lastRunID int64
			var lastRunTimeStr string
			if err := row.Scan(&lastRunID, &lastRunTimeStr); err != nil {
				return status, fmt.Errorf("failed to get last run info: %w", err)
			}
			status.LastRunID = lastRunID
			lastRunTime, err := time.Parse(time.RFC3339Nano, lastRunTimeStr)
			if err != nil {
				return status, fmt.Errorf("failed to parse last run time: %w", err)
			}
			status.LastRunTime = lastRunTime
		default: // MySQL and PostgreSQL store as native datetime
			if err := row.Scan(&status.LastRunID, &status.LastRunTime); err != nil {
				return status, fmt.Errorf("failed to get last run info: %w", err)
			}
		}

		// Get oldest run time
		oldestRunQuery := fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id ASC LIMIT 1", quoteTableName(runsTable, rs.backend))
		row = rs.db.QueryRow(oldestRunQuery)

		switch rs.backend {
		case schema.SQLiteBackend:
			var oldestRunTimeStr string
			if err := row.Scan(&oldestRunTimeStr); err != nil {
				return status, fmt.Errorf("failed to get oldest run time: %w", err)
			}
			oldestRunTime, err := time.Parse(time.RFC3339Nano, oldestRunTimeStr)
			if err != nil {
				return status, fmt.Errorf("failed to parse oldest run time: %w", err)
			}
			status.OldestRunTime = oldestRunTime
		default: // MySQL and PostgreSQL store as native datetime
			if err := row.Scan(&status.OldestRunTime); err != nil {
				return status, fmt.Errorf("failed to get oldest run time: %w", err)
			}
		}
	}

	// Get total recorded months
	monthsQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(monthlyTable, rs.backend))
	row = rs.db.QueryRow(monthsQuery)
	if err := row.Scan(&status.TotalMonths); err != nil {
		return status, fmt.Errorf("failed to get total months: %w", err)
	}

	// Get table sizes
	tables := []string{runsTable, monthlyTable}
	for _, table := range tables {
		quotedTable := quoteTableName(table, rs.backend)
		countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s", quotedTable)
		row = rs.db.QueryRow(countQuery)
		var count int64
		if err := row.Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}

	status.StorageBytes = rs.storageBytes(status)

	return status, nil
}

// storageBytes estimates the on-disk footprint of the history tables. Size
// probes differ per backend and fall back to a rough row-based estimate when
// the server refuses the query.
func (rs *RunStoreImpl) storageBytes(status schema.HistoryStatus) int64 {
	totalRows := status.TableSizes[runsTable] + status.TableSizes[monthlyTable]
	estimate := totalRows * 200 // Fallback rough estimate

	switch rs.backend {
	case schema.SQLiteBackend:
		// For SQLite, use page_count * page_size
		var size int64
		sizeQuery := "SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()"
		if err := rs.db.QueryRow(sizeQuery).Scan(&size); err != nil {
			return estimate
		}
		return size

	case schema.MySQLBackend:
		// Use information_schema for MySQL
		cfg, err := mysql.ParseDSN(rs.connStr)
		if err != nil || cfg.DBName == "" {
			return estimate
		}
		var size int64
		sizeQuery := "SELECT COALESCE(SUM(data_length + index_length), 0) FROM information_schema.tables WHERE table_schema = ? AND table_name IN (?, ?)"
		if err := rs.db.QueryRow(sizeQuery, cfg.DBName, runsTable, monthlyTable).Scan(&size); err != nil {
			return estimate
		}
		return size

	case schema.PostgreSQLBackend:
		// Use pg_total_relation_size for PostgreSQL
		var size int64
		sizeQuery := "SELECT pg_total_relation_size($1) + pg_total_relation_size($2)"
		if err := rs.db.QueryRow(sizeQuery, runsTable, monthlyTable).Scan(&size); err != nil {
			return estimate
		}
		return size

	default:
		return estimate
	}
}

// GetAllRuns retrieves all recorded runs from the store.
func (rs *RunStoreImpl) GetAllRuns() ([]schema.RunRecord, error) {
	// Skip for NoneBackend
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil, nil
	}

	quotedTableName := quoteTableName(runsTable, rs.backend)
	query := fmt.Sprintf(`SELECT run_id, start_time, end_time, run_duration_ms, repos, repo_count,
		workers, window_start, window_end, step, status, config_params FROM %s ORDER BY run_id`, quotedTableName)

	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunRecord

	for rows.Next() {
		var record schema.RunRecord

		switch rs.backend {
		case schema.SQLiteBackend:
			var startTimeStr, windowStartStr, windowEndStr string
			var endTimeStr *string
			if err := rows.Scan(&record.RunID, &startTimeStr, &endTimeStr, &record.RunDurationMs, &record.Repos,
				&record.RepoCount, &record.Workers, &windowStartStr, &windowEndStr, &record.Step,
				&record.Status, &record.ConfigParams); err != nil {
				return nil, fmt.Errorf("failed to scan run: %w", err)
			}
			startTime, err := time.Parse(time.RFC3339Nano, startTimeStr)
			if err != nil {
				return nil, fmt.Errorf("failed to parse start_time: %w", err)
			}
			record.StartTime = startTime
			if endTimeStr != nil {
				endTime, err := time.Parse(time.RFC3339Nano, *endTimeStr)
				if err != nil {
					return nil, fmt.Errorf("failed to parse end_time: %w", err)
				}
				record.EndTime = &endTime
			}
			windowStart, err := time.Parse(time.RFC3339Nano, windowStartStr)
			if err != nil {
				return nil, fmt.Errorf("failed to parse window_start: %w", err)
			}
			record.WindowStart = windowStart
			windowEnd, err := time.Parse(time.RFC3339Nano, windowEndStr)
			if err != nil {
				return nil, fmt.Errorf("failed to parse window_end: %w", err)
			}
			record.WindowEnd = windowEnd
		default: // MySQL and PostgreSQL
			if err := rows.Scan(&record.RunID, &record.StartTime, &record.EndTime, &record.RunDurationMs, &record.Repos,
				&record.RepoCount, &record.Workers, &record.WindowStart, &record.WindowEnd, &record.Step,
				&record.Status, &record.ConfigParams); err != nil {
				return nil, fmt.Errorf("failed to scan run: %w", err)
			}
		}

		results = append(results, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return results, nil
}

// GetAllMonthly retrieves all recorded monthly rows from the store.
func (rs *RunStoreImpl) GetAllMonthly() ([]schema.MonthlyRecord, error) {
	// Skip for NoneBackend
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil, nil
	}

	quotedTableName := quoteTableName(monthlyTable, rs.backend)
	query := fmt.Sprintf("SELECT run_id, month, mean_churn, samples FROM %s ORDER BY run_id, month", quotedTableName)

	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly rows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.MonthlyRecord

	for rows.Next() {
		var record schema.MonthlyRecord
		if err := rows.Scan(&record.RunID, &record.Month, &record.MeanChurn, &record.Samples); err != nil {
			return nil, fmt.Errorf("failed to scan monthly row: %w", err)
		}
		results = append(results, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating monthly rows: %w", err)
	}

	return results, nil
}

// formatTime converts a time.Time to the appropriate format for the backend.
func formatTime(t time.Time, backend schema.DatabaseBackend) any {
	switch backend {
	case schema.SQLiteBackend:
		return t.Format(time.RFC3339Nano)
	default:
		return t
	}
}

// quoteTableName returns the properly quoted table name for the given backend.
func quoteTableName(name string, backend schema.DatabaseBackend) string {
	switch backend {
	case schema.PostgreSQLBackend:
		return fmt.Sprintf("\"%s\"", name)
	case schema.MySQLBackend:
		return fmt.Sprintf("`%s`", name)
	default: // SQLite
		return fmt.Sprintf("\"%s\"", name)
	}
}
