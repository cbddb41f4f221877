// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/churnmill/schema"
)

// HistoryReader defines the operations needed to scan repository history.
// This allows the core engine to be tested without needing a real git executable.
type HistoryReader interface {
	// --- Generic / Low-Level ---

	// Run executes a git command and returns its stdout; stderr is folded
	// into the returned error on failure.
	// Its use should be minimized in favor of the explicit methods below.
	Run(ctx context.Context, repoPath string, args ...string) ([]byte, error)

	// --- Reference Resolution ---

	// GetRepoHash returns the current HEAD commit hash of the repository.
	GetRepoHash(ctx context.Context, repoPath string) (string, error)

	// GetRepoRoot returns the absolute path to the root of the repository
	// containing the given context path.
	GetRepoRoot(ctx context.Context, contextPath string) (string, error)

	// --- Churn Logs ---

	// GetChurnLog returns the raw commit log output needed to sum line
	// insertions and deletions over the [since, until) window.
	GetChurnLog(ctx context.Context, repoPath string, since, until time.Time) ([]byte, error)
}

// StoreManager defines the interface for reaching the run-history store.
// This allows the persistence layer to be mocked for testing.
type StoreManager interface {
	GetRunStore() RunStore
}

// RunStore defines the interface for tracking analysis runs and their
// aggregate monthly series.
type RunStore interface {
	// BeginRun creates a new run row, pinning the analyzed HEAD hash per
	// repository, and returns its unique ID
	BeginRun(startTime time.Time, cfg *Config, repoHashes map[string]string, configParams map[string]any) (int64, error)

	// EndRun updates the run row with completion data
	EndRun(runID int64, endTime time.Time, status schema.RunStatus) error

	// RecordMonthlySeries stores the aggregate series computed by a run
	RecordMonthlySeries(runID int64, series []schema.MonthlyChurn) error

	// GetAllRuns returns every recorded run, oldest first
	GetAllRuns() ([]schema.RunRecord, error)

	// GetAllMonthly returns every recorded monthly row, oldest run first
	GetAllMonthly() ([]schema.MonthlyRecord, error)

	// GetStatus returns status information about the history store
	GetStatus() (schema.HistoryStatus, error)

	// Close closes the underlying connection
	Close() error
}
