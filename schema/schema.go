// Package schema has configs, models and global variables for all parts of churnmill.
package schema

import "time"

// DateInterval is one bounded sub-range of the global analysis window.
// Intervals are half-open [Start, End) and generated contiguous and
// non-overlapping, covering the full window exactly.
type DateInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Job is the unit of work assigned to one worker: a private repository
// snapshot plus an ordered list of intervals. A job is owned exclusively by
// its worker and is immutable once constructed.
type Job struct {
	WorkerID     int            // Index of the worker within its repository run
	RepoPath     string         // Source repository the snapshot was copied from
	SnapshotPath string         // Filesystem-isolated copy read by this worker only
	Intervals    []DateInterval // Disjoint subset of the interval sequence, in order
}

// IntervalResult holds the churn totals one worker accumulated for one
// interval. Churn is derived as Insertions+Deletions and never mutated
// independently.
type IntervalResult struct {
	WorkerID   int       // Worker that produced this result
	RepoPath   string    // Source repository the sample belongs to
	Start      time.Time // Interval start (inclusive)
	End        time.Time // Interval end (exclusive)
	Insertions uint64    // Lines inserted across all commits in the interval
	Deletions  uint64    // Lines deleted across all commits in the interval
	Churn      uint64    // Insertions + Deletions
}

// MonthlyChurn is one point of the final series: the arithmetic mean of all
// churn samples whose interval starts in the given calendar month, across
// every repository and worker jointly.
type MonthlyChurn struct {
	Month     string  `json:"month"`      // Calendar month key, "YYYY-MM"
	MeanChurn float64 `json:"mean_churn"` // Arithmetic mean of churn samples
	Samples   int     `json:"samples"`    // Number of (repository x interval) samples
}

// ThresholdSummary reports the mean churn of the series split around a
// threshold month: months strictly before it versus the threshold month
// onward. An empty side has a mean of 0.
type ThresholdSummary struct {
	Threshold    string  `json:"threshold"`     // Split month key, "YYYY-MM"
	BeforeMean   float64 `json:"before_mean"`   // Mean of monthly means before the threshold
	AfterMean    float64 `json:"after_mean"`    // Mean of monthly means from the threshold onward
	BeforeMonths int     `json:"before_months"` // Months in the before side
	AfterMonths  int     `json:"after_months"`  // Months in the after side
}

// WorkerFailure records one worker-local history scan failure. Sibling
// workers keep running; the failure is surfaced alongside the partial
// results so the run is never silently reported as fully successful.
type WorkerFailure struct {
	WorkerID int          `json:"worker_id"`
	RepoPath string       `json:"repo_path"`
	Interval DateInterval `json:"interval"`
	Reason   string       `json:"reason"`
}

// ChurnReport is the full output envelope of one analysis run.
type ChurnReport struct {
	Repos    []string          `json:"repos"`
	Since    time.Time         `json:"since"`
	Until    time.Time         `json:"until"`
	Step     string            `json:"step"`
	Workers  int               `json:"workers"`
	Series   []MonthlyChurn    `json:"series"`
	Summary  *ThresholdSummary `json:"summary,omitempty"`
	Failures []WorkerFailure   `json:"failures,omitempty"`
}
