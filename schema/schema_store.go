package schema

import "time"

// RunRecord represents a row from the churn_runs table.
type RunRecord struct {
	RunID         int64
	StartTime     time.Time
	EndTime       *time.Time
	RunDurationMs *int32
	Repos         string // Comma-joined repository paths
	RepoCount     int32
	Workers       int32
	WindowStart   time.Time
	WindowEnd     time.Time
	Step          string
	Status        string
	ConfigParams  *string // JSON dump of the effective configuration
}

// MonthlyRecord represents a row from the churn_monthly table: one month of
// one recorded run's aggregate series.
type MonthlyRecord struct {
	RunID     int64
	Month     string
	MeanChurn float64
	Samples   int32
}
