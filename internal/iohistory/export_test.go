package iohistory

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/churnmill/internal/contract"
	"github.com/huangsam/churnmill/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteHistoryExport_NoOutputFile(t *testing.T) {
	cfg := &contract.Config{}
	mgr := &MockStoreManager{}

	err := ExecuteHistoryExport(cfg, mgr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--output-file is required")
}

func TestExecuteHistoryExport_NoStore(t *testing.T) {
	cfg := &contract.Config{OutputFile: "history"}
	mgr := &MockStoreManager{}
	mgr.On("GetRunStore").Return(nil) // Tracking disabled

	err := ExecuteHistoryExport(cfg, mgr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run history is not configured")
	mgr.AssertExpectations(t)
}

func TestExecuteHistoryExport_StatusError(t *testing.T) {
	cfg := &contract.Config{OutputFile: "history"}
	store := &MockRunStore{}
	store.On("GetStatus").Return(schema.HistoryStatus{}, assert.AnError)
	mgr := &MockStoreManager{}
	mgr.On("GetRunStore").Return(store)

	err := ExecuteHistoryExport(cfg, mgr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get history status")
	mgr.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestExecuteHistoryExport_EmptyHistory(t *testing.T) {
	cfg := &contract.Config{OutputFile: "history"}
	store := &MockRunStore{}
	store.On("GetStatus").Return(schema.HistoryStatus{
		Backend:   string(schema.SQLiteBackend),
		Connected: true,
		TotalRuns: 0,
	}, nil)
	mgr := &MockStoreManager{}
	mgr.On("GetRunStore").Return(store)

	err := ExecuteHistoryExport(cfg, mgr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no run history found to export")
	mgr.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestExecuteHistoryExport(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := &contract.Config{OutputFile: filepath.Join(tmpDir, "history")}

	startTime := time.Now().Add(-time.Minute)
	endTime := time.Now()
	durationMs := int32(60000)
	configParams := `{"step":"1 month","workers":4}`

	runs := []schema.RunRecord{
		{
			RunID:         1,
			StartTime:     startTime,
			EndTime:       &endTime,
			RunDurationMs: &durationMs,
			Repos:         "/src/alpha",
			RepoCount:     1,
			Workers:       4,
			WindowStart:   startTime.AddDate(-1, 0, 0),
			WindowEnd:     startTime,
			Step:          "1 month",
			Status:        string(schema.RunCompleted),
			ConfigParams:  &configParams,
		},
		{
			RunID:       2,
			StartTime:   endTime,
			Repos:       "/src/alpha",
			RepoCount:   1,
			Workers:     4,
			WindowStart: startTime.AddDate(-1, 0, 0),
			WindowEnd:   startTime,
			Step:        "1 month",
			Status:      string(schema.RunRunning),
		},
	}
	monthly := []schema.MonthlyRecord{
		{RunID: 1, Month: "2024-01", MeanChurn: 1523.5, Samples: 4},
		{RunID: 1, Month: "2024-02", MeanChurn: 987.25, Samples: 4},
		{RunID: 1, Month: "2024-03", MeanChurn: 2210.0, Samples: 4},
	}

	store := &MockRunStore{}
	store.On("GetStatus").Return(schema.HistoryStatus{
		Backend:     string(schema.SQLiteBackend),
		Connected:   true,
		TotalRuns:   2,
		TotalMonths: 3,
	}, nil)
	store.On("GetAllRuns").Return(runs, nil)
	store.On("GetAllMonthly").Return(monthly, nil)
	mgr := &MockStoreManager{}
	mgr.On("GetRunStore").Return(store)

	err := ExecuteHistoryExport(cfg, mgr)
	require.NoError(t, err)

	// Both Parquet files should exist and contain data
	runsInfo, err := os.Stat(cfg.OutputFile + "_runs.parquet")
	require.NoError(t, err)
	assert.Greater(t, runsInfo.Size(), int64(0))

	monthlyInfo, err := os.Stat(cfg.OutputFile + "_monthly.parquet")
	require.NoError(t, err)
	assert.Greater(t, monthlyInfo.Size(), int64(0))

	mgr.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestExecuteHistoryExport_RunsQueryError(t *testing.T) {
	cfg := &contract.Config{OutputFile: "history"}
	store := &MockRunStore{}
	store.On("GetStatus").Return(schema.HistoryStatus{
		Backend:   string(schema.SQLiteBackend),
		Connected: true,
		TotalRuns: 1,
	}, nil)
	store.On("GetAllRuns").Return(nil, assert.AnError)
	mgr := &MockStoreManager{}
	mgr.On("GetRunStore").Return(store)

	err := ExecuteHistoryExport(cfg, mgr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to retrieve runs")
	mgr.AssertExpectations(t)
	store.AssertExpectations(t)
}
