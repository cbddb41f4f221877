//go:build basic

// Package integration contains integration tests for churnmill.
// These tests are excluded from normal test runs due to build tags.
// To run these tests: go test -tags basic ./integration
package integration

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reportEnvelope mirrors the JSON output of the report command.
type reportEnvelope struct {
	Repos  []string `json:"repos"`
	Series []struct {
		Month     string  `json:"month"`
		MeanChurn float64 `json:"mean_churn"`
		Samples   int     `json:"samples"`
	} `json:"series"`
	Summary *struct {
		Threshold  string  `json:"threshold"`
		BeforeMean float64 `json:"before_mean"`
		AfterMean  float64 `json:"after_mean"`
	} `json:"summary"`
	Failures []any `json:"failures"`
}

// TestReportJSONFlow runs a full report against a scratch repository and
// checks the monthly series in the JSON envelope.
func TestReportJSONFlow(t *testing.T) {
	repoDir := createScratchRepo(t)
	outFile := filepath.Join(t.TempDir(), "report.json")

	runChurnmill(t, repoDir,
		"report", repoDir,
		"--since", "2024-01-01",
		"--until", "2024-03-01",
		"--step", "1 month",
		"--workers", "1",
		"--output", "json",
		"--output-file", outFile,
		"--history-backend", "none",
		"--temp-dir", t.TempDir(),
	)

	raw, err := os.ReadFile(outFile)
	require.NoError(t, err)
	var report reportEnvelope
	require.NoError(t, json.Unmarshal(raw, &report), "report output should be valid JSON: %s", raw)

	require.Len(t, report.Series, 2)
	assert.Equal(t, "2024-01", report.Series[0].Month)
	assert.Equal(t, "2024-02", report.Series[1].Month)
	// January: the first commit inserts 3 lines, the second inserts 2 and
	// deletes 1, giving 6 total churn in one (repo x interval) sample.
	assert.Equal(t, 1, report.Series[0].Samples)
	assert.InDelta(t, 6.0, report.Series[0].MeanChurn, 0.001)
	assert.InDelta(t, 1.0, report.Series[1].MeanChurn, 0.001)
	assert.Empty(t, report.Failures)
}

// TestReportThresholdSplit verifies the before/after summary around a month.
func TestReportThresholdSplit(t *testing.T) {
	repoDir := createScratchRepo(t)
	outFile := filepath.Join(t.TempDir(), "report.json")

	runChurnmill(t, repoDir,
		"report", repoDir,
		"--since", "2024-01-01",
		"--until", "2024-03-01",
		"--step", "1 month",
		"--workers", "1",
		"--threshold", "2024-02",
		"--output", "json",
		"--output-file", outFile,
		"--history-backend", "none",
		"--temp-dir", t.TempDir(),
	)

	raw, err := os.ReadFile(outFile)
	require.NoError(t, err)
	var report reportEnvelope
	require.NoError(t, json.Unmarshal(raw, &report))

	require.NotNil(t, report.Summary)
	assert.Equal(t, "2024-02", report.Summary.Threshold)
	assert.InDelta(t, 6.0, report.Summary.BeforeMean, 0.001)
	assert.InDelta(t, 1.0, report.Summary.AfterMean, 0.001)
}

// TestReportWorkerIsolation runs the same window sequentially and with two
// workers over real snapshot copies and expects identical series: splitting
// the intervals across concurrent workers must not change a single number.
func TestReportWorkerIsolation(t *testing.T) {
	if runtime.NumCPU() < 3 {
		t.Skip("host worker limit too low for a two-worker run")
	}

	repoDir := createScratchRepo(t)

	seriesFor := func(workers string) reportEnvelope {
		outFile := filepath.Join(t.TempDir(), "report.json")
		runChurnmill(t, repoDir,
			"report", repoDir,
			"--since", "2024-01-01",
			"--until", "2024-03-01",
			"--step", "1 month",
			"--workers", workers,
			"--output", "json",
			"--output-file", outFile,
			"--history-backend", "none",
			"--temp-dir", t.TempDir(),
		)
		raw, err := os.ReadFile(outFile)
		require.NoError(t, err)
		var report reportEnvelope
		require.NoError(t, json.Unmarshal(raw, &report))
		return report
	}

	sequential := seriesFor("1")
	concurrent := seriesFor("2")

	require.NotEmpty(t, sequential.Series)
	assert.Equal(t, sequential.Series, concurrent.Series)
	assert.Empty(t, concurrent.Failures)
}

// TestReportTextOutput makes sure the table mode renders the series.
func TestReportTextOutput(t *testing.T) {
	repoDir := createScratchRepo(t)

	stdout := runChurnmill(t, repoDir,
		"report", repoDir,
		"--since", "2024-01-01",
		"--until", "2024-03-01",
		"--workers", "1",
		"--history-backend", "none",
		"--temp-dir", t.TempDir(),
	)

	assert.Contains(t, string(stdout), "2024-01")
	assert.Contains(t, string(stdout), "2024-02")
	assert.Contains(t, string(stdout), "Months: 2")
}

// TestVersionCommand sanity-checks the version output.
func TestVersionCommand(t *testing.T) {
	stdout := runChurnmill(t, ".", "version")
	assert.Contains(t, string(stdout), "churnmill CLI")
}

// runChurnmill executes the shared binary in the given directory and returns stdout.
func runChurnmill(t *testing.T, dir string, args ...string) []byte {
	t.Helper()
	cmd := exec.Command(getChurnmillBinary(), args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	require.NoError(t, err, "churnmill %v failed\nstdout: %s\nstderr: %s", args, stdout.String(), stderr.String())
	return stdout.Bytes()
}
