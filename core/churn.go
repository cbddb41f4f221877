// Package core implements the parallel churn analysis engine: it slices the
// analysis window into intervals, fans interval scans out across isolated
// repository snapshots, and folds the per-interval results into a monthly
// churn series.
package core

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/huangsam/churnmill/core/agg"
	"github.com/huangsam/churnmill/internal/chart"
	"github.com/huangsam/churnmill/internal/contract"
	"github.com/huangsam/churnmill/internal/outwriter"
	"github.com/huangsam/churnmill/schema"
)

// PartialRunError reports a run that finished with worker failures. The
// series built from the surviving results is still rendered and recorded;
// the error exists so callers never mistake a partial run for a clean one.
type PartialRunError struct {
	Failures []schema.WorkerFailure
}

func (e *PartialRunError) Error() string {
	return fmt.Sprintf("%d worker scan(s) failed; results are partial", len(e.Failures))
}

// ExecuteChurnReport runs the full churn analysis and renders the report.
func ExecuteChurnReport(ctx context.Context, cfg *contract.Config, reader contract.HistoryReader, mgr contract.StoreManager) error {
	report, duration, err := GetChurnReportResults(ctx, cfg, reader, mgr)
	if err != nil {
		return err
	}

	if err := outwriter.PrintChurnReport(report, cfg, duration); err != nil {
		return err
	}
	if cfg.ChartFile != "" {
		if err := chart.WriteChurnChart(report, cfg); err != nil {
			return err
		}
	}

	if len(report.Failures) > 0 {
		return &PartialRunError{Failures: report.Failures}
	}
	return nil
}

// GetChurnReportResults runs the churn analysis pipeline and returns the
// report along with the elapsed wall time. Rendering is left to the caller.
func GetChurnReportResults(ctx context.Context, cfg *contract.Config, reader contract.HistoryReader, mgr contract.StoreManager) (*schema.ChurnReport, time.Duration, error) {
	start := time.Now()
	report, err := runChurnAnalysis(ctx, cfg, reader, mgr)
	if err != nil {
		return nil, time.Since(start), err
	}
	return report, time.Since(start), nil
}

// runChurnAnalysis performs the common slicing, scanning and aggregation steps.
func runChurnAnalysis(ctx context.Context, cfg *contract.Config, reader contract.HistoryReader, mgr contract.StoreManager) (*schema.ChurnReport, error) {
	if !shouldSuppressHeader(ctx) {
		outwriter.LogChurnHeader(cfg)
	}

	// --- 0. Window Slicing and Capacity Checks ---
	intervals, err := GenerateIntervals(cfg.Since, cfg.Until, cfg.Step)
	if err != nil {
		return nil, err
	}
	if err := ValidateWorkerCount(cfg.Workers); err != nil {
		return nil, err
	}

	// --- 1. Begin Run Tracking (if configured) ---
	var runID int64
	runStore := mgr.GetRunStore()
	if runStore != nil {
		repoHashes := resolveRepoHashes(ctx, reader, cfg.RepoPaths)
		runID, err = runStore.BeginRun(time.Now(), cfg, repoHashes, buildConfigParams(cfg))
		if err != nil {
			contract.LogWarn("Run tracking initialization failed", err)
			runID = 0
		}
	}

	// --- 2. Provision and Scan Phase (per repository) ---
	var allResults []schema.IntervalResult
	var allFailures []schema.WorkerFailure
	for _, repoPath := range cfg.RepoPaths {
		results, failures, err := scanRepository(ctx, cfg, reader, repoPath, intervals)
		if err != nil {
			finishRun(runStore, runID, schema.RunFailed)
			return nil, err
		}
		allResults = append(allResults, results...)
		allFailures = append(allFailures, failures...)
	}

	// A clean run yields exactly one sample per repository and interval
	if len(allFailures) == 0 && len(allResults) != len(intervals)*len(cfg.RepoPaths) {
		finishRun(runStore, runID, schema.RunFailed)
		return nil, fmt.Errorf("aggregation mismatch: %d samples for %d intervals across %d repos",
			len(allResults), len(intervals), len(cfg.RepoPaths))
	}

	// Workers finish in arbitrary order, so sort failures for stable output
	sort.Slice(allFailures, func(i, j int) bool {
		if allFailures[i].RepoPath != allFailures[j].RepoPath {
			return allFailures[i].RepoPath < allFailures[j].RepoPath
		}
		return allFailures[i].WorkerID < allFailures[j].WorkerID
	})

	// --- 3. Aggregation Phase ---
	series := agg.AggregateMonthly(allResults)
	summary := agg.SplitAtThreshold(series, cfg.Threshold)

	report := &schema.ChurnReport{
		Repos:    cfg.RepoPaths,
		Since:    cfg.Since,
		Until:    cfg.Until,
		Step:     cfg.Step.String(),
		Workers:  cfg.Workers,
		Series:   series,
		Summary:  summary,
		Failures: allFailures,
	}

	// --- 4. End Run Tracking ---
	if runStore != nil && runID > 0 {
		if err := runStore.RecordMonthlySeries(runID, series); err != nil {
			contract.LogWarn("Failed to record monthly series", err)
		}
		status := schema.RunCompleted
		if len(allFailures) > 0 {
			status = schema.RunPartial
		}
		finishRun(runStore, runID, status)
	}

	return report, nil
}

// scanRepository provisions isolated snapshots for one repository, fans the
// interval runs out across workers, and tears the snapshots down again.
func scanRepository(ctx context.Context, cfg *contract.Config, reader contract.HistoryReader, repoPath string, intervals []schema.DateInterval) ([]schema.IntervalResult, []schema.WorkerFailure, error) {
	chunks := PartitionIntervals(intervals, cfg.Workers)

	baseDir := filepath.Join(cfg.TempDir, filepath.Base(repoPath))
	snapshots, err := contract.ProvisionSnapshots(repoPath, baseDir, len(chunks))
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		if err := snapshots.Cleanup(); err != nil {
			contract.LogWarn("Snapshot cleanup failed", err)
		}
	}()

	jobs := BuildJobs(repoPath, snapshots.Paths, chunks)
	results, failures := executeJobs(ctx, jobs, reader, cfg.Excludes)
	return results, failures, nil
}

// resolveRepoHashes reads the HEAD hash of each repository so the run record
// pins the exact states that were analyzed. A repository whose hash cannot
// be read is recorded as unknown; tracking never fails the analysis.
func resolveRepoHashes(ctx context.Context, reader contract.HistoryReader, repoPaths []string) map[string]string {
	hashes := make(map[string]string, len(repoPaths))
	for _, repoPath := range repoPaths {
		hash, err := reader.GetRepoHash(ctx, repoPath)
		if err != nil {
			contract.LogWarn("Failed to resolve repository hash", err)
			hash = "unknown"
		}
		hashes[repoPath] = hash
	}
	return hashes
}

// buildConfigParams collects the effective run parameters for tracking.
func buildConfigParams(cfg *contract.Config) map[string]any {
	params := map[string]any{
		"repos":    strings.Join(cfg.RepoPaths, ","),
		"since":    cfg.Since.Format(contract.DateTimeFormat),
		"until":    cfg.Until.Format(contract.DateTimeFormat),
		"step":     cfg.Step.String(),
		"workers":  cfg.Workers,
		"excludes": len(cfg.Excludes),
		"output":   string(cfg.Output),
	}
	if !cfg.Threshold.IsZero() {
		params["threshold"] = schema.MonthKey(cfg.Threshold)
	}
	return params
}

// finishRun marks a tracked run as finished with the given status.
func finishRun(runStore contract.RunStore, runID int64, status schema.RunStatus) {
	if runStore == nil || runID <= 0 {
		return
	}
	if err := runStore.EndRun(runID, time.Now(), status); err != nil {
		contract.LogWarn("Failed to finalize run tracking", err)
	}
}
