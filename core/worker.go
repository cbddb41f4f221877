package core

import (
	"context"

	"github.com/huangsam/churnmill/core/agg"
	"github.com/huangsam/churnmill/internal/contract"
	"github.com/huangsam/churnmill/schema"
)

// runChurnJob scans every interval of a job in order against the job's
// private snapshot. On a scan error the job stops and reports the failure
// alongside the results gathered so far; completed intervals stay valid.
func runChurnJob(ctx context.Context, job schema.Job, reader contract.HistoryReader, excludes []string) ([]schema.IntervalResult, *schema.WorkerFailure) {
	results := make([]schema.IntervalResult, 0, len(job.Intervals))
	for _, interval := range job.Intervals {
		out, err := reader.GetChurnLog(ctx, job.SnapshotPath, interval.Start, interval.End)
		if err != nil {
			return results, &schema.WorkerFailure{
				WorkerID: job.WorkerID,
				RepoPath: job.RepoPath,
				Interval: interval,
				Reason:   err.Error(),
			}
		}

		insertions, deletions := agg.SumChurnLog(out, excludes)
		results = append(results, schema.IntervalResult{
			WorkerID:   job.WorkerID,
			RepoPath:   job.RepoPath,
			Start:      interval.Start,
			End:        interval.End,
			Insertions: insertions,
			Deletions:  deletions,
			Churn:      insertions + deletions,
		})
	}
	return results, nil
}
