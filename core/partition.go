package core

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/huangsam/churnmill/schema"
)

// ErrCapacity indicates a worker count beyond what this host should run.
// The caller can recover by lowering the count; nothing has been
// provisioned when this is returned.
var ErrCapacity = errors.New("worker capacity exceeded")

// WorkerLimit returns the maximum worker count allowed on this host. One
// core is left free for the coordinator and the git processes it spawns.
func WorkerLimit() int {
	return max(1, runtime.GOMAXPROCS(0)-1)
}

// ValidateWorkerCount rejects worker counts outside (0, WorkerLimit].
func ValidateWorkerCount(workers int) error {
	if workers <= 0 {
		return fmt.Errorf("%w: %d workers requested, need at least 1", ErrCapacity, workers)
	}
	if limit := WorkerLimit(); workers > limit {
		return fmt.Errorf("%w: %d workers requested, host limit is %d", ErrCapacity, workers, limit)
	}
	return nil
}

// PartitionIntervals splits intervals into at most workers contiguous runs.
// Run lengths differ by at most one, with earlier runs taking the extras.
// Fewer intervals than workers yields fewer runs, never an empty run: an
// empty run would scan nothing, so dropping it keeps snapshot provisioning
// bounded by real work while producing the same results.
func PartitionIntervals(intervals []schema.DateInterval, workers int) [][]schema.DateInterval {
	if len(intervals) == 0 || workers <= 0 {
		return nil
	}
	if workers > len(intervals) {
		workers = len(intervals)
	}

	base := len(intervals) / workers
	extra := len(intervals) % workers
	chunks := make([][]schema.DateInterval, 0, workers)
	start := 0
	for i := range workers {
		size := base
		if i < extra {
			size++
		}
		chunks = append(chunks, intervals[start:start+size])
		start += size
	}
	return chunks
}

// BuildJobs pairs each interval run with its private snapshot, preserving
// chronological order across workers. snapshots must hold at least
// len(chunks) entries.
func BuildJobs(repoPath string, snapshots []string, chunks [][]schema.DateInterval) []schema.Job {
	jobs := make([]schema.Job, 0, len(chunks))
	for i, chunk := range chunks {
		jobs = append(jobs, schema.Job{
			WorkerID:     i,
			RepoPath:     repoPath,
			SnapshotPath: snapshots[i],
			Intervals:    chunk,
		})
	}
	return jobs
}
