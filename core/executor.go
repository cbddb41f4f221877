package core

import (
	"context"
	"sync"

	"github.com/huangsam/churnmill/internal/contract"
	"github.com/huangsam/churnmill/schema"
)

// jobOutcome carries one worker's results plus its failure, if any.
type jobOutcome struct {
	results []schema.IntervalResult
	failure *schema.WorkerFailure
}

// executeJobs runs every job on its own goroutine and waits for all of them
// to finish. A failing worker never cancels its siblings; every outcome is
// collected so partial results survive a bad interval.
func executeJobs(ctx context.Context, jobs []schema.Job, reader contract.HistoryReader, excludes []string) ([]schema.IntervalResult, []schema.WorkerFailure) {
	outcomeCh := make(chan jobOutcome, len(jobs))
	var wg sync.WaitGroup
	for _, job := range jobs {
		wg.Go(func() {
			results, failure := runChurnJob(ctx, job, reader, excludes)
			outcomeCh <- jobOutcome{results: results, failure: failure}
		})
	}

	// Wait for all workers before draining the buffered channel
	wg.Wait()
	close(outcomeCh)

	var results []schema.IntervalResult
	var failures []schema.WorkerFailure
	for outcome := range outcomeCh {
		results = append(results, outcome.results...)
		if outcome.failure != nil {
			failures = append(failures, *outcome.failure)
		}
	}
	return results, failures
}
