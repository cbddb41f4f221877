package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/churnmill/internal/contract"
	"github.com/huangsam/churnmill/schema"
)

// ErrInvalidRange indicates an analysis window that cannot be cut into
// intervals, either because the step is empty or the window is inverted.
var ErrInvalidRange = errors.New("invalid analysis range")

// GenerateIntervals cuts the [since, until) window into contiguous half-open
// intervals of one step each. The last interval is clamped to until, so the
// intervals cover the window exactly with no overlap and no gap.
func GenerateIntervals(since, until time.Time, step schema.Step) ([]schema.DateInterval, error) {
	if step.IsZero() {
		return nil, fmt.Errorf("%w: step must advance time", ErrInvalidRange)
	}
	if !since.Before(until) {
		return nil, fmt.Errorf("%w: since (%s) must be before until (%s)",
			ErrInvalidRange,
			since.Format(contract.DateTimeFormat),
			until.Format(contract.DateTimeFormat))
	}

	var intervals []schema.DateInterval
	cursor := since
	for cursor.Before(until) {
		next := step.Advance(cursor)
		if next.After(until) {
			next = until
		}
		intervals = append(intervals, schema.DateInterval{Start: cursor, End: next})
		cursor = next
	}
	return intervals, nil
}
