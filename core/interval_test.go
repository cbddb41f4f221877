package core

import (
	"testing"
	"time"

	"github.com/huangsam/churnmill/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateIntervals(t *testing.T) {
	tests := []struct {
		name  string
		since time.Time
		until time.Time
		step  schema.Step
		want  []schema.DateInterval
	}{
		{
			name:  "exact monthly split",
			since: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			until: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
			step:  schema.Step{Months: 1},
			want: []schema.DateInterval{
				{Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
				{Start: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
				{Start: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)},
			},
		},
		{
			name:  "last interval clamped to until",
			since: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			until: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
			step:  schema.Step{Months: 1},
			want: []schema.DateInterval{
				{Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
				{Start: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
				{Start: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
			},
		},
		{
			name:  "duration step with clamped tail",
			since: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
			until: time.Date(2024, 6, 26, 0, 0, 0, 0, time.UTC),
			step:  schema.Step{Delta: 10 * 24 * time.Hour},
			want: []schema.DateInterval{
				{Start: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC)},
				{Start: time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC), End: time.Date(2024, 6, 21, 0, 0, 0, 0, time.UTC)},
				{Start: time.Date(2024, 6, 21, 0, 0, 0, 0, time.UTC), End: time.Date(2024, 6, 26, 0, 0, 0, 0, time.UTC)},
			},
		},
		{
			name:  "step larger than window yields one interval",
			since: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			until: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
			step:  schema.Step{Months: 1},
			want: []schema.DateInterval{
				{Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := GenerateIntervals(tc.since, tc.until, tc.step)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

// Intervals must tile the window exactly: no gap, no overlap, no empty slot.
func TestGenerateIntervalsCoverage(t *testing.T) {
	since := time.Date(2023, 3, 7, 12, 30, 0, 0, time.UTC)
	until := time.Date(2024, 8, 19, 6, 0, 0, 0, time.UTC)

	intervals, err := GenerateIntervals(since, until, schema.Step{Months: 1})
	require.NoError(t, err)
	require.NotEmpty(t, intervals)

	assert.Equal(t, since, intervals[0].Start)
	assert.Equal(t, until, intervals[len(intervals)-1].End)
	for i, interval := range intervals {
		assert.True(t, interval.Start.Before(interval.End), "interval %d is empty or inverted", i)
		if i > 0 {
			assert.Equal(t, intervals[i-1].End, interval.Start, "gap before interval %d", i)
		}
	}
}

func TestGenerateIntervalsErrors(t *testing.T) {
	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		since time.Time
		until time.Time
		step  schema.Step
	}{
		{"zero step", since, until, schema.Step{}},
		{"negative delta step", since, until, schema.Step{Delta: -time.Hour}},
		{"since equals until", since, since, schema.Step{Months: 1}},
		{"since after until", until, since, schema.Step{Months: 1}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			intervals, err := GenerateIntervals(tc.since, tc.until, tc.step)
			assert.Nil(t, intervals)
			assert.ErrorIs(t, err, ErrInvalidRange)
		})
	}
}
