package schema

import "time"

// monthKeyFormat is the calendar month grouping key layout.
const monthKeyFormat = "2006-01"

// MonthKey formats a timestamp as its calendar month key, e.g. "2020-01".
func MonthKey(t time.Time) string {
	return t.Format(monthKeyFormat)
}

// ParseMonthKey parses a "YYYY-MM" key back into the first instant of that
// month in UTC.
func ParseMonthKey(key string) (time.Time, error) {
	return time.Parse(monthKeyFormat, key)
}

// Mean returns the arithmetic mean of the samples, or 0 for an empty slice.
func Mean(samples []uint64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum uint64
	for _, s := range samples {
		sum += s
	}
	return float64(sum) / float64(len(samples))
}

// MeanOfMeans averages a slice of already-averaged values, or 0 when empty.
func MeanOfMeans(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
