package contract

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/churnmill/schema"
)

// Define the regular expression to capture "N [units] ago"
// e.g., "2 years ago", "3 months ago", "1 week ago".
var relativeTimeRe = regexp.MustCompile(`^(\d+)\s+(year|month|week|day|hour|minute)s?\s+ago$`)

// ParseRelativeTime converts strings like "2 years ago" into a time.Time in the past.
func ParseRelativeTime(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	matches := relativeTimeRe.FindStringSubmatch(s)

	if len(matches) == 0 {
		return time.Time{}, fmt.Errorf("invalid relative time format: %s", s)
	}

	// 1: Value (e.g., "2")
	// 2: Unit (e.g., "year" or "month")
	value, _ := strconv.Atoi(matches[1])
	unit := matches[2]

	switch unit {
	case "year":
		return now.AddDate(-value, 0, 0), nil
	case "month":
		return now.AddDate(0, -value, 0), nil
	case "week":
		return now.Add(time.Duration(-value) * 7 * 24 * time.Hour), nil
	case "day":
		return now.Add(time.Duration(-value) * 24 * time.Hour), nil
	case "hour":
		return now.Add(time.Duration(-value) * time.Hour), nil
	case "minute":
		return now.Add(time.Duration(-value) * time.Minute), nil
	default:
		// Should be caught by the regex, but good for safety
		return time.Time{}, fmt.Errorf("unsupported time unit: %s", unit)
	}
}

// ParseTimePoint parses a window boundary: an absolute date ("2020-01-01"),
// an absolute RFC3339 timestamp, or a relative "N [units] ago" expression
// anchored at now.
func ParseTimePoint(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateOnlyFormat, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(DateTimeFormat, s); err == nil {
		return t, nil
	}
	t, err := ParseRelativeTime(s, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q. Expected %s, RFC3339, or 'N [units] ago'", s, DateOnlyFormat)
	}
	return t, nil
}

// Define the regular expression to capture "N [units]".
var stepRe = regexp.MustCompile(`^(\d+)\s+(year|month|week|day|hour)s?$`)

// ParseStep converts strings like "1 month", "2 weeks" or "720h" into a Step.
// Year and month strides stay calendar-aware so interval boundaries land on
// exact month arithmetic; the rest become plain durations. Go's built-in
// duration syntax is accepted as a fallback.
func ParseStep(s string) (schema.Step, error) {
	s = strings.TrimSpace(strings.ToLower(s))

	if matches := stepRe.FindStringSubmatch(s); len(matches) != 0 {
		value, _ := strconv.Atoi(matches[1])
		if value == 0 {
			return schema.Step{}, errors.New("zero step is not useful")
		}
		switch matches[2] {
		case "year":
			return schema.Step{Months: value * 12}, nil
		case "month":
			return schema.Step{Months: value}, nil
		case "week":
			return schema.Step{Delta: time.Duration(value) * 7 * 24 * time.Hour}, nil
		case "day":
			return schema.Step{Delta: time.Duration(value) * 24 * time.Hour}, nil
		case "hour":
			return schema.Step{Delta: time.Duration(value) * time.Hour}, nil
		}
	}

	// Fall back to Go's built-in duration parsing (e.g., "720h", "90m")
	duration, err := time.ParseDuration(s)
	if err != nil {
		return schema.Step{}, fmt.Errorf("invalid step format %q. Expected 'N [units]' (e.g. '1 month') or a duration (e.g. '720h')", s)
	}
	if duration <= 0 {
		return schema.Step{}, errors.New("zero step is not useful")
	}
	return schema.Step{Delta: duration}, nil
}
