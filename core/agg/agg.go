// Package agg has aggregation logic for Git churn data.
package agg

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/churnmill/internal/contract"
	"github.com/huangsam/churnmill/schema"
)

// SumChurnLog sums line insertions and deletions over a raw numstat log.
// Excluded paths contribute nothing. Commit header lines carry no churn and
// are skipped; a window without commits legitimately sums to zero.
func SumChurnLog(out []byte, excludes []string) (insertions, deletions uint64) {
	lines := strings.Split(string(out), "\n")

	for _, l := range lines {
		l = strings.Trim(l, " \t\r\n'")

		if strings.HasPrefix(l, "--") {
			continue // Commit header line
		}
		if l == "" {
			continue // Skip blank lines
		}

		// File stats line
		path, add, del := parseFileStatsLine(l)
		if path == "" {
			continue
		}

		churnPath := resolveChurnPath(path)
		if churnPath == "" || contract.ShouldIgnore(churnPath, excludes) {
			continue
		}

		insertions += uint64(add)
		deletions += uint64(del)
	}
	return insertions, deletions
}

// parseFileStatsLine splits a numstat line into its path and churn values.
func parseFileStatsLine(line string) (string, int, int) {
	parts := strings.SplitN(line, "\t", 3)
	if len(parts) < 3 {
		return "", 0, 0
	}

	addStr, delStr, path := parts[0], parts[1], parts[2]
	return path, parseChurnValue(addStr), parseChurnValue(delStr)
}

// parseChurnValue converts a churn string to int, handling "-" as 0.
func parseChurnValue(s string) int {
	if s == "-" {
		return 0
	}
	if val, err := strconv.Atoi(s); err == nil && val >= 0 {
		return val
	}
	return 0
}

// resolveChurnPath maps a rename entry to the file's new path, which is the
// name exclusion patterns are matched against. Plain entries pass through.
func resolveChurnPath(path string) string {
	if !strings.Contains(path, " => ") {
		return path
	}
	_, newPath := parseRenamePath(path)
	return newPath
}

// parseRenamePath extracts old and new paths from a rename string.
func parseRenamePath(path string) (string, string) {
	if !strings.Contains(path, "{") {
		// Simple format: "old => new"
		parts := strings.SplitN(path, " => ", 2)
		if len(parts) == 2 {
			return parts[0], parts[1]
		}
		return "", ""
	}

	if !strings.Contains(path, "}") {
		// Malformed: has { but no }
		return "", ""
	}

	// Braced format: prefix{old => new}suffix
	braceStart := strings.Index(path, "{")
	braceEnd := strings.Index(path, "}")
	if braceStart == -1 || braceEnd == -1 || braceStart >= braceEnd {
		return "", ""
	}

	prefix := path[:braceStart]
	renamePart := path[braceStart+1 : braceEnd]
	suffix := path[braceEnd+1:]

	if !strings.Contains(renamePart, " => ") {
		return "", ""
	}

	renameParts := strings.SplitN(renamePart, " => ", 2)
	oldPath := prefix + renameParts[0] + suffix
	newPath := prefix + renameParts[1] + suffix
	return oldPath, newPath
}

// AggregateMonthly groups interval results into a monthly series. Every
// result whose interval starts in a given calendar month contributes one
// churn sample to that month, across all repositories and workers jointly.
// The series is sorted by month ascending; months without samples are absent.
func AggregateMonthly(results []schema.IntervalResult) []schema.MonthlyChurn {
	samples := make(map[string][]uint64)
	for _, r := range results {
		key := schema.MonthKey(r.Start)
		samples[key] = append(samples[key], r.Churn)
	}

	months := make([]string, 0, len(samples))
	for m := range samples {
		months = append(months, m)
	}
	sort.Strings(months) // "YYYY-MM" keys sort chronologically

	series := make([]schema.MonthlyChurn, 0, len(months))
	for _, m := range months {
		series = append(series, schema.MonthlyChurn{
			Month:     m,
			MeanChurn: schema.Mean(samples[m]),
			Samples:   len(samples[m]),
		})
	}
	return series
}

// SplitAtThreshold summarizes the series around a threshold month: months
// strictly before it on one side, the threshold month onward on the other.
// Each side averages its monthly means; an empty side averages to 0. A zero
// threshold or an empty series yields no summary.
func SplitAtThreshold(series []schema.MonthlyChurn, threshold time.Time) *schema.ThresholdSummary {
	if threshold.IsZero() || len(series) == 0 {
		return nil
	}

	key := schema.MonthKey(threshold)
	var before, after []float64
	for _, m := range series {
		if m.Month < key {
			before = append(before, m.MeanChurn)
		} else {
			after = append(after, m.MeanChurn)
		}
	}

	return &schema.ThresholdSummary{
		Threshold:    key,
		BeforeMean:   schema.MeanOfMeans(before),
		AfterMean:    schema.MeanOfMeans(after),
		BeforeMonths: len(before),
		AfterMonths:  len(after),
	}
}
