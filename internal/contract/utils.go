package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
)

// Trend label constants.
const (
	RisingValue  = "Rising"  // Churn increased after the threshold
	FallingValue = "Falling" // Churn decreased after the threshold
	FlatValue    = "Flat"    // No meaningful change
)

// trendEpsilon is the relative change below which a trend counts as flat.
const trendEpsilon = 0.05

// Color variables for console output.
var (
	RisingColor  = color.New(color.FgRed, color.Bold) // risingColor flags growing churn.
	FallingColor = color.New(color.FgCyan)            // fallingColor signals cooling churn.
	FlatColor    = color.New(color.FgYellow)          // flatColor marks an unchanged trend.
)

// GetPlainTrend returns a plain text label describing how the mean churn
// after the threshold compares to the mean before it. This is the core logic
// used for CSV, JSON, and table printing.
func GetPlainTrend(before, after float64) string {
	switch {
	case before == 0 && after == 0:
		return FlatValue
	case before == 0:
		return RisingValue
	}
	change := (after - before) / before
	switch {
	case change > trendEpsilon:
		return RisingValue
	case change < -trendEpsilon:
		return FallingValue
	default:
		return FlatValue
	}
}

// GetColorTrend returns a colored trend label for console output (table).
// It uses GetPlainTrend to determine the string, and then applies the
// appropriate color.
func GetColorTrend(before, after float64) string {
	text := GetPlainTrend(before, after)

	switch text {
	case RisingValue:
		return RisingColor.Sprint(text)
	case FallingValue:
		return FallingColor.Sprint(text)
	default: // "Flat"
		return FlatColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on
// the provided file path. It falls back to os.Stdout for an empty path.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// ShouldIgnore returns true if the given path matches any of the exclude patterns.
// It supports simple glob patterns (using filepath.Match) when the pattern
// contains wildcard characters (*, ?, [ ]). Patterns ending with '/' are treated
// as prefixes. Patterns starting with '.' are treated as suffix (extension) matches.
// A user can provide patterns like "vendor/", "node_modules/", "*.min.js".
func ShouldIgnore(path string, excludes []string) bool {
	for _, ex := range excludes {
		ex = strings.TrimSpace(ex)
		if ex == "" {
			continue
		}

		// If the pattern contains glob characters, try filepath.Match.
		if strings.ContainsAny(ex, "*?[") || strings.Contains(ex, "**") {
			pat := strings.ReplaceAll(ex, "**", "*")
			if ok, err := filepath.Match(pat, path); err == nil && ok {
				return true
			}
			// Also try matching against the base filename (e.g. *.min.js)
			if ok, err := filepath.Match(pat, filepath.Base(path)); err == nil && ok {
				return true
			}
			continue
		}

		// Handle prefix, suffix, or substring matches
		switch {
		case strings.HasSuffix(ex, "/"):
			if strings.HasPrefix(path, ex) {
				return true
			}
		case strings.HasPrefix(ex, "."):
			if strings.HasSuffix(path, ex) {
				return true
			}
		case strings.Contains(path, ex):
			return true
		}
	}
	return false
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for run-history storage.
func GetHistoryDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".churnmill_history.db"
	}
	return filepath.Join(homeDir, ".churnmill_history.db")
}

// TruncatePath truncates a file path to a maximum width with ellipsis prefix.
// Requires maxWidth > 3 to ensure there's space for both the "..." prefix and at least one character of content.
// Without this check, small maxWidth values could cause slice bounds errors in the truncation calculation.
func TruncatePath(path string, maxWidth int) string {
	runes := []rune(path)
	if len(runes) > maxWidth && maxWidth > 3 {
		return "..." + string(runes[len(runes)-maxWidth+3:])
	}
	return path
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
