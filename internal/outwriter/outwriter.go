// Package outwriter has output and writer logic.
package outwriter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/huangsam/churnmill/internal/contract"
	"golang.org/x/term"
)

// LogChurnHeader prints a concise, 2-line header for each analysis run.
func LogChurnHeader(cfg *contract.Config) {
	repoNames := make([]string, 0, len(cfg.RepoPaths))
	for _, repoPath := range cfg.RepoPaths {
		name := filepath.Base(repoPath)
		if name == "" || name == "." {
			name = "current"
		}
		repoNames = append(repoNames, name)
	}
	joined := strings.Join(repoNames, ", ")

	// Line 1: the run summary (repos, workers, step)
	// Line 2: the actual date range being analyzed
	if cfg.UseEmojis {
		fmt.Printf("🔎 Repos: %s (%d workers, step %s)\n", joined, cfg.Workers, cfg.Step)
		fmt.Printf("📅 Range: %s → %s\n", cfg.Since.Format(contract.DateTimeFormat), cfg.Until.Format(contract.DateTimeFormat))
	} else {
		fmt.Printf("Repos: %s (%d workers, step %s)\n", joined, cfg.Workers, cfg.Step)
		fmt.Printf("Range: %s → %s\n", cfg.Since.Format(contract.DateTimeFormat), cfg.Until.Format(contract.DateTimeFormat))
	}
}

// getMaxTablePathWidth calculates the maximum width for repository paths in
// the failure table based on terminal width.
func getMaxTablePathWidth(cfg *contract.Config) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		termWidth = cfg.Width
	}

	if termWidth == 0 { // Not set by override
		// Get terminal width
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			// Fallback to conservative default if terminal size can't be detected
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Reserve space for the worker, interval and reason columns with
	// table borders, separators, and padding
	baseWidth := 75

	// Calculate available space for path
	available := termWidth - baseWidth
	if available < 15 {
		// Minimum reasonable path width
		return 15
	}
	if available > 70 {
		// Maximum path width to prevent overly long paths
		return 70
	}
	return available
}
