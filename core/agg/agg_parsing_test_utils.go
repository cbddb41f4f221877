package agg

import (
	"fmt"
	"strings"
	"time"
)

// gitLogScenario represents a single commit scenario for test data generation.
type gitLogScenario struct {
	commitHash string
	author     string
	date       time.Time
	files      []fileChange
}

// fileChange represents a single file change in a commit.
type fileChange struct {
	path      string
	additions int
	deletions int
}

// generateTestGitLog creates a programmatic git log fixture for testing.
// Header lines carry the literal quotes the log format emits.
func generateTestGitLog(scenarios []gitLogScenario) []byte {
	var lines []string
	for _, scenario := range scenarios {
		lines = append(lines, fmt.Sprintf("'--%s|%s|%s'", scenario.commitHash, scenario.author, scenario.date.Format(time.RFC3339)))
		for _, file := range scenario.files {
			lines = append(lines, fmt.Sprintf("%d\t%d\t%s", file.additions, file.deletions, file.path))
		}
		lines = append(lines, "") // Empty line between commits
	}
	return []byte(strings.Join(lines, "\n"))
}

// generateBinaryStatsLine renders the numstat form emitted for binary files.
func generateBinaryStatsLine(path string) string {
	return fmt.Sprintf("-\t-\t%s", path)
}

// generateChurnTestData creates a log with three commits in one month whose
// line totals are easy to verify by hand.
func generateChurnTestData() []byte {
	baseTime := time.Date(2020, 1, 1, 10, 0, 0, 0, time.UTC)

	scenarios := []gitLogScenario{
		{
			commitHash: "abc123def456",
			author:     "Alice Developer",
			date:       baseTime,
			files: []fileChange{
				{"core/engine.go", 6, 4},
			},
		},
		{
			commitHash: "def456ghi789",
			author:     "Bob Tester",
			date:       baseTime.Add(time.Hour),
			files: []fileChange{
				{"core/engine.go", 2, 1},
				{"core/util.go", 1, 1},
			},
		},
		{
			commitHash: "ghi789jkl012",
			author:     "Alice Developer",
			date:       baseTime.Add(2 * time.Hour),
			files: []fileChange{
				{"core/util.go", 3, 0},
			},
		},
	}

	return generateTestGitLog(scenarios)
}

// generateExcludeTestData creates a log where part of the churn lands on
// paths that default or custom exclude patterns should filter out.
func generateExcludeTestData() []byte {
	baseTime := time.Date(2020, 3, 1, 10, 0, 0, 0, time.UTC)

	scenarios := []gitLogScenario{
		{
			commitHash: "lockfile123ab",
			author:     "Robot Updater",
			date:       baseTime,
			files: []fileChange{
				{"package-lock.json", 500, 480},
				{"src/app.js", 10, 2},
			},
		},
		{
			commitHash: "vendored456cd",
			author:     "Alice Developer",
			date:       baseTime.Add(time.Hour),
			files: []fileChange{
				{"vendor/lib/dep.go", 100, 0},
				{"src/app.js", 5, 5},
			},
		},
	}

	return generateTestGitLog(scenarios)
}

// generateRenameTestData creates a log exercising both rename spellings.
func generateRenameTestData() []byte {
	baseTime := time.Date(2020, 6, 1, 10, 0, 0, 0, time.UTC)

	scenarios := []gitLogScenario{
		{
			commitHash: "rename123abc",
			author:     "Charlie Refactor",
			date:       baseTime,
			files: []fileChange{
				{"src/utils/helper.go => src/helpers/utility.go", 8, 1},
			},
		},
		{
			commitHash: "rename456def",
			author:     "Charlie Refactor",
			date:       baseTime.Add(time.Hour),
			files: []fileChange{
				{"src/{old => new}/mod.go", 4, 2},
			},
		},
	}

	return generateTestGitLog(scenarios)
}
