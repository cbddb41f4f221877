// Package main provides a performance benchmarking tool for the Churnmill CLI.
// It measures report execution times across different repository sizes and
// worker counts, running each configuration multiple times, treating the first
// successful run as cold and averaging the rest as warm, generating CSV output
// for performance analysis and documentation.
//
// Prerequisites:
// - churnmill binary installed and available in PATH
// - Test repositories cloned to the specified base directory
// - Git repositories: csv-parser, fd, git, kubernetes
//
// Usage: go run benchmark/main.go [repo-base-dir]
//
//	repo-base-dir: Directory containing test repositories
package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// BenchmarkResult holds the result of one benchmark configuration
// (cold run and average of warm runs).
type BenchmarkResult struct {
	Repository string
	Workers    int
	ColdTime   string
	WarmTime   string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	RepoBase     string
	Timeout      time.Duration
	Runs         int
	Since        string
	Step         string
	WorkerCounts []int
	TestRepos    []string
}

func main() {
	// Parse command line arguments
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [repo-base-dir]\n", os.Args[0])
		os.Exit(1)
	}
	repoBase := os.Args[1]

	config := BenchmarkConfig{
		RepoBase:     repoBase,
		Timeout:      10 * time.Minute,
		Runs:         4,
		Since:        "2 years ago",
		Step:         "1 month",
		WorkerCounts: []int{1, 2, 4, 8},
		TestRepos:    []string{"csv-parser", "fd", "git", "kubernetes"},
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkPrerequisites verifies that the churnmill binary and test repositories exist
func checkPrerequisites(config BenchmarkConfig) error {
	// Check if churnmill is available
	if _, err := exec.LookPath("churnmill"); err != nil {
		return fmt.Errorf("churnmill binary not found in PATH")
	}

	// Check if repositories exist
	for _, repo := range config.TestRepos {
		repoPath := filepath.Join(config.RepoBase, repo)
		if _, err := os.Stat(repoPath); os.IsNotExist(err) {
			return fmt.Errorf("repository %s not found at %s", repo, repoPath)
		}
	}

	return nil
}

// runBenchmarks executes all benchmark configurations across repositories
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d repos, %v timeout, %d runs per configuration\n",
		len(config.TestRepos), config.Timeout, config.Runs)

	for _, repo := range config.TestRepos {
		fmt.Printf("Benchmarking %s\n", repo)

		repoPath := filepath.Join(config.RepoBase, repo)
		for _, workers := range config.WorkerCounts {
			result := runBenchmarkSuite(config, repo, repoPath, workers)
			results = append(results, result)
		}
	}

	return results
}

// runBenchmarkSuite runs one (repository, worker count) configuration.
// Snapshot provisioning dominates the cold run; warm runs benefit from
// the page cache holding the source tree.
func runBenchmarkSuite(config BenchmarkConfig, repo, repoPath string, workers int) BenchmarkResult {
	fmt.Printf("Running report on %s with %d workers (%d runs)\n", repo, workers, config.Runs)

	coldTime, warmTimes := runBenchmark(config, repoPath, workers)

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	warmAvg := "TIMEOUT"
	if len(warmTimes) > 0 {
		var sum float64
		for _, t := range warmTimes {
			sum += t
		}
		warmAvg = fmt.Sprintf("%.3fs", sum/float64(len(warmTimes)))
	}

	fmt.Printf("  Cold time: %s, Warm average: %s\n", coldTimeStr, warmAvg)

	return BenchmarkResult{
		Repository: repo,
		Workers:    workers,
		ColdTime:   coldTimeStr,
		WarmTime:   warmAvg,
	}
}

// runBenchmark executes a report multiple times and returns the cold time and warm times
func runBenchmark(config BenchmarkConfig, repoPath string, workers int) (coldTime float64, warmTimes []float64) {
	args := []string{
		"report",
		"--since", config.Since,
		"--step", config.Step,
		"--workers", strconv.Itoa(workers),
		"--history-backend", "none",
	}

	var times []float64
	for run := 1; run <= config.Runs; run++ {
		start := time.Now()

		cmd := exec.Command("churnmill", args...)
		cmd.Dir = repoPath

		done := make(chan bool)
		var output []byte
		var cmdErr error

		go func() {
			output, cmdErr = cmd.CombinedOutput()
			done <- true
		}()

		select {
		case <-done:
			if cmdErr == nil && isSuccess(output) {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			// Timeout - don't add to times
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// isSuccess checks if command output indicates successful completion
func isSuccess(output []byte) bool {
	outputStr := string(output)
	return strings.Contains(outputStr, "Analysis completed in") &&
		strings.Contains(outputStr, "workers")
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/churnmill_benchmark_%s.csv", timestamp)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	if err := writer.Write([]string{"repo", "workers", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	// Write results
	for _, result := range results {
		record := []string{result.Repository, strconv.Itoa(result.Workers), result.ColdTime, result.WarmTime}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")

	for _, result := range results {
		fmt.Printf("  %-12s workers=%d: Cold: %s, Warm: %s\n",
			result.Repository, result.Workers, result.ColdTime, result.WarmTime)
	}

	fmt.Printf("Benchmark script completed successfully\n")
}
