package contract

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// LocalHistoryReader implements the HistoryReader interface by executing the
// local 'git' binary installed on the machine.
type LocalHistoryReader struct{}

var _ HistoryReader = &LocalHistoryReader{} // Compile-time check

// NewLocalHistoryReader creates a new instance of the local history reader.
func NewLocalHistoryReader() *LocalHistoryReader {
	return &LocalHistoryReader{}
}

// Run executes a git command and returns its stdout output.
func (r *LocalHistoryReader) Run(_ context.Context, repoPath string, args ...string) ([]byte, error) {
	fullArgs := append([]string{"-C", repoPath}, args...)
	cmd := exec.Command("git", fullArgs...)
	out, err := cmd.Output()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		stderr := strings.TrimSpace(string(exitErr.Stderr))
		return nil, fmt.Errorf("git command failed in %q: %s. If this is not a Git repository, verify the path or run 'git init'", repoPath, stderr)
	} else if err != nil {
		return nil, fmt.Errorf("git command failed: %w. Ensure Git is installed and available on your PATH", err)
	}
	return out, nil
}

// GetChurnLog implements the HistoryReader interface.
func (r *LocalHistoryReader) GetChurnLog(ctx context.Context, repoPath string, since, until time.Time) ([]byte, error) {
	args := []string{
		"log",
		"--numstat",
		"--pretty=format:'--%H|%an|%ad'",
		"--date=iso-strict",
	}
	if !since.IsZero() {
		args = append(args, fmt.Sprintf("--since=%s", since.Format(DateTimeFormat)))
	}
	if !until.IsZero() {
		args = append(args, fmt.Sprintf("--until=%s", until.Format(DateTimeFormat)))
	}
	return r.Run(ctx, repoPath, args...)
}

// GetRepoHash implements the HistoryReader interface.
func (r *LocalHistoryReader) GetRepoHash(ctx context.Context, repoPath string) (string, error) {
	out, err := r.Run(ctx, repoPath, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// GetRepoRoot implements the HistoryReader interface.
func (r *LocalHistoryReader) GetRepoRoot(ctx context.Context, contextPath string) (string, error) {
	out, err := r.Run(ctx, contextPath, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
