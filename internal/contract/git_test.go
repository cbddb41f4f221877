package contract

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// skipIfGitNotAvailable skips the test if git binary is not found in PATH
func skipIfGitNotAvailable(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skipf("git binary not found in PATH: %v", err)
	}
}

// runGit runs a git command in dir, failing the test on any error.
func runGit(t *testing.T, dir string, env []string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
	cmd.Env = append(os.Environ(), env...)
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v failed: %s", args, out)
}

// initTestRepo creates a scratch repository with two commits at fixed dates,
// so window boundaries in tests are deterministic.
func initTestRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	runGit(t, dir, nil, "init", "-q")
	runGit(t, dir, nil, "config", "user.email", "dev@example.com")
	runGit(t, dir, nil, "config", "user.name", "Dev")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0o644))
	runGit(t, dir, nil, "add", ".")
	env := []string{"GIT_AUTHOR_DATE=2024-01-10T10:00:00Z", "GIT_COMMITTER_DATE=2024-01-10T10:00:00Z"}
	runGit(t, dir, env, "commit", "-q", "-m", "first")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n\nfunc main() {}\n"), 0o644))
	runGit(t, dir, nil, "add", ".")
	env = []string{"GIT_AUTHOR_DATE=2024-02-10T10:00:00Z", "GIT_COMMITTER_DATE=2024-02-10T10:00:00Z"}
	runGit(t, dir, env, "commit", "-q", "-m", "second")

	return dir
}

// TestMockHistoryReader_Run ensures the mock correctly records and returns
// expected values when its Run method is called.
func TestMockHistoryReader_Run(t *testing.T) {
	// 1. Setup the Mock
	mockReader := new(MockHistoryReader)

	// Define the expected input arguments for the mock's 'Run' method.
	const expectedRepoPath = "/path/to/repo"
	expectedArgs := []string{"log", "-1", "--oneline"}

	// Define the expected output values.
	expectedOutput := []byte("a1b2c3d commit message")
	expectedError := errors.New("mocked git error")

	// The `Run` method implementation in MockHistoryReader converts the inputs
	// (repoPath string, args ...string) into a single []any array
	// for `m.Called()`. We must match this structure in `.On()`.
	var calledArgs []any
	ctx := context.Background()
	calledArgs = append(calledArgs, ctx, expectedRepoPath)
	for _, arg := range expectedArgs {
		calledArgs = append(calledArgs, arg)
	}

	// 2. Program the Mock Behavior
	mockReader.
		On("Run", calledArgs...).              // Expect a call with these arguments.
		Return(expectedOutput, expectedError). // Program the values to return.
		Once()                                 // Expect the call to happen exactly once.

	// 3. Execute the Code Under Test (i.e., call the mock method)
	actualOutput, actualError := mockReader.Run(ctx, expectedRepoPath, expectedArgs...)

	// 4. Assertions
	assert.Equal(t, expectedOutput, actualOutput, "Run should return the programmed output")
	assert.Equal(t, expectedError, actualError, "Run should return the programmed error")
	mockReader.AssertExpectations(t)
}

// TestNewLocalHistoryReader tests the constructor for LocalHistoryReader.
func TestNewLocalHistoryReader(t *testing.T) {
	reader := NewLocalHistoryReader()
	assert.NotNil(t, reader, "NewLocalHistoryReader should return a non-nil reader")
	assert.IsType(t, &LocalHistoryReader{}, reader, "NewLocalHistoryReader should return a LocalHistoryReader instance")
}

// TestLocalHistoryReader_Run tests the Run method with various scenarios.
func TestLocalHistoryReader_Run(t *testing.T) {
	skipIfGitNotAvailable(t)

	reader := NewLocalHistoryReader()
	ctx := context.Background()
	repoDir := initTestRepo(t)

	tests := []struct {
		name        string
		repoPath    string
		args        []string
		expectError bool
	}{
		{
			name:        "valid status command",
			repoPath:    repoDir,
			args:        []string{"status"},
			expectError: false,
		},
		{
			name:        "invalid repo path",
			repoPath:    "/nonexistent/path",
			args:        []string{"status"},
			expectError: true,
		},
		{
			name:        "invalid git command",
			repoPath:    repoDir,
			args:        []string{"invalid-command"},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reader.Run(ctx, tt.repoPath, tt.args...)
			if tt.expectError {
				assert.Error(t, err, "Run should return an error for %s", tt.name)
			} else {
				assert.NoError(t, err, "Run should not return an error for %s", tt.name)
			}
		})
	}
}

// TestLocalHistoryReader_GetRepoRoot tests the GetRepoRoot method.
func TestLocalHistoryReader_GetRepoRoot(t *testing.T) {
	skipIfGitNotAvailable(t)

	reader := NewLocalHistoryReader()
	ctx := context.Background()
	repoDir := initTestRepo(t)

	// Git resolves symlinks in the path it reports, so normalize expectations.
	wantRoot, err := filepath.EvalSymlinks(repoDir)
	require.NoError(t, err)

	root, err := reader.GetRepoRoot(ctx, repoDir)
	assert.NoError(t, err, "GetRepoRoot should not return an error for repository root")
	assert.Equal(t, wantRoot, root)

	// A subdirectory resolves to the enclosing repository root
	subDir := filepath.Join(repoDir, "pkg")
	require.NoError(t, os.MkdirAll(subDir, 0o755))
	root2, err := reader.GetRepoRoot(ctx, subDir)
	assert.NoError(t, err, "GetRepoRoot should not return an error for subdirectory")
	assert.Equal(t, wantRoot, root2)

	// Test with invalid path
	_, err = reader.GetRepoRoot(ctx, "/nonexistent/path")
	assert.Error(t, err, "GetRepoRoot should return an error for non-git directory")
}

// TestLocalHistoryReader_GetRepoHash tests the GetRepoHash method.
func TestLocalHistoryReader_GetRepoHash(t *testing.T) {
	skipIfGitNotAvailable(t)

	reader := NewLocalHistoryReader()
	ctx := context.Background()
	repoDir := initTestRepo(t)

	hash, err := reader.GetRepoHash(ctx, repoDir)
	assert.NoError(t, err, "GetRepoHash should not return an error")
	assert.Len(t, hash, 40, "GetRepoHash should return a full commit hash")

	_, err = reader.GetRepoHash(ctx, t.TempDir())
	assert.Error(t, err, "GetRepoHash should return an error outside a repository")
}

// TestLocalHistoryReader_GetChurnLog tests the GetChurnLog method against
// commits at known dates.
func TestLocalHistoryReader_GetChurnLog(t *testing.T) {
	skipIfGitNotAvailable(t)

	reader := NewLocalHistoryReader()
	ctx := context.Background()
	repoDir := initTestRepo(t)

	t.Run("full history", func(t *testing.T) {
		out, err := reader.GetChurnLog(ctx, repoDir, time.Time{}, time.Time{})
		require.NoError(t, err)
		assert.Equal(t, 2, strings.Count(string(out), "|Dev|"), "expected both commit headers")
		assert.Contains(t, string(out), "\tmain.go", "expected numstat entries")
	})

	t.Run("window covers first commit only", func(t *testing.T) {
		since := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
		until := time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC)
		out, err := reader.GetChurnLog(ctx, repoDir, since, until)
		require.NoError(t, err)
		assert.Equal(t, 1, strings.Count(string(out), "|Dev|"))
	})

	t.Run("window before any commit", func(t *testing.T) {
		since := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
		until := time.Date(2023, time.December, 31, 0, 0, 0, 0, time.UTC)
		out, err := reader.GetChurnLog(ctx, repoDir, since, until)
		require.NoError(t, err)
		assert.Empty(t, bytes.TrimSpace(out), "expected no output for an empty window")
	})
}
