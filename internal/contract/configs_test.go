package contract

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/churnmill/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		input       *ConfigRawInput
		expectError bool
		setupMock   func(*MockHistoryReader, string) // Pass the expected working directory
		check       func(*testing.T, *Config)
	}{
		{
			name: "valid minimal config",
			input: &ConfigRawInput{
				Workers:   4,
				Precision: 1,
				Output:    "text",
			},
			expectError: false,
			setupMock: func(mock *MockHistoryReader, workDir string) {
				ctx := context.Background()
				mock.On("GetRepoRoot", ctx, workDir).Return("/mock/repo/root", nil)
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, []string{"/mock/repo/root"}, cfg.RepoPaths)
				assert.Equal(t, 4, cfg.Workers)
				assert.Equal(t, schema.Step{Months: 1}, cfg.Step)
				assert.True(t, cfg.Since.Before(cfg.Until))
				assert.True(t, cfg.Threshold.IsZero())
			},
		},
		{
			name: "explicit window and step",
			input: &ConfigRawInput{
				Workers:   2,
				Precision: 2,
				Output:    "json",
				Since:     "2024-01-01",
				Until:     "2024-12-31",
				Step:      "2 weeks",
			},
			expectError: false,
			setupMock: func(mock *MockHistoryReader, workDir string) {
				ctx := context.Background()
				mock.On("GetRepoRoot", ctx, workDir).Return("/mock/repo/root", nil)
			},
			check: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.Since.Equal(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)))
				assert.True(t, cfg.Until.Equal(time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC)))
				assert.Equal(t, schema.Step{Delta: 14 * 24 * time.Hour}, cfg.Step)
			},
		},
		{
			name: "relative since",
			input: &ConfigRawInput{
				Workers:   4,
				Precision: 1,
				Output:    "text",
				Since:     "6 months ago",
			},
			expectError: false,
			setupMock: func(mock *MockHistoryReader, workDir string) {
				ctx := context.Background()
				mock.On("GetRepoRoot", ctx, workDir).Return("/mock/repo/root", nil)
			},
		},
		{
			name: "threshold as month key",
			input: &ConfigRawInput{
				Workers:   4,
				Precision: 1,
				Output:    "text",
				Threshold: "2024-06",
			},
			expectError: false,
			setupMock: func(mock *MockHistoryReader, workDir string) {
				ctx := context.Background()
				mock.On("GetRepoRoot", ctx, workDir).Return("/mock/repo/root", nil)
			},
			check: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.Threshold.Equal(time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)))
			},
		},
		{
			name: "threshold as calendar date",
			input: &ConfigRawInput{
				Workers:   4,
				Precision: 1,
				Output:    "text",
				Threshold: "2024-06-15",
			},
			expectError: false,
			setupMock: func(mock *MockHistoryReader, workDir string) {
				ctx := context.Background()
				mock.On("GetRepoRoot", ctx, workDir).Return("/mock/repo/root", nil)
			},
		},
		{
			name: "invalid threshold",
			input: &ConfigRawInput{
				Workers:   4,
				Precision: 1,
				Output:    "text",
				Threshold: "junk",
			},
			expectError: true,
			setupMock:   nil,
		},
		{
			name: "invalid workers (zero)",
			input: &ConfigRawInput{
				Workers:   0,
				Precision: 1,
				Output:    "text",
			},
			expectError: true,
			setupMock:   nil,
		},
		{
			name: "invalid workers (negative)",
			input: &ConfigRawInput{
				Workers:   -1,
				Precision: 1,
				Output:    "text",
			},
			expectError: true,
			setupMock:   nil,
		},
		{
			name: "invalid precision (zero)",
			input: &ConfigRawInput{
				Workers:   4,
				Precision: 0,
				Output:    "text",
			},
			expectError: true,
			setupMock:   nil,
		},
		{
			name: "invalid precision (too high)",
			input: &ConfigRawInput{
				Workers:   4,
				Precision: 3,
				Output:    "text",
			},
			expectError: true,
			setupMock:   nil,
		},
		{
			name: "invalid output format",
			input: &ConfigRawInput{
				Workers:   4,
				Precision: 1,
				Output:    "invalid_format",
			},
			expectError: true,
			setupMock:   nil,
		},
		{
			name: "invalid history backend",
			input: &ConfigRawInput{
				Workers:        4,
				Precision:      1,
				Output:         "text",
				HistoryBackend: "invalid_backend",
			},
			expectError: true,
			setupMock:   nil,
		},
		{
			name: "mysql backend without connection string",
			input: &ConfigRawInput{
				Workers:        4,
				Precision:      1,
				Output:         "text",
				HistoryBackend: string(schema.MySQLBackend),
			},
			expectError: true,
			setupMock:   nil,
		},
		{
			name: "mysql backend with connection string",
			input: &ConfigRawInput{
				Workers:          4,
				Precision:        1,
				Output:           "text",
				HistoryBackend:   string(schema.MySQLBackend),
				HistoryDBConnect: "user:pass@tcp(localhost:3306)/churnmill",
			},
			expectError: false,
			setupMock: func(mock *MockHistoryReader, workDir string) {
				ctx := context.Background()
				mock.On("GetRepoRoot", ctx, workDir).Return("/mock/repo/root", nil)
			},
		},
		{
			name: "postgresql backend without connection string",
			input: &ConfigRawInput{
				Workers:        4,
				Precision:      1,
				Output:         "text",
				HistoryBackend: string(schema.PostgreSQLBackend),
			},
			expectError: true,
			setupMock:   nil,
		},
		{
			name: "none backend",
			input: &ConfigRawInput{
				Workers:        4,
				Precision:      1,
				Output:         "text",
				HistoryBackend: string(schema.NoneBackend),
			},
			expectError: false,
			setupMock: func(mock *MockHistoryReader, workDir string) {
				ctx := context.Background()
				mock.On("GetRepoRoot", ctx, workDir).Return("/mock/repo/root", nil)
			},
		},
		{
			name: "since after until",
			input: &ConfigRawInput{
				Workers:   4,
				Precision: 1,
				Output:    "text",
				Since:     "2025-01-01",
				Until:     "2024-01-01",
			},
			expectError: true,
			setupMock:   nil,
		},
		{
			name: "invalid step",
			input: &ConfigRawInput{
				Workers:   4,
				Precision: 1,
				Output:    "text",
				Step:      "0 months",
			},
			expectError: true,
			setupMock:   nil,
		},
		{
			name: "invalid emoji value",
			input: &ConfigRawInput{
				Workers:   4,
				Precision: 1,
				Output:    "text",
				Emoji:     "maybe",
			},
			expectError: true,
			setupMock:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockReader := new(MockHistoryReader)

			// Dynamically determine the expected working directory
			workDir, err := filepath.Abs(".")
			require.NoError(t, err)

			if tt.setupMock != nil {
				tt.setupMock(mockReader, workDir)
			}

			// Set defaults for fields every valid invocation carries
			if tt.input.HistoryBackend == "" {
				tt.input.HistoryBackend = string(schema.SQLiteBackend)
			}
			if tt.input.Emoji == "" {
				tt.input.Emoji = "yes"
			}
			if tt.input.Color == "" {
				tt.input.Color = "yes"
			}

			cfg := &Config{}
			ctx := context.Background()
			err = ProcessAndValidate(ctx, cfg, mockReader, tt.input)

			if tt.expectError {
				assert.Error(t, err, "contract.ProcessAndValidate should return an error for %s", tt.name)
			} else {
				assert.NoError(t, err, "contract.ProcessAndValidate should not return an error for %s", tt.name)
				if tt.check != nil {
					tt.check(t, cfg)
				}
			}

			if tt.setupMock != nil {
				mockReader.AssertExpectations(t)
			}
		})
	}
}

func TestProcessAndValidateMultipleRepos(t *testing.T) {
	mockReader := new(MockHistoryReader)
	ctx := context.Background()

	dirA := t.TempDir()
	dirB := t.TempDir()
	mockReader.On("GetRepoRoot", ctx, dirA).Return(dirA, nil)
	mockReader.On("GetRepoRoot", ctx, dirB).Return(dirB, nil)

	input := &ConfigRawInput{
		RepoPathArgs:   []string{dirA, dirB},
		Workers:        2,
		Precision:      1,
		Output:         "text",
		HistoryBackend: string(schema.SQLiteBackend),
		Emoji:          "no",
		Color:          "no",
	}

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(ctx, cfg, mockReader, input))
	assert.Equal(t, []string{dirA, dirB}, cfg.RepoPaths)
	mockReader.AssertExpectations(t)
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	tests := []struct {
		name        string
		backend     schema.DatabaseBackend
		connStr     string
		expectError bool
	}{
		{"sqlite allows empty", schema.SQLiteBackend, "", false},
		{"none allows empty", schema.NoneBackend, "", false},
		{"mysql requires connection string", schema.MySQLBackend, "", true},
		{"mysql missing tcp host", schema.MySQLBackend, "user:pass/churnmill", true},
		{"mysql valid", schema.MySQLBackend, "user:pass@tcp(localhost:3306)/churnmill", false},
		{"postgresql requires connection string", schema.PostgreSQLBackend, "", true},
		{"postgresql missing host", schema.PostgreSQLBackend, "dbname=churnmill", true},
		{"postgresql missing dbname", schema.PostgreSQLBackend, "host=localhost", true},
		{"postgresql valid", schema.PostgreSQLBackend, "host=localhost dbname=churnmill user=postgres", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDatabaseConnectionString(tt.backend, tt.connStr)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigClone(t *testing.T) {
	original := &Config{
		RepoPaths: []string{"/repo/a", "/repo/b"},
		Workers:   4,
		Excludes:  []string{"vendor/", ".min.js"},
		Precision: 2,
		Output:    schema.JSONOut,
	}

	clone := original.Clone()
	require.Equal(t, original, clone)

	// Mutating the original must not leak into the clone
	original.RepoPaths[0] = "/repo/changed"
	original.Excludes[0] = "changed/"
	assert.Equal(t, "/repo/a", clone.RepoPaths[0])
	assert.Equal(t, "vendor/", clone.Excludes[0])
}
