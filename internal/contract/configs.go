package contract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/huangsam/churnmill/schema"
)

// Default values for configuration.
const (
	DefaultSince     = "1 year ago"
	DefaultStep      = "1 month"
	DefaultPrecision = 1
)

// DefaultWorkers is the default number of concurrent snapshot workers.
// One core is left free for the coordinating process.
var DefaultWorkers = max(1, runtime.GOMAXPROCS(0)-1)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// DateOnlyFormat is the calendar date representation accepted on the command line.
var DateOnlyFormat = time.DateOnly

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// Config holds the runtime configuration for a churn run.
// This struct remains the "final, validated" config.
type Config struct {
	RepoPaths  []string // Absolute roots of the source repositories
	Since      time.Time
	Until      time.Time
	Step       schema.Step
	Threshold  time.Time // Zero means no before/after split
	Workers    int
	TempDir    string // Base directory for repository snapshots
	Excludes   []string
	Precision  int
	Output     schema.OutputMode
	OutputFile string
	ChartFile  string
	Width      int // Terminal width override (0 = auto-detect)

	HistoryBackend   schema.DatabaseBackend
	HistoryDBConnect string // Please use env var as this is plaintext

	UseEmojis bool // Enable emojis in output headers
	UseColors bool // Enable colored labels in table output
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	RepoPathArgs []string

	// --- Fields from rootCmd.PersistentFlags() ---
	Since            string `mapstructure:"since"`
	Until            string `mapstructure:"until"`
	Step             string `mapstructure:"step"`
	Threshold        string `mapstructure:"threshold"`
	Workers          int    `mapstructure:"workers"`
	TempDir          string `mapstructure:"temp-dir"`
	Exclude          string `mapstructure:"exclude"`
	Precision        int    `mapstructure:"precision"`
	Output           string `mapstructure:"output"`
	OutputFile       string `mapstructure:"output-file"`
	ChartFile        string `mapstructure:"chart-file"`
	Width            int    `mapstructure:"width"`
	HistoryBackend   string `mapstructure:"history-backend"`
	HistoryDBConnect string `mapstructure:"history-db-connect"`
	Emoji            string `mapstructure:"emoji"`
	Color            string `mapstructure:"color"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.RepoPaths != nil {
		clone.RepoPaths = make([]string, len(c.RepoPaths))
		copy(clone.RepoPaths, c.RepoPaths)
	}
	if c.Excludes != nil {
		clone.Excludes = make([]string, len(c.Excludes))
		copy(clone.Excludes, c.Excludes)
	}
	return &clone
}

// ProcessAndValidate performs all complex parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(ctx context.Context, cfg *Config, reader HistoryReader, input *ConfigRawInput) error {
	// All validation functions read from 'input' and populate 'cfg'.
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processTimeWindow(cfg, input); err != nil {
		return err
	}
	if err := processStep(cfg, input); err != nil {
		return err
	}
	if err := processThreshold(cfg, input); err != nil {
		return err
	}
	if err := resolveRepoPaths(ctx, cfg, reader, input); err != nil {
		return err
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("history-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("history-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfig validates the run-history backend configuration.
func validateBackendConfig(cfg *Config, input *ConfigRawInput) error {
	cfg.HistoryBackend = schema.DatabaseBackend(strings.ToLower(input.HistoryBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.HistoryBackend]; !ok {
		return fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", input.HistoryBackend)
	}
	cfg.HistoryDBConnect = input.HistoryDBConnect
	return ValidateDatabaseConnectionString(cfg.HistoryBackend, cfg.HistoryDBConnect)
}

// validateSimpleInputs processes and validates all non-path related fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.OutputFile = input.OutputFile
	cfg.ChartFile = input.ChartFile
	cfg.Width = input.Width

	cfg.TempDir = strings.TrimSpace(input.TempDir)
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}

	// Parse emoji flag
	emojis, err := ParseBoolString(input.Emoji)
	if err != nil {
		return fmt.Errorf("invalid --emoji value: %w", err)
	}
	cfg.UseEmojis = emojis

	// Parse color flag
	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. Workers Validation ---
	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	// --- 2. Precision and Output Validation ---
	if input.Precision < 1 || input.Precision > 2 {
		return fmt.Errorf("precision must be 1 or 2 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json", cfg.Output)
	}

	// --- 3. Backend Validation ---
	if err := validateBackendConfig(cfg, input); err != nil {
		return err
	}

	// --- 4. Excludes Processing ---
	defaults := []string{
		"Cargo.lock", "go.sum", "package-lock.json", "yarn.lock", "pnpm-lock.yaml", "composer.lock", "uv.lock",
		".min.js", ".min.css",
		".jpg", ".jpeg", ".png", ".gif", ".svg", ".ico", ".mp4", ".mov", ".webm", ".mp3", ".ogg", ".pdf", ".webp",
		".DS_Store",
		"dist/", "build/", "out/", "target/", "bin/",
	}
	cfg.Excludes = defaults // Set defaults first

	if input.Exclude != "" {
		parts := strings.SplitSeq(input.Exclude, ",")
		for p := range parts {
			trimmedP := strings.TrimSpace(p)
			if trimmedP != "" {
				cfg.Excludes = append(cfg.Excludes, trimmedP)
			}
		}
	}

	return nil
}

// processTimeWindow handles the date parsing and time window validation.
func processTimeWindow(cfg *Config, input *ConfigRawInput) error {
	now := time.Now()
	cfg.Until = now

	since := input.Since
	if since == "" {
		since = DefaultSince
	}
	t, err := ParseTimePoint(since, now)
	if err != nil {
		return fmt.Errorf("invalid since date '%s': %w", since, err)
	}
	cfg.Since = t

	if input.Until != "" {
		t, err := ParseTimePoint(input.Until, now)
		if err != nil {
			return fmt.Errorf("invalid until date '%s': %w", input.Until, err)
		}
		cfg.Until = t
	}

	// --- Final Validation ---
	if cfg.Since.After(cfg.Until) {
		return fmt.Errorf("since time (%s) cannot be after until time (%s)", cfg.Since.Format(DateTimeFormat), cfg.Until.Format(DateTimeFormat))
	}

	return nil
}

// processStep parses the interval step size.
func processStep(cfg *Config, input *ConfigRawInput) error {
	raw := strings.TrimSpace(input.Step)
	if raw == "" {
		raw = DefaultStep
	}
	step, err := ParseStep(raw)
	if err != nil {
		return fmt.Errorf("invalid step '%s': %w", raw, err)
	}
	cfg.Step = step
	return nil
}

// processThreshold parses the optional before/after split point. It accepts a
// month key like '2024-06' in addition to the usual time point formats.
func processThreshold(cfg *Config, input *ConfigRawInput) error {
	raw := strings.TrimSpace(input.Threshold)
	if raw == "" {
		return nil
	}
	if t, err := schema.ParseMonthKey(raw); err == nil {
		cfg.Threshold = t
		return nil
	}
	t, err := ParseTimePoint(raw, time.Now())
	if err != nil {
		return fmt.Errorf("invalid threshold '%s': %w", raw, err)
	}
	cfg.Threshold = t
	return nil
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}

// RevalidateReport re-applies the report argument parsing for embedded
// surfaces like the MCP server, where arguments arrive as raw strings rather
// than bound flags. Empty arguments leave the corresponding config fields
// untouched.
func RevalidateReport(ctx context.Context, cfg *Config, reader HistoryReader, repos, since, until, step, threshold string) error {
	now := time.Now()

	if since != "" {
		t, err := ParseTimePoint(since, now)
		if err != nil {
			return fmt.Errorf("invalid since date '%s': %w", since, err)
		}
		cfg.Since = t
	}
	if until != "" {
		t, err := ParseTimePoint(until, now)
		if err != nil {
			return fmt.Errorf("invalid until date '%s': %w", until, err)
		}
		cfg.Until = t
	}
	if cfg.Since.After(cfg.Until) {
		return fmt.Errorf("since time (%s) cannot be after until time (%s)", cfg.Since.Format(DateTimeFormat), cfg.Until.Format(DateTimeFormat))
	}

	if step != "" {
		s, err := ParseStep(step)
		if err != nil {
			return fmt.Errorf("invalid step '%s': %w", step, err)
		}
		cfg.Step = s
	}

	if threshold != "" {
		if err := processThreshold(cfg, &ConfigRawInput{Threshold: threshold}); err != nil {
			return err
		}
	}

	if repos != "" {
		input := &ConfigRawInput{}
		for part := range strings.SplitSeq(repos, ",") {
			if p := strings.TrimSpace(part); p != "" {
				input.RepoPathArgs = append(input.RepoPathArgs, p)
			}
		}
		if err := resolveRepoPaths(ctx, cfg, reader, input); err != nil {
			return err
		}
	}

	if cfg.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", cfg.Workers)
	}

	return nil
}

// resolveRepoPaths resolves each positional argument to the root of its Git
// repository. Arguments default to the current directory when none are given.
// A path inside a working tree resolves to the enclosing repository root, so
// running from a subdirectory measures the whole repository.
func resolveRepoPaths(ctx context.Context, cfg *Config, reader HistoryReader, input *ConfigRawInput) error {
	args := input.RepoPathArgs
	if len(args) == 0 {
		args = []string{"."}
	}

	cfg.RepoPaths = make([]string, 0, len(args))
	for _, searchPath := range args {
		absSearchPath, err := filepath.Abs(searchPath)
		if err != nil {
			return err
		}
		absSearchPath = filepath.Clean(absSearchPath)

		info, statErr := os.Stat(absSearchPath)
		gitContextPath := absSearchPath
		if statErr == nil && !info.IsDir() {
			gitContextPath = filepath.Dir(absSearchPath)
		}

		gitRoot, err := reader.GetRepoRoot(ctx, gitContextPath)
		if err != nil {
			return fmt.Errorf("resolving repository for %s: %w", searchPath, err)
		}
		cfg.RepoPaths = append(cfg.RepoPaths, gitRoot)
	}

	return nil
}
