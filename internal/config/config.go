// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jonathan/jobsheet/internal/similarity"
)

// DefaultPath is the config file read when JOBSHEET_CONFIG is not set.
const DefaultPath = "jobsheet.json"

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults.
type Config struct {
	// Mailbox filter
	Label  string `json:"label,omitempty"`  // Gmail label messages must carry
	Folder string `json:"folder,omitempty"` // Gmail folder to search

	// Tracking sheet
	SheetTitle string `json:"sheet_title,omitempty"` // Title of the spreadsheet
	StateFile  string `json:"state_file,omitempty"`  // Side file with spreadsheet id, title and next range

	// Credentials
	CredentialsFile string `json:"credentials_file,omitempty"` // OAuth client secret
	TokenFile       string `json:"token_file,omitempty"`       // Cached OAuth token
	APIKey          string `json:"api_key,omitempty"`          // Gemini API key
	DatabaseURL     string `json:"database_url,omitempty"`     // PostgreSQL connection URL for session history

	// Reconciliation
	Workers       int     `json:"workers,omitempty"`        // Concurrent messages in flight
	Similarity    string  `json:"similarity,omitempty"`     // "lexical" or "embedding"
	RoleThreshold float64 `json:"role_threshold,omitempty"` // Score a role must exceed to match (0.0-1.0)
	LockTimeout   string  `json:"lock_timeout,omitempty"`   // Max wait for a row lock, e.g. "30s"

	// Behavior
	DryRun  bool `json:"dry_run,omitempty"` // Reconcile into memory and print rows
	Verbose bool `json:"verbose,omitempty"` // Print detailed debug information
}

// Defaults returns the values used for every field the file and environment leave unset.
func Defaults() Config {
	return Config{
		Label:           "read",
		Folder:          "inbox",
		SheetTitle:      "jobsheet",
		StateFile:       "app_sheet.txt",
		CredentialsFile: "credentials.json",
		TokenFile:       "token.json",
		Workers:         2,
		Similarity:      string(similarity.KindLexical),
		RoleThreshold:   similarity.DefaultThreshold,
		LockTimeout:     "30s",
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Load builds the effective configuration: the file named by JOBSHEET_CONFIG (or
// DefaultPath when present), then environment overrides, then defaults.
func Load() (*Config, error) {
	path := os.Getenv("JOBSHEET_CONFIG")
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		cfg = &Config{}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	merged := cfg.MergeWithDefaults(Defaults())
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

// ApplyEnv overrides fields from environment variables.
func (c *Config) ApplyEnv() error {
	envOverride(&c.Label, "JOBSHEET_LABEL")
	envOverride(&c.Folder, "JOBSHEET_FOLDER")
	envOverride(&c.SheetTitle, "JOBSHEET_SHEET_TITLE")
	envOverride(&c.StateFile, "JOBSHEET_STATE_FILE")
	envOverride(&c.CredentialsFile, "JOBSHEET_CREDENTIALS_FILE")
	envOverride(&c.TokenFile, "JOBSHEET_TOKEN_FILE")
	envOverride(&c.APIKey, "GEMINI_API_KEY")
	envOverride(&c.DatabaseURL, "DATABASE_URL")
	envOverride(&c.Similarity, "JOBSHEET_SIMILARITY")
	envOverride(&c.LockTimeout, "JOBSHEET_LOCK_TIMEOUT")

	if err := envOverrideInt(&c.Workers, "JOBSHEET_WORKERS"); err != nil {
		return err
	}
	if err := envOverrideFloat(&c.RoleThreshold, "JOBSHEET_ROLE_THRESHOLD"); err != nil {
		return err
	}
	if err := envOverrideBool(&c.DryRun, "JOBSHEET_DRY_RUN"); err != nil {
		return err
	}
	return envOverrideBool(&c.Verbose, "JOBSHEET_VERBOSE")
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("config error: 'workers' must be at least 1")
	}
	if c.RoleThreshold < 0 || c.RoleThreshold > 1 {
		return fmt.Errorf("config error: 'role_threshold' must be between 0 and 1")
	}

	switch similarity.Kind(c.Similarity) {
	case similarity.KindLexical, similarity.KindEmbedding:
	default:
		return fmt.Errorf("config error: 'similarity' must be %q or %q, got %q",
			similarity.KindLexical, similarity.KindEmbedding, c.Similarity)
	}

	if c.LockTimeout != "" {
		d, err := time.ParseDuration(c.LockTimeout)
		if err != nil {
			return fmt.Errorf("config error: invalid 'lock_timeout': %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("config error: 'lock_timeout' must be positive")
		}
	}

	if c.SheetTitle == "" {
		return fmt.Errorf("config error: 'sheet_title' must not be empty")
	}
	return nil
}

// LockTimeoutDuration returns the parsed lock timeout, or zero when unset or invalid.
func (c *Config) LockTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.LockTimeout)
	if err != nil {
		return 0
	}
	return d
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	fill := func(field *string, def string) {
		if *field == "" {
			*field = def
		}
	}
	fill(&result.Label, defaults.Label)
	fill(&result.Folder, defaults.Folder)
	fill(&result.SheetTitle, defaults.SheetTitle)
	fill(&result.StateFile, defaults.StateFile)
	fill(&result.CredentialsFile, defaults.CredentialsFile)
	fill(&result.TokenFile, defaults.TokenFile)
	fill(&result.APIKey, defaults.APIKey)
	fill(&result.DatabaseURL, defaults.DatabaseURL)
	fill(&result.Similarity, defaults.Similarity)
	fill(&result.LockTimeout, defaults.LockTimeout)

	// Numeric fields: use default if zero
	if result.Workers == 0 {
		result.Workers = defaults.Workers
	}
	if result.RoleThreshold == 0 {
		result.RoleThreshold = defaults.RoleThreshold
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge

	return result
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) error {
	val := os.Getenv(envKey)
	if val == "" {
		return nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fmt.Errorf("config error: invalid %s %q: %w", envKey, val, err)
	}
	*field = parsed
	return nil
}

func envOverrideFloat(field *float64, envKey string) error {
	val := os.Getenv(envKey)
	if val == "" {
		return nil
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fmt.Errorf("config error: invalid %s %q: %w", envKey, val, err)
	}
	*field = parsed
	return nil
}

func envOverrideBool(field *bool, envKey string) error {
	val := os.Getenv(envKey)
	if val == "" {
		return nil
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fmt.Errorf("config error: invalid %s %q: %w", envKey, val, err)
	}
	*field = parsed
	return nil
}
