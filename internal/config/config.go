// Package config provides YAML-based configuration loading for Waybill.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up in the repository root.
const DefaultPath = "waybill.yaml"

// Config is the top-level Waybill configuration, loaded from waybill.yaml.
type Config struct {
	SpecsDir      string          `yaml:"specs_dir"`
	BranchPattern string          `yaml:"branch_pattern"`
	Columns       ColumnsConfig   `yaml:"columns"`
	WIPLimits     map[string]int  `yaml:"wip_limits"`
	StrictWIP     bool            `yaml:"strict_wip"`
	Tracker       TrackerConfig   `yaml:"tracker"`
	Notify        NotifyConfig    `yaml:"notify"`
	Journal       JournalConfig   `yaml:"journal"`
	Dashboard     DashboardConfig `yaml:"dashboard"`
}

// ColumnsConfig maps the four logical task statuses to board column names.
type ColumnsConfig struct {
	Pending    string `yaml:"pending"`
	InProgress string `yaml:"in_progress"`
	Completed  string `yaml:"completed"`
	Blocked    string `yaml:"blocked"`
}

// TrackerConfig holds settings for mirroring the board to GitHub Projects.
type TrackerConfig struct {
	Mode           string            `yaml:"mode"`       // off, github
	SyncTasks      string            `yaml:"sync_tasks"` // off, create
	Owner          string            `yaml:"owner"`
	Repo           string            `yaml:"repo"`
	ProjectID      string            `yaml:"project_id"`
	ProjectNumber  int               `yaml:"project_number"`
	StatusFieldID  string            `yaml:"status_field_id"`
	ColumnOptions  map[string]string `yaml:"column_options"` // column name → option id
	TaskLabel      string            `yaml:"task_label"`
	TimeoutSeconds int               `yaml:"timeout_seconds"`
}

// NotifyConfig controls best-effort notifications on migration completion
// and sync summaries.
type NotifyConfig struct {
	SlackWebhook string `yaml:"slack_webhook"`
	Command      string `yaml:"command"`
}

// JournalConfig holds the local audit journal location.
type JournalConfig struct {
	Path string `yaml:"path"`
}

// DashboardConfig holds settings for the local board dashboard.
type DashboardConfig struct {
	Port int `yaml:"port"`
}

// Load reads a YAML config file from path and returns a validated Config.
// A missing file is not an error: the defaults stand on their own, matching
// the zero-setup behavior of the rest of the CLI.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Parse(nil)
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.SpecsDir == "" {
		c.SpecsDir = ".waybill"
	}
	if c.BranchPattern == "" {
		c.BranchPattern = "{{id}}-{{name}}"
	}
	if c.Columns.Pending == "" {
		c.Columns.Pending = "Todo"
	}
	if c.Columns.InProgress == "" {
		c.Columns.InProgress = "In Progress"
	}
	if c.Columns.Completed == "" {
		c.Columns.Completed = "Done"
	}
	if c.Columns.Blocked == "" {
		c.Columns.Blocked = "Blocked"
	}
	if c.Tracker.Mode == "" {
		c.Tracker.Mode = "off"
	}
	if c.Tracker.SyncTasks == "" {
		c.Tracker.SyncTasks = "off"
	}
	if c.Tracker.TimeoutSeconds == 0 {
		c.Tracker.TimeoutSeconds = 30
	}
	if c.Journal.Path == "" {
		c.Journal.Path = filepath.Join(c.SpecsDir, "journal.db")
	}
	if c.Dashboard.Port == 0 {
		c.Dashboard.Port = 8787
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	switch c.Tracker.Mode {
	case "off", "github":
	default:
		errs = append(errs, fmt.Sprintf("tracker.mode %q is not one of off, github", c.Tracker.Mode))
	}
	switch c.Tracker.SyncTasks {
	case "off", "create":
	default:
		errs = append(errs, fmt.Sprintf("tracker.sync_tasks %q is not one of off, create", c.Tracker.SyncTasks))
	}
	if c.Tracker.Mode == "github" {
		if c.Tracker.Owner == "" {
			errs = append(errs, "tracker.owner is required when tracker.mode is github")
		}
		if c.Tracker.Repo == "" {
			errs = append(errs, "tracker.repo is required when tracker.mode is github")
		}
	}
	for col, limit := range c.WIPLimits {
		if limit < 1 {
			errs = append(errs, fmt.Sprintf("wip_limits[%q] must be at least 1", col))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ColumnFor returns the configured column name for a task status. Unknown
// statuses fall back to the pending column.
func (c *Config) ColumnFor(status string) string {
	switch status {
	case "in-progress":
		return c.Columns.InProgress
	case "completed":
		return c.Columns.Completed
	case "blocked":
		return c.Columns.Blocked
	default:
		return c.Columns.Pending
	}
}

// StatusFor returns the logical task status for a column name, matched
// case-insensitively. The second return is false for an unknown column.
func (c *Config) StatusFor(column string) (string, bool) {
	switch strings.ToLower(column) {
	case strings.ToLower(c.Columns.Pending):
		return "pending", true
	case strings.ToLower(c.Columns.InProgress):
		return "in-progress", true
	case strings.ToLower(c.Columns.Completed):
		return "completed", true
	case strings.ToLower(c.Columns.Blocked):
		return "blocked", true
	default:
		return "", false
	}
}

// GitHubToken resolves the tracker token from the environment, seeding it
// from a .env file in the working directory when one exists.
func GitHubToken() string {
	_ = godotenv.Load()
	if tok := os.Getenv("WAYBILL_GITHUB_TOKEN"); tok != "" {
		return tok
	}
	return os.Getenv("GITHUB_TOKEN")
}
