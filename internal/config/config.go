package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/tally/internal/dataset"
	"github.com/cleared-dev/tally/internal/reconcile"
)

// FileName is the project configuration file written by tally init.
const FileName = "tally.yaml"

// Config represents the top-level tally.yaml configuration.
type Config struct {
	Project   ProjectConfig   `yaml:"project"`
	Columns   ColumnsConfig   `yaml:"columns"`
	Normalize NormalizeConfig `yaml:"normalize"`
	Compare   CompareConfig   `yaml:"compare"`
	Log       LogConfig       `yaml:"log"`
	RunLog    RunLogConfig    `yaml:"run_log"`
}

// ProjectConfig identifies the reconciliation project.
type ProjectConfig struct {
	Name string `yaml:"name"`
}

// ColumnsConfig names the columns reconciliation depends on. Required
// names are checked case-insensitively before normalization; join, debit,
// and credit are the normalized names.
type ColumnsConfig struct {
	Required []string `yaml:"required"`
	Join     string   `yaml:"join"`
	Debit    string   `yaml:"debit"`
	Credit   string   `yaml:"credit"`
}

// NormalizeConfig controls column-name and text canonicalization.
type NormalizeConfig struct {
	IgnoreCase      bool    `yaml:"ignore_case"`
	StripWhitespace bool    `yaml:"strip_whitespace"`
	DateFormat      string  `yaml:"date_format,omitempty"` // strftime (%Y-%m-%d) or Go layout
	FillNA          *string `yaml:"fill_na,omitempty"`
}

// CompareConfig controls which fields are compared and how strictly.
type CompareConfig struct {
	IgnoreColumns     []string `yaml:"ignore_columns,omitempty"`
	StrictDoubleEntry bool     `yaml:"strict_double_entry"`
}

// LogConfig controls log output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// RunLogConfig controls the append-only run audit log.
type RunLogConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// Load reads a tally.yaml file from disk. Settings the file omits keep
// their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default("")
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default(projectName string) *Config {
	return &Config{
		Project: ProjectConfig{Name: projectName},
		Columns: ColumnsConfig{
			Required: append([]string(nil), dataset.DefaultRequiredColumns...),
			Join:     reconcile.DefaultJoinColumn,
			Debit:    reconcile.DefaultDebitColumn,
			Credit:   reconcile.DefaultCreditColumn,
		},
		Normalize: NormalizeConfig{
			IgnoreCase:      true,
			StripWhitespace: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
		RunLog: RunLogConfig{
			Enabled: true,
			Dir:     "logs",
		},
	}
}

// ParseIgnoreColumns splits a comma-separated column list, trimming each
// entry and dropping empty ones.
func ParseIgnoreColumns(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
