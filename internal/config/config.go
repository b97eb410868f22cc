// Package config holds all storyforge configuration.
// Config lives at .storyforge/config.yaml in the target workspace and every
// network-facing setting can be overridden by environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all storyforge configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Component discovery configuration
	Catalog CatalogConfig `yaml:"catalog"`

	// Story generation (LLM) configuration
	Generate GenerateConfig `yaml:"generate"`

	// Static validation configuration
	Validate ValidateConfig `yaml:"validate"`

	// Preview server verification configuration
	Preview PreviewConfig `yaml:"preview"`

	// Story bookkeeping
	Stories StoriesConfig `yaml:"stories"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// CatalogConfig configures the component catalog builder.
type CatalogConfig struct {
	// Installed packages to introspect (e.g. "@acme/design-system")
	Packages []string `yaml:"packages"`

	// Local directories to scan for component sources
	ScanDirs []ScanDir `yaml:"scan_dirs"`

	// Declarative custom-elements manifests
	Manifests []string `yaml:"manifests"`

	// User-supplied component overrides (highest priority)
	Overrides []OverrideComponent `yaml:"overrides"`

	// Canonical import specifier for the primary component source
	PrimaryImportPath string `yaml:"primary_import_path"`
}

// ScanDir names a directory to scan with optional file-pattern overrides.
type ScanDir struct {
	Path     string   `yaml:"path"`
	Patterns []string `yaml:"patterns,omitempty"` // defaults to framework pattern set
}

// OverrideComponent is an explicit user-declared component record.
type OverrideComponent struct {
	Name        string   `yaml:"name"`
	Category    string   `yaml:"category,omitempty"`
	Props       []string `yaml:"props,omitempty"`
	Description string   `yaml:"description,omitempty"`
	ImportPath  string   `yaml:"import_path,omitempty"`
}

// GenerateConfig configures the LLM story generator.
type GenerateConfig struct {
	Provider    string `yaml:"provider"` // gemini
	APIKey      string `yaml:"api_key"`
	Model       string `yaml:"model"`
	Timeout     string `yaml:"timeout"`
	MaxAttempts int    `yaml:"max_attempts"` // regeneration attempts on validation failure
}

// ValidateConfig configures the static validator/repairer.
type ValidateConfig struct {
	Dialect        string `yaml:"dialect"` // react, vue, svelte, lit
	StrictImports  bool   `yaml:"strict_imports"`
	MaxRepairPasses int   `yaml:"max_repair_passes"`
}

// PreviewConfig configures runtime verification against the preview server.
type PreviewConfig struct {
	Enabled          bool   `yaml:"enabled"`
	BaseURL          string `yaml:"base_url"`
	RequestTimeout   string `yaml:"request_timeout"`
	RetryCount       int    `yaml:"retry_count"`
	RetryDelay       string `yaml:"retry_delay"`
	PropagationDelay string `yaml:"propagation_delay"`
	TitlePrefix      string `yaml:"title_prefix"`
	DeepCheck        bool   `yaml:"deep_check"` // drive a headless browser against the frame
}

// StoriesConfig configures on-disk story bookkeeping.
type StoriesConfig struct {
	// Directory stories are written into (the watched source tree)
	OutputDir string `yaml:"output_dir"`

	// Directory holding one-file-per-concept JSON mappings
	MappingDir string `yaml:"mapping_dir"`
}

// LoggingConfig configures debug logging.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Categories map[string]bool `yaml:"categories,omitempty"`
	Level      string          `yaml:"level"`
	JSONFormat bool            `yaml:"json_format"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "storyforge",
		Version: "1.0.0",
		Catalog: CatalogConfig{
			ScanDirs:          []ScanDir{{Path: "src/components"}},
			PrimaryImportPath: "@/components",
		},
		Generate: GenerateConfig{
			Provider:    "gemini",
			Model:       "gemini-2.0-flash",
			Timeout:     "120s",
			MaxAttempts: 3,
		},
		Validate: ValidateConfig{
			Dialect:         "react",
			StrictImports:   true,
			MaxRepairPasses: 3,
		},
		Preview: PreviewConfig{
			Enabled:          true,
			BaseURL:          "http://localhost:6006",
			RequestTimeout:   "10s",
			RetryCount:       10,
			RetryDelay:       "2s",
			PropagationDelay: "3s",
			TitlePrefix:      "Generated/",
		},
		Stories: StoriesConfig{
			OutputDir:  "src/stories/generated",
			MappingDir: ".storyforge/stories",
		},
		Logging: LoggingConfig{
			DebugMode: false,
			Level:     "info",
		},
	}
}

// DefaultPath returns the default config path for a workspace.
func DefaultPath(workspace string) string {
	return filepath.Join(workspace, ".storyforge", "config.yaml")
}

// Load reads configuration from the given path, applying env overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// LoadOrDefault loads the workspace config, falling back to defaults (with
// env overrides) when no config file exists.
func LoadOrDefault(workspace string) *Config {
	cfg, err := Load(DefaultPath(workspace))
	if err != nil {
		cfg = DefaultConfig()
		cfg.applyEnvOverrides()
	}
	return cfg
}

// Save writes configuration to the given path.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.Generate.APIKey = v
	}
	if v := os.Getenv("STORYFORGE_API_KEY"); v != "" {
		c.Generate.APIKey = v
	}
	if v := os.Getenv("STORYFORGE_MODEL"); v != "" {
		c.Generate.Model = v
	}
	if v := os.Getenv("STORYFORGE_DIALECT"); v != "" {
		c.Validate.Dialect = v
	}
	if v := os.Getenv("STORYFORGE_PREVIEW_URL"); v != "" {
		c.Preview.BaseURL = v
	}
	if v := os.Getenv("STORYFORGE_PREVIEW_DISABLED"); v == "1" || v == "true" {
		c.Preview.Enabled = false
	}
	if v := os.Getenv("STORYFORGE_IMPORT_PATH"); v != "" {
		c.Catalog.PrimaryImportPath = v
	}
}

// Check verifies the configuration for errors.
func (c *Config) Check() error {
	switch c.Validate.Dialect {
	case "react", "vue", "svelte", "lit":
	default:
		return fmt.Errorf("unknown dialect: %q (expected react, vue, svelte, or lit)", c.Validate.Dialect)
	}

	if c.Generate.MaxAttempts <= 0 {
		return fmt.Errorf("generate.max_attempts must be positive, got %d", c.Generate.MaxAttempts)
	}
	if c.Validate.MaxRepairPasses <= 0 {
		return fmt.Errorf("validate.max_repair_passes must be positive, got %d", c.Validate.MaxRepairPasses)
	}
	if c.Preview.Enabled {
		if c.Preview.RetryCount <= 0 {
			return fmt.Errorf("preview.retry_count must be positive, got %d", c.Preview.RetryCount)
		}
		if _, err := c.PreviewRequestTimeout(); err != nil {
			return fmt.Errorf("preview.request_timeout: %w", err)
		}
		if _, err := c.PreviewRetryDelay(); err != nil {
			return fmt.Errorf("preview.retry_delay: %w", err)
		}
	}
	return nil
}

// GenerateTimeout parses the generation timeout duration.
func (c *Config) GenerateTimeout() (time.Duration, error) {
	return parseDuration(c.Generate.Timeout, 120*time.Second)
}

// PreviewRequestTimeout parses the per-request preview timeout.
func (c *Config) PreviewRequestTimeout() (time.Duration, error) {
	return parseDuration(c.Preview.RequestTimeout, 10*time.Second)
}

// PreviewRetryDelay parses the inter-retry delay.
func (c *Config) PreviewRetryDelay() (time.Duration, error) {
	return parseDuration(c.Preview.RetryDelay, 2*time.Second)
}

// PreviewPropagationDelay parses the initial propagation delay.
func (c *Config) PreviewPropagationDelay() (time.Duration, error) {
	return parseDuration(c.Preview.PropagationDelay, 3*time.Second)
}

func parseDuration(s string, fallback time.Duration) (time.Duration, error) {
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return d, nil
}
