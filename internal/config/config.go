// config.go implements loading, merging, and validation of the portclaim
// configuration. The configuration describes one reclaim-and-launch target:
// which port to free, which command-line patterns identify stale server
// processes, and which command to exec once the port is reclaimed.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/mmr-tortoise/portclaim/internal/model"
)

// Default values reproduce the original single-purpose script: free port
// 5000 and start the Flask development server, waiting 2 seconds after the
// pattern-based kill pass and 1 second after killing the port owner.
const (
	// DefaultPort is the port reclaimed when no port is configured.
	DefaultPort = 5000

	// DefaultServerName is the display name used in the starting notice
	// ("Starting <name> server on port <port>...").
	DefaultServerName = "Flask"

	// DefaultPatternGrace is the wait after the pattern-based kill pass.
	DefaultPatternGrace = 2 * time.Second

	// DefaultOwnerGrace is the wait after killing the port owner.
	DefaultOwnerGrace = 1 * time.Second
)

// DefaultPatterns are the command-line substrings that identify stale
// server launcher processes when no patterns are configured.
func DefaultPatterns() []string {
	return []string{"python app.py", "flask run"}
}

// DefaultCommand is the launch command used when none is configured.
func DefaultCommand() []string {
	return []string{"python", "app.py"}
}

// searchNames lists the configuration file names probed in the working
// directory, in priority order, when --config is not given.
var searchNames = []string{
	"portclaim.json",
	"portclaim.yaml",
	"portclaim.yml",
	".portclaim.json",
	".portclaim.yaml",
}

// rawConfig mirrors the on-disk configuration file structure. Durations
// are strings ("2s", "500ms") parsed with time.ParseDuration, which both
// the JSON and YAML decoders handle uniformly.
type rawConfig struct {
	// Port is the TCP port to reclaim before launching.
	Port int `json:"port" yaml:"port"`

	// Name is the server display name for the starting notice.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Patterns are command-line substrings identifying processes to kill
	// in the pattern pass. An absent field means "use defaults"; an
	// explicitly empty array disables the pattern pass entirely.
	Patterns *[]string `json:"patterns,omitempty" yaml:"patterns,omitempty"`

	// Command is the launch command argv.
	Command []string `json:"command,omitempty" yaml:"command,omitempty"`

	// PatternGrace is the wait after the pattern kill pass (e.g. "2s").
	PatternGrace string `json:"patternGrace,omitempty" yaml:"patternGrace,omitempty"`

	// OwnerGrace is the wait after killing the port owner (e.g. "1s").
	OwnerGrace string `json:"ownerGrace,omitempty" yaml:"ownerGrace,omitempty"`

	// Docker controls whether containers publishing the target port are
	// stopped. Nil means enabled (the default).
	Docker *bool `json:"docker,omitempty" yaml:"docker,omitempty"`
}

// Config is the validated, fully-resolved runtime configuration.
type Config struct {
	// Port is the TCP port to reclaim.
	Port int

	// Name is the server display name for the starting notice.
	Name string

	// Patterns are command-line substrings identifying stale processes.
	// Empty means the pattern pass is skipped.
	Patterns []string

	// Command is the launch command argv (executable plus arguments).
	Command []string

	// PatternGrace bounds the wait after the pattern kill pass.
	PatternGrace time.Duration

	// OwnerGrace bounds the wait after killing the port owner.
	OwnerGrace time.Duration

	// Docker controls whether containers publishing the port are stopped.
	Docker bool

	// Source is the path of the loaded config file, or empty when
	// built-in defaults were used.
	Source string
}

// Default returns the built-in configuration that reproduces the original
// script: port 5000, Flask launcher patterns, "python app.py" command.
func Default() *Config {
	return &Config{
		Port:         DefaultPort,
		Name:         DefaultServerName,
		Patterns:     DefaultPatterns(),
		Command:      DefaultCommand(),
		PatternGrace: DefaultPatternGrace,
		OwnerGrace:   DefaultOwnerGrace,
		Docker:       true,
	}
}

// Load resolves the configuration for a run.
//
// Resolution order:
//  1. explicitPath, when non-empty — a missing or unparseable file is an
//     error, since the user asked for it by name.
//  2. The first of searchNames found in dir.
//  3. Built-in defaults.
//
// Returns a model.CLIError with ExitConfigError on any load or
// validation failure.
func Load(dir, explicitPath string) (*Config, error) {
	if explicitPath != "" {
		return loadFile(explicitPath)
	}

	for _, name := range searchNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return loadFile(path)
		}
	}

	return Default(), nil
}

// loadFile reads and parses a single configuration file, dispatching on
// the file extension: .json is treated as JSONC, .yaml/.yml as YAML.
func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, model.WrapCLIError(
				model.ExitConfigError,
				fmt.Sprintf("config file not found: %s", path),
				err,
			)
		}
		return nil, model.WrapCLIError(
			model.ExitConfigError,
			fmt.Sprintf("failed to read config file %s", path),
			err,
		)
	}

	var raw rawConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		// Strip JSONC comments (// and /* */) and trailing commas before
		// parsing. Hand-maintained config files frequently contain both.
		if err := json.Unmarshal(jsonc.ToJSON(data), &raw); err != nil {
			return nil, model.WrapCLIError(
				model.ExitConfigError,
				fmt.Sprintf("failed to parse %s", path),
				err,
			)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, model.WrapCLIError(
				model.ExitConfigError,
				fmt.Sprintf("failed to parse %s", path),
				err,
			)
		}
	default:
		return nil, model.NewCLIError(
			model.ExitConfigError,
			fmt.Sprintf("unsupported config file extension %q (expected .json, .yaml, or .yml)", filepath.Ext(path)),
		)
	}

	cfg, err := resolve(&raw)
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitConfigError,
			fmt.Sprintf("invalid config file %s", path),
			err,
		)
	}
	cfg.Source = path
	return cfg, nil
}

// resolve converts a rawConfig into a validated Config, filling absent
// fields with defaults. Distinguishing "absent" from "explicitly empty"
// matters for Patterns: an absent field gets the Flask defaults, while an
// explicit empty array disables the pattern pass.
func resolve(raw *rawConfig) (*Config, error) {
	cfg := Default()

	if raw.Port != 0 {
		cfg.Port = raw.Port
	}
	if raw.Name != "" {
		cfg.Name = raw.Name
	}
	if raw.Patterns != nil {
		cfg.Patterns = *raw.Patterns
	}
	if len(raw.Command) > 0 {
		cfg.Command = raw.Command
	}
	if raw.Docker != nil {
		cfg.Docker = *raw.Docker
	}

	if raw.PatternGrace != "" {
		d, err := time.ParseDuration(raw.PatternGrace)
		if err != nil {
			return nil, fmt.Errorf("patternGrace: %w", err)
		}
		cfg.PatternGrace = d
	}
	if raw.OwnerGrace != "" {
		d, err := time.ParseDuration(raw.OwnerGrace)
		if err != nil {
			return nil, fmt.Errorf("ownerGrace: %w", err)
		}
		cfg.OwnerGrace = d
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration invariants: a valid port, non-blank
// patterns, a usable launch command, and non-negative grace periods.
func (c *Config) Validate() error {
	if err := model.ValidatePort(c.Port); err != nil {
		return err
	}
	if err := model.ValidatePatterns(c.Patterns); err != nil {
		return err
	}
	if err := model.ValidateCommand(c.Command); err != nil {
		return err
	}
	if c.PatternGrace < 0 {
		return fmt.Errorf("patternGrace must not be negative (got %s)", c.PatternGrace)
	}
	if c.OwnerGrace < 0 {
		return fmt.Errorf("ownerGrace must not be negative (got %s)", c.OwnerGrace)
	}
	return nil
}

// StartingNotice returns the human-readable line printed immediately
// before the launch command replaces the process image.
// Format: "Starting Flask server on port 5000..."
func (c *Config) StartingNotice() string {
	return fmt.Sprintf("Starting %s server on port %d...", c.Name, c.Port)
}
