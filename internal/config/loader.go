package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load reads and parses a patchgate configuration from the given YAML file
// path. After parsing, defaults are merged into unset fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault searches for a config in standard locations and loads the
// first one found. Search order: ./patchgate.yaml, ~/.patchgate/config.yaml.
// When no file exists the built-in defaults are returned; everything
// critical can be supplied by flags.
func LoadDefault() (*Config, error) {
	candidates := []string{"patchgate.yaml"}

	home, err := os.UserHomeDir()
	if err == nil {
		candidates = append(candidates, filepath.Join(home, ".patchgate", "config.yaml"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	cfg := &Config{}
	applyDefaults(cfg)
	return cfg, nil
}

// defaultWarnings are the standard regression-only checks for a Maven
// project: the commands match the baseline invocation exactly so that
// pre/post counts are comparable.
func defaultWarnings() map[string]WarningConfig {
	return map[string]WarningConfig{
		"javadoc": {
			Command: "mvn javadoc:javadoc -DskipTests -q 2>&1",
			Pattern: `(?i)\[warning\]|warning -`,
		},
		"javac": {
			Command: "mvn clean compile -DskipTests 2>&1",
			Pattern: `\[WARNING\]`,
		},
		"release-audit": {
			Command: "mvn apache-rat:check -q 2>&1; cat target/rat.txt 2>/dev/null",
			Pattern: `^\s*!`,
		},
		"checkstyle": {
			Command: "mvn checkstyle:check -q 2>&1",
			Pattern: `\[(WARN|ERROR)\]`,
		},
	}
}

// applyDefaults merges built-in defaults into unset fields.
func applyDefaults(cfg *Config) {
	if cfg.BaseDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.BaseDir = filepath.Join(home, ".patchgate")
		} else {
			cfg.BaseDir = ".patchgate"
		}
	}
	if cfg.WorkDir == "" {
		cfg.WorkDir = os.TempDir()
	}
	if cfg.Mode == "" {
		cfg.Mode = "interactive"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	if cfg.Tools.Git == "" {
		cfg.Tools.Git = "git"
	}
	if cfg.Tools.Build == "" {
		cfg.Tools.Build = "mvn clean install -DskipTests"
	}
	if cfg.Tools.Tests == "" {
		cfg.Tools.Tests = "mvn test"
	}
	if cfg.Tools.Timeout == "" {
		cfg.Tools.Timeout = "30m"
	}
	if cfg.Tools.TestTimeout == "" {
		cfg.Tools.TestTimeout = "2h"
	}

	if len(cfg.Warnings) == 0 {
		cfg.Warnings = defaultWarnings()
	}

	if cfg.StaticAnalysis.Command == "" {
		cfg.StaticAnalysis.Command = "mvn findbugs:findbugs -q 2>&1"
	}
	if cfg.StaticAnalysis.Pattern == "" {
		cfg.StaticAnalysis.Pattern = `(?i)^.*\bbug\b.*$`
	}
}
