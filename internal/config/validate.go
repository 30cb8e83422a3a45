package config

import (
	"fmt"
	"regexp"
	"time"
)

// ValidationError represents a single validation issue with a config.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// validModes is the set of recognized run modes.
var validModes = map[string]bool{
	"interactive": true,
	"automated":   true,
}

// Validate checks a Config for structural and semantic errors.
// It returns a slice of all validation errors found (empty if valid).
func Validate(cfg *Config) []ValidationError {
	var errs []ValidationError

	if cfg.Repo == "" {
		errs = append(errs, ValidationError{Field: "repo", Message: "is required"})
	}
	if !validModes[cfg.Mode] {
		errs = append(errs, ValidationError{Field: "mode", Message: fmt.Sprintf("must be interactive or automated, got %q", cfg.Mode)})
	}
	if cfg.Mode == "automated" && cfg.Tracker.URL == "" {
		errs = append(errs, ValidationError{Field: "tracker.url", Message: "is required in automated mode"})
	}

	for _, tf := range []struct {
		field string
		value string
	}{
		{"tools.timeout", cfg.Tools.Timeout},
		{"tools.test_timeout", cfg.Tools.TestTimeout},
	} {
		if tf.value == "" {
			continue
		}
		if _, err := time.ParseDuration(tf.value); err != nil {
			errs = append(errs, ValidationError{Field: tf.field, Message: fmt.Sprintf("invalid duration %q", tf.value)})
		}
	}

	for name, w := range cfg.Warnings {
		prefix := fmt.Sprintf("warnings.%s", name)
		if w.Command == "" {
			errs = append(errs, ValidationError{Field: prefix + ".command", Message: "is required"})
		}
		if w.Pattern == "" {
			errs = append(errs, ValidationError{Field: prefix + ".pattern", Message: "is required"})
		} else if _, err := regexp.Compile(w.Pattern); err != nil {
			errs = append(errs, ValidationError{Field: prefix + ".pattern", Message: fmt.Sprintf("does not compile: %v", err)})
		}
		if w.Timeout != "" {
			if _, err := time.ParseDuration(w.Timeout); err != nil {
				errs = append(errs, ValidationError{Field: prefix + ".timeout", Message: fmt.Sprintf("invalid duration %q", w.Timeout)})
			}
		}
	}

	if cfg.StaticAnalysis.Pattern != "" {
		if _, err := regexp.Compile(cfg.StaticAnalysis.Pattern); err != nil {
			errs = append(errs, ValidationError{Field: "static_analysis.pattern", Message: fmt.Sprintf("does not compile: %v", err)})
		}
	}

	return errs
}
