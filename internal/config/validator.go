package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/hugo-lorenzo-mato/jestbridge/internal/core"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation: %s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects multiple validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

// Validate validates the entire configuration. The returned error wraps the
// collected ValidationErrors in a core validation error.
func (v *Validator) Validate(cfg *Config) error {
	v.validateLog(&cfg.Log)
	v.validateRunner(&cfg.Runner)
	v.validateRoots(&cfg.Roots)
	v.validateStream(&cfg.Stream)
	v.validateReport(&cfg.Report)

	if len(v.errors) > 0 {
		return core.ErrValidation(core.CodeInvalidConfig, "invalid configuration").WithCause(v.errors)
	}
	return nil
}

// Errors returns the collected validation errors.
func (v *Validator) Errors() ValidationErrors {
	return v.errors
}

func (v *Validator) addError(field string, value interface{}, msg string) {
	v.errors = append(v.errors, ValidationError{
		Field:   field,
		Value:   value,
		Message: msg,
	})
}

func (v *Validator) validateLog(cfg *LogConfig) {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[cfg.Level] {
		v.addError("log.level", cfg.Level, "must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"auto": true, "text": true, "json": true,
	}
	if !validFormats[cfg.Format] {
		v.addError("log.format", cfg.Format, "must be one of: auto, text, json")
	}
}

func (v *Validator) validateRunner(cfg *RunnerConfig) {
	if strings.TrimSpace(cfg.Command) == "" {
		v.addError("runner.command", cfg.Command, "command required")
	}

	if len(cfg.ConfigFiles) == 0 {
		v.addError("runner.config_files", cfg.ConfigFiles, "at least one config file name required")
	}
	for _, name := range cfg.ConfigFiles {
		if name == "" || strings.ContainsAny(name, `/\`) {
			v.addError("runner.config_files", name, "must be a bare file name")
		}
	}

	for _, pattern := range cfg.TestFilePatterns {
		if _, err := filepath.Match(pattern, "x"); err != nil {
			v.addError("runner.test_file_patterns", pattern, "invalid glob pattern")
		}
	}
}

func (v *Validator) validateRoots(cfg *RootsConfig) {
	if len(cfg.Markers) == 0 {
		v.addError("roots.markers", cfg.Markers, "at least one marker required")
	}
	for _, marker := range cfg.Markers {
		if _, err := filepath.Match(marker, "x"); err != nil {
			v.addError("roots.markers", marker, "invalid glob pattern")
		}
	}
}

func (v *Validator) validateStream(cfg *StreamConfig) {
	d, err := time.ParseDuration(cfg.Debounce)
	if err != nil {
		v.addError("stream.debounce", cfg.Debounce, "invalid duration format")
		return
	}
	if d < 0 {
		v.addError("stream.debounce", cfg.Debounce, "must not be negative")
	}
}

func (v *Validator) validateReport(cfg *ReportConfig) {
	validFormats := map[string]bool{
		"table": true, "json": true, "yaml": true,
	}
	if !validFormats[cfg.Format] {
		v.addError("report.format", cfg.Format, "must be one of: table, json, yaml")
	}
}
