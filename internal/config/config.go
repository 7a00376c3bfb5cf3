// Package config loads jestbridge settings from defaults, YAML files,
// JESTBRIDGE_* environment variables and command-line flags.
package config

import "time"

// Config holds all application configuration.
type Config struct {
	Log    LogConfig    `mapstructure:"log"`
	Runner RunnerConfig `mapstructure:"runner"`
	Roots  RootsConfig  `mapstructure:"roots"`
	Stream StreamConfig `mapstructure:"stream"`
	Report ReportConfig `mapstructure:"report"`
}

// LogConfig configures logging behavior.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// RunnerConfig describes how the Jest command line is assembled.
type RunnerConfig struct {
	// Command is used when no node_modules/.bin/jest is found above the file.
	Command          string   `mapstructure:"command"`
	ConfigFiles      []string `mapstructure:"config_files"`
	ExtraArgs        []string `mapstructure:"extra_args"`
	ForceExit        bool     `mapstructure:"force_exit"`
	ResultsFile      string   `mapstructure:"results_file"`
	TestFilePatterns []string `mapstructure:"test_file_patterns"`
}

// RootsConfig lists the marker globs that identify a project root, nearest
// match first.
type RootsConfig struct {
	Markers []string `mapstructure:"markers"`
}

// StreamConfig configures result file tailing.
type StreamConfig struct {
	Debounce string `mapstructure:"debounce"`
}

// DebounceDuration parses Debounce, treating an empty or invalid value as zero.
// The validator rejects invalid values before this is reached.
func (s StreamConfig) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(s.Debounce)
	if err != nil {
		return 0
	}
	return d
}

// ReportConfig configures result rendering.
type ReportConfig struct {
	Format        string `mapstructure:"format"`
	Output        string `mapstructure:"output"`
	SuiteFailures bool   `mapstructure:"suite_failures"`
}
