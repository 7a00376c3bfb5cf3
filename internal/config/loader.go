package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// DefaultEnvPrefix prefixes environment overrides, e.g. JESTBRIDGE_LOG_LEVEL.
const DefaultEnvPrefix = "JESTBRIDGE"

// Loader handles configuration loading from multiple sources.
type Loader struct {
	v          *viper.Viper
	configFile string
	envPrefix  string
	searchDirs []string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		v:         viper.New(),
		envPrefix: DefaultEnvPrefix,
	}
}

// NewLoaderWithViper creates a loader using an existing viper instance.
// This allows integration with CLI flag bindings.
func NewLoaderWithViper(v *viper.Viper) *Loader {
	return &Loader{
		v:         v,
		envPrefix: DefaultEnvPrefix,
	}
}

// WithConfigFile sets an explicit config file path.
func (l *Loader) WithConfigFile(path string) *Loader {
	l.configFile = path
	return l
}

// WithEnvPrefix sets the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithSearchDir adds a directory searched for .jestbridge.yaml ahead of the
// working directory, typically the resolved project root.
func (l *Loader) WithSearchDir(dir string) *Loader {
	l.searchDirs = append(l.searchDirs, dir)
	return l
}

// Viper returns the underlying viper instance for flag binding.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// Load loads configuration from all sources.
// Precedence (highest to lowest):
// 1. CLI flags (set via viper.BindPFlag)
// 2. Environment variables (JESTBRIDGE_*)
// 3. Project config (.jestbridge.yaml in a search dir or the working directory)
// 4. User config (~/.config/jestbridge/.jestbridge.yaml)
// 5. Defaults
func (l *Loader) Load() (*Config, error) {
	l.setDefaults()

	l.v.SetEnvPrefix(l.envPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
	} else {
		l.v.SetConfigName(".jestbridge")
		l.v.SetConfigType("yaml")

		for _, dir := range l.searchDirs {
			l.v.AddConfigPath(dir)
		}
		l.v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			l.v.AddConfigPath(filepath.Join(home, ".config", "jestbridge"))
		}
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values.
func (l *Loader) setDefaults() {
	l.v.SetDefault("log.level", "info")
	l.v.SetDefault("log.format", "auto")

	l.v.SetDefault("runner.command", "jest")
	l.v.SetDefault("runner.config_files", []string{
		"jest.config.ts",
		"jest.config.js",
		"jest.config.mjs",
		"jest.config.cjs",
		"jest.config.json",
	})
	l.v.SetDefault("runner.extra_args", []string{})
	l.v.SetDefault("runner.force_exit", true)
	l.v.SetDefault("runner.results_file", "")
	l.v.SetDefault("runner.test_file_patterns", []string{
		"*.test.js", "*.test.jsx", "*.test.ts", "*.test.tsx",
		"*.spec.js", "*.spec.jsx", "*.spec.ts", "*.spec.tsx",
	})

	l.v.SetDefault("roots.markers", []string{"package.json"})

	l.v.SetDefault("stream.debounce", "0s")

	l.v.SetDefault("report.format", "table")
	l.v.SetDefault("report.output", "")
	l.v.SetDefault("report.suite_failures", true)
}

// ConfigFile returns the config file path if one was used.
func (l *Loader) ConfigFile() string {
	return l.v.ConfigFileUsed()
}

// Get returns a configuration value by key.
func (l *Loader) Get(key string) interface{} {
	return l.v.Get(key)
}

// Set sets a configuration value.
func (l *Loader) Set(key string, value interface{}) {
	l.v.Set(key, value)
}
