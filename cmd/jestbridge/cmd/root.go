package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hugo-lorenzo-mato/jestbridge/internal/config"
	"github.com/hugo-lorenzo-mato/jestbridge/internal/logging"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string
	noColor   bool
	quiet     bool

	// Version info - set via SetVersion()
	appVersion string
	appCommit  string
	appDate    string

	// Populated by initConfig before any subcommand runs.
	appConfig *config.Config
	appLogger *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "jestbridge",
	Short: "Turn Jest JSON results into keyed test records",
	Long: `jestbridge resolves the Jest project that owns a test file, builds the
runner command line, and turns the runner's --json output into a flat map of
"file::describe::test" keys to status, summary and error records.

It can aggregate a finished results file or watch one while Jest rewrites it.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return initConfig()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func SetVersion(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

// GetVersion returns the application version string.
func GetVersion() string {
	return appVersion
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: .jestbridge.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "auto",
		"log format (auto, text, json)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false,
		"disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false,
		"only log errors")

	bindFlags()
}

// bindFlags binds persistent flags to viper keys (errors are nil when the
// flag exists).
func bindFlags() {
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// initConfig loads and validates configuration and builds the logger. Flags
// win over JESTBRIDGE_* variables, which win over config files.
func initConfig() error {
	loader := config.NewLoaderWithViper(viper.GetViper())
	if cfgFile != "" {
		loader.WithConfigFile(cfgFile)
	}

	cfg, err := loader.Load()
	if err != nil {
		return err
	}
	if err := config.NewValidator().Validate(cfg); err != nil {
		return err
	}

	level := cfg.Log.Level
	if quiet {
		level = "error"
	}
	appConfig = cfg
	appLogger = logging.New(logging.Config{
		Level:  level,
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})

	if used := loader.ConfigFile(); used != "" {
		appLogger.Debug("loaded config", "path", used)
	}
	return nil
}
