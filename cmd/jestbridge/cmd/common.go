package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/hugo-lorenzo-mato/jestbridge/internal/config"
	"github.com/hugo-lorenzo-mato/jestbridge/internal/fsutil"
	"github.com/hugo-lorenzo-mato/jestbridge/internal/logging"
	"github.com/hugo-lorenzo-mato/jestbridge/internal/report"
	"github.com/hugo-lorenzo-mato/jestbridge/internal/results"
)

// currentConfig returns the loaded configuration, loading it on first use
// when a command runs without the root pre-run hook (as in tests).
func currentConfig() (*config.Config, error) {
	if appConfig == nil {
		if err := initConfig(); err != nil {
			return nil, err
		}
	}
	return appConfig, nil
}

func currentLogger() *logging.Logger {
	if appLogger == nil {
		return logging.NewNop()
	}
	return appLogger
}

// useColor reports whether output to w should be coloured.
func useColor(w io.Writer) bool {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

// newAggregator builds an aggregator that logs malformed input through the
// application logger.
func newAggregator(cfg *config.Config) *results.Aggregator {
	return results.NewAggregator(
		results.WithLogger(currentLogger().WithComponent("aggregator")),
		results.WithSuiteFailures(cfg.Report.SuiteFailures),
	)
}

// readConsole loads captured console output; an empty path means none.
func readConsole(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := fsutil.ReadFileScoped(path)
	if err != nil {
		return "", fmt.Errorf("reading console output: %w", err)
	}
	return string(data), nil
}

// emit writes an envelope to out, or to path when one is given.
func emit(w io.Writer, format report.Format, env *report.Envelope, path string) error {
	if path != "" {
		return report.WriteFile(path, format, env)
	}
	return report.Write(w, format, env, report.TableOptions{Color: useColor(w)})
}

// OutputJSON writes v as indented JSON.
func OutputJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
