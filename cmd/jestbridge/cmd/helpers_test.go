package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/viper"
)

// resetState clears global command state left over from earlier runs.
func resetState(t *testing.T) {
	t.Helper()
	viper.Reset()
	bindFlags()

	cfgFile, logLevel, logFormat = "", "info", "auto"
	noColor, quiet = true, true
	appConfig, appLogger = nil, nil

	resolveJSON = false
	aggConsole, aggFormat, aggOut, aggFilter = "", "", "", ""
	watchConsole, watchOut, watchFormat = "", "", ""
	watchDebounce, watchCount = -1, 0
}

// executeCommand runs the root command with args and returns its stdout.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeCommandContext(context.Background(), t, args...)
}

func executeCommandContext(ctx context.Context, t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetState(t)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(ctx)
	return out.String(), err
}
