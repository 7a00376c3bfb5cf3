package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/jestbridge/internal/report"
	"github.com/hugo-lorenzo-mato/jestbridge/internal/results"
)

var (
	aggConsole string
	aggFormat  string
	aggOut     string
	aggFilter  string
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate <results.json>",
	Short: "Aggregate a Jest JSON results file",
	Long: `Aggregate reads the output of "jest --json" and prints one record per
assertion, keyed by "file::describe...::test". Failure messages are stripped
of terminal colour codes and their line numbers are made 0-based.`,
	Args: cobra.ExactArgs(1),
	RunE: runAggregate,
}

func init() {
	aggregateCmd.Flags().StringVar(&aggConsole, "console", "",
		"file with captured console output to attach to every record")
	aggregateCmd.Flags().StringVarP(&aggFormat, "format", "f", "",
		"output format (table, json, yaml; default from config)")
	aggregateCmd.Flags().StringVarP(&aggOut, "out", "o", "",
		"write the report to this file instead of stdout")
	aggregateCmd.Flags().StringVar(&aggFilter, "filter", "",
		"only show records whose key fuzzy-matches this query")
	rootCmd.AddCommand(aggregateCmd)
}

func runAggregate(cmd *cobra.Command, args []string) error {
	cfg, err := currentConfig()
	if err != nil {
		return err
	}

	format, err := report.ParseFormat(firstNonEmpty(aggFormat, cfg.Report.Format))
	if err != nil {
		return err
	}

	path := args[0]
	run, err := results.LoadRun(path)
	if err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	console, err := readConsole(aggConsole)
	if err != nil {
		return err
	}

	outcome, err := newAggregator(cfg).Aggregate(run, path, console)
	if err != nil {
		return err
	}

	outcome.Records = report.Filter(outcome.Records, aggFilter)
	env := report.NewEnvelope(outcome)
	currentLogger().WithRun(env.RunID).Debug("aggregated results",
		"file", path, "records", len(env.Records))

	return emit(cmd.OutOrStdout(), format, env, firstNonEmpty(aggOut, cfg.Report.Output))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
