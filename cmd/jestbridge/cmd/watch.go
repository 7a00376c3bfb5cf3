package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hugo-lorenzo-mato/jestbridge/internal/logging"
	"github.com/hugo-lorenzo-mato/jestbridge/internal/report"
	"github.com/hugo-lorenzo-mato/jestbridge/internal/results"
	"github.com/hugo-lorenzo-mato/jestbridge/internal/stream"
)

var (
	watchConsole  string
	watchOut      string
	watchFormat   string
	watchDebounce time.Duration
	watchCount    int
)

// errSnapshotLimit ends a watch after --count snapshots.
var errSnapshotLimit = errors.New("snapshot limit reached")

var watchCmd = &cobra.Command{
	Use:   "watch <results.json>",
	Short: "Aggregate a Jest results file every time it changes",
	Long: `Watch streams a results file that Jest rewrites during a run. The file's
current content is aggregated immediately and again after every change, and a
summary line is printed per snapshot until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchConsole, "console", "",
		"file with captured console output to attach to every record")
	watchCmd.Flags().StringVarP(&watchOut, "out", "o", "",
		"rewrite this report file after every snapshot")
	watchCmd.Flags().StringVarP(&watchFormat, "format", "f", "",
		"format of the --out report (json, yaml, table; default from config)")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", -1,
		"coalesce change bursts within this window (default from config)")
	watchCmd.Flags().IntVar(&watchCount, "count", 0,
		"stop after this many snapshots (0 = until interrupted)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := currentConfig()
	if err != nil {
		return err
	}

	format, err := report.ParseFormat(firstNonEmpty(watchFormat, cfg.Report.Format))
	if err != nil {
		return err
	}
	debounce := watchDebounce
	if debounce < 0 {
		debounce = cfg.Stream.DebounceDuration()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := &watcher{
		path:       args[0],
		out:        cmd.OutOrStdout(),
		reportPath: firstNonEmpty(watchOut, cfg.Report.Output),
		format:     format,
		limit:      watchCount,
		aggregator: newAggregator(cfg),
		logger:     currentLogger().WithComponent("watch").WithFile(args[0]),
	}
	if w.console, err = readConsole(watchConsole); err != nil {
		return err
	}
	return w.run(ctx, debounce)
}

// watcher aggregates every snapshot of one results file.
type watcher struct {
	path       string
	out        io.Writer
	reportPath string
	format     report.Format
	limit      int
	console    string
	aggregator *results.Aggregator
	logger     *logging.Logger

	seen int
}

func (w *watcher) run(ctx context.Context, debounce time.Duration) error {
	s, err := stream.Open(ctx, w.path,
		stream.WithLogger(w.logger),
		stream.WithDebounce(debounce),
	)
	if err != nil {
		return fmt.Errorf("watching %s: %w", w.path, err)
	}
	defer func() {
		_ = s.Stop()
		<-s.Done()
	}()

	w.logger.Info("watching results file", "debounce", debounce.String())

	g, gctx := errgroup.WithContext(ctx)
	snapshots := make(chan []byte)

	g.Go(func() error {
		defer close(snapshots)
		for chunk, err := range s.Chunks(gctx) {
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}
			select {
			case snapshots <- chunk:
			case <-gctx.Done():
				return nil
			}
		}
		return nil
	})

	g.Go(func() error {
		for chunk := range snapshots {
			if err := w.handle(chunk); err != nil {
				return err
			}
		}
		return nil
	})

	err = g.Wait()
	if errors.Is(err, errSnapshotLimit) {
		return nil
	}
	return err
}

// handle aggregates one snapshot. A snapshot that does not parse is usually
// a file caught mid-write and is skipped; the next change brings a full one.
func (w *watcher) handle(chunk []byte) error {
	if len(bytes.TrimSpace(chunk)) == 0 {
		w.logger.Debug("skipping empty snapshot")
		return nil
	}

	run, err := results.ParseRun(chunk)
	if err != nil {
		w.logger.Warn("skipping unparseable snapshot", "error", err, "bytes", len(chunk))
		return nil
	}

	outcome, err := w.aggregator.Aggregate(run, w.path, w.console)
	if err != nil {
		w.logger.Warn("skipping snapshot", "error", err)
		return nil
	}

	env := report.NewEnvelope(outcome)
	fmt.Fprintf(w.out, "%s %s\n", env.GeneratedAt.Local().Format("15:04:05"), report.SummaryLine(env.Summary))

	if w.reportPath != "" {
		if err := report.WriteFile(w.reportPath, w.format, env); err != nil {
			return err
		}
	}

	w.seen++
	if w.limit > 0 && w.seen >= w.limit {
		return errSnapshotLimit
	}
	return nil
}
