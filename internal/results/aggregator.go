package results

import (
	"strings"

	"github.com/hugo-lorenzo-mato/jestbridge/internal/ansi"
	"github.com/hugo-lorenzo-mato/jestbridge/internal/core"
	"github.com/hugo-lorenzo-mato/jestbridge/internal/fsutil"
)

// ErrorLogger receives malformed-input reports. *slog.Logger satisfies it.
type ErrorLogger interface {
	Error(msg string, args ...any)
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithLogger sets the collaborator notified about malformed assertions.
func WithLogger(l ErrorLogger) Option {
	return func(a *Aggregator) {
		a.logger = l
	}
}

// WithPlatform overrides the path conventions used to normalise file names.
func WithPlatform(p fsutil.Platform) Option {
	return func(a *Aggregator) {
		a.platform = p
	}
}

// WithSuiteFailures makes files that failed before producing any assertion
// (syntax errors, failing imports) show up as a record keyed by the file path.
func WithSuiteFailures(enabled bool) Option {
	return func(a *Aggregator) {
		a.suiteFailures = enabled
	}
}

// Aggregator maps a runner report onto result records. It holds no state
// between calls and is safe for concurrent use.
type Aggregator struct {
	platform      fsutil.Platform
	logger        ErrorLogger
	suiteFailures bool
}

// NewAggregator creates an aggregator for the native platform.
func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{
		platform: fsutil.Native(),
		logger:   nopLogger{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Aggregate builds one record per assertion in run. console is the captured
// runner output shared by every record; outputFile is carried on the Outcome.
//
// An assertion without a title aborts the whole aggregation: the logger is
// told, and a validation error is returned instead of partial records.
func (a *Aggregator) Aggregate(run *Run, outputFile, console string) (*Outcome, error) {
	records := make(map[string]Record)
	if run == nil {
		return &Outcome{Records: records, OutputFile: outputFile}, nil
	}

	for _, file := range run.TestResults {
		path := a.platform.RestoreNativeSeparators(file.Name)

		if a.suiteFailures && len(file.AssertionResults) == 0 && file.Status == string(StatusFailed) && file.Message != "" {
			records[path] = suiteFailureRecord(path, file.Message, console)
			continue
		}

		for i, assertion := range file.AssertionResults {
			if assertion.Title == nil {
				a.logger.Error("failed to find parsed test result title",
					"file", path,
					"index", i,
					"full_name", assertion.FullName,
					"status", assertion.Status,
				)
				return nil, core.ErrValidation(core.CodeMissingTitle, "assertion has no title").
					WithDetail("file", path).
					WithDetail("index", i)
			}

			records[buildKey(path, assertion.AncestorTitles, *assertion.Title)] = buildRecord(assertion, console)
		}
	}

	return &Outcome{Records: records, OutputFile: outputFile}, nil
}

func buildKey(path string, ancestors []string, title string) string {
	var b strings.Builder
	b.WriteString(path)
	for _, ancestor := range ancestors {
		if ancestor == "" {
			continue
		}
		b.WriteString(KeySeparator)
		b.WriteString(ancestor)
	}
	b.WriteString(KeySeparator)
	b.WriteString(title)
	return b.String()
}

func buildRecord(assertion Assertion, console string) Record {
	status := NormalizeStatus(assertion.Status)
	record := Record{
		Status:   status,
		Short:    *assertion.Title + ": " + string(status),
		Output:   console,
		Location: assertion.Location,
	}

	if len(assertion.FailureMessages) == 0 {
		return record
	}

	var short strings.Builder
	short.WriteString(record.Short)
	record.Errors = make([]ErrorEntry, 0, len(assertion.FailureMessages))
	for _, raw := range assertion.FailureMessages {
		msg := ansi.Strip(raw)
		entry := ErrorEntry{Message: msg}
		if loc := assertion.Location; loc != nil {
			line := loc.Line - 1
			column := loc.Column
			entry.Line = &line
			entry.Column = &column
		}
		record.Errors = append(record.Errors, entry)
		short.WriteString("\n")
		short.WriteString(msg)
	}
	record.Short = short.String()
	return record
}

func suiteFailureRecord(path, message, console string) Record {
	msg := ansi.Strip(message)
	return Record{
		Status: StatusFailed,
		Short:  path + ": " + string(StatusFailed) + "\n" + msg,
		Output: console,
		Errors: []ErrorEntry{{Message: msg}},
	}
}

type nopLogger struct{}

func (nopLogger) Error(string, ...any) {}
