// Package results turns a Jest JSON report into a flat map of test keys to
// result records.
package results

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/hugo-lorenzo-mato/jestbridge/internal/core"
	"github.com/hugo-lorenzo-mato/jestbridge/internal/fsutil"
)

// KeySeparator joins the file path, ancestor titles and test title of a key.
const KeySeparator = "::"

// Status is the normalised outcome of a single assertion.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// NormalizeStatus maps the runner's pending and todo states to skipped and
// passes every other status through verbatim.
func NormalizeStatus(raw string) Status {
	switch raw {
	case "pending", "todo":
		return StatusSkipped
	default:
		return Status(raw)
	}
}

// Location is a position reported by the runner. Lines are 1-based.
type Location struct {
	Line   int `json:"line" yaml:"line"`
	Column int `json:"column" yaml:"column"`
}

// ErrorEntry is one failure message attached to a record. Line is 0-based.
type ErrorEntry struct {
	Line    *int   `json:"line,omitempty" yaml:"line,omitempty"`
	Column  *int   `json:"column,omitempty" yaml:"column,omitempty"`
	Message string `json:"message" yaml:"message"`
}

// Record is the aggregated result of one assertion.
type Record struct {
	Status   Status       `json:"status" yaml:"status"`
	Short    string       `json:"short" yaml:"short"`
	Output   string       `json:"output" yaml:"output"`
	Location *Location    `json:"location,omitempty" yaml:"location,omitempty"`
	Errors   []ErrorEntry `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// Run is the top level of the runner's --json output.
type Run struct {
	NumTotalTests   int          `json:"numTotalTests"`
	NumPassedTests  int          `json:"numPassedTests"`
	NumFailedTests  int          `json:"numFailedTests"`
	NumPendingTests int          `json:"numPendingTests"`
	NumTodoTests    int          `json:"numTodoTests"`
	StartTime       int64        `json:"startTime"`
	Success         bool         `json:"success"`
	WasInterrupted  bool         `json:"wasInterrupted"`
	TestResults     []FileResult `json:"testResults"`
}

// FileResult holds the assertions of one test file.
type FileResult struct {
	Name             string      `json:"name"`
	Status           string      `json:"status"`
	Message          string      `json:"message"`
	StartTime        int64       `json:"startTime"`
	EndTime          int64       `json:"endTime"`
	AssertionResults []Assertion `json:"assertionResults"`
}

// Assertion is a single test case. Title is nil when the runner omitted it.
type Assertion struct {
	AncestorTitles  []string  `json:"ancestorTitles"`
	Title           *string   `json:"title"`
	FullName        string    `json:"fullName"`
	Status          string    `json:"status"`
	Location        *Location `json:"location"`
	FailureMessages []string  `json:"failureMessages"`
	Duration        *float64  `json:"duration"`
}

// ParseRun decodes a JSON report.
func ParseRun(data []byte) (*Run, error) {
	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, core.ErrValidation(core.CodeParseFailed, "decoding test run JSON").WithCause(err)
	}
	return &run, nil
}

// LoadRun reads and decodes a JSON report from disk.
func LoadRun(path string) (*Run, error) {
	data, err := fsutil.ReadFileScoped(path)
	if err != nil {
		return nil, err
	}
	return ParseRun(data)
}

// Outcome is a successful aggregation.
type Outcome struct {
	Records    map[string]Record
	OutputFile string
}

// Keys returns the record keys in lexical order.
func (o *Outcome) Keys() []string {
	keys := make([]string, 0, len(o.Records))
	for k := range o.Records {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Summary counts records by status.
type Summary struct {
	Total   int `json:"total" yaml:"total"`
	Passed  int `json:"passed" yaml:"passed"`
	Failed  int `json:"failed" yaml:"failed"`
	Skipped int `json:"skipped" yaml:"skipped"`
	Other   int `json:"other" yaml:"other"`
}

// Summarize counts records by status. Statuses other than passed, failed and
// skipped are counted as Other.
func Summarize(records map[string]Record) Summary {
	var s Summary
	for _, r := range records {
		s.Total++
		switch r.Status {
		case StatusPassed:
			s.Passed++
		case StatusFailed:
			s.Failed++
		case StatusSkipped:
			s.Skipped++
		default:
			s.Other++
		}
	}
	return s
}

// SplitKey returns the file path and the title chain of a record key.
func SplitKey(key string) (string, []string) {
	parts := strings.Split(key, KeySeparator)
	return parts[0], parts[1:]
}
