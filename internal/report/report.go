// Package report renders aggregated test results as a terminal table or as
// JSON/YAML documents, and writes those documents atomically.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/hugo-lorenzo-mato/jestbridge/internal/core"
	"github.com/hugo-lorenzo-mato/jestbridge/internal/results"
)

// Format selects how a report is rendered.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates a format name. An empty name means table.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatTable, nil
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", core.ErrValidation(core.CodeInvalidConfig,
			fmt.Sprintf("unknown report format %q (want table, json or yaml)", s))
	}
}

// Envelope wraps one aggregation for serialisation.
type Envelope struct {
	RunID       string                    `json:"run_id" yaml:"run_id"`
	GeneratedAt time.Time                 `json:"generated_at" yaml:"generated_at"`
	OutputFile  string                    `json:"output_file,omitempty" yaml:"output_file,omitempty"`
	Summary     results.Summary           `json:"summary" yaml:"summary"`
	Records     map[string]results.Record `json:"records" yaml:"records"`
}

// NewEnvelope stamps an outcome with a fresh run ID and the current time.
func NewEnvelope(outcome *results.Outcome) *Envelope {
	env := &Envelope{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Records:     map[string]results.Record{},
	}
	if outcome != nil {
		env.OutputFile = outcome.OutputFile
		if outcome.Records != nil {
			env.Records = outcome.Records
		}
	}
	env.Summary = results.Summarize(env.Records)
	return env
}

// Encode serialises env as JSON or YAML.
func Encode(format Format, env *Envelope) ([]byte, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(env, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding json report: %w", err)
		}
		return append(data, '\n'), nil
	case FormatYAML:
		data, err := yaml.Marshal(env)
		if err != nil {
			return nil, fmt.Errorf("encoding yaml report: %w", err)
		}
		return data, nil
	default:
		return nil, core.ErrValidation(core.CodeInvalidConfig, fmt.Sprintf("format %q cannot be encoded", format))
	}
}

// Write renders env to w in the given format.
func Write(w io.Writer, format Format, env *Envelope, opts TableOptions) error {
	if format == FormatTable {
		return Table(w, env, opts)
	}
	data, err := Encode(format, env)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// WriteFile renders env to path atomically. Readers never observe a partly
// written report. Tables are written without colour.
func WriteFile(path string, format Format, env *Envelope) error {
	var buf strings.Builder
	if err := Write(&buf, format, env, TableOptions{}); err != nil {
		return err
	}
	if err := atomicWriteFile(path, []byte(buf.String()), 0o644); err != nil {
		return core.ErrIO(core.CodeWriteFailed, "writing report").WithCause(err).WithDetail("path", path)
	}
	return nil
}

// SummaryLine renders counts as a single line, e.g. for watch mode.
func SummaryLine(s results.Summary) string {
	parts := []string{
		fmt.Sprintf("%d passed", s.Passed),
		fmt.Sprintf("%d failed", s.Failed),
		fmt.Sprintf("%d skipped", s.Skipped),
	}
	if s.Other > 0 {
		parts = append(parts, fmt.Sprintf("%d other", s.Other))
	}
	return fmt.Sprintf("%d tests: %s", s.Total, strings.Join(parts, ", "))
}
