package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

// WriteTree creates files under dir, making parent directories as needed.
// Names ending in "/" create empty directories.
func WriteTree(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if name[len(name)-1] == '/' {
			if err := os.MkdirAll(path, 0o755); err != nil {
				t.Fatalf("creating directory %s: %v", name, err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("creating directory for %s: %v", name, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
}

// ResolvedTempDir returns t.TempDir() with symlinks resolved, so paths match
// what ancestor lookups report.
func ResolvedTempDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("resolving temp dir: %v", err)
	}
	return dir
}

// JestAssertion describes one assertion of a synthetic Jest report. A zero
// Line omits the location.
type JestAssertion struct {
	Ancestors []string
	Title     string
	Status    string
	Line      int
	Column    int
	Failures  []string
}

// JestReport renders a minimal `jest --json` document with one test result
// per file, ordered by file name.
func JestReport(t *testing.T, files map[string][]JestAssertion) []byte {
	t.Helper()

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	type location struct {
		Line   int `json:"line"`
		Column int `json:"column"`
	}
	type assertion struct {
		AncestorTitles  []string  `json:"ancestorTitles"`
		Title           string    `json:"title"`
		Status          string    `json:"status"`
		Location        *location `json:"location"`
		FailureMessages []string  `json:"failureMessages"`
	}
	type fileResult struct {
		Name             string      `json:"name"`
		Status           string      `json:"status"`
		AssertionResults []assertion `json:"assertionResults"`
	}

	var (
		total, failed int
		testResults   = make([]fileResult, 0, len(names))
	)
	for _, name := range names {
		fr := fileResult{Name: name, Status: "passed", AssertionResults: []assertion{}}
		for _, a := range files[name] {
			out := assertion{
				AncestorTitles:  a.Ancestors,
				Title:           a.Title,
				Status:          a.Status,
				FailureMessages: a.Failures,
			}
			if out.AncestorTitles == nil {
				out.AncestorTitles = []string{}
			}
			if out.FailureMessages == nil {
				out.FailureMessages = []string{}
			}
			if a.Line > 0 {
				out.Location = &location{Line: a.Line, Column: a.Column}
			}
			if a.Status == "failed" {
				fr.Status = "failed"
				failed++
			}
			total++
			fr.AssertionResults = append(fr.AssertionResults, out)
		}
		testResults = append(testResults, fr)
	}

	data, err := json.Marshal(map[string]any{
		"numTotalTests":  total,
		"numFailedTests": failed,
		"success":        failed == 0,
		"testResults":    testResults,
	})
	if err != nil {
		t.Fatalf("encoding jest report: %v", err)
	}
	return data
}
