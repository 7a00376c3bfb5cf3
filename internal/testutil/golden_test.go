package testutil_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugo-lorenzo-mato/jestbridge/internal/testutil"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"CRLF to LF", "line1\r\nline2\r\n", "line1\nline2"},
		{"trailing whitespace", "line1   \nline2\t\n", "line1\nline2"},
		{"trailing newlines", "line1\nline2\n\n\n", "line1\nline2"},
		{"empty string", "", ""},
		{"mixed line endings", "a\r\nb  \nc\t\r\n", "a\nb\nc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, testutil.Normalize(tt.input))
		})
	}
}

func TestScrubTimestamps(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`"generated_at": "2026-01-15T10:30:45.123456Z"`, `"generated_at": "[TIMESTAMP]"`},
		{"generated_at: 2026-01-15T10:30:45+02:00", "generated_at: [TIMESTAMP]"},
		{"created 2026-01-15 10:30:45 done", "created [TIMESTAMP] done"},
		{"12:04:59 INF aggregated", "[TIMESTAMP] INF aggregated"},
		{"no timestamps here", "no timestamps here"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, testutil.ScrubTimestamps(tt.input))
		})
	}
}

func TestScrubUUIDs(t *testing.T) {
	assert.Equal(t, "run_id=[UUID]", testutil.ScrubUUIDs("run_id=550e8400-e29b-41d4-a716-446655440000"))
	assert.Equal(t, "plain text", testutil.ScrubUUIDs("plain text"))
}

func TestScrubAll(t *testing.T) {
	input := "run 550e8400-e29b-41d4-a716-446655440000 at 2026-01-15T10:30:45Z in /home/user/app  \r\n"
	got := testutil.ScrubAll(input, "/home/user/app")
	assert.Equal(t, "run [UUID] at [TIMESTAMP] in [WORKDIR]", got)
}

func TestWriteTree(t *testing.T) {
	dir := testutil.ResolvedTempDir(t)
	testutil.WriteTree(t, dir, map[string]string{
		"package.json":          "{}",
		"src/__tests__/a.js":    "",
		"node_modules/.bin/":    "",
		"packages/b/index.html": "<p>",
	})

	assert.FileExists(t, filepath.Join(dir, "package.json"))
	assert.FileExists(t, filepath.Join(dir, "src", "__tests__", "a.js"))
	assert.DirExists(t, filepath.Join(dir, "node_modules", ".bin"))
	assert.FileExists(t, filepath.Join(dir, "packages", "b", "index.html"))
}

func TestJestReport(t *testing.T) {
	data := testutil.JestReport(t, map[string][]testutil.JestAssertion{
		"b.test.js": {{Title: "works", Status: "passed"}},
		"a.test.js": {{Ancestors: []string{"Math"}, Title: "adds", Status: "failed", Line: 3, Column: 5, Failures: []string{"boom"}}},
	})

	var decoded struct {
		NumTotalTests int  `json:"numTotalTests"`
		Success       bool `json:"success"`
		TestResults   []struct {
			Name             string `json:"name"`
			AssertionResults []struct {
				Location *struct{ Line int } `json:"location"`
			} `json:"assertionResults"`
		} `json:"testResults"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, 2, decoded.NumTotalTests)
	assert.False(t, decoded.Success)
	require.Len(t, decoded.TestResults, 2)
	assert.Equal(t, "a.test.js", decoded.TestResults[0].Name)
	require.NotNil(t, decoded.TestResults[0].AssertionResults[0].Location)
	assert.Equal(t, 3, decoded.TestResults[0].AssertionResults[0].Location.Line)
	assert.Nil(t, decoded.TestResults[1].AssertionResults[0].Location)
}

func TestGolden_Matches(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string]string{"sample.golden": "hello\nworld\n"})

	testutil.NewGolden(t, dir).AssertString("sample", "hello\r\nworld")
}
