// Package ansi removes terminal escape sequences from captured runner output.
package ansi

import (
	"regexp"

	"github.com/acarl005/stripansi"
)

// sgrPatterns match colour/style sequences by parameter count, longest first
// so a five-parameter sequence is never half-consumed by a shorter pattern.
var sgrPatterns = func() []*regexp.Regexp {
	patterns := []string{
		`\x1b\[\d+;\d+;\d+;\d+;\d+m`,
		`\x1b\[\d+;\d+;\d+;\d+m`,
		`\x1b\[\d+;\d+;\d+m`,
		`\x1b\[\d+;\d+m`,
		`\x1b\[\d+m`,
	}
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		compiled = append(compiled, regexp.MustCompile(p))
	}
	return compiled
}()

// Strip removes SGR sequences carrying one to five numeric parameters.
// Other escape sequences are left alone. Removal repeats until nothing
// changes, so a sequence reassembled from the pieces around a removed one is
// also stripped and Strip(Strip(s)) == Strip(s).
func Strip(text string) string {
	for {
		next := stripOnce(text)
		if next == text {
			return next
		}
		text = next
	}
}

func stripOnce(text string) string {
	for _, re := range sgrPatterns {
		text = re.ReplaceAllString(text, "")
	}
	return text
}

// StripAll removes every ANSI escape sequence, including cursor movement and
// erase codes that Strip keeps.
func StripAll(text string) string {
	return stripansi.Strip(text)
}
