package fsutil

import (
	"iter"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"sync"
	"unicode"
)

// MaxTraversal bounds every upward walk so a broken tree or symlink cycle
// cannot hang the caller.
const MaxTraversal = 100

// Kind describes what a path points at.
type Kind int

const (
	KindNone Kind = iota
	KindFile
	KindDir
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDir:
		return "directory"
	default:
		return "none"
	}
}

// Platform carries the path conventions of one operating system family.
// The zero value describes a POSIX system.
type Platform struct {
	// Windows selects drive-letter roots, backslash separators and
	// case-insensitive first characters.
	Windows bool
}

var native = sync.OnceValue(func() Platform {
	return Platform{Windows: runtime.GOOS == "windows"}
})

// Native returns the Platform of the running process. Detection happens once.
func Native() Platform {
	return native()
}

var (
	windowsAbsPattern  = regexp.MustCompile(`^[A-Za-z]:|^\\\\|^//`)
	windowsRootPattern = regexp.MustCompile(`^[A-Za-z]:[/\\]?$`)
)

// PathListSeparator returns the separator used in PATH-like variables.
func (p Platform) PathListSeparator() string {
	if p.Windows {
		return ";"
	}
	return ":"
}

// Sanitize normalises a path for comparison. On Windows the first character
// is upper-cased and backslashes become forward slashes.
func (p Platform) Sanitize(path string) string {
	if !p.Windows {
		return path
	}
	return strings.ReplaceAll(upperFirst(path), `\`, "/")
}

// RestoreNativeSeparators reverses Sanitize, turning forward slashes back into
// backslashes on Windows.
func (p Platform) RestoreNativeSeparators(path string) string {
	if !p.Windows {
		return path
	}
	return strings.ReplaceAll(upperFirst(path), "/", `\`)
}

// IsAbsolute reports whether path is absolute under the platform's rules.
func (p Platform) IsAbsolute(path string) bool {
	if p.Windows {
		return windowsAbsPattern.MatchString(path)
	}
	return strings.HasPrefix(path, "/")
}

// IsFSRoot reports whether path is a filesystem root.
func (p Platform) IsFSRoot(path string) bool {
	if p.Windows {
		return windowsRootPattern.MatchString(path)
	}
	return path == "/"
}

// Dirname strips a trailing separator and then the final path segment.
// It returns false for an empty path, and the filesystem root when nothing
// would be left.
func (p Platform) Dirname(path string) (string, bool) {
	if path == "" {
		return "", false
	}

	trimmed := path
	if p.isSep(trimmed[len(trimmed)-1]) {
		trimmed = trimmed[:len(trimmed)-1]
	}

	result := ""
	if idx := p.lastSep(trimmed); idx >= 0 {
		result = trimmed[:idx]
	}

	if result == "" {
		if p.Windows && len(path) >= 2 {
			return strings.ToUpper(path[:2]), true
		}
		return "/", true
	}
	return result, true
}

// Join flattens its arguments and concatenates them with "/". Arguments may be
// strings or string slices; anything else is ignored.
func (p Platform) Join(segments ...any) string {
	flat := make([]string, 0, len(segments))
	for _, seg := range segments {
		switch v := seg.(type) {
		case string:
			flat = append(flat, v)
		case []string:
			flat = append(flat, v...)
		case []any:
			flat = append(flat, p.Join(v...))
		}
	}
	return strings.Join(flat, "/")
}

// TraverseParents resolves path to its canonical absolute form and walks
// upward, calling fn for every ancestor. It returns the first directory fn
// accepts together with the resolved start path. The filesystem root is
// tested before the walk ends.
func (p Platform) TraverseParents(path string, fn func(dir, resolved string) bool) (string, string, bool) {
	resolved, ok := realpath(path)
	if !ok {
		return "", "", false
	}
	resolved = p.Sanitize(resolved)

	dir := resolved
	for i := 0; i < MaxTraversal; i++ {
		next, ok := p.Dirname(dir)
		if !ok {
			return "", "", false
		}
		dir = next
		if fn(dir, resolved) {
			return dir, resolved, true
		}
		if p.IsFSRoot(dir) {
			break
		}
	}
	return "", "", false
}

// IterateParents yields the ancestors of path, nearest first, stopping at the
// filesystem root or at the first ancestor that no longer resolves on disk.
// Each call starts a fresh walk.
func (p Platform) IterateParents(path string) iter.Seq[string] {
	return func(yield func(string) bool) {
		v := path
		for i := 0; i < MaxTraversal; i++ {
			if v == "" || p.IsFSRoot(v) {
				return
			}
			next, ok := p.Dirname(v)
			if !ok {
				return
			}
			if _, ok := realpath(next); !ok {
				return
			}
			if !yield(next) {
				return
			}
			v = next
		}
	}
}

// IsDescendant reports whether walking up from path reaches root.
func (p Platform) IsDescendant(root, path string) bool {
	if path == "" {
		return false
	}
	dir, _, ok := p.TraverseParents(path, func(dir, _ string) bool {
		return dir == root
	})
	return ok && dir == root
}

// Exists reports what kind of entry path names, or KindNone.
func Exists(path string) Kind {
	info, err := os.Stat(path)
	if err != nil {
		return KindNone
	}
	if info.IsDir() {
		return KindDir
	}
	return KindFile
}

// IsDir reports whether path is an existing directory.
func IsDir(path string) bool {
	return Exists(path) == KindDir
}

// IsFile reports whether path is an existing non-directory entry.
func IsFile(path string) bool {
	return Exists(path) == KindFile
}

func realpath(path string) (string, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", false
	}
	return resolved, true
}

func (p Platform) isSep(c byte) bool {
	return c == '/' || (p.Windows && c == '\\')
}

func (p Platform) lastSep(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if p.isSep(s[i]) {
			return i
		}
	}
	return -1
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
