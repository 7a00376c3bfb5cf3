// Package ancestor finds the nearest directory above a path that satisfies a
// marker predicate: a version-control root, an installed dependency tree or a
// package manifest.
package ancestor

import (
	"path/filepath"
	"strings"

	"github.com/hugo-lorenzo-mato/jestbridge/internal/fsutil"
)

// Marker names looked up by the stock resolvers.
const (
	GitMarker          = ".git"
	NodeModulesMarker  = "node_modules"
	PackageJSONMarker  = "package.json"
	maxAncestorChecked = fsutil.MaxTraversal
)

// Resolver maps a start path to the matching ancestor directory.
type Resolver func(start string) (string, bool)

// SearchAncestors tests start itself and then each of its parents, returning
// the first directory match accepts. The walk gives up after a fixed number
// of steps and reports not found.
func SearchAncestors(p fsutil.Platform, start string, match func(dir string) bool) (string, bool) {
	if match(start) {
		return start, true
	}

	guard := maxAncestorChecked
	for dir := range p.IterateParents(start) {
		guard--
		if guard == 0 {
			return "", false
		}
		if match(dir) {
			return dir, true
		}
	}
	return "", false
}

// RootPattern returns a Resolver that accepts the first ancestor under which
// any of the glob patterns expands to an existing entry.
func RootPattern(p fsutil.Platform, patterns ...string) Resolver {
	matcher := func(dir string) bool {
		escaped := escapeWildcards(p, dir)
		for _, pattern := range patterns {
			matches, err := filepath.Glob(p.Join(escaped, pattern))
			if err != nil {
				continue
			}
			for _, m := range matches {
				if fsutil.Exists(m) != fsutil.KindNone {
					return true
				}
			}
		}
		return false
	}
	return func(start string) (string, bool) {
		return SearchAncestors(p, start, matcher)
	}
}

// FindGitAncestor returns the nearest directory holding a .git entry. Both a
// directory and a file (worktrees, submodules) count.
func FindGitAncestor(p fsutil.Platform, start string) (string, bool) {
	return SearchAncestors(p, start, func(dir string) bool {
		return fsutil.Exists(p.Join(dir, GitMarker)) != fsutil.KindNone
	})
}

// FindNodeModulesAncestor returns the nearest directory with a node_modules
// directory.
func FindNodeModulesAncestor(p fsutil.Platform, start string) (string, bool) {
	return SearchAncestors(p, start, func(dir string) bool {
		return fsutil.IsDir(p.Join(dir, NodeModulesMarker))
	})
}

// FindPackageJSONAncestor returns the nearest directory with a package.json.
func FindPackageJSONAncestor(p fsutil.Platform, start string) (string, bool) {
	return SearchAncestors(p, start, func(dir string) bool {
		return fsutil.IsFile(p.Join(dir, PackageJSONMarker))
	})
}

var wildcardEscaper = strings.NewReplacer(`*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

// escapeWildcards keeps glob metacharacters in the directory part literal.
// filepath.Glob on Windows has no escape character, so the directory is used
// as is there.
func escapeWildcards(p fsutil.Platform, dir string) string {
	if p.Windows {
		return dir
	}
	return wildcardEscaper.Replace(strings.ReplaceAll(dir, `\`, `\\`))
}
