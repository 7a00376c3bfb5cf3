package ancestor

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugo-lorenzo-mato/jestbridge/internal/fsutil"
)

var posix = fsutil.Platform{}

func tempRoot(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("posix path layout")
	}
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return dir
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))
}

func nested(root string, depth int) string {
	parts := make([]string, 0, depth+1)
	parts = append(parts, root)
	for i := 0; i < depth; i++ {
		parts = append(parts, "d")
	}
	return filepath.Join(parts...)
}

func TestSearchAncestors_MatchesStartFirst(t *testing.T) {
	root := tempRoot(t)

	calls := 0
	dir, ok := SearchAncestors(posix, root, func(string) bool {
		calls++
		return true
	})
	require.True(t, ok)
	assert.Equal(t, root, dir)
	assert.Equal(t, 1, calls)
}

func TestSearchAncestors_Ascends(t *testing.T) {
	root := tempRoot(t)
	start := filepath.Join(root, "packages", "app", "src")
	require.NoError(t, os.MkdirAll(start, 0o755))

	dir, ok := SearchAncestors(posix, start, func(dir string) bool {
		return dir == root
	})
	require.True(t, ok)
	assert.Equal(t, root, dir)
}

func TestSearchAncestors_NotFound(t *testing.T) {
	root := tempRoot(t)

	_, ok := SearchAncestors(posix, root, func(string) bool { return false })
	assert.False(t, ok)
}

func TestSearchAncestors_GuardStopsDeepWalk(t *testing.T) {
	root := tempRoot(t)
	start := nested(root, 101)
	require.NoError(t, os.MkdirAll(start, 0o755))

	_, ok := SearchAncestors(posix, start, func(dir string) bool {
		return dir == root
	})
	assert.False(t, ok, "the step guard triggers before the matching root is reached")
}

func TestSearchAncestors_WithinGuard(t *testing.T) {
	root := tempRoot(t)
	start := nested(root, 50)
	require.NoError(t, os.MkdirAll(start, 0o755))

	dir, ok := SearchAncestors(posix, start, func(dir string) bool {
		return dir == root
	})
	require.True(t, ok)
	assert.Equal(t, root, dir)
}

func TestRootPattern(t *testing.T) {
	root := tempRoot(t)
	touch(t, filepath.Join(root, "jest.config.ts"))
	start := filepath.Join(root, "src", "lib")
	require.NoError(t, os.MkdirAll(start, 0o755))

	resolve := RootPattern(posix, "jest.config.js", "jest.config.*")
	dir, ok := resolve(start)
	require.True(t, ok)
	assert.Equal(t, root, dir)
}

func TestRootPattern_NearestWins(t *testing.T) {
	root := tempRoot(t)
	touch(t, filepath.Join(root, "package.json"))
	touch(t, filepath.Join(root, "packages", "web", "package.json"))
	start := filepath.Join(root, "packages", "web", "src")
	require.NoError(t, os.MkdirAll(start, 0o755))

	dir, ok := RootPattern(posix, "package.json")(start)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "packages", "web"), dir)
}

func TestRootPattern_LiteralDirectoryMetacharacters(t *testing.T) {
	root := tempRoot(t)
	weird := filepath.Join(root, "a[1]")
	touch(t, filepath.Join(weird, "package.json"))

	dir, ok := RootPattern(posix, "package.json")(weird)
	require.True(t, ok)
	assert.Equal(t, weird, dir)
}

func TestRootPattern_NoMatch(t *testing.T) {
	root := tempRoot(t)

	_, ok := RootPattern(posix, "definitely-not-here-*.marker")(root)
	assert.False(t, ok)
}

func TestFindGitAncestor(t *testing.T) {
	root := tempRoot(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0o755))
	start := filepath.Join(root, "src")
	require.NoError(t, os.MkdirAll(start, 0o755))

	dir, ok := FindGitAncestor(posix, start)
	require.True(t, ok)
	assert.Equal(t, root, dir)
}

func TestFindGitAncestor_GitFile(t *testing.T) {
	root := tempRoot(t)
	worktree := filepath.Join(root, "wt")
	require.NoError(t, os.MkdirAll(worktree, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(worktree, ".git"), []byte("gitdir: ../.git/worktrees/wt"), 0o600))

	dir, ok := FindGitAncestor(posix, worktree)
	require.True(t, ok)
	assert.Equal(t, worktree, dir)
}

func TestFindNodeModulesAncestor(t *testing.T) {
	root := tempRoot(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "node_modules", ".bin"), 0o755))
	start := filepath.Join(root, "packages", "a")
	require.NoError(t, os.MkdirAll(start, 0o755))

	dir, ok := FindNodeModulesAncestor(posix, start)
	require.True(t, ok)
	assert.Equal(t, root, dir)
}

func TestFindNodeModulesAncestor_IgnoresFile(t *testing.T) {
	root := tempRoot(t)
	touch(t, filepath.Join(root, "node_modules"))

	dir, ok := FindNodeModulesAncestor(posix, root)
	if ok {
		assert.NotEqual(t, root, dir, "a plain file named node_modules is not a dependency root")
	}
}

func TestFindPackageJSONAncestor(t *testing.T) {
	root := tempRoot(t)
	touch(t, filepath.Join(root, "package.json"))
	file := filepath.Join(root, "src", "math.test.js")
	touch(t, file)

	dir, ok := FindPackageJSONAncestor(posix, file)
	require.True(t, ok)
	assert.Equal(t, root, dir)
	assert.False(t, strings.HasSuffix(dir, "src"))
}
