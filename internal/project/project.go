// Package project resolves the Jest project a test file belongs to: its root
// directory, its jest config, the runner binary, and the command line that
// produces a JSON results file for the bridge to consume.
package project

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/hugo-lorenzo-mato/jestbridge/internal/ancestor"
	"github.com/hugo-lorenzo-mato/jestbridge/internal/config"
	"github.com/hugo-lorenzo-mato/jestbridge/internal/core"
	"github.com/hugo-lorenzo-mato/jestbridge/internal/fsutil"
)

// RootSource records which lookup produced a project root.
type RootSource string

const (
	// SourceMarker means one of the configured root markers matched.
	SourceMarker RootSource = "marker"
	// SourceGit means no marker matched and the version-control root was used.
	SourceGit RootSource = "git"
	// SourceFile means nothing matched and the file's own directory was used.
	SourceFile RootSource = "file"
)

// Project describes the Jest project owning a test file.
type Project struct {
	Root        string     `json:"root" yaml:"root"`
	RootSource  RootSource `json:"root_source" yaml:"root_source"`
	PackageJSON string     `json:"package_json,omitempty" yaml:"package_json,omitempty"`
	ConfigFile  string     `json:"config_file,omitempty" yaml:"config_file,omitempty"`
	// Runner is the argv prefix that starts Jest: either the local
	// node_modules/.bin/jest or the configured fallback command.
	Runner      []string `json:"runner" yaml:"runner"`
	ResultsFile string   `json:"results_file" yaml:"results_file"`

	extraArgs []string
	forceExit bool
}

// Command builds the argv that runs the given test files and writes JSON
// results to resultsFile. An empty resultsFile uses p.ResultsFile. The
// command is only assembled here; spawning it is up to the caller.
func (p *Project) Command(resultsFile string, files ...string) []string {
	if resultsFile == "" {
		resultsFile = p.ResultsFile
	}

	argv := make([]string, 0, len(p.Runner)+len(p.extraArgs)+len(files)+6)
	argv = append(argv, p.Runner...)
	argv = append(argv,
		"--json",
		"--outputFile="+resultsFile,
		"--testLocationInResults",
	)
	if p.ConfigFile != "" {
		argv = append(argv, "--config="+p.ConfigFile)
	}
	if p.forceExit {
		argv = append(argv, "--forceExit")
	}
	argv = append(argv, p.extraArgs...)
	if len(files) > 0 {
		argv = append(argv, "--")
		argv = append(argv, files...)
	}
	return argv
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithPlatform overrides the detected platform.
func WithPlatform(p fsutil.Platform) Option {
	return func(r *Resolver) {
		r.platform = p
	}
}

// Resolver finds the project for a test file using the configured root
// markers, falling back to the git root and finally the file's directory.
type Resolver struct {
	platform     fsutil.Platform
	markers      []string
	configFiles  []string
	command      []string
	extraArgs    []string
	forceExit    bool
	resultsFile  string
	testPatterns []string
}

// NewResolver creates a resolver from runner and root configuration.
func NewResolver(runner config.RunnerConfig, roots config.RootsConfig, opts ...Option) *Resolver {
	r := &Resolver{
		platform:     fsutil.Native(),
		markers:      roots.Markers,
		configFiles:  runner.ConfigFiles,
		command:      strings.Fields(runner.Command),
		extraArgs:    runner.ExtraArgs,
		forceExit:    runner.ForceExit,
		resultsFile:  runner.ResultsFile,
		testPatterns: runner.TestFilePatterns,
	}
	if len(r.markers) == 0 {
		r.markers = []string{ancestor.PackageJSONMarker}
	}
	if len(r.command) == 0 {
		r.command = []string{"jest"}
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the project owning path, which may be a test file or a
// directory inside the project.
func (r *Resolver) Resolve(path string) (*Project, error) {
	start, err := r.startDir(path)
	if err != nil {
		return nil, err
	}

	p := &Project{
		extraArgs: r.extraArgs,
		forceExit: r.forceExit,
	}

	if root, ok := ancestor.RootPattern(r.platform, r.markers...)(start); ok {
		p.Root, p.RootSource = root, SourceMarker
	} else if root, ok := ancestor.FindGitAncestor(r.platform, start); ok {
		p.Root, p.RootSource = root, SourceGit
	} else {
		p.Root, p.RootSource = start, SourceFile
	}

	if manifest := r.platform.Join(p.Root, ancestor.PackageJSONMarker); fsutil.IsFile(manifest) {
		p.PackageJSON = manifest
	}

	for _, name := range r.configFiles {
		candidate := r.platform.Join(p.Root, name)
		if fsutil.IsFile(candidate) {
			p.ConfigFile = candidate
			break
		}
	}

	p.Runner = r.runner(start)
	p.ResultsFile = r.results(p.Root)
	return p, nil
}

// IsTestFile reports whether path looks like a Jest test file: its base name
// matches one of the configured patterns or it sits under a __tests__
// directory.
func (r *Resolver) IsTestFile(path string) bool {
	sanitized := r.platform.Sanitize(path)
	base := sanitized
	if idx := strings.LastIndex(sanitized, "/"); idx >= 0 {
		base = sanitized[idx+1:]
	}
	for _, pattern := range r.testPatterns {
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
	}

	if !isScript(base) {
		return false
	}
	return strings.HasPrefix(sanitized, "__tests__/") || strings.Contains(sanitized, "/__tests__/")
}

func isScript(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".js", ".jsx", ".ts", ".tsx", ".mjs", ".cjs":
		return true
	default:
		return false
	}
}

// startDir resolves path to a canonical directory to begin the search from.
func (r *Resolver) startDir(path string) (string, error) {
	if path == "" {
		return "", core.ErrValidation(core.CodeInvalidPath, "empty path")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", core.ErrValidation(core.CodeInvalidPath, fmt.Sprintf("invalid path: %q", path)).WithCause(err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", core.ErrNotFound("file", path)
		}
		return "", core.ErrIO(core.CodeStatFailed, "resolving path").WithCause(err).WithDetail("path", path)
	}
	resolved = r.platform.Sanitize(resolved)

	if fsutil.IsDir(resolved) {
		return resolved, nil
	}
	dir, ok := r.platform.Dirname(resolved)
	if !ok {
		return "", core.ErrValidation(core.CodeInvalidPath, fmt.Sprintf("invalid path: %q", path))
	}
	return dir, nil
}

// runner prefers the jest binary installed in the nearest node_modules.
func (r *Resolver) runner(start string) []string {
	if dir, ok := ancestor.FindNodeModulesAncestor(r.platform, start); ok {
		name := "jest"
		if r.platform.Windows {
			name = "jest.cmd"
		}
		bin := r.platform.Join(dir, ancestor.NodeModulesMarker, ".bin", name)
		if fsutil.IsFile(bin) {
			return []string{r.platform.RestoreNativeSeparators(bin)}
		}
	}
	return append([]string(nil), r.command...)
}

// results picks the JSON output path. A configured relative path is taken
// relative to the project root; with none configured each resolve gets a
// unique file in the temp directory.
func (r *Resolver) results(root string) string {
	if r.resultsFile == "" {
		return filepath.Join(os.TempDir(), "jestbridge-"+uuid.NewString()+".json")
	}
	if filepath.IsAbs(r.resultsFile) || r.platform.IsAbsolute(r.resultsFile) {
		return r.resultsFile
	}
	return filepath.Join(root, r.resultsFile)
}
