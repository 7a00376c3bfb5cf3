// Package fsutil holds path conventions and scoped file access shared by the
// resolver, the results loader and the streamer.
package fsutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hugo-lorenzo-mato/jestbridge/internal/core"
)

// OpenScoped opens a file read-only through an os.Root anchored at the file's
// directory, so the returned descriptor cannot escape that directory.
func OpenScoped(path string) (*os.File, error) {
	cleaned := filepath.Clean(path)
	dir := filepath.Dir(cleaned)
	base := filepath.Base(cleaned)
	if base == "" || base == "." || base == string(filepath.Separator) {
		return nil, core.ErrValidation(core.CodeInvalidPath, fmt.Sprintf("invalid file path: %q", path))
	}

	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, core.ErrIO(core.CodeOpenFailed, "opening directory").
			WithCause(err).
			WithDetail("path", dir)
	}
	defer root.Close()

	file, err := root.Open(base)
	if err != nil {
		return nil, core.ErrIO(core.CodeOpenFailed, "opening file").
			WithCause(err).
			WithDetail("path", cleaned)
	}
	return file, nil
}

// ReadFileScoped reads a whole file opened with OpenScoped.
func ReadFileScoped(path string) ([]byte, error) {
	file, err := OpenScoped(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, core.ErrIO(core.CodeReadFailed, "reading file").
			WithCause(err).
			WithDetail("path", path)
	}
	return data, nil
}
