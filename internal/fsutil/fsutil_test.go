package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hugo-lorenzo-mato/jestbridge/internal/core"
)

func TestReadFileScoped_ReadsFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "results.json")
	if err := os.WriteFile(p, []byte(`{"testResults":[]}`), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	b, err := ReadFileScoped(p)
	if err != nil {
		t.Fatalf("ReadFileScoped error: %v", err)
	}
	if string(b) != `{"testResults":[]}` {
		t.Fatalf("unexpected content: %q", string(b))
	}
}

func TestReadFileScoped_RejectsInvalidPath(t *testing.T) {
	for _, p := range []string{"", ".", string(filepath.Separator)} {
		_, err := ReadFileScoped(p)
		if err == nil {
			t.Fatalf("expected error for %q", p)
		}
		if !core.IsCategory(err, core.ErrCatValidation) {
			t.Fatalf("expected validation error for %q, got %v", p, err)
		}
	}
}

func TestReadFileScoped_NonexistentFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "does-not-exist.json")

	_, err := ReadFileScoped(p)
	if err == nil {
		t.Fatal("expected error for nonexistent file")
	}
	if !core.IsCategory(err, core.ErrCatIO) {
		t.Fatalf("expected io error, got %v", err)
	}
}

func TestReadFileScoped_NonexistentDirectory(t *testing.T) {
	p := filepath.Join(t.TempDir(), "nodir", "file.json")

	if _, err := ReadFileScoped(p); err == nil {
		t.Error("expected error for nonexistent directory")
	}
}

func TestOpenScoped_ReadOnly(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(p, []byte("hello"), 0o600); err != nil {
		t.Fatal(err)
	}

	f, err := OpenScoped(p)
	if err != nil {
		t.Fatalf("OpenScoped: %v", err)
	}
	defer f.Close()

	if _, err := f.Write([]byte("x")); err == nil {
		t.Fatal("expected write on read-only descriptor to fail")
	}
}
