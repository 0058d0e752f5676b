package pathguard

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func newGuard(t *testing.T) *Guard {
	t.Helper()
	g, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return g
}

func TestNew_RootMustBeDir(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(file); err == nil {
		t.Fatal("expected error for file root")
	}
	if _, err := New(filepath.Join(dir, "missing")); err == nil {
		t.Fatal("expected error for missing root")
	}
}

func TestResolve_Inside(t *testing.T) {
	g := newGuard(t)
	if err := os.Mkdir(filepath.Join(g.Root(), "docs"), 0o755); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		in   string
		want string
	}{
		{"a.txt", filepath.Join(g.Root(), "a.txt")},
		{"docs/b.docx", filepath.Join(g.Root(), "docs", "b.docx")},
		{"docs/../c.txt", filepath.Join(g.Root(), "c.txt")},
		{filepath.Join(g.Root(), "docs", "new", "d.txt"), filepath.Join(g.Root(), "docs", "new", "d.txt")},
		{".", g.Root()},
	}
	for _, tt := range tests {
		got, err := g.Resolve(tt.in)
		if err != nil {
			t.Errorf("Resolve(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResolve_Outside(t *testing.T) {
	g := newGuard(t)
	for _, in := range []string{
		"../escape.txt",
		"docs/../../escape.txt",
		"/etc/passwd",
		filepath.Dir(g.Root()),
	} {
		_, err := g.Resolve(in)
		if !errors.Is(err, ErrOutsideRoot) {
			t.Errorf("Resolve(%q) err = %v, want ErrOutsideRoot", in, err)
		}
		if !errors.Is(err, fs.ErrPermission) {
			t.Errorf("Resolve(%q) does not match fs.ErrPermission", in)
		}
	}
}

func TestResolve_SymlinkEscape(t *testing.T) {
	g := newGuard(t)
	outside := t.TempDir()
	link := filepath.Join(g.Root(), "out")
	if err := os.Symlink(outside, link); err != nil {
		t.Skipf("symlink: %v", err)
	}
	if _, err := g.Resolve("out/secret.txt"); !errors.Is(err, ErrOutsideRoot) {
		t.Fatalf("err = %v, want ErrOutsideRoot", err)
	}
}

func TestResolve_Invalid(t *testing.T) {
	g := newGuard(t)
	if _, err := g.Resolve(""); err == nil {
		t.Fatal("expected error for empty path")
	}
	if _, err := g.Resolve("a\x00b"); err == nil {
		t.Fatal("expected error for NUL")
	}
}
