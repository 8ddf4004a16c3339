package vellum

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDirLoaderFirstRootWins(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	for dir, content := range map[string]string{a: "from a", b: "from b"} {
		if err := os.WriteFile(filepath.Join(dir, "page.html"), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	l := DirLoader{Roots: []string{a, b}}
	path, err := l.Resolve("page.html")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if filepath.Dir(path) != a {
		t.Fatalf("resolved into %q, want first root %q", filepath.Dir(path), a)
	}
}

func TestDirLoaderMissingTemplate(t *testing.T) {
	l := DirLoader{Roots: []string{t.TempDir()}}
	_, err := l.Resolve("nope.html")
	var nf *TemplateNotFoundError
	if !errors.As(err, &nf) || nf.Name != "nope.html" {
		t.Fatalf("got %v", err)
	}
}

func TestDirLoaderRejectsPathEscape(t *testing.T) {
	outer := t.TempDir()
	root := filepath.Join(outer, "templates")
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(outer, "secret.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	l := DirLoader{Roots: []string{root}}
	if _, err := l.Resolve("../secret.txt"); err == nil {
		t.Fatal("escaping name must not resolve")
	}
}

func TestRenderMissingTemplate(t *testing.T) {
	e := newTestEngine(t, nil)
	_, err := e.Render("ghost.html", nil)
	var nf *TemplateNotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("got %v", err)
	}
}
