package vellum

import (
	"os"
	"path/filepath"
	"strings"
)

// Loader resolves a template name to its filesystem path. It is the path
// resolver collaborator used by Render, includes and inheritance loading.
type Loader interface {
	Resolve(name string) (string, error)
}

// DirLoader resolves names against an ordered list of root directories,
// first hit wins. Names are confined to their root; a name that escapes
// via ".." is treated as not found.
type DirLoader struct {
	Roots []string
}

func (l DirLoader) Resolve(name string) (string, error) {
	for _, root := range l.Roots {
		path := filepath.Join(root, filepath.FromSlash(name))
		abs, err := filepath.Abs(path)
		if err != nil {
			continue
		}
		absRoot, err := filepath.Abs(root)
		if err != nil || !strings.HasPrefix(abs, absRoot+string(filepath.Separator)) {
			continue
		}
		if info, err := os.Stat(abs); err == nil && !info.IsDir() {
			return abs, nil
		}
	}
	return "", &TemplateNotFoundError{Name: name}
}
