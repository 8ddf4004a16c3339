// Package vellum is a template compilation and rendering engine. It turns
// text with {{ }} interpolation markers and {% %} control directives into
// a reusable parsed form, then renders that form against a data context,
// HTML-escaping output by default.
package vellum

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/vellumhq/vellum/pkg/filters"
	"github.com/vellumhq/vellum/pkg/i18n"
)

// Cache persists compiled templates keyed by their resolved source path.
// Load reports a miss when the entry is absent, stale against its recorded
// dependency modification times, or unreadable.
type Cache interface {
	Load(path string) (*ParsedTemplate, bool)
	Store(path string, pt *ParsedTemplate, deps map[string]time.Time) error
}

// Options configures an Engine. Loader is required; everything else has a
// working default.
type Options struct {
	Loader     Loader
	Cache      Cache
	Filters    *filters.Registry
	Translator i18n.Translator
	Locale     string // default locale for the translate filter
	Logger     *slog.Logger
}

// Engine is the render entry point. It is safe for concurrent use: each
// Render call builds its own resolver and loop-context stack, and the
// cache is the only shared resource.
type Engine struct {
	loader  Loader
	cache   Cache
	filters *filters.Registry
	logger  *slog.Logger
}

func New(opts Options) (*Engine, error) {
	if opts.Loader == nil {
		return nil, fmt.Errorf("vellum: Options.Loader is required")
	}
	reg := opts.Filters
	if reg == nil {
		reg = filters.Default()
	}
	if opts.Translator != nil {
		locale := opts.Locale
		if locale == "" {
			locale = "en"
		}
		reg.Register("t", i18n.Filter(opts.Translator, locale))
		reg.Register("translate", i18n.Filter(opts.Translator, locale))
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{
		loader:  opts.Loader,
		cache:   opts.Cache,
		filters: reg,
		logger:  logger,
	}, nil
}

// Render resolves, compiles (or loads from cache) and renders the named
// template against data, returning the output string.
func (e *Engine) Render(name string, data map[string]any) (string, error) {
	pt, err := e.load(name)
	if err != nil {
		return "", err
	}
	return e.renderParsed(pt, data)
}

// Check parses the named template without rendering it, surfacing any
// SyntaxError.
func (e *Engine) Check(name string) error {
	_, err := e.load(name)
	return err
}

// Load compiles the named template, consulting the cache first, and
// returns the parsed form. The returned value must be treated as
// read-only.
func (e *Engine) Load(name string) (*ParsedTemplate, error) {
	return e.load(name)
}

func (e *Engine) load(name string) (*ParsedTemplate, error) {
	path, err := e.loader.Resolve(name)
	if err != nil {
		return nil, err
	}
	if e.cache != nil {
		if pt, ok := e.cache.Load(path); ok {
			return pt, nil
		}
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading template %q: %w", name, err)
	}
	pt, err := Parse(name, string(src))
	if err != nil {
		return nil, err
	}
	if e.cache != nil {
		deps := map[string]time.Time{}
		e.collectDeps(pt, map[string]bool{path: true}, deps)
		if err := e.cache.Store(path, pt, deps); err != nil {
			e.logger.Warn("caching compiled template failed", "template", name, "error", err)
		}
	}
	return pt, nil
}

// collectDeps records the modification time of every template this one
// loads at render time, transitively, so the cache can detect staleness
// in extended and included files. References that do not currently
// resolve are skipped; they become dependencies once they exist and the
// entry is recompiled.
func (e *Engine) collectDeps(pt *ParsedTemplate, seen map[string]bool, deps map[string]time.Time) {
	for _, ref := range templateRefs(pt) {
		path, err := e.loader.Resolve(ref)
		if err != nil || seen[path] {
			continue
		}
		seen[path] = true
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		deps[path] = info.ModTime()
		src, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		sub, err := Parse(ref, string(src))
		if err != nil {
			continue
		}
		e.collectDeps(sub, seen, deps)
	}
}
