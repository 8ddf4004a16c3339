// Package cache persists compiled templates on disk, keyed by source
// path and validated against the modification times of the source and
// every template it transitively extends or includes.
package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/natefinch/atomic"

	"github.com/vellumhq/vellum/pkg/vellum"
)

// formatVersion tags every artifact; bump it whenever the node encoding
// changes and old entries silently recompile.
const formatVersion = 1

// Store is a directory of JSON artifacts, one per compiled template.
// Writes go to a temporary file and are renamed into place, so concurrent
// readers see either the old or the new complete artifact, never a
// partial one.
type Store struct {
	dir    string
	logger *slog.Logger
}

func New(dir string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{dir: dir, logger: logger}, nil
}

type entry struct {
	Version    int              `json:"version"`
	Source     string           `json:"source"`
	CompiledAt time.Time        `json:"compiled_at"`
	Deps       map[string]int64 `json:"deps,omitempty"` // dep path -> mtime unix nano at compile
	Parent     string           `json:"parent,omitempty"`
	Nodes      []nodeJSON       `json:"nodes"`
}

// Load returns the cached compilation of the template at path, or a miss
// when the entry is absent or stale. Corrupt artifacts are deleted and
// reported as a miss, never as an error.
func (s *Store) Load(path string) (*vellum.ParsedTemplate, bool) {
	ep := s.entryPath(path)
	data, err := os.ReadFile(ep)
	if err != nil {
		return nil, false
	}
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		s.discard(ep, err)
		return nil, false
	}
	if e.Version != formatVersion || e.Source != path {
		s.discard(ep, nil)
		return nil, false
	}
	info, err := os.Stat(path)
	if err != nil || info.ModTime().After(e.CompiledAt) {
		return nil, false
	}
	for dep, mtime := range e.Deps {
		di, err := os.Stat(dep)
		if err != nil || di.ModTime().UnixNano() > mtime {
			return nil, false
		}
	}
	nodes, err := decodeNodes(e.Nodes)
	if err != nil {
		s.discard(ep, err)
		return nil, false
	}
	return vellum.NewParsedTemplate(nodes, e.Parent), true
}

// Store writes the compiled template atomically. deps maps every
// transitively referenced template file to its modification time at
// compile time.
func (s *Store) Store(path string, pt *vellum.ParsedTemplate, deps map[string]time.Time) error {
	e := entry{
		Version:    formatVersion,
		Source:     path,
		CompiledAt: time.Now(),
		Parent:     pt.Parent,
		Nodes:      encodeNodes(pt.Nodes),
	}
	if len(deps) > 0 {
		e.Deps = make(map[string]int64, len(deps))
		for p, t := range deps {
			e.Deps[p] = t.UnixNano()
		}
	}
	data, err := json.Marshal(&e)
	if err != nil {
		return err
	}
	return atomic.WriteFile(s.entryPath(path), bytes.NewReader(data))
}

// Invalidate drops the entry for path and every entry that recorded path
// as a dependency. The watcher calls this when a template file changes.
func (s *Store) Invalidate(path string) {
	_ = os.Remove(s.entryPath(path))
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return
	}
	for _, de := range entries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".json") {
			continue
		}
		ep := filepath.Join(s.dir, de.Name())
		data, err := os.ReadFile(ep)
		if err != nil {
			continue
		}
		var e entry
		if err := json.Unmarshal(data, &e); err != nil {
			s.discard(ep, err)
			continue
		}
		if _, ok := e.Deps[path]; ok {
			_ = os.Remove(ep)
			s.logger.Debug("invalidated dependent cache entry", "source", e.Source, "dependency", path)
		}
	}
}

// Purge removes every artifact in the store.
func (s *Store) Purge() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}
	for _, de := range entries {
		if !de.IsDir() && strings.HasSuffix(de.Name(), ".json") {
			if err := os.Remove(filepath.Join(s.dir, de.Name())); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Store) entryPath(src string) string {
	sum := sha256.Sum256([]byte(src))
	return filepath.Join(s.dir, hex.EncodeToString(sum[:])+".json")
}

func (s *Store) discard(entryPath string, reason error) {
	s.logger.Warn("discarding corrupt cache entry", "path", entryPath, "error", reason)
	_ = os.Remove(entryPath)
}
