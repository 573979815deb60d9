package adapter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	m "simstage.dev/pkg/simstage/internal/model"
)

// Document is one cached configuration document plus its dirty state.
// Mutators operate on the in-memory tree and mark it dirty; nothing is
// persisted until the owning cache flushes it.
type Document struct {
	path  string
	doc   *m.ConfigDocument
	dirty bool
}

// Path returns the canonical absolute path the document was read from.
func (d *Document) Path() string {
	return d.path
}

// Config returns the parsed document tree.
func (d *Document) Config() *m.ConfigDocument {
	return d.doc
}

// MarkDirty records that the in-memory tree differs from disk.
func (d *Document) MarkDirty() {
	d.dirty = true
}

// Dirty reports whether the document has unflushed edits.
func (d *Document) Dirty() bool {
	return d.dirty
}

// DocumentCache caches parsed configuration documents keyed by canonical
// absolute path. One scenario may receive dozens of sequential edits, so
// serialization happens once per flush, never per edit. The cache is
// opened at command start and flushed and closed at command end.
type DocumentCache struct {
	mu      sync.Mutex
	entries map[string]*Document
}

// NewDocumentCache constructs an empty DocumentCache.
func NewDocumentCache() *DocumentCache {
	return &DocumentCache{entries: map[string]*Document{}}
}

// Get loads and caches the configuration document at path. Repeated calls
// for the same file return the same Document.
func (c *DocumentCache) Get(path string) (*Document, error) {
	key, err := canonicalPath(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[key]; ok {
		return entry, nil
	}

	data, err := os.ReadFile(key)
	if err != nil {
		return nil, fmt.Errorf("read config document: %w", err)
	}

	var doc m.ConfigDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", key, err)
	}

	slog.Debug("cached config document", "path", key)

	entry := &Document{path: key, doc: &doc}
	c.entries[key] = entry

	return entry, nil
}

// Flush writes the document at path if it is dirty and marks it clean.
func (c *DocumentCache) Flush(path string) error {
	key, err := canonicalPath(path)
	if err != nil {
		return err
	}

	c.mu.Lock()
	entry, ok := c.entries[key]
	c.mu.Unlock()

	if !ok {
		return nil
	}

	return c.write(entry)
}

// FlushAll writes every dirty document exactly once and evicts the whole
// cache. Dirty documents left behind by a caller that never flushes are a
// caller bug; FlushAll is the designated end-of-command flush point.
func (c *DocumentCache) FlushAll() error {
	c.mu.Lock()
	entries := make([]*Document, 0, len(c.entries))
	for _, entry := range c.entries {
		entries = append(entries, entry)
	}
	c.entries = map[string]*Document{}
	c.mu.Unlock()

	for _, entry := range entries {
		if err := c.write(entry); err != nil {
			return err
		}
	}

	return nil
}

func (c *DocumentCache) write(entry *Document) error {
	if !entry.dirty {
		return nil
	}

	data, err := yaml.Marshal(entry.doc)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", entry.path, err)
	}

	// Unlink first: the path may be a symlink into an ancestor scenario
	// and the write must not go through to the source.
	if _, err := os.Lstat(entry.path); err == nil {
		if err := os.Remove(entry.path); err != nil {
			return fmt.Errorf("unlink %s: %w", entry.path, err)
		}
	}

	slog.Info("writing config document", "path", entry.path)

	if err := os.WriteFile(entry.path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", entry.path, err)
	}

	entry.dirty = false

	return nil
}

// canonicalPath resolves path to an absolute, symlink-free key so that two
// spellings of the same file share one cache entry.
func canonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}

	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}

	// The file may not exist yet; fall back to the cleaned absolute path.
	return filepath.Clean(abs), nil
}
