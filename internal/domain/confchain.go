package domain

import (
	"simstage.dev/pkg/simstage/internal/adapter"
	m "simstage.dev/pkg/simstage/internal/model"
)

// ConfigChain edits one scenario's structured configuration document on
// top of overlay resolution. Constructing a chain copies the nearest
// ancestor version of the document into the scenario's local directory;
// every edit mutates the cached in-memory tree and marks it dirty.
// Serialization happens only on Flush (or the cache's end-of-command
// FlushAll), never per edit: a scenario may receive dozens of sequential
// edits and per-edit writes are a hazard on shared filesystems.
//
// A chain whose edits are never flushed is a caller bug; the document
// cache logs dirty evictions rather than silently dropping them.
type ConfigChain struct {
	resolver *OverlayResolver
	cache    *adapter.DocumentCache
	doc      *adapter.Document
}

// NewConfigChain resolves the named document for write and loads it
// through the cache.
func NewConfigChain(cache *adapter.DocumentCache, resolver *OverlayResolver, fileName string) (*ConfigChain, error) {
	path, err := resolver.ResolveForWrite(fileName)
	if err != nil {
		return nil, err
	}

	doc, err := cache.Get(path)
	if err != nil {
		return nil, err
	}

	return &ConfigChain{resolver: resolver, cache: cache, doc: doc}, nil
}

// Path returns the local absolute path of the resolved document.
func (c *ConfigChain) Path() string {
	return c.doc.Path()
}

// Dirty reports whether the chain has unflushed edits.
func (c *ConfigChain) Dirty() bool {
	return c.doc.Dirty()
}

// GetComponent returns the file of the named component.
func (c *ConfigChain) GetComponent(name string) (string, error) {
	cfg := c.doc.Config()

	i := cfg.ComponentIndex(name)
	if i < 0 {
		return "", m.NewConfigurationError("component %q was not found in %s", name, c.Path())
	}

	return cfg.Components[i].File, nil
}

// AddComponent appends a new named component. Adding a name that already
// exists is an error; use ReplaceComponent to change an existing entry.
func (c *ConfigChain) AddComponent(name, file string) error {
	cfg := c.doc.Config()

	if cfg.ComponentIndex(name) >= 0 {
		return m.NewConfigurationError("component %q already exists in %s", name, c.Path())
	}

	cfg.Components = append(cfg.Components, m.ConfigComponent{Name: name, File: file})
	c.doc.MarkDirty()

	return nil
}

// InsertComponentAfter inserts a new component immediately after the
// component named by after, which must exist.
func (c *ConfigChain) InsertComponentAfter(name, file, after string) error {
	cfg := c.doc.Config()

	if cfg.ComponentIndex(name) >= 0 {
		return m.NewConfigurationError("component %q already exists in %s", name, c.Path())
	}

	i := cfg.ComponentIndex(after)
	if i < 0 {
		return m.NewConfigurationError("can't insert %q after %q: the latter doesn't exist", name, after)
	}

	entry := m.ConfigComponent{Name: name, File: file}
	cfg.Components = append(cfg.Components[:i+1],
		append([]m.ConfigComponent{entry}, cfg.Components[i+1:]...)...)
	c.doc.MarkDirty()

	return nil
}

// ReplaceComponent sets a new file for an existing named component.
func (c *ConfigChain) ReplaceComponent(name, file string) error {
	cfg := c.doc.Config()

	i := cfg.ComponentIndex(name)
	if i < 0 {
		return m.NewConfigurationError("can't replace component %q: it does not exist in %s", name, c.Path())
	}

	cfg.Components[i].File = file
	c.doc.MarkDirty()

	return nil
}

// DeleteComponent removes an existing named component. Deleting a
// non-existent name is an error, never a silent no-op.
func (c *ConfigChain) DeleteComponent(name string) error {
	cfg := c.doc.Config()

	i := cfg.ComponentIndex(name)
	if i < 0 {
		return m.NewConfigurationError("can't delete component %q: it does not exist in %s", name, c.Path())
	}

	cfg.Components = append(cfg.Components[:i], cfg.Components[i+1:]...)
	c.doc.MarkDirty()

	return nil
}

// SetValue sets a scalar setting in the named section, creating the
// section as needed.
func (c *ConfigChain) SetValue(section, name, value string) {
	cfg := c.doc.Config()

	if cfg.Settings == nil {
		cfg.Settings = map[string]map[string]string{}
	}

	if cfg.Settings[section] == nil {
		cfg.Settings[section] = map[string]string{}
	}

	cfg.Settings[section][name] = value
	c.doc.MarkDirty()
}

// GetValue returns a scalar setting from the named section.
func (c *ConfigChain) GetValue(section, name string) (string, bool) {
	cfg := c.doc.Config()

	values, ok := cfg.Settings[section]
	if !ok {
		return "", false
	}

	value, ok := values[name]

	return value, ok
}

// Flush writes the document if dirty and marks it clean.
func (c *ConfigChain) Flush() error {
	return c.cache.Flush(c.Path())
}
