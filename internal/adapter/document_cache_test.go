package adapter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	m "simstage.dev/pkg/simstage/internal/model"
)

const cacheTestDoc = `
scenario-components:
  - name: energy
    file: energy.yaml
`

func writeTestDoc(t *testing.T, dir string) string {
	t.Helper()

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cacheTestDoc), 0o644))

	return path
}

func TestDocumentCacheGetReturnsSameEntry(t *testing.T) {
	path := writeTestDoc(t, t.TempDir())
	cache := NewDocumentCache()

	first, err := cache.Get(path)
	require.NoError(t, err)

	second, err := cache.Get(path)
	require.NoError(t, err)

	require.Same(t, first, second)
	require.Equal(t, "energy", first.Config().Components[0].Name)
}

func TestDocumentCacheCanonicalizesSpellings(t *testing.T) {
	dir := t.TempDir()
	path := writeTestDoc(t, dir)
	cache := NewDocumentCache()

	first, err := cache.Get(path)
	require.NoError(t, err)

	second, err := cache.Get(filepath.Join(dir, ".", "config.yaml"))
	require.NoError(t, err)

	require.Same(t, first, second)
}

func TestDocumentCacheFlushWritesOnlyDirty(t *testing.T) {
	path := writeTestDoc(t, t.TempDir())
	cache := NewDocumentCache()

	doc, err := cache.Get(path)
	require.NoError(t, err)

	original, err := os.ReadFile(path)
	require.NoError(t, err)

	// Clean flush leaves the file byte-identical.
	require.NoError(t, cache.Flush(path))
	after, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, original, after)

	doc.Config().Components = append(doc.Config().Components,
		m.ConfigComponent{Name: "land", File: "land.yaml"})
	doc.MarkDirty()

	require.NoError(t, cache.Flush(path))
	require.False(t, doc.Dirty())

	var onDisk m.ConfigDocument
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, yaml.Unmarshal(data, &onDisk))
	require.Len(t, onDisk.Components, 2)
}

func TestDocumentCacheFlushUnknownPathIsNoop(t *testing.T) {
	cache := NewDocumentCache()
	require.NoError(t, cache.Flush(filepath.Join(t.TempDir(), "nope.yaml")))
}

func TestDocumentCacheFlushAllEvicts(t *testing.T) {
	path := writeTestDoc(t, t.TempDir())
	cache := NewDocumentCache()

	doc, err := cache.Get(path)
	require.NoError(t, err)

	doc.Config().Settings = map[string]map[string]string{"model": {"stop-year": "2100"}}
	doc.MarkDirty()

	require.NoError(t, cache.FlushAll())

	// After eviction a fresh Get re-reads from disk and sees the flushed
	// edit through a new entry.
	fresh, err := cache.Get(path)
	require.NoError(t, err)
	require.NotSame(t, doc, fresh)
	require.Equal(t, "2100", fresh.Config().Settings["model"]["stop-year"])
}

func TestDocumentCacheFollowsSymlinkSpelling(t *testing.T) {
	dir := t.TempDir()
	target := writeTestDoc(t, dir)

	link := filepath.Join(dir, "link.yaml")
	require.NoError(t, os.Symlink(target, link))

	cache := NewDocumentCache()

	viaLink, err := cache.Get(link)
	require.NoError(t, err)

	viaTarget, err := cache.Get(target)
	require.NoError(t, err)

	require.Same(t, viaLink, viaTarget)
}

func TestDocumentCacheGetMissingFile(t *testing.T) {
	cache := NewDocumentCache()

	_, err := cache.Get(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestDocumentCacheGetMalformedDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scenario-components: {not: a list}"), 0o644))

	cache := NewDocumentCache()
	_, err := cache.Get(path)
	require.Error(t, err)
}
