package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTOML(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestGetFromFirstFile(t *testing.T) {
	dir := t.TempDir()
	path := writeTOML(t, dir, "settings.toml", "[data]\npath = \"/var/catalog\"\n")

	s := New(FileSpec{Path: path, Environment: true})
	value, err := s.Get("data", "path")
	require.NoError(t, err)
	assert.Equal(t, "/var/catalog", value)
}

func TestEnvironmentOverrideTakesPriority(t *testing.T) {
	dir := t.TempDir()
	path := writeTOML(t, dir, "settings.toml", "[data]\npath = \"/var/catalog\"\n")

	t.Setenv("RECHU_DATA_PATH", "/tmp/override")
	s := New(FileSpec{Path: path, Environment: true})
	value, err := s.Get("data", "path")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/override", value)
}

func TestEnvironmentOverrideHyphenToUnderscore(t *testing.T) {
	dir := t.TempDir()
	path := writeTOML(t, dir, "settings.toml", "[data]\n")

	t.Setenv("RECHU_DATA_MAX_AGE", "30")
	s := New(FileSpec{Path: path, Environment: true})
	value, err := s.Get("data", "max-age")
	require.NoError(t, err)
	assert.Equal(t, "30", value)
}

func TestFallsBackThroughChain(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "missing.toml")
	second := writeTOML(t, dir, "second.toml", "[database]\nuri = \"sqlite://catalog.db\"\n")

	s := New(
		FileSpec{Path: first, Environment: true},
		FileSpec{Path: second, Environment: false},
	)
	value, err := s.Get("database", "uri")
	require.NoError(t, err)
	assert.Equal(t, "sqlite://catalog.db", value)
}

func TestNonexistentFileIsEmptyNotError(t *testing.T) {
	s := New(FileSpec{Path: filepath.Join(t.TempDir(), "absent.toml"), Environment: true})
	_, err := s.Get("data", "path")
	require.Error(t, err)
}

func TestMissingKeyAtEndOfChainFails(t *testing.T) {
	dir := t.TempDir()
	path := writeTOML(t, dir, "settings.toml", "[data]\npath = \"/var/catalog\"\n")

	s := New(FileSpec{Path: path, Environment: true})
	_, err := s.Get("data", "format")
	require.Error(t, err)
}

func TestPrefixDescendsIntoNestedTable(t *testing.T) {
	dir := t.TempDir()
	path := writeTOML(t, dir, "catalog.toml", "[tool.catalog.data]\npath = \"/srv/catalog\"\n")

	s := New(FileSpec{Path: path, Environment: false, Prefix: []string{"tool", "catalog"}})
	value, err := s.Get("data", "path")
	require.NoError(t, err)
	assert.Equal(t, "/srv/catalog", value)
}

func TestInstanceCachesAndClearResets(t *testing.T) {
	Clear()
	dir := t.TempDir()
	path := writeTOML(t, dir, "settings.toml", "[data]\npath = \"/first\"\n")

	original := DefaultChain
	DefaultChain = []FileSpec{{Path: path, Environment: true}}
	defer func() { DefaultChain = original; Clear() }()

	first := Instance()
	value, err := first.Get("data", "path")
	require.NoError(t, err)
	assert.Equal(t, "/first", value)

	require.NoError(t, os.WriteFile(path, []byte("[data]\npath = \"/second\"\n"), 0o644))
	second := Instance()
	assert.Same(t, first, second, "Instance should return the cached singleton until Clear")

	Clear()
	rebuilt := Instance()
	value, err = rebuilt.Get("data", "path")
	require.NoError(t, err)
	assert.Equal(t, "/second", value)
}

func TestDataBundlesAllFiveKeys(t *testing.T) {
	dir := t.TempDir()
	path := writeTOML(t, dir, "settings.toml", `[data]
path = "/var/catalog"
format = "receipts/{date}-{shop}.yml"
pattern = "receipts/*"
products = "products-{shop}.yml"
shops = "shops.yml"
`)

	s := New(FileSpec{Path: path, Environment: true})
	cfg, err := s.Data()
	require.NoError(t, err)
	assert.Equal(t, "/var/catalog", cfg.Path)
	assert.Equal(t, "receipts/{date}-{shop}.yml", cfg.Format)
	assert.Equal(t, "receipts/*", cfg.Pattern)
	assert.Equal(t, "products-{shop}.yml", cfg.Products)
	assert.Equal(t, "shops.yml", cfg.Shops)
}
