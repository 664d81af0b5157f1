package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/vanity/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileSource_Lookup(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, VanityFile, `
development: "mock:"
production:
  adapter: redis
  host: redis.internal
  port: 6380
`)
	src := Files{Dir: dir}.Vanity()
	assert.True(t, src.Exists())

	entry, found, err := src.Lookup("development")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "mock:", entry)

	entry, found, err = src.Lookup("production")
	require.NoError(t, err)
	assert.True(t, found)
	m, ok := entry.(map[string]any)
	require.True(t, ok, "mapping entries decode to map[string]any, got %T", entry)
	assert.Equal(t, "redis.internal", m["host"])
	assert.Equal(t, 6380, m["port"])

	_, found, err = src.Lookup("staging")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFileSource_MustLookupMissing(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, RedisFile, "development: localhost:6379\n")

	_, err := Files{Dir: dir}.Redis().MustLookup("production")
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.Contains(t, err.Error(), "no configuration for production")
}

func TestFileSource_Malformed(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, VanityFile, "development: [unclosed\n")

	_, _, err := Files{Dir: dir}.Vanity().Lookup("development")
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestFileSource_Missing(t *testing.T) {
	src := Files{Dir: t.TempDir()}.Vanity()
	assert.False(t, src.Exists())

	_, _, err := src.Lookup("development")
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestMapSource(t *testing.T) {
	src := MapSource{"test": "mock:", "empty": nil}

	entry, found, err := src.Lookup("test")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "mock:", entry)

	_, found, _ = src.Lookup("empty")
	assert.False(t, found)
}
