package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/aretw0/vanity/pkg/domain"
	"gopkg.in/yaml.v3"
)

const (
	// VanityFile holds named connection specs keyed by environment.
	VanityFile = "vanity.yml"
	// RedisFile holds "host:port[/db]" strings keyed by environment.
	RedisFile = "redis.yml"
)

// Source looks up named connection entries (symbolic aliases).
type Source interface {
	// Lookup returns the raw entry for name: a URI string or a map.
	// found is false when the source has no such entry.
	Lookup(name string) (entry any, found bool, err error)
}

// FileSource is a Source backed by an environment-keyed YAML file.
// The file is read on every lookup, so edits apply to the next resolution.
type FileSource struct {
	Path string
}

// NewFileSource creates a FileSource for the given file.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// Exists reports whether the backing file is present.
func (s *FileSource) Exists() bool {
	info, err := os.Stat(s.Path)
	return err == nil && !info.IsDir()
}

// Lookup implements Source.
func (s *FileSource) Lookup(name string) (any, bool, error) {
	entries, err := s.load()
	if err != nil {
		return nil, false, err
	}
	entry, ok := entries[name]
	if !ok || entry == nil {
		return nil, false, nil
	}
	return entry, true, nil
}

// MustLookup is Lookup that reports a missing entry as a ConfigurationError.
func (s *FileSource) MustLookup(name string) (any, error) {
	entry, found, err := s.Lookup(name)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &domain.ConfigurationError{
			Source: s.Path,
			Msg:    fmt.Sprintf("no configuration for %s", name),
		}
	}
	return entry, nil
}

func (s *FileSource) load() (map[string]any, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &domain.ConfigurationError{Source: s.Path, Msg: "file not found", Err: err}
		}
		return nil, &domain.ConfigurationError{Source: s.Path, Msg: "failed to read", Err: err}
	}

	var entries map[string]any
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, &domain.ConfigurationError{Source: s.Path, Msg: "failed to parse", Err: err}
	}
	return entries, nil
}

// Files locates the configuration files under a directory.
type Files struct {
	Dir string
}

// Vanity returns the source for vanity.yml.
func (f Files) Vanity() *FileSource {
	return NewFileSource(filepath.Join(f.Dir, VanityFile))
}

// Redis returns the source for redis.yml.
func (f Files) Redis() *FileSource {
	return NewFileSource(filepath.Join(f.Dir, RedisFile))
}

// MapSource is an in-memory Source, handy for tests and embedding.
type MapSource map[string]any

// Lookup implements Source.
func (m MapSource) Lookup(name string) (any, bool, error) {
	entry, ok := m[name]
	return entry, ok && entry != nil, nil
}
