package loader

import (
	"errors"
	"io/fs"
	"os"
	"path"
)

// Source enumerates and reads definition files.
type Source interface {
	// List returns the files directly inside dir, in a stable order.
	// A missing dir yields an empty list.
	List(dir string) ([]string, error)

	// Read returns the content of a file returned by List.
	Read(file string) ([]byte, error)
}

// FSSource is a Source over an fs.FS.
type FSSource struct {
	fsys fs.FS
}

// NewFSSource creates a Source over fsys.
func NewFSSource(fsys fs.FS) *FSSource {
	return &FSSource{fsys: fsys}
}

// NewDirSource creates a Source rooted at a directory on disk.
func NewDirSource(dir string) *FSSource {
	return NewFSSource(os.DirFS(dir))
}

// List implements Source. Entries come back sorted by name.
func (s *FSSource) List(dir string) ([]string, error) {
	entries, err := fs.ReadDir(s.fsys, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		files = append(files, path.Join(dir, e.Name()))
	}
	return files, nil
}

// Read implements Source.
func (s *FSSource) Read(file string) ([]byte, error) {
	return fs.ReadFile(s.fsys, file)
}
