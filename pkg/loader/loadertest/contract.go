// Package loadertest holds reusable checks for loader.Source implementations.
package loadertest

import (
	"path"
	"testing"

	"github.com/aretw0/vanity/pkg/loader"
)

// SourceContractTest verifies that source complies with loader.Source.
// setupData maps every file the source holds (slash separated, relative to its root) to its content.
func SourceContractTest(t *testing.T, source loader.Source, setupData map[string][]byte) {
	t.Helper()

	// 1. Read (Success)
	t.Run("Read_Success", func(t *testing.T) {
		for file, expectedContent := range setupData {
			content, err := source.Read(file)
			if err != nil {
				t.Fatalf("unexpected error reading %s: %v", file, err)
			}
			if string(content) != string(expectedContent) {
				t.Errorf("content mismatch for %s. got %q, want %q", file, content, expectedContent)
			}
		}
	})

	// 2. Read (NotFound)
	t.Run("Read_NotFound", func(t *testing.T) {
		_, err := source.Read("non-existent-definition.yml")
		if err == nil {
			t.Error("expected error for non-existent file, got nil")
		}
	})

	// 3. List groups files by directory
	t.Run("List", func(t *testing.T) {
		byDir := make(map[string][]string)
		for file := range setupData {
			dir := path.Dir(file)
			byDir[dir] = append(byDir[dir], file)
		}

		for dir, expected := range byDir {
			files, err := source.List(dir)
			if err != nil {
				t.Fatalf("unexpected error listing %s: %v", dir, err)
			}
			if len(files) != len(expected) {
				t.Errorf("expected %d files in %s, got %d", len(expected), dir, len(files))
			}

			lookup := make(map[string]bool)
			for _, f := range files {
				lookup[f] = true
			}
			for _, f := range expected {
				if !lookup[f] {
					t.Errorf("file %s missing from list of %s", f, dir)
				}
			}

			for i := 1; i < len(files); i++ {
				if files[i-1] > files[i] {
					t.Errorf("list of %s is not sorted: %v", dir, files)
					break
				}
			}
		}
	})

	// 4. List of a missing directory is empty
	t.Run("List_MissingDir", func(t *testing.T) {
		files, err := source.List("no-such-dir")
		if err != nil {
			t.Fatalf("unexpected error listing missing dir: %v", err)
		}
		if len(files) != 0 {
			t.Errorf("expected no files, got %v", files)
		}
	})
}
