// Package testutil provides testing utilities for golden tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// Fixture names a directory of golden files owned by one test package.
type Fixture struct {
	// Root is the absolute path of the package's testdata directory.
	Root string

	// ExpectedDir holds the golden files.
	ExpectedDir string

	// Ext is appended to golden names, e.g. ".h".
	Ext string
}

// LoadFixture resolves testdata/<name> relative to the test's working
// directory, which is always the package directory under go test.
func LoadFixture(t *testing.T, name string) *Fixture {
	t.Helper()

	root, err := filepath.Abs("testdata")
	if err != nil {
		t.Fatalf("Failed to resolve testdata: %v", err)
	}
	if _, err := os.Stat(root); os.IsNotExist(err) {
		t.Fatalf("Fixture directory not found: %s", root)
	}

	expectedDir := filepath.Join(root, name)
	if _, err := os.Stat(expectedDir); os.IsNotExist(err) {
		if err := os.MkdirAll(expectedDir, 0o755); err != nil {
			t.Fatalf("Failed to create expected directory: %v", err)
		}
	}
	return &Fixture{Root: root, ExpectedDir: expectedDir}
}

// Path returns the absolute path of a file under testdata.
func (f *Fixture) Path(parts ...string) string {
	return filepath.Join(append([]string{f.Root}, parts...)...)
}

// ExpectedPath returns the path to a golden file within the fixture.
func (f *Fixture) ExpectedPath(name string) string {
	return filepath.Join(f.ExpectedDir, name+f.Ext)
}
