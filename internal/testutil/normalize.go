package testutil

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"vmcp/internal/version"
)

// GeneratorPlaceholder replaces the tool version in golden files so they
// survive a release.
const GeneratorPlaceholder = "vmcp (devel)"

// NormalizeText makes generated text stable across machines and releases:
// line endings become \n, the fixture root becomes <testdata>, and the
// generator banner loses its version.
func NormalizeText(fixture *Fixture, data []byte) []byte {
	out := bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	if fixture != nil && fixture.Root != "" {
		out = bytes.ReplaceAll(out, []byte(filepath.ToSlash(fixture.Root)), []byte("<testdata>"))
	}
	out = bytes.ReplaceAll(out, []byte(version.Generator()), []byte(GeneratorPlaceholder))
	if len(out) > 0 && out[len(out)-1] != '\n' {
		out = append(out, '\n')
	}
	return out
}

// MarshalNormalized renders v as indented JSON and normalizes it.
func MarshalNormalized(t *testing.T, fixture *Fixture, v any) []byte {
	t.Helper()

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal golden data: %v", err)
	}
	return NormalizeText(fixture, data)
}
