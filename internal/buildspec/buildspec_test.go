package buildspec

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	vmcperrors "vmcp/internal/errors"
	"vmcp/internal/slogutil"
)

const linuxSpec = `
id = "linux_x86-64"
name = "Linux x86-64"

[flags]
opt_methodHandle = true
opt_valhallaValueTypes = false
gc_compressedPointers = true
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), ".vmcp", "buildspec.db"), slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestLoadSpecFile(t *testing.T) {
	spec, err := LoadSpecFile(writeFile(t, "linux.toml", linuxSpec))
	if err != nil {
		t.Fatalf("LoadSpecFile() error = %v", err)
	}
	if spec.ID != "linux_x86-64" || spec.Name != "Linux x86-64" {
		t.Errorf("spec = %+v", spec)
	}
	if len(spec.Flags) != 3 {
		t.Errorf("len(Flags) = %d, want 3", len(spec.Flags))
	}
	enabled := spec.Enabled()
	if len(enabled) != 2 || enabled[0] != "gc_compressedPointers" || enabled[1] != "opt_methodHandle" {
		t.Errorf("Enabled() = %v", enabled)
	}
}

func TestLoadSpecFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing id", "name = \"x\"\n"},
		{"unknown key", "id = \"x\"\n[flag]\nopt_a = true\n"},
		{"not toml", "id = \n"},
		{"id with space", "id = \"a b\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSpecFile(writeFile(t, "spec.toml", tt.content))
			if !vmcperrors.Is(err, vmcperrors.InvalidDeclaration) {
				t.Errorf("LoadSpecFile() error = %v, want %s", err, vmcperrors.InvalidDeclaration)
			}
		})
	}
}

func TestSpec_EncodeRoundTrip(t *testing.T) {
	spec := &Spec{ID: "aix", Name: "AIX", Flags: map[string]bool{"opt_jitserver": false, "opt_sidecar": true}}

	var buf bytes.Buffer
	if err := spec.Encode(&buf); err != nil {
		t.Fatal(err)
	}
	decoded, err := LoadSpecFile(writeFile(t, "aix.toml", buf.String()))
	if err != nil {
		t.Fatalf("LoadSpecFile() error = %v\n%s", err, buf.String())
	}
	if decoded.ID != spec.ID || len(decoded.Flags) != 2 || !decoded.Flags["opt_sidecar"] {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestStore_ImportAndFlags(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	spec, err := LoadSpecFile(writeFile(t, "linux.toml", linuxSpec))
	if err != nil {
		t.Fatal(err)
	}
	if err := store.ImportSpec(ctx, spec); err != nil {
		t.Fatalf("ImportSpec() error = %v", err)
	}

	flags, err := store.Flags(ctx, "linux_x86-64")
	if err != nil {
		t.Fatalf("Flags() error = %v", err)
	}
	if len(flags) != 3 || !flags["opt_methodHandle"] || flags["opt_valhallaValueTypes"] {
		t.Errorf("Flags() = %v", flags)
	}

	// Re-import replaces the flag set.
	spec.Flags = map[string]bool{"opt_valhallaValueTypes": true}
	if err := store.ImportSpec(ctx, spec); err != nil {
		t.Fatal(err)
	}
	flags, err = store.Flags(ctx, "linux_x86-64")
	if err != nil {
		t.Fatal(err)
	}
	if len(flags) != 1 || !flags["opt_valhallaValueTypes"] {
		t.Errorf("Flags() after re-import = %v", flags)
	}
}

func TestStore_ListSpecs(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	for _, spec := range []*Spec{
		{ID: "zos", Flags: map[string]bool{"a": true, "b": false}},
		{ID: "aix", Name: "AIX"},
	} {
		if err := store.ImportSpec(ctx, spec); err != nil {
			t.Fatal(err)
		}
	}

	specs, err := store.ListSpecs(ctx)
	if err != nil {
		t.Fatalf("ListSpecs() error = %v", err)
	}
	if len(specs) != 2 {
		t.Fatalf("len(specs) = %d, want 2", len(specs))
	}
	if specs[0].ID != "aix" || specs[1].ID != "zos" {
		t.Errorf("order = %s, %s", specs[0].ID, specs[1].ID)
	}
	if specs[1].Enabled != 1 || specs[1].Total != 2 {
		t.Errorf("zos counts = %d/%d, want 1/2", specs[1].Enabled, specs[1].Total)
	}
	if specs[0].Total != 0 {
		t.Errorf("aix has %d flags, want 0", specs[0].Total)
	}
}

func TestStore_SpecNotFound(t *testing.T) {
	store := openStore(t)
	_, err := store.Flags(context.Background(), "missing")
	if !vmcperrors.Is(err, vmcperrors.SpecNotFound) {
		t.Errorf("Flags() error = %v, want %s", err, vmcperrors.SpecNotFound)
	}
}

func TestStore_Runs(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	first, err := store.RecordRun(ctx, Run{SpecID: "linux", Version: 8, Flags: "{}", Slots: 9, Bytes: 176, Digest: "aa", CreatedAt: base})
	if err != nil {
		t.Fatalf("RecordRun() error = %v", err)
	}
	if first.ID == "" {
		t.Fatal("run has no id")
	}
	second, err := store.RecordRun(ctx, Run{Version: 11, Flags: "{x}", Slots: 9, Bytes: 200, Digest: "bb", CreatedAt: base.Add(time.Second)})
	if err != nil {
		t.Fatal(err)
	}
	if second.ID == first.ID {
		t.Error("run ids are not unique")
	}

	runs, err := store.ListRuns(ctx, "", 0)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 2 || runs[0].ID != second.ID {
		t.Fatalf("ListRuns() = %+v, want newest first", runs)
	}
	if !runs[1].CreatedAt.Equal(base) || runs[1].SpecID != "linux" || runs[1].Digest != "aa" {
		t.Errorf("stored run = %+v", runs[1])
	}

	runs, err = store.ListRuns(ctx, "linux", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].ID != first.ID {
		t.Errorf("ListRuns(linux) = %+v", runs)
	}

	runs, err = store.ListRuns(ctx, "", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Errorf("ListRuns(limit 1) returned %d runs", len(runs))
	}
}

func TestStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "buildspec.db")

	store, err := Open(path, slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatal(err)
	}
	if err := store.ImportSpec(ctx, &Spec{ID: "linux", Flags: map[string]bool{"a": true}}); err != nil {
		t.Fatal(err)
	}
	store.Close()

	store, err = Open(path, slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer store.Close()
	if _, err := store.GetSpec(ctx, "linux"); err != nil {
		t.Errorf("GetSpec() after reopen error = %v", err)
	}
}
