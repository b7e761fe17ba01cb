package buildflags

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	vmcperrors "vmcp/internal/errors"
)

const cache = `# This is the CMakeCache file.
// Flags generated by the build spec
J9VM_OPT_METHOD_HANDLE:BOOL=ON
J9VM_OPT_VALHALLA_VALUE_TYPES:BOOL=OFF
J9VM_GC_COMPRESSED_POINTERS:BOOL=true
J9VM_OPT_JITSERVER:BOOL=y
OMR_THR_YIELD_ALG:BOOL=1
J9VM_OPT_SIDECAR:BOOL=no

CMAKE_BUILD_TYPE:STRING=Release
J9VM_OPT_METHOD_HANDLE-ADVANCED:INTERNAL=1
`

func TestParseCache(t *testing.T) {
	p, err := ParseCache(strings.NewReader(cache), DefaultPrefix)
	if err != nil {
		t.Fatalf("ParseCache() error = %v", err)
	}

	tests := []struct {
		flag  string
		valid bool
		set   bool
	}{
		{"opt_methodHandle", true, true},
		{"OPT_METHOD_HANDLE", true, true},
		{"opt_valhallaValueTypes", true, false},
		{"gc_compressedPointers", true, true},
		{"opt_jitserver", true, true},
		{"OMR_THR_YIELD_ALG", true, true},
		{"opt_sidecar", true, false},
		{"CMAKE_BUILD_TYPE", false, false},
		{"opt_unknown", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			if got := p.IsFlagValid(tt.flag); got != tt.valid {
				t.Errorf("IsFlagValid(%q) = %v, want %v", tt.flag, got, tt.valid)
			}
			if got := p.AllSetFlags().Has(tt.flag); got != tt.set {
				t.Errorf("AllSetFlags().Has(%q) = %v, want %v", tt.flag, got, tt.set)
			}
		})
	}
	if got := len(p.KnownFlags()); got != 6 {
		t.Errorf("len(KnownFlags()) = %d, want 6", got)
	}
}

func TestParseCache_Malformed(t *testing.T) {
	for _, input := range []string{"J9VM_OPT_X", "J9VM_OPT_X=ON", ":BOOL=ON"} {
		_, err := ParseCache(strings.NewReader(input), DefaultPrefix)
		if !vmcperrors.Is(err, vmcperrors.ConfigInvalid) {
			t.Errorf("ParseCache(%q) error = %v, want %s", input, err, vmcperrors.ConfigInvalid)
		}
	}
}

func TestParseCache_NoPrefix(t *testing.T) {
	p, err := ParseCache(strings.NewReader("J9VM_OPT_X:BOOL=ON\n"), "")
	if err != nil {
		t.Fatal(err)
	}
	if p.IsFlagValid("opt_x") {
		t.Error("prefix was stripped although none was configured")
	}
	if !p.IsFlagValid("J9VM_OPT_X") {
		t.Error("unprefixed lookup failed")
	}
}

func TestLoadCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "CMakeCache.txt")
	if err := os.WriteFile(path, []byte(cache), 0644); err != nil {
		t.Fatal(err)
	}
	p, err := LoadCache(path, DefaultPrefix)
	if err != nil {
		t.Fatalf("LoadCache() error = %v", err)
	}
	if p.Path() != path {
		t.Errorf("Path() = %q", p.Path())
	}

	if _, err := LoadCache(filepath.Join(t.TempDir(), "missing"), DefaultPrefix); err == nil {
		t.Error("LoadCache() of a missing file succeeded")
	}
}

func TestValidate(t *testing.T) {
	p := NewStaticProvider("opt_a").WithKnown("opt_b")

	if err := Validate(p, []string{"opt_a", "OPT_B"}); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	err := Validate(p, []string{"opt_a", "opt_c"})
	if !vmcperrors.Is(err, vmcperrors.UnknownFlag) {
		t.Fatalf("Validate() error = %v, want %s", err, vmcperrors.UnknownFlag)
	}
	if !strings.Contains(err.Error(), "opt_c") {
		t.Errorf("error %q does not name the flag", err)
	}
}

func TestStaticProvider_Permissive(t *testing.T) {
	p := NewStaticProvider("opt_a")
	if !p.IsFlagValid("anything") {
		t.Error("static provider without a known list should accept every flag")
	}
	if !p.AllSetFlags().Has("OPT_A") {
		t.Error("set flag not reported")
	}
}

func TestWithExtra(t *testing.T) {
	base := NewStaticProvider("opt_a").WithKnown("opt_b")
	p := WithExtra(base, "opt_c")

	set := p.AllSetFlags()
	if !set.Has("opt_a") || !set.Has("opt_c") || set.Has("opt_b") {
		t.Errorf("AllSetFlags() = %s", set)
	}
	if !p.IsFlagValid("opt_c") || !p.IsFlagValid("opt_b") || p.IsFlagValid("opt_d") {
		t.Error("validity does not combine base and extra flags")
	}
	if WithExtra(base) != Provider(base) {
		t.Error("WithExtra without flags should return the base provider")
	}
}

type specSource map[string]map[string]bool

func (s specSource) Flags(_ context.Context, id string) (map[string]bool, error) {
	flags, ok := s[id]
	if !ok {
		return nil, vmcperrors.Newf(vmcperrors.SpecNotFound, "build spec %q is not in the store", id)
	}
	return flags, nil
}

func TestSpecProvider(t *testing.T) {
	src := specSource{"linux": {"opt_methodHandle": true, "opt_valhallaValueTypes": false}}

	p, err := NewSpecProvider(context.Background(), src, "linux")
	if err != nil {
		t.Fatalf("NewSpecProvider() error = %v", err)
	}
	if p.SpecID() != "linux" {
		t.Errorf("SpecID() = %q", p.SpecID())
	}
	if !p.AllSetFlags().Has("opt_methodhandle") || p.AllSetFlags().Len() != 1 {
		t.Errorf("AllSetFlags() = %s", p.AllSetFlags())
	}
	if !p.IsFlagValid("opt_valhallaValueTypes") {
		t.Error("off flag should still be valid")
	}

	_, err = NewSpecProvider(context.Background(), src, "aix")
	if !vmcperrors.Is(err, vmcperrors.SpecNotFound) {
		t.Errorf("NewSpecProvider(aix) error = %v, want %s", err, vmcperrors.SpecNotFound)
	}
}

func TestWithExtra_KnownFlags(t *testing.T) {
	if known := WithExtra(NewStaticProvider(), "opt_c").(Lister).KnownFlags(); known != nil {
		t.Errorf("KnownFlags() over a static provider = %v, want nil", known)
	}

	cache, err := ParseCache(strings.NewReader("J9VM_OPT_A:BOOL=ON\nJ9VM_OPT_B:BOOL=OFF\n"), DefaultPrefix)
	if err != nil {
		t.Fatal(err)
	}
	known := WithExtra(cache, "opt_c").(Lister).KnownFlags()
	want := []string{"OPT_A", "OPT_B", "opt_c"}
	if len(known) != len(want) {
		t.Fatalf("KnownFlags() = %v, want %v", known, want)
	}
	for i := range want {
		if known[i] != want[i] {
			t.Errorf("KnownFlags()[%d] = %q, want %q", i, known[i], want[i])
		}
	}
}
