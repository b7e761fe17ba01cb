package declaration

import (
	"path/filepath"
	"strings"
	"testing"

	"vmcp/internal/catalog"
	vmcperrors "vmcp/internal/errors"
	"vmcp/internal/predicate"
)

var wantIDs = []string{
	"JAVALANGOBJECT",
	"JAVALANGSTRING",
	"JAVALANGINVOKEMETHODHANDLE",
	"JAVALANGSTRING_VALUE",
	"JAVALANGSTRING_CODER",
	"JAVALANGSTRING_COMPACTSTRINGS",
	"JAVALANGINVOKEMETHODHANDLE_TYPE",
	"JAVALANGOBJECT_HASHCODE",
	"JAVALANGSTRING_VALUEOF_INT",
	"JAVALANGOBJECT_INIT",
	"JAVALANGOBJECT_RUN",
}

func loadTestdata(t *testing.T, name string) *catalog.Catalog {
	t.Helper()
	cat, err := LoadFiles([]string{filepath.Join("testdata", name)}, "", nil)
	if err != nil {
		t.Fatalf("LoadFiles(%s) error = %v", name, err)
	}
	return cat
}

func TestLoadFiles_AllFormatsAgree(t *testing.T) {
	for _, name := range []string{"catalog.xml", "catalog.toml", "catalog.yaml"} {
		t.Run(name, func(t *testing.T) {
			cat := loadTestdata(t, name)
			syms := cat.Symbols()
			if len(syms) != len(wantIDs) {
				t.Fatalf("got %d symbols, want %d", len(syms), len(wantIDs))
			}
			for i, s := range syms {
				if s.ID != wantIDs[i] {
					t.Errorf("symbol %d = %s, want %s", i+1, s.ID, wantIDs[i])
				}
				if cat.IndexOf(s) != i+1 {
					t.Errorf("IndexOf(%s) = %d, want %d", s.ID, cat.IndexOf(s), i+1)
				}
			}
		})
	}
}

func TestBuild_Inheritance(t *testing.T) {
	for _, name := range []string{"catalog.xml", "catalog.toml", "catalog.yaml"} {
		t.Run(name, func(t *testing.T) {
			cat := loadTestdata(t, name)

			value, ok := cat.Lookup("JAVALANGSTRING_VALUE")
			if !ok {
				t.Fatal("JAVALANGSTRING_VALUE missing")
			}
			if len(value.Aliases) != 1 {
				t.Fatalf("got %d variants, want 1", len(value.Aliases))
			}
			alias := value.Aliases[0]
			if alias.Name != "value" || alias.ClassName != "java/lang/String" {
				t.Errorf("variant did not inherit name and class: %+v", alias)
			}
			if alias.Signature != "[B" {
				t.Errorf("variant signature = %q, want [B", alias.Signature)
			}
			if alias.Predicate.Versions.String() != "9-" || alias.Predicate.Flags.Guarded() {
				t.Errorf("variant guard = %s", alias.Predicate)
			}
			str, _ := cat.Lookup("JAVALANGSTRING")
			if alias.Class != str || value.Default.Class != str {
				t.Error("members are not linked to the class symbol")
			}

			run, _ := cat.Lookup("JAVALANGOBJECT_RUN")
			override := run.Aliases[0]
			if override.ClassName != "java/lang/String" || override.Signature != "()V" {
				t.Errorf("override = %+v", override)
			}
			// The parent's flag guard stays with the parent.
			if !override.Predicate.Unguarded() {
				t.Errorf("override inherited a guard: %s", override.Predicate)
			}
		})
	}
}

func TestBuild_Resolution(t *testing.T) {
	cat := loadTestdata(t, "catalog.xml")
	value, _ := cat.Lookup("JAVALANGSTRING_VALUE")

	tests := []struct {
		version int
		want    string
	}{
		{8, "[C"},
		{11, "[B"},
	}
	for _, tt := range tests {
		v := catalog.Resolve(value, catalog.Context{Version: tt.version})
		if v.Signature != tt.want {
			t.Errorf("version %d: signature %q, want %q", tt.version, v.Signature, tt.want)
		}
	}

	mh, _ := cat.Lookup("JAVALANGINVOKEMETHODHANDLE")
	if !catalog.Resolve(mh, catalog.Context{Version: 8}).IsUnused() {
		t.Error("flag-guarded class resolved without its flag")
	}
	on := catalog.Context{Version: 8, Flags: predicate.NewFlagSet("OPT_METHOD_HANDLE")}
	if catalog.Resolve(mh, on).IsUnused() {
		t.Error("flag-guarded class unused with its flag on")
	}
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name string
		xml  string
		code vmcperrors.ErrorCode
	}{
		{
			"undeclared class",
			`<constantpool><fieldref class="java/lang/Missing" name="x" signature="I"/></constantpool>`,
			vmcperrors.UnknownClass,
		},
		{
			"class declared later",
			`<constantpool><fieldref class="A" name="x" signature="I"/><classref name="A"/></constantpool>`,
			vmcperrors.UnknownClass,
		},
		{
			"unknown element",
			`<constantpool><methodref class="A" name="x" signature="()V"/></constantpool>`,
			vmcperrors.InvalidDeclaration,
		},
		{
			"unknown attribute",
			`<constantpool><classref name="A" package="x"/></constantpool>`,
			vmcperrors.InvalidDeclaration,
		},
		{
			"wrong root",
			`<pool><classref name="A"/></pool>`,
			vmcperrors.InvalidDeclaration,
		},
		{
			"missing signature",
			`<constantpool><classref name="A"/><fieldref class="A" name="x"/></constantpool>`,
			vmcperrors.InvalidDeclaration,
		},
		{
			"mixed variant element",
			`<constantpool><classref name="A"/><fieldref class="A" name="x" signature="I"><staticfieldref versions="9-"/></fieldref></constantpool>`,
			vmcperrors.InvalidDeclaration,
		},
		{
			"duplicate",
			`<constantpool><classref name="A"/><classref name="A"/></constantpool>`,
			vmcperrors.DuplicateSymbol,
		},
		{
			"malformed versions",
			`<constantpool><classref name="A" versions="nine"/></constantpool>`,
			vmcperrors.MalformedVersion,
		},
		{
			"double field",
			`<constantpool><classref name="A"/><fieldref class="A" name="d" signature="D"/></constantpool>`,
			vmcperrors.UnsupportedEncoding,
		},
		{
			"unknown cast",
			`<constantpool><classref name="A"/><fieldref class="A" name="x" signature="I" cast="float"/></constantpool>`,
			vmcperrors.UnsupportedEncoding,
		},
		{
			"cast on method",
			`<constantpool><classref name="A"/><virtualmethodref class="A" name="x" signature="()V" cast="U_32"/></constantpool>`,
			vmcperrors.InvalidDeclaration,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseXML(strings.NewReader(tt.xml), "test.xml")
			if err == nil {
				_, err = Build(doc)
			}
			if !vmcperrors.Is(err, tt.code) {
				t.Fatalf("error = %v, want %s", err, tt.code)
			}
			if !strings.Contains(err.Error(), "test.xml") {
				t.Errorf("error %q does not name the source", err)
			}
		})
	}
}

func TestParseTOML_UnknownKey(t *testing.T) {
	_, err := ParseTOML(strings.NewReader("[[symbol]]\nkind = \"classref\"\nname = \"A\"\nsig = \"I\"\n"), "x.toml")
	if !vmcperrors.Is(err, vmcperrors.InvalidDeclaration) {
		t.Errorf("ParseTOML() error = %v, want %s", err, vmcperrors.InvalidDeclaration)
	}
}

func TestParseYAML(t *testing.T) {
	t.Run("unknown key", func(t *testing.T) {
		_, err := ParseYAML(strings.NewReader("symbols:\n  - kind: classref\n    nam: A\n"), "x.yaml")
		if !vmcperrors.Is(err, vmcperrors.InvalidDeclaration) {
			t.Errorf("ParseYAML() error = %v, want %s", err, vmcperrors.InvalidDeclaration)
		}
	})
	t.Run("missing kind", func(t *testing.T) {
		_, err := ParseYAML(strings.NewReader("symbols:\n  - name: A\n"), "x.yaml")
		if !vmcperrors.Is(err, vmcperrors.InvalidDeclaration) {
			t.Errorf("ParseYAML() error = %v, want %s", err, vmcperrors.InvalidDeclaration)
		}
	})
	t.Run("empty", func(t *testing.T) {
		doc, err := ParseYAML(strings.NewReader(""), "x.yaml")
		if err != nil {
			t.Fatalf("ParseYAML() error = %v", err)
		}
		if len(doc.Decls) != 0 {
			t.Errorf("got %d declarations", len(doc.Decls))
		}
	})
}

func TestBuild_MultipleDocuments(t *testing.T) {
	classes, err := ParseXML(strings.NewReader(`<constantpool><classref name="A"/></constantpool>`), "classes.xml")
	if err != nil {
		t.Fatal(err)
	}
	members, err := ParseYAML(strings.NewReader("symbols:\n  - kind: fieldref\n    class: A\n    name: x\n    signature: I\n"), "members.yaml")
	if err != nil {
		t.Fatal(err)
	}

	cat, err := Build(classes, members)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	x, ok := cat.Lookup("A_X")
	if !ok || cat.IndexOf(x) != 2 {
		t.Errorf("member of a class from an earlier document not indexed 2")
	}
}

func TestFormatOf(t *testing.T) {
	tests := []struct {
		path string
		want Format
		ok   bool
	}{
		{"vmconstantpool.xml", FormatXML, true},
		{"pool.TOML", FormatTOML, true},
		{"pool.yml", FormatYAML, true},
		{"pool.yaml", FormatYAML, true},
		{"pool.json", "", false},
	}
	for _, tt := range tests {
		got, ok := FormatOf(tt.path)
		if got != tt.want || ok != tt.ok {
			t.Errorf("FormatOf(%q) = %q, %v; want %q, %v", tt.path, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseFile_UnknownExtension(t *testing.T) {
	_, err := ParseFile("pool.json", "")
	if !vmcperrors.Is(err, vmcperrors.InvalidDeclaration) {
		t.Errorf("ParseFile() error = %v, want %s", err, vmcperrors.InvalidDeclaration)
	}
}
