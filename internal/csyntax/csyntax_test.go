//go:build cgo

package csyntax

import (
	"context"
	"strings"
	"testing"

	"vmcp/internal/catalog"
	"vmcp/internal/declaration"
	vmcperrors "vmcp/internal/errors"
	"vmcp/internal/layout"
	"vmcp/internal/render"
)

func TestCheck_Valid(t *testing.T) {
	src := []byte(`#define J9VMCONSTANTPOOL_JAVALANGOBJECT 1
#if defined(J9VM_OPT_METHOD_HANDLE)
#define J9VMCONSTANTPOOL_JAVALANGINVOKEMETHODHANDLE 2
#endif
static const unsigned int table[] = { 1, 2, 3 };
`)
	problems, err := NewChecker().Check(context.Background(), src)
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if len(problems) != 0 {
		t.Errorf("Check() problems = %v, want none", problems)
	}
}

func TestCheck_Invalid(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"missing expression", "int x = ;\n"},
		{"unbalanced braces", "const int t[] = { 1, 2;\n"},
		{"stray token", "struct s { int a; } }\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problems, err := NewChecker().Check(context.Background(), []byte(tt.src))
			if err != nil {
				t.Fatalf("Check() error = %v", err)
			}
			if len(problems) == 0 {
				t.Fatal("Check() reported no problems")
			}
			if problems[0].Line != 1 {
				t.Errorf("first problem on line %d, want 1", problems[0].Line)
			}
		})
	}
}

func TestVerify_Error(t *testing.T) {
	err := NewChecker().Verify(context.Background(), "j9vmconstantpool.c", []byte("int x = ;\n"))
	if !vmcperrors.Is(err, vmcperrors.InternalError) {
		t.Fatalf("Verify() error = %v, want %s", err, vmcperrors.InternalError)
	}
	if !strings.Contains(err.Error(), "j9vmconstantpool.c") {
		t.Errorf("error %q does not name the file", err)
	}
}

func TestVerify_GeneratedFiles(t *testing.T) {
	doc, err := declaration.ParseFile("../declaration/testdata/catalog.xml", declaration.FormatXML)
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	cat, err := declaration.Build(doc)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	table, err := layout.Emit(cat, catalog.Context{Version: 11})
	if err != nil {
		t.Fatalf("Emit() error = %v", err)
	}
	header, source, err := render.Files(cat, table, render.DefaultOptions())
	if err != nil {
		t.Fatalf("Files() error = %v", err)
	}

	ch := NewChecker()
	if err := ch.Verify(context.Background(), "header", header); err != nil {
		t.Errorf("header: %v", err)
	}
	if err := ch.Verify(context.Background(), "source", source); err != nil {
		t.Errorf("source: %v", err)
	}
}

func TestSnippet(t *testing.T) {
	if got := snippet("a\nb"); got != "a" {
		t.Errorf("snippet() = %q, want %q", got, "a")
	}
	long := strings.Repeat("x", 50)
	if got := snippet(long); got != strings.Repeat("x", 40)+"..." {
		t.Errorf("snippet() = %q", got)
	}
}
