//go:build cgo

package csyntax

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
)

// Checker wraps a tree-sitter parser set to the C grammar.
type Checker struct {
	parser *sitter.Parser
}

// NewChecker creates a new C syntax checker.
func NewChecker() *Checker {
	parser := sitter.NewParser()
	parser.SetLanguage(c.GetLanguage())
	return &Checker{parser: parser}
}

// IsAvailable reports whether syntax checking is compiled in.
func IsAvailable() bool {
	return true
}

// Check parses src and returns every ERROR and MISSING node in source order.
func (ch *Checker) Check(ctx context.Context, src []byte) ([]Problem, error) {
	tree, err := ch.parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	root := tree.RootNode()
	if !root.HasError() {
		return nil, nil
	}
	return collectProblems(root, src), nil
}

// Verify checks src and fails when it does not parse.
func (ch *Checker) Verify(ctx context.Context, name string, src []byte) error {
	problems, err := ch.Check(ctx, src)
	if err != nil {
		return err
	}
	if len(problems) > 0 {
		return problemsError(name, problems)
	}
	return nil
}

func collectProblems(root *sitter.Node, src []byte) []Problem {
	var out []Problem
	var walk func(*sitter.Node)
	walk = func(node *sitter.Node) {
		if node == nil {
			return
		}
		switch {
		case node.IsMissing():
			out = append(out, problemAt(node, node.Type(), true))
		case node.Type() == "ERROR":
			out = append(out, problemAt(node, snippet(node.Content(src)), false))
			return
		case !node.HasError():
			return
		}
		for i := 0; i < int(node.ChildCount()); i++ {
			walk(node.Child(i))
		}
	}
	walk(root)
	return out
}

func problemAt(node *sitter.Node, text string, missing bool) Problem {
	pt := node.StartPoint()
	return Problem{
		Line:    int(pt.Row) + 1,
		Column:  int(pt.Column) + 1,
		Missing: missing,
		Text:    text,
	}
}

// snippet keeps error text to its first line and a readable length.
func snippet(s string) string {
	for i, r := range s {
		if r == '\n' {
			s = s[:i]
			break
		}
	}
	if len(s) > 40 {
		s = s[:40] + "..."
	}
	return s
}
