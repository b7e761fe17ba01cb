// Package csyntax checks generated C text with tree-sitter's C grammar.
// It catches malformed output before it reaches the VM build; it does not
// preprocess or type-check.
package csyntax

import (
	"errors"
	"fmt"
	"strings"

	vmcperrors "vmcp/internal/errors"
)

// ErrNoCGO is returned when syntax checking is unavailable due to missing CGO.
var ErrNoCGO = errors.New("C syntax checking requires CGO (tree-sitter)")

// Problem is one syntax error or missing token.
type Problem struct {
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Missing bool   `json:"missing,omitempty"`
	Text    string `json:"text"`
}

func (p Problem) String() string {
	what := "syntax error near"
	if p.Missing {
		what = "missing"
	}
	return fmt.Sprintf("%d:%d: %s %q", p.Line, p.Column, what, p.Text)
}

// maxReported bounds the problems quoted in an error message.
const maxReported = 5

// problemsError turns parse problems into an INTERNAL_ERROR for name.
func problemsError(name string, problems []Problem) error {
	lines := make([]string, 0, maxReported)
	for i, p := range problems {
		if i == maxReported {
			lines = append(lines, fmt.Sprintf("and %d more", len(problems)-maxReported))
			break
		}
		lines = append(lines, p.String())
	}
	return vmcperrors.Newf(vmcperrors.InternalError,
		"generated %s does not parse as C: %s", name, strings.Join(lines, "; ")).
		WithDetails(problems)
}
