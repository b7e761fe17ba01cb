//go:build !cgo

package csyntax

import (
	"context"
)

// Checker is a stub for non-CGO builds.
type Checker struct{}

// NewChecker returns nil when CGO is disabled.
func NewChecker() *Checker {
	return nil
}

// IsAvailable returns false when CGO is disabled.
func IsAvailable() bool {
	return false
}

// Check always fails with ErrNoCGO.
func (ch *Checker) Check(ctx context.Context, src []byte) ([]Problem, error) {
	return nil, ErrNoCGO
}

// Verify always fails with ErrNoCGO.
func (ch *Checker) Verify(ctx context.Context, name string, src []byte) error {
	return ErrNoCGO
}
