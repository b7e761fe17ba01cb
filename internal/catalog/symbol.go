// Package catalog holds the in-memory symbol catalog: symbols, their guarded
// variants, and the resolver that picks one variant per build context.
package catalog

import (
	"strings"
	"unicode"

	"vmcp/internal/predicate"
)

// Variant is one guarded definition of a symbol. Class variants carry the
// class name; member variants carry the owning class, name and signature.
type Variant struct {
	Predicate predicate.Predicate
	Kind      Kind

	ClassName string
	Name      string
	Signature string
	Cast      string

	// Class links a member variant to the declared class symbol it belongs to.
	Class *Symbol
}

// Unused is the sentinel variant selected when nothing applies. It encodes a
// zero record and contributes no secondary data.
var Unused = &Variant{Kind: KindUnused}

// IsUnused reports whether v is the sentinel.
func (v *Variant) IsUnused() bool {
	return v == nil || v.Kind == KindUnused
}

// Symbol is a catalog entry: a mandatory default variant plus ordered
// guarded variants.
type Symbol struct {
	// ID is the constant name suffix, e.g. JAVALANGSTRING_VALUE.
	ID      string
	Kind    Kind
	Default *Variant
	Aliases []*Variant

	index int
}

// NewSymbol creates a symbol whose ID is derived from its default variant
// unless id is non-empty.
func NewSymbol(id string, def *Variant, aliases ...*Variant) *Symbol {
	if id == "" {
		id = ConstantName(def.Kind, def.ClassName, def.Name)
	}
	return &Symbol{
		ID:      id,
		Kind:    def.Kind,
		Default: def,
		Aliases: aliases,
	}
}

// Index returns the 1-based slot index assigned by the catalog, or 0.
func (s *Symbol) Index() int {
	return s.index
}

// Variants returns the default variant followed by the guarded ones.
func (s *Symbol) Variants() []*Variant {
	out := make([]*Variant, 0, 1+len(s.Aliases))
	out = append(out, s.Default)
	return append(out, s.Aliases...)
}

// Equal reports whether two symbols declare the same reference: same kind
// and the same class, name and signature on their default variants.
func (s *Symbol) Equal(other *Symbol) bool {
	if s == nil || other == nil {
		return s == other
	}
	if s.Kind != other.Kind {
		return false
	}
	a, b := s.Default, other.Default
	return a.ClassName == b.ClassName && a.Name == b.Name && a.Signature == b.Signature
}

// ConstantName derives the constant suffix for a reference: the upper-cased
// alphanumerics of the class name, followed by those of the member name.
func ConstantName(kind Kind, className, name string) string {
	id := upperAlnum(className)
	if kind.IsMember() {
		id += "_" + upperAlnum(name)
	}
	return id
}

func upperAlnum(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}
