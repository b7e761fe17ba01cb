package catalog

import (
	vmcperrors "vmcp/internal/errors"
	"vmcp/internal/predicate"
)

// Catalog is the ordered list of symbols. Slot 0 is reserved, so a symbol's
// index is its position plus one.
type Catalog struct {
	symbols []*Symbol
	byID    map[string]*Symbol
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{byID: make(map[string]*Symbol)}
}

// Add appends s and assigns its index.
func (c *Catalog) Add(s *Symbol) error {
	if s == nil || s.Default == nil {
		return vmcperrors.Newf(vmcperrors.InvalidDeclaration, "symbol has no default variant")
	}
	if _, exists := c.byID[s.ID]; exists {
		return vmcperrors.Newf(vmcperrors.DuplicateSymbol, "symbol %s declared twice", s.ID)
	}
	if s.index != 0 {
		return vmcperrors.Newf(vmcperrors.DuplicateSymbol, "symbol %s already belongs to a catalog", s.ID)
	}

	c.symbols = append(c.symbols, s)
	s.index = len(c.symbols)
	c.byID[s.ID] = s
	return nil
}

// IndexOf returns the 1-based index of s, or 0 when s is not in the catalog.
func (c *Catalog) IndexOf(s *Symbol) int {
	if s == nil || s.index < 1 || s.index > len(c.symbols) || c.symbols[s.index-1] != s {
		return 0
	}
	return s.index
}

// Size returns the number of slots including the reserved slot 0.
func (c *Catalog) Size() int {
	return len(c.symbols) + 1
}

// Len returns the number of symbols.
func (c *Catalog) Len() int {
	return len(c.symbols)
}

// Symbols returns the symbols in slot order. The slice must not be modified.
func (c *Catalog) Symbols() []*Symbol {
	return c.symbols
}

// Lookup returns the symbol with the given ID.
func (c *Catalog) Lookup(id string) (*Symbol, bool) {
	s, ok := c.byID[id]
	return s, ok
}

// FindByEquality returns the first symbol equal to candidate.
func (c *Catalog) FindByEquality(candidate *Symbol) *Symbol {
	for _, s := range c.symbols {
		if s.Equal(candidate) {
			return s
		}
	}
	return nil
}

// FindClass returns the class symbol declared for name.
func (c *Catalog) FindClass(name string) *Symbol {
	return c.FindByEquality(&Symbol{
		Kind:    KindClass,
		Default: &Variant{Kind: KindClass, ClassName: name},
	})
}

// Flags returns every flag named by any variant in canonical order.
func (c *Catalog) Flags() []string {
	set := predicate.NewFlagSet()
	for _, s := range c.symbols {
		for _, v := range s.Variants() {
			for _, f := range v.Predicate.Flags {
				set.Add(f)
			}
		}
	}
	return set.Names()
}
