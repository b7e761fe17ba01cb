// Package buildflags supplies the active build flags of a build and the set
// of flags the build knows about.
package buildflags

import (
	"context"
	"sort"

	vmcperrors "vmcp/internal/errors"
	"vmcp/internal/predicate"
)

// Provider is the source of build flags for one build.
type Provider interface {
	// AllSetFlags returns the flags that are on.
	AllSetFlags() predicate.FlagSet
	// IsFlagValid reports whether the build knows name at all, on or off.
	IsFlagValid(name string) bool
}

// Lister is implemented by providers that can enumerate every known flag.
type Lister interface {
	KnownFlags() []string
}

// Validate checks every name against p and fails with UNKNOWN_FLAG on the
// first name p does not know.
func Validate(p Provider, names []string) error {
	for _, name := range names {
		if !p.IsFlagValid(name) {
			return vmcperrors.Newf(vmcperrors.UnknownFlag, "flag %s is not known to the build", name).
				WithDetails(map[string]string{"flag": name})
		}
	}
	return nil
}

// table is the common implementation: every known flag with its value,
// keyed canonically.
type table struct {
	set   predicate.FlagSet
	known predicate.FlagSet
}

func newTable(values map[string]bool) table {
	t := table{set: predicate.NewFlagSet(), known: predicate.NewFlagSet()}
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		t.known.Add(name)
		if values[name] {
			t.set.Add(name)
		}
	}
	return t
}

func (t table) AllSetFlags() predicate.FlagSet { return t.set }

func (t table) IsFlagValid(name string) bool { return t.known.Has(name) }

func (t table) KnownFlags() []string { return t.known.Names() }

// StaticProvider is an explicit flag list. Without a known list every name
// is valid.
type StaticProvider struct {
	set   predicate.FlagSet
	known *predicate.FlagSet
}

// NewStaticProvider returns a provider with the given flags on.
func NewStaticProvider(set ...string) *StaticProvider {
	return &StaticProvider{set: predicate.NewFlagSet(set...)}
}

// WithKnown restricts validity to known plus the set flags.
func (p *StaticProvider) WithKnown(known ...string) *StaticProvider {
	k := predicate.NewFlagSet(known...)
	for _, name := range p.set.Names() {
		k.Add(name)
	}
	p.known = &k
	return p
}

func (p *StaticProvider) AllSetFlags() predicate.FlagSet { return p.set }

func (p *StaticProvider) IsFlagValid(name string) bool {
	return p.known == nil || p.known.Has(name)
}

// overlay turns extra flags on over a base provider.
type overlay struct {
	base  Provider
	extra predicate.FlagSet
}

// WithExtra returns p with the extra flags also on. Extra flags are valid
// even when p does not know them.
func WithExtra(p Provider, extra ...string) Provider {
	if len(extra) == 0 {
		return p
	}
	return &overlay{base: p, extra: predicate.NewFlagSet(extra...)}
}

func (o *overlay) AllSetFlags() predicate.FlagSet {
	set := predicate.NewFlagSet(o.base.AllSetFlags().Names()...)
	for _, name := range o.extra.Names() {
		set.Add(name)
	}
	return set
}

func (o *overlay) IsFlagValid(name string) bool {
	return o.extra.Has(name) || o.base.IsFlagValid(name)
}

// KnownFlags lists the base provider's flags and the extras, or nil when the
// base cannot enumerate its flags.
func (o *overlay) KnownFlags() []string {
	lister, ok := o.base.(Lister)
	if !ok {
		return nil
	}
	known := predicate.NewFlagSet(lister.KnownFlags()...)
	for _, name := range o.extra.Names() {
		known.Add(name)
	}
	return known.Names()
}

// SpecSource is the part of the build-spec store the spec provider reads.
type SpecSource interface {
	Flags(ctx context.Context, specID string) (map[string]bool, error)
}

// SpecProvider serves the flags of one stored build spec.
type SpecProvider struct {
	table
	specID string
}

// NewSpecProvider loads the flags of specID from src.
func NewSpecProvider(ctx context.Context, src SpecSource, specID string) (*SpecProvider, error) {
	values, err := src.Flags(ctx, specID)
	if err != nil {
		return nil, err
	}
	return &SpecProvider{table: newTable(values), specID: specID}, nil
}

// SpecID returns the build spec the flags came from.
func (p *SpecProvider) SpecID() string {
	return p.specID
}
