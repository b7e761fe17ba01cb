package catalog

import "vmcp/internal/predicate"

// Context is the (library version, active build flags) pair a table is
// generated for.
type Context struct {
	Version int
	Flags   predicate.FlagSet
}

// Rule identifies which resolution step selected a variant.
type Rule int

const (
	RuleNone         Rule = iota // sentinel: nothing applies
	RuleBothGuards               // alias with version and flag guards, both satisfied
	RuleVersionGuard             // version-only alias, default compatible with flags
	RuleFlagGuard                // flag-only alias, default compatible with version
	RuleOverride                 // unconditional alias, default applies
	RuleDefault                  // the default variant
)

func (r Rule) String() string {
	switch r {
	case RuleBothGuards:
		return "versions+flags"
	case RuleVersionGuard:
		return "versions"
	case RuleFlagGuard:
		return "flags"
	case RuleOverride:
		return "override"
	case RuleDefault:
		return "default"
	default:
		return "unused"
	}
}

// Resolve picks the variant of s that applies under ctx. It is total and a
// pure function of (s, ctx); the rule order is fixed:
//
//  1. an alias guarded by both versions and flags, both satisfied;
//  2. an alias guarded only by versions that match, when the default's flag
//     guard is absent or satisfied;
//  3. an alias guarded only by flags that match, when the default's version
//     guard is absent or satisfied;
//  4. when the default matches, an unconditional alias if one exists,
//     otherwise the default;
//  5. the Unused sentinel.
func Resolve(s *Symbol, ctx Context) *Variant {
	v, _ := ResolveRule(s, ctx)
	return v
}

// ResolveRule is Resolve that also reports the step that made the choice.
func ResolveRule(s *Symbol, ctx Context) (*Variant, Rule) {
	def := s.Default.Predicate

	for _, a := range s.Aliases {
		p := a.Predicate
		if p.Versions.Guarded() && p.Flags.Guarded() &&
			p.Versions.Matches(ctx.Version) && p.Flags.Matches(ctx.Flags) {
			return a, RuleBothGuards
		}
	}

	if !def.Flags.Guarded() || def.Flags.Matches(ctx.Flags) {
		for _, a := range s.Aliases {
			p := a.Predicate
			if p.Versions.Guarded() && !p.Flags.Guarded() && p.Versions.Matches(ctx.Version) {
				return a, RuleVersionGuard
			}
		}
	}

	if !def.Versions.Guarded() || def.Versions.Matches(ctx.Version) {
		for _, a := range s.Aliases {
			p := a.Predicate
			if !p.Versions.Guarded() && p.Flags.Guarded() && p.Flags.Matches(ctx.Flags) {
				return a, RuleFlagGuard
			}
		}
	}

	if def.Matches(ctx.Version, ctx.Flags) {
		for _, a := range s.Aliases {
			if a.Predicate.Unguarded() {
				return a, RuleOverride
			}
		}
		return s.Default, RuleDefault
	}

	return Unused, RuleNone
}
