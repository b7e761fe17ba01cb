package catalog

import (
	"testing"

	"vmcp/internal/predicate"
)

func guarded(versions, flags string) *Variant {
	v, err := predicate.ParseVersions(versions)
	if err != nil {
		panic(err)
	}
	return &Variant{
		Kind:      KindClass,
		ClassName: "guard(" + versions + "|" + flags + ")",
		Predicate: predicate.Predicate{Versions: v, Flags: predicate.ParseFlags(flags)},
	}
}

func ctx(version int, flags ...string) Context {
	return Context{Version: version, Flags: predicate.NewFlagSet(flags...)}
}

func TestResolve_PrecedenceExample(t *testing.T) {
	d := guarded("", "")
	a := guarded("9-", "")
	b := guarded("", "X")
	s := NewSymbol("S", d, a, b)

	tests := []struct {
		name string
		ctx  Context
		want *Variant
		rule Rule
	}{
		{"no override applies", ctx(8), d, RuleDefault},
		{"version alias", ctx(9), a, RuleVersionGuard},
		{"flag alias", ctx(8, "X"), b, RuleFlagGuard},
		{"version alias wins over flag alias", ctx(9, "X"), a, RuleVersionGuard},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, rule := ResolveRule(s, tt.ctx)
			if got != tt.want {
				t.Errorf("Resolve() = %s, want %s", got.ClassName, tt.want.ClassName)
			}
			if rule != tt.rule {
				t.Errorf("rule = %v, want %v", rule, tt.rule)
			}
		})
	}
}

func TestResolve_BothGuardsFirst(t *testing.T) {
	d := guarded("", "")
	versionOnly := guarded("11-", "")
	both := guarded("11-", "opt_valhalla")
	s := NewSymbol("S", d, versionOnly, both)

	if got := Resolve(s, ctx(17, "opt_valhalla")); got != both {
		t.Errorf("Resolve() = %s, want the alias with both guards", got.ClassName)
	}
	if got := Resolve(s, ctx(17)); got != versionOnly {
		t.Errorf("Resolve() = %s, want version-only alias", got.ClassName)
	}
	if got := Resolve(s, ctx(8, "opt_valhalla")); got != d {
		t.Errorf("Resolve() = %s, want default", got.ClassName)
	}
}

func TestResolve_DefaultCompatibility(t *testing.T) {
	// The default's flag guard blocks rule 2 unless it is satisfied.
	d := guarded("", "opt_a")
	a := guarded("9-", "")
	s := NewSymbol("S", d, a)

	if got, rule := ResolveRule(s, ctx(9)); got != Unused || rule != RuleNone {
		t.Errorf("Resolve() = %s (%v), want Unused", got.ClassName, rule)
	}
	if got := Resolve(s, ctx(9, "opt_a")); got != a {
		t.Errorf("Resolve() = %s, want version alias", got.ClassName)
	}
	if got := Resolve(s, ctx(8, "opt_a")); got != d {
		t.Errorf("Resolve() = %s, want default", got.ClassName)
	}

	// The default's version guard blocks rule 3 unless it is satisfied.
	d2 := guarded("8", "")
	b := guarded("", "opt_b")
	s2 := NewSymbol("S2", d2, b)
	if got := Resolve(s2, ctx(11, "opt_b")); got != Unused {
		t.Errorf("Resolve() = %s, want Unused", got.ClassName)
	}
	if got := Resolve(s2, ctx(8, "opt_b")); got != b {
		t.Errorf("Resolve() = %s, want flag alias", got.ClassName)
	}
}

func TestResolve_UnconditionalOverride(t *testing.T) {
	d := guarded("", "")
	versioned := guarded("21-", "")
	override := guarded("", "")
	s := NewSymbol("S", d, versioned, override)

	if got, rule := ResolveRule(s, ctx(8)); got != override || rule != RuleOverride {
		t.Errorf("Resolve() = %s (%v), want unconditional override", got.ClassName, rule)
	}
	// Partial matches still take precedence over the override.
	if got := Resolve(s, ctx(21)); got != versioned {
		t.Errorf("Resolve() = %s, want versioned alias", got.ClassName)
	}

	// The override only applies when the default does.
	s2 := NewSymbol("S2", guarded("9", ""), guarded("", ""))
	if got := Resolve(s2, ctx(8)); got != Unused {
		t.Errorf("Resolve() = %s, want Unused", got.ClassName)
	}
}

func TestResolve_FirstMatchInDeclarationOrder(t *testing.T) {
	first := guarded("11-", "")
	second := guarded("9-", "")
	s := NewSymbol("S", guarded("", ""), first, second)

	if got := Resolve(s, ctx(17)); got != first {
		t.Errorf("Resolve() = %s, want first declared alias", got.ClassName)
	}
	if got := Resolve(s, ctx(10)); got != second {
		t.Errorf("Resolve() = %s, want second alias", got.ClassName)
	}
}

func TestResolve_Deterministic(t *testing.T) {
	s := NewSymbol("S", guarded("", ""), guarded("9-", ""), guarded("", "X"), guarded("11-", "X"))

	for _, c := range []Context{ctx(8), ctx(9), ctx(8, "X"), ctx(11, "X")} {
		first := Resolve(s, c)
		for i := 0; i < 10; i++ {
			if got := Resolve(s, c); got != first {
				t.Fatalf("Resolve(%v) changed between calls", c)
			}
		}
	}
}
