package predicate

import (
	"fmt"
	"sort"
	"strings"

	vmcperrors "vmcp/internal/errors"
)

// Canonical returns the comparison form of a flag name: lower case with
// underscores removed, so "opt_methodHandle" and "OPT_METHOD_HANDLE" are the
// same flag.
func Canonical(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "_", ""))
}

// FlagSet is a set of active build flags.
type FlagSet struct {
	names map[string]string // canonical -> first spelling seen
}

// NewFlagSet returns a set holding names.
func NewFlagSet(names ...string) FlagSet {
	s := FlagSet{names: make(map[string]string, len(names))}
	for _, n := range names {
		s.Add(n)
	}
	return s
}

// Add inserts name into the set. Blank names are ignored.
func (s *FlagSet) Add(name string) {
	key := Canonical(name)
	if key == "" {
		return
	}
	if s.names == nil {
		s.names = make(map[string]string)
	}
	if _, ok := s.names[key]; !ok {
		s.names[key] = strings.TrimSpace(name)
	}
}

// Has reports whether name is in the set.
func (s FlagSet) Has(name string) bool {
	_, ok := s.names[Canonical(name)]
	return ok
}

// Len returns the number of flags.
func (s FlagSet) Len() int {
	return len(s.names)
}

// Names returns the flags in canonical order.
func (s FlagSet) Names() []string {
	keys := make([]string, 0, len(s.names))
	for k := range s.names {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = s.names[k]
	}
	return out
}

func (s FlagSet) String() string {
	return "{" + strings.Join(s.Names(), ",") + "}"
}

// Flags is a flag guard. It matches when any of its flags is active; an
// empty Flags carries no guard.
type Flags []string

// ParseFlags parses a comma-separated list of flag names.
func ParseFlags(s string) Flags {
	var out Flags
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// Guarded reports whether the guard requires any flag.
func (f Flags) Guarded() bool {
	return len(f) > 0
}

// Matches reports whether the guard intersects active.
func (f Flags) Matches(active FlagSet) bool {
	if len(f) == 0 {
		return true
	}
	for _, name := range f {
		if active.Has(name) {
			return true
		}
	}
	return false
}

// Single returns the only flag of the guard, "" for no guard, or a
// MALFORMED_FLAG_EXPRESSION error when more than one flag is present.
func (f Flags) Single() (string, error) {
	switch len(f) {
	case 0:
		return "", nil
	case 1:
		return f[0], nil
	default:
		return "", vmcperrors.Newf(vmcperrors.MalformedFlagExpression,
			"expected a single flag, got %d (%s)", len(f), strings.Join(f, ","))
	}
}

func (f Flags) String() string {
	return strings.Join(f, ",")
}

// Predicate combines a version guard and a flag guard.
type Predicate struct {
	Versions Versions
	Flags    Flags
}

// Unguarded reports whether the predicate carries neither guard.
func (p Predicate) Unguarded() bool {
	return !p.Versions.Guarded() && !p.Flags.Guarded()
}

// Matches reports whether both guards accept the context. An absent guard
// always matches.
func (p Predicate) Matches(version int, active FlagSet) bool {
	return p.Versions.Matches(version) && p.Flags.Matches(active)
}

func (p Predicate) String() string {
	switch {
	case p.Unguarded():
		return "always"
	case !p.Flags.Guarded():
		return fmt.Sprintf("versions=%s", p.Versions)
	case !p.Versions.Guarded():
		return fmt.Sprintf("flags=%s", p.Flags)
	default:
		return fmt.Sprintf("versions=%s flags=%s", p.Versions, p.Flags)
	}
}
