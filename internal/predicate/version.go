// Package predicate implements the version and build-flag guards attached to
// catalog variants.
package predicate

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	vmcperrors "vmcp/internal/errors"
)

// Unbounded is the upper bound of an open-ended version range ("N-").
const Unbounded = math.MaxInt32

// VersionRange is an inclusive range of library versions.
type VersionRange struct {
	Min int `json:"min" yaml:"min"`
	Max int `json:"max" yaml:"max"`
}

// AnyVersion matches every version.
var AnyVersion = VersionRange{Min: 0, Max: Unbounded}

// Contains reports whether version lies within the range.
func (r VersionRange) Contains(version int) bool {
	return version >= r.Min && version <= r.Max
}

func (r VersionRange) String() string {
	switch {
	case r.Min == r.Max:
		return strconv.Itoa(r.Min)
	case r.Max == Unbounded:
		return strconv.Itoa(r.Min) + "-"
	default:
		return strconv.Itoa(r.Min) + "-" + strconv.Itoa(r.Max)
	}
}

// Versions is a version guard: the union of its ranges. An empty Versions
// carries no guard and matches any version.
type Versions []VersionRange

// ParseVersions parses a comma-separated list of "N", "N-" or "N-M" tokens.
func ParseVersions(s string) (Versions, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	var out Versions
	for _, token := range strings.Split(s, ",") {
		token = strings.TrimSpace(token)
		r, err := parseRange(token)
		if err != nil {
			return nil, vmcperrors.New(vmcperrors.MalformedVersion,
				fmt.Sprintf("invalid versions %q", s), err)
		}
		out = append(out, r)
	}
	return out, nil
}

func parseRange(token string) (VersionRange, error) {
	if token == "" {
		return VersionRange{}, fmt.Errorf("empty version token")
	}

	lo, hi, hasDash := strings.Cut(token, "-")
	first, err := parseVersionNumber(lo)
	if err != nil {
		return VersionRange{}, err
	}
	if !hasDash {
		return VersionRange{Min: first, Max: first}, nil
	}
	if hi == "" {
		return VersionRange{Min: first, Max: Unbounded}, nil
	}
	last, err := parseVersionNumber(hi)
	if err != nil {
		return VersionRange{}, err
	}
	if last < first {
		return VersionRange{}, fmt.Errorf("range %q is empty", token)
	}
	return VersionRange{Min: first, Max: last}, nil
}

func parseVersionNumber(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("version %q is not a number", s)
	}
	if n < 0 {
		return 0, fmt.Errorf("version %d is negative", n)
	}
	return n, nil
}

// Guarded reports whether the guard restricts versions at all.
func (v Versions) Guarded() bool {
	return len(v) > 0
}

// Matches reports whether version satisfies the guard.
func (v Versions) Matches(version int) bool {
	if len(v) == 0 {
		return true
	}
	for _, r := range v {
		if r.Contains(version) {
			return true
		}
	}
	return false
}

func (v Versions) String() string {
	parts := make([]string, len(v))
	for i, r := range v {
		parts[i] = r.String()
	}
	return strings.Join(parts, ",")
}
