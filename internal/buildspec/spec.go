// Package buildspec keeps named build specifications: sets of build flags
// read from TOML files and stored in a SQLite database together with a log
// of emission runs.
package buildspec

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	vmcperrors "vmcp/internal/errors"
)

// Spec is one build specification.
//
//	id = "linux_x86-64_cmprssptrs"
//	name = "Linux x86-64 compressed refs"
//
//	[flags]
//	opt_valhallaValueTypes = false
//	opt_methodHandle = true
type Spec struct {
	ID          string          `toml:"id"`
	Name        string          `toml:"name"`
	Description string          `toml:"description,omitempty"`
	Flags       map[string]bool `toml:"flags"`
}

// LoadSpecFile decodes a spec file. Unknown keys are rejected so that a
// misspelled table does not silently drop flags.
func LoadSpecFile(path string) (*Spec, error) {
	var spec Spec
	md, err := toml.DecodeFile(path, &spec)
	if err != nil {
		return nil, vmcperrors.New(vmcperrors.InvalidDeclaration, "cannot decode build spec "+path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, vmcperrors.Newf(vmcperrors.InvalidDeclaration,
			"build spec %s has unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &spec, nil
}

// Validate checks the required fields.
func (s *Spec) Validate() error {
	if s.ID == "" {
		return vmcperrors.Newf(vmcperrors.InvalidDeclaration, "build spec has no id")
	}
	if strings.ContainsAny(s.ID, " \t\n") {
		return vmcperrors.Newf(vmcperrors.InvalidDeclaration, "build spec id %q contains whitespace", s.ID)
	}
	for flag := range s.Flags {
		if flag == "" {
			return vmcperrors.Newf(vmcperrors.InvalidDeclaration, "build spec %s has an empty flag name", s.ID)
		}
	}
	return nil
}

// Enabled returns the flags set to true, sorted.
func (s *Spec) Enabled() []string {
	var out []string
	for flag, on := range s.Flags {
		if on {
			out = append(out, flag)
		}
	}
	sort.Strings(out)
	return out
}

// Encode writes s in the spec file format.
func (s *Spec) Encode(w io.Writer) error {
	if err := toml.NewEncoder(w).Encode(s); err != nil {
		return fmt.Errorf("failed to encode build spec %s: %w", s.ID, err)
	}
	return nil
}
