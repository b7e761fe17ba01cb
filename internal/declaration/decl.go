// Package declaration reads catalog documents (XML, TOML or YAML) and builds
// the symbol catalog from them.
package declaration

import (
	"fmt"

	vmcperrors "vmcp/internal/errors"
)

// Decl is one symbol declaration, independent of the document format.
// Aliases are the guarded variants declared as children of the same element.
type Decl struct {
	Element string

	ID        string
	Name      string
	Class     string
	Signature string
	Cast      string

	Versions string
	Flags    string

	Aliases []Decl
}

// Document is the ordered declarations of one input file.
type Document struct {
	Source string
	Decls  []Decl
}

// set assigns a named attribute.
func (d *Decl) set(attr, value string) error {
	switch attr {
	case "id":
		d.ID = value
	case "name":
		d.Name = value
	case "class":
		d.Class = value
	case "signature":
		d.Signature = value
	case "cast":
		d.Cast = value
	case "versions":
		d.Versions = value
	case "flags":
		d.Flags = value
	default:
		return vmcperrors.Newf(vmcperrors.InvalidDeclaration, "unknown attribute %q on <%s>", attr, d.Element)
	}
	return nil
}

// inherit fills the kind attributes left unset from parent. Guards are
// never inherited.
func (d Decl) inherit(parent *Decl) Decl {
	if parent == nil {
		return d
	}
	if d.Name == "" {
		d.Name = parent.Name
	}
	if d.Class == "" {
		d.Class = parent.Class
	}
	if d.Signature == "" {
		d.Signature = parent.Signature
	}
	if d.Cast == "" {
		d.Cast = parent.Cast
	}
	return d
}

func (d *Decl) label() string {
	switch {
	case d.ID != "":
		return fmt.Sprintf("<%s id=%q>", d.Element, d.ID)
	case d.Class != "":
		return fmt.Sprintf("<%s %s.%s>", d.Element, d.Class, d.Name)
	default:
		return fmt.Sprintf("<%s %s>", d.Element, d.Name)
	}
}
