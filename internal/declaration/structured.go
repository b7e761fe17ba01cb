package declaration

import (
	"bytes"
	"errors"
	"io"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	vmcperrors "vmcp/internal/errors"
)

// entry is the TOML and YAML form of a declaration.
type entry struct {
	Kind      string  `toml:"kind" yaml:"kind"`
	ID        string  `toml:"id" yaml:"id"`
	Name      string  `toml:"name" yaml:"name"`
	Class     string  `toml:"class" yaml:"class"`
	Signature string  `toml:"signature" yaml:"signature"`
	Cast      string  `toml:"cast" yaml:"cast"`
	Versions  string  `toml:"versions" yaml:"versions"`
	Flags     string  `toml:"flags" yaml:"flags"`
	Alias     []entry `toml:"alias" yaml:"alias"`
}

type tomlCatalog struct {
	Symbols []entry `toml:"symbol"`
}

type yamlCatalog struct {
	Symbols []entry `yaml:"symbols"`
}

// ParseTOML reads a catalog of the form
//
//	[[symbol]]
//	kind = "fieldref"
//	class = "java/lang/String"
//	name = "value"
//	signature = "[C"
//	versions = "8"
//
//	  [[symbol.alias]]
//	  versions = "9-"
//	  signature = "[B"
func ParseTOML(r io.Reader, source string) (*Document, error) {
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()

	var c tomlCatalog
	if err := dec.Decode(&c); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, vmcperrors.New(vmcperrors.InvalidDeclaration, source+": unknown keys", errors.New(strict.String()))
		}
		return nil, vmcperrors.New(vmcperrors.InvalidDeclaration, "cannot parse "+source, err)
	}
	return entriesDocument(source, c.Symbols)
}

// ParseYAML reads a catalog with a top-level symbols list of the same
// shape as ParseTOML.
func ParseYAML(r io.Reader, source string) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, vmcperrors.New(vmcperrors.InvalidDeclaration, "cannot read "+source, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var c yamlCatalog
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return nil, vmcperrors.New(vmcperrors.InvalidDeclaration, "cannot parse "+source, err)
	}
	return entriesDocument(source, c.Symbols)
}

func entriesDocument(source string, entries []entry) (*Document, error) {
	doc := &Document{Source: source, Decls: make([]Decl, 0, len(entries))}
	for _, e := range entries {
		if e.Kind == "" {
			d := e.decl("")
			return nil, locate(source, &d, vmcperrors.Newf(vmcperrors.InvalidDeclaration, "missing kind"))
		}
		doc.Decls = append(doc.Decls, e.decl(e.Kind))
	}
	return doc, nil
}

// decl converts e; variants take the element of their parent unless they
// name one.
func (e entry) decl(element string) Decl {
	if e.Kind != "" {
		element = e.Kind
	}
	d := Decl{
		Element:   element,
		ID:        e.ID,
		Name:      e.Name,
		Class:     e.Class,
		Signature: e.Signature,
		Cast:      e.Cast,
		Versions:  e.Versions,
		Flags:     e.Flags,
	}
	for _, a := range e.Alias {
		d.Aliases = append(d.Aliases, a.decl(""))
	}
	return d
}
