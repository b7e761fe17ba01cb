package declaration

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"vmcp/internal/catalog"
	vmcperrors "vmcp/internal/errors"
)

// Format is a catalog document format.
type Format string

const (
	FormatXML  Format = "xml"
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml":
		return FormatXML, true
	case ".toml":
		return FormatTOML, true
	case ".yaml", ".yml":
		return FormatYAML, true
	default:
		return "", false
	}
}

// Parse reads one document in format f.
func Parse(r io.Reader, source string, f Format) (*Document, error) {
	switch f {
	case FormatXML:
		return ParseXML(r, source)
	case FormatTOML:
		return ParseTOML(r, source)
	case FormatYAML:
		return ParseYAML(r, source)
	default:
		return nil, vmcperrors.Newf(vmcperrors.InvalidDeclaration, "unknown catalog format %q", f)
	}
}

// ParseFile reads path. An empty format selects one by extension.
func ParseFile(path string, f Format) (*Document, error) {
	if f == "" {
		var ok bool
		if f, ok = FormatOf(path); !ok {
			return nil, vmcperrors.Newf(vmcperrors.InvalidDeclaration,
				"cannot tell the format of %s; use .xml, .toml or .yaml", path)
		}
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, vmcperrors.New(vmcperrors.InvalidDeclaration, "cannot open catalog "+path, err)
	}
	defer file.Close()
	return Parse(file, path, f)
}

// LoadFiles parses every path and builds one catalog from them in order.
// sources, when non-nil, maps each path to the name used in messages.
func LoadFiles(paths []string, f Format, sources func(string) string) (*catalog.Catalog, error) {
	if len(paths) == 0 {
		return nil, vmcperrors.Newf(vmcperrors.InvalidDeclaration, "no catalog files given")
	}
	docs := make([]*Document, 0, len(paths))
	for _, p := range paths {
		doc, err := ParseFile(p, f)
		if err != nil {
			return nil, err
		}
		if sources != nil {
			doc.Source = sources(p)
		}
		docs = append(docs, doc)
	}
	return Build(docs...)
}
