package declaration

import (
	"encoding/xml"
	"io"

	vmcperrors "vmcp/internal/errors"
)

// RootElement is the document element of an XML catalog.
const RootElement = "constantpool"

type xmlNode struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Children []xmlNode  `xml:",any"`
}

// ParseXML reads a catalog of the form
//
//	<constantpool>
//	  <classref name="java/lang/String"/>
//	  <fieldref class="java/lang/String" name="value" signature="[C" versions="8">
//	    <fieldref versions="9-" signature="[B"/>
//	  </fieldref>
//	</constantpool>
func ParseXML(r io.Reader, source string) (*Document, error) {
	var root xmlNode
	if err := xml.NewDecoder(r).Decode(&root); err != nil {
		return nil, vmcperrors.New(vmcperrors.InvalidDeclaration, "cannot parse "+source, err)
	}
	if root.XMLName.Local != RootElement {
		return nil, vmcperrors.Newf(vmcperrors.InvalidDeclaration,
			"%s: root element is <%s>, want <%s>", source, root.XMLName.Local, RootElement)
	}

	doc := &Document{Source: source, Decls: make([]Decl, 0, len(root.Children))}
	for _, n := range root.Children {
		d, err := n.decl()
		if err != nil {
			return nil, locate(source, &d, err)
		}
		doc.Decls = append(doc.Decls, d)
	}
	return doc, nil
}

func (n xmlNode) decl() (Decl, error) {
	d := Decl{Element: n.XMLName.Local}
	for _, a := range n.Attrs {
		if a.Name.Space != "" {
			continue
		}
		if err := d.set(a.Name.Local, a.Value); err != nil {
			return d, err
		}
	}
	for _, c := range n.Children {
		alias, err := c.decl()
		if err != nil {
			return d, err
		}
		d.Aliases = append(d.Aliases, alias)
	}
	return d, nil
}
