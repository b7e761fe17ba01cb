package declaration

import (
	"errors"

	"vmcp/internal/catalog"
	vmcperrors "vmcp/internal/errors"
	"vmcp/internal/predicate"
)

// Build turns documents into a catalog. Symbols are indexed in document
// order, then declaration order. A member must name a class declared
// earlier in the same or a previous document.
func Build(docs ...*Document) (*catalog.Catalog, error) {
	cat := catalog.New()
	for _, doc := range docs {
		for i := range doc.Decls {
			d := &doc.Decls[i]
			sym, err := buildSymbol(cat, d)
			if err != nil {
				return nil, locate(doc.Source, d, err)
			}
			if err := cat.Add(sym); err != nil {
				return nil, locate(doc.Source, d, err)
			}
		}
	}
	return cat, nil
}

func buildSymbol(cat *catalog.Catalog, d *Decl) (*catalog.Symbol, error) {
	kind, ok := catalog.KindForElement(d.Element)
	if !ok {
		return nil, vmcperrors.Newf(vmcperrors.InvalidDeclaration, "unknown element <%s>", d.Element)
	}

	def, err := buildVariant(cat, kind, *d)
	if err != nil {
		return nil, err
	}

	aliases := make([]*catalog.Variant, 0, len(d.Aliases))
	for i := range d.Aliases {
		a := d.Aliases[i]
		if a.Element != "" && a.Element != d.Element {
			return nil, vmcperrors.Newf(vmcperrors.InvalidDeclaration,
				"<%s> nested in <%s>; variants use the parent's element", a.Element, d.Element)
		}
		if a.ID != "" {
			return nil, vmcperrors.Newf(vmcperrors.InvalidDeclaration, "variant of %s sets id", d.label())
		}
		if len(a.Aliases) > 0 {
			return nil, vmcperrors.Newf(vmcperrors.InvalidDeclaration, "variant of %s has nested variants", d.label())
		}
		a.Element = d.Element
		v, err := buildVariant(cat, kind, a.inherit(d))
		if err != nil {
			return nil, err
		}
		aliases = append(aliases, v)
	}

	return catalog.NewSymbol(d.ID, def, aliases...), nil
}

func buildVariant(cat *catalog.Catalog, kind catalog.Kind, d Decl) (*catalog.Variant, error) {
	versions, err := predicate.ParseVersions(d.Versions)
	if err != nil {
		return nil, err
	}
	v := &catalog.Variant{
		Kind:      kind,
		Predicate: predicate.Predicate{Versions: versions, Flags: predicate.ParseFlags(d.Flags)},
	}

	if kind == catalog.KindClass {
		if d.Name == "" {
			return nil, vmcperrors.Newf(vmcperrors.InvalidDeclaration, "<classref> without name")
		}
		if d.Class != "" || d.Signature != "" || d.Cast != "" {
			return nil, vmcperrors.Newf(vmcperrors.InvalidDeclaration,
				"<classref %s> takes only name, versions, flags and id", d.Name)
		}
		v.ClassName = d.Name
		return v, nil
	}

	if d.Class == "" || d.Name == "" || d.Signature == "" {
		return nil, vmcperrors.Newf(vmcperrors.InvalidDeclaration,
			"%s needs class, name and signature", d.label())
	}
	if d.Cast != "" && !kind.IsField() {
		return nil, vmcperrors.Newf(vmcperrors.InvalidDeclaration, "cast on %s", d.label())
	}

	owner := cat.FindClass(d.Class)
	if owner == nil {
		return nil, vmcperrors.Newf(vmcperrors.UnknownClass,
			"%s names undeclared class %s", d.label(), d.Class).
			WithDetails(map[string]string{"class": d.Class})
	}
	v.ClassName = d.Class
	v.Class = owner
	v.Name = d.Name
	v.Signature = d.Signature
	v.Cast = d.Cast

	if kind.IsField() {
		if _, err := v.FieldAccess(); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// locate prefixes the message of a coded error with where it happened.
func locate(source string, d *Decl, err error) error {
	where := d.label()
	if source != "" {
		where = source + ": " + where
	}
	var e *vmcperrors.Error
	if errors.As(err, &e) {
		e.Message = where + ": " + e.Message
		return e
	}
	return vmcperrors.New(vmcperrors.InvalidDeclaration, where, err)
}
