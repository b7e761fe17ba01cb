package layout

import (
	"vmcp/internal/catalog"
	vmcperrors "vmcp/internal/errors"
)

// Slot is the planned primary record of one catalog index.
type Slot struct {
	Index   int
	Symbol  *catalog.Symbol  // nil for the reserved slot 0
	Variant *catalog.Variant // resolved variant, catalog.Unused when nothing applies
	Rule    catalog.Rule
	Tag     catalog.TypeTag
	Offset  uint32

	// Excluded is set for member slots whose class did not make it into the
	// build; they encode as the zero record.
	Excluded   bool
	ClassIndex uint32
	Item       ItemID
}

// Live reports whether the slot encodes a real reference.
func (s *Slot) Live() bool {
	return !s.Excluded && !s.Variant.IsUnused()
}

// PlacedItem is a secondary item with its fixed offset.
type PlacedItem struct {
	ID     ItemID
	Item   Item
	Offset uint32
}

// Plan is the immutable outcome of phase A: the resolution of every symbol,
// the class inclusion table, and the offset of every record and item.
type Plan struct {
	Context catalog.Context
	Slots   []Slot
	Items   []PlacedItem
	Size    uint32

	included map[*catalog.Symbol]bool
	interner *Interner
}

// ClassIncluded reports the inclusion decision for a class symbol.
func (p *Plan) ClassIncluded(s *catalog.Symbol) bool {
	return p.included[s]
}

// ItemOffset returns the planned offset of a secondary item.
func (p *Plan) ItemOffset(it Item) (uint32, bool) {
	return p.interner.Lookup(it)
}

// Tags returns the split tag of every slot, slot 0 included.
func (p *Plan) Tags() []catalog.TypeTag {
	tags := make([]catalog.TypeTag, len(p.Slots))
	for i := range p.Slots {
		tags[i] = p.Slots[i].Tag
	}
	return tags
}

// BuildPlan runs phase A for cat under ctx.
func BuildPlan(cat *catalog.Catalog, ctx catalog.Context) (*Plan, error) {
	p := &Plan{
		Context:  ctx,
		Slots:    make([]Slot, cat.Size()),
		included: make(map[*catalog.Symbol]bool),
		interner: NewInterner(),
	}
	p.Slots[0] = Slot{Variant: catalog.Unused, Item: NoItem}

	for i, sym := range cat.Symbols() {
		v, rule := catalog.ResolveRule(sym, ctx)
		p.Slots[i+1] = Slot{
			Index:   i + 1,
			Symbol:  sym,
			Variant: v,
			Rule:    rule,
			Item:    NoItem,
		}
		if sym.Kind == catalog.KindClass {
			p.included[sym] = !v.IsUnused()
		}
	}

	if err := p.linkMembers(cat); err != nil {
		return nil, err
	}
	if err := p.intern(); err != nil {
		return nil, err
	}
	if err := p.place(); err != nil {
		return nil, err
	}
	return p, nil
}

// linkMembers applies the inclusion table to member slots.
func (p *Plan) linkMembers(cat *catalog.Catalog) error {
	for i := 1; i < len(p.Slots); i++ {
		slot := &p.Slots[i]
		v := slot.Variant
		if !v.Kind.IsMember() {
			continue
		}

		class := v.Class
		if class == nil {
			class = cat.FindClass(v.ClassName)
		}
		if class == nil || cat.IndexOf(class) == 0 {
			return vmcperrors.Newf(vmcperrors.UnknownClass,
				"%s %s references undeclared class %s", v.Kind, slot.Symbol.ID, v.ClassName)
		}

		if !p.included[class] {
			slot.Excluded = true
			continue
		}
		slot.ClassIndex = uint32(cat.IndexOf(class))
	}
	return nil
}

// intern assigns arena IDs to the secondary data of every live slot in
// catalog order, before any offset is computed.
func (p *Plan) intern() error {
	for i := 1; i < len(p.Slots); i++ {
		slot := &p.Slots[i]
		if !slot.Live() {
			continue
		}

		var it Item
		if slot.Variant.Kind == catalog.KindClass {
			it = Text(slot.Variant.ClassName)
		} else {
			it = Pair(slot.Variant.Name, slot.Variant.Signature)
		}
		id, err := p.interner.Intern(it)
		if err != nil {
			return err
		}
		slot.Item = id
	}
	return nil
}

// place walks the write sequence once, fixing every offset.
func (p *Plan) place() error {
	var offset uint32

	for i := range p.Slots {
		slot := &p.Slots[i]
		if offset%ItemSize != 0 {
			return vmcperrors.Newf(vmcperrors.MisalignedRecord,
				"record %d at offset %d is not a multiple of %d", i, offset, ItemSize)
		}
		slot.Offset = offset
		if slot.Live() {
			slot.Tag = slot.Variant.Kind.Tag()
		}
		offset += ItemSize
	}

	p.Items = make([]PlacedItem, 0, p.interner.Len())
	for id := ItemID(0); int(id) < p.interner.Len(); id++ {
		it := p.interner.Item(id)
		offset = alignUp(offset, it.Align())
		if err := p.interner.SetOffset(id, offset); err != nil {
			return err
		}
		p.Items = append(p.Items, PlacedItem{ID: id, Item: it, Offset: offset})
		offset += it.Size()
	}

	p.Size = alignUp(offset, ItemSize)
	return checkTableSize(p.Size)
}

func checkTableSize(size uint32) error {
	if size == 0 || size%ItemSize != 0 {
		return vmcperrors.Newf(vmcperrors.InvalidTableSize,
			"table size %d is not a positive multiple of %d", size, ItemSize)
	}
	return nil
}
