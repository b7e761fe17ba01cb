package layout

import (
	"vmcp/internal/catalog"
	vmcperrors "vmcp/internal/errors"
)

// encodeRecord writes the 8-byte primary record of slot.
func encodeRecord(w *Writer, p *Plan, slot *Slot) error {
	if w.Offset() != slot.Offset || slot.Offset%ItemSize != 0 {
		return vmcperrors.Newf(vmcperrors.MisalignedRecord,
			"record %d written at offset %d, planned %d", slot.Index, w.Offset(), slot.Offset)
	}
	if !slot.Live() {
		w.U32(0)
		w.U32(0)
		return w.Err()
	}

	v := slot.Variant
	switch v.Kind {
	case catalog.KindClass:
		return encodeClassRef(w, p, v)
	case catalog.KindInstanceField, catalog.KindStaticField:
		return encodeMemberRef(w, p, slot)
	case catalog.KindVirtualMethod, catalog.KindStaticMethod,
		catalog.KindSpecialMethod, catalog.KindInterfaceMethod:
		return encodeMemberRef(w, p, slot)
	default:
		return vmcperrors.Newf(vmcperrors.InternalError, "no record encoding for %s", v.Kind)
	}
}

// encodeClassRef writes {SRP name, runtime flags = 0}.
func encodeClassRef(w *Writer, p *Plan, v *catalog.Variant) error {
	name, err := p.interner.mustOffset(Text(v.ClassName))
	if err != nil {
		return err
	}
	w.SRP(name)
	w.U32(0)
	return w.Err()
}

// encodeMemberRef writes {class index, SRP name-and-signature}.
func encodeMemberRef(w *Writer, p *Plan, slot *Slot) error {
	nas, err := p.interner.mustOffset(Pair(slot.Variant.Name, slot.Variant.Signature))
	if err != nil {
		return err
	}
	w.U32(slot.ClassIndex)
	w.SRP(nas)
	return w.Err()
}

// encodeItem writes one secondary item at its planned offset.
func encodeItem(w *Writer, p *Plan, placed PlacedItem) error {
	w.Align(placed.Item.Align())
	if err := p.interner.SetOffset(placed.ID, w.Offset()); err != nil {
		return err
	}
	if !p.interner.markRendered(placed.ID) {
		return vmcperrors.Newf(vmcperrors.InternalError, "secondary item %s rendered twice", placed.Item)
	}

	switch placed.Item.Kind {
	case ItemText:
		w.U16(uint16(len(placed.Item.Text)))
		w.Bytes([]byte(placed.Item.Text))
	case ItemPair:
		first, err := p.interner.mustOffset(Text(placed.Item.First))
		if err != nil {
			return err
		}
		second, err := p.interner.mustOffset(Text(placed.Item.Second))
		if err != nil {
			return err
		}
		w.SRP(first)
		w.SRP(second)
	}
	return w.Err()
}
