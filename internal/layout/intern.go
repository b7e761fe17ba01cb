package layout

import (
	"fmt"

	vmcperrors "vmcp/internal/errors"
)

// ItemID is the stable arena index of an interned item.
type ItemID int

// NoItem marks a slot without secondary data.
const NoItem ItemID = -1

// Interner deduplicates secondary items by content. Every distinct item gets
// one arena slot, one offset, and is rendered once.
type Interner struct {
	items    []Item
	ids      map[Item]ItemID
	offsets  []uint32
	placed   []bool
	rendered []bool
}

// NewInterner returns an empty arena.
func NewInterner() *Interner {
	return &Interner{ids: make(map[Item]ItemID)}
}

// Intern returns the ID of it, adding it on first encounter. Interning a
// pair also interns the two texts it references, right after the pair.
func (n *Interner) Intern(it Item) (ItemID, error) {
	if id, ok := n.ids[it]; ok {
		return id, nil
	}
	if err := it.validate(); err != nil {
		return NoItem, vmcperrors.New(vmcperrors.UnsupportedEncoding, it.String(), err)
	}

	id := ItemID(len(n.items))
	n.items = append(n.items, it)
	n.offsets = append(n.offsets, 0)
	n.placed = append(n.placed, false)
	n.rendered = append(n.rendered, false)
	n.ids[it] = id

	if it.Kind == ItemPair {
		if _, err := n.Intern(Text(it.First)); err != nil {
			return NoItem, err
		}
		if _, err := n.Intern(Text(it.Second)); err != nil {
			return NoItem, err
		}
	}
	return id, nil
}

// Len returns the number of distinct items.
func (n *Interner) Len() int {
	return len(n.items)
}

// Item returns the item stored at id.
func (n *Interner) Item(id ItemID) Item {
	return n.items[id]
}

// ID returns the arena index of it.
func (n *Interner) ID(it Item) (ItemID, bool) {
	id, ok := n.ids[it]
	return id, ok
}

// SetOffset fixes the offset of id. Setting the same offset again is a
// no-op; a different offset is a fatal inconsistency.
func (n *Interner) SetOffset(id ItemID, offset uint32) error {
	if id < 0 || int(id) >= len(n.items) {
		return vmcperrors.Newf(vmcperrors.InternalError, "secondary item %d not interned", id)
	}
	if n.placed[id] {
		if n.offsets[id] != offset {
			return vmcperrors.Newf(vmcperrors.MismatchedOffset,
				"mismatched offset in secondary item %s: %d != %d", n.items[id], offset, n.offsets[id])
		}
		return nil
	}
	n.offsets[id] = offset
	n.placed[id] = true
	return nil
}

// Offset returns the offset fixed for id.
func (n *Interner) Offset(id ItemID) (uint32, bool) {
	if id < 0 || int(id) >= len(n.items) || !n.placed[id] {
		return 0, false
	}
	return n.offsets[id], true
}

// Lookup returns the offset fixed for it.
func (n *Interner) Lookup(it Item) (uint32, bool) {
	id, ok := n.ids[it]
	if !ok {
		return 0, false
	}
	return n.Offset(id)
}

// mustOffset is Lookup for items the plan guarantees are placed.
func (n *Interner) mustOffset(it Item) (uint32, error) {
	off, ok := n.Lookup(it)
	if !ok {
		return 0, vmcperrors.New(vmcperrors.InternalError, "secondary item has no offset", fmt.Errorf("%s", it))
	}
	return off, nil
}

// markRendered records that id's bytes were written and reports whether this
// was the first time.
func (n *Interner) markRendered(id ItemID) bool {
	if n.rendered[id] {
		return false
	}
	n.rendered[id] = true
	return true
}

func (n *Interner) resetRendered() {
	for i := range n.rendered {
		n.rendered[i] = false
	}
}
