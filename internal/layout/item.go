// Package layout is the binary layout engine: it interns secondary data,
// plans every offset of the table (phase A), then materializes the bytes,
// the rendered cells and the packed type-tag tables from that plan (phase B).
package layout

import (
	"fmt"
	"math"
)

// ItemSize is the fixed size of a primary record.
const ItemSize = 8

// ItemKind distinguishes the secondary data shapes.
type ItemKind uint8

const (
	// ItemText is a length-prefixed byte string, 2-byte aligned.
	ItemText ItemKind = iota + 1
	// ItemPair is two self-relative offsets to text items, 4-byte aligned.
	ItemPair
)

// Item is a secondary data value. Items compare by content, so an Item is
// its own dedup key.
type Item struct {
	Kind   ItemKind
	Text   string
	First  string
	Second string
}

// Text returns the text item for s.
func Text(s string) Item {
	return Item{Kind: ItemText, Text: s}
}

// Pair returns the pair item referencing the texts first and second.
func Pair(first, second string) Item {
	return Item{Kind: ItemPair, First: first, Second: second}
}

// Align returns the required start alignment.
func (it Item) Align() uint32 {
	if it.Kind == ItemPair {
		return 4
	}
	return 2
}

// Size returns the encoded size in bytes.
func (it Item) Size() uint32 {
	if it.Kind == ItemPair {
		return 8
	}
	return 2 + uint32(len(it.Text))
}

func (it Item) validate() error {
	switch it.Kind {
	case ItemText:
		if len(it.Text) > math.MaxUint16 {
			return fmt.Errorf("text of %d bytes exceeds the 16-bit length prefix", len(it.Text))
		}
		return nil
	case ItemPair:
		if err := Text(it.First).validate(); err != nil {
			return err
		}
		return Text(it.Second).validate()
	default:
		return fmt.Errorf("unknown item kind %d", it.Kind)
	}
}

func (it Item) String() string {
	if it.Kind == ItemPair {
		return fmt.Sprintf("pair(%q, %q)", it.First, it.Second)
	}
	return fmt.Sprintf("text(%q)", it.Text)
}
