package layout

import (
	"bytes"
	"testing"

	"vmcp/internal/catalog"
	vmcperrors "vmcp/internal/errors"
)

func TestWriter_CellShapes(t *testing.T) {
	tests := []struct {
		name  string
		write func(w *Writer)
		want  Shape
	}{
		{"u32", func(w *Writer) { w.U32(1) }, ShapeU32},
		{"u16 u16", func(w *Writer) { w.U16(1); w.U16(2) }, ShapeU16U16},
		{"u16 u8 u8", func(w *Writer) { w.U16(1); w.U8(2); w.U8(3) }, ShapeU16U8U8},
		{"u8 u8 u16", func(w *Writer) { w.U8(1); w.U8(2); w.U16(3) }, ShapeU8U8U16},
		{"bytes", func(w *Writer) { w.Bytes([]byte("abcd")) }, ShapeU8U8U8U8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWriter()
			tt.write(w)
			_, cells, err := w.Finish()
			if err != nil {
				t.Fatalf("Finish() error = %v", err)
			}
			if len(cells) != 1 {
				t.Fatalf("got %d cells, want 1", len(cells))
			}
			if cells[0].Shape != tt.want {
				t.Errorf("shape = %s, want %s", cells[0].Shape, tt.want)
			}
		})
	}
}

func TestWriter_BigEndian(t *testing.T) {
	w := NewWriter()
	w.U16(0x0102)
	w.U8(0x03)
	w.U8(0x04)
	w.U32(0x05060708)
	data, _, err := w.Finish()
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	if !bytes.Equal(data, want) {
		t.Errorf("bytes = %v, want %v", data, want)
	}
}

func TestWriter_SRP(t *testing.T) {
	w := NewWriter()
	w.U32(0)
	w.SRP(0)  // backward, from offset 4
	w.SRP(20) // forward, from offset 8
	data, cells, err := w.Finish()
	if err != nil {
		t.Fatal(err)
	}
	if got := int32(word(data, 4)); got != -4 {
		t.Errorf("backward SRP = %d, want -4", got)
	}
	if got := int32(word(data, 8)); got != 12 {
		t.Errorf("forward SRP = %d, want 12", got)
	}
	if len(cells) != 3 {
		t.Errorf("got %d cells, want 3", len(cells))
	}
}

func TestWriter_UnalignedValue(t *testing.T) {
	w := NewWriter()
	w.U8(1)
	w.U16(2)
	w.U8(3)
	if !vmcperrors.Is(w.Err(), vmcperrors.InternalError) {
		t.Fatalf("Err() = %v, want %s", w.Err(), vmcperrors.InternalError)
	}
	if _, _, err := w.Finish(); err == nil {
		t.Error("Finish() succeeded after a write error")
	}
}

func TestWriter_PartialCell(t *testing.T) {
	w := NewWriter()
	w.U16(1)
	if _, _, err := w.Finish(); err == nil {
		t.Error("Finish() accepted a table ending inside a cell")
	}
}

func TestWriter_Align(t *testing.T) {
	w := NewWriter()
	w.U8(1)
	w.Align(8)
	if w.Offset() != 8 {
		t.Errorf("Offset() = %d, want 8", w.Offset())
	}
	w.Align(8)
	if w.Offset() != 8 {
		t.Errorf("aligning an aligned offset moved it to %d", w.Offset())
	}
}

func TestPackTags_RoundTrip(t *testing.T) {
	tags := []catalog.TypeTag{
		catalog.TagUnused,
		catalog.TagClass,
		catalog.TagField,
		catalog.TagStaticField,
		catalog.TagInstanceMethod,
		catalog.TagStaticMethod,
		catalog.TagSpecialMethod,
		catalog.TagInterfaceMethod,
		catalog.TagClass,
	}
	words := PackTags(tags)
	if len(words) != 3 {
		t.Fatalf("got %d words, want 3", len(words))
	}
	if words[0] != 0x08070100 {
		t.Errorf("word 0 = %#08x, want 0x08070100", words[0])
	}

	got := UnpackTags(words, len(tags))
	for i := range tags {
		if got[i] != tags[i] {
			t.Errorf("tag[%d] = %s, want %s", i, got[i], tags[i])
		}
	}
}

func TestUnsplitWords(t *testing.T) {
	tags := []catalog.TypeTag{
		catalog.TagClass,
		catalog.TagStaticField,
		catalog.TagStaticMethod,
		catalog.TagSpecialMethod,
		catalog.TagInterfaceMethod,
		catalog.TagField,
	}
	want := []catalog.TypeTag{
		catalog.TagClass,
		catalog.TagField,
		catalog.TagInstanceMethod,
		catalog.TagInstanceMethod,
		catalog.TagInstanceMethod,
		catalog.TagField,
	}
	got := UnpackTags(UnsplitWords(PackTags(tags)), len(tags))
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("unsplit tag[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestItem_SizeAndAlign(t *testing.T) {
	tests := []struct {
		item  Item
		size  uint32
		align uint32
	}{
		{Text(""), 2, 2},
		{Text("abc"), 5, 2},
		{Pair("a", "b"), 8, 4},
	}
	for _, tt := range tests {
		if got := tt.item.Size(); got != tt.size {
			t.Errorf("%s Size() = %d, want %d", tt.item, got, tt.size)
		}
		if got := tt.item.Align(); got != tt.align {
			t.Errorf("%s Align() = %d, want %d", tt.item, got, tt.align)
		}
	}
}
