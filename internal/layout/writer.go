package layout

import (
	"bytes"
	"encoding/binary"
	"fmt"

	vmcperrors "vmcp/internal/errors"
)

// Shape is the grouping of 1-, 2- and 4-byte pieces inside one 32-bit cell.
type Shape uint8

const (
	ShapeU32 Shape = iota + 1
	ShapeU16U16
	ShapeU16U8U8
	ShapeU8U8U16
	ShapeU8U8U8U8
)

func (s Shape) String() string {
	switch s {
	case ShapeU32:
		return "U32"
	case ShapeU16U16:
		return "U16U16"
	case ShapeU16U8U8:
		return "U16U8U8"
	case ShapeU8U8U16:
		return "U8U8U16"
	case ShapeU8U8U8U8:
		return "U8U8U8U8"
	default:
		return "?"
	}
}

// Piece is one value written into the table.
type Piece struct {
	Size  uint8
	Value uint32
}

// Cell is a 32-bit unit of the table and the pieces that fill it, in
// address order.
type Cell struct {
	Shape  Shape
	Pieces []Piece
}

// shapeOf picks a cell shape from the piece sizes alone.
func shapeOf(pieces []Piece) (Shape, bool) {
	var sizes [4]uint8
	if len(pieces) > len(sizes) {
		return 0, false
	}
	for i, p := range pieces {
		sizes[i] = p.Size
	}
	switch sizes {
	case [4]uint8{4}:
		return ShapeU32, true
	case [4]uint8{2, 2}:
		return ShapeU16U16, true
	case [4]uint8{2, 1, 1}:
		return ShapeU16U8U8, true
	case [4]uint8{1, 1, 2}:
		return ShapeU8U8U16, true
	case [4]uint8{1, 1, 1, 1}:
		return ShapeU8U8U8U8, true
	default:
		return 0, false
	}
}

// Writer is the phase B sink. It renders pieces big-endian and groups them
// into cells. The first error sticks; later writes are ignored.
type Writer struct {
	buf     bytes.Buffer
	cells   []Cell
	pending []Piece
	fill    int
	offset  uint32
	err     error
}

// NewWriter returns an empty writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Offset returns the number of bytes written so far.
func (w *Writer) Offset() uint32 {
	return w.offset
}

// Err returns the first error encountered.
func (w *Writer) Err() error {
	return w.err
}

func (w *Writer) put(size uint8, value uint32) {
	if w.err != nil {
		return
	}
	if w.offset%uint32(size) != 0 {
		w.err = vmcperrors.Newf(vmcperrors.InternalError,
			"%d-byte value at unaligned offset %d", size, w.offset)
		return
	}

	switch size {
	case 1:
		w.buf.WriteByte(byte(value))
	case 2:
		w.buf.Write(binary.BigEndian.AppendUint16(nil, uint16(value)))
	case 4:
		w.buf.Write(binary.BigEndian.AppendUint32(nil, value))
	}
	w.offset += uint32(size)

	w.pending = append(w.pending, Piece{Size: size, Value: value})
	w.fill += int(size)
	if w.fill == 4 {
		shape, ok := shapeOf(w.pending)
		if !ok {
			w.err = vmcperrors.Newf(vmcperrors.InternalError, "no cell shape for pieces %v", w.pending)
			return
		}
		w.cells = append(w.cells, Cell{Shape: shape, Pieces: w.pending})
		w.pending = nil
		w.fill = 0
	}
}

// U8 writes one byte.
func (w *Writer) U8(v uint8) { w.put(1, uint32(v)) }

// U16 writes a 2-byte value.
func (w *Writer) U16(v uint16) { w.put(2, uint32(v)) }

// U32 writes a 4-byte value.
func (w *Writer) U32(v uint32) { w.put(4, v) }

// SRP writes a self-relative pointer to target: the signed distance from the
// pointer's own offset.
func (w *Writer) SRP(target uint32) {
	w.put(4, uint32(int32(int64(target)-int64(w.offset))))
}

// Bytes writes raw bytes one piece each.
func (w *Writer) Bytes(b []byte) {
	for _, c := range b {
		w.U8(c)
	}
}

// Align pads with zero bytes up to a multiple of n.
func (w *Writer) Align(n uint32) {
	for w.offset%n != 0 && w.err == nil {
		w.U8(0)
	}
}

// Finish returns the rendered bytes and cells. The output must end on a cell
// boundary.
func (w *Writer) Finish() ([]byte, []Cell, error) {
	if w.err != nil {
		return nil, nil, w.err
	}
	if w.fill != 0 {
		return nil, nil, vmcperrors.New(vmcperrors.InternalError, "table ends inside a cell",
			fmt.Errorf("%d pending bytes", w.fill))
	}
	return w.buf.Bytes(), w.cells, nil
}

// alignUp rounds offset up to a multiple of n.
func alignUp(offset, n uint32) uint32 {
	if r := offset % n; r != 0 {
		return offset + n - r
	}
	return offset
}
