package layout

import (
	"encoding/binary"

	vmcperrors "vmcp/internal/errors"
)

// DecodedRecord is one primary record read back from a table image.
type DecodedRecord struct {
	Index  int    `json:"index" yaml:"index"`
	Offset uint32 `json:"offset" yaml:"offset"`
	// Kind is "unused", "class" or "member"; records do not carry finer kinds.
	Kind       string `json:"kind" yaml:"kind"`
	ClassIndex uint32 `json:"classIndex,omitempty" yaml:"classIndex,omitempty"`
	Name       string `json:"name,omitempty" yaml:"name,omitempty"`
	Signature  string `json:"signature,omitempty" yaml:"signature,omitempty"`
}

// Decode reads the primary records of a table image. The record region ends
// where the first secondary item starts, which is the lowest offset any live
// record points at; a table without live records is all records.
func Decode(data []byte) ([]DecodedRecord, error) {
	if err := checkTableSize(uint32(len(data))); err != nil {
		return nil, err
	}
	d := decoder{data: data}

	end := uint32(len(data))
	var out []DecodedRecord
	for off := uint32(0); off < end; off += ItemSize {
		first, second := d.word(off), d.word(off+4)
		rec := DecodedRecord{Index: len(out), Offset: off}

		switch {
		case first == 0 && second == 0:
			rec.Kind = "unused"
		case second == 0:
			rec.Kind = "class"
			target, err := d.target(off, first)
			if err != nil {
				return nil, err
			}
			name, err := d.text(target)
			if err != nil {
				return nil, err
			}
			rec.Name = name
			end = min(end, target)
		default:
			rec.Kind = "member"
			rec.ClassIndex = first
			target, err := d.target(off+4, second)
			if err != nil {
				return nil, err
			}
			if uint64(target)+8 > uint64(len(data)) || target%4 != 0 {
				return nil, vmcperrors.Newf(vmcperrors.MismatchedOffset,
					"record %d points at invalid pair offset %d", rec.Index, target)
			}
			name, err := d.pairText(target)
			if err != nil {
				return nil, err
			}
			sig, err := d.pairText(target + 4)
			if err != nil {
				return nil, err
			}
			rec.Name, rec.Signature = name, sig
			end = min(end, target)
		}
		if d.err != nil {
			return nil, d.err
		}
		out = append(out, rec)
	}
	return out, nil
}

type decoder struct {
	data []byte
	err  error
}

func (d *decoder) word(off uint32) uint32 {
	if uint64(off)+4 > uint64(len(d.data)) {
		if d.err == nil {
			d.err = vmcperrors.Newf(vmcperrors.InvalidTableSize, "read past end of table at %d", off)
		}
		return 0
	}
	return binary.BigEndian.Uint32(d.data[off:])
}

// target resolves the SRP stored at offset at. Targets outside the image are
// MISMATCHED_OFFSET.
func (d *decoder) target(at, srp uint32) (uint32, error) {
	t := int64(at) + int64(int32(srp))
	if t < 0 || t >= int64(len(d.data)) {
		return 0, vmcperrors.Newf(vmcperrors.MismatchedOffset,
			"pointer at %d leaves the table (target %d)", at, t)
	}
	return uint32(t), nil
}

// pairText follows one half of a (name, signature) pair.
func (d *decoder) pairText(at uint32) (string, error) {
	t, err := d.target(at, d.word(at))
	if err != nil {
		return "", err
	}
	return d.text(t)
}

func (d *decoder) text(off uint32) (string, error) {
	size := uint64(len(d.data))
	if off%2 != 0 || uint64(off)+2 > size {
		return "", vmcperrors.Newf(vmcperrors.MismatchedOffset, "invalid text offset %d", off)
	}
	n := uint64(binary.BigEndian.Uint16(d.data[off:]))
	if uint64(off)+2+n > size {
		return "", vmcperrors.Newf(vmcperrors.MismatchedOffset, "text at %d overruns the table", off)
	}
	return string(d.data[off+2 : uint64(off)+2+n]), nil
}
