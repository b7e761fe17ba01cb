package render

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"vmcp/internal/catalog"
	vmcperrors "vmcp/internal/errors"
	"vmcp/internal/layout"
)

// CellMacroPrefix starts the cell packing macros of the table source.
const CellMacroPrefix = "J9VMCP_"

const shapeDescription = CellMacroPrefix + "SHAPE_DESCRIPTION"

// Source renders the table as a C initializer. Every 32-bit cell is written
// through the macro of its shape so the table reads the same on both byte
// orders; the split and unsplit tag tables are selected by opts.SplitGuard.
func Source(table *layout.Table, opts Options) ([]byte, error) {
	opts = opts.withDefaults()

	var buf bytes.Buffer
	writeBanner(&buf, opts)
	fmt.Fprintf(&buf, "#include \"j9.h\"\n#include \"%s\"\n\n", opts.HeaderName)
	writeCellMacros(&buf)

	fmt.Fprintf(&buf, "#if defined(%s)\n", opts.SplitGuard)
	fmt.Fprintf(&buf, "#define %s %s\n", shapeDescription, tagList(table.Tags))
	fmt.Fprintf(&buf, "#else /* %s */\n", opts.SplitGuard)
	fmt.Fprintf(&buf, "#define %s %s\n", shapeDescription, tagList(table.UnsplitTags))
	fmt.Fprintf(&buf, "#endif /* %s */\n\n", opts.SplitGuard)

	fmt.Fprintf(&buf, "struct J9VMConstantPoolTable {\n")
	fmt.Fprintf(&buf, "\tU_32 romSize;\n\tU_32 romConstantPoolCount;\n")
	fmt.Fprintf(&buf, "\tU_32 cells[%d];\n", len(table.Cells))
	fmt.Fprintf(&buf, "\tU_32 cpShapeDescription[%d];\n};\n\n", len(table.Tags))

	fmt.Fprintf(&buf, "const struct J9VMConstantPoolTable _j9vmconstantpool = {\n")
	fmt.Fprintf(&buf, "\t%d, /* romSize */\n", len(table.Bytes))
	fmt.Fprintf(&buf, "\t%d, /* romConstantPoolCount */\n", table.SlotCount())
	buf.WriteString("\t{\n")
	if err := writeCells(&buf, table); err != nil {
		return nil, err
	}
	buf.WriteString("\t},\n")
	fmt.Fprintf(&buf, "\t{ %s }\n};\n", shapeDescription)
	return buf.Bytes(), nil
}

func writeCellMacros(w io.Writer) {
	fmt.Fprintf(w, "#define %sU32(a) ((U_32)(a))\n", CellMacroPrefix)
	fmt.Fprintf(w, "#if defined(J9VM_ENV_LITTLE_ENDIAN)\n")
	fmt.Fprintf(w, "#define %sU16U16(a, b) ((U_32)(a) | ((U_32)(b) << 16))\n", CellMacroPrefix)
	fmt.Fprintf(w, "#define %sU16U8U8(a, b, c) ((U_32)(a) | ((U_32)(b) << 16) | ((U_32)(c) << 24))\n", CellMacroPrefix)
	fmt.Fprintf(w, "#define %sU8U8U16(a, b, c) ((U_32)(a) | ((U_32)(b) << 8) | ((U_32)(c) << 16))\n", CellMacroPrefix)
	fmt.Fprintf(w, "#define %sU8U8U8U8(a, b, c, d) ((U_32)(a) | ((U_32)(b) << 8) | ((U_32)(c) << 16) | ((U_32)(d) << 24))\n", CellMacroPrefix)
	fmt.Fprintf(w, "#else /* J9VM_ENV_LITTLE_ENDIAN */\n")
	fmt.Fprintf(w, "#define %sU16U16(a, b) (((U_32)(a) << 16) | (U_32)(b))\n", CellMacroPrefix)
	fmt.Fprintf(w, "#define %sU16U8U8(a, b, c) (((U_32)(a) << 16) | ((U_32)(b) << 8) | (U_32)(c))\n", CellMacroPrefix)
	fmt.Fprintf(w, "#define %sU8U8U16(a, b, c) (((U_32)(a) << 24) | ((U_32)(b) << 16) | (U_32)(c))\n", CellMacroPrefix)
	fmt.Fprintf(w, "#define %sU8U8U8U8(a, b, c, d) (((U_32)(a) << 24) | ((U_32)(b) << 16) | ((U_32)(c) << 8) | (U_32)(d))\n", CellMacroPrefix)
	fmt.Fprintf(w, "#endif /* J9VM_ENV_LITTLE_ENDIAN */\n\n")
}

// writeCells writes two cells per record line, then one secondary cell per
// line annotated with its table offset.
func writeCells(w io.Writer, table *layout.Table) error {
	slots := table.Plan.Slots
	if len(table.Cells) < 2*len(slots) {
		return vmcperrors.Newf(vmcperrors.InternalError,
			"table has %d cells for %d records", len(table.Cells), len(slots))
	}

	for i := range slots {
		fmt.Fprintf(w, "\t\t%s, %s, /* %s */\n",
			cellExpr(table.Cells[2*i]), cellExpr(table.Cells[2*i+1]), slotComment(&slots[i]))
	}
	for i := 2 * len(slots); i < len(table.Cells); i++ {
		fmt.Fprintf(w, "\t\t%s, /* 0x%04x */\n", cellExpr(table.Cells[i]), i*4)
	}
	return nil
}

func slotComment(slot *layout.Slot) string {
	if slot.Symbol == nil {
		return "0"
	}
	comment := fmt.Sprintf("%d %s", slot.Index, slot.Symbol.ID)
	switch {
	case slot.Excluded:
		comment += " (class excluded)"
	case slot.Variant.IsUnused():
		comment += " (unused)"
	}
	return comment
}

func cellExpr(c layout.Cell) string {
	args := make([]string, len(c.Pieces))
	for i, p := range c.Pieces {
		switch p.Size {
		case 1:
			args[i] = fmt.Sprintf("0x%02x", p.Value)
		case 2:
			args[i] = fmt.Sprintf("0x%04x", p.Value)
		default:
			args[i] = fmt.Sprintf("0x%08x", p.Value)
		}
	}
	return CellMacroPrefix + c.Shape.String() + "(" + strings.Join(args, ", ") + ")"
}

func tagList(words []uint32) string {
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = fmt.Sprintf("0x%08x", w)
	}
	return strings.Join(parts, ", ")
}

// Files renders both generated files for one emission.
func Files(cat *catalog.Catalog, table *layout.Table, opts Options) (header, source []byte, err error) {
	header, err = Header(cat, table.Plan, opts)
	if err != nil {
		return nil, nil, err
	}
	source, err = Source(table, opts)
	if err != nil {
		return nil, nil, err
	}
	return header, source, nil
}
