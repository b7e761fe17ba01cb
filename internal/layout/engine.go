package layout

import (
	"encoding/hex"
	"log/slog"

	"golang.org/x/crypto/blake2b"

	"vmcp/internal/catalog"
	vmcperrors "vmcp/internal/errors"
	"vmcp/internal/slogutil"
)

// Table is the emitted binary table with its type-tag side tables.
type Table struct {
	Plan *Plan

	// Bytes is the big-endian table image.
	Bytes []byte
	// Cells is Bytes grouped into 32-bit cells for rendering.
	Cells []Cell

	// Tags is the split type-tag table, UnsplitTags its coarse form.
	Tags        []uint32
	UnsplitTags []uint32
}

// SlotCount returns the number of slots including slot 0.
func (t *Table) SlotCount() int {
	return len(t.Plan.Slots)
}

// Digest returns the hex BLAKE2b-256 digest of the table image.
func (t *Table) Digest() string {
	sum := blake2b.Sum256(t.Bytes)
	return hex.EncodeToString(sum[:])
}

// Materialize runs phase B: it renders the table from a plan. It only reads
// the plan's offsets; any drift from them is a fatal error.
func Materialize(p *Plan) (*Table, error) {
	p.interner.resetRendered()
	w := NewWriter()

	for i := range p.Slots {
		if err := encodeRecord(w, p, &p.Slots[i]); err != nil {
			return nil, err
		}
	}
	for _, placed := range p.Items {
		if err := encodeItem(w, p, placed); err != nil {
			return nil, err
		}
	}
	w.Align(ItemSize)

	if w.Offset() != p.Size {
		return nil, vmcperrors.Newf(vmcperrors.InvalidTableSize,
			"materialized %d bytes, planned %d", w.Offset(), p.Size)
	}
	if err := checkTableSize(w.Offset()); err != nil {
		return nil, err
	}
	data, cells, err := w.Finish()
	if err != nil {
		return nil, err
	}

	tags := PackTags(p.Tags())
	return &Table{
		Plan:        p,
		Bytes:       data,
		Cells:       cells,
		Tags:        tags,
		UnsplitTags: UnsplitWords(tags),
	}, nil
}

// Engine runs both phases for one emission.
type Engine struct {
	logger *slog.Logger
}

// NewEngine returns an engine logging to logger.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &Engine{logger: logger}
}

// Emit plans and materializes the table of cat under ctx.
func (e *Engine) Emit(cat *catalog.Catalog, ctx catalog.Context) (*Table, error) {
	plan, err := BuildPlan(cat, ctx)
	if err != nil {
		return nil, err
	}

	excluded := 0
	for i := range plan.Slots {
		if plan.Slots[i].Excluded || (i > 0 && plan.Slots[i].Variant.IsUnused()) {
			excluded++
		}
	}
	e.logger.Debug("Planned table layout",
		"version", ctx.Version,
		"flags", ctx.Flags.String(),
		"slots", len(plan.Slots),
		"unused", excluded,
		"secondaryItems", len(plan.Items),
		"size", plan.Size,
	)

	table, err := Materialize(plan)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("Materialized table", "bytes", len(table.Bytes), "cells", len(table.Cells))
	return table, nil
}

// Emit is Engine.Emit without logging.
func Emit(cat *catalog.Catalog, ctx catalog.Context) (*Table, error) {
	return NewEngine(nil).Emit(cat, ctx)
}
