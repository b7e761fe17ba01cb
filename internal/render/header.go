package render

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"vmcp/internal/catalog"
	"vmcp/internal/layout"
)

// Header renders the slot constants and field accessor macros. Indices are
// fixed by catalog order; plan only supplies the variant whose signature and
// cast pick each accessor's storage, falling back to the default variant for
// slots that are unused in this build.
func Header(cat *catalog.Catalog, plan *layout.Plan, opts Options) ([]byte, error) {
	opts = opts.withDefaults()
	if err := checkFlags(cat); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	guard := includeGuard(opts.HeaderName)
	writeBanner(&buf, opts)
	fmt.Fprintf(&buf, "#ifndef %s\n#define %s\n\n", guard, guard)

	for _, sym := range cat.Symbols() {
		cond, _ := symbolGuard(sym, opts.GuardPrefix)
		guarded(&buf, cond, func() {
			fmt.Fprintf(&buf, "#define %s%s %d\n", ConstantPrefix, sym.ID, sym.Index())
		})
	}
	fmt.Fprintf(&buf, "\n#define %sSIZE %d\n", ConstantPrefix, cat.Size())

	for _, sym := range cat.Symbols() {
		if !sym.Kind.IsField() {
			continue
		}
		acc, err := fieldVariant(sym, plan).FieldAccess()
		if err != nil {
			return nil, withSymbol(err, sym)
		}
		cond, _ := symbolGuard(sym, opts.GuardPrefix)
		buf.WriteByte('\n')
		guarded(&buf, cond, func() {
			if sym.Kind == catalog.KindStaticField {
				writeStaticAccessors(&buf, sym.ID, acc)
			} else {
				writeInstanceAccessors(&buf, sym.ID, acc)
			}
		})
	}

	fmt.Fprintf(&buf, "\nextern const struct J9VMConstantPoolTable _j9vmconstantpool;\n")
	fmt.Fprintf(&buf, "\n#endif /* %s */\n", guard)
	return buf.Bytes(), nil
}

func fieldVariant(sym *catalog.Symbol, plan *layout.Plan) *catalog.Variant {
	if plan != nil {
		idx := sym.Index()
		if idx > 0 && idx < len(plan.Slots) && plan.Slots[idx].Live() {
			return plan.Slots[idx].Variant
		}
	}
	return sym.Default
}

// setterName turns JAVALANGSTRING_VALUE into JAVALANGSTRING_SET_VALUE.
func setterName(id string) string {
	class, member, ok := strings.Cut(id, "_")
	if !ok {
		return id + "_SET"
	}
	return class + "_SET_" + member
}

// addressType is the pointee of an _ADDRESS macro. Object slots hold
// compressed references.
func addressType(acc catalog.Access) string {
	if acc.Storage == catalog.StorageObject {
		return "fj9object_t"
	}
	return acc.CType
}

func writeInstanceAccessors(w io.Writer, id string, acc catalog.Access) {
	slot := ConstantPrefix + id
	name := "J9VM" + id
	set := "J9VM" + setterName(id)
	st := acc.Storage.String()

	fmt.Fprintf(w, "#define %s_OFFSET(vmThread) J9VMCONSTANTPOOL_FIELD_OFFSET(J9VMTHREAD_JAVAVM(vmThread), %s)\n", name, slot)
	fmt.Fprintf(w, "#define %s_OFFSET_VM(vm) J9VMCONSTANTPOOL_FIELD_OFFSET(vm, %s)\n", name, slot)
	fmt.Fprintf(w, "#define %s(vmThread, object) ((%s)J9OBJECT_%s_LOAD(vmThread, object, %s_OFFSET(vmThread)))\n", name, acc.CType, st, name)
	fmt.Fprintf(w, "#define %s_VM(vm, object) ((%s)J9OBJECT_%s_LOAD_VM(vm, object, %s_OFFSET_VM(vm)))\n", name, acc.CType, st, name)
	fmt.Fprintf(w, "#define %s(vmThread, object, value) J9OBJECT_%s_STORE(vmThread, object, %s_OFFSET(vmThread), (value))\n", set, st, name)
	fmt.Fprintf(w, "#define %s_VM(vm, object, value) J9OBJECT_%s_STORE_VM(vm, object, %s_OFFSET_VM(vm), (value))\n", set, st, name)
	fmt.Fprintf(w, "#define %s_ADDRESS(vmThread, object) ((%s *)((U_8 *)(object) + %s_OFFSET(vmThread)))\n", name, addressType(acc), name)
	fmt.Fprintf(w, "#define %s_ADDRESS_VM(vm, object) ((%s *)((U_8 *)(object) + %s_OFFSET_VM(vm)))\n", name, addressType(acc), name)
}

// Static fields are reached through the resolved class of the slot.
func writeStaticAccessors(w io.Writer, id string, acc catalog.Access) {
	slot := ConstantPrefix + id
	name := "J9VM" + id
	set := "J9VM" + setterName(id)
	st := acc.Storage.String()

	fmt.Fprintf(w, "#define %s_ADDRESS(vmThread) ((%s *)J9VMCONSTANTPOOL_STATICFIELD_ADDRESS(J9VMTHREAD_JAVAVM(vmThread), %s))\n", name, addressType(acc), slot)
	fmt.Fprintf(w, "#define %s_ADDRESS_VM(vm) ((%s *)J9VMCONSTANTPOOL_STATICFIELD_ADDRESS(vm, %s))\n", name, addressType(acc), slot)
	fmt.Fprintf(w, "#define %s(vmThread, clazz) ((%s)J9STATIC_%s_LOAD(vmThread, clazz, %s_ADDRESS(vmThread)))\n", name, acc.CType, st, name)
	fmt.Fprintf(w, "#define %s_VM(vm, clazz) ((%s)J9STATIC_%s_LOAD_VM(vm, clazz, %s_ADDRESS_VM(vm)))\n", name, acc.CType, st, name)
	fmt.Fprintf(w, "#define %s(vmThread, clazz, value) J9STATIC_%s_STORE(vmThread, clazz, %s_ADDRESS(vmThread), (value))\n", set, st, name)
	fmt.Fprintf(w, "#define %s_VM(vm, clazz, value) J9STATIC_%s_STORE_VM(vm, clazz, %s_ADDRESS_VM(vm), (value))\n", set, st, name)
}
