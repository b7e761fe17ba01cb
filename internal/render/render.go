// Package render turns a catalog and its emitted table into the generated C
// header, the C table source, and the raw table blob.
package render

import (
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"unicode"

	"vmcp/internal/catalog"
	vmcperrors "vmcp/internal/errors"
	"vmcp/internal/version"
)

// ConstantPrefix starts every slot constant.
const ConstantPrefix = "J9VMCONSTANTPOOL_"

// Options control naming in the generated files.
type Options struct {
	// HeaderName is the header file name the source includes and the include
	// guard is derived from.
	HeaderName string

	// GuardPrefix is prepended to flag names in #if defined(...) guards.
	GuardPrefix string

	// SplitGuard selects the split tag table in the source.
	SplitGuard string

	// Sources names the catalog documents in the banner.
	Sources []string
}

// DefaultOptions returns the naming used by the VM build.
func DefaultOptions() Options {
	return Options{
		HeaderName:  "j9vmconstantpool.h",
		GuardPrefix: "J9VM_",
		SplitGuard:  "J9VM_OPT_SPLIT_CP_TAGS",
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.HeaderName == "" {
		o.HeaderName = def.HeaderName
	}
	if o.GuardPrefix == "" {
		o.GuardPrefix = def.GuardPrefix
	}
	if o.SplitGuard == "" {
		o.SplitGuard = def.SplitGuard
	}
	return o
}

func writeBanner(w io.Writer, opts Options) {
	from := "(no sources)"
	if len(opts.Sources) > 0 {
		from = strings.Join(opts.Sources, ", ")
	}
	fmt.Fprintf(w, "/* Generated by %s from %s. Do not edit. */\n\n", version.Generator(), from)
}

// includeGuard derives J9VMCONSTANTPOOL_H from j9vmconstantpool.h.
func includeGuard(headerName string) string {
	var b strings.Builder
	for _, r := range path.Base(strings.ReplaceAll(headerName, "\\", "/")) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(unicode.ToUpper(r))
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// FlagMacro names the preprocessor symbol of a catalog flag:
// opt_methodHandle becomes J9VM_OPT_METHOD_HANDLE under prefix J9VM_.
// Names already carrying the prefix are only upper-cased.
func FlagMacro(prefix, flag string) string {
	if prefix != "" && strings.HasPrefix(strings.ToUpper(flag), strings.ToUpper(prefix)) {
		return strings.ToUpper(flag)
	}

	var b strings.Builder
	runes := []rune(flag)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			if unicode.IsLower(prev) || unicode.IsDigit(prev) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return prefix + b.String()
}

// symbolGuard returns the macro a symbol is conditional on, or "".
func symbolGuard(sym *catalog.Symbol, prefix string) (string, error) {
	flag, err := sym.Default.Predicate.Flags.Single()
	if err != nil {
		return "", err
	}
	if flag == "" {
		return "", nil
	}
	return FlagMacro(prefix, flag), nil
}

// guarded writes body wrapped in #if defined(guard) when guard is set.
func guarded(w io.Writer, guard string, body func()) {
	if guard == "" {
		body()
		return
	}
	fmt.Fprintf(w, "#if defined(%s)\n", guard)
	body()
	fmt.Fprintf(w, "#endif /* %s */\n", guard)
}

// checkFlags reports every symbol whose top-level flag guard cannot be
// expressed as a single #if defined().
func checkFlags(cat *catalog.Catalog) error {
	for _, sym := range cat.Symbols() {
		if _, err := sym.Default.Predicate.Flags.Single(); err != nil {
			return withSymbol(err, sym)
		}
	}
	return nil
}

// withSymbol prefixes an error with the symbol it concerns.
func withSymbol(err error, sym *catalog.Symbol) error {
	var e *vmcperrors.Error
	if errors.As(err, &e) {
		e.Message = sym.ID + ": " + e.Message
		return e
	}
	return vmcperrors.New(vmcperrors.InternalError, sym.ID, err)
}
