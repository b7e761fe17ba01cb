package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"vmcp/internal/catalog"
)

var resolveFormat string

var resolveCmd = &cobra.Command{
	Use:   "resolve [catalog files...]",
	Short: "Show which variant each symbol resolves to",
	Long: `Resolve every symbol of the catalog for one build context and show the
chosen variant and the rule that chose it.

Examples:
  vmcp resolve vmconstantpool.xml --jcl-version 11
  vmcp resolve --flag opt_methodHandle --format json`,
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().StringVar(&resolveFormat, "format", "human", "Output format (human, json)")
	addBuildFlags(resolveCmd)
	rootCmd.AddCommand(resolveCmd)
}

// ResolutionCLI is one resolved symbol.
type ResolutionCLI struct {
	Index     int    `json:"index"`
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	Rule      string `json:"rule"`
	Class     string `json:"class,omitempty"`
	Name      string `json:"name,omitempty"`
	Signature string `json:"signature,omitempty"`
	Guard     string `json:"guard,omitempty"`
}

// ResolveResponseCLI is the output of vmcp resolve.
type ResolveResponseCLI struct {
	Version     int             `json:"version"`
	Flags       []string        `json:"flags"`
	Resolutions []ResolutionCLI `json:"resolutions"`
}

func runResolve(cmd *cobra.Command, args []string) error {
	format, err := checkFormat(resolveFormat, FormatHuman, FormatJSON)
	if err != nil {
		return err
	}
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := applyBuildFlags(cmd, a); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	b, err := a.loadBuild(ctx, args)
	if err != nil {
		return err
	}

	resp := resolveCatalog(b.catalog, b.context)
	if format == FormatJSON {
		return writeStructured(cmd.OutOrStdout(), resp, format)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "JCL %d, flags [%s]\n\n", resp.Version, b.context.Flags.String())
	fmt.Fprintln(w, "INDEX\tID\tRULE\tREFERENCE\tGUARD")
	for _, r := range resp.Resolutions {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", r.Index, r.ID, r.Rule, reference(r), r.Guard)
	}
	return w.Flush()
}

// resolveCatalog resolves every symbol of cat under ctx.
func resolveCatalog(cat *catalog.Catalog, ctx catalog.Context) *ResolveResponseCLI {
	resp := &ResolveResponseCLI{
		Version:     ctx.Version,
		Flags:       ctx.Flags.Names(),
		Resolutions: make([]ResolutionCLI, 0, cat.Len()),
	}
	for _, sym := range cat.Symbols() {
		v, rule := catalog.ResolveRule(sym, ctx)
		r := ResolutionCLI{
			Index: sym.Index(),
			ID:    sym.ID,
			Kind:  sym.Kind.String(),
			Rule:  rule.String(),
		}
		if !v.IsUnused() {
			r.Class = v.ClassName
			r.Name = v.Name
			r.Signature = v.Signature
			if !v.Predicate.Unguarded() {
				r.Guard = v.Predicate.String()
			}
		}
		resp.Resolutions = append(resp.Resolutions, r)
	}
	return resp
}

func reference(r ResolutionCLI) string {
	switch {
	case r.Class == "":
		return "-"
	case r.Name == "":
		return r.Class
	default:
		return r.Class + "." + r.Name + r.Signature
	}
}
