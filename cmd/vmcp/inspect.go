package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"vmcp/internal/layout"
	"vmcp/internal/paths"
	"vmcp/internal/render"
)

var (
	inspectFormat string
	inspectBlob   string
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [catalog files...]",
	Short: "Show the planned table layout",
	Long: `Plan the table for one build context and show every record offset, the
secondary items with their offsets, and the table digest. With --blob,
decode a table image written by 'vmcp generate --blob' instead.

Examples:
  vmcp inspect vmconstantpool.xml --jcl-version 17
  vmcp inspect --format yaml
  vmcp inspect --blob out/cp.bin`,
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().StringVar(&inspectFormat, "format", "human", "Output format (human, json, yaml)")
	inspectCmd.Flags().StringVar(&inspectBlob, "blob", "", "Decode a table image instead of planning one")
	addBuildFlags(inspectCmd)
	rootCmd.AddCommand(inspectCmd)
}

// SlotCLI is one planned record.
type SlotCLI struct {
	Index      int    `json:"index" yaml:"index"`
	ID         string `json:"id,omitempty" yaml:"id,omitempty"`
	Offset     uint32 `json:"offset" yaml:"offset"`
	Tag        string `json:"tag" yaml:"tag"`
	Rule       string `json:"rule,omitempty" yaml:"rule,omitempty"`
	Excluded   bool   `json:"excluded,omitempty" yaml:"excluded,omitempty"`
	ClassIndex uint32 `json:"classIndex,omitempty" yaml:"classIndex,omitempty"`
}

// ItemCLI is one placed secondary item.
type ItemCLI struct {
	Offset uint32 `json:"offset" yaml:"offset"`
	Kind   string `json:"kind" yaml:"kind"`
	Value  string `json:"value" yaml:"value"`
	Size   uint32 `json:"size" yaml:"size"`
}

// InspectResponseCLI is the output of vmcp inspect.
type InspectResponseCLI struct {
	Version int       `json:"version" yaml:"version"`
	Flags   []string  `json:"flags" yaml:"flags"`
	Size    uint32    `json:"size" yaml:"size"`
	Digest  string    `json:"digest" yaml:"digest"`
	Slots   []SlotCLI `json:"slots" yaml:"slots"`
	Items   []ItemCLI `json:"items" yaml:"items"`
}

// BlobResponseCLI is the output of vmcp inspect --blob.
type BlobResponseCLI struct {
	Path    string                 `json:"path" yaml:"path"`
	Size    int                    `json:"size" yaml:"size"`
	Records []layout.DecodedRecord `json:"records" yaml:"records"`
}

func runInspect(cmd *cobra.Command, args []string) error {
	format, err := checkFormat(inspectFormat, FormatHuman, FormatJSON, FormatYAML)
	if err != nil {
		return err
	}
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if inspectBlob != "" {
		return inspectBlobFile(cmd, a, format)
	}
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
	table, err := layout.NewEngine(a.logger).Emit(b.catalog, b.context)
	if err != nil {
		return err
	}

	resp := describeTable(table)
	if format != FormatHuman {
		return writeStructured(cmd.OutOrStdout(), resp, format)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "JCL %d, flags [%s]: %d slots, %d bytes\nBLAKE2b-256 %s\n\n",
		resp.Version, b.context.Flags.String(), len(resp.Slots), resp.Size, resp.Digest)
	fmt.Fprintln(w, "INDEX\tOFFSET\tTAG\tID\tRULE\tCLASS")
	for _, s := range resp.Slots {
		rule := s.Rule
		if s.Excluded {
			rule += " (class excluded)"
		}
		fmt.Fprintf(w, "%d\t0x%04x\t%s\t%s\t%s\t%s\n", s.Index, s.Offset, s.Tag, s.ID, rule, classIndex(s.ClassIndex))
	}
	fmt.Fprintln(w, "\nOFFSET\tKIND\tSIZE\tVALUE")
	for _, it := range resp.Items {
		fmt.Fprintf(w, "0x%04x\t%s\t%d\t%s\n", it.Offset, it.Kind, it.Size, it.Value)
	}
	return w.Flush()
}

func describeTable(table *layout.Table) *InspectResponseCLI {
	plan := table.Plan
	resp := &InspectResponseCLI{
		Version: plan.Context.Version,
		Flags:   plan.Context.Flags.Names(),
		Size:    plan.Size,
		Digest:  table.Digest(),
		Slots:   make([]SlotCLI, 0, len(plan.Slots)),
		Items:   make([]ItemCLI, 0, len(plan.Items)),
	}
	for i := range plan.Slots {
		slot := &plan.Slots[i]
		s := SlotCLI{
			Index:      slot.Index,
			Offset:     slot.Offset,
			Tag:        slot.Tag.String(),
			Excluded:   slot.Excluded,
			ClassIndex: slot.ClassIndex,
		}
		if slot.Symbol != nil {
			s.ID = slot.Symbol.ID
			s.Rule = slot.Rule.String()
		}
		resp.Slots = append(resp.Slots, s)
	}
	for _, placed := range plan.Items {
		it := ItemCLI{Offset: placed.Offset, Size: placed.Item.Size()}
		switch placed.Item.Kind {
		case layout.ItemText:
			it.Kind = "text"
			it.Value = placed.Item.Text
		case layout.ItemPair:
			it.Kind = "pair"
			it.Value = placed.Item.First + " " + placed.Item.Second
		}
		resp.Items = append(resp.Items, it)
	}
	return resp
}

func inspectBlobFile(cmd *cobra.Command, a *app, format OutputFormat) error {
	path := paths.JoinRepoPath(a.repoRoot, inspectBlob)
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open blob: %w", err)
	}
	defer f.Close()

	data, err := render.ReadBlob(f)
	if err != nil {
		return err
	}
	records, err := layout.Decode(data)
	if err != nil {
		return err
	}

	resp := &BlobResponseCLI{Path: paths.DisplayPath(path, a.repoRoot), Size: len(data), Records: records}
	if format != FormatHuman {
		return writeStructured(cmd.OutOrStdout(), resp, format)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "%s: %d bytes, %d records\n\n", resp.Path, resp.Size, len(records))
	fmt.Fprintln(w, "INDEX\tOFFSET\tKIND\tCLASS\tREFERENCE")
	for _, r := range records {
		ref := r.Name + r.Signature
		if ref == "" {
			ref = "-"
		}
		fmt.Fprintf(w, "%d\t0x%04x\t%s\t%s\t%s\n", r.Index, r.Offset, r.Kind, classIndex(r.ClassIndex), ref)
	}
	return w.Flush()
}

func classIndex(idx uint32) string {
	if idx == 0 {
		return "-"
	}
	return fmt.Sprintf("%d", idx)
}
