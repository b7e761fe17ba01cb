package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"vmcp/internal/buildspec"
)

var (
	specFormat    string
	specRunsLimit int
	specRunsID    string
)

var specCmd = &cobra.Command{
	Use:   "spec",
	Short: "Manage build specs",
	Long: `Import and list build specs: named sets of build flags stored in
.vmcp/buildspec.db and selected with 'vmcp generate --spec <id>'.`,
}

var specImportCmd = &cobra.Command{
	Use:   "import <spec.toml>...",
	Short: "Import build spec files into the store",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSpecImport,
}

var specListCmd = &cobra.Command{
	Use:   "list",
	Short: "List imported build specs",
	Args:  cobra.NoArgs,
	RunE:  runSpecList,
}

var specShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print an imported build spec as TOML",
	Args:  cobra.ExactArgs(1),
	RunE:  runSpecShow,
}

var specRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded generate runs",
	Long: `List the table emissions recorded by 'vmcp generate', newest first.

Examples:
  vmcp spec runs
  vmcp spec runs --spec linux_x86-64 --limit 5 --format yaml`,
	Args: cobra.NoArgs,
	RunE: runSpecRuns,
}

func init() {
	specListCmd.Flags().StringVar(&specFormat, "format", "human", "Output format (human, json, yaml)")
	specRunsCmd.Flags().StringVar(&specFormat, "format", "human", "Output format (human, json, yaml)")
	specRunsCmd.Flags().StringVar(&specRunsID, "spec", "", "Only runs of this build spec")
	specRunsCmd.Flags().IntVar(&specRunsLimit, "limit", 20, "Maximum number of runs")

	specCmd.AddCommand(specImportCmd, specListCmd, specShowCmd, specRunsCmd)
	rootCmd.AddCommand(specCmd)
}

// withStore runs fn against the configured build-spec store.
func withStore(cmd *cobra.Command, fn func(ctx context.Context, a *app, store *buildspec.Store) error) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, a, store)
}

func runSpecImport(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(ctx context.Context, a *app, store *buildspec.Store) error {
		for _, path := range args {
			spec, err := buildspec.LoadSpecFile(path)
			if err != nil {
				return err
			}
			if err := store.ImportSpec(ctx, spec); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %s (%d of %d flags on)\n",
				spec.ID, len(spec.Enabled()), len(spec.Flags))
		}
		return nil
	})
}

func runSpecList(cmd *cobra.Command, args []string) error {
	format, err := checkFormat(specFormat, FormatHuman, FormatJSON, FormatYAML)
	if err != nil {
		return err
	}
	return withStore(cmd, func(ctx context.Context, a *app, store *buildspec.Store) error {
		specs, err := store.ListSpecs(ctx)
		if err != nil {
			return err
		}
		if format != FormatHuman {
			return writeStructured(cmd.OutOrStdout(), specs, format)
		}
		if len(specs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No build specs imported.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tFLAGS ON\tIMPORTED")
		for _, s := range specs {
			fmt.Fprintf(w, "%s\t%s\t%d/%d\t%s\n", s.ID, s.Name, s.Enabled, s.Total,
				s.ImportedAt.Local().Format("2006-01-02 15:04"))
		}
		return w.Flush()
	})
}

func runSpecShow(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(ctx context.Context, a *app, store *buildspec.Store) error {
		spec, err := store.GetSpec(ctx, args[0])
		if err != nil {
			return err
		}
		return spec.Encode(cmd.OutOrStdout())
	})
}

func runSpecRuns(cmd *cobra.Command, args []string) error {
	format, err := checkFormat(specFormat, FormatHuman, FormatJSON, FormatYAML)
	if err != nil {
		return err
	}
	return withStore(cmd, func(ctx context.Context, a *app, store *buildspec.Store) error {
		runs, err := store.ListRuns(ctx, specRunsID, specRunsLimit)
		if err != nil {
			return err
		}
		if format != FormatHuman {
			return writeStructured(cmd.OutOrStdout(), runs, format)
		}
		if len(runs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "RUN\tSPEC\tJCL\tSLOTS\tBYTES\tDIGEST\tCREATED")
		for _, r := range runs {
			spec := r.SpecID
			if spec == "" {
				spec = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\t%s\n", short(r.ID, 8), spec, r.Version, r.Slots, r.Bytes,
				short(r.Digest, 12), r.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		}
		return w.Flush()
	})
}

func short(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
