package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"vmcp/internal/buildspec"
	"vmcp/internal/csyntax"
	"vmcp/internal/layout"
	"vmcp/internal/paths"
	"vmcp/internal/render"
)

var (
	generateHeader string
	generateSource string
	generateBlob   string
	generateZstd   bool
	generateVerify bool
)

var generateCmd = &cobra.Command{
	Use:   "generate [catalog files...]",
	Short: "Generate the constant pool header and table source",
	Long: `Compile the catalog into the slot constant header and the packed table
source for one build context.

Examples:
  vmcp generate vmconstantpool.xml
  vmcp generate --jcl-version 17 --cache build/CMakeCache.txt
  vmcp generate --spec linux_x86-64 --blob out/cp.bin --zstd --verify`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&generateHeader, "header", "", "Header output path (default from config)")
	generateCmd.Flags().StringVar(&generateSource, "source", "", "Table source output path (default from config)")
	generateCmd.Flags().StringVar(&generateBlob, "blob", "", "Also write the raw table image to this path")
	generateCmd.Flags().BoolVar(&generateZstd, "zstd", false, "Compress the blob with zstd")
	generateCmd.Flags().BoolVar(&generateVerify, "verify", false, "Check the generated C with tree-sitter before writing")
	addBuildFlags(generateCmd)
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := applyBuildFlags(cmd, a); err != nil {
		return err
	}

	out := &a.cfg.Output
	if cmd.Flags().Changed("header") {
		out.Header = generateHeader
	}
	if cmd.Flags().Changed("source") {
		out.Source = generateSource
	}
	if cmd.Flags().Changed("blob") {
		out.Blob = generateBlob
	}
	out.Compress = out.Compress || generateZstd
	out.Verify = out.Verify || generateVerify

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

	headerPath := paths.JoinRepoPath(a.repoRoot, out.Header)
	opts := render.Options{
		HeaderName:  filepath.Base(headerPath),
		GuardPrefix: out.GuardPrefix,
		SplitGuard:  out.SplitGuard,
		Sources:     b.sources,
	}
	header, source, err := render.Files(b.catalog, table, opts)
	if err != nil {
		return err
	}

	if out.Verify {
		if err := verifyGenerated(ctx, a, map[string][]byte{out.Header: header, out.Source: source}); err != nil {
			return err
		}
	}

	if err := writeFileAtomic(headerPath, header); err != nil {
		return err
	}
	sourcePath := paths.JoinRepoPath(a.repoRoot, out.Source)
	if err := writeFileAtomic(sourcePath, source); err != nil {
		return err
	}
	if out.Blob != "" {
		var blob bytes.Buffer
		if err := render.WriteBlob(&blob, table, out.Compress); err != nil {
			return err
		}
		if err := writeFileAtomic(paths.JoinRepoPath(a.repoRoot, out.Blob), blob.Bytes()); err != nil {
			return err
		}
	}

	if a.cfg.Store.Enabled || b.specID != "" {
		if err := recordRun(ctx, a, b, table); err != nil {
			return err
		}
	}

	a.logger.Info("Generated constant pool",
		"header", paths.DisplayPath(headerPath, a.repoRoot),
		"source", paths.DisplayPath(sourcePath, a.repoRoot),
		"digest", table.Digest(),
	)
	fmt.Fprintf(cmd.OutOrStdout(), "Generated %d slots (%d bytes) for JCL %d [%s]\n",
		table.SlotCount(), len(table.Bytes), b.context.Version, b.context.Flags.String())
	fmt.Fprintf(cmd.OutOrStdout(), "  %s\n  %s\n", paths.DisplayPath(headerPath, a.repoRoot),
		paths.DisplayPath(sourcePath, a.repoRoot))
	return nil
}

// verifyGenerated parses each generated file with the C grammar. Without
// cgo the check is skipped with a warning.
func verifyGenerated(ctx context.Context, a *app, files map[string][]byte) error {
	if !csyntax.IsAvailable() {
		a.logger.Warn("Skipping C syntax check", "error", csyntax.ErrNoCGO)
		return nil
	}
	checker := csyntax.NewChecker()
	for _, name := range []string{a.cfg.Output.Header, a.cfg.Output.Source} {
		if err := checker.Verify(ctx, name, files[name]); err != nil {
			return err
		}
		a.logger.Debug("Verified C syntax", "file", name)
	}
	return nil
}

func recordRun(ctx context.Context, a *app, b *build, table *layout.Table) error {
	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.RecordRun(ctx, buildspec.Run{
		SpecID:  b.specID,
		Version: b.context.Version,
		Flags:   b.context.Flags.String(),
		Slots:   table.SlotCount(),
		Bytes:   len(table.Bytes),
		Digest:  table.Digest(),
	})
	if err != nil {
		return err
	}
	a.logger.Debug("Recorded run", "id", run.ID)
	return nil
}

// writeFileAtomic writes data next to path and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
