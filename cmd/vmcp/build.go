package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"vmcp/internal/buildflags"
	"vmcp/internal/buildspec"
	"vmcp/internal/catalog"
	"vmcp/internal/declaration"
	"vmcp/internal/paths"
)

var (
	// Build context flags shared by generate, resolve, inspect and flags.
	buildCache    string
	buildSpec     string
	buildVersion  int
	buildExtra    []string
	catalogFormat string
)

func addBuildFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&buildCache, "cache", "", "Read build flags from a CMake cache file")
	cmd.Flags().StringVar(&buildSpec, "spec", "", "Read build flags from an imported build spec")
	cmd.Flags().IntVar(&buildVersion, "jcl-version", 0, "Class library version (default from config)")
	cmd.Flags().StringSliceVar(&buildExtra, "flag", nil, "Turn on an extra build flag (repeatable)")
	cmd.Flags().StringVar(&catalogFormat, "catalog-format", "", "Catalog format: xml, toml or yaml (default by extension)")
}

// applyBuildFlags folds the build flags of cmd into the loaded config.
func applyBuildFlags(cmd *cobra.Command, a *app) error {
	cfg := a.cfg
	flags := cmd.Flags()
	if flags.Changed("cache") && flags.Changed("spec") {
		return fmt.Errorf("--cache and --spec are mutually exclusive")
	}
	if flags.Changed("cache") {
		cfg.Build.FlagSource = "cache"
		cfg.Build.CacheFile = buildCache
	}
	if flags.Changed("spec") {
		cfg.Build.FlagSource = "spec"
		cfg.Build.SpecID = buildSpec
	}
	if flags.Changed("jcl-version") {
		cfg.Build.JCLVersion = buildVersion
	}
	cfg.Build.ExtraFlags = append(cfg.Build.ExtraFlags, buildExtra...)
	if flags.Changed("catalog-format") {
		cfg.Catalog.Format = catalogFormat
	}
	return cfg.Validate()
}

// build is a loaded catalog together with the context it is emitted for.
type build struct {
	catalog  *catalog.Catalog
	context  catalog.Context
	provider buildflags.Provider
	sources  []string
	specID   string
}

// storePath returns the configured build-spec database.
func (a *app) storePath() string {
	if a.cfg.Store.Path != "" {
		return paths.JoinRepoPath(a.repoRoot, a.cfg.Store.Path)
	}
	return paths.GetStorePath(a.repoRoot)
}

func (a *app) openStore() (*buildspec.Store, error) {
	return buildspec.Open(a.storePath(), a.logger)
}

// flagProvider builds the provider named by build.flagSource, with the
// configured extra flags turned on.
func (a *app) flagProvider(ctx context.Context) (buildflags.Provider, error) {
	var p buildflags.Provider
	switch a.cfg.Build.FlagSource {
	case "cache":
		path := paths.JoinRepoPath(a.repoRoot, a.cfg.Build.CacheFile)
		cache, err := buildflags.LoadCache(path, a.cfg.Build.FlagPrefix)
		if err != nil {
			return nil, err
		}
		a.logger.Debug("Loaded build flags from cache", "path", paths.DisplayPath(path, a.repoRoot))
		p = cache
	case "spec":
		store, err := a.openStore()
		if err != nil {
			return nil, err
		}
		defer store.Close()
		spec, err := buildflags.NewSpecProvider(ctx, store, a.cfg.Build.SpecID)
		if err != nil {
			return nil, err
		}
		a.logger.Debug("Loaded build flags from spec", "spec", spec.SpecID())
		p = spec
	default:
		p = buildflags.NewStaticProvider()
	}
	return buildflags.WithExtra(p, a.cfg.Build.ExtraFlags...), nil
}

// catalogFiles returns the catalog documents named on the command line, or
// the configured ones.
func (a *app) catalogFiles(args []string) ([]string, error) {
	files := args
	if len(files) == 0 {
		files = a.cfg.Catalog.Files
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no catalog files given and catalog.files is empty")
	}
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = paths.JoinRepoPath(a.repoRoot, f)
	}
	return out, nil
}

// loadBuild parses the catalog, validates its flags against the provider
// and fixes the emission context.
func (a *app) loadBuild(ctx context.Context, args []string) (*build, error) {
	files, err := a.catalogFiles(args)
	if err != nil {
		return nil, err
	}
	display := func(p string) string { return paths.DisplayPath(p, a.repoRoot) }

	cat, err := declaration.LoadFiles(files, declaration.Format(a.cfg.Catalog.Format), display)
	if err != nil {
		return nil, err
	}
	a.logger.Info("Loaded catalog", "files", len(files), "symbols", cat.Len())

	provider, err := a.flagProvider(ctx)
	if err != nil {
		return nil, err
	}
	if err := buildflags.Validate(provider, cat.Flags()); err != nil {
		return nil, err
	}

	sources := make([]string, len(files))
	for i, f := range files {
		sources[i] = display(f)
	}
	b := &build{
		catalog:  cat,
		provider: provider,
		sources:  sources,
		context: catalog.Context{
			Version: a.cfg.Build.JCLVersion,
			Flags:   provider.AllSetFlags(),
		},
	}
	if a.cfg.Build.FlagSource == "spec" {
		b.specID = a.cfg.Build.SpecID
	}
	return b, nil
}
