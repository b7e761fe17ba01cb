package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"vmcp/internal/paths"
)

var configFormat string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage vmcp configuration",
	Long:  "View vmcp configuration stored in .vmcp/config.json",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Display the configuration after defaults and VMCP_* environment
overrides are applied.

Examples:
  vmcp config show
  vmcp config show --format json`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

func init() {
	configShowCmd.Flags().StringVar(&configFormat, "format", "human", "Output format (human, json, yaml)")
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	format, err := checkFormat(configFormat, FormatHuman, FormatJSON, FormatYAML)
	if err != nil {
		return err
	}
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if format != FormatHuman {
		return writeStructured(cmd.OutOrStdout(), a.cfg, format)
	}

	cfg := a.cfg
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "vmcp Configuration")
	fmt.Fprintln(out, strings.Repeat("─", 50))
	fmt.Fprintf(out, "Source: %s\n\n", a.configSource())

	fmt.Fprintln(out, "catalog:")
	fmt.Fprintf(out, "  files:       %s\n", listOrNone(cfg.Catalog.Files))
	fmt.Fprintf(out, "  format:      %s\n", valueOrDefault(cfg.Catalog.Format, "by extension"))
	fmt.Fprintln(out, "build:")
	fmt.Fprintf(out, "  jclVersion:  %d\n", cfg.Build.JCLVersion)
	fmt.Fprintf(out, "  flagSource:  %s\n", cfg.Build.FlagSource)
	switch cfg.Build.FlagSource {
	case "cache":
		fmt.Fprintf(out, "  cacheFile:   %s\n", cfg.Build.CacheFile)
		fmt.Fprintf(out, "  flagPrefix:  %s\n", cfg.Build.FlagPrefix)
	case "spec":
		fmt.Fprintf(out, "  specId:      %s\n", cfg.Build.SpecID)
	}
	fmt.Fprintf(out, "  extraFlags:  %s\n", listOrNone(cfg.Build.ExtraFlags))
	fmt.Fprintln(out, "output:")
	fmt.Fprintf(out, "  header:      %s\n", cfg.Output.Header)
	fmt.Fprintf(out, "  source:      %s\n", cfg.Output.Source)
	fmt.Fprintf(out, "  blob:        %s\n", valueOrDefault(cfg.Output.Blob, "none"))
	fmt.Fprintf(out, "  compress:    %v\n", cfg.Output.Compress)
	fmt.Fprintf(out, "  verify:      %v\n", cfg.Output.Verify)
	fmt.Fprintf(out, "  guardPrefix: %s\n", cfg.Output.GuardPrefix)
	fmt.Fprintf(out, "  splitGuard:  %s\n", cfg.Output.SplitGuard)
	fmt.Fprintln(out, "store:")
	fmt.Fprintf(out, "  enabled:     %v\n", cfg.Store.Enabled)
	fmt.Fprintf(out, "  path:        %s\n", paths.DisplayPath(a.storePath(), a.repoRoot))
	fmt.Fprintln(out, "logging:")
	fmt.Fprintf(out, "  format:      %s\n", cfg.Logging.Format)
	fmt.Fprintf(out, "  level:       %s\n", cfg.Logging.Level)
	fmt.Fprintf(out, "  file:        %v\n", cfg.Logging.File)
	return nil
}

// configSource names the file the config came from.
func (a *app) configSource() string {
	if configPath != "" {
		return configPath
	}
	path := paths.GetConfigPath(a.repoRoot)
	if fileExists(path) {
		return paths.DisplayPath(path, a.repoRoot)
	}
	return "defaults (no config file found)"
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func valueOrDefault(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}

func listOrNone(values []string) string {
	if len(values) == 0 {
		return "none"
	}
	return strings.Join(values, ", ")
}
