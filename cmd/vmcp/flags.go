package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"vmcp/internal/buildflags"
)

var (
	flagsAll    bool
	flagsFormat string
)

var flagsCmd = &cobra.Command{
	Use:   "flags",
	Short: "List the active build flags",
	Long: `List the build flags that are on for the configured flag source. With
--all, list every flag the source knows with its state.

Examples:
  vmcp flags --cache build/CMakeCache.txt
  vmcp flags --spec linux_x86-64 --all`,
	Args: cobra.NoArgs,
	RunE: runFlags,
}

func init() {
	flagsCmd.Flags().BoolVar(&flagsAll, "all", false, "List every known flag, on or off")
	flagsCmd.Flags().StringVar(&flagsFormat, "format", "human", "Output format (human, json)")
	addBuildFlags(flagsCmd)
	rootCmd.AddCommand(flagsCmd)
}

// FlagCLI is one build flag.
type FlagCLI struct {
	Name string `json:"name"`
	On   bool   `json:"on"`
}

func runFlags(cmd *cobra.Command, args []string) error {
	format, err := checkFormat(flagsFormat, FormatHuman, FormatJSON)
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
	provider, err := a.flagProvider(ctx)
	if err != nil {
		return err
	}

	list := listFlags(provider, flagsAll)
	if format == FormatJSON {
		return writeStructured(cmd.OutOrStdout(), list, format)
	}
	if len(list) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No flags (source: %s)\n", a.cfg.Build.FlagSource)
		return nil
	}
	for _, f := range list {
		state := "on"
		if !f.On {
			state = "off"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%-3s  %s\n", state, f.Name)
	}
	return nil
}

// listFlags returns the set flags, or every known flag when all is set and
// the provider can enumerate them.
func listFlags(p buildflags.Provider, all bool) []FlagCLI {
	set := p.AllSetFlags()
	names := set.Names()
	if lister, ok := p.(buildflags.Lister); ok && all {
		if known := lister.KnownFlags(); known != nil {
			names = known
		}
	}

	out := make([]FlagCLI, 0, len(names))
	for _, name := range names {
		out = append(out, FlagCLI{Name: name, On: set.Has(name)})
	}
	return out
}
