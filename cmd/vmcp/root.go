package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"vmcp/internal/config"
	vmcperrors "vmcp/internal/errors"
	"vmcp/internal/slogutil"
	"vmcp/internal/version"
)

var (
	// Persistent flags shared by every command.
	configPath string
	repoPath   string
	verbosity  int
	quiet      bool
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:   "vmcp",
	Short: "vmcp - bootstrap constant pool compiler",
	Long: `vmcp compiles a catalog of class, field and method references into the
VM's bootstrap constant pool: a C header of slot constants and accessor
macros, and a C source holding the packed table and its type-tag tables.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("vmcp version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Config file (default: <repo>/.vmcp/config.json)")
	rootCmd.PersistentFlags().StringVar(&repoPath, "repo", "",
		"Repository root (default: current directory)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "Suppress all log output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format (human, json)")
}

// app is the per-invocation environment: repository, effective config and
// logger.
type app struct {
	repoRoot string
	cfg      *config.Config
	logger   *slog.Logger
	logs     *slogutil.LoggerFactory
}

// loadApp resolves the repository root, loads and validates the config, and
// builds the command logger.
func loadApp(cmd *cobra.Command) (*app, error) {
	repoRoot := repoPath
	if repoRoot == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		repoRoot = wd
	}
	repoRoot, err := filepath.Abs(repoRoot)
	if err != nil {
		return nil, err
	}

	var cfg *config.Config
	if configPath != "" {
		cfg, err = config.LoadConfigFromPath(configPath)
	} else {
		cfg, err = config.LoadConfig(repoRoot)
	}
	if err != nil {
		return nil, err
	}
	cfg.RepoRoot = repoRoot

	logs := slogutil.NewLoggerFactory(repoRoot, cfg, cmd.ErrOrStderr())
	if verbosity > 0 || quiet {
		logs.SetCLILevel(slogutil.LevelFromVerbosity(verbosity, quiet))
	}
	logs.SetFormat(logFormat)

	a := &app{repoRoot: repoRoot, cfg: cfg, logs: logs}
	a.logger = logs.CommandLogger().With("command", cmd.Name())
	return a, nil
}

// Close releases log files.
func (a *app) Close() {
	if err := a.logs.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
	}
}

// printError writes err and, for coded errors, the suggested fixes.
func printError(w io.Writer, err error) {
	var e *vmcperrors.Error
	if !errors.As(err, &e) {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(w, "Error: %v\n", e)
	for _, fix := range e.SuggestedFixes {
		switch {
		case fix.Command != "":
			fmt.Fprintf(w, "  hint: %s: %s\n", fix.Description, fix.Command)
		default:
			fmt.Fprintf(w, "  hint: %s\n", fix.Description)
		}
	}
}
