package slogutil

import (
	"io"
	"log/slog"

	"vmcp/internal/config"
	"vmcp/internal/paths"
)

// LoggerFactory builds the command logger. Precedence for the level: CLI
// flags, then the config file, then warn.
type LoggerFactory struct {
	repoRoot string
	config   *config.Config
	stderr   io.Writer

	cliLevel slog.Level
	cliSet   bool
	format   string

	closers []io.Closer
}

// NewLoggerFactory creates a factory writing console output to stderr.
func NewLoggerFactory(repoRoot string, cfg *config.Config, stderr io.Writer) *LoggerFactory {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &LoggerFactory{
		repoRoot: repoRoot,
		config:   cfg,
		stderr:   stderr,
		format:   cfg.Logging.Format,
	}
}

// SetCLILevel overrides the configured level.
func (f *LoggerFactory) SetCLILevel(level slog.Level) {
	f.cliLevel = level
	f.cliSet = true
}

// SetFormat overrides the configured console format.
func (f *LoggerFactory) SetFormat(format string) {
	if format != "" {
		f.format = format
	}
}

// Level returns the effective console level.
func (f *LoggerFactory) Level() slog.Level {
	if f.cliSet {
		return f.cliLevel
	}
	if f.config.Logging.Level != "" {
		return LevelFromString(f.config.Logging.Level)
	}
	return slog.LevelWarn
}

// CommandLogger returns the logger for one CLI invocation. When file
// logging is enabled it also appends to .vmcp/logs/vmcp.log at debug level.
// A log file that cannot be opened is skipped.
func (f *LoggerFactory) CommandLogger() *slog.Logger {
	console := newFormatHandler(f.stderr, f.format, f.Level())
	if !f.config.Logging.File || f.repoRoot == "" {
		return slog.New(console)
	}

	if _, err := paths.EnsureLogsDir(f.repoRoot); err != nil {
		return slog.New(console)
	}
	fileLogger, closer, err := NewFileLoggerWithRotation(
		paths.GetLogPath(f.repoRoot),
		slog.LevelDebug,
		f.config.Logging.MaxSize,
		f.config.Logging.MaxBackups,
	)
	if err != nil {
		return slog.New(console)
	}
	f.closers = append(f.closers, closer)
	return slog.New(NewTeeHandler(console, fileLogger.Handler()))
}

// Close closes all open log files.
func (f *LoggerFactory) Close() error {
	var firstErr error
	for _, c := range f.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	f.closers = nil
	return firstErr
}
