package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	vmcperrors "vmcp/internal/errors"
)

// CurrentVersion is the only config schema version this build reads.
const CurrentVersion = 1

// Config represents the complete vmcp configuration
type Config struct {
	Version  int    `json:"version" mapstructure:"version"`
	RepoRoot string `json:"repoRoot" mapstructure:"repoRoot"`

	Catalog CatalogConfig `json:"catalog" mapstructure:"catalog"`
	Build   BuildConfig   `json:"build" mapstructure:"build"`
	Output  OutputConfig  `json:"output" mapstructure:"output"`
	Store   StoreConfig   `json:"store" mapstructure:"store"`
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// CatalogConfig names the catalog documents to compile
type CatalogConfig struct {
	Files []string `json:"files" mapstructure:"files"`
	// Format forces a document format; empty selects by file extension.
	Format string `json:"format" mapstructure:"format"`
}

// BuildConfig describes the build context
type BuildConfig struct {
	JCLVersion int `json:"jclVersion" mapstructure:"jclVersion"`
	// FlagSource is one of "cache", "spec" or "none".
	FlagSource string   `json:"flagSource" mapstructure:"flagSource"`
	CacheFile  string   `json:"cacheFile" mapstructure:"cacheFile"`
	FlagPrefix string   `json:"flagPrefix" mapstructure:"flagPrefix"`
	SpecID     string   `json:"specId" mapstructure:"specId"`
	ExtraFlags []string `json:"extraFlags" mapstructure:"extraFlags"`
}

// OutputConfig contains generated file settings
type OutputConfig struct {
	Header      string `json:"header" mapstructure:"header"`
	Source      string `json:"source" mapstructure:"source"`
	Blob        string `json:"blob" mapstructure:"blob"`
	Compress    bool   `json:"compress" mapstructure:"compress"`
	Verify      bool   `json:"verify" mapstructure:"verify"`
	GuardPrefix string `json:"guardPrefix" mapstructure:"guardPrefix"`
	SplitGuard  string `json:"splitGuard" mapstructure:"splitGuard"`
}

// StoreConfig contains build-spec store settings
type StoreConfig struct {
	Enabled bool `json:"enabled" mapstructure:"enabled"`
	// Path overrides the default .vmcp/buildspec.db location.
	Path string `json:"path" mapstructure:"path"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format     string `json:"format" mapstructure:"format"`
	Level      string `json:"level" mapstructure:"level"`
	File       bool   `json:"file" mapstructure:"file"`
	MaxSize    string `json:"maxSize" mapstructure:"maxSize"`
	MaxBackups int    `json:"maxBackups" mapstructure:"maxBackups"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version:  CurrentVersion,
		RepoRoot: ".",
		Catalog: CatalogConfig{
			Files: []string{},
		},
		Build: BuildConfig{
			JCLVersion: 8,
			FlagSource: "none",
			FlagPrefix: "J9VM_",
			ExtraFlags: []string{},
		},
		Output: OutputConfig{
			Header:      "j9vmconstantpool.h",
			Source:      "j9vmconstantpool.c",
			GuardPrefix: "J9VM_",
			SplitGuard:  "J9VM_OPT_SPLIT_CP_TAGS",
		},
		Store: StoreConfig{
			Enabled: false,
		},
		Logging: LoggingConfig{
			Format:     "human",
			Level:      "warn",
			MaxSize:    "10MB",
			MaxBackups: 3,
		},
	}
}

// setDefaults registers every key so that env overrides reach Unmarshal.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("version", cfg.Version)
	v.SetDefault("repoRoot", cfg.RepoRoot)
	v.SetDefault("catalog.files", cfg.Catalog.Files)
	v.SetDefault("catalog.format", cfg.Catalog.Format)
	v.SetDefault("build.jclVersion", cfg.Build.JCLVersion)
	v.SetDefault("build.flagSource", cfg.Build.FlagSource)
	v.SetDefault("build.cacheFile", cfg.Build.CacheFile)
	v.SetDefault("build.flagPrefix", cfg.Build.FlagPrefix)
	v.SetDefault("build.specId", cfg.Build.SpecID)
	v.SetDefault("build.extraFlags", cfg.Build.ExtraFlags)
	v.SetDefault("output.header", cfg.Output.Header)
	v.SetDefault("output.source", cfg.Output.Source)
	v.SetDefault("output.blob", cfg.Output.Blob)
	v.SetDefault("output.compress", cfg.Output.Compress)
	v.SetDefault("output.verify", cfg.Output.Verify)
	v.SetDefault("output.guardPrefix", cfg.Output.GuardPrefix)
	v.SetDefault("output.splitGuard", cfg.Output.SplitGuard)
	v.SetDefault("store.enabled", cfg.Store.Enabled)
	v.SetDefault("store.path", cfg.Store.Path)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.maxSize", cfg.Logging.MaxSize)
	v.SetDefault("logging.maxBackups", cfg.Logging.MaxBackups)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetConfigType("json")

	// VMCP_BUILD_JCLVERSION overrides build.jclVersion, and so on.
	v.SetEnvPrefix("VMCP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadConfig loads configuration from .vmcp/config.json under repoRoot.
// A missing file yields the defaults with env overrides applied.
func LoadConfig(repoRoot string) (*Config, error) {
	v := newViper()
	v.SetConfigName("config")
	v.AddConfigPath(filepath.Join(repoRoot, ".vmcp"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, vmcperrors.New(vmcperrors.ConfigInvalid, "cannot read .vmcp/config.json", err)
		}
	}
	return unmarshal(v, repoRoot)
}

// LoadConfigFromPath loads configuration from an explicit file.
func LoadConfigFromPath(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, vmcperrors.New(vmcperrors.ConfigInvalid, "cannot read config "+path, err)
	}
	return unmarshal(v, "")
}

func unmarshal(v *viper.Viper, repoRoot string) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, vmcperrors.New(vmcperrors.ConfigInvalid, "cannot decode config", err)
	}
	if repoRoot != "" && (cfg.RepoRoot == "" || cfg.RepoRoot == ".") {
		cfg.RepoRoot = repoRoot
	}
	return &cfg, nil
}

// Save writes the configuration to .vmcp/config.json
func (c *Config) Save(repoRoot string) error {
	dir := filepath.Join(repoRoot, ".vmcp")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return invalid("version", "unsupported config version")
	}
	if c.Build.JCLVersion < 0 {
		return invalid("build.jclVersion", "must not be negative")
	}
	switch c.Build.FlagSource {
	case "none":
	case "cache":
		if c.Build.CacheFile == "" {
			return invalid("build.cacheFile", "required when flagSource is \"cache\"")
		}
	case "spec":
		if c.Build.SpecID == "" {
			return invalid("build.specId", "required when flagSource is \"spec\"")
		}
	default:
		return invalid("build.flagSource", "must be one of none, cache, spec")
	}
	switch c.Catalog.Format {
	case "", "xml", "toml", "yaml":
	default:
		return invalid("catalog.format", "must be one of xml, toml, yaml")
	}
	switch c.Logging.Format {
	case "human", "json":
	default:
		return invalid("logging.format", "must be human or json")
	}
	if c.Output.Header == "" || c.Output.Source == "" {
		return invalid("output", "header and source paths are required")
	}
	if c.Logging.MaxBackups < 0 {
		return invalid("logging.maxBackups", "must not be negative")
	}
	return nil
}

func invalid(field, message string) error {
	cerr := &ConfigError{Field: field, Message: message}
	return vmcperrors.New(vmcperrors.ConfigInvalid, cerr.Error(), cerr).
		WithDetails(map[string]string{"field": field})
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
