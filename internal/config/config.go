// Package config provides configuration management for runstamp.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
	"github.com/xvierd/runstamp/internal/adapters/command"
	"github.com/xvierd/runstamp/internal/vcs"
)

// Provenance backends.
const (
	BackendExec  = "exec"
	BackendGoGit = "go-git"
)

const envPrefix = "RUNSTAMP"

// Config holds all configuration for runstamp.
type Config struct {
	VCS     VCSConfig     `mapstructure:"vcs"`
	Storage StorageConfig `mapstructure:"storage"`
	Log     LogConfig     `mapstructure:"log"`
	MCP     MCPConfig     `mapstructure:"mcp"`
}

// VCSConfig selects how provenance is resolved.
type VCSConfig struct {
	// Backend is "exec" (run the VCS tools) or "go-git" (in-process, git only).
	Backend        string        `mapstructure:"backend"`
	CommandTimeout time.Duration `mapstructure:"command_timeout"`
	// Schemes lists built-in schemes in priority order.
	Schemes []string `mapstructure:"schemes"`
	// Custom schemes are tried after the built-ins.
	Custom []vcs.SchemeSpec `mapstructure:"custom"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	DataDir string `mapstructure:"data_dir"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// MCPConfig holds MCP server settings.
type MCPConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		VCS: VCSConfig{
			Backend:        BackendExec,
			CommandTimeout: command.DefaultTimeout,
			Schemes:        []string{"git"},
		},
		Storage: StorageConfig{
			DataDir: "~/.runstamp",
		},
		Log: LogConfig{
			Level: "warn",
		},
		MCP: MCPConfig{
			Enabled: true,
		},
	}
}

// Load loads the configuration from path, or from the default location when
// path is empty. A missing file is created with the defaults. Environment
// variables prefixed with RUNSTAMP_ override file values.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = GetConfigPath()
		if err != nil {
			return nil, errors.Wrap(err, "failed to get config path")
		}
	}

	// If config file doesn't exist, create it with defaults
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := Save(path, DefaultConfig()); err != nil {
			return nil, errors.Wrap(err, "failed to create default config")
		}
	}

	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrap(err, "failed to read config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	dataDir, err := expandHome(cfg.Storage.DataDir)
	if err != nil {
		return nil, err
	}
	cfg.Storage.DataDir = dataDir

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes cfg to path as TOML.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	v := newViper(path)
	v.Set("vcs.backend", cfg.VCS.Backend)
	v.Set("vcs.command_timeout", cfg.VCS.CommandTimeout.String())
	v.Set("vcs.schemes", cfg.VCS.Schemes)
	if len(cfg.VCS.Custom) > 0 {
		custom := make([]map[string]any, 0, len(cfg.VCS.Custom))
		for _, s := range cfg.VCS.Custom {
			entry := map[string]any{
				"name":           s.Name,
				"marker":         s.Marker,
				"commit_command": s.CommitCommand,
				"commit_pattern": s.CommitPattern,
				"status_command": s.StatusCommand,
				"status_pattern": s.StatusPattern,
			}
			if len(s.CommitOKCodes) > 0 {
				entry["commit_ok_codes"] = s.CommitOKCodes
			}
			if len(s.StatusOKCodes) > 0 {
				entry["status_ok_codes"] = s.StatusOKCodes
			}
			custom = append(custom, entry)
		}
		v.Set("vcs.custom", custom)
	}
	v.Set("storage.data_dir", cfg.Storage.DataDir)
	v.Set("log.level", cfg.Log.Level)
	v.Set("mcp.enabled", cfg.MCP.Enabled)

	return v.WriteConfigAs(path)
}

// Validate checks values that viper cannot type-check.
func (c *Config) Validate() error {
	switch c.VCS.Backend {
	case BackendExec, BackendGoGit:
	default:
		return errors.Newf("unknown vcs backend %q (expected %q or %q)", c.VCS.Backend, BackendExec, BackendGoGit)
	}
	if c.VCS.CommandTimeout < 0 {
		return errors.Newf("vcs.command_timeout must not be negative, got %s", c.VCS.CommandTimeout)
	}
	return nil
}

// Registry builds the scheme registry: the configured built-ins in order,
// then the custom schemes.
func (c *VCSConfig) Registry() (*vcs.Registry, error) {
	var schemes []vcs.Scheme
	for _, name := range c.Schemes {
		s, err := vcs.BuiltinScheme(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		schemes = append(schemes, s)
	}
	for _, spec := range c.Custom {
		s, err := vcs.NewScheme(spec)
		if err != nil {
			return nil, errors.Wrap(err, "invalid custom scheme")
		}
		schemes = append(schemes, s)
	}
	return vcs.NewRegistry(schemes...)
}

// GetConfigPath returns the path to the default config file.
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get home directory")
	}
	return filepath.Join(homeDir, ".runstamp", "config.toml"), nil
}

// GetDBPath returns the path to the database file.
func GetDBPath(cfg *Config) string {
	return filepath.Join(cfg.Storage.DataDir, "runstamp.db")
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// setDefaults sets default values for viper.
func setDefaults(v *viper.Viper) {
	defaults := DefaultConfig()
	v.SetDefault("vcs.backend", defaults.VCS.Backend)
	v.SetDefault("vcs.command_timeout", defaults.VCS.CommandTimeout.String())
	v.SetDefault("vcs.schemes", defaults.VCS.Schemes)
	v.SetDefault("storage.data_dir", defaults.Storage.DataDir)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("mcp.enabled", defaults.MCP.Enabled)
}

func expandHome(path string) (string, error) {
	if path == "" {
		path = DefaultConfig().Storage.DataDir
	}
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get home directory")
	}
	return filepath.Join(homeDir, strings.TrimPrefix(path, "~")), nil
}
