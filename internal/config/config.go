// Package config handles reading and writing recall's config.yaml.
//
// Settings are layered: built-in defaults, then ~/.recall/config.yaml, then
// ./.recall/config.yaml in the working directory, then RECALL_* environment
// variables (RECALL_SEARCH_LIMIT overrides search.limit).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/berth-dev/recall/internal/search"
	"github.com/berth-dev/recall/internal/transcript"
)

// Config is the top-level structure for config.yaml.
type Config struct {
	Sources SourcesConfig `yaml:"sources" mapstructure:"sources"`
	Search  SearchConfig  `yaml:"search" mapstructure:"search"`
	DataDir string        `yaml:"data_dir" mapstructure:"data_dir"`
	History HistoryConfig `yaml:"history" mapstructure:"history"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Recap   RecapConfig   `yaml:"recap" mapstructure:"recap"`
}

// SourcesConfig lists the transcript directories per dialect.
type SourcesConfig struct {
	ClaudeDirs  []string `yaml:"claude_dirs" mapstructure:"claude_dirs"`
	CopilotDirs []string `yaml:"copilot_dirs" mapstructure:"copilot_dirs"`
}

// SearchConfig holds search defaults used when a flag is not given.
type SearchConfig struct {
	Limit   int    `yaml:"limit" mapstructure:"limit"`
	Workers int    `yaml:"workers" mapstructure:"workers"` // 0 = NumCPU
	Dialect string `yaml:"dialect" mapstructure:"dialect"` // "all" | "claude" | "copilot"
}

// HistoryConfig controls the search history database.
type HistoryConfig struct {
	Enabled    bool `yaml:"enabled" mapstructure:"enabled"`
	MaxAgeDays int  `yaml:"max_age_days" mapstructure:"max_age_days"`
}

// ServerConfig controls `recall serve`.
type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// RecapConfig controls LLM recaps.
type RecapConfig struct {
	Model       string `yaml:"model" mapstructure:"model"`
	APIKeyEnv   string `yaml:"api_key_env" mapstructure:"api_key_env"`
	MaxMessages int    `yaml:"max_messages" mapstructure:"max_messages"`
}

const (
	configDir  = ".recall"
	configFile = "config.yaml"
	envPrefix  = "RECALL"
)

// DefaultConfig returns a Config populated with sensible defaults.
// Paths are left unexpanded.
func DefaultConfig() *Config {
	return &Config{
		Sources: SourcesConfig{
			ClaudeDirs:  []string{"~/.claude/projects"},
			CopilotDirs: []string{"~/.copilot/session-state"},
		},
		Search: SearchConfig{
			Limit:   search.DefaultLimit,
			Workers: 0,
			Dialect: "all",
		},
		DataDir: "~/" + configDir,
		History: HistoryConfig{
			Enabled:    true,
			MaxAgeDays: 90,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:7878",
		},
		Recap: RecapConfig{
			Model:       "gpt-4.1-mini",
			APIKeyEnv:   "OPENAI_API_KEY",
			MaxMessages: 40,
		},
	}
}

// Load reads the global and project config files and applies environment
// overrides. Missing files are not an error.
func Load() (*Config, error) {
	return LoadFiles(GlobalConfigPath(), ProjectConfigPath())
}

// LoadFiles merges the given YAML files over the defaults, later files
// winning, then applies RECALL_* environment overrides and expands ~.
func LoadFiles(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.expand()
	return &cfg, nil
}

// setDefaults registers every key so environment overrides are visible to
// Unmarshal.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("sources.claude_dirs", d.Sources.ClaudeDirs)
	v.SetDefault("sources.copilot_dirs", d.Sources.CopilotDirs)
	v.SetDefault("search.limit", d.Search.Limit)
	v.SetDefault("search.workers", d.Search.Workers)
	v.SetDefault("search.dialect", d.Search.Dialect)
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("history.max_age_days", d.History.MaxAgeDays)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("recap.model", d.Recap.Model)
	v.SetDefault("recap.api_key_env", d.Recap.APIKeyEnv)
	v.SetDefault("recap.max_messages", d.Recap.MaxMessages)
}

func (c *Config) expand() {
	for i, d := range c.Sources.ClaudeDirs {
		c.Sources.ClaudeDirs[i] = ExpandHome(d)
	}
	for i, d := range c.Sources.CopilotDirs {
		c.Sources.CopilotDirs[i] = ExpandHome(d)
	}
	c.DataDir = ExpandHome(c.DataDir)
}

// WriteConfig writes cfg as YAML to path, creating parent directories.
func WriteConfig(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// SearchSources returns the configured directories as search sources,
// Claude dirs first.
func (c *Config) SearchSources() []search.Source {
	var out []search.Source
	for _, d := range c.Sources.ClaudeDirs {
		out = append(out, search.Source{Dir: d, Dialect: transcript.DialectClaude})
	}
	for _, d := range c.Sources.CopilotDirs {
		out = append(out, search.Source{Dir: d, Dialect: transcript.DialectCopilot})
	}
	return out
}

// HistoryPath is the search history database inside DataDir.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.DataDir, "history.db")
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

// GlobalConfigPath returns ~/.recall/config.yaml.
func GlobalConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, configDir, configFile)
}

// ProjectConfigPath returns .recall/config.yaml under the working directory.
func ProjectConfigPath() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return filepath.Join(cwd, configDir, configFile)
}
