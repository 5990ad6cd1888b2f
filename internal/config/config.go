// Package config loads shared configuration for the Tools binaries.
// Defaults cover the standard two-profile setup; an optional sync.yaml and
// SYNC_* environment variables override them.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// DefaultTool is the sync tool the menu dispatches to.
	DefaultTool = "remote-sync"

	// DefaultLogFile is where the plain-text log copy goes.
	DefaultLogFile = "sync_log.txt"

	// ConfigFileName is the base name of the optional config file.
	ConfigFileName = "sync"
)

// Profile describes one sync target selectable from the menu.
type Profile struct {
	Label       string   `mapstructure:"label"`
	Resource    string   `mapstructure:"resource"`
	Destination string   `mapstructure:"destination"`
	Flags       []string `mapstructure:"flags"`
}

// SyncSettings tunes the sync engine.
type SyncSettings struct {
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxRetries    int           `mapstructure:"max_retries"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	SettlingDelay time.Duration `mapstructure:"settling_delay"`
	Concurrency   int           `mapstructure:"concurrency"`
	SkipIfExists  bool          `mapstructure:"skip_if_exists"`
}

// Config is the root configuration shared by the binaries.
type Config struct {
	Tool     string             `mapstructure:"tool"`
	LogFile  string             `mapstructure:"log_file"`
	Profiles map[string]Profile `mapstructure:"profiles"`
	Sync     SyncSettings       `mapstructure:"sync"`
}

// DefaultProfiles returns the built-in profile table, keyed by menu choice.
func DefaultProfiles() map[string]Profile {
	return map[string]Profile{
		"1": {
			Label:       "W307 Release",
			Resource:    `\\172.16.0.243\wangguanran\Codes\sprd_w307_release`,
			Destination: `D:\Codes\sprd_w307_release`,
			Flags:       []string{"--initial-sync", "--no-watch"},
		},
		"2": {
			Label:       "W117 TR5 Dev",
			Resource:    `\\172.16.0.243\wangguanran\Codes\sprd_w117_tr5_dev`,
			Destination: `D:\Codes\sprd_w117_tr5_dev`,
			Flags:       []string{"--initial-sync", "--no-watch"},
		},
	}
}

// Default returns the configuration used when no file or env overrides exist.
func Default() *Config {
	return &Config{
		Tool:     DefaultTool,
		LogFile:  DefaultLogFile,
		Profiles: DefaultProfiles(),
		Sync: SyncSettings{
			Timeout:       30 * time.Second,
			MaxRetries:    3,
			RetryDelay:    5 * time.Second,
			ReconnectWait: 60 * time.Second,
			PollInterval:  time.Second,
			SettlingDelay: 100 * time.Millisecond,
			Concurrency:   4,
			SkipIfExists:  false,
		},
	}
}

// Load reads configuration from the given file path, or from sync.yaml in the
// working directory (then $HOME) when path is empty. A missing file is not an
// error; defaults apply. A .env file in the working directory is loaded first
// so SYNC_* variables can override file values.
func Load(path string) (*Config, error) {
	// Best effort; most installs have no .env file.
	_ = godotenv.Load()

	def := Default()

	v := viper.New()
	v.SetDefault("tool", def.Tool)
	v.SetDefault("log_file", def.LogFile)
	v.SetDefault("sync.timeout", def.Sync.Timeout)
	v.SetDefault("sync.max_retries", def.Sync.MaxRetries)
	v.SetDefault("sync.retry_delay", def.Sync.RetryDelay)
	v.SetDefault("sync.reconnect_wait", def.Sync.ReconnectWait)
	v.SetDefault("sync.poll_interval", def.Sync.PollInterval)
	v.SetDefault("sync.settling_delay", def.Sync.SettlingDelay)
	v.SetDefault("sync.concurrency", def.Sync.Concurrency)
	v.SetDefault("sync.skip_if_exists", def.Sync.SkipIfExists)

	v.SetEnvPrefix("SYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %q: %w", path, err)
		}
	} else {
		v.SetConfigName(ConfigFileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Unmarshal cannot default a typed map, so fill the profile table here.
	if len(cfg.Profiles) == 0 {
		cfg.Profiles = DefaultProfiles()
	}
	for key, p := range cfg.Profiles {
		if len(p.Flags) == 0 {
			p.Flags = []string{"--initial-sync", "--no-watch"}
			cfg.Profiles[key] = p
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ProfileKeys returns the menu choice keys in display order.
func (c *Config) ProfileKeys() []string {
	keys := make([]string, 0, len(c.Profiles))
	for k := range c.Profiles {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
