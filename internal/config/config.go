// Package config loads luckywheel settings from a TOML file and LW_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
	"github.com/steveyegge/luckywheel/internal/slack"
)

// EnvPrefix is the prefix for environment overrides (LW_STORE_DIR, LW_LOG_LEVEL, ...).
const EnvPrefix = "LW"

// EnvVarConfig points at an explicit config file.
const EnvVarConfig = "LW_CONFIG"

// Store backends.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config is the complete luckywheel configuration.
type Config struct {
	Store    StoreConfig            `toml:"store" envconfig:"STORE"`
	Accounts AccountsConfig         `toml:"accounts" envconfig:"ACCOUNTS"`
	Log      LogConfig              `toml:"log" envconfig:"LOG"`
	Slack    slack.Config           `toml:"slack" envconfig:"SLACK"`
	OAuth    map[string]OAuthConfig `toml:"oauth" ignored:"true"`
	Metrics  MetricsConfig          `toml:"metrics" envconfig:"METRICS"`
}

// StoreConfig selects where the roster and session are persisted.
type StoreConfig struct {
	Backend     string        `toml:"backend" envconfig:"BACKEND"`
	Dir         string        `toml:"dir" envconfig:"DIR"`
	LockTimeout time.Duration `toml:"lock_timeout" envconfig:"LOCK_TIMEOUT"`

	RedisURL       string `toml:"redis_url" envconfig:"REDIS_URL"`
	RedisAddr      string `toml:"redis_addr" envconfig:"REDIS_ADDR"`
	RedisNamespace string `toml:"redis_namespace" envconfig:"REDIS_NAMESPACE"`
}

// AccountsConfig holds the fixed root administrator identity and balance defaults.
type AccountsConfig struct {
	// RootAdminEmail auto-grants admin on social login. Empty, the default,
	// disables it. It must differ from SeedEmail, which the root admin's
	// password account already owns.
	RootAdminEmail string `toml:"root_admin_email" envconfig:"ROOT_ADMIN_EMAIL"`

	// SeedEmail and SeedSecret are used when the root admin record is first created.
	SeedEmail  string `toml:"seed_email" envconfig:"SEED_EMAIL"`
	SeedSecret string `toml:"seed_secret" envconfig:"SEED_SECRET"`

	HistoryLimit int `toml:"history_limit" envconfig:"HISTORY_LIMIT"`
	InitialSpins int `toml:"initial_spins" envconfig:"INITIAL_SPINS"`
}

// LogConfig controls the stderr logger.
type LogConfig struct {
	Level  string `toml:"level" envconfig:"LEVEL"`
	Format string `toml:"format" envconfig:"FORMAT"`
}

// OAuthConfig configures the device-flow identity provider for one social provider.
type OAuthConfig struct {
	ClientID      string   `toml:"client_id"`
	ClientSecret  string   `toml:"client_secret"`
	DeviceAuthURL string   `toml:"device_auth_url"`
	TokenURL      string   `toml:"token_url"`
	UserInfoURL   string   `toml:"userinfo_url"`
	Scopes        []string `toml:"scopes"`
}

// MetricsConfig controls the Prometheus textfile export.
type MetricsConfig struct {
	Textfile string `toml:"textfile" envconfig:"TEXTFILE"`
}

// Default returns a config with sensible defaults.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Backend:        BackendFile,
			Dir:            defaultStateDir(),
			LockTimeout:    5 * time.Second,
			RedisNamespace: "lw",
		},
		Accounts: AccountsConfig{
			SeedEmail:    "admin@luckywheel.local",
			SeedSecret:   "admin123",
			HistoryLimit: 20,
			InitialSpins: 1,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
		Slack: *slack.DefaultConfig(),
		OAuth: map[string]OAuthConfig{},
	}
}

// DefaultPath returns the standard config file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "luckywheel", "config.toml")
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".luckywheel"
	}
	return filepath.Join(home, ".luckywheel")
}

// Load reads the config file at path, then applies environment overrides.
// An empty path falls back to $LW_CONFIG, then DefaultPath; a missing default file is not an error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		if env := os.Getenv(EnvVarConfig); env != "" {
			path, explicit = env, true
		} else {
			path = DefaultPath()
		}
	}

	cfg := Default()
	if path != "" {
		if err := decodeFile(path, cfg); err != nil {
			if !explicit && errors.Is(err, os.ErrNotExist) {
				err = nil
			}
			if err != nil {
				return nil, err
			}
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	cfg.Store.Dir = expandHome(cfg.Store.Dir)
	cfg.Metrics.Textfile = expandHome(cfg.Metrics.Textfile)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return err
		}
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// Validate checks values that would otherwise fail deep inside a command.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendFile:
		if c.Store.Dir == "" {
			return errors.New("config: store.dir is required for the file backend")
		}
	case BackendRedis:
		if c.Store.RedisURL == "" && c.Store.RedisAddr == "" {
			return errors.New("config: store.redis_url or store.redis_addr is required for the redis backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("config: unknown store.backend %q", c.Store.Backend)
	}
	if c.Store.LockTimeout <= 0 {
		return errors.New("config: store.lock_timeout must be positive")
	}
	if c.Accounts.HistoryLimit <= 0 {
		return errors.New("config: accounts.history_limit must be positive")
	}
	if c.Accounts.InitialSpins < 0 {
		return errors.New("config: accounts.initial_spins cannot be negative")
	}
	if c.Accounts.SeedSecret == "" {
		return errors.New("config: accounts.seed_secret is required")
	}
	if root := strings.TrimSpace(c.Accounts.RootAdminEmail); root != "" &&
		strings.EqualFold(root, strings.TrimSpace(c.Accounts.SeedEmail)) {
		return errors.New("config: accounts.root_admin_email must differ from accounts.seed_email")
	}
	return nil
}

// Provider returns the OAuth settings for a social provider, if configured.
func (c *Config) Provider(name string) (OAuthConfig, bool) {
	oc, ok := c.OAuth[strings.ToLower(name)]
	return oc, ok && oc.ClientID != ""
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
