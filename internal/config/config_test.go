package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
[store]
backend = "file"
dir = "/tmp/lw-state"
lock_timeout = "2s"

[accounts]
root_admin_email = "root@example.com"
history_limit = 10

[slack]
enabled = true
webhook_url = "https://hooks.slack.com/test"

[slack.notify_on]
admin_action = true

[oauth.google]
client_id = "abc"
scopes = ["email", "profile"]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/lw-state", cfg.Store.Dir)
	assert.Equal(t, 2*time.Second, cfg.Store.LockTimeout)
	assert.Equal(t, "root@example.com", cfg.Accounts.RootAdminEmail)
	assert.Equal(t, 10, cfg.Accounts.HistoryLimit)
	assert.Equal(t, 1, cfg.Accounts.InitialSpins, "unset keys keep defaults")
	assert.True(t, cfg.Slack.Enabled)
	assert.True(t, cfg.Slack.NotifyOn.AdminAction)
	assert.True(t, cfg.Slack.NotifyOn.BigWin, "unset notify_on keys keep defaults")

	google, ok := cfg.Provider("Google")
	require.True(t, ok)
	assert.Equal(t, []string{"email", "profile"}, google.Scopes)

	_, ok = cfg.Provider("facebook")
	assert.False(t, ok)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
[store]
dir = "/tmp/from-file"
`)
	t.Setenv("LW_STORE_DIR", "/tmp/from-env")
	t.Setenv("LW_ACCOUNTS_ROOT_ADMIN_EMAIL", "boss@example.com")
	t.Setenv("LW_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/from-env", cfg.Store.Dir)
	assert.Equal(t, "boss@example.com", cfg.Accounts.RootAdminEmail)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_MissingDefaultFileUsesDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv(EnvVarConfig, "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, BackendFile, cfg.Store.Backend)
	assert.Equal(t, 20, cfg.Accounts.HistoryLimit)
}

func TestLoad_MissingExplicitFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoad_UnknownKeysRejected(t *testing.T) {
	path := writeConfig(t, `
[store]
dri = "/tmp/typo"
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.dri")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.Store.Backend = "sqlite" }},
		{"redis without address", func(c *Config) { c.Store.Backend = BackendRedis }},
		{"zero lock timeout", func(c *Config) { c.Store.LockTimeout = 0 }},
		{"zero history limit", func(c *Config) { c.Accounts.HistoryLimit = 0 }},
		{"negative initial spins", func(c *Config) { c.Accounts.InitialSpins = -1 }},
		{"empty seed secret", func(c *Config) { c.Accounts.SeedSecret = "" }},
		{"root admin email owned by seed", func(c *Config) { c.Accounts.RootAdminEmail = "Admin@LuckyWheel.local " }},
	}

	require.NoError(t, Default().Validate())
	assert.Empty(t, Default().Accounts.RootAdminEmail, "root admin promotion is off until configured")

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	assert.Equal(t, filepath.Join(home, ".lw"), expandHome("~/.lw"))
	assert.Equal(t, "/abs/path", expandHome("/abs/path"))
}
