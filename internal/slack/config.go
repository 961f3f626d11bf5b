// Package slack provides Slack notification integration for luckywheel.
package slack

// Config holds Slack notification configuration.
type Config struct {
	// Enabled controls whether Slack notifications are active.
	Enabled bool `toml:"enabled" envconfig:"ENABLED"`

	// WebhookURL is the Slack incoming webhook URL.
	WebhookURL string `toml:"webhook_url" envconfig:"WEBHOOK_URL"`

	// Channel is the default channel (can be overridden by webhook config).
	Channel string `toml:"channel,omitempty" envconfig:"CHANNEL"`

	// NotifyOn controls which events trigger notifications.
	NotifyOn NotifySettings `toml:"notify_on" envconfig:"NOTIFY_ON"`
}

// NotifySettings controls which events trigger Slack notifications.
type NotifySettings struct {
	// BigWin notifies when a spin lands on a 100k-or-more segment.
	BigWin bool `toml:"big_win" envconfig:"BIG_WIN"`

	// GrandPrize notifies when a spin lands on the greeting segment.
	GrandPrize bool `toml:"grand_prize" envconfig:"GRAND_PRIZE"`

	// AdminAction notifies on role changes, spin grants and deletions.
	AdminAction bool `toml:"admin_action" envconfig:"ADMIN_ACTION"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Enabled:    false,
		WebhookURL: "",
		Channel:    "",
		NotifyOn: NotifySettings{
			BigWin:      true,
			GrandPrize:  true,
			AdminAction: false, // Too noisy by default
		},
	}
}
