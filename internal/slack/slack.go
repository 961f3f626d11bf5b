package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client sends notifications to Slack via incoming webhooks.
type Client struct {
	webhookURL string
	channel    string
	enabled    bool
	httpClient *http.Client
	notifyOn   NotifySettings
}

// NewClient creates a new Slack client from configuration.
func NewClient(cfg *Config) *Client {
	if cfg == nil || !cfg.Enabled || cfg.WebhookURL == "" {
		return &Client{enabled: false}
	}

	return &Client{
		webhookURL: cfg.WebhookURL,
		channel:    cfg.Channel,
		enabled:    true,
		notifyOn:   cfg.NotifyOn,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// Enabled reports whether Post will send anything at all.
func (c *Client) Enabled() bool {
	return c != nil && c.enabled
}

// slackMessage represents a Slack webhook payload.
type slackMessage struct {
	Channel string       `json:"channel,omitempty"`
	Text    string       `json:"text,omitempty"`
	Blocks  []slackBlock `json:"blocks,omitempty"`
}

// slackBlock represents a Slack Block Kit block.
type slackBlock struct {
	Type   string      `json:"type"`
	Text   *slackText  `json:"text,omitempty"`
	Fields []slackText `json:"fields,omitempty"`
}

// slackText represents text in a Slack block.
type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Post sends a message to Slack.
// Callers should generally only log errors since notifications are best-effort.
func (c *Client) Post(ctx context.Context, event EventType, fields map[string]string) error {
	if !c.Enabled() {
		return nil
	}

	if !c.shouldNotify(event) {
		return nil
	}

	msg := formatMessage(event, fields)
	if c.channel != "" {
		msg.Channel = c.channel
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshaling slack message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending to slack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack returned status %d", resp.StatusCode)
	}

	return nil
}

// shouldNotify checks if the given event type should trigger a notification.
func (c *Client) shouldNotify(event EventType) bool {
	switch event {
	case EventBigWin:
		return c.notifyOn.BigWin
	case EventGrandPrize:
		return c.notifyOn.GrandPrize
	case EventSpinsGranted, EventRoleChanged, EventAccountDeleted:
		return c.notifyOn.AdminAction
	default:
		return true
	}
}
