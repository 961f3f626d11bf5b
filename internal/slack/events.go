package slack

import (
	"fmt"
	"time"
)

// EventType identifies the type of wheel event.
type EventType string

// Event types for Slack notifications.
const (
	EventBigWin         EventType = "big_win"
	EventGrandPrize     EventType = "grand_prize"
	EventSpinsGranted   EventType = "spins_granted"
	EventRoleChanged    EventType = "role_changed"
	EventAccountDeleted EventType = "account_deleted"
)

// Field keys used in notification payloads.
const (
	FieldUser      = "user"
	FieldPrize     = "prize"
	FieldRole      = "role"
	FieldCount     = "count"
	FieldRemaining = "remaining"
	FieldActor     = "actor"
)

// eventConfig holds display configuration for each event type.
type eventConfig struct {
	emoji string
	title string
}

var eventConfigs = map[EventType]eventConfig{
	EventBigWin:         {emoji: "💰", title: "Big Win"},
	EventGrandPrize:     {emoji: "🎆", title: "Grand Prize"},
	EventSpinsGranted:   {emoji: "🎫", title: "Spins Granted"},
	EventRoleChanged:    {emoji: "🛡️", title: "Role Changed"},
	EventAccountDeleted: {emoji: "🗑️", title: "Account Deleted"},
}

// formatMessage creates a Slack message for the given event.
func formatMessage(event EventType, fields map[string]string) *slackMessage {
	cfg, ok := eventConfigs[event]
	if !ok {
		cfg = eventConfig{emoji: "📢", title: string(event)}
	}

	header := fmt.Sprintf("%s *%s*", cfg.emoji, cfg.title)

	var fieldBlocks []slackText
	switch event {
	case EventBigWin, EventGrandPrize:
		fieldBlocks = formatWinFields(fields)
	case EventSpinsGranted, EventRoleChanged, EventAccountDeleted:
		fieldBlocks = formatAdminFields(fields)
	default:
		fieldBlocks = formatGenericFields(fields)
	}

	blocks := []slackBlock{
		{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: header},
		},
	}

	if len(fieldBlocks) > 0 {
		blocks = append(blocks, slackBlock{
			Type:   "section",
			Fields: fieldBlocks,
		})
	}

	blocks = append(blocks, slackBlock{
		Type: "context",
		Fields: []slackText{
			{Type: "mrkdwn", Text: fmt.Sprintf("_Lucky Wheel • %s_", time.Now().Format("Jan 2, 15:04 MST"))},
		},
	})

	return &slackMessage{
		Text:   fmt.Sprintf("%s %s", cfg.emoji, cfg.title), // Fallback text
		Blocks: blocks,
	}
}

func formatWinFields(fields map[string]string) []slackText {
	var result []slackText
	if v := fields[FieldUser]; v != "" {
		result = append(result, slackText{Type: "mrkdwn", Text: fmt.Sprintf("*Player:*\n%s", v)})
	}
	if v := fields[FieldPrize]; v != "" {
		result = append(result, slackText{Type: "mrkdwn", Text: fmt.Sprintf("*Prize:*\n%s", truncate(v, 50))})
	}
	if v := fields[FieldRemaining]; v != "" {
		result = append(result, slackText{Type: "mrkdwn", Text: fmt.Sprintf("*Spins left:*\n%s", v)})
	}
	return result
}

func formatAdminFields(fields map[string]string) []slackText {
	var result []slackText
	if v := fields[FieldUser]; v != "" {
		result = append(result, slackText{Type: "mrkdwn", Text: fmt.Sprintf("*Account:*\n`%s`", v)})
	}
	if v := fields[FieldRole]; v != "" {
		result = append(result, slackText{Type: "mrkdwn", Text: fmt.Sprintf("*Role:*\n%s", v)})
	}
	if v := fields[FieldCount]; v != "" {
		result = append(result, slackText{Type: "mrkdwn", Text: fmt.Sprintf("*Spins:*\n+%s", v)})
	}
	if v := fields[FieldActor]; v != "" {
		result = append(result, slackText{Type: "mrkdwn", Text: fmt.Sprintf("*By:*\n%s", v)})
	}
	return result
}

func formatGenericFields(fields map[string]string) []slackText {
	var result []slackText
	for k, v := range fields {
		if v != "" {
			result = append(result, slackText{Type: "mrkdwn", Text: fmt.Sprintf("*%s:*\n%s", k, truncate(v, 100))})
		}
	}
	return result
}

// truncate shortens a string to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
