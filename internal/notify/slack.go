// Package notify sends outbound webhook notifications for agent actions.
package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"
)

// SlackNotifier posts agent reminders and escalations to a Slack incoming
// webhook.
//
// All sends are best-effort: errors are logged but never propagated to the
// caller, so notification failures never interrupt an evaluation pass.
type SlackNotifier struct {
	webhookURL string
	log        zerolog.Logger
}

// NewSlackNotifier creates a notifier. An empty webhookURL disables sending.
func NewSlackNotifier(webhookURL string, log zerolog.Logger) *SlackNotifier {
	return &SlackNotifier{webhookURL: webhookURL, log: log}
}

// Notify posts a titled message to the configured webhook.
func (n *SlackNotifier) Notify(ctx context.Context, title, message string) {
	if n.webhookURL == "" {
		n.log.Debug().Str("title", title).Msg("notify: webhook not configured, skipping")
		return
	}

	msg := &slack.WebhookMessage{
		Text: fmt.Sprintf("*%s*\n%s", title, message),
	}
	if err := slack.PostWebhookContext(ctx, n.webhookURL, msg); err != nil {
		n.log.Warn().Err(err).Str("title", title).Msg("notify: webhook post failed (non-fatal)")
		return
	}

	n.log.Debug().Str("title", title).Msg("notify: webhook sent")
}
