package agent

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/pesio-ai/be-purchase-approvals/internal/repository"
)

// Composer produces the human-readable reminder and escalation messages. When
// an OpenAI API key is configured the deterministic template is rewritten by
// the model; otherwise (or on any API error) the template is used as-is, so
// message generation never blocks an evaluation pass.
type Composer struct {
	client *openai.Client
	model  string
	log    zerolog.Logger
}

// NewComposer creates a message composer. An empty apiKey disables the LLM
// rewrite entirely.
func NewComposer(apiKey, model string, log zerolog.Logger) *Composer {
	c := &Composer{model: model, log: log}
	if apiKey != "" {
		c.client = openai.NewClient(apiKey)
	}
	return c
}

// ReminderMessage composes the reminder text for an approval nearing its SLA.
func (c *Composer) ReminderMessage(ctx context.Context, a *repository.Approval) string {
	template := fmt.Sprintf(
		"Reminder: Approval %s for vendor %s ($%.2f) is approaching SLA (submitted %s). Please review and approve if ready.",
		a.ID, a.VendorName, a.Amount, a.SubmittedAt.Format("2006-01-02 15:04"),
	)
	return c.rewrite(ctx, template)
}

// EscalationMessage composes the escalation text for an approval past its SLA.
func (c *Composer) EscalationMessage(ctx context.Context, a *repository.Approval) string {
	template := fmt.Sprintf(
		"Escalation: Approval %s for %s ($%.2f) has breached SLA (submitted %s). Please escalate to the next authority with necessary context.",
		a.ID, a.VendorName, a.Amount, a.SubmittedAt.Format("2006-01-02 15:04"),
	)
	return c.rewrite(ctx, template)
}

func (c *Composer) rewrite(ctx context.Context, template string) string {
	if c.client == nil {
		return template
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		MaxTokens: 150,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "Rewrite the following purchasing-approval notification as one concise, professional sentence or two. Keep all identifiers, amounts and dates intact.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: template,
			},
		},
	})
	if err != nil {
		c.log.Warn().Err(err).Msg("agent: LLM rewrite failed, using template")
		return template
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return template
	}
	return resp.Choices[0].Message.Content
}
