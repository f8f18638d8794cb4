package ai

import (
	"context"
	"fmt"
	"unicode/utf8"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/spec-kit/triage-service/internal/config"
	"github.com/spec-kit/triage-service/internal/domain"
)

const ticketSystemPrompt = `You are an expert AI assistant that processes technical support tickets.

Your job is to:
1. Analyze the issue thoroughly
2. Provide comprehensive, actionable solutions
3. Include step-by-step instructions with examples
4. Suggest preventive measures

IMPORTANT:
- Respond ONLY with valid JSON.
- The format must be a raw JSON object.
- DO NOT wrap the response in markdown code blocks or any other characters.
- Make helpfulNotes detailed and actionable.`

// openAIClassifier calls an OpenAI-compatible chat-completions endpoint.
// Every request is bounded by the configured latency budget; any failure
// degrades to the deterministic fallback instead of propagating.
type openAIClassifier struct {
	client *openai.Client
	cfg    config.AIConfig
	logger *zap.Logger
}

// NewOpenAIClassifier builds the production classifier gateway.
func NewOpenAIClassifier(cfg config.AIConfig, logger *zap.Logger) Classifier {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &openAIClassifier{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
		logger: logger,
	}
}

func (c *openAIClassifier) ClassifyTicket(ctx context.Context, title, description string) TicketClassification {
	userPrompt := fmt.Sprintf(`You are a ticket triage agent. Only return a strict JSON object.

Analyze the following support ticket and provide a JSON object with:
- summary: A short 1-2 sentence summary.
- priority: One of "low", "medium", or "high".
- helpfulNotes: A technical guide (markdown formatted) with root cause, step-by-step resolution, and testing steps.
- relatedSkills: An array of technical skills required.

{
"summary": "...",
"priority": "...",
"helpfulNotes": "...",
"relatedSkills": ["..."]
}

Ticket:
Title: %s
Description: %s`, title, description)

	raw, err := c.complete(ctx, ticketSystemPrompt, userPrompt)
	if err != nil {
		c.logger.Warn("ticket classification failed, using fallback", zap.Error(err))
		return FallbackTicketClassification(title)
	}

	result, parsed := ParseTicketResponse(raw, title)
	if !parsed {
		c.logger.Warn("unparseable ticket classification, using fallback",
			zap.String("response", truncate(raw, 200)))
	}
	return result
}

func (c *openAIClassifier) ClassifyComment(ctx context.Context, title, description string, status domain.TicketStatus, comment string) CommentOutcome {
	prompt := fmt.Sprintf(`Analyze this comment from an assignee working on a support ticket.

Ticket Title: %s
Ticket Description: %s
Current Status: %s

Assignee's Comment: %q

Determine if this comment indicates:
1. "COMPLETE" - The issue is fully resolved and ready for review
2. "IN_PROGRESS" - Work is ongoing, may mention progress updates or blockers
3. "NEEDS_INFO" - Assignee needs more information from the reporter
4. "RETURNED" - Issue needs to be reassigned or sent back to reporter

Respond ONLY with one of these exact words: COMPLETE, IN_PROGRESS, NEEDS_INFO, or RETURNED`,
		title, description, status, comment)

	raw, err := c.complete(ctx, "", prompt)
	if err != nil {
		c.logger.Warn("comment classification failed, using fallback", zap.Error(err))
		return OutcomeInProgress
	}
	return ParseCommentResponse(raw)
}

func (c *openAIClassifier) complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout())
	defer cancel()

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userPrompt,
	})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: 0.1,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// truncate shortens s to at most max bytes without splitting a rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
