// Package ai wraps the external reasoning service behind a gateway that
// never fails: every call returns a usable classification, falling back to
// deterministic defaults when the service errors or returns garbage.
package ai

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/spec-kit/triage-service/internal/domain"
)

// TicketClassification is the structured triage result for a new ticket.
type TicketClassification struct {
	Summary       string                `json:"summary"`
	Priority      domain.TicketPriority `json:"priority"`
	RelatedSkills []string              `json:"relatedSkills"`
	HelpfulNotes  string                `json:"helpfulNotes"`
}

// CommentOutcome is the classified meaning of an assignee progress update.
type CommentOutcome string

const (
	OutcomeComplete   CommentOutcome = "COMPLETE"
	OutcomeInProgress CommentOutcome = "IN_PROGRESS"
	OutcomeNeedsInfo  CommentOutcome = "NEEDS_INFO"
	OutcomeReturned   CommentOutcome = "RETURNED"
)

// Classifier turns ticket and comment text into structured triage data.
// Implementations recover from every failure internally; callers always
// receive a usable result and never an error.
type Classifier interface {
	ClassifyTicket(ctx context.Context, title, description string) TicketClassification
	ClassifyComment(ctx context.Context, title, description string, status domain.TicketStatus, comment string) CommentOutcome
}

// FallbackTicketClassification is returned when the reasoning service is
// unreachable or its response cannot be parsed.
func FallbackTicketClassification(title string) TicketClassification {
	return TicketClassification{
		Summary:       title,
		Priority:      domain.TicketPriorityMedium,
		RelatedSkills: []string{},
		HelpfulNotes:  "AI analysis failed. Manual review required.",
	}
}

// rawClassification mirrors the JSON shape the model is instructed to emit.
type rawClassification struct {
	Summary       string          `json:"summary"`
	Priority      string          `json:"priority"`
	HelpfulNotes  json.RawMessage `json:"helpfulNotes"`
	RelatedSkills []string        `json:"relatedSkills"`
}

// ParseTicketResponse extracts a TicketClassification from a raw model
// response, tolerating markdown fences and surrounding prose. title seeds
// the fallback summary.
func ParseTicketResponse(raw, title string) (TicketClassification, bool) {
	jsonText, ok := extractJSONObject(raw)
	if !ok {
		return FallbackTicketClassification(title), false
	}

	var parsed rawClassification
	if err := json.Unmarshal([]byte(jsonText), &parsed); err != nil {
		return FallbackTicketClassification(title), false
	}

	result := TicketClassification{
		Summary:       parsed.Summary,
		Priority:      domain.TicketPriority(strings.ToLower(parsed.Priority)),
		RelatedSkills: parsed.RelatedSkills,
		HelpfulNotes:  decodeNotes(parsed.HelpfulNotes),
	}
	if result.Summary == "" {
		result.Summary = title
	}
	if !domain.ValidPriority(result.Priority) {
		result.Priority = domain.TicketPriorityMedium
	}
	if result.RelatedSkills == nil {
		result.RelatedSkills = []string{}
	}
	if result.HelpfulNotes == "" {
		result.HelpfulNotes = "No notes generated."
	}
	return result, true
}

// ParseCommentResponse maps a raw model response to an outcome token,
// defaulting to IN_PROGRESS when none of the known tokens appear.
func ParseCommentResponse(raw string) CommentOutcome {
	output := strings.ToUpper(raw)
	switch {
	case strings.Contains(output, string(OutcomeComplete)):
		return OutcomeComplete
	case strings.Contains(output, string(OutcomeNeedsInfo)):
		return OutcomeNeedsInfo
	case strings.Contains(output, string(OutcomeReturned)):
		return OutcomeReturned
	default:
		return OutcomeInProgress
	}
}

// extractJSONObject strips markdown fences and slices the outermost JSON
// object, scanning for the first opening and last closing brace.
func extractJSONObject(raw string) (string, bool) {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		if idx := strings.Index(text, "\n"); idx >= 0 {
			text = text[idx+1:]
		} else {
			text = strings.TrimPrefix(text, "```")
		}
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return "", false
	}
	return text[start : end+1], true
}

// decodeNotes accepts either a JSON string or, defensively, an arbitrary
// JSON value the model produced instead; non-strings are re-serialized.
func decodeNotes(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString
	}
	return string(raw)
}
