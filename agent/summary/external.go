package summary

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/careloop/crm/agent/contract"
)

const (
	maxPromptChars     = 2000
	rawSummaryLimit    = 200
	parsedConfidence   = 0.85
	unparsedConfidence = 0.88
)

const promptTemplate = `You are a healthcare CRM AI assistant. Analyze this doctor interaction:

%s

Provide a brief summary and 2-3 actionable insights.
Format as JSON with keys: summary, insights (list), confidence_score.`

var genericInsights = []string{
	"AI generated insights from clinical notes",
	"Recommend reviewing diagnosis accuracy",
	"Schedule appropriate follow-up",
}

// CompletionClient is the single call consumed from the external
// text-generation capability: prompt in, free text out.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// External asks a text-generation model for the insight bundle. It never
// fails the caller: an unreachable or erroring model degrades to the
// deterministic generator, and an unparseable response keeps the raw text.
type External struct {
	client   CompletionClient
	model    string
	fallback *Deterministic
	now      func() time.Time
}

var _ contractx.Summarizer = (*External)(nil)

func NewExternal(client CompletionClient, model string) *External {
	return &External{
		client:   client,
		model:    model,
		fallback: NewDeterministic(),
		now:      time.Now,
	}
}

func (e *External) Summarize(ctx context.Context, in contractx.InteractionInput, toolResult contractx.ToolResult) contractx.InsightBundle {
	raw, err := e.client.Complete(ctx, buildPrompt(in))
	if err != nil {
		wrapped := fmt.Errorf("%w: %v", contractx.ErrExternalService, err)
		log.Warn().Err(wrapped).Msg("using deterministic fallback")
		return e.fallback.Summarize(ctx, in, toolResult)
	}

	bundle := parseModelResponse(raw)
	bundle.Model = e.model
	bundle.GeneratedAt = e.now().UTC()
	bundle.IsRealAI = true
	return bundle
}

func buildPrompt(in contractx.InteractionInput) string {
	text := in.Notes
	if !in.IsChat() {
		if encoded, err := json.Marshal(in); err == nil {
			text = string(encoded)
		}
	}
	return fmt.Sprintf(promptTemplate, truncate(text, maxPromptChars))
}

type modelInsightPayload struct {
	Summary         string   `json:"summary"`
	Insights        []string `json:"insights"`
	ConfidenceScore float64  `json:"confidence_score"`
}

// parseModelResponse decodes the model's JSON answer. When the response is
// not valid JSON the raw text becomes the summary and a generic insight set
// is substituted.
func parseModelResponse(raw string) contractx.InsightBundle {
	cleaned := stripCodeFence(strings.TrimSpace(raw))

	var payload modelInsightPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return contractx.InsightBundle{
			Summary:         truncate(strings.TrimSpace(raw), rawSummaryLimit),
			Insights:        genericInsights,
			ConfidenceScore: unparsedConfidence,
		}
	}

	if payload.Summary == "" {
		payload.Summary = "AI analysis completed"
	}
	if len(payload.Insights) == 0 {
		payload.Insights = []string{"No specific insights generated"}
	}
	if payload.ConfidenceScore <= 0 || payload.ConfidenceScore > 1 {
		payload.ConfidenceScore = parsedConfidence
	}

	return contractx.InsightBundle{
		Summary:         payload.Summary,
		Insights:        payload.Insights,
		ConfidenceScore: payload.ConfidenceScore,
	}
}

// stripCodeFence removes a surrounding markdown fence, which some models add
// around JSON answers.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
