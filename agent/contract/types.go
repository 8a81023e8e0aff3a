package contract

import "time"

type ToolName string

const (
	ToolLogInteraction   ToolName = "log_interaction"
	ToolEditInteraction  ToolName = "edit_interaction"
	ToolFetchProviders   ToolName = "fetch_providers"
	ToolScheduleFollowup ToolName = "schedule_followup"
	ToolMarkCompliant    ToolName = "mark_compliant"
)

// InteractionInput is the payload accepted by the processing entry point.
// Field names follow the wire contract of the frontend form.
type InteractionInput struct {
	Mode            string `json:"mode"`
	Notes           string `json:"notes,omitempty"`
	PatientID       string `json:"patient_id,omitempty"`
	InteractionType string `json:"interaction_type,omitempty"`
	Date            string `json:"date,omitempty"`
	Duration        *int   `json:"duration,omitempty"`
	Symptoms        string `json:"symptoms,omitempty"`
	Diagnosis       string `json:"diagnosis,omitempty"`
	Prescription    string `json:"prescription,omitempty"`
	FollowUpDate    string `json:"followUpDate,omitempty"`
}

// IsChat reports whether the payload was submitted in free-text chat mode.
// Anything that is not "chat" is treated as a structured form submission.
func (in InteractionInput) IsChat() bool {
	return in.Mode == "chat"
}

// ToolResult is the structured outcome of one tool call. Tools never return
// raw errors across their boundary; failures land here as Error.
type ToolResult struct {
	Tool    ToolName `json:"tool"`
	Success bool     `json:"success"`
	Data    any      `json:"data,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// InsightBundle is the annotation attached to a successfully processed
// interaction: a short summary, 2-3 actionable insights and a confidence
// score in [0,1]. IsRealAI distinguishes external-model output from the
// deterministic fallback.
type InsightBundle struct {
	Summary         string    `json:"summary"`
	Insights        []string  `json:"insights"`
	ConfidenceScore float64   `json:"confidence_score"`
	NextSteps       []string  `json:"next_steps,omitempty"`
	Model           string    `json:"ai_model"`
	GeneratedAt     time.Time `json:"generated_at"`
	IsRealAI        bool      `json:"is_real_ai"`
}

// ProcessingResult is the per-request envelope returned by the processor.
// It is transient and never persisted.
type ProcessingResult struct {
	Success     bool           `json:"success"`
	ToolUsed    ToolName       `json:"tool_used,omitempty"`
	ToolResult  *ToolResult    `json:"tool_result,omitempty"`
	AIInsights  *InsightBundle `json:"ai_insights,omitempty"`
	ProcessedAt *time.Time     `json:"processed_at,omitempty"`
	Error       string         `json:"error,omitempty"`
	Message     string         `json:"message,omitempty"`
}
