package tool

import (
	"context"
	"fmt"
	"time"

	contractx "github.com/careloop/crm/agent/contract"
	storex "github.com/careloop/crm/agent/store"
)

const (
	chatDurationMinutes    = 30
	defaultDurationMinutes = 20
)

// Toolset holds the business tools. Each tool maps a request to a structured
// result; every failure is caught at the tool boundary and reported inside
// the ToolResult, never as a raised error.
type Toolset struct {
	store storex.Store
}

func NewToolset(s storex.Store) *Toolset {
	return &Toolset{store: s}
}

type LogInteractionOutput struct {
	InteractionID string              `json:"interaction_id"`
	Interaction   *storex.Interaction `json:"interaction"`
}

// LogInteraction creates a new interaction record. Chat mode stores the raw
// notes with a fixed type and duration; everything else is treated as a
// structured form submission.
func (t *Toolset) LogInteraction(ctx context.Context, in contractx.InteractionInput) contractx.ToolResult {
	rec := new(storex.Interaction)

	if in.IsChat() {
		rec.ChatNotes = ptr(in.Notes)
		rec.InteractionType = "consultation"
		rec.DurationMinutes = ptr(chatDurationMinutes)
	} else {
		rec.PatientID = nonEmpty(in.PatientID)
		rec.Symptoms = nonEmpty(in.Symptoms)
		rec.Diagnosis = nonEmpty(in.Diagnosis)
		rec.Prescription = nonEmpty(in.Prescription)
		if in.Duration != nil {
			rec.DurationMinutes = in.Duration
		} else {
			rec.DurationMinutes = ptr(defaultDurationMinutes)
		}
	}

	created, err := t.store.CreateInteraction(ctx, rec)
	if err != nil {
		return failure(contractx.ToolLogInteraction, err)
	}

	return success(contractx.ToolLogInteraction, LogInteractionOutput{
		InteractionID: created.ID,
		Interaction:   created,
	})
}

// EditRequest carries the fields an edit may change. Nil fields are ignored.
type EditRequest struct {
	Diagnosis    *string `json:"diagnosis,omitempty"`
	Prescription *string `json:"prescription,omitempty"`
}

// EditInteraction updates the identified record with the provided fields.
// The target id is explicit; editing "whatever was created last" is not
// supported because it loses writes under concurrent clients.
func (t *Toolset) EditInteraction(ctx context.Context, id string, req EditRequest) contractx.ToolResult {
	updated, err := t.store.UpdateInteraction(ctx, id, storex.InteractionPatch{
		Diagnosis:    req.Diagnosis,
		Prescription: req.Prescription,
	})
	if err != nil {
		return failure(contractx.ToolEditInteraction, err)
	}
	return success(contractx.ToolEditInteraction, updated)
}

type FetchProvidersOutput struct {
	Count     int                      `json:"count"`
	Providers []storex.ProviderProfile `json:"providers"`
}

// FetchProviders returns all provider profiles. The query argument is
// accepted for forward compatibility but no filtering is applied.
func (t *Toolset) FetchProviders(ctx context.Context, query map[string]any) contractx.ToolResult {
	_ = query

	profiles, err := t.store.ListProviders(ctx)
	if err != nil {
		return failure(contractx.ToolFetchProviders, err)
	}
	return success(contractx.ToolFetchProviders, FetchProvidersOutput{
		Count:     len(profiles),
		Providers: profiles,
	})
}

// ScheduleFollowup sets the follow-up date on the identified record. The date
// string must be ISO-8601; parsing happens before any store access so a bad
// date never mutates the record.
func (t *Toolset) ScheduleFollowup(ctx context.Context, id string, date string) contractx.ToolResult {
	parsed, err := parseISODate(date)
	if err != nil {
		return failure(contractx.ToolScheduleFollowup, err)
	}

	updated, err := t.store.UpdateInteraction(ctx, id, storex.InteractionPatch{
		FollowUpDate: &parsed,
	})
	if err != nil {
		return failure(contractx.ToolScheduleFollowup, err)
	}
	return success(contractx.ToolScheduleFollowup, updated)
}

// MarkCompliant sets the compliance flag on the identified record.
func (t *Toolset) MarkCompliant(ctx context.Context, id string, compliant bool) contractx.ToolResult {
	updated, err := t.store.UpdateInteraction(ctx, id, storex.InteractionPatch{
		IsCompliant: &compliant,
	})
	if err != nil {
		return failure(contractx.ToolMarkCompliant, err)
	}
	return success(contractx.ToolMarkCompliant, updated)
}

func parseISODate(raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: cannot parse date %q", contractx.ErrValidation, raw)
}

func success(tool contractx.ToolName, data any) contractx.ToolResult {
	return contractx.ToolResult{Tool: tool, Success: true, Data: data}
}

func failure(tool contractx.ToolName, err error) contractx.ToolResult {
	return contractx.ToolResult{Tool: tool, Error: err.Error()}
}

func ptr[T any](v T) *T { return &v }

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
