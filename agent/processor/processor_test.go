package processor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	contractx "github.com/careloop/crm/agent/contract"
	storex "github.com/careloop/crm/agent/store"
	summaryx "github.com/careloop/crm/agent/summary"
	toolx "github.com/careloop/crm/agent/tool"
)

type fakeGateway struct {
	result contractx.ToolResult
	err    error
	panics bool

	lastTool  contractx.ToolName
	lastInput contractx.InteractionInput
}

func (f *fakeGateway) Execute(_ context.Context, tool contractx.ToolName, in contractx.InteractionInput) (contractx.ToolResult, error) {
	if f.panics {
		panic("gateway exploded")
	}
	f.lastTool = tool
	f.lastInput = in
	return f.result, f.err
}

type fakeSummarizer struct {
	bundle contractx.InsightBundle
	calls  int
}

func (f *fakeSummarizer) Summarize(_ context.Context, _ contractx.InteractionInput, _ contractx.ToolResult) contractx.InsightBundle {
	f.calls++
	return f.bundle
}

func TestNewRequiresDependencies(t *testing.T) {
	t.Parallel()

	if _, err := New(nil, &fakeSummarizer{}); err == nil {
		t.Fatal("expected error for nil gateway")
	}
	if _, err := New(&fakeGateway{}, nil); err == nil {
		t.Fatal("expected error for nil summarizer")
	}
}

func TestProcessInteractionSuccess(t *testing.T) {
	t.Parallel()

	gateway := &fakeGateway{
		result: contractx.ToolResult{Tool: contractx.ToolLogInteraction, Success: true, Data: "ok"},
	}
	summarizer := &fakeSummarizer{
		bundle: contractx.InsightBundle{Summary: "done", ConfidenceScore: 0.9},
	}

	p, err := New(gateway, summarizer)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return base }

	in := contractx.InteractionInput{Mode: "chat", Notes: "fever"}
	result := p.ProcessInteraction(context.Background(), in)

	if !result.Success {
		t.Fatalf("unexpected failure: %+v", result)
	}
	if result.ToolUsed != contractx.ToolLogInteraction {
		t.Fatalf("unexpected tool: %s", result.ToolUsed)
	}
	if result.AIInsights == nil || result.AIInsights.Summary != "done" {
		t.Fatalf("unexpected insights: %+v", result.AIInsights)
	}
	if result.ProcessedAt == nil || !result.ProcessedAt.Equal(base) {
		t.Fatalf("unexpected processed time: %v", result.ProcessedAt)
	}
	if gateway.lastInput.Notes != "fever" {
		t.Fatalf("input not forwarded to gateway: %+v", gateway.lastInput)
	}
	if summarizer.calls != 1 {
		t.Fatalf("summarizer calls = %d", summarizer.calls)
	}
}

func TestProcessInteractionToolFailureSkipsSummarizer(t *testing.T) {
	t.Parallel()

	gateway := &fakeGateway{
		result: contractx.ToolResult{Tool: contractx.ToolLogInteraction, Success: false, Error: "storage operation failed: disk full"},
	}
	summarizer := &fakeSummarizer{}

	p, err := New(gateway, summarizer)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	result := p.ProcessInteraction(context.Background(), contractx.InteractionInput{Mode: "form"})

	if result.Success {
		t.Fatal("expected failure envelope")
	}
	if result.Message != "storage operation failed: disk full" {
		t.Fatalf("unexpected message: %q", result.Message)
	}
	if result.AIInsights != nil {
		t.Fatalf("insights must be absent on tool failure, got %+v", result.AIInsights)
	}
	if summarizer.calls != 0 {
		t.Fatalf("summarizer must not run on tool failure, calls = %d", summarizer.calls)
	}
	if result.ToolResult == nil || result.ToolResult.Error == "" {
		t.Fatalf("tool result must be carried: %+v", result.ToolResult)
	}
}

func TestProcessInteractionGatewayError(t *testing.T) {
	t.Parallel()

	gateway := &fakeGateway{err: errors.New("wiring broken")}
	p, err := New(gateway, &fakeSummarizer{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	result := p.ProcessInteraction(context.Background(), contractx.InteractionInput{Mode: "chat", Notes: "x"})

	if result.Success {
		t.Fatal("expected failure envelope")
	}
	if result.Message != "Internal server error" {
		t.Fatalf("unexpected message: %q", result.Message)
	}
	if !strings.Contains(result.Error, "wiring broken") {
		t.Fatalf("error detail lost: %q", result.Error)
	}
}

func TestProcessInteractionRecoversPanic(t *testing.T) {
	t.Parallel()

	p, err := New(&fakeGateway{panics: true}, &fakeSummarizer{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	result := p.ProcessInteraction(context.Background(), contractx.InteractionInput{Mode: "chat", Notes: "x"})

	if result.Success {
		t.Fatal("expected failure envelope")
	}
	if result.Message != "Internal server error" {
		t.Fatalf("unexpected message: %q", result.Message)
	}
	if !strings.Contains(result.Error, "gateway exploded") {
		t.Fatalf("panic detail lost: %q", result.Error)
	}
}

func TestProcessInteractionEndToEnd(t *testing.T) {
	t.Parallel()

	db, err := storex.Open(":memory:")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	st := storex.NewBunStore(db)
	if err := st.CreateSchema(context.Background()); err != nil {
		t.Fatalf("create schema: %v", err)
	}

	p, err := New(toolx.NewToolset(st), summaryx.NewDeterministic())
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	result := p.ProcessInteraction(context.Background(), contractx.InteractionInput{
		Mode:  "chat",
		Notes: "fever",
	})

	if !result.Success {
		t.Fatalf("unexpected failure: %+v", result)
	}
	if result.ToolUsed != contractx.ToolLogInteraction {
		t.Fatalf("unexpected tool: %s", result.ToolUsed)
	}
	if result.AIInsights == nil || len(result.AIInsights.Insights) != 3 {
		t.Fatalf("unexpected insights: %+v", result.AIInsights)
	}

	recs, err := st.ListInteractions(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected one persisted interaction, got %d", len(recs))
	}
}
