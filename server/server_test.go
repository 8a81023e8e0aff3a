package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	processorx "github.com/careloop/crm/agent/processor"
	storex "github.com/careloop/crm/agent/store"
	summaryx "github.com/careloop/crm/agent/summary"
	toolx "github.com/careloop/crm/agent/tool"
)

func newTestServer(t *testing.T, seed bool) *Server {
	t.Helper()

	db, err := storex.Open(":memory:")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	st := storex.NewBunStore(db)
	if seed {
		err = st.Init(context.Background())
	} else {
		err = st.CreateSchema(context.Background())
	}
	if err != nil {
		t.Fatalf("prepare database: %v", err)
	}

	tools := toolx.NewToolset(st)
	proc, err := processorx.New(tools, summaryx.NewDeterministic())
	if err != nil {
		t.Fatalf("build processor: %v", err)
	}

	cfg := Config{
		Addr:           ":0",
		RequestTimeout: time.Minute,
		AllowedOrigin:  "*",
	}
	return New(cfg, proc, tools, st)
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, decoded
}

func TestHealth(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, false)
	rec, body := doJSON(t, srv, http.MethodGet, "/health", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if body["status"] != "healthy" || body["database"] != "connected" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestLogInteractionRequiresMode(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, false)
	rec, _ := doJSON(t, srv, http.MethodPost, "/log-interaction", map[string]any{
		"notes": "fever",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestLogInteractionChatRequiresNotes(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, false)
	rec, _ := doJSON(t, srv, http.MethodPost, "/log-interaction", map[string]any{
		"mode": "chat",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestLogInteractionChat(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, false)
	rec, body := doJSON(t, srv, http.MethodPost, "/log-interaction", map[string]any{
		"mode":  "chat",
		"notes": "Patient reports fever and cough for 3 days.",
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%v", rec.Code, body)
	}
	if body["success"] != true {
		t.Fatalf("unexpected envelope: %v", body)
	}
	if body["tool_used"] != "log_interaction" {
		t.Fatalf("unexpected tool: %v", body["tool_used"])
	}
	insights, ok := body["ai_insights"].(map[string]any)
	if !ok {
		t.Fatalf("missing insights: %v", body)
	}
	if insights["is_real_ai"] != false {
		t.Fatalf("deterministic summarizer must not claim a real model: %v", insights)
	}
}

func TestLatestInteractionEmpty(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, false)
	rec, _ := doJSON(t, srv, http.MethodGet, "/interactions/latest", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestGetInteractionNotFound(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, false)
	rec, _ := doJSON(t, srv, http.MethodGet, "/interactions/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestEditInteractionFlow(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, false)

	_, logged := doJSON(t, srv, http.MethodPost, "/log-interaction", map[string]any{
		"mode":  "chat",
		"notes": "fever",
	})
	toolResult, ok := logged["tool_result"].(map[string]any)
	if !ok {
		t.Fatalf("missing tool result: %v", logged)
	}
	data, ok := toolResult["data"].(map[string]any)
	if !ok {
		t.Fatalf("missing tool data: %v", toolResult)
	}
	id, ok := data["interaction_id"].(string)
	if !ok || id == "" {
		t.Fatalf("missing interaction id: %v", data)
	}

	rec, body := doJSON(t, srv, http.MethodPatch, "/interactions/"+id, map[string]any{
		"diagnosis": "Viral infection",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%v", rec.Code, body)
	}

	rec, fetched := doJSON(t, srv, http.MethodGet, "/interactions/"+id, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if fetched["diagnosis"] != "Viral infection" {
		t.Fatalf("edit not persisted: %v", fetched)
	}
}

func TestEditInteractionUnknownID(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, false)
	rec, _ := doJSON(t, srv, http.MethodPatch, "/interactions/missing", map[string]any{
		"diagnosis": "X",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestScheduleFollowupBadDate(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, false)

	_, logged := doJSON(t, srv, http.MethodPost, "/log-interaction", map[string]any{
		"mode":  "chat",
		"notes": "fever",
	})
	data := logged["tool_result"].(map[string]any)["data"].(map[string]any)
	id := data["interaction_id"].(string)

	rec, _ := doJSON(t, srv, http.MethodPost, "/interactions/"+id+"/follow-up", map[string]any{
		"follow_up_date": "next tuesday",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestListInteractionsSeeded(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, true)
	rec, body := doJSON(t, srv, http.MethodGet, "/interactions", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if body["count"] != float64(2) {
		t.Fatalf("unexpected count: %v", body["count"])
	}
}

func TestFetchProvidersSeeded(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, true)
	rec, body := doJSON(t, srv, http.MethodGet, "/hcps?specialization=Cardiology", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	hcps, ok := body["hcps"].(map[string]any)
	if !ok {
		t.Fatalf("unexpected body: %v", body)
	}
	if hcps["count"] != float64(3) {
		t.Fatalf("unexpected provider count: %v", hcps["count"])
	}
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, false)
	req := httptest.NewRequest(http.MethodOptions, "/log-interaction", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing CORS header: %v", rec.Header())
	}
}
