package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	contractx "github.com/careloop/crm/agent/contract"
	toolx "github.com/careloop/crm/agent/tool"
	metricsx "github.com/careloop/crm/pkg/metrics"
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Welcome to Healthcare CRM API",
		"version": apiVersion,
		"endpoints": map[string]string{
			"POST /log-interaction": "Log patient interaction",
			"GET /health":           "Health check",
			"GET /interactions":     "Get all interactions",
			"GET /hcps":             "Get healthcare professionals",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	database := "connected"
	if _, err := s.store.ListProviders(r.Context()); err != nil {
		database = "unavailable"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   apiVersion,
		"database":  database,
	})
}

func (s *Server) handleLogInteraction(w http.ResponseWriter, r *http.Request) {
	var in contractx.InteractionInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(in.Mode) == "" {
		writeError(w, http.StatusBadRequest, "mode is required")
		return
	}
	if in.IsChat() && strings.TrimSpace(in.Notes) == "" {
		writeError(w, http.StatusBadRequest, "chat notes are required for chat mode")
		return
	}

	result := s.processor.ProcessInteraction(r.Context(), in)
	if !result.Success {
		writeJSON(w, http.StatusInternalServerError, result)
		return
	}

	metricsx.RecordInteractionLogged(in.Mode)
	if result.AIInsights != nil {
		metricsx.RecordSummaryGenerated(result.AIInsights.IsRealAI)
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleListInteractions(w http.ResponseWriter, r *http.Request) {
	recs, err := s.store.ListInteractions(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch interactions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"count":        len(recs),
		"interactions": recs,
		"retrieved_at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleLatestInteraction(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.LatestInteraction(r.Context())
	if err != nil {
		if errors.Is(err, contractx.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no interactions recorded yet")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch interaction")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleGetInteraction(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.InteractionByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, contractx.ErrNotFound) {
			writeError(w, http.StatusNotFound, "interaction not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch interaction")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleEditInteraction(w http.ResponseWriter, r *http.Request) {
	var req toolx.EditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	writeToolResult(w, s.tools.EditInteraction(r.Context(), chi.URLParam(r, "id"), req))
}

func (s *Server) handleScheduleFollowup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FollowUpDate string `json:"follow_up_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	writeToolResult(w, s.tools.ScheduleFollowup(r.Context(), chi.URLParam(r, "id"), req.FollowUpDate))
}

func (s *Server) handleMarkCompliant(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IsCompliant bool `json:"is_compliant"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	writeToolResult(w, s.tools.MarkCompliant(r.Context(), chi.URLParam(r, "id"), req.IsCompliant))
}

func (s *Server) handleFetchProviders(w http.ResponseWriter, r *http.Request) {
	query := make(map[string]any, len(r.URL.Query()))
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			query[k] = v[0]
		}
	}

	result := s.tools.FetchProviders(r.Context(), query)
	if !result.Success {
		writeError(w, http.StatusInternalServerError, result.Error)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"hcps":         result.Data,
		"retrieved_at": time.Now().UTC().Format(time.RFC3339),
	})
}

// writeToolResult maps a tool outcome onto an HTTP status using the error
// kind embedded in the failure message.
func writeToolResult(w http.ResponseWriter, result contractx.ToolResult) {
	if result.Success {
		writeJSON(w, http.StatusOK, result)
		return
	}

	status := http.StatusInternalServerError
	switch {
	case strings.Contains(result.Error, contractx.ErrNotFound.Error()):
		status = http.StatusNotFound
	case strings.Contains(result.Error, contractx.ErrValidation.Error()):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, result)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"message": message,
	})
}
