package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dgallion1/docquery/internal/qa"
	"github.com/go-chi/chi/v5"
)

type askRequest struct {
	Question    string `json:"question"`
	UseAIBackup bool   `json:"useAiBackup"`
}

func (s *Server) handleAskQuestion(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		jsonError(w, "question is required", http.StatusBadRequest)
		return
	}

	result, err := s.engine.Ask(r.Context(), docID, req.Question, req.UseAIBackup)
	if err != nil {
		if errors.Is(err, qa.ErrDocumentNotReady) {
			jsonError(w, err.Error(), http.StatusConflict)
			return
		}
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// Provider failures never reach here as errors: the answer text carries
	// the user-facing explanation, so the response is always 200.
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}
