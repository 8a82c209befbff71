package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleThreadHistory(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	thread := s.engine.History(docID)
	if thread == nil {
		jsonError(w, "no conversation for document", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(thread)
}

func (s *Server) handleHistorySearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		jsonError(w, "q is required", http.StatusBadRequest)
		return
	}
	docID := r.URL.Query().Get("doc_id")

	messages := s.engine.SearchHistory(query, docID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"query":   query,
		"count":   len(messages),
		"results": messages,
	})
}

func (s *Server) handleHistoryExport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="conversations.json"`)
	io.WriteString(w, s.engine.ExportHistory())
}

func (s *Server) handleHistoryImport(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 10<<20))
	if err != nil {
		jsonError(w, "failed to read body", http.StatusBadRequest)
		return
	}
	if !s.engine.ImportHistory(string(body)) {
		jsonError(w, "invalid history payload", http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"imported"}`))
}
