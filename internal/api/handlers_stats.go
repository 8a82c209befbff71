package api

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	if s.primary == nil || s.primaryStats == nil {
		jsonError(w, "llm stats unavailable", http.StatusServiceUnavailable)
		return
	}

	resp := map[string]any{
		"model": s.primary.Model(),
		"stats": s.primaryStats.Snapshot(),
	}
	if s.backup != nil && s.backupStats != nil {
		resp["backup_model"] = s.backup.Model()
		resp["backup_stats"] = s.backupStats.Snapshot()
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
