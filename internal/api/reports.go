package api

import (
	"net/http"
	"time"
)

// handleListExecutionHistory returns one calendar day's scheduled-job
// executions from the Report Store's SQLite mirror, a fast indexed
// path over report_executions rather than re-parsing that day's NDJSON
// file.
func (s *Server) handleListExecutionHistory(w http.ResponseWriter, r *http.Request) {
	if s.reportHistory == nil {
		writeJSON(w, http.StatusOK, map[string]any{"executions": []any{}})
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	}

	executions, err := s.reportHistory.ExecutionsByDate(r.Context(), date)
	if err != nil {
		writeInternalError(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"date": date, "executions": executions})
}
