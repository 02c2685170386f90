package api

import (
	"net/http"
	"time"
)

// handleListAlerts returns one calendar day's fleet alerts from the
// Report Store, defaulting to today (UTC) when no date
// query parameter is given.
func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	if s.reportRead == nil {
		writeJSON(w, http.StatusOK, map[string]any{"alerts": []any{}})
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	}

	day, err := s.reportRead.Read(date)
	if err != nil {
		writeInternalError(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"date": date, "alerts": day.Alerts})
}
