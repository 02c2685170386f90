package api

import (
	"net/http"
	"strconv"

	"github.com/d0ssh1/Auto-Aquarium/internal/actionlog"
)

// handleListLogs returns a paginated page of one calendar day's Action
// Log, filtered by optional level and selected via date/page.
func (s *Server) handleListLogs(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		writeBadRequest(w, "date query parameter is required (YYYY-MM-DD)")
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	result, err := s.actionLog.List(actionlog.Filter{
		Date:  date,
		Level: r.URL.Query().Get("level"),
		Page:  page,
	})
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleExportLogs returns the raw newline-delimited JSON content of
// one calendar day's Action Log.
func (s *Server) handleExportLogs(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		writeBadRequest(w, "date query parameter is required (YYYY-MM-DD)")
		return
	}

	data, err := s.actionLog.Export(date)
	if err != nil {
		writeInternalError(w, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Content-Disposition", `attachment; filename="actions-`+date+`.log"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
