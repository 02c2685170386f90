package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/d0ssh1/Auto-Aquarium/internal/monitor"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Unauthenticated: health check and login.
	r.Get("/health", s.handleHealth)
	r.Post("/auth/login", s.handleLogin)

	// Read-only routes require no auth: operators and automation
	// scripts alike can poll status without a token.
	r.Get("/devices", s.handleListDevices)
	r.Get("/groups", s.handleListGroups)
	r.Get("/groups/status", s.handleGroupsStatus)
	r.Get("/schedule", s.handleListSchedule)
	r.Get("/logs", s.handleListLogs)
	r.Get("/logs/export", s.handleExportLogs)
	r.Get("/alerts", s.handleListAlerts)
	r.Get("/reports/executions", s.handleListExecutionHistory)
	r.Get("/events", s.handleEvents)

	// Mutating routes require a bearer token.
	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Post("/devices/{id}/on", s.handleDeviceOn)
		r.Post("/devices/{id}/off", s.handleDeviceOff)
		r.Post("/devices/all/on", s.handleAllOn)
		r.Post("/devices/all/off", s.handleAllOff)

		r.Post("/groups/{id}/on", s.handleGroupOn)
		r.Post("/groups/{id}/off", s.handleGroupOff)

		r.Post("/schedule", s.handleCreateSchedule)
		r.Delete("/schedule/{job_id}", s.handleDeleteSchedule)
		r.Post("/schedule/{job_id}/trigger", s.handleTriggerSchedule)
	})

	return r
}

// handleHealth returns the server health status, along with a
// fleet-level summary: device count, how many are currently reachable,
// the rolling action success rate, and scheduler_running, which is true
// whenever a Scheduler is wired into the server; it does not track
// whether that Scheduler's fire loop has been started or has stopped.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	devices := s.registry.All()

	onlineCount := 0
	if s.monitor != nil {
		snap := s.monitor.Snapshot()
		for _, d := range devices {
			if st, ok := snap[d.ID]; ok && st.CurrentStatus == monitor.StatusOnline {
				onlineCount++
			}
		}
	}

	successRate := 0.0
	if s.actionLog != nil {
		successRate = s.actionLog.SuccessRate()
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "ok",
		"version":           s.version,
		"devices_total":     len(devices),
		"devices_online":    onlineCount,
		"success_rate":      successRate,
		"scheduler_running": s.scheduler != nil,
	})
}
