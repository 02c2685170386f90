package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/d0ssh1/Auto-Aquarium/internal/devicemgr"
	"github.com/d0ssh1/Auto-Aquarium/internal/scheduler"
)

// handleListSchedule returns every scheduled job.
func (s *Server) handleListSchedule(w http.ResponseWriter, _ *http.Request) {
	jobs := s.scheduler.List()
	writeJSON(w, http.StatusOK, map[string]any{"jobs": jobs, "count": len(jobs)})
}

// createScheduleRequest is the request body for POST /schedule.
type createScheduleRequest struct {
	CronExpr string           `json:"cron_expr"`
	Action   devicemgr.Action `json:"action"`
	Target   string           `json:"target"`
	Enabled  *bool            `json:"enabled,omitempty"`
}

// handleCreateSchedule creates a new scheduled job.
func (s *Server) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req createScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.CronExpr == "" || req.Target == "" {
		writeBadRequest(w, "cron_expr and target are required")
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	job := &scheduler.ScheduledJob{
		ID:       uuid.NewString(),
		CronExpr: req.CronExpr,
		Action:   req.Action,
		Target:   req.Target,
		Enabled:  enabled,
	}

	if err := s.scheduler.Create(r.Context(), job); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, job)
}

// handleDeleteSchedule removes a scheduled job.
func (s *Server) handleDeleteSchedule(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	if err := s.scheduler.Delete(r.Context(), jobID); err != nil {
		if errors.Is(err, scheduler.ErrJobNotFound) {
			writeNotFound(w, "job not found")
			return
		}
		writeInternalError(w, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleTriggerSchedule fires a scheduled job immediately, out of band.
func (s *Server) handleTriggerSchedule(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	if err := s.scheduler.TriggerNow(r.Context(), jobID); err != nil {
		if errors.Is(err, scheduler.ErrJobNotFound) {
			writeNotFound(w, "job not found")
			return
		}
		writeInternalError(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"triggered": jobID})
}
