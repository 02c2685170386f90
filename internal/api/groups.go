package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/d0ssh1/Auto-Aquarium/internal/monitor"
)

// handleListGroups returns the full group catalogue.
func (s *Server) handleListGroups(w http.ResponseWriter, _ *http.Request) {
	groups := s.registry.AllGroups()
	writeJSON(w, http.StatusOK, map[string]any{"groups": groups, "count": len(groups)})
}

// groupStatus summarizes one group's fleet health, derived from the
// Monitor's latest per-device snapshot.
type groupStatus struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Online  int    `json:"online"`
	Offline int    `json:"offline"`
	Unknown int    `json:"unknown"`
	Total   int    `json:"total"`
}

// handleGroupsStatus returns per-group online/offline/unknown tallies.
func (s *Server) handleGroupsStatus(w http.ResponseWriter, _ *http.Request) {
	var snapshot map[string]monitor.DeviceHealthState
	if s.monitor != nil {
		snapshot = s.monitor.Snapshot()
	}

	groups := s.registry.AllGroups()
	out := make([]groupStatus, 0, len(groups))
	for _, g := range groups {
		gs := groupStatus{ID: g.ID, Name: g.Name, Total: len(g.DeviceIDs)}
		for _, id := range g.DeviceIDs {
			state, ok := snapshot[id]
			switch {
			case !ok || state.CurrentStatus == monitor.StatusUnknown:
				gs.Unknown++
			case state.CurrentStatus == monitor.StatusOnline:
				gs.Online++
			default:
				gs.Offline++
			}
		}
		out = append(out, gs)
	}
	writeJSON(w, http.StatusOK, map[string]any{"groups": out})
}

// handleGroupOn turns every device in a group on.
func (s *Server) handleGroupOn(w http.ResponseWriter, r *http.Request) {
	s.runFanOut(w, r, "group:"+chi.URLParam(r, "id"), s.deviceMgr.TurnOn)
}

// handleGroupOff turns every device in a group off.
func (s *Server) handleGroupOff(w http.ResponseWriter, r *http.Request) {
	s.runFanOut(w, r, "group:"+chi.URLParam(r, "id"), s.deviceMgr.TurnOff)
}
