package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/d0ssh1/Auto-Aquarium/internal/devicemgr"
)

// handleListDevices returns the full device catalogue.
func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	devices := s.registry.All()
	writeJSON(w, http.StatusOK, map[string]any{"devices": devices, "count": len(devices)})
}

// handleDeviceOn turns a single device on.
func (s *Server) handleDeviceOn(w http.ResponseWriter, r *http.Request) {
	s.runFanOut(w, r, "device:"+chi.URLParam(r, "id"), s.deviceMgr.TurnOn)
}

// handleDeviceOff turns a single device off.
func (s *Server) handleDeviceOff(w http.ResponseWriter, r *http.Request) {
	s.runFanOut(w, r, "device:"+chi.URLParam(r, "id"), s.deviceMgr.TurnOff)
}

// handleAllOn turns every device in the fleet on.
func (s *Server) handleAllOn(w http.ResponseWriter, r *http.Request) {
	s.runFanOut(w, r, "all", s.deviceMgr.TurnOn)
}

// handleAllOff turns every device in the fleet off.
func (s *Server) handleAllOff(w http.ResponseWriter, r *http.Request) {
	s.runFanOut(w, r, "all", s.deviceMgr.TurnOff)
}

// fanOutCall is TurnOn or TurnOff from the DeviceManager interface.
type fanOutCall func(ctx context.Context, target string) (*devicemgr.ExecutionReport, error)

// runFanOut resolves a target string into a bounded-parallel fan-out
// via call and writes the resulting ExecutionReport as the response.
// An unresolvable target (bad device/group id) is a ValidationError
// (400); admission rejected under backpressure is a BusyError (503);
// every other failure is a 500, since the fan-out itself never fails
// per-device — per-device outcomes live inside the report.
func (s *Server) runFanOut(w http.ResponseWriter, r *http.Request, target string, call fanOutCall) {
	report, err := call(r.Context(), target)
	if err != nil {
		switch {
		case errors.Is(err, devicemgr.ErrUnresolvedTarget):
			writeBadRequest(w, err.Error())
		case errors.Is(err, devicemgr.ErrBusy):
			writeBusy(w, err.Error())
		default:
			writeInternalError(w, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, report)
}
