package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/d0ssh1/Auto-Aquarium/internal/actionlog"
	"github.com/d0ssh1/Auto-Aquarium/internal/auth"
	"github.com/d0ssh1/Auto-Aquarium/internal/device"
	"github.com/d0ssh1/Auto-Aquarium/internal/devicemgr"
	"github.com/d0ssh1/Auto-Aquarium/internal/infrastructure/config"
	"github.com/d0ssh1/Auto-Aquarium/internal/monitor"
	"github.com/d0ssh1/Auto-Aquarium/internal/report"
	"github.com/d0ssh1/Auto-Aquarium/internal/scheduler"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight
// requests to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Logger is the structured-logging capability the API server needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// DeviceManager is the subset of devicemgr.Manager the control surface
// drives for on/off/query requests.
type DeviceManager interface {
	TurnOn(ctx context.Context, target string) (*devicemgr.ExecutionReport, error)
	TurnOff(ctx context.Context, target string) (*devicemgr.ExecutionReport, error)
	Query(ctx context.Context, target string) (*devicemgr.ExecutionReport, error)
}

// Scheduler is the subset of scheduler.Scheduler the control surface
// exposes under /schedule.
type Scheduler interface {
	List() []*scheduler.ScheduledJob
	Create(ctx context.Context, job *scheduler.ScheduledJob) error
	Delete(ctx context.Context, jobID string) error
	SetEnabled(ctx context.Context, jobID string, enabled bool) error
	TriggerNow(ctx context.Context, jobID string) error
}

// ActionLogQuerier is the subset of actionlog.Sink the control surface
// reads for GET /logs and /logs/export.
type ActionLogQuerier interface {
	List(filter actionlog.Filter) (*actionlog.ListResult, error)
	Export(date string) ([]byte, error)
	SuccessRate() float64
}

// ReportQuerier is the subset of report.Store the control surface reads
// for GET /alerts.
type ReportQuerier interface {
	Read(date string) (*report.Day, error)
}

// ReportHistory is the subset of report.Mirror the control surface
// reads for GET /reports/executions.
type ReportHistory interface {
	ExecutionsByDate(ctx context.Context, date string) ([]report.ExecutionEntry, error)
}

// MonitorSnapshotter is the subset of monitor.Monitor the control
// surface reads for /groups/status.
type MonitorSnapshotter interface {
	Snapshot() map[string]monitor.DeviceHealthState
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config        config.ServerConfig
	WS            config.WebSocketConfig
	Security      config.SecurityConfig
	Logger        Logger
	Registry      *device.Registry
	DeviceMgr     DeviceManager
	Scheduler     Scheduler
	ActionLog     ActionLogQuerier
	ReportRead    ReportQuerier
	ReportHistory ReportHistory
	Monitor       MonitorSnapshotter
	Auth          *auth.Service
	ExternalHub   *Hub // if set, the server uses this hub instead of creating its own
	Version       string
}

// Server is the HTTP API server for the device-control engine.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg           config.ServerConfig
	wsCfg         config.WebSocketConfig
	secCfg        config.SecurityConfig
	logger        Logger
	registry      *device.Registry
	deviceMgr     DeviceManager
	scheduler     Scheduler
	actionLog     ActionLogQuerier
	reportRead    ReportQuerier
	reportHistory ReportHistory
	monitor       MonitorSnapshotter
	auth          *auth.Service
	version       string
	server        *http.Server
	hub           *Hub
	cancel        context.CancelFunc
}

// New creates a new API server with the given dependencies. The server
// is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("api: logger is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("api: device registry is required")
	}
	if deps.DeviceMgr == nil {
		return nil, fmt.Errorf("api: device manager is required")
	}
	if deps.Auth == nil {
		return nil, fmt.Errorf("api: auth service is required")
	}

	s := &Server{
		cfg:           deps.Config,
		wsCfg:         deps.WS,
		secCfg:        deps.Security,
		logger:        deps.Logger,
		registry:      deps.Registry,
		deviceMgr:     deps.DeviceMgr,
		scheduler:     deps.Scheduler,
		actionLog:     deps.ActionLog,
		reportRead:    deps.ReportRead,
		reportHistory: deps.ReportHistory,
		monitor:       deps.Monitor,
		auth:          deps.Auth,
		version:       deps.Version,
	}

	// Use externally-provided hub if available, so callers can wire its
	// Publisher into the Action Log Sink before the server itself exists.
	if deps.ExternalHub != nil {
		s.hub = deps.ExternalHub
	}

	return s, nil
}

// Start begins listening for HTTP connections. It sets up the router,
// starts the WebSocket hub, and launches the HTTP listener in a
// background goroutine. The server can be stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	if s.hub == nil {
		s.hub = NewHub(s.wsCfg, s.logger)
	}
	go s.hub.Run(srvCtx)

	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.WriteTimeout) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.IdleTimeoutSec) * time.Second,
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server, waiting up to
// gracefulShutdownTimeout for in-flight requests to complete.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("api server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("api: shutting down: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}
	if s.server == nil {
		return fmt.Errorf("api: server not started")
	}
	return nil
}
