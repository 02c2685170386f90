// Auto-Aquarium is a device-control engine for networked AV equipment:
// power control and fleet health monitoring over telnet, JSON-RPC,
// Wake-on-LAN, and raw TCP protocols.
//
// For architecture details, see DESIGN.md.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/d0ssh1/Auto-Aquarium/migrations"

	"github.com/d0ssh1/Auto-Aquarium/internal/actionlog"
	"github.com/d0ssh1/Auto-Aquarium/internal/api"
	"github.com/d0ssh1/Auto-Aquarium/internal/auth"
	"github.com/d0ssh1/Auto-Aquarium/internal/device"
	"github.com/d0ssh1/Auto-Aquarium/internal/devicemgr"
	"github.com/d0ssh1/Auto-Aquarium/internal/health"
	"github.com/d0ssh1/Auto-Aquarium/internal/infrastructure/config"
	"github.com/d0ssh1/Auto-Aquarium/internal/infrastructure/database"
	"github.com/d0ssh1/Auto-Aquarium/internal/infrastructure/influxdb"
	"github.com/d0ssh1/Auto-Aquarium/internal/infrastructure/logging"
	"github.com/d0ssh1/Auto-Aquarium/internal/infrastructure/mqtt"
	"github.com/d0ssh1/Auto-Aquarium/internal/monitor"
	"github.com/d0ssh1/Auto-Aquarium/internal/report"
	"github.com/d0ssh1/Auto-Aquarium/internal/retry"
	"github.com/d0ssh1/Auto-Aquarium/internal/scheduler"

	"golang.org/x/sync/semaphore"
)

// Version information, set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const defaultConfigPath = "configs/config.yaml"

// Startup failures that main maps to a dedicated exit code.
var (
	errConfig        = errors.New("invalid configuration")
	errScheduleStore = errors.New("schedule store unreadable")
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		switch {
		case errors.Is(err, errConfig):
			os.Exit(2)
		case errors.Is(err, errScheduleStore):
			os.Exit(3)
		}
		os.Exit(1)
	}
}

// run is the application's startup, serve, and shutdown sequence,
// separated from main for testability. Returning an error lets main
// handle the process exit code consistently.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting avengine", "version", version, "commit", commit, "build_date", date)

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w: %w", errConfig, err)
	}
	log.Info("configuration loaded")

	log = logging.New(cfg.Logging, version)

	db, err := database.Open(database.Config{
		Path:        cfg.ScheduleDBPath,
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w: %w", errScheduleStore, err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.ScheduleDBPath)

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database migrations complete")

	registry := device.NewRegistry()
	registry.SetLogger(log)
	devices, groups := device.FromConfig(cfg.Devices, cfg.Groups)
	if err := registry.Load(devices, groups); err != nil {
		return fmt.Errorf("loading device registry: %w", err)
	}
	log.Info("device registry loaded", "devices", len(devices), "groups", len(groups))

	deviceRepo := device.NewSQLiteRepository(db.DB)
	if err := deviceRepo.ReplaceAll(ctx, devices, groups); err != nil {
		log.Warn("device catalogue mirror failed", "error", err)
	}

	actionLog, err := actionlog.New(cfg.LogDir, log)
	if err != nil {
		return fmt.Errorf("opening action log: %w", err)
	}
	defer func() {
		if closeErr := actionLog.Close(); closeErr != nil {
			log.Error("error closing action log", "error", closeErr)
		}
	}()

	reportStore, err := report.New(cfg.ReportDir, log)
	if err != nil {
		return fmt.Errorf("opening report store: %w", err)
	}
	reportMirror := report.NewMirror(db.DB)
	if err := reportMirror.Rebuild(ctx, cfg.ReportDir); err != nil {
		log.Warn("report mirror rebuild failed", "error", err)
	}

	hub := api.NewHub(cfg.WebSocket, log)
	publishers := actionlog.MultiPublisher{api.NewHubPublisher(hub)}

	if cfg.MQTT.Enabled {
		mqttClient, err := mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		mqttClient.SetLogger(log)
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected", "broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port))
		publishers = append(publishers, mqtt.NewActionPublisher(mqttClient))
	}
	actionLog.SetPublisher(publishers)

	var metricsSink *influxdb.Client
	if cfg.InfluxDB.Enabled {
		metricsSink, err = influxdb.Connect(ctx, cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to metrics sink: %w", err)
		}
		metricsSink.SetOnError(func(err error) {
			log.Warn("metrics sink write error", "error", err)
		})
		defer func() {
			if closeErr := metricsSink.Close(); closeErr != nil {
				log.Error("error closing metrics sink", "error", closeErr)
			}
		}()
		log.Info("metrics sink connected", "url", cfg.InfluxDB.URL)
	}

	sem := semaphore.NewWeighted(int64(cfg.MaxConcurrency))
	policy := retry.Policy{
		MaxAttempts:          cfg.Retry.MaxAttempts,
		BaseIntervalSec:      float64(cfg.Retry.BaseIntervalSec),
		BackoffMultiplier:    cfg.Retry.BackoffMultiplier,
		PerAttemptTimeoutSec: float64(cfg.Retry.PerAttemptTimeoutSec),
	}

	deviceMgr := devicemgr.New(registry, sem, policy, actionLog, log)

	prober := health.New()
	mon := monitor.New(registry, prober, sem, actionLog, log)
	mon.SetReportStore(reportStore)
	if metricsSink != nil {
		mon.SetMetricsSink(metricsSink)
	}
	if cfg.MonitorIntervalSec > 0 {
		mon.WithInterval(time.Duration(cfg.MonitorIntervalSec) * time.Second)
	}
	mon.Start(ctx)
	defer mon.Stop()
	log.Info("monitor started", "interval_sec", cfg.MonitorIntervalSec)

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Warn("unknown timezone, falling back to UTC", "timezone", cfg.Timezone, "error", err)
		loc = time.UTC
	}
	schedRepo := scheduler.NewSQLiteRepository(db.DB)
	sched := scheduler.New(schedRepo, deviceMgr, loc, log)
	sched.SetExecutionRecorder(reportStore)
	sched.SetActionLogSink(actionLog)
	if err := sched.Load(ctx); err != nil {
		return fmt.Errorf("loading schedule store: %w: %w", errScheduleStore, err)
	}
	sched.Start(ctx)
	defer sched.Stop()
	log.Info("scheduler started", "timezone", cfg.Timezone)

	authRepo := auth.NewSQLiteRepository(db.DB)
	authSvc := auth.NewService(authRepo, cfg.Security.JWTSecret, time.Duration(cfg.Security.AccessTokenTTLMin)*time.Minute)
	if err := bootstrapAdmin(ctx, authSvc, authRepo, cfg.Security, log); err != nil {
		return fmt.Errorf("bootstrapping admin operator: %w", err)
	}

	apiServer, err := api.New(api.Deps{
		Config:        cfg.Server,
		WS:            cfg.WebSocket,
		Security:      cfg.Security,
		Logger:        log,
		Registry:      registry,
		DeviceMgr:     deviceMgr,
		Scheduler:     sched,
		ActionLog:     actionLog,
		ReportRead:    reportStore,
		ReportHistory: reportMirror,
		Monitor:       mon,
		Auth:          authSvc,
		ExternalHub:   hub,
		Version:       version,
	})
	if err != nil {
		return fmt.Errorf("creating api server: %w", err)
	}
	if err := apiServer.Start(ctx); err != nil {
		return fmt.Errorf("starting api server: %w", err)
	}
	defer func() {
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing api server", "error", closeErr)
		}
	}()
	log.Info("api server listening", "host", cfg.Server.Host, "port", cfg.Server.Port)

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	return nil
}

// getConfigPath returns the configuration file path, using the
// AVENGINE_CONFIG environment variable if set.
func getConfigPath() string {
	if path := os.Getenv("AVENGINE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// bootstrapAdmin seeds the configured admin account when no operator
// with the bootstrap username exists, detected via GetByUsername
// returning ErrOperatorNotFound. Other operator accounts are not
// counted, so the account is seeded even when the table already holds
// operators under other names; an account that already exists under
// the bootstrap name is never touched.
func bootstrapAdmin(ctx context.Context, authSvc *auth.Service, repo auth.Repository, cfg config.SecurityConfig, log *logging.Logger) error {
	if cfg.BootstrapAdminUsername == "" {
		return nil
	}

	_, err := repo.GetByUsername(ctx, cfg.BootstrapAdminUsername)
	if err == nil {
		return nil
	}
	if !errors.Is(err, auth.ErrOperatorNotFound) {
		return err
	}

	if _, err := authSvc.CreateOperator(ctx, cfg.BootstrapAdminUsername, cfg.BootstrapAdminPassword, auth.RoleAdmin); err != nil {
		return err
	}
	log.Info("bootstrap admin operator created", "username", cfg.BootstrapAdminUsername)
	return nil
}
