package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/d0ssh1/Auto-Aquarium/internal/device"
	"github.com/d0ssh1/Auto-Aquarium/internal/health"
)

// defaultInterval is the default monitor cycle period.
const defaultInterval = 60 * time.Second

// offlineThresholdFailures is the debounce count: a device only flips
// ONLINE→OFFLINE after this many consecutive failed probes.
const offlineThresholdFailures = 2

// Logger is the structured-logging capability the Monitor needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry is the subset of device.Registry the Monitor needs.
type Registry interface {
	All() []*device.Device
}

// Prober is satisfied by health.Prober; a seam so tests can substitute
// a fake without opening real sockets.
type Prober interface {
	Probe(ctx context.Context, d *device.Device) health.Result
}

// ActionLog receives fleet alerts as PROBE records.
type ActionLog interface {
	AppendAlert(level, message string, at time.Time) error
}

// ReportStore receives both per-cycle samples and alert events for the
// durable per-day summary file. Satisfied by
// internal/report.Store.
type ReportStore interface {
	AppendSample(sample CycleSample) error
	AppendAlert(event AlertEvent) error
}

// MetricsSink is the optional time-series fan-out for dashboard
// wiring. A nil MetricsSink disables it.
type MetricsSink interface {
	EmitGauge(name string, value float64, tags map[string]string)
}

type noopReportStore struct{}

func (noopReportStore) AppendSample(CycleSample) error { return nil }
func (noopReportStore) AppendAlert(AlertEvent) error   { return nil }

// Monitor is the fleet health monitor. One Monitor is owned by the
// process Engine; DeviceHealthState is exclusively Monitor-owned,
// exposed to other components only via Snapshot's copy-on-publish map.
type Monitor struct {
	registry    Registry
	prober      Prober
	sem         *semaphore.Weighted
	actionLog   ActionLog
	reportStore ReportStore
	metrics     MetricsSink
	logger      Logger
	interval    time.Duration

	mu     sync.Mutex
	states map[string]*DeviceHealthState

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New builds a Monitor. sem is the same semaphore instance shared with
// the Device Manager so probes and adapter calls obey one global
// concurrency cap.
func New(registry Registry, prober Prober, sem *semaphore.Weighted, actionLog ActionLog, logger Logger) *Monitor {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Monitor{
		registry:    registry,
		prober:      prober,
		sem:         sem,
		actionLog:   actionLog,
		reportStore: noopReportStore{},
		logger:      logger,
		interval:    defaultInterval,
		states:      make(map[string]*DeviceHealthState),
		stopCh:      make(chan struct{}),
	}
}

// WithInterval overrides the default 60s cycle period; intended for
// tests and config.monitor_interval_sec.
func (m *Monitor) WithInterval(d time.Duration) *Monitor {
	if d > 0 {
		m.interval = d
	}
	return m
}

// SetReportStore wires the durable per-day summary writer.
func (m *Monitor) SetReportStore(rs ReportStore) {
	if rs != nil {
		m.reportStore = rs
	}
}

// SetMetricsSink wires the optional time-series dashboard fan-out.
func (m *Monitor) SetMetricsSink(sink MetricsSink) { m.metrics = sink }

// Start launches the probe cycle loop in its own goroutine and returns
// immediately. The loop runs until ctx is cancelled or Stop is called.
func (m *Monitor) Start(ctx context.Context) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-m.stopCh:
				return
			case <-ticker.C:
				m.RunCycle(ctx)
			}
		}
	}()
}

// Stop signals Start's loop to exit and waits for it to return.
func (m *Monitor) Stop() {
	close(m.stopCh)
	m.wg.Wait()
}

// RunCycle probes every device in the registry once, updates
// DeviceHealthState under the debounce rule, and emits at most one
// fleet alert at the highest level triggered this cycle. It is
// exported so a caller, such as a test, can drive a cycle
// synchronously; the control surface has no route that calls it.
func (m *Monitor) RunCycle(ctx context.Context) {
	devices := m.registry.All()
	if len(devices) == 0 {
		return
	}

	type outcome struct {
		deviceID   string
		result     health.Result
		transition transition
	}

	results := make(chan outcome, len(devices))
	var wg sync.WaitGroup
	for _, d := range devices {
		wg.Add(1)
		go func(d *device.Device) {
			defer wg.Done()
			if err := m.sem.Acquire(ctx, 1); err != nil {
				return
			}
			result := m.prober.Probe(ctx, d)
			m.sem.Release(1)
			results <- outcome{deviceID: d.ID, result: result, transition: m.apply(d.ID, result)}
		}(d)
	}
	wg.Wait()
	close(results)

	now := time.Now().UTC()
	online, offline, recovered, newlyOffline := 0, 0, 0, 0
	for o := range results {
		switch o.transition {
		case transitionRecovered:
			recovered++
		case transitionWentOffline:
			newlyOffline++
		}
	}

	m.mu.Lock()
	for _, s := range m.states {
		if s.CurrentStatus == StatusOnline {
			online++
		} else if s.CurrentStatus == StatusOffline {
			offline++
		}
	}
	m.mu.Unlock()

	total := len(devices)
	sample := CycleSample{At: now, Online: online, Offline: offline, Total: total}
	if err := m.reportStore.AppendSample(sample); err != nil {
		m.logger.Warn("report store sample append failed", "error", err)
	}
	if m.metrics != nil {
		m.metrics.EmitGauge("monitor.devices.online", float64(online), nil)
		m.metrics.EmitGauge("monitor.devices.offline", float64(offline), nil)
	}

	alert := m.deriveAlert(now, online, offline, total, recovered, newlyOffline)
	if alert == nil {
		return
	}

	if err := m.reportStore.AppendAlert(*alert); err != nil {
		m.logger.Warn("report store alert append failed", "error", err)
	}
	if m.actionLog != nil {
		if err := m.actionLog.AppendAlert(string(alert.Level), alert.Message, alert.At); err != nil {
			m.logger.Warn("action log alert append failed", "error", err)
		}
	}
	m.logger.Info("fleet alert", "level", alert.Level, "online", online, "offline", offline, "total", total)
}

type transition int

const (
	transitionNone transition = iota
	transitionRecovered
	transitionWentOffline
)

// apply updates one device's DeviceHealthState through its transition
// table and reports whether this probe caused a recovery or
// a debounced OFFLINE transition (used to derive the fleet alert).
func (m *Monitor) apply(deviceID string, result health.Result) transition {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	s, ok := m.states[deviceID]
	if !ok {
		s = &DeviceHealthState{DeviceID: deviceID, CurrentStatus: StatusUnknown, StatusSince: now}
		m.states[deviceID] = s
	}

	s.LastProbedAt = now
	s.LatencyMS = result.LatencyMS
	s.Detail = result.Detail

	prior := s.CurrentStatus
	t := transitionNone

	if result.Reachable {
		s.LastOKAt = now
		wasOffline := prior == StatusOffline
		s.ConsecutiveFailures = 0
		if prior != StatusOnline {
			s.CurrentStatus = StatusOnline
			s.StatusSince = now
		}
		if wasOffline {
			t = transitionRecovered
		}
		return t
	}

	s.ConsecutiveFailures++
	switch prior {
	case StatusOnline:
		if s.ConsecutiveFailures >= offlineThresholdFailures {
			s.CurrentStatus = StatusOffline
			s.StatusSince = now
			t = transitionWentOffline
		}
		// else: stays ONLINE, single failure is debounced.
	case StatusOffline:
		// already OFFLINE, no transition.
	case StatusUnknown:
		s.CurrentStatus = StatusOffline
		s.StatusSince = now
	}
	return t
}

// deriveAlert computes the highest-severity alert triggered this
// cycle, or nil if none of the four conditions hold.
func (m *Monitor) deriveAlert(at time.Time, online, offline, total, recovered, newlyOffline int) *AlertEvent {
	var level AlertLevel
	var message string

	consider := func(l AlertLevel, msg string) {
		if alertRank[l] > alertRank[level] || level == "" {
			level, message = l, msg
		}
	}

	if recovered > 0 {
		consider(AlertInfo, fmt.Sprintf("%d device(s) recovered", recovered))
	}
	if newlyOffline > 0 {
		consider(AlertWarning, fmt.Sprintf("%d device(s) transitioned to OFFLINE", newlyOffline))
	}

	ratio := 0.0
	if total > 0 {
		ratio = float64(offline) / float64(total)
	}
	if offline >= 3 && ratio <= 0.20 {
		consider(AlertCritical, fmt.Sprintf("%d/%d devices offline", offline, total))
	}
	if ratio > 0.20 {
		consider(AlertRed, fmt.Sprintf("%d/%d devices offline (%.0f%%)", offline, total, ratio*100))
	}

	if level == "" {
		return nil
	}
	return &AlertEvent{Level: level, Message: message, At: at, Online: online, Offline: offline, Total: total}
}

// Snapshot returns a copy of the current DeviceHealthState table,
// so callers can't mutate Monitor-owned state, for any external
// reader (HTTP surface, tests).
func (m *Monitor) Snapshot() map[string]DeviceHealthState {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]DeviceHealthState, len(m.states))
	for id, s := range m.states {
		out[id] = *s
	}
	return out
}
