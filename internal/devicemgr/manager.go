// Package devicemgr implements the Device Manager: it
// resolves a target into a device id set, fans calls out through the
// Retry Executor under a shared bounded semaphore, and assembles the
// results into one ExecutionReport with exactly one ActionRecord per
// requested device.
package devicemgr

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/d0ssh1/Auto-Aquarium/internal/device"
	"github.com/d0ssh1/Auto-Aquarium/internal/protocol"
	"github.com/d0ssh1/Auto-Aquarium/internal/retry"
)

// Logger is the structured-logging capability the Manager needs.
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

// defaultOverallDeadline is the default 10 minute bulk-operation
// ceiling; devices not attempted by then receive a TIMEOUT ActionRecord
// with attempts=0.
const defaultOverallDeadline = 10 * time.Minute

// busyAdmissionWindow is how long the Manager will wait to admit a new
// bulk operation into the shared semaphore before returning ErrBusy.
const busyAdmissionWindow = 1 * time.Second

// Registry is the subset of device.Registry the Manager needs.
type Registry interface {
	Get(id string) (*device.Device, error)
	IDsMatching(target string) ([]string, error)
}

// Manager is the Device Manager. A Manager is safe for concurrent use;
// one is typically owned by the process Engine and shared across the
// HTTP surface, the Scheduler, and the Monitor (which calls Probe
// through a separate, health-specific path but shares the semaphore).
type Manager struct {
	registry        Registry
	sem             *semaphore.Weighted
	sink            Sink
	logger          Logger
	policy          retry.Policy
	overallDeadline time.Duration

	deviceLocksMu sync.Mutex
	deviceLocks   map[string]*sync.Mutex
}

// New builds a Manager. sem is the shared admission semaphore (sized
// by max_concurrency, default 10) and may be shared with a Monitor/Health Prober
// instance so both obey the same global concurrency cap.
func New(registry Registry, sem *semaphore.Weighted, policy retry.Policy, sink Sink, logger Logger) *Manager {
	if sink == nil {
		sink = noopSink{}
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &Manager{
		registry:        registry,
		sem:             sem,
		sink:            sink,
		logger:          logger,
		policy:          policy,
		overallDeadline: defaultOverallDeadline,
		deviceLocks:     make(map[string]*sync.Mutex),
	}
}

// WithOverallDeadline overrides the default 10 minute bulk-operation
// ceiling; intended for tests.
func (m *Manager) WithOverallDeadline(d time.Duration) *Manager {
	m.overallDeadline = d
	return m
}

func (m *Manager) TurnOn(ctx context.Context, target string) (*ExecutionReport, error) {
	return m.execute(ctx, target, TurnOn)
}

func (m *Manager) TurnOff(ctx context.Context, target string) (*ExecutionReport, error) {
	return m.execute(ctx, target, TurnOff)
}

func (m *Manager) Query(ctx context.Context, target string) (*ExecutionReport, error) {
	return m.execute(ctx, target, Query)
}

func (m *Manager) execute(ctx context.Context, target string, action Action) (*ExecutionReport, error) {
	ids, err := m.registry.IDsMatching(target)
	if err != nil {
		if errors.Is(err, device.ErrUnknownTarget) {
			return nil, ErrUnresolvedTarget
		}
		return nil, err
	}
	if len(ids) == 0 {
		return nil, ErrUnresolvedTarget
	}

	if err := m.admit(ctx); err != nil {
		return nil, err
	}

	report := &ExecutionReport{
		StartedAt:       time.Now().UTC(),
		RequestedAction: action,
		Results:         make(map[string]ActionRecord, len(ids)),
	}

	deadlineCtx, cancel := context.WithTimeout(ctx, m.overallDeadline)
	defer cancel()

	// Pre-fill every requested device with a TIMEOUT/attempts=0 record so
	// that devices never reached before the deadline still produce one
	// ActionRecord each, satisfying the "exactly one entry per requested
	// device" invariant.
	for _, id := range ids {
		report.Results[id] = ActionRecord{DeviceID: id, Action: action, Outcome: retry.Timeout, Attempts: 0}
	}

	resultCh := make(chan ActionRecord, len(ids))
	for _, id := range ids {
		go m.runOne(deadlineCtx, id, action, resultCh)
	}

	received := 0
collect:
	for received < len(ids) {
		select {
		case rec := <-resultCh:
			report.Results[rec.DeviceID] = rec
			received++
		case <-deadlineCtx.Done():
			break collect
		}
	}

	// A device still holding its pre-fill record never reported back.
	// If that's because the caller's own ctx was cancelled (client
	// disconnect, process shutdown) rather than the 10-minute overall
	// deadline expiring, mark it CANCELLED rather than leaving a
	// TIMEOUT record that implies the operation simply ran out of time.
	if ctx.Err() != nil {
		for _, id := range ids {
			if rec := report.Results[id]; rec.Attempts == 0 && rec.Outcome == retry.Timeout {
				rec.Cancelled = true
				report.Results[id] = rec
			}
		}
	}

	report.FinishedAt = time.Now().UTC()
	for _, rec := range report.Results {
		if rec.Outcome == retry.Success {
			report.SuccessCount++
		} else {
			report.FailureCount++
		}
	}

	m.logger.Info("execution complete",
		"action", action,
		"devices", len(ids),
		"success_count", report.SuccessCount,
		"failure_count", report.FailureCount,
	)

	return report, nil
}

// admit enforces the backpressure rule: if a single semaphore slot
// can't be acquired within busyAdmissionWindow, the whole bulk
// operation is refused rather than queued unboundedly.
func (m *Manager) admit(ctx context.Context) error {
	admitCtx, cancel := context.WithTimeout(ctx, busyAdmissionWindow)
	defer cancel()
	if err := m.sem.Acquire(admitCtx, 1); err != nil {
		return ErrBusy
	}
	m.sem.Release(1)
	return nil
}

func (m *Manager) runOne(ctx context.Context, id string, action Action, results chan<- ActionRecord) {
	start := time.Now().UTC()

	lock := m.deviceLock(id)
	lock.Lock()
	defer lock.Unlock()

	rec := ActionRecord{DeviceID: id, Action: action, Timestamp: start}

	dev, err := m.registry.Get(id)
	if err != nil {
		rec.Outcome = retry.ProtocolErr
		rec.ErrorMessage = err.Error()
		rec.DurationMS = time.Since(start).Milliseconds()
		m.publish(rec, results)
		return
	}

	adapter, err := protocol.ForType(dev.Type)
	if err != nil {
		rec.Outcome = retry.ProtocolErr
		rec.ErrorMessage = err.Error()
		rec.DurationMS = time.Since(start).Milliseconds()
		m.publish(rec, results)
		return
	}

	if err := m.sem.Acquire(ctx, 1); err != nil {
		rec.Outcome = retry.Timeout
		rec.ErrorMessage = "semaphore acquisition cancelled"
		rec.DurationMS = time.Since(start).Milliseconds()
		m.publish(rec, results)
		return
	}
	defer m.sem.Release(1)

	call := adapterCall(adapter, action, dev)
	result := retry.Do(ctx, m.policy, retry.ClassifyProtocolError, retry.NonRetriableMisconfiguration, call)

	rec.Attempts = result.Attempts
	rec.Outcome = result.Outcome
	rec.Cancelled = result.Cancelled
	rec.DurationMS = result.Duration.Milliseconds()
	if result.Err != nil {
		rec.ErrorMessage = result.Err.Error()
	}

	m.publish(rec, results)
}

func (m *Manager) publish(rec ActionRecord, results chan<- ActionRecord) {
	if err := m.sink.Append(rec); err != nil {
		m.logger.Warn("action log append failed", "device_id", rec.DeviceID, "error", err)
	}
	results <- rec
}

func adapterCall(adapter protocol.Adapter, action Action, dev *device.Device) func(ctx context.Context, timeout time.Duration) error {
	switch action {
	case TurnOn:
		return func(ctx context.Context, _ time.Duration) error { return adapter.PowerOn(ctx, dev) }
	case TurnOff:
		return func(ctx context.Context, _ time.Duration) error { return adapter.PowerOff(ctx, dev) }
	case Query:
		return func(ctx context.Context, _ time.Duration) error {
			_, err := adapter.QueryPower(ctx, dev)
			return err
		}
	default:
		return func(ctx context.Context, _ time.Duration) error {
			return fmt.Errorf("%w: unknown action %q", protocol.ErrProtocol, action)
		}
	}
}

func (m *Manager) deviceLock(id string) *sync.Mutex {
	m.deviceLocksMu.Lock()
	defer m.deviceLocksMu.Unlock()
	lock, ok := m.deviceLocks[id]
	if !ok {
		lock = &sync.Mutex{}
		m.deviceLocks[id] = lock
	}
	return lock
}
