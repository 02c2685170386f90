// Package scheduler implements the Scheduler: a persistent cron-like
// job store that fires Device Manager callbacks at configured local
// times, tolerating downtime without replaying missed fires.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/d0ssh1/Auto-Aquarium/internal/devicemgr"
	"github.com/d0ssh1/Auto-Aquarium/internal/retry"
)

// Logger is the structured-logging capability the Scheduler needs.
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

// DeviceManager is the subset of devicemgr.Manager the Scheduler needs
// to fire callbacks.
type DeviceManager interface {
	TurnOn(ctx context.Context, target string) (*devicemgr.ExecutionReport, error)
	TurnOff(ctx context.Context, target string) (*devicemgr.ExecutionReport, error)
}

// ExecutionRecorder receives every ExecutionReport produced by a fired
// job, for the Report Store. Optional.
type ExecutionRecorder interface {
	RecordScheduledExecution(job *ScheduledJob, report *devicemgr.ExecutionReport)
}

// ActionLogSink receives one ActionRecord for a scheduled fire that
// never produced an ExecutionReport at all — a target that didn't
// resolve to any device, or an unsupported action — so the Action Log
// still carries a PROTOCOL_ERROR terminus for it. Optional.
type ActionLogSink interface {
	Append(record devicemgr.ActionRecord) error
}

// tickInterval is how often the run loop wakes to check for due jobs.
// Cron granularity is one minute, so sub-minute precision isn't needed;
// checking every second keeps fire time within the same minute bucket
// without busy-looping.
const tickInterval = 1 * time.Second

// Scheduler owns the in-memory job table and the fire loop. The
// durable record is always written before the in-memory table is
// updated; if persistence fails, the in-memory state is left
// untouched.
type Scheduler struct {
	repo      Repository
	dm        DeviceManager
	recorder  ExecutionRecorder
	actionLog ActionLogSink
	logger    Logger
	loc       *time.Location

	mu     sync.RWMutex
	jobs   map[string]*ScheduledJob
	specs  map[string]*CronSpec

	stopCh chan struct{}
	wg     sync.WaitGroup
}

func New(repo Repository, dm DeviceManager, loc *time.Location, logger Logger) *Scheduler {
	if logger == nil {
		logger = noopLogger{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		repo:   repo,
		dm:     dm,
		loc:    loc,
		logger: logger,
		jobs:   make(map[string]*ScheduledJob),
		specs:  make(map[string]*CronSpec),
		stopCh: make(chan struct{}),
	}
}

// SetExecutionRecorder wires an optional Report Store sink.
func (s *Scheduler) SetExecutionRecorder(r ExecutionRecorder) { s.recorder = r }

// SetActionLogSink wires the optional Action Log sink used to record a
// PROTOCOL_ERROR terminus for fires whose target never resolves.
func (s *Scheduler) SetActionLogSink(sink ActionLogSink) { s.actionLog = sink }

// Load reads all jobs from the durable store and recomputes next fire
// times for enabled ones relative to now — missed fires during
// downtime are never replayed.
func (s *Scheduler) Load(ctx context.Context) error {
	jobs, err := s.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loading scheduled jobs: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, job := range jobs {
		spec, err := ParseCron(job.CronExpr)
		if err != nil {
			s.logger.Warn("skipping job with invalid cron expression", "job_id", job.ID, "error", err)
			continue
		}
		s.specs[job.ID] = spec
		if job.Enabled {
			next, err := spec.Next(time.Now().In(s.loc), s.loc)
			if err == nil {
				job.NextRunTime = next
			}
		}
		s.jobs[job.ID] = job
	}
	return nil
}

// Start runs the fire loop until ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopCh:
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()
}

// Stop signals the fire loop to exit and waits for it.
func (s *Scheduler) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

// tick fires every enabled job whose NextRunTime has arrived. Jobs due
// in the same tick are dispatched in job-id lexicographic order — the
// chosen tiebreak for same-second collisions.
func (s *Scheduler) tick(ctx context.Context) {
	now := time.Now().In(s.loc)

	s.mu.Lock()
	var due []*ScheduledJob
	for _, job := range s.jobs {
		if job.Enabled && !job.NextRunTime.After(now) {
			due = append(due, job)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ID < due[j].ID })
	s.mu.Unlock()

	for _, job := range due {
		s.fire(ctx, job)
		s.advance(ctx, job)
	}
}

func (s *Scheduler) fire(ctx context.Context, job *ScheduledJob) {
	s.logger.Info("scheduled job firing", "job_id", job.ID, "action", job.Action, "target", job.Target)

	var report *devicemgr.ExecutionReport
	var err error
	switch job.Action {
	case devicemgr.TurnOn:
		report, err = s.dm.TurnOn(ctx, job.Target)
	case devicemgr.TurnOff:
		report, err = s.dm.TurnOff(ctx, job.Target)
	default:
		err = fmt.Errorf("unsupported scheduled action %q", job.Action)
	}

	// Scheduler callback errors are logged, never propagated; they do
	// not disable the job. s.dm.TurnOn/TurnOff return an error instead
	// of a report only when the target never resolved to any device
	// (or, here, when the job's action itself is unsupported) — no
	// ActionRecord exists for that case unless we make one, so the
	// Action Log still gets a PROTOCOL_ERROR terminus for the job.
	if err != nil {
		s.logger.Error("scheduled job callback failed", "job_id", job.ID, "error", err)
		if s.actionLog != nil {
			rec := devicemgr.ActionRecord{
				Timestamp:    time.Now().UTC(),
				DeviceID:     job.Target,
				Action:       job.Action,
				Outcome:      retry.ProtocolErr,
				ErrorMessage: err.Error(),
			}
			if appendErr := s.actionLog.Append(rec); appendErr != nil {
				s.logger.Error("action log append failed", "job_id", job.ID, "error", appendErr)
			}
		}
		return
	}
	if s.recorder != nil {
		s.recorder.RecordScheduledExecution(job, report)
	}
}

// advance recomputes and persists the job's next fire time after it
// has fired. The durable record is written first; on failure the
// in-memory NextRunTime is left at its stale value so a later retry of
// the same tick window doesn't silently drop forever.
func (s *Scheduler) advance(ctx context.Context, job *ScheduledJob) {
	s.mu.RLock()
	spec := s.specs[job.ID]
	s.mu.RUnlock()
	if spec == nil {
		return
	}

	next, err := spec.Next(time.Now().In(s.loc), s.loc)
	if err != nil {
		s.logger.Error("could not compute next fire time", "job_id", job.ID, "error", err)
		return
	}

	updated := job.clone()
	updated.NextRunTime = next
	updated.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, updated); err != nil {
		s.logger.Error("persisting advanced schedule failed, in-memory state unchanged", "job_id", job.ID, "error", err)
		return
	}

	s.mu.Lock()
	s.jobs[job.ID] = updated
	s.mu.Unlock()
}

// TriggerNow runs a job's callback immediately without altering its
// persisted or in-memory next_run_time.
func (s *Scheduler) TriggerNow(ctx context.Context, jobID string) error {
	s.mu.RLock()
	job, ok := s.jobs[jobID]
	s.mu.RUnlock()
	if !ok {
		return ErrJobNotFound
	}
	s.fire(ctx, job)
	return nil
}

// Create persists a new job, parses its cron expression, and schedules
// it. The durable record is written before the in-memory schedule is
// updated; a persistence failure leaves in-memory state
// untouched.
func (s *Scheduler) Create(ctx context.Context, job *ScheduledJob) error {
	spec, err := ParseCron(job.CronExpr)
	if err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}

	now := time.Now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now
	if job.Enabled {
		next, err := spec.Next(time.Now().In(s.loc), s.loc)
		if err != nil {
			return fmt.Errorf("scheduler: %w", err)
		}
		job.NextRunTime = next
	}

	if err := s.repo.Create(ctx, job); err != nil {
		return err
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.specs[job.ID] = spec
	s.mu.Unlock()
	return nil
}

// Update persists changes to an existing job and reschedules it.
func (s *Scheduler) Update(ctx context.Context, job *ScheduledJob) error {
	spec, err := ParseCron(job.CronExpr)
	if err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	job.UpdatedAt = time.Now().UTC()
	if job.Enabled {
		next, err := spec.Next(time.Now().In(s.loc), s.loc)
		if err != nil {
			return fmt.Errorf("scheduler: %w", err)
		}
		job.NextRunTime = next
	}

	if err := s.repo.Update(ctx, job); err != nil {
		return err
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.specs[job.ID] = spec
	s.mu.Unlock()
	return nil
}

// Delete removes a job from the durable store and the in-memory table.
func (s *Scheduler) Delete(ctx context.Context, jobID string) error {
	if err := s.repo.Delete(ctx, jobID); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.jobs, jobID)
	delete(s.specs, jobID)
	s.mu.Unlock()
	return nil
}

// SetEnabled toggles a job's enabled flag, persisting before mutating
// in-memory state, and recomputes NextRunTime when enabling.
func (s *Scheduler) SetEnabled(ctx context.Context, jobID string, enabled bool) error {
	s.mu.RLock()
	job := s.jobs[jobID]
	spec := s.specs[jobID]
	s.mu.RUnlock()
	if job == nil {
		return ErrJobNotFound
	}

	updated := job.clone()
	updated.Enabled = enabled
	updated.UpdatedAt = time.Now().UTC()
	if enabled && spec != nil {
		next, err := spec.Next(time.Now().In(s.loc), s.loc)
		if err != nil {
			return fmt.Errorf("scheduler: %w", err)
		}
		updated.NextRunTime = next
	}

	if err := s.repo.Update(ctx, updated); err != nil {
		return err
	}

	s.mu.Lock()
	s.jobs[jobID] = updated
	s.mu.Unlock()
	return nil
}

// List returns a snapshot of all jobs, sorted by id.
func (s *Scheduler) List() []*ScheduledJob {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*ScheduledJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, job.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
