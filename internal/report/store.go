package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/d0ssh1/Auto-Aquarium/internal/devicemgr"
	"github.com/d0ssh1/Auto-Aquarium/internal/monitor"
	"github.com/d0ssh1/Auto-Aquarium/internal/scheduler"
)

// Logger is the structured-logging capability the Store needs.
type Logger interface {
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any) {}

// Store is the Report Store. Unlike the Action Log's single O_APPEND
// producer, each write here reads the current day file, appends the
// new record in memory, and writes the whole file to a temp path
// before renaming it over the original, so a reader never observes a
// write in progress, only the file before or after.
type Store struct {
	dir    string
	logger Logger
	mu     sync.Mutex
}

// New returns a Store rooted at dir, creating it if necessary.
func New(dir string, logger Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("report: creating report dir: %w", err)
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &Store{dir: dir, logger: logger}, nil
}

// RecordScheduledExecution satisfies scheduler.ExecutionRecorder: every
// ExecutionReport a fired job produces is appended to that day's file.
func (s *Store) RecordScheduledExecution(job *scheduler.ScheduledJob, report *devicemgr.ExecutionReport) {
	rec := Record{Kind: KindExecution, At: report.FinishedAt, JobID: job.ID, Execution: report}
	if err := s.append(rec); err != nil {
		s.logger.Warn("report store execution append failed", "job_id", job.ID, "error", err)
	}
}

// AppendSample satisfies monitor.ReportStore.
func (s *Store) AppendSample(sample monitor.CycleSample) error {
	return s.append(Record{Kind: KindSample, At: sample.At, Sample: &sample})
}

// AppendAlert satisfies monitor.ReportStore.
func (s *Store) AppendAlert(event monitor.AlertEvent) error {
	return s.append(Record{Kind: KindAlert, At: event.At, Alert: &event})
}

func (s *Store) append(rec Record) error {
	date := rec.At.UTC().Format("2006-01-02")
	path := s.path(date)

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := readRecords(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("report: reading %s: %w: %w", path, ErrPersistence, err)
	}
	existing = append(existing, rec)

	tmp, err := os.CreateTemp(s.dir, "day-*.tmp")
	if err != nil {
		return fmt.Errorf("report: creating temp file: %w: %w", ErrPersistence, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once renamed

	w := bufio.NewWriter(tmp)
	for _, r := range existing {
		payload, err := json.Marshal(r)
		if err != nil {
			tmp.Close()
			return fmt.Errorf("report: marshalling record: %w: %w", ErrPersistence, err)
		}
		if _, err := w.Write(append(payload, '\n')); err != nil {
			tmp.Close()
			return fmt.Errorf("report: writing temp file: %w: %w", ErrPersistence, err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("report: flushing temp file: %w: %w", ErrPersistence, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("report: syncing temp file: %w: %w", ErrPersistence, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("report: closing temp file: %w: %w", ErrPersistence, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("report: renaming into place: %w: %w", ErrPersistence, err)
	}
	return nil
}

func (s *Store) path(date string) string {
	return filepath.Join(s.dir, fmt.Sprintf("report-%s.log", date))
}

// readRecords parses whichever whole NDJSON records exist in path,
// discarding a trailing malformed one — the same read-side tolerance
// internal/actionlog uses.
func readRecords(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var r Record
		if err := json.Unmarshal(line, &r); err != nil {
			continue
		}
		records = append(records, r)
	}
	return records, scanner.Err()
}
