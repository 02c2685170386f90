package actionlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/d0ssh1/Auto-Aquarium/internal/devicemgr"
)

// Logger is the structured-logging capability the Sink needs for the
// once-per-minute persistence-failure notice.
type Logger interface {
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any) {}

// Publisher is an optional best-effort event fan-out to MQTT or a
// WebSocket hub. A publish failure is logged, never returned.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// MultiPublisher fans one record out to every wrapped Publisher, so the
// Sink can hold exactly one Publisher field while the engine wires both
// MQTT and the WebSocket hub. The first error (if any) is returned;
// every publisher is still attempted regardless.
type MultiPublisher []Publisher

func (m MultiPublisher) Publish(topic string, payload []byte) error {
	var firstErr error
	for _, p := range m {
		if err := p.Publish(topic, payload); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

const successRateWindow = 24 * time.Hour

// Sink is the Action Log's single producer. Writes are serialized
// through mu; readers (List, Export) open the target file independently
// and never take mu, so they can tail the file without locking.
type Sink struct {
	dir       string
	logger    Logger
	publisher Publisher

	mu         sync.Mutex
	file       *os.File
	fileDate   string
	lastWarnAt time.Time

	statsMu sync.Mutex
	stats   []successSample
}

type successSample struct {
	at      time.Time
	success bool
}

func New(dir string, logger Logger) (*Sink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("actionlog: creating log dir: %w", err)
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &Sink{dir: dir, logger: logger}, nil
}

// SetPublisher wires an optional MQTT (or other) event fan-out.
func (s *Sink) SetPublisher(p Publisher) { s.publisher = p }

// Append satisfies devicemgr.Sink: one ActionRecord terminus per
// completed device action.
func (s *Sink) Append(rec devicemgr.ActionRecord) error {
	r := Record{
		Timestamp:    rec.Timestamp,
		DeviceID:     rec.DeviceID,
		Action:       string(rec.Action),
		Attempts:     rec.Attempts,
		Outcome:      string(rec.Outcome),
		Cancelled:    rec.Cancelled,
		DurationMS:   rec.DurationMS,
		ErrorMessage: rec.ErrorMessage,
	}
	s.recordSuccess(r.Timestamp, r.Outcome == "SUCCESS")
	return s.write(r)
}

// AppendAlert appends a Monitor-emitted fleet alert as a PROBE record,
// with the alert level carried in Outcome.
func (s *Sink) AppendAlert(level, message string, at time.Time) error {
	return s.write(Record{
		Timestamp:    at,
		Action:       string(devicemgr.Probe),
		Outcome:      level,
		ErrorMessage: message,
	})
}

func (s *Sink) write(r Record) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("actionlog: marshalling record: %w", err)
	}

	s.mu.Lock()
	err = s.writeLocked(r.Timestamp, payload)
	s.mu.Unlock()

	if err != nil {
		// Logged once per minute; log writes continue attempting.
		if time.Since(s.lastWarnAt) >= time.Minute {
			s.logger.Warn("action log append failed", "error", err)
			s.lastWarnAt = time.Now()
		}
		return fmt.Errorf("actionlog: %w", PersistenceError)
	}

	if s.publisher != nil {
		prefix := "avengine/actions/"
		if r.Action == string(devicemgr.Probe) {
			prefix = "avengine/alerts/"
		}
		topic := prefix + r.Action
		if r.DeviceID != "" {
			topic = prefix + r.DeviceID
		}
		// Best-effort; never fails the write. Logged once per minute.
		if err := s.publisher.Publish(topic, payload); err != nil && time.Since(s.lastWarnAt) >= time.Minute {
			s.logger.Warn("action log publish failed", "topic", topic, "error", err)
			s.lastWarnAt = time.Now()
		}
	}
	return nil
}

// writeLocked rotates to the correct calendar-day file (by the record's
// own timestamp, not wall-clock-at-write-time) and
// appends one newline-terminated JSON line.
func (s *Sink) writeLocked(ts time.Time, payload []byte) error {
	date := ts.UTC().Format("2006-01-02")
	if s.file == nil || s.fileDate != date {
		if s.file != nil {
			s.file.Close()
		}
		path := filepath.Join(s.dir, fmt.Sprintf("actions-%s.log", date))
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		s.file = f
		s.fileDate = date
	}

	if _, err := s.file.Write(append(payload, '\n')); err != nil {
		return err
	}
	return s.file.Sync()
}

// Close flushes and closes the currently open log file.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

func (s *Sink) recordSuccess(at time.Time, success bool) {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	s.stats = append(s.stats, successSample{at: at, success: success})
	cutoff := time.Now().Add(-successRateWindow)
	i := 0
	for i < len(s.stats) && s.stats[i].at.Before(cutoff) {
		i++
	}
	if i > 0 {
		s.stats = s.stats[i:]
	}
}

// SuccessRate returns the rolling 24h fraction of SUCCESS outcomes
// among device action records, for GET /health. Returns 1.0
// when no samples exist yet.
func (s *Sink) SuccessRate() float64 {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	cutoff := time.Now().Add(-successRateWindow)
	total, ok := 0, 0
	for _, sample := range s.stats {
		if sample.at.Before(cutoff) {
			continue
		}
		total++
		if sample.success {
			ok++
		}
	}
	if total == 0 {
		return 1.0
	}
	return float64(ok) / float64(total)
}
