package devicemgr

import (
	"time"

	"github.com/d0ssh1/Auto-Aquarium/internal/retry"
)

// Action identifies which adapter capability a fan-out exercises.
type Action string

const (
	TurnOn  Action = "TURN_ON"
	TurnOff Action = "TURN_OFF"
	Query   Action = "QUERY"
	// Probe is used by the Health Prober/Monitor when appending probe and
	// fleet-alert records to the same Action Log.
	Probe Action = "PROBE"
)

// ActionRecord is one device's terminus within an ExecutionReport —
// the unit the Action Log Sink appends.
type ActionRecord struct {
	Timestamp    time.Time     `json:"timestamp"`
	DeviceID     string        `json:"device_id"`
	Action       Action        `json:"action"`
	Attempts     int           `json:"attempts"`
	Outcome      retry.Outcome `json:"outcome"`
	Cancelled    bool          `json:"cancelled,omitempty"`
	DurationMS   int64         `json:"duration_ms"`
	ErrorMessage string        `json:"error_message,omitempty"`
}

// ExecutionReport is returned by every Device Manager bulk operation.
type ExecutionReport struct {
	StartedAt       time.Time               `json:"started_at"`
	FinishedAt      time.Time               `json:"finished_at"`
	RequestedAction Action                  `json:"requested_action"`
	Results         map[string]ActionRecord `json:"results"`
	SuccessCount    int                     `json:"success_count"`
	FailureCount    int                     `json:"failure_count"`
}

// Sink receives one ActionRecord per completed device action. The real
// implementation is internal/actionlog; tests may substitute a fake.
type Sink interface {
	Append(record ActionRecord) error
}

type noopSink struct{}

func (noopSink) Append(ActionRecord) error { return nil }
