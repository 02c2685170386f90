package monitor

import "time"

// Status is a device's current health classification.
type Status string

const (
	StatusUnknown Status = "UNKNOWN"
	StatusOnline  Status = "ONLINE"
	StatusOffline Status = "OFFLINE"
)

// DeviceHealthState is the Monitor-owned per-device record.
// Consumers outside the Monitor only ever see a copy, taken at cycle
// end.
type DeviceHealthState struct {
	DeviceID            string    `json:"device_id"`
	LastProbedAt        time.Time `json:"last_probed_at"`
	LastOKAt            time.Time `json:"last_ok_at"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	CurrentStatus       Status    `json:"current_status"`
	StatusSince         time.Time `json:"status_since"`
	LatencyMS           int64     `json:"latency_ms"`
	Detail              string    `json:"detail,omitempty"`
}

// AlertLevel is the fleet-wide severity derived at the end of a cycle.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "INFO"
	AlertWarning  AlertLevel = "WARNING"
	AlertCritical AlertLevel = "CRITICAL"
	AlertRed      AlertLevel = "RED_ALERT"
)

// alertRank orders levels so the highest-triggered one wins when a
// cycle satisfies more than one condition at once — at most one alert
// event per cycle, at the highest triggered level.
var alertRank = map[AlertLevel]int{
	AlertInfo:     1,
	AlertWarning:  2,
	AlertCritical: 3,
	AlertRed:      4,
}

// AlertEvent is one fleet-level alert, appended to the Action Log (as
// a PROBE record) and the Report Store.
type AlertEvent struct {
	Level   AlertLevel `json:"level"`
	Message string     `json:"message"`
	At      time.Time  `json:"at"`
	Online  int        `json:"online"`
	Offline int        `json:"offline"`
	Total   int        `json:"total"`
}

// CycleSample is one monitoring-cycle time-series point for the Report
// Store.
type CycleSample struct {
	At      time.Time `json:"at"`
	Online  int       `json:"online"`
	Offline int       `json:"offline"`
	Total   int       `json:"total"`
}
