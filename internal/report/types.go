package report

import (
	"time"

	"github.com/d0ssh1/Auto-Aquarium/internal/devicemgr"
	"github.com/d0ssh1/Auto-Aquarium/internal/monitor"
)

// Kind discriminates the three record shapes the Report Store holds in
// one per-day file.
type Kind string

const (
	KindExecution Kind = "EXECUTION"
	KindSample    Kind = "SAMPLE"
	KindAlert     Kind = "ALERT"
)

// Record is one line of a day file. Exactly one of Execution, Sample,
// or Alert is populated, matching Kind.
type Record struct {
	Kind      Kind                       `json:"kind"`
	At        time.Time                  `json:"at"`
	JobID     string                     `json:"job_id,omitempty"`
	Execution *devicemgr.ExecutionReport `json:"execution,omitempty"`
	Sample    *monitor.CycleSample       `json:"sample,omitempty"`
	Alert     *monitor.AlertEvent        `json:"alert,omitempty"`
}

// Day is one calendar day's full set of records, the unit a reader
// gets back from Read.
type Day struct {
	Date       string                `json:"date"`
	Executions []ExecutionEntry      `json:"executions"`
	Samples    []monitor.CycleSample `json:"samples"`
	Alerts     []monitor.AlertEvent  `json:"alerts"`
}

// ExecutionEntry pairs a scheduled job id with the report it produced.
type ExecutionEntry struct {
	JobID  string                    `json:"job_id"`
	At     time.Time                 `json:"at"`
	Report devicemgr.ExecutionReport `json:"report"`
}
