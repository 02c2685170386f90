package report

import (
	"fmt"
	"os"
)

// Read reconstructs one calendar day's full Day view from its NDJSON
// file, tolerating a trailing malformed record.
func (s *Store) Read(date string) (*Day, error) {
	records, err := readRecords(s.path(date))
	if err != nil {
		if os.IsNotExist(err) {
			return &Day{Date: date}, nil
		}
		return nil, fmt.Errorf("report: reading %s: %w", date, err)
	}

	day := &Day{Date: date}
	for _, rec := range records {
		switch rec.Kind {
		case KindExecution:
			if rec.Execution != nil {
				day.Executions = append(day.Executions, ExecutionEntry{JobID: rec.JobID, At: rec.At, Report: *rec.Execution})
			}
		case KindSample:
			if rec.Sample != nil {
				day.Samples = append(day.Samples, *rec.Sample)
			}
		case KindAlert:
			if rec.Alert != nil {
				day.Alerts = append(day.Alerts, *rec.Alert)
			}
		}
	}
	return day, nil
}
