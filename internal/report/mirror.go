package report

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Mirror is a disposable SQLite projection of the day files, used only
// to serve GET /schedule-adjacent history queries (execution-by-date,
// alert-by-date) without re-parsing NDJSON on every request.
// Rebuild reconstructs it from scratch every startup — deleting the
// mirror database never loses data, only query convenience.
type Mirror struct {
	db *sql.DB
}

// NewMirror wraps an already-migrated *sql.DB (the same database the
// Scheduler's SQLiteRepository uses; report_executions/report_alerts
// are created by the same migration).
func NewMirror(db *sql.DB) *Mirror { return &Mirror{db: db} }

// Rebuild truncates the mirror tables and re-populates them from every
// day file under dir. Call once at startup, after migrations have run
// and before serving traffic.
func (m *Mirror) Rebuild(ctx context.Context, dir string) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("report: beginning mirror rebuild: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM report_executions`); err != nil {
		return fmt.Errorf("report: clearing report_executions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM report_alerts`); err != nil {
		return fmt.Errorf("report: clearing report_alerts: %w", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return tx.Commit()
		}
		return fmt.Errorf("report: reading report dir: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "report-") || !strings.HasSuffix(name, ".log") {
			continue
		}
		date := strings.TrimSuffix(strings.TrimPrefix(name, "report-"), ".log")

		records, err := readRecords(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("report: reading %s: %w", name, err)
		}
		for _, rec := range records {
			if err := insertRecord(ctx, tx, date, rec); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

func insertRecord(ctx context.Context, tx *sql.Tx, date string, rec Record) error {
	switch rec.Kind {
	case KindExecution:
		if rec.Execution == nil {
			return nil
		}
		payload, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("report: marshalling execution payload: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO report_executions
				(id, report_date, started_at, finished_at, requested_action, success_count, failure_count, payload_json)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), date,
			rec.Execution.StartedAt.UTC().Format("2006-01-02T15:04:05Z"),
			rec.Execution.FinishedAt.UTC().Format("2006-01-02T15:04:05Z"),
			string(rec.Execution.RequestedAction),
			rec.Execution.SuccessCount, rec.Execution.FailureCount,
			string(payload),
		)
		if err != nil {
			return fmt.Errorf("report: inserting report_executions row: %w", err)
		}
	case KindAlert:
		if rec.Alert == nil {
			return nil
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO report_alerts (id, report_date, level, message, occurred_at)
			VALUES (?, ?, ?, ?, ?)`,
			uuid.NewString(), date,
			string(rec.Alert.Level), rec.Alert.Message,
			rec.Alert.At.UTC().Format("2006-01-02T15:04:05Z"),
		)
		if err != nil {
			return fmt.Errorf("report: inserting report_alerts row: %w", err)
		}
	case KindSample:
		// Monitoring samples are high-volume and already served from
		// the day file's time series; the mirror only needs to answer
		// execution/alert history queries cheaply.
	}
	return nil
}

// ExecutionsByDate returns the mirrored executions for one calendar
// day, most recent first.
func (m *Mirror) ExecutionsByDate(ctx context.Context, date string) ([]ExecutionEntry, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT started_at, finished_at, requested_action, success_count, failure_count, payload_json
		FROM report_executions WHERE report_date = ? ORDER BY finished_at DESC`, date)
	if err != nil {
		return nil, fmt.Errorf("report: querying report_executions: %w", err)
	}
	defer rows.Close()

	var out []ExecutionEntry
	for rows.Next() {
		var startedAt, finishedAt, action, payload string
		var successCount, failureCount int
		if err := rows.Scan(&startedAt, &finishedAt, &action, &successCount, &failureCount, &payload); err != nil {
			return nil, fmt.Errorf("report: scanning report_executions row: %w", err)
		}
		entry, err := decodeExecutionEntry(payload)
		if err != nil {
			continue
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].At.After(out[j].At) })
	return out, rows.Err()
}

// AlertsByDate returns the mirrored alert events for one calendar day.
func (m *Mirror) AlertsByDate(ctx context.Context, date string) ([]AlertRow, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT level, message, occurred_at
		FROM report_alerts WHERE report_date = ? ORDER BY occurred_at DESC`, date)
	if err != nil {
		return nil, fmt.Errorf("report: querying report_alerts: %w", err)
	}
	defer rows.Close()

	var out []AlertRow
	for rows.Next() {
		var row AlertRow
		if err := rows.Scan(&row.Level, &row.Message, &row.OccurredAt); err != nil {
			return nil, fmt.Errorf("report: scanning report_alerts row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// AlertRow is one mirrored alert row.
type AlertRow struct {
	Level      string `json:"level"`
	Message    string `json:"message"`
	OccurredAt string `json:"occurred_at"`
}

func decodeExecutionEntry(payload string) (ExecutionEntry, error) {
	var rec Record
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return ExecutionEntry{}, err
	}
	if rec.Execution == nil {
		return ExecutionEntry{}, fmt.Errorf("report: mirrored row has no execution payload")
	}
	return ExecutionEntry{JobID: rec.JobID, At: rec.Execution.FinishedAt, Report: *rec.Execution}, nil
}
