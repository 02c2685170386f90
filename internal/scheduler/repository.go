package scheduler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/d0ssh1/Auto-Aquarium/internal/devicemgr"
)

func deviceAction(s string) devicemgr.Action { return devicemgr.Action(s) }

// Repository persists ScheduledJobs. The durable store only needs to
// hold id, next_run_time, and opaque job state; the SQLite
// implementation stores the full job row for convenience.
type Repository interface {
	List(ctx context.Context) ([]*ScheduledJob, error)
	Get(ctx context.Context, id string) (*ScheduledJob, error)
	Create(ctx context.Context, job *ScheduledJob) error
	Update(ctx context.Context, job *ScheduledJob) error
	Delete(ctx context.Context, id string) error
}

var ErrJobNotFound = errors.New("scheduler: job not found")

// ErrPersistence wraps any failure writing to the durable job table.
var ErrPersistence = errors.New("scheduler: persistence error")

const jobColumns = `id, cron_expr, action, target, enabled, next_run_time, created_at, updated_at`

// SQLiteRepository implements Repository over the scheduled_jobs table
// created by migrations/20260101_000001_initial_schema.up.sql.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) List(ctx context.Context) ([]*ScheduledJob, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+jobColumns+` FROM scheduled_jobs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing scheduled jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*ScheduledJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning scheduled job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*ScheduledJob, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM scheduled_jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("querying scheduled job: %w", err)
	}
	return job, nil
}

func (r *SQLiteRepository) Create(ctx context.Context, job *ScheduledJob) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO scheduled_jobs (id, cron_expr, action, target, enabled, next_run_time, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.CronExpr, string(job.Action), job.Target, job.Enabled,
		job.NextRunTime.UTC().Format(time.RFC3339Nano),
		job.CreatedAt.UTC().Format(time.RFC3339Nano), job.UpdatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("creating scheduled job: %w: %w", ErrPersistence, err)
	}
	return nil
}

func (r *SQLiteRepository) Update(ctx context.Context, job *ScheduledJob) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE scheduled_jobs SET cron_expr = ?, action = ?, target = ?, enabled = ?, next_run_time = ?, updated_at = ?
		WHERE id = ?`,
		job.CronExpr, string(job.Action), job.Target, job.Enabled,
		job.NextRunTime.UTC().Format(time.RFC3339Nano), job.UpdatedAt.UTC().Format(time.RFC3339Nano), job.ID)
	if err != nil {
		return fmt.Errorf("updating scheduled job: %w: %w", ErrPersistence, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrJobNotFound
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM scheduled_jobs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting scheduled job: %w: %w", ErrPersistence, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrJobNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*ScheduledJob, error) {
	var (
		job                            ScheduledJob
		action                         string
		nextRunTime, createdAt, updatedAt string
	)
	if err := row.Scan(&job.ID, &job.CronExpr, &action, &job.Target, &job.Enabled, &nextRunTime, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	job.Action = deviceAction(action)

	var err error
	if job.NextRunTime, err = time.Parse(time.RFC3339Nano, nextRunTime); err != nil {
		return nil, fmt.Errorf("parsing next_run_time: %w", err)
	}
	if job.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if job.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &job, nil
}
