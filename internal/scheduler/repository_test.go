package scheduler

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/d0ssh1/Auto-Aquarium/internal/devicemgr"
)

func openSchedulerTestDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schedule.db")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema := `CREATE TABLE scheduled_jobs (
		id TEXT PRIMARY KEY, cron_expr TEXT NOT NULL, action TEXT NOT NULL, target TEXT NOT NULL,
		enabled INTEGER NOT NULL DEFAULT 1, next_run_time TEXT NOT NULL,
		created_at TEXT NOT NULL, updated_at TEXT NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("creating schema: %v", err)
	}
	return db
}

func TestSQLiteRepository_CreateGetUpdateDelete(t *testing.T) {
	db := openSchedulerTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	job := &ScheduledJob{
		ID: "j1", CronExpr: "0 21 * * *", Action: devicemgr.TurnOff, Target: "all", Enabled: true,
		NextRunTime: now.Add(time.Hour), CreatedAt: now, UpdatedAt: now,
	}
	if err := repo.Create(ctx, job); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.Get(ctx, "j1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.CronExpr != job.CronExpr || got.Action != job.Action || got.Target != job.Target {
		t.Errorf("Get() = %+v, want matching %+v", got, job)
	}

	got.Enabled = false
	got.UpdatedAt = now.Add(time.Minute)
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	reGot, err := repo.Get(ctx, "j1")
	if err != nil {
		t.Fatalf("Get() after update error = %v", err)
	}
	if reGot.Enabled {
		t.Error("Update() did not persist Enabled=false")
	}

	if err := repo.Delete(ctx, "j1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.Get(ctx, "j1"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrJobNotFound", err)
	}
}

func TestSQLiteRepository_UpdateMissingJob(t *testing.T) {
	db := openSchedulerTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	job := &ScheduledJob{ID: "missing", CronExpr: "* * * * *", Action: devicemgr.TurnOn, Target: "all"}
	if err := repo.Update(ctx, job); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("Update() error = %v, want ErrJobNotFound", err)
	}
}
