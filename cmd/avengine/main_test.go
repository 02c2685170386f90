package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/d0ssh1/Auto-Aquarium/internal/auth"
	"github.com/d0ssh1/Auto-Aquarium/internal/infrastructure/config"
	"github.com/d0ssh1/Auto-Aquarium/internal/infrastructure/database"
	"github.com/d0ssh1/Auto-Aquarium/internal/infrastructure/logging"
)

func TestGetConfigPath_Default(t *testing.T) {
	t.Setenv("AVENGINE_CONFIG", "")
	if path := getConfigPath(); path != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", path, defaultConfigPath)
	}
}

func TestGetConfigPath_EnvOverride(t *testing.T) {
	t.Setenv("AVENGINE_CONFIG", "/custom/path/config.yaml")
	if path := getConfigPath(); path != "/custom/path/config.yaml" {
		t.Errorf("getConfigPath() = %q, want %q", path, "/custom/path/config.yaml")
	}
}

func TestRun_InvalidConfigPath(t *testing.T) {
	t.Setenv("AVENGINE_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with a missing config file")
	}
}

func TestRun_InvalidConfigContent(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	// max_concurrency: 0 fails config.Validate, so run() must refuse to
	// start before touching the database or any network dependency.
	content := `
max_concurrency: 0
schedule_db_path: "` + filepath.Join(tmpDir, "schedule.db") + `"
report_dir: "` + filepath.Join(tmpDir, "reports") + `"
log_dir: "` + filepath.Join(tmpDir, "logs") + `"
timezone: "UTC"
security:
  jwt_secret: "test-secret-at-least-16-chars"
`
	if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
		t.Fatalf("writing test config: %v", err)
	}
	t.Setenv("AVENGINE_CONFIG", configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil {
		t.Fatal("run() should fail validating an invalid config")
	}
	if !errors.Is(err, config.ErrInvalid) {
		t.Errorf("run() error = %v, want wrapping config.ErrInvalid", err)
	}
}

func TestRun_StartupAndShutdown(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
max_concurrency: 4
monitor_interval_sec: 60
schedule_db_path: "` + filepath.Join(tmpDir, "schedule.db") + `"
report_dir: "` + filepath.Join(tmpDir, "reports") + `"
log_dir: "` + filepath.Join(tmpDir, "logs") + `"
timezone: "UTC"
server:
  host: "127.0.0.1"
  port: 0
  read_timeout_sec: 5
  write_timeout_sec: 5
  idle_timeout_sec: 5
security:
  jwt_secret: "test-secret-at-least-16-chars"
  bootstrap_admin_username: "admin"
  bootstrap_admin_password: "admin"
logging:
  level: error
  format: text
  output: stdout
`
	if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
		t.Fatalf("writing test config: %v", err)
	}
	t.Setenv("AVENGINE_CONFIG", configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := run(ctx); err != nil {
		t.Fatalf("run() error = %v", err)
	}
}

func TestBootstrapAdmin_CreatesAccountOnce(t *testing.T) {
	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "auth.db"), WALMode: true, BusyTimeout: 5})
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	defer db.Close()
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrating test db: %v", err)
	}

	repo := auth.NewSQLiteRepository(db.DB)
	authSvc := auth.NewService(repo, "test-secret-at-least-16-chars", 15*time.Minute)
	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")
	cfg := config.SecurityConfig{BootstrapAdminUsername: "admin", BootstrapAdminPassword: "admin"}

	if err := bootstrapAdmin(context.Background(), authSvc, repo, cfg, log); err != nil {
		t.Fatalf("bootstrapAdmin() error = %v", err)
	}

	op, err := repo.GetByUsername(context.Background(), "admin")
	if err != nil {
		t.Fatalf("GetByUsername() error = %v", err)
	}
	firstID := op.ID

	// A second call with the same username must not touch the existing account.
	if err := bootstrapAdmin(context.Background(), authSvc, repo, cfg, log); err != nil {
		t.Fatalf("bootstrapAdmin() second call error = %v", err)
	}
	again, err := repo.GetByUsername(context.Background(), "admin")
	if err != nil {
		t.Fatalf("GetByUsername() after second call error = %v", err)
	}
	if again.ID != firstID {
		t.Errorf("bootstrapAdmin() recreated the admin account: got ID %q, want %q", again.ID, firstID)
	}
}

func TestBootstrapAdmin_NoUsernameConfigured(t *testing.T) {
	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "auth.db"), WALMode: true, BusyTimeout: 5})
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	defer db.Close()
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrating test db: %v", err)
	}

	repo := auth.NewSQLiteRepository(db.DB)
	authSvc := auth.NewService(repo, "test-secret-at-least-16-chars", 15*time.Minute)
	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")

	if err := bootstrapAdmin(context.Background(), authSvc, repo, config.SecurityConfig{}, log); err != nil {
		t.Fatalf("bootstrapAdmin() error = %v", err)
	}

	if _, err := repo.GetByUsername(context.Background(), "admin"); !errors.Is(err, auth.ErrOperatorNotFound) {
		t.Errorf("GetByUsername(admin) error = %v, want ErrOperatorNotFound", err)
	}
}
