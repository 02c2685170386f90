package auth

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func openAuthTestDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "operators.db")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema := `CREATE TABLE operators (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("creating schema: %v", err)
	}
	return db
}

func TestSQLiteRepository_CreateGetByUsernameGetByID(t *testing.T) {
	db := openAuthTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	op := &Operator{Username: "alice", PasswordHash: "hash", Role: RoleAdmin}
	if err := repo.Create(ctx, op); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if op.ID == "" {
		t.Fatal("Create() did not assign an ID")
	}

	byUsername, err := repo.GetByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetByUsername() error = %v", err)
	}
	if byUsername.ID != op.ID || byUsername.Role != RoleAdmin {
		t.Errorf("GetByUsername() = %+v, want matching %+v", byUsername, op)
	}

	byID, err := repo.GetByID(ctx, op.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if byID.Username != "alice" {
		t.Errorf("GetByID().Username = %q, want alice", byID.Username)
	}
}

func TestSQLiteRepository_CreateDuplicateUsernameFails(t *testing.T) {
	db := openAuthTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	if err := repo.Create(ctx, &Operator{Username: "bob", PasswordHash: "h1", Role: RoleOperator}); err != nil {
		t.Fatalf("first Create() error = %v", err)
	}

	err := repo.Create(ctx, &Operator{Username: "bob", PasswordHash: "h2", Role: RoleOperator})
	if !errors.Is(err, ErrUsernameExists) {
		t.Fatalf("second Create() error = %v, want ErrUsernameExists", err)
	}
}

func TestSQLiteRepository_GetByUsernameNotFound(t *testing.T) {
	db := openAuthTestDB(t)
	repo := NewSQLiteRepository(db)

	_, err := repo.GetByUsername(context.Background(), "nobody")
	if !errors.Is(err, ErrOperatorNotFound) {
		t.Fatalf("GetByUsername() error = %v, want ErrOperatorNotFound", err)
	}
}

func TestSQLiteRepository_GetByIDNotFound(t *testing.T) {
	db := openAuthTestDB(t)
	repo := NewSQLiteRepository(db)

	_, err := repo.GetByID(context.Background(), "missing-id")
	if !errors.Is(err, ErrOperatorNotFound) {
		t.Fatalf("GetByID() error = %v, want ErrOperatorNotFound", err)
	}
}
