package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Repository persists Operator accounts, backed by the operators table
// created by migrations/20260101_000001_initial_schema.up.sql.
type Repository interface {
	Create(ctx context.Context, op *Operator) error
	GetByUsername(ctx context.Context, username string) (*Operator, error)
	GetByID(ctx context.Context, id string) (*Operator, error)
}

const operatorColumns = `id, username, password_hash, role, created_at, updated_at`

// SQLiteRepository implements Repository over SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, op *Operator) error {
	if op.ID == "" {
		op.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	op.CreatedAt, op.UpdatedAt = now, now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO operators (`+operatorColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		op.ID, op.Username, op.PasswordHash, string(op.Role),
		op.CreatedAt.Format(time.RFC3339), op.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUsernameExists
		}
		return fmt.Errorf("auth: creating operator: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByUsername(ctx context.Context, username string) (*Operator, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+operatorColumns+` FROM operators WHERE username = ?`, username)
	return scanOperator(row)
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Operator, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+operatorColumns+` FROM operators WHERE id = ?`, id)
	return scanOperator(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOperator(row rowScanner) (*Operator, error) {
	var op Operator
	var role, createdAt, updatedAt string
	err := row.Scan(&op.ID, &op.Username, &op.PasswordHash, &role, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOperatorNotFound
		}
		return nil, fmt.Errorf("auth: scanning operator: %w", err)
	}
	op.Role = Role(role)
	op.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	op.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &op, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
