package auth

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Service is the login/bootstrap surface the HTTP handlers drive.
type Service struct {
	repo   Repository
	secret string
	ttl    time.Duration
}

func NewService(repo Repository, secret string, ttl time.Duration) *Service {
	return &Service{repo: repo, secret: secret, ttl: ttl}
}

// Login verifies username/password against the operator table and, on
// success, issues a signed bearer token.
func (s *Service) Login(ctx context.Context, username, password string) (string, *Operator, error) {
	op, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrOperatorNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	ok, err := VerifyPassword(password, op.PasswordHash)
	if err != nil {
		return "", nil, fmt.Errorf("auth: verifying password: %w", err)
	}
	if !ok {
		return "", nil, ErrInvalidCredentials
	}

	token, err := GenerateToken(op, s.secret, s.ttl)
	if err != nil {
		return "", nil, err
	}
	return token, op, nil
}

// Authenticate validates a bearer token and loads the operator it names.
func (s *Service) Authenticate(ctx context.Context, token string) (*Operator, error) {
	claims, err := ParseToken(token, s.secret)
	if err != nil {
		return nil, err
	}
	op, err := s.repo.GetByID(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	return op, nil
}

// CreateOperator hashes password and stores a new operator account.
// Used by the bootstrap seed on first run and by admin-only account
// creation.
func (s *Service) CreateOperator(ctx context.Context, username, password string, role Role) (*Operator, error) {
	if !IsValidRole(role) {
		return nil, fmt.Errorf("auth: invalid role %q", role)
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	op := &Operator{Username: username, PasswordHash: hash, Role: role}
	if err := s.repo.Create(ctx, op); err != nil {
		return nil, err
	}
	return op, nil
}
