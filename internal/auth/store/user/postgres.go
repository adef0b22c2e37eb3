package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"medilink/internal/auth/models"
	"medilink/pkg/platform/sentinel"
)

// PostgresStore persists users in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Schema creates the users table. Unique indexes back the race-free
// uniqueness guarantees the services rely on; empty email/phone are stored
// as NULL so partial identities don't collide.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id          UUID PRIMARY KEY,
	name        TEXT NOT NULL,
	email       TEXT UNIQUE,
	phone       TEXT UNIQUE,
	password    TEXT NOT NULL,
	role        TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
);`

// EnsureSchema applies the table definition.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure users schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, u models.User) error {
	query := `
		INSERT INTO users (id, name, email, phone, password, role, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		u.ID, u.Name, strings.ToLower(u.Email), u.Phone, u.PasswordHash, u.Role, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (models.User, error) {
	return s.findBy(ctx, "id = $1", id)
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return s.findBy(ctx, "email = $1", strings.ToLower(email))
}

func (s *PostgresStore) FindByPhone(ctx context.Context, phone string) (models.User, error) {
	return s.findBy(ctx, "phone = $1", phone)
}

func (s *PostgresStore) findBy(ctx context.Context, where string, arg any) (models.User, error) {
	query := `
		SELECT id, name, COALESCE(email, ''), COALESCE(phone, ''), password, role, created_at, updated_at
		FROM users WHERE ` + where
	var u models.User
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, sentinel.ErrNotFound
		}
		return models.User{}, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}
