package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"medilink/internal/patient/models"
	"medilink/pkg/platform/sentinel"
)

// PostgresStore persists patient records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const Schema = `
CREATE TABLE IF NOT EXISTS patients (
	id          UUID PRIMARY KEY,
	user_id     UUID NOT NULL UNIQUE,
	first_name  TEXT NOT NULL,
	last_name   TEXT NOT NULL,
	birth_date  TEXT NOT NULL,
	phone       TEXT NOT NULL,
	email       TEXT NOT NULL DEFAULT '',
	blood_group TEXT NOT NULL DEFAULT '',
	address     TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL
);`

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure patients schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, p models.Patient) error {
	query := `
		INSERT INTO patients (id, user_id, first_name, last_name, birth_date, phone, email, blood_group, address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		p.ID, p.UserID, p.FirstName, p.LastName, p.BirthDate, p.Phone, p.Email, p.BloodGroup, p.Address, p.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert patient: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (models.Patient, error) {
	return s.findBy(ctx, "id = $1", id)
}

func (s *PostgresStore) FindByUserID(ctx context.Context, userID string) (models.Patient, error) {
	return s.findBy(ctx, "user_id = $1", userID)
}

func (s *PostgresStore) findBy(ctx context.Context, where string, arg any) (models.Patient, error) {
	query := `
		SELECT id, user_id, first_name, last_name, birth_date, phone, email, blood_group, address, created_at
		FROM patients WHERE ` + where
	var p models.Patient
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&p.ID, &p.UserID, &p.FirstName, &p.LastName, &p.BirthDate, &p.Phone, &p.Email, &p.BloodGroup, &p.Address, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Patient{}, sentinel.ErrNotFound
		}
		return models.Patient{}, fmt.Errorf("find patient: %w", err)
	}
	return p, nil
}
