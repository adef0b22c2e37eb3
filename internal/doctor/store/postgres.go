package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"medilink/internal/doctor/models"
	"medilink/pkg/platform/sentinel"
)

// PostgresStore persists doctor records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const Schema = `
CREATE TABLE IF NOT EXISTS doctors (
	id             UUID PRIMARY KEY,
	user_id        UUID NOT NULL UNIQUE,
	first_name     TEXT NOT NULL,
	last_name      TEXT NOT NULL,
	specialty      TEXT NOT NULL,
	license_number TEXT NOT NULL UNIQUE,
	license_path   TEXT NOT NULL,
	practice_city  TEXT NOT NULL,
	phone          TEXT NOT NULL DEFAULT '',
	email          TEXT NOT NULL,
	is_verified    BOOLEAN NOT NULL DEFAULT FALSE,
	created_at     TIMESTAMPTZ NOT NULL
);`

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure doctors schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, d models.Doctor) error {
	query := `
		INSERT INTO doctors (id, user_id, first_name, last_name, specialty, license_number, license_path, practice_city, phone, email, is_verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := s.db.ExecContext(ctx, query,
		d.ID, d.UserID, d.FirstName, d.LastName, d.Specialty, d.LicenseNumber,
		d.LicenseDocumentPath, d.PracticeCity, d.Phone, d.Email, d.IsVerified, d.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert doctor: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (models.Doctor, error) {
	return s.findBy(ctx, "id = $1", id)
}

func (s *PostgresStore) FindByLicenseNumber(ctx context.Context, licenseNumber string) (models.Doctor, error) {
	return s.findBy(ctx, "license_number = $1", licenseNumber)
}

func (s *PostgresStore) FindByUserID(ctx context.Context, userID string) (models.Doctor, error) {
	return s.findBy(ctx, "user_id = $1", userID)
}

func (s *PostgresStore) SetVerified(ctx context.Context, id string, verified bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE doctors SET is_verified = $2 WHERE id = $1`, id, verified)
	if err != nil {
		return fmt.Errorf("update doctor verification: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update doctor verification: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) findBy(ctx context.Context, where string, arg any) (models.Doctor, error) {
	query := `
		SELECT id, user_id, first_name, last_name, specialty, license_number, license_path, practice_city, phone, email, is_verified, created_at
		FROM doctors WHERE ` + where
	var d models.Doctor
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&d.ID, &d.UserID, &d.FirstName, &d.LastName, &d.Specialty, &d.LicenseNumber,
		&d.LicenseDocumentPath, &d.PracticeCity, &d.Phone, &d.Email, &d.IsVerified, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Doctor{}, sentinel.ErrNotFound
		}
		return models.Doctor{}, fmt.Errorf("find doctor: %w", err)
	}
	return d, nil
}
