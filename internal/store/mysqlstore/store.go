package mysqlstore

import (
	"context"
	"database/sql"

	"backend-checkin/internal/models"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// UpsertPatient - Simpan/timpa data pasien per nomor HP (idempotent)
func (s *Store) UpsertPatient(ctx context.Context, patient models.Patient) error {
	nationalID := sql.NullString{String: patient.NationalID, Valid: patient.NationalID != ""}

	query := `
		INSERT INTO patients (phone_number, full_name, national_id, created_at)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			full_name = VALUES(full_name),
			national_id = VALUES(national_id)
	`

	_, err := s.db.ExecContext(ctx, query,
		patient.PhoneNumber, patient.FullName, nationalID, patient.CreatedAt)
	return err
}
