package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/openclinic/ehr-api/internal/model"
	"github.com/openclinic/ehr-api/internal/repository"
)

type doctorRepository struct {
	BaseRepository
}

func NewDoctorRepository(db *sqlx.DB) repository.DoctorRepository {
	return &doctorRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *doctorRepository) Create(ctx context.Context, doctor *model.Doctor) error {
	query := `
		INSERT INTO doctors (
			id, first_name, last_name, username, phone_number, email,
			email_confirmed, email_confirmed_at, password_hash, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query,
		doctor.ID,
		doctor.FirstName,
		doctor.LastName,
		doctor.Username,
		doctor.PhoneNumber,
		doctor.Email,
		doctor.EmailConfirmed,
		doctor.EmailConfirmedAt,
		doctor.PasswordHash,
		doctor.CreatedAt,
		doctor.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create doctor: %w", translateError(err))
	}
	return nil
}

func (r *doctorRepository) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	query := `SELECT * FROM doctors WHERE id = $1`
	var doctor model.Doctor
	if err := r.db.GetContext(ctx, &doctor, query, id); err != nil {
		return nil, translateError(err)
	}
	return &doctor, nil
}

func (r *doctorRepository) GetByUsername(ctx context.Context, username string) (*model.Doctor, error) {
	query := `SELECT * FROM doctors WHERE username = $1`
	var doctor model.Doctor
	if err := r.db.GetContext(ctx, &doctor, query, username); err != nil {
		return nil, translateError(err)
	}
	return &doctor, nil
}

func (r *doctorRepository) GetByEmail(ctx context.Context, email string) (*model.Doctor, error) {
	query := `SELECT * FROM doctors WHERE LOWER(email) = LOWER($1)`
	var doctor model.Doctor
	if err := r.db.GetContext(ctx, &doctor, query, email); err != nil {
		return nil, translateError(err)
	}
	return &doctor, nil
}

func (r *doctorRepository) Update(ctx context.Context, doctor *model.Doctor) error {
	query := `
		UPDATE doctors
		SET first_name = $1, last_name = $2, phone_number = $3, updated_at = $4
		WHERE id = $5
	`
	doctor.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx, query,
		doctor.FirstName,
		doctor.LastName,
		doctor.PhoneNumber,
		doctor.UpdatedAt,
		doctor.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update doctor: %w", translateError(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *doctorRepository) ConfirmEmail(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE doctors
		SET email_confirmed = TRUE, email_confirmed_at = $1, updated_at = $1
		WHERE id = $2
	`
	result, err := r.db.ExecContext(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("failed to confirm email: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *doctorRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := `UPDATE doctors SET password_hash = $1, updated_at = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, passwordHash, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *doctorRepository) DeleteCascade(ctx context.Context, id uuid.UUID) ([]string, error) {
	var filenames []string
	err := r.WithTx(ctx, "doctor_cascade_delete", func(tx *sqlx.Tx) error {
		var patientIDs []uuid.UUID
		if err := tx.SelectContext(ctx, &patientIDs,
			`SELECT id FROM patients WHERE doctor_id = $1`, id); err != nil {
			return fmt.Errorf("failed to list patients: %w", err)
		}

		for _, patientID := range patientIDs {
			names, err := deletePatientRows(ctx, tx, patientID)
			if err != nil {
				return err
			}
			filenames = append(filenames, names...)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM doctor_specialty WHERE doctor_id = $1`, id); err != nil {
			return fmt.Errorf("failed to clear specialties: %w", err)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM doctors WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete doctor: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return repository.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return filenames, nil
}

func (r *doctorRepository) ListUnconfirmedBefore(ctx context.Context, cutoff time.Time) ([]*model.Doctor, error) {
	query := `SELECT * FROM doctors WHERE email_confirmed = FALSE AND created_at < $1`
	var doctors []*model.Doctor
	if err := r.db.SelectContext(ctx, &doctors, query, cutoff); err != nil {
		return nil, fmt.Errorf("failed to list unconfirmed doctors: %w", err)
	}
	return doctors, nil
}

func (r *doctorRepository) SetSpecialties(ctx context.Context, doctorID uuid.UUID, specialtyIDs []uuid.UUID) error {
	return r.WithTx(ctx, "doctor_set_specialties", func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM doctor_specialty WHERE doctor_id = $1`, doctorID); err != nil {
			return fmt.Errorf("failed to clear specialties: %w", err)
		}
		for _, specialtyID := range specialtyIDs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO doctor_specialty (doctor_id, specialty_id) VALUES ($1, $2)`,
				doctorID, specialtyID); err != nil {
				return fmt.Errorf("failed to assign specialty: %w", translateError(err))
			}
		}
		return nil
	})
}

func (r *doctorRepository) ListSpecialties(ctx context.Context, doctorID uuid.UUID) ([]*model.Specialty, error) {
	query := `
		SELECT s.id, s.name
		FROM specialties s
		JOIN doctor_specialty ds ON ds.specialty_id = s.id
		WHERE ds.doctor_id = $1
		ORDER BY s.name
	`
	var specialties []*model.Specialty
	if err := r.db.SelectContext(ctx, &specialties, query, doctorID); err != nil {
		return nil, fmt.Errorf("failed to list specialties: %w", err)
	}
	return specialties, nil
}
