package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/openclinic/ehr-api/internal/model"
	"github.com/openclinic/ehr-api/internal/repository"
	"github.com/openclinic/ehr-api/internal/storage"
)

type patientRepository struct {
	BaseRepository
}

func NewPatientRepository(db *sqlx.DB) repository.PatientRepository {
	return &patientRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient, demo *model.DemographicInfo, social *model.SocialHistory) error {
	return r.WithTx(ctx, "patient_create", func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO patients (
				id, doctor_id, first_name, last_name, email, phone_number,
				age, gender, date_of_birth, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`
		if _, err := tx.ExecContext(ctx, query,
			patient.ID,
			patient.DoctorID,
			patient.FirstName,
			patient.LastName,
			patient.Email,
			patient.PhoneNumber,
			patient.Age,
			patient.Gender,
			patient.DateOfBirth,
			patient.CreatedAt,
			patient.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to create patient: %w", translateError(err))
		}

		if !demo.IsEmpty() {
			if err := insertDemographic(ctx, tx, demo); err != nil {
				return err
			}
		}
		if !social.IsEmpty() {
			if err := insertSocialHistory(ctx, tx, social); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	query := `SELECT * FROM patients WHERE id = $1`
	var patient model.Patient
	if err := r.db.GetContext(ctx, &patient, query, id); err != nil {
		return nil, translateError(err)
	}
	return &patient, nil
}

func (r *patientRepository) Update(ctx context.Context, patient *model.Patient, demo *model.DemographicInfo, social *model.SocialHistory) error {
	return r.WithTx(ctx, "patient_update", func(tx *sqlx.Tx) error {
		query := `
			UPDATE patients
			SET first_name = $1, last_name = $2, email = $3, phone_number = $4,
			    age = $5, gender = $6, date_of_birth = $7, updated_at = $8
			WHERE id = $9
		`
		patient.UpdatedAt = time.Now().UTC()
		result, err := tx.ExecContext(ctx, query,
			patient.FirstName,
			patient.LastName,
			patient.Email,
			patient.PhoneNumber,
			patient.Age,
			patient.Gender,
			patient.DateOfBirth,
			patient.UpdatedAt,
			patient.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update patient: %w", translateError(err))
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return repository.ErrNotFound
		}

		// Sub-record creation stays lazy, but an existing row always takes
		// the submitted values so cleared fields actually clear.
		if demo.IsEmpty() {
			if err := updateDemographic(ctx, tx, demo); err != nil {
				return err
			}
		} else if err := upsertDemographic(ctx, tx, demo); err != nil {
			return err
		}
		if social.IsEmpty() {
			if err := updateSocialHistory(ctx, tx, social); err != nil {
				return err
			}
		} else if err := upsertSocialHistory(ctx, tx, social); err != nil {
			return err
		}
		return nil
	})
}

func (r *patientRepository) DeleteCascade(ctx context.Context, id uuid.UUID) ([]string, error) {
	var filenames []string
	err := r.WithTx(ctx, "patient_cascade_delete", func(tx *sqlx.Tx) error {
		names, err := deletePatientRows(ctx, tx, id)
		if err != nil {
			return err
		}
		filenames = names
		return nil
	})
	if err != nil {
		return nil, err
	}
	return filenames, nil
}

func (r *patientRepository) List(ctx context.Context, doctorID uuid.UUID, filters *model.PatientFilters) ([]*model.Patient, error) {
	query := `SELECT * FROM patients WHERE doctor_id = $1`
	args := []interface{}{doctorID}

	if filters != nil && filters.Search != "" {
		query += ` AND (first_name ILIKE $2 OR last_name ILIKE $2)`
		args = append(args, "%"+filters.Search+"%")
	}
	query += ` ORDER BY last_name, first_name`

	var patients []*model.Patient
	if err := r.db.SelectContext(ctx, &patients, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}

func (r *patientRepository) GetDemographic(ctx context.Context, patientID uuid.UUID) (*model.DemographicInfo, error) {
	query := `SELECT * FROM demographic_info WHERE patient_id = $1`
	var demo model.DemographicInfo
	if err := r.db.GetContext(ctx, &demo, query, patientID); err != nil {
		return nil, translateError(err)
	}
	return &demo, nil
}

func (r *patientRepository) GetSocialHistory(ctx context.Context, patientID uuid.UUID) (*model.SocialHistory, error) {
	query := `SELECT * FROM social_history WHERE patient_id = $1`
	var social model.SocialHistory
	if err := r.db.GetContext(ctx, &social, query, patientID); err != nil {
		return nil, translateError(err)
	}
	return &social, nil
}

func insertDemographic(ctx context.Context, tx *sqlx.Tx, demo *model.DemographicInfo) error {
	query := `
		INSERT INTO demographic_info (id, patient_id, address, phone_number, emergency_contact)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := tx.ExecContext(ctx, query,
		demo.ID, demo.PatientID, demo.Address, demo.PhoneNumber, demo.EmergencyContact,
	); err != nil {
		return fmt.Errorf("failed to create demographic info: %w", translateError(err))
	}
	return nil
}

// upsertDemographic mutates the existing one-to-one row or creates it; the
// patient_id uniqueness constraint guarantees a single row either way.
func upsertDemographic(ctx context.Context, tx *sqlx.Tx, demo *model.DemographicInfo) error {
	query := `
		INSERT INTO demographic_info (id, patient_id, address, phone_number, emergency_contact)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (patient_id) DO UPDATE
		SET address = EXCLUDED.address,
		    phone_number = EXCLUDED.phone_number,
		    emergency_contact = EXCLUDED.emergency_contact
	`
	if _, err := tx.ExecContext(ctx, query,
		demo.ID, demo.PatientID, demo.Address, demo.PhoneNumber, demo.EmergencyContact,
	); err != nil {
		return fmt.Errorf("failed to upsert demographic info: %w", translateError(err))
	}
	return nil
}

// updateDemographic writes to an existing row only; with no row present it
// affects nothing, which is how an all-empty submission avoids creating one.
func updateDemographic(ctx context.Context, tx *sqlx.Tx, demo *model.DemographicInfo) error {
	query := `
		UPDATE demographic_info
		SET address = $2, phone_number = $3, emergency_contact = $4
		WHERE patient_id = $1
	`
	if _, err := tx.ExecContext(ctx, query,
		demo.PatientID, demo.Address, demo.PhoneNumber, demo.EmergencyContact,
	); err != nil {
		return fmt.Errorf("failed to update demographic info: %w", err)
	}
	return nil
}

func insertSocialHistory(ctx context.Context, tx *sqlx.Tx, social *model.SocialHistory) error {
	query := `
		INSERT INTO social_history (id, patient_id, smoking_status, smoking_units, alcohol_use, drug_use, occupation)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := tx.ExecContext(ctx, query,
		social.ID, social.PatientID, social.SmokingStatus, social.SmokingUnits,
		social.AlcoholUse, social.DrugUse, social.Occupation,
	); err != nil {
		return fmt.Errorf("failed to create social history: %w", translateError(err))
	}
	return nil
}

func upsertSocialHistory(ctx context.Context, tx *sqlx.Tx, social *model.SocialHistory) error {
	query := `
		INSERT INTO social_history (id, patient_id, smoking_status, smoking_units, alcohol_use, drug_use, occupation)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (patient_id) DO UPDATE
		SET smoking_status = EXCLUDED.smoking_status,
		    smoking_units = EXCLUDED.smoking_units,
		    alcohol_use = EXCLUDED.alcohol_use,
		    drug_use = EXCLUDED.drug_use,
		    occupation = EXCLUDED.occupation
	`
	if _, err := tx.ExecContext(ctx, query,
		social.ID, social.PatientID, social.SmokingStatus, social.SmokingUnits,
		social.AlcoholUse, social.DrugUse, social.Occupation,
	); err != nil {
		return fmt.Errorf("failed to upsert social history: %w", translateError(err))
	}
	return nil
}

func updateSocialHistory(ctx context.Context, tx *sqlx.Tx, social *model.SocialHistory) error {
	query := `
		UPDATE social_history
		SET smoking_status = $2, smoking_units = $3, alcohol_use = $4, drug_use = $5, occupation = $6
		WHERE patient_id = $1
	`
	if _, err := tx.ExecContext(ctx, query,
		social.PatientID, social.SmokingStatus, social.SmokingUnits,
		social.AlcoholUse, social.DrugUse, social.Occupation,
	); err != nil {
		return fmt.Errorf("failed to update social history: %w", err)
	}
	return nil
}

// deletePatientRows removes every row referencing the patient, then the
// patient itself. It returns the storage paths of deleted radiology images
// so callers can remove the backing files after commit.
func deletePatientRows(ctx context.Context, tx *sqlx.Tx, patientID uuid.UUID) ([]string, error) {
	var filenames []string
	if err := tx.SelectContext(ctx, &filenames,
		`SELECT image_filename FROM radiology_imaging WHERE patient_id = $1 AND image_filename IS NOT NULL`,
		patientID); err != nil {
		return nil, fmt.Errorf("failed to collect image filenames: %w", err)
	}
	for i, name := range filenames {
		filenames[i] = storage.PatientPath(patientID, name)
	}

	dependents := []string{
		`DELETE FROM appointments WHERE patient_id = $1`,
		`DELETE FROM laboratory_results WHERE patient_id = $1`,
		`DELETE FROM medical_history WHERE patient_id = $1`,
		`DELETE FROM prescriptions WHERE patient_id = $1`,
		`DELETE FROM radiology_imaging WHERE patient_id = $1`,
		`DELETE FROM demographic_info WHERE patient_id = $1`,
		`DELETE FROM social_history WHERE patient_id = $1`,
	}
	for _, query := range dependents {
		if _, err := tx.ExecContext(ctx, query, patientID); err != nil {
			return nil, fmt.Errorf("failed to cascade delete: %w", err)
		}
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM patients WHERE id = $1`, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete patient: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, repository.ErrNotFound
	}
	return filenames, nil
}
