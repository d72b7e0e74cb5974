package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/openclinic/ehr-api/internal/model"
	"github.com/openclinic/ehr-api/internal/repository"
)

type labResultRepository struct {
	BaseRepository
}

func NewLabResultRepository(db *sqlx.DB) repository.LabResultRepository {
	return &labResultRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *labResultRepository) Create(ctx context.Context, result *model.LaboratoryResult) error {
	query := `
		INSERT INTO laboratory_results (id, patient_id, test_name, result, date)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.db.ExecContext(ctx, query,
		result.ID, result.PatientID, result.TestName, result.Result, result.Date,
	); err != nil {
		return fmt.Errorf("failed to create lab result: %w", translateError(err))
	}
	return nil
}

func (r *labResultRepository) Get(ctx context.Context, id uuid.UUID) (*model.LaboratoryResult, error) {
	var result model.LaboratoryResult
	if err := r.db.GetContext(ctx, &result, `SELECT * FROM laboratory_results WHERE id = $1`, id); err != nil {
		return nil, translateError(err)
	}
	return &result, nil
}

func (r *labResultRepository) Update(ctx context.Context, result *model.LaboratoryResult) error {
	query := `
		UPDATE laboratory_results
		SET test_name = $1, result = $2, date = $3
		WHERE id = $4
	`
	res, err := r.db.ExecContext(ctx, query, result.TestName, result.Result, result.Date, result.ID)
	if err != nil {
		return fmt.Errorf("failed to update lab result: %w", translateError(err))
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *labResultRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM laboratory_results WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete lab result: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *labResultRepository) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.LaboratoryResult, error) {
	query := `SELECT * FROM laboratory_results WHERE patient_id = $1 ORDER BY date DESC`
	var results []*model.LaboratoryResult
	if err := r.db.SelectContext(ctx, &results, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list lab results: %w", err)
	}
	return results, nil
}

type prescriptionRepository struct {
	BaseRepository
}

func NewPrescriptionRepository(db *sqlx.DB) repository.PrescriptionRepository {
	return &prescriptionRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *prescriptionRepository) Create(ctx context.Context, prescription *model.Prescription) error {
	query := `
		INSERT INTO prescriptions (id, patient_id, medication_name, dosage, frequency, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := r.db.ExecContext(ctx, query,
		prescription.ID, prescription.PatientID, prescription.MedicationName,
		prescription.Dosage, prescription.Frequency, prescription.StartDate, prescription.EndDate,
	); err != nil {
		return fmt.Errorf("failed to create prescription: %w", translateError(err))
	}
	return nil
}

func (r *prescriptionRepository) Get(ctx context.Context, id uuid.UUID) (*model.Prescription, error) {
	var prescription model.Prescription
	if err := r.db.GetContext(ctx, &prescription, `SELECT * FROM prescriptions WHERE id = $1`, id); err != nil {
		return nil, translateError(err)
	}
	return &prescription, nil
}

func (r *prescriptionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM prescriptions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete prescription: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *prescriptionRepository) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Prescription, error) {
	query := `SELECT * FROM prescriptions WHERE patient_id = $1 ORDER BY start_date DESC`
	var prescriptions []*model.Prescription
	if err := r.db.SelectContext(ctx, &prescriptions, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list prescriptions: %w", err)
	}
	return prescriptions, nil
}
