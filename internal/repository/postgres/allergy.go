package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/openclinic/ehr-api/internal/model"
	"github.com/openclinic/ehr-api/internal/repository"
)

type allergyRepository struct {
	BaseRepository
}

func NewAllergyRepository(db *sqlx.DB) repository.AllergyRepository {
	return &allergyRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *allergyRepository) Create(ctx context.Context, allergy *model.Allergy) error {
	query := `INSERT INTO allergies (id, name, description) VALUES ($1, $2, $3)`
	if _, err := r.db.ExecContext(ctx, query, allergy.ID, allergy.Name, allergy.Description); err != nil {
		return fmt.Errorf("failed to create allergy: %w", translateError(err))
	}
	return nil
}

func (r *allergyRepository) Get(ctx context.Context, id uuid.UUID) (*model.Allergy, error) {
	var allergy model.Allergy
	if err := r.db.GetContext(ctx, &allergy, `SELECT * FROM allergies WHERE id = $1`, id); err != nil {
		return nil, translateError(err)
	}
	return &allergy, nil
}

func (r *allergyRepository) GetByName(ctx context.Context, name string) (*model.Allergy, error) {
	var allergy model.Allergy
	if err := r.db.GetContext(ctx, &allergy, `SELECT * FROM allergies WHERE name = $1`, name); err != nil {
		return nil, translateError(err)
	}
	return &allergy, nil
}

func (r *allergyRepository) List(ctx context.Context) ([]*model.Allergy, error) {
	var allergies []*model.Allergy
	if err := r.db.SelectContext(ctx, &allergies, `SELECT * FROM allergies ORDER BY name`); err != nil {
		return nil, fmt.Errorf("failed to list allergies: %w", err)
	}
	return allergies, nil
}

func (r *allergyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM allergies WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete allergy: %w", translateError(err))
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

type medicalHistoryRepository struct {
	BaseRepository
}

func NewMedicalHistoryRepository(db *sqlx.DB) repository.MedicalHistoryRepository {
	return &medicalHistoryRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *medicalHistoryRepository) Create(ctx context.Context, entry *model.MedicalHistory) error {
	query := `
		INSERT INTO medical_history (id, patient_id, allergy_id, description, date)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.PatientID, entry.AllergyID, entry.Description, entry.Date,
	); err != nil {
		return fmt.Errorf("failed to create medical history: %w", translateError(err))
	}
	return nil
}

func (r *medicalHistoryRepository) Get(ctx context.Context, id uuid.UUID) (*model.MedicalHistory, error) {
	query := `
		SELECT mh.id, mh.patient_id, mh.allergy_id, mh.description, mh.date, a.name AS allergy_name
		FROM medical_history mh
		JOIN allergies a ON a.id = mh.allergy_id
		WHERE mh.id = $1
	`
	var entry model.MedicalHistory
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, translateError(err)
	}
	return &entry, nil
}

func (r *medicalHistoryRepository) Update(ctx context.Context, entry *model.MedicalHistory) error {
	query := `
		UPDATE medical_history
		SET allergy_id = $1, description = $2, date = $3
		WHERE id = $4
	`
	result, err := r.db.ExecContext(ctx, query, entry.AllergyID, entry.Description, entry.Date, entry.ID)
	if err != nil {
		return fmt.Errorf("failed to update medical history: %w", translateError(err))
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

func (r *medicalHistoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM medical_history WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete medical history: %w", err)
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

func (r *medicalHistoryRepository) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.MedicalHistory, error) {
	query := `
		SELECT mh.id, mh.patient_id, mh.allergy_id, mh.description, mh.date, a.name AS allergy_name
		FROM medical_history mh
		JOIN allergies a ON a.id = mh.allergy_id
		WHERE mh.patient_id = $1
		ORDER BY mh.date DESC
	`
	var entries []*model.MedicalHistory
	if err := r.db.SelectContext(ctx, &entries, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list medical history: %w", err)
	}
	return entries, nil
}

func (r *medicalHistoryRepository) CountForAllergy(ctx context.Context, allergyID uuid.UUID) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM medical_history WHERE allergy_id = $1`, allergyID); err != nil {
		return 0, fmt.Errorf("failed to count medical history: %w", err)
	}
	return count, nil
}
