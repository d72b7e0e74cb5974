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

type radiologyRepository struct {
	BaseRepository
}

func NewRadiologyRepository(db *sqlx.DB) repository.RadiologyRepository {
	return &radiologyRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *radiologyRepository) Create(ctx context.Context, imaging *model.RadiologyImaging) error {
	query := `
		INSERT INTO radiology_imaging (id, patient_id, name, date, image_filename, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := r.db.ExecContext(ctx, query,
		imaging.ID, imaging.PatientID, imaging.Name, imaging.Date,
		imaging.ImageFilename, imaging.CreatedAt, imaging.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to create radiology imaging: %w", translateError(err))
	}
	return nil
}

func (r *radiologyRepository) Get(ctx context.Context, id uuid.UUID) (*model.RadiologyImaging, error) {
	var imaging model.RadiologyImaging
	if err := r.db.GetContext(ctx, &imaging, `SELECT * FROM radiology_imaging WHERE id = $1`, id); err != nil {
		return nil, translateError(err)
	}
	return &imaging, nil
}

func (r *radiologyRepository) Update(ctx context.Context, imaging *model.RadiologyImaging) error {
	query := `
		UPDATE radiology_imaging
		SET name = $1, date = $2, image_filename = $3, updated_at = $4
		WHERE id = $5
	`
	imaging.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx, query,
		imaging.Name, imaging.Date, imaging.ImageFilename, imaging.UpdatedAt, imaging.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update radiology imaging: %w", translateError(err))
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

func (r *radiologyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM radiology_imaging WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete radiology imaging: %w", err)
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

func (r *radiologyRepository) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.RadiologyImaging, error) {
	query := `SELECT * FROM radiology_imaging WHERE patient_id = $1 ORDER BY date DESC`
	var imagings []*model.RadiologyImaging
	if err := r.db.SelectContext(ctx, &imagings, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list radiology imaging: %w", err)
	}
	return imagings, nil
}
