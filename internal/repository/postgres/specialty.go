package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/openclinic/ehr-api/internal/model"
	"github.com/openclinic/ehr-api/internal/repository"
)

type specialtyRepository struct {
	BaseRepository
}

func NewSpecialtyRepository(db *sqlx.DB) repository.SpecialtyRepository {
	return &specialtyRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *specialtyRepository) Create(ctx context.Context, specialty *model.Specialty) error {
	query := `INSERT INTO specialties (id, name) VALUES ($1, $2)`
	if _, err := r.db.ExecContext(ctx, query, specialty.ID, specialty.Name); err != nil {
		return fmt.Errorf("failed to create specialty: %w", translateError(err))
	}
	return nil
}

func (r *specialtyRepository) List(ctx context.Context) ([]*model.Specialty, error) {
	var specialties []*model.Specialty
	if err := r.db.SelectContext(ctx, &specialties, `SELECT * FROM specialties ORDER BY name`); err != nil {
		return nil, fmt.Errorf("failed to list specialties: %w", err)
	}
	return specialties, nil
}
