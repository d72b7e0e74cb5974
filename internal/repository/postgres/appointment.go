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

type appointmentRepository struct {
	BaseRepository
}

func NewAppointmentRepository(db *sqlx.DB) repository.AppointmentRepository {
	return &appointmentRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (id, patient_id, doctor_id, date, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		appointment.ID,
		appointment.PatientID,
		appointment.DoctorID,
		appointment.Date,
		appointment.Status,
		appointment.Notes,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", translateError(err))
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `SELECT * FROM appointments WHERE id = $1`
	var appointment model.Appointment
	if err := r.db.GetContext(ctx, &appointment, query, id); err != nil {
		return nil, translateError(err)
	}
	return &appointment, nil
}

func (r *appointmentRepository) Update(ctx context.Context, appointment *model.Appointment) error {
	query := `
		UPDATE appointments
		SET date = $1, status = $2, notes = $3, updated_at = $4
		WHERE id = $5
	`
	appointment.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx, query,
		appointment.Date,
		appointment.Status,
		appointment.Notes,
		appointment.UpdatedAt,
		appointment.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", translateError(err))
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

func (r *appointmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
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

func (r *appointmentRepository) ListForDoctor(ctx context.Context, doctorID uuid.UUID, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	query := `SELECT * FROM appointments WHERE doctor_id = $1`
	args := []interface{}{doctorID}
	argCount := 2

	if filters != nil {
		if filters.PatientID != uuid.Nil {
			query += fmt.Sprintf(" AND patient_id = $%d", argCount)
			args = append(args, filters.PatientID)
			argCount++
		}
		if filters.Status != "" {
			query += fmt.Sprintf(" AND status = $%d", argCount)
			args = append(args, filters.Status)
			argCount++
		}
		if !filters.From.IsZero() {
			query += fmt.Sprintf(" AND date >= $%d", argCount)
			args = append(args, filters.From)
			argCount++
		}
		if !filters.To.IsZero() {
			query += fmt.Sprintf(" AND date <= $%d", argCount)
			args = append(args, filters.To)
			argCount++
		}
	}
	query += " ORDER BY date ASC"

	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ExistsForDoctorAt(ctx context.Context, doctorID uuid.UUID, date time.Time, excludeID *uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE doctor_id = $1 AND date = $2
	`
	args := []interface{}{doctorID, date}

	if excludeID != nil {
		query += " AND id != $3"
		args = append(args, *excludeID)
	}
	query += ")"

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, args...); err != nil {
		return false, fmt.Errorf("failed to check appointment conflict: %w", err)
	}
	return exists, nil
}
