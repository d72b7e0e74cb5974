package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/openclinic/ehr-api/internal/model"
	"github.com/openclinic/ehr-api/internal/repository"
	"github.com/openclinic/ehr-api/internal/service/access"
	apperrors "github.com/openclinic/ehr-api/pkg/errors"
)

type AppointmentService interface {
	Schedule(ctx context.Context, doctorID uuid.UUID, req *model.ScheduleAppointmentRequest) (*model.Appointment, error)
	Get(ctx context.Context, doctorID, appointmentID uuid.UUID) (*model.Appointment, error)
	Update(ctx context.Context, doctorID, appointmentID uuid.UUID, req *model.UpdateAppointmentRequest) (*model.Appointment, error)
	Delete(ctx context.Context, doctorID, appointmentID uuid.UUID) error
	List(ctx context.Context, doctorID uuid.UUID, filters *model.AppointmentFilters) ([]*model.Appointment, error)
}

type Service struct {
	repo  repository.AppointmentRepository
	guard *access.Guard
}

func NewService(repo repository.AppointmentRepository, guard *access.Guard) *Service {
	return &Service{repo: repo, guard: guard}
}

func (s *Service) Schedule(ctx context.Context, doctorID uuid.UUID, req *model.ScheduleAppointmentRequest) (*model.Appointment, error) {
	if _, err := s.guard.Patient(ctx, doctorID, req.PatientID); err != nil {
		return nil, err
	}

	var ve apperrors.ValidationErrors
	date, err := model.ParseDateTime(req.Date)
	if err != nil {
		ve.Add("invalid appointment date format")
	}
	if err := ve.ErrOrNil(); err != nil {
		return nil, err
	}

	if err := s.checkConflict(ctx, doctorID, date, nil); err != nil {
		return nil, err
	}

	appointment := &model.Appointment{
		Base:      model.NewBase(),
		PatientID: req.PatientID,
		DoctorID:  doctorID,
		Date:      date,
		Status:    model.AppointmentStatusScheduled,
		Notes:     optional(req.Notes),
	}

	if err := s.repo.Create(ctx, appointment); err != nil {
		// A concurrent insert can slip past the pre-check; the unique
		// constraint reports it through the same validation channel.
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflictError(date)
		}
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}
	return appointment, nil
}

func (s *Service) Get(ctx context.Context, doctorID, appointmentID uuid.UUID) (*model.Appointment, error) {
	return s.authorize(ctx, doctorID, appointmentID)
}

func (s *Service) Update(ctx context.Context, doctorID, appointmentID uuid.UUID, req *model.UpdateAppointmentRequest) (*model.Appointment, error) {
	appointment, err := s.authorize(ctx, doctorID, appointmentID)
	if err != nil {
		return nil, err
	}

	var ve apperrors.ValidationErrors
	date, err := model.ParseDateTime(req.Date)
	if err != nil {
		ve.Add("invalid appointment date format")
	}
	status, err := model.ParseAppointmentStatus(req.Status)
	if err != nil {
		ve.Add("status must be one of Scheduled, Completed, Cancelled")
	}
	if err := ve.ErrOrNil(); err != nil {
		return nil, err
	}

	if err := s.checkConflict(ctx, doctorID, date, &appointmentID); err != nil {
		return nil, err
	}

	appointment.Date = date
	appointment.Status = status
	appointment.Notes = optional(req.Notes)

	if err := s.repo.Update(ctx, appointment); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflictError(date)
		}
		return nil, fmt.Errorf("failed to update appointment: %w", err)
	}
	return appointment, nil
}

func (s *Service) Delete(ctx context.Context, doctorID, appointmentID uuid.UUID) error {
	if _, err := s.authorize(ctx, doctorID, appointmentID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, appointmentID); err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}
	return nil
}

func (s *Service) List(ctx context.Context, doctorID uuid.UUID, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	if filters != nil && filters.PatientID != uuid.Nil {
		if _, err := s.guard.Patient(ctx, doctorID, filters.PatientID); err != nil {
			return nil, err
		}
	}
	appointments, err := s.repo.ListForDoctor(ctx, doctorID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

// authorize loads the appointment and verifies doctor ownership; an
// appointment owned by another doctor is indistinguishable from a missing
// one.
func (s *Service) authorize(ctx context.Context, doctorID, appointmentID uuid.UUID) (*model.Appointment, error) {
	appointment, err := s.repo.Get(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, access.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	if appointment.DoctorID != doctorID {
		return nil, access.ErrNotOwned
	}
	return appointment, nil
}

func (s *Service) checkConflict(ctx context.Context, doctorID uuid.UUID, date time.Time, excludeID *uuid.UUID) error {
	exists, err := s.repo.ExistsForDoctorAt(ctx, doctorID, date, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check appointment conflict: %w", err)
	}
	if exists {
		return conflictError(date)
	}
	return nil
}

func conflictError(date time.Time) error {
	var ve apperrors.ValidationErrors
	ve.Add("you already have an appointment at %s", date.Format("2006-01-02 15:04"))
	return &ve
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
