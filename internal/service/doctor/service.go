package doctor

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/openclinic/ehr-api/internal/model"
	"github.com/openclinic/ehr-api/internal/repository"
	apperrors "github.com/openclinic/ehr-api/pkg/errors"
)

type DoctorService interface {
	GetProfile(ctx context.Context, doctorID uuid.UUID) (*model.Doctor, error)
	UpdateProfile(ctx context.Context, doctorID uuid.UUID, req *model.UpdateDoctorProfileRequest) (*model.Doctor, error)
	ListSpecialties(ctx context.Context) ([]*model.Specialty, error)
}

type Service struct {
	doctors     repository.DoctorRepository
	specialties repository.SpecialtyRepository
}

func NewService(doctors repository.DoctorRepository, specialties repository.SpecialtyRepository) *Service {
	return &Service{doctors: doctors, specialties: specialties}
}

func (s *Service) GetProfile(ctx context.Context, doctorID uuid.UUID) (*model.Doctor, error) {
	doctor, err := s.doctors.Get(ctx, doctorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("doctor", err)
		}
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}

	doctor.Specialties, err = s.doctors.ListSpecialties(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list doctor specialties: %w", err)
	}
	return doctor, nil
}

func (s *Service) UpdateProfile(ctx context.Context, doctorID uuid.UUID, req *model.UpdateDoctorProfileRequest) (*model.Doctor, error) {
	doctor, err := s.doctors.Get(ctx, doctorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("doctor", err)
		}
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}

	var ve apperrors.ValidationErrors
	if req.FirstName != nil {
		doctor.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		if *req.LastName == "" {
			ve.Add("last name cannot be empty")
		} else {
			doctor.LastName = *req.LastName
		}
	}
	if req.PhoneNumber != nil {
		doctor.PhoneNumber = req.PhoneNumber
	}
	if err := ve.ErrOrNil(); err != nil {
		return nil, err
	}

	if err := s.doctors.Update(ctx, doctor); err != nil {
		return nil, fmt.Errorf("failed to update doctor: %w", err)
	}

	if req.SpecialtyIDs != nil {
		if err := s.doctors.SetSpecialties(ctx, doctorID, req.SpecialtyIDs); err != nil {
			return nil, fmt.Errorf("failed to set specialties: %w", err)
		}
	}

	doctor.Specialties, err = s.doctors.ListSpecialties(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list doctor specialties: %w", err)
	}
	return doctor, nil
}

func (s *Service) ListSpecialties(ctx context.Context) ([]*model.Specialty, error) {
	specialties, err := s.specialties.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list specialties: %w", err)
	}
	return specialties, nil
}
