package patient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/openclinic/ehr-api/internal/model"
	"github.com/openclinic/ehr-api/internal/repository"
	"github.com/openclinic/ehr-api/internal/service/access"
	"github.com/openclinic/ehr-api/internal/storage"
	apperrors "github.com/openclinic/ehr-api/pkg/errors"
)

type PatientService interface {
	CreatePatient(ctx context.Context, doctorID uuid.UUID, req *model.CreatePatientRequest) (*model.Patient, error)
	GetPatient(ctx context.Context, doctorID, patientID uuid.UUID) (*model.PatientDetail, error)
	UpdatePatient(ctx context.Context, doctorID, patientID uuid.UUID, req *model.UpdatePatientRequest) (*model.PatientDetail, error)
	DeletePatient(ctx context.Context, doctorID, patientID uuid.UUID) error
	ListPatients(ctx context.Context, doctorID uuid.UUID, filters *model.PatientFilters) ([]*model.Patient, error)
}

type Service struct {
	repo  repository.PatientRepository
	guard *access.Guard
	files storage.FileStore
}

func NewService(repo repository.PatientRepository, guard *access.Guard, files storage.FileStore) *Service {
	return &Service{
		repo:  repo,
		guard: guard,
		files: files,
	}
}

func (s *Service) CreatePatient(ctx context.Context, doctorID uuid.UUID, req *model.CreatePatientRequest) (*model.Patient, error) {
	fields, err := validatePatientForm(req)
	if err != nil {
		return nil, err
	}

	patient := &model.Patient{
		Base:        model.NewBase(),
		DoctorID:    doctorID,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       optional(req.Email),
		Age:         req.Age,
		Gender:      fields.gender,
		DateOfBirth: fields.dateOfBirth,
	}

	demo, social := buildSubRecords(patient.ID, req)
	if err := s.repo.Create(ctx, patient, demo, social); err != nil {
		return nil, fmt.Errorf("failed to create patient: %w", err)
	}
	return patient, nil
}

func (s *Service) GetPatient(ctx context.Context, doctorID, patientID uuid.UUID) (*model.PatientDetail, error) {
	patient, err := s.guard.Patient(ctx, doctorID, patientID)
	if err != nil {
		return nil, err
	}
	return s.loadDetail(ctx, patient)
}

func (s *Service) UpdatePatient(ctx context.Context, doctorID, patientID uuid.UUID, req *model.UpdatePatientRequest) (*model.PatientDetail, error) {
	patient, err := s.guard.Patient(ctx, doctorID, patientID)
	if err != nil {
		return nil, err
	}

	createForm := model.CreatePatientRequest(*req)
	fields, err := validatePatientForm(&createForm)
	if err != nil {
		return nil, err
	}

	patient.FirstName = req.FirstName
	patient.LastName = req.LastName
	patient.Email = optional(req.Email)
	patient.Age = req.Age
	patient.Gender = fields.gender
	patient.DateOfBirth = fields.dateOfBirth

	demo, social := buildSubRecords(patient.ID, &createForm)
	if err := s.repo.Update(ctx, patient, demo, social); err != nil {
		return nil, fmt.Errorf("failed to update patient: %w", err)
	}
	return s.loadDetail(ctx, patient)
}

func (s *Service) DeletePatient(ctx context.Context, doctorID, patientID uuid.UUID) error {
	if _, err := s.guard.Patient(ctx, doctorID, patientID); err != nil {
		return err
	}

	filenames, err := s.repo.DeleteCascade(ctx, patientID)
	if err != nil {
		return fmt.Errorf("failed to delete patient: %w", err)
	}

	// File cleanup happens after the transaction committed; a missing file
	// is fine, the record referencing it is already gone.
	for _, name := range filenames {
		if err := s.files.Delete(name); err != nil {
			log.Warn().Err(err).Str("file", name).Msg("failed to remove image after patient delete")
		}
	}
	return nil
}

func (s *Service) ListPatients(ctx context.Context, doctorID uuid.UUID, filters *model.PatientFilters) ([]*model.Patient, error) {
	patients, err := s.repo.List(ctx, doctorID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}

func (s *Service) loadDetail(ctx context.Context, patient *model.Patient) (*model.PatientDetail, error) {
	detail := &model.PatientDetail{Patient: patient}

	demo, err := s.repo.GetDemographic(ctx, patient.ID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to load demographic info: %w", err)
	}
	detail.Demographic = demo

	social, err := s.repo.GetSocialHistory(ctx, patient.ID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to load social history: %w", err)
	}
	detail.Social = social

	return detail, nil
}

type patientFields struct {
	gender      *model.Gender
	dateOfBirth *time.Time
}

// validatePatientForm collects every violated rule instead of stopping at
// the first one.
func validatePatientForm(req *model.CreatePatientRequest) (*patientFields, error) {
	var ve apperrors.ValidationErrors
	fields := &patientFields{}

	if req.FirstName == "" {
		ve.Add("first name is required")
	}
	if req.LastName == "" {
		ve.Add("last name is required")
	}
	if req.Age != nil && *req.Age < 0 {
		ve.Add("age must not be negative")
	}
	if req.Gender != "" {
		gender, err := model.ParseGender(req.Gender)
		if err != nil {
			ve.Add("gender must be one of male, female, other")
		} else {
			fields.gender = &gender
		}
	}
	if req.DateOfBirth != "" {
		dob, err := model.ParseDateTime(req.DateOfBirth)
		if err != nil {
			ve.Add("invalid date of birth format")
		} else {
			fields.dateOfBirth = &dob
		}
	}
	if req.SmokingStatus != "" && req.SmokingStatus != "yes" && req.SmokingStatus != "no" {
		ve.Add("smoking status must be yes or no")
	}

	if err := ve.ErrOrNil(); err != nil {
		return nil, err
	}
	return fields, nil
}

// buildSubRecords constructs the optional one-to-one rows. An all-empty
// submission yields empty records the repository will skip entirely.
func buildSubRecords(patientID uuid.UUID, req *model.CreatePatientRequest) (*model.DemographicInfo, *model.SocialHistory) {
	demo := &model.DemographicInfo{
		ID:               uuid.New(),
		PatientID:        patientID,
		Address:          optional(req.Address),
		PhoneNumber:      optional(req.PhoneNumber),
		EmergencyContact: optional(req.EmergencyContact),
	}

	smoking := req.SmokingStatus
	if smoking == "" {
		smoking = "no"
	}
	social := &model.SocialHistory{
		ID:            uuid.New(),
		PatientID:     patientID,
		SmokingStatus: smoking,
		SmokingUnits:  optional(req.SmokingUnits),
		AlcoholUse:    optional(req.AlcoholUse),
		DrugUse:       optional(req.DrugUse),
		Occupation:    optional(req.Occupation),
	}
	return demo, social
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
