package record

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

// RecordService manages the clinical records hanging off a patient:
// laboratory results and allergy-linked medical history entries.
type RecordService interface {
	CreateLabResult(ctx context.Context, doctorID, patientID uuid.UUID, req *model.CreateLabResultRequest) (*model.LaboratoryResult, error)
	GetLabResult(ctx context.Context, doctorID, patientID, resultID uuid.UUID) (*model.LaboratoryResult, error)
	UpdateLabResult(ctx context.Context, doctorID, patientID, resultID uuid.UUID, req *model.UpdateLabResultRequest) (*model.LaboratoryResult, error)
	DeleteLabResult(ctx context.Context, doctorID, patientID, resultID uuid.UUID) error
	ListLabResults(ctx context.Context, doctorID, patientID uuid.UUID) ([]*model.LaboratoryResult, error)

	CreateMedicalHistory(ctx context.Context, doctorID, patientID uuid.UUID, req *model.CreateMedicalHistoryRequest) (*model.MedicalHistory, error)
	GetMedicalHistory(ctx context.Context, doctorID, patientID, entryID uuid.UUID) (*model.MedicalHistory, error)
	UpdateMedicalHistory(ctx context.Context, doctorID, patientID, entryID uuid.UUID, req *model.UpdateMedicalHistoryRequest) (*model.MedicalHistory, error)
	DeleteMedicalHistory(ctx context.Context, doctorID, patientID, entryID uuid.UUID) error
	ListMedicalHistory(ctx context.Context, doctorID, patientID uuid.UUID) ([]*model.MedicalHistory, error)
}

type Service struct {
	labResults repository.LabResultRepository
	history    repository.MedicalHistoryRepository
	allergies  repository.AllergyRepository
	guard      *access.Guard
}

func NewService(labResults repository.LabResultRepository, history repository.MedicalHistoryRepository, allergies repository.AllergyRepository, guard *access.Guard) *Service {
	return &Service{
		labResults: labResults,
		history:    history,
		allergies:  allergies,
		guard:      guard,
	}
}

func (s *Service) CreateLabResult(ctx context.Context, doctorID, patientID uuid.UUID, req *model.CreateLabResultRequest) (*model.LaboratoryResult, error) {
	if _, err := s.guard.Patient(ctx, doctorID, patientID); err != nil {
		return nil, err
	}

	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}

	result := &model.LaboratoryResult{
		ID:        uuid.New(),
		PatientID: patientID,
		TestName:  req.TestName,
		Result:    req.Result,
		Date:      date,
	}
	if err := s.labResults.Create(ctx, result); err != nil {
		return nil, fmt.Errorf("failed to create lab result: %w", err)
	}
	return result, nil
}

func (s *Service) GetLabResult(ctx context.Context, doctorID, patientID, resultID uuid.UUID) (*model.LaboratoryResult, error) {
	return s.authorizeLabResult(ctx, doctorID, patientID, resultID)
}

func (s *Service) UpdateLabResult(ctx context.Context, doctorID, patientID, resultID uuid.UUID, req *model.UpdateLabResultRequest) (*model.LaboratoryResult, error) {
	result, err := s.authorizeLabResult(ctx, doctorID, patientID, resultID)
	if err != nil {
		return nil, err
	}

	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}

	result.TestName = req.TestName
	result.Result = req.Result
	result.Date = date

	if err := s.labResults.Update(ctx, result); err != nil {
		return nil, fmt.Errorf("failed to update lab result: %w", err)
	}
	return result, nil
}

func (s *Service) DeleteLabResult(ctx context.Context, doctorID, patientID, resultID uuid.UUID) error {
	if _, err := s.authorizeLabResult(ctx, doctorID, patientID, resultID); err != nil {
		return err
	}
	if err := s.labResults.Delete(ctx, resultID); err != nil {
		return fmt.Errorf("failed to delete lab result: %w", err)
	}
	return nil
}

func (s *Service) ListLabResults(ctx context.Context, doctorID, patientID uuid.UUID) ([]*model.LaboratoryResult, error) {
	if _, err := s.guard.Patient(ctx, doctorID, patientID); err != nil {
		return nil, err
	}
	results, err := s.labResults.ListForPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lab results: %w", err)
	}
	return results, nil
}

func (s *Service) CreateMedicalHistory(ctx context.Context, doctorID, patientID uuid.UUID, req *model.CreateMedicalHistoryRequest) (*model.MedicalHistory, error) {
	if _, err := s.guard.Patient(ctx, doctorID, patientID); err != nil {
		return nil, err
	}

	allergy, err := s.requireAllergy(ctx, req.AllergyID)
	if err != nil {
		return nil, err
	}

	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}

	entry := &model.MedicalHistory{
		ID:          uuid.New(),
		PatientID:   patientID,
		AllergyID:   allergy.ID,
		Description: req.Description,
		Date:        date,
		AllergyName: allergy.Name,
	}
	if err := s.history.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to create medical history entry: %w", err)
	}
	return entry, nil
}

func (s *Service) GetMedicalHistory(ctx context.Context, doctorID, patientID, entryID uuid.UUID) (*model.MedicalHistory, error) {
	return s.authorizeHistory(ctx, doctorID, patientID, entryID)
}

func (s *Service) UpdateMedicalHistory(ctx context.Context, doctorID, patientID, entryID uuid.UUID, req *model.UpdateMedicalHistoryRequest) (*model.MedicalHistory, error) {
	entry, err := s.authorizeHistory(ctx, doctorID, patientID, entryID)
	if err != nil {
		return nil, err
	}

	allergy, err := s.requireAllergy(ctx, req.AllergyID)
	if err != nil {
		return nil, err
	}

	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}

	entry.AllergyID = allergy.ID
	entry.Description = req.Description
	entry.Date = date
	entry.AllergyName = allergy.Name

	if err := s.history.Update(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to update medical history entry: %w", err)
	}
	return entry, nil
}

func (s *Service) DeleteMedicalHistory(ctx context.Context, doctorID, patientID, entryID uuid.UUID) error {
	if _, err := s.authorizeHistory(ctx, doctorID, patientID, entryID); err != nil {
		return err
	}
	if err := s.history.Delete(ctx, entryID); err != nil {
		return fmt.Errorf("failed to delete medical history entry: %w", err)
	}
	return nil
}

func (s *Service) ListMedicalHistory(ctx context.Context, doctorID, patientID uuid.UUID) ([]*model.MedicalHistory, error) {
	if _, err := s.guard.Patient(ctx, doctorID, patientID); err != nil {
		return nil, err
	}
	entries, err := s.history.ListForPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list medical history: %w", err)
	}
	return entries, nil
}

// authorizeLabResult checks the patient chain before exposing the record; a
// record under someone else's patient looks missing to the caller.
func (s *Service) authorizeLabResult(ctx context.Context, doctorID, patientID, resultID uuid.UUID) (*model.LaboratoryResult, error) {
	if _, err := s.guard.Patient(ctx, doctorID, patientID); err != nil {
		return nil, err
	}
	result, err := s.labResults.Get(ctx, resultID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, access.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get lab result: %w", err)
	}
	if result.PatientID != patientID {
		return nil, access.ErrNotOwned
	}
	return result, nil
}

func (s *Service) authorizeHistory(ctx context.Context, doctorID, patientID, entryID uuid.UUID) (*model.MedicalHistory, error) {
	if _, err := s.guard.Patient(ctx, doctorID, patientID); err != nil {
		return nil, err
	}
	entry, err := s.history.Get(ctx, entryID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, access.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get medical history entry: %w", err)
	}
	if entry.PatientID != patientID {
		return nil, access.ErrNotOwned
	}
	return entry, nil
}

func (s *Service) requireAllergy(ctx context.Context, allergyID uuid.UUID) (*model.Allergy, error) {
	allergy, err := s.allergies.Get(ctx, allergyID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			var ve apperrors.ValidationErrors
			ve.Add("unknown allergy")
			return nil, &ve
		}
		return nil, fmt.Errorf("failed to get allergy: %w", err)
	}
	return allergy, nil
}

func parseDate(raw string) (time.Time, error) {
	parsed, err := model.ParseDateTime(raw)
	if err != nil {
		var ve apperrors.ValidationErrors
		ve.Add("invalid date format")
		return time.Time{}, &ve
	}
	return parsed, nil
}
