package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/openclinic/ehr-api/internal/model"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert or update violates a
	// uniqueness constraint.
	ErrDuplicate = errors.New("record already exists")
)

// All repository interfaces in one file
type (
	DoctorRepository interface {
		Create(ctx context.Context, doctor *model.Doctor) error
		Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
		GetByUsername(ctx context.Context, username string) (*model.Doctor, error)
		GetByEmail(ctx context.Context, email string) (*model.Doctor, error)
		Update(ctx context.Context, doctor *model.Doctor) error
		ConfirmEmail(ctx context.Context, id uuid.UUID, at time.Time) error
		UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
		// DeleteCascade removes the doctor, all owned patients and their
		// dependents, and the specialty association in one transaction.
		// It returns the storage paths of deleted radiology images so
		// the caller can clean up the file store.
		DeleteCascade(ctx context.Context, id uuid.UUID) ([]string, error)
		ListUnconfirmedBefore(ctx context.Context, cutoff time.Time) ([]*model.Doctor, error)
		SetSpecialties(ctx context.Context, doctorID uuid.UUID, specialtyIDs []uuid.UUID) error
		ListSpecialties(ctx context.Context, doctorID uuid.UUID) ([]*model.Specialty, error)
	}

	SpecialtyRepository interface {
		Create(ctx context.Context, specialty *model.Specialty) error
		List(ctx context.Context) ([]*model.Specialty, error)
	}

	PatientRepository interface {
		// Create inserts the patient and any non-empty optional
		// sub-records in one transaction.
		Create(ctx context.Context, patient *model.Patient, demo *model.DemographicInfo, social *model.SocialHistory) error
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		// Update mutates the patient and upserts supplied sub-records
		// in one transaction; a nil sub-record is left untouched.
		Update(ctx context.Context, patient *model.Patient, demo *model.DemographicInfo, social *model.SocialHistory) error
		// DeleteCascade removes the patient and every dependent row in
		// one transaction, returning radiology image storage paths for file
		// cleanup.
		DeleteCascade(ctx context.Context, id uuid.UUID) ([]string, error)
		List(ctx context.Context, doctorID uuid.UUID, filters *model.PatientFilters) ([]*model.Patient, error)
		GetDemographic(ctx context.Context, patientID uuid.UUID) (*model.DemographicInfo, error)
		GetSocialHistory(ctx context.Context, patientID uuid.UUID) (*model.SocialHistory, error)
	}

	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		Update(ctx context.Context, appointment *model.Appointment) error
		Delete(ctx context.Context, id uuid.UUID) error
		ListForDoctor(ctx context.Context, doctorID uuid.UUID, filters *model.AppointmentFilters) ([]*model.Appointment, error)
		// ExistsForDoctorAt reports whether the doctor already has an
		// appointment at exactly this timestamp, excluding excludeID
		// when updating.
		ExistsForDoctorAt(ctx context.Context, doctorID uuid.UUID, date time.Time, excludeID *uuid.UUID) (bool, error)
	}

	LabResultRepository interface {
		Create(ctx context.Context, result *model.LaboratoryResult) error
		Get(ctx context.Context, id uuid.UUID) (*model.LaboratoryResult, error)
		Update(ctx context.Context, result *model.LaboratoryResult) error
		Delete(ctx context.Context, id uuid.UUID) error
		ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.LaboratoryResult, error)
	}

	MedicalHistoryRepository interface {
		Create(ctx context.Context, entry *model.MedicalHistory) error
		Get(ctx context.Context, id uuid.UUID) (*model.MedicalHistory, error)
		Update(ctx context.Context, entry *model.MedicalHistory) error
		Delete(ctx context.Context, id uuid.UUID) error
		ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.MedicalHistory, error)
		CountForAllergy(ctx context.Context, allergyID uuid.UUID) (int, error)
	}

	AllergyRepository interface {
		Create(ctx context.Context, allergy *model.Allergy) error
		Get(ctx context.Context, id uuid.UUID) (*model.Allergy, error)
		GetByName(ctx context.Context, name string) (*model.Allergy, error)
		List(ctx context.Context) ([]*model.Allergy, error)
		Delete(ctx context.Context, id uuid.UUID) error
	}

	RadiologyRepository interface {
		Create(ctx context.Context, imaging *model.RadiologyImaging) error
		Get(ctx context.Context, id uuid.UUID) (*model.RadiologyImaging, error)
		Update(ctx context.Context, imaging *model.RadiologyImaging) error
		Delete(ctx context.Context, id uuid.UUID) error
		ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.RadiologyImaging, error)
	}

	PrescriptionRepository interface {
		Create(ctx context.Context, prescription *model.Prescription) error
		Get(ctx context.Context, id uuid.UUID) (*model.Prescription, error)
		Delete(ctx context.Context, id uuid.UUID) error
		ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Prescription, error)
	}
)
