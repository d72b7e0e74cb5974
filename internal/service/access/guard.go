package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/openclinic/ehr-api/internal/model"
	"github.com/openclinic/ehr-api/internal/repository"
)

// The two access-denial variants are distinct so tests can tell them apart.
// The HTTP layer maps both onto the same not-found response so patient
// existence never leaks to a doctor without access rights.
var (
	ErrNotFound = errors.New("patient not found")
	ErrNotOwned = errors.New("patient belongs to another doctor")
)

// Guard confirms that a target patient is owned by the requesting doctor.
// Every operation on a patient or its dependents passes through it.
type Guard struct {
	patients repository.PatientRepository
}

func NewGuard(patients repository.PatientRepository) *Guard {
	return &Guard{patients: patients}
}

// Patient resolves the target and verifies ownership.
func (g *Guard) Patient(ctx context.Context, doctorID, patientID uuid.UUID) (*model.Patient, error) {
	patient, err := g.patients.Get(ctx, patientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to resolve patient: %w", err)
	}
	if patient.DoctorID != doctorID {
		return nil, ErrNotOwned
	}
	return patient, nil
}

// Denied reports whether err is either access-denial variant.
func Denied(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrNotOwned)
}
