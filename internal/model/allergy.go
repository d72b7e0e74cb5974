package model

import (
	"time"

	"github.com/google/uuid"
)

// Allergy is a shared reference vocabulary entry. It is global, not owned by
// any doctor.
type Allergy struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
}

// MedicalHistory links a patient to an allergy with a dated free-text note.
type MedicalHistory struct {
	ID          uuid.UUID `db:"id" json:"id"`
	PatientID   uuid.UUID `db:"patient_id" json:"patient_id"`
	AllergyID   uuid.UUID `db:"allergy_id" json:"allergy_id"`
	Description string    `db:"description" json:"description"`
	Date        time.Time `db:"date" json:"date"`

	// AllergyName is populated on reads that join the vocabulary.
	AllergyName string `db:"allergy_name" json:"allergy_name,omitempty"`
}

type CreateAllergyRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type CreateMedicalHistoryRequest struct {
	AllergyID   uuid.UUID `json:"allergy_id" binding:"required"`
	Description string    `json:"description" binding:"required"`
	Date        string    `json:"date" binding:"required"`
}

type UpdateMedicalHistoryRequest struct {
	AllergyID   uuid.UUID `json:"allergy_id" binding:"required"`
	Description string    `json:"description" binding:"required"`
	Date        string    `json:"date" binding:"required"`
}
