package model

import (
	"time"

	"github.com/google/uuid"
)

type LaboratoryResult struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PatientID uuid.UUID `db:"patient_id" json:"patient_id"`
	TestName  string    `db:"test_name" json:"test_name"`
	Result    string    `db:"result" json:"result"`
	Date      time.Time `db:"date" json:"date"`
}

// Prescription is carried in the schema for completeness; there is no HTTP
// surface for it, only repository lifecycle and cascade handling.
type Prescription struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	PatientID      uuid.UUID  `db:"patient_id" json:"patient_id"`
	MedicationName string     `db:"medication_name" json:"medication_name"`
	Dosage         string     `db:"dosage" json:"dosage"`
	Frequency      string     `db:"frequency" json:"frequency"`
	StartDate      time.Time  `db:"start_date" json:"start_date"`
	EndDate        *time.Time `db:"end_date" json:"end_date,omitempty"`
}

type CreateLabResultRequest struct {
	TestName string `json:"test_name" binding:"required"`
	Result   string `json:"result" binding:"required"`
	Date     string `json:"date" binding:"required"`
}

type UpdateLabResultRequest struct {
	TestName string `json:"test_name" binding:"required"`
	Result   string `json:"result" binding:"required"`
	Date     string `json:"date" binding:"required"`
}
