package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// ParseGender validates a form value against the gender enum.
func ParseGender(value string) (Gender, error) {
	switch Gender(value) {
	case GenderMale, GenderFemale, GenderOther:
		return Gender(value), nil
	default:
		return "", fmt.Errorf("invalid gender %q", value)
	}
}

type Patient struct {
	Base
	DoctorID    uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	FirstName   string     `db:"first_name" json:"first_name"`
	LastName    string     `db:"last_name" json:"last_name"`
	Email       *string    `db:"email" json:"email,omitempty"`
	PhoneNumber *string    `db:"phone_number" json:"phone_number,omitempty"`
	Age         *int       `db:"age" json:"age,omitempty"`
	Gender      *Gender    `db:"gender" json:"gender,omitempty"`
	DateOfBirth *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
}

// DemographicInfo is an optional one-to-one extension of Patient, created
// lazily only when at least one field is supplied.
type DemographicInfo struct {
	ID               uuid.UUID `db:"id" json:"id"`
	PatientID        uuid.UUID `db:"patient_id" json:"patient_id"`
	Address          *string   `db:"address" json:"address,omitempty"`
	PhoneNumber      *string   `db:"phone_number" json:"phone_number,omitempty"`
	EmergencyContact *string   `db:"emergency_contact" json:"emergency_contact,omitempty"`
}

func (d *DemographicInfo) IsEmpty() bool {
	return d == nil || (d.Address == nil && d.PhoneNumber == nil && d.EmergencyContact == nil)
}

// SocialHistory is the second optional one-to-one extension. Smoking status
// keeps the legacy string encoding ("yes"/"no") with optional free-text units.
type SocialHistory struct {
	ID            uuid.UUID `db:"id" json:"id"`
	PatientID     uuid.UUID `db:"patient_id" json:"patient_id"`
	SmokingStatus string    `db:"smoking_status" json:"smoking_status"`
	SmokingUnits  *string   `db:"smoking_units" json:"smoking_units,omitempty"`
	AlcoholUse    *string   `db:"alcohol_use" json:"alcohol_use,omitempty"`
	DrugUse       *string   `db:"drug_use" json:"drug_use,omitempty"`
	Occupation    *string   `db:"occupation" json:"occupation,omitempty"`
}

func (s *SocialHistory) IsEmpty() bool {
	if s == nil {
		return true
	}
	return (s.SmokingStatus == "" || s.SmokingStatus == "no") &&
		s.SmokingUnits == nil && s.AlcoholUse == nil && s.DrugUse == nil && s.Occupation == nil
}

// PatientDetail aggregates a patient with its optional sub-records.
type PatientDetail struct {
	Patient     *Patient         `json:"patient"`
	Demographic *DemographicInfo `json:"demographic_info,omitempty"`
	Social      *SocialHistory   `json:"social_history,omitempty"`
}

type CreatePatientRequest struct {
	FirstName   string `json:"first_name" binding:"required"`
	LastName    string `json:"last_name" binding:"required"`
	Email       string `json:"email" binding:"omitempty,email"`
	Age         *int   `json:"age"`
	Gender      string `json:"gender"`
	DateOfBirth string `json:"date_of_birth"`

	// Demographic info, created only when at least one field is set.
	Address          string `json:"address"`
	PhoneNumber      string `json:"phone_number"`
	EmergencyContact string `json:"emergency_contact"`

	// Social history, same lazy-creation rule.
	SmokingStatus string `json:"smoking_status"`
	SmokingUnits  string `json:"smoking_units"`
	AlcoholUse    string `json:"alcohol_use"`
	DrugUse       string `json:"drug_use"`
	Occupation    string `json:"occupation"`
}

type UpdatePatientRequest struct {
	FirstName   string `json:"first_name" binding:"required"`
	LastName    string `json:"last_name" binding:"required"`
	Email       string `json:"email" binding:"omitempty,email"`
	Age         *int   `json:"age"`
	Gender      string `json:"gender"`
	DateOfBirth string `json:"date_of_birth"`

	Address          string `json:"address"`
	PhoneNumber      string `json:"phone_number"`
	EmergencyContact string `json:"emergency_contact"`

	SmokingStatus string `json:"smoking_status"`
	SmokingUnits  string `json:"smoking_units"`
	AlcoholUse    string `json:"alcohol_use"`
	DrugUse       string `json:"drug_use"`
	Occupation    string `json:"occupation"`
}

type PatientFilters struct {
	Search string `form:"search"`
}
