package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "Scheduled"
	AppointmentStatusCompleted AppointmentStatus = "Completed"
	AppointmentStatusCancelled AppointmentStatus = "Cancelled"
)

// ParseAppointmentStatus validates a form value against the status enum.
func ParseAppointmentStatus(value string) (AppointmentStatus, error) {
	switch AppointmentStatus(value) {
	case AppointmentStatusScheduled, AppointmentStatusCompleted, AppointmentStatusCancelled:
		return AppointmentStatus(value), nil
	default:
		return "", fmt.Errorf("invalid appointment status %q", value)
	}
}

// Appointment books a doctor for a patient at an exact timestamp. No two
// appointments may share the same (doctor_id, date) pair.
type Appointment struct {
	Base
	PatientID uuid.UUID         `db:"patient_id" json:"patient_id"`
	DoctorID  uuid.UUID         `db:"doctor_id" json:"doctor_id"`
	Date      time.Time         `db:"date" json:"date"`
	Status    AppointmentStatus `db:"status" json:"status"`
	Notes     *string           `db:"notes" json:"notes,omitempty"`
}

type ScheduleAppointmentRequest struct {
	PatientID uuid.UUID `json:"patient_id" binding:"required"`
	Date      string    `json:"date" binding:"required"`
	Notes     string    `json:"notes"`
}

type UpdateAppointmentRequest struct {
	Date   string `json:"date" binding:"required"`
	Status string `json:"status" binding:"required"`
	Notes  string `json:"notes"`
}

type AppointmentFilters struct {
	PatientID uuid.UUID
	Status    AppointmentStatus
	From      time.Time
	To        time.Time
}
