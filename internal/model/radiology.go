package model

import (
	"time"

	"github.com/google/uuid"
)

// RadiologyImaging is a named, dated record optionally referencing a stored
// image under the patient's storage namespace.
type RadiologyImaging struct {
	Base
	PatientID     uuid.UUID `db:"patient_id" json:"patient_id"`
	Name          string    `db:"name" json:"name"`
	Date          time.Time `db:"date" json:"date"`
	ImageFilename *string   `db:"image_filename" json:"image_filename,omitempty"`
}

type CreateRadiologyImagingRequest struct {
	Name string `form:"name" binding:"required"`
	Date string `form:"date" binding:"required"`
}

type UpdateRadiologyImagingRequest struct {
	Name string `form:"name" binding:"required"`
	Date string `form:"date" binding:"required"`
}
