package model

import (
	"time"

	"github.com/google/uuid"
)

type Doctor struct {
	Base
	FirstName        string       `db:"first_name" json:"first_name"`
	LastName         string       `db:"last_name" json:"last_name"`
	Username         string       `db:"username" json:"username"`
	PhoneNumber      *string      `db:"phone_number" json:"phone_number,omitempty"`
	Email            string       `db:"email" json:"email"`
	EmailConfirmed   bool         `db:"email_confirmed" json:"email_confirmed"`
	EmailConfirmedAt *time.Time   `db:"email_confirmed_at" json:"email_confirmed_at,omitempty"`
	PasswordHash     string       `db:"password_hash" json:"-"`
	Specialties      []*Specialty `db:"-" json:"specialties,omitempty"`
}

// DisplayName is what the session carries for greeting purposes.
func (d *Doctor) DisplayName() string {
	if d.FirstName == "" {
		return d.LastName
	}
	return d.FirstName + " " + d.LastName
}

type Specialty struct {
	ID   uuid.UUID `db:"id" json:"id"`
	Name string    `db:"name" json:"name"`
}

type RegisterDoctorRequest struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name" binding:"required"`
	Username    string `json:"username" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password" binding:"required"`
}

type LoginRequest struct {
	// Login accepts either the username or the email address.
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UpdateDoctorProfileRequest struct {
	FirstName    *string     `json:"first_name"`
	LastName     *string     `json:"last_name"`
	PhoneNumber  *string     `json:"phone_number"`
	SpecialtyIDs []uuid.UUID `json:"specialty_ids"`
}

type TokenResponse struct {
	AccessToken string  `json:"access_token"`
	Doctor      *Doctor `json:"doctor"`
}
