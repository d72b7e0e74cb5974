package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/openclinic/ehr-api/internal/email"
	"github.com/openclinic/ehr-api/internal/model"
	"github.com/openclinic/ehr-api/internal/repository"
	apperrors "github.com/openclinic/ehr-api/pkg/errors"
	"github.com/openclinic/ehr-api/pkg/security"
	"github.com/openclinic/ehr-api/pkg/token"
)

type AuthService interface {
	Register(ctx context.Context, req *model.RegisterDoctorRequest) (*model.Doctor, error)
	Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error)
	ConfirmEmail(ctx context.Context, linkToken string) error
	ForgotPassword(ctx context.Context, emailAddr string) error
	ResetPassword(ctx context.Context, req *model.ResetPasswordRequest) error
}

type Service struct {
	doctors repository.DoctorRepository
	hasher  security.PasswordHasher
	tokens  token.Service
	mailer  email.Service
	baseURL string
}

func NewService(doctors repository.DoctorRepository, hasher security.PasswordHasher, tokens token.Service, mailer email.Service, baseURL string) *Service {
	return &Service{
		doctors: doctors,
		hasher:  hasher,
		tokens:  tokens,
		mailer:  mailer,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (s *Service) Register(ctx context.Context, req *model.RegisterDoctorRequest) (*model.Doctor, error) {
	var ve apperrors.ValidationErrors
	if req.LastName == "" {
		ve.Add("last name is required")
	}
	if req.Username == "" {
		ve.Add("username is required")
	}
	for _, v := range security.CheckStrength(req.Password) {
		ve.Add("%s", v)
	}

	if _, err := s.doctors.GetByUsername(ctx, req.Username); err == nil {
		ve.Add("username %q is already taken", req.Username)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if _, err := s.doctors.GetByEmail(ctx, req.Email); err == nil {
		ve.Add("email %q is already registered", req.Email)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	if err := ve.ErrOrNil(); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	doctor := &model.Doctor{
		Base:         model.NewBase(),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Username:     req.Username,
		PhoneNumber:  optional(req.PhoneNumber),
		Email:        strings.ToLower(req.Email),
		PasswordHash: hash,
	}

	if err := s.doctors.Create(ctx, doctor); err != nil {
		// Races with a concurrent registration land here.
		if errors.Is(err, repository.ErrDuplicate) {
			var dup apperrors.ValidationErrors
			dup.Add("username or email is already registered")
			return nil, &dup
		}
		return nil, fmt.Errorf("failed to create doctor: %w", err)
	}

	s.sendConfirmation(doctor)
	return doctor, nil
}

func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	doctor, err := s.findByLogin(ctx, req.Login)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Unauthorized("invalid credentials", nil)
		}
		return nil, fmt.Errorf("failed to look up doctor: %w", err)
	}

	if err := s.hasher.Compare(doctor.PasswordHash, req.Password); err != nil {
		return nil, apperrors.Unauthorized("invalid credentials", nil)
	}

	if !doctor.EmailConfirmed {
		return nil, apperrors.Unauthorized("email address not confirmed", nil)
	}

	accessToken, err := s.tokens.GenerateSession(doctor.ID, doctor.DisplayName())
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	return &model.TokenResponse{AccessToken: accessToken, Doctor: doctor}, nil
}

func (s *Service) ConfirmEmail(ctx context.Context, linkToken string) error {
	doctorID, err := s.tokens.ValidateLink(linkToken, token.PurposeConfirm)
	if err != nil {
		return linkTokenError(err)
	}

	doctor, err := s.doctors.Get(ctx, doctorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("doctor", err)
		}
		return fmt.Errorf("failed to get doctor: %w", err)
	}

	// Confirming twice is harmless; keep the original timestamp.
	if doctor.EmailConfirmed {
		return nil
	}

	if err := s.doctors.ConfirmEmail(ctx, doctorID, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to confirm email: %w", err)
	}
	return nil
}

func (s *Service) ForgotPassword(ctx context.Context, emailAddr string) error {
	doctor, err := s.doctors.GetByEmail(ctx, strings.ToLower(emailAddr))
	if err != nil {
		// Never reveal whether an address is registered.
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to look up doctor: %w", err)
	}

	linkToken, err := s.tokens.GenerateLink(doctor.ID, token.PurposeResetPassword)
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	resetURL := fmt.Sprintf("%s/reset-password?token=%s", s.baseURL, linkToken)
	go func() {
		if err := s.mailer.SendPasswordReset(context.Background(), doctor.Email, doctor.DisplayName(), resetURL); err != nil {
			log.Error().Err(err).Str("doctor_id", doctor.ID.String()).Msg("failed to send password reset email")
		}
	}()
	return nil
}

func (s *Service) ResetPassword(ctx context.Context, req *model.ResetPasswordRequest) error {
	doctorID, err := s.tokens.ValidateLink(req.Token, token.PurposeResetPassword)
	if err != nil {
		return linkTokenError(err)
	}

	var ve apperrors.ValidationErrors
	for _, v := range security.CheckStrength(req.Password) {
		ve.Add("%s", v)
	}
	if err := ve.ErrOrNil(); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.doctors.UpdatePassword(ctx, doctorID, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("doctor", err)
		}
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

func (s *Service) findByLogin(ctx context.Context, login string) (*model.Doctor, error) {
	if strings.Contains(login, "@") {
		return s.doctors.GetByEmail(ctx, strings.ToLower(login))
	}
	return s.doctors.GetByUsername(ctx, login)
}

func (s *Service) sendConfirmation(doctor *model.Doctor) {
	linkToken, err := s.tokens.GenerateLink(doctor.ID, token.PurposeConfirm)
	if err != nil {
		log.Error().Err(err).Str("doctor_id", doctor.ID.String()).Msg("failed to generate confirmation token")
		return
	}

	confirmURL := fmt.Sprintf("%s/confirm-email?token=%s", s.baseURL, linkToken)
	go func() {
		if err := s.mailer.SendConfirmation(context.Background(), doctor.Email, doctor.DisplayName(), confirmURL); err != nil {
			log.Error().Err(err).Str("doctor_id", doctor.ID.String()).Msg("failed to send confirmation email")
		}
	}()
}

func linkTokenError(err error) error {
	switch {
	case errors.Is(err, token.ErrExpiredToken):
		return apperrors.Unauthorized("link has expired", err)
	default:
		return apperrors.Unauthorized("invalid link", err)
	}
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
