package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Purpose tags a one-time link token so a token minted for one endpoint
// cannot be replayed against another.
type Purpose string

const (
	PurposeConfirm       Purpose = "confirm"
	PurposeResetPassword Purpose = "reset_password"

	// Confirmation and reset links stay valid for 24 hours.
	linkTokenExpiry = 24 * time.Hour
)

var (
	ErrInvalidToken    = errors.New("invalid token")
	ErrExpiredToken    = errors.New("token expired")
	ErrWrongPurpose    = errors.New("token issued for a different purpose")
	ErrMissingDoctorID = errors.New("token missing doctor id")
)

// SessionClaims is the identity carried by a login token.
type SessionClaims struct {
	DoctorID    uuid.UUID
	DisplayName string
}

// Service issues and verifies signed tokens.
type Service interface {
	GenerateSession(doctorID uuid.UUID, displayName string) (string, error)
	ValidateSession(token string) (*SessionClaims, error)
	GenerateLink(doctorID uuid.UUID, purpose Purpose) (string, error)
	ValidateLink(token string, expected Purpose) (uuid.UUID, error)
}

type jwtService struct {
	secret        []byte
	sessionExpiry time.Duration
	now           func() time.Time
}

func NewService(secret string, sessionExpiry time.Duration) Service {
	return &jwtService{
		secret:        []byte(secret),
		sessionExpiry: sessionExpiry,
		now:           time.Now,
	}
}

func (s *jwtService) GenerateSession(doctorID uuid.UUID, displayName string) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"doctor_id": doctorID.String(),
		"name":      displayName,
		"iat":       now.Unix(),
		"exp":       now.Add(s.sessionExpiry).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *jwtService) ValidateSession(tokenStr string) (*SessionClaims, error) {
	claims, err := s.parse(tokenStr)
	if err != nil {
		return nil, err
	}

	// Link tokens travel over email and live 24 hours; they must never
	// double as a bearer session.
	if _, ok := claims["purpose"]; ok {
		return nil, ErrWrongPurpose
	}

	doctorID, err := doctorIDFromClaims(claims)
	if err != nil {
		return nil, err
	}

	name, _ := claims["name"].(string)
	return &SessionClaims{DoctorID: doctorID, DisplayName: name}, nil
}

func (s *jwtService) GenerateLink(doctorID uuid.UUID, purpose Purpose) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"doctor_id": doctorID.String(),
		"purpose":   string(purpose),
		"iat":       now.Unix(),
		"exp":       now.Add(linkTokenExpiry).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *jwtService) ValidateLink(tokenStr string, expected Purpose) (uuid.UUID, error) {
	claims, err := s.parse(tokenStr)
	if err != nil {
		return uuid.Nil, err
	}

	purpose, _ := claims["purpose"].(string)
	if Purpose(purpose) != expected {
		return uuid.Nil, ErrWrongPurpose
	}

	return doctorIDFromClaims(claims)
}

func (s *jwtService) parse(tokenStr string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func doctorIDFromClaims(claims jwt.MapClaims) (uuid.UUID, error) {
	raw, ok := claims["doctor_id"].(string)
	if !ok {
		return uuid.Nil, ErrMissingDoctorID
	}
	doctorID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrMissingDoctorID
	}
	return doctorID, nil
}
