package allergy

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/openclinic/ehr-api/internal/model"
	"github.com/openclinic/ehr-api/internal/repository"
	apperrors "github.com/openclinic/ehr-api/pkg/errors"
)

// The vocabulary changes rarely, so reads are served from a short-lived
// cache that is dropped on every write.
const (
	cacheKey = "allergy:list"
	cacheTTL = 5 * time.Minute
)

type AllergyService interface {
	List(ctx context.Context) ([]*model.Allergy, error)
	Create(ctx context.Context, req *model.CreateAllergyRequest) (*model.Allergy, error)
	Delete(ctx context.Context, allergyID uuid.UUID) error
}

type Service struct {
	allergies repository.AllergyRepository
	history   repository.MedicalHistoryRepository
	cache     *gocache.Cache
}

func NewService(allergies repository.AllergyRepository, history repository.MedicalHistoryRepository) *Service {
	return &Service{
		allergies: allergies,
		history:   history,
		cache:     gocache.New(cacheTTL, 10*time.Minute),
	}
}

func (s *Service) List(ctx context.Context) ([]*model.Allergy, error) {
	if cached, ok := s.cache.Get(cacheKey); ok {
		return cached.([]*model.Allergy), nil
	}

	allergies, err := s.allergies.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list allergies: %w", err)
	}

	s.cache.Set(cacheKey, allergies, gocache.DefaultExpiration)
	return allergies, nil
}

func (s *Service) Create(ctx context.Context, req *model.CreateAllergyRequest) (*model.Allergy, error) {
	var ve apperrors.ValidationErrors
	name := strings.TrimSpace(req.Name)
	if name == "" {
		ve.Add("allergy name is required")
	}
	if _, err := s.allergies.GetByName(ctx, name); err == nil {
		ve.Add("allergy %q already exists", name)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check allergy name: %w", err)
	}
	if err := ve.ErrOrNil(); err != nil {
		return nil, err
	}

	allergy := &model.Allergy{
		ID:          uuid.New(),
		Name:        name,
		Description: optional(req.Description),
	}
	if err := s.allergies.Create(ctx, allergy); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			var dup apperrors.ValidationErrors
			dup.Add("allergy %q already exists", name)
			return nil, &dup
		}
		return nil, fmt.Errorf("failed to create allergy: %w", err)
	}

	s.cache.Delete(cacheKey)
	return allergy, nil
}

// Delete removes a vocabulary entry. Entries referenced by any medical
// history record are kept so patient records never dangle.
func (s *Service) Delete(ctx context.Context, allergyID uuid.UUID) error {
	allergy, err := s.allergies.Get(ctx, allergyID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("allergy", err)
		}
		return fmt.Errorf("failed to get allergy: %w", err)
	}

	inUse, err := s.history.CountForAllergy(ctx, allergyID)
	if err != nil {
		return fmt.Errorf("failed to count allergy references: %w", err)
	}
	if inUse > 0 {
		var ve apperrors.ValidationErrors
		ve.Add("allergy %q is referenced by %d medical history entries", allergy.Name, inUse)
		return &ve
	}

	if err := s.allergies.Delete(ctx, allergyID); err != nil {
		return fmt.Errorf("failed to delete allergy: %w", err)
	}

	s.cache.Delete(cacheKey)
	return nil
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
