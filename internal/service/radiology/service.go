package radiology

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/openclinic/ehr-api/internal/model"
	"github.com/openclinic/ehr-api/internal/repository"
	"github.com/openclinic/ehr-api/internal/service/access"
	"github.com/openclinic/ehr-api/internal/storage"
	apperrors "github.com/openclinic/ehr-api/pkg/errors"
)

// Upload carries an incoming image file. Size must be the declared length of
// Content; a zero Upload means the request had no file attached.
type Upload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

type RadiologyService interface {
	Create(ctx context.Context, doctorID, patientID uuid.UUID, req *model.CreateRadiologyImagingRequest, upload *Upload) (*model.RadiologyImaging, error)
	Get(ctx context.Context, doctorID, patientID, imagingID uuid.UUID) (*model.RadiologyImaging, error)
	Update(ctx context.Context, doctorID, patientID, imagingID uuid.UUID, req *model.UpdateRadiologyImagingRequest, upload *Upload) (*model.RadiologyImaging, error)
	Delete(ctx context.Context, doctorID, patientID, imagingID uuid.UUID) error
	List(ctx context.Context, doctorID, patientID uuid.UUID) ([]*model.RadiologyImaging, error)
	// OpenImage streams the stored image for an imaging record.
	OpenImage(ctx context.Context, doctorID, patientID, imagingID uuid.UUID) (io.ReadCloser, string, error)
}

type Service struct {
	repo  repository.RadiologyRepository
	guard *access.Guard
	files storage.FileStore
}

func NewService(repo repository.RadiologyRepository, guard *access.Guard, files storage.FileStore) *Service {
	return &Service{repo: repo, guard: guard, files: files}
}

func (s *Service) Create(ctx context.Context, doctorID, patientID uuid.UUID, req *model.CreateRadiologyImagingRequest, upload *Upload) (*model.RadiologyImaging, error) {
	if _, err := s.guard.Patient(ctx, doctorID, patientID); err != nil {
		return nil, err
	}

	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}

	imaging := &model.RadiologyImaging{
		Base:      model.NewBase(),
		PatientID: patientID,
		Name:      req.Name,
		Date:      date,
	}

	if upload != nil {
		stored, err := s.store(patientID, upload)
		if err != nil {
			return nil, err
		}
		imaging.ImageFilename = &stored
	}

	if err := s.repo.Create(ctx, imaging); err != nil {
		// The record never existed, so the stored file is an orphan.
		if imaging.ImageFilename != nil {
			s.removeFile(patientID, *imaging.ImageFilename)
		}
		return nil, fmt.Errorf("failed to create radiology record: %w", err)
	}
	return imaging, nil
}

func (s *Service) Get(ctx context.Context, doctorID, patientID, imagingID uuid.UUID) (*model.RadiologyImaging, error) {
	return s.authorize(ctx, doctorID, patientID, imagingID)
}

// Update replaces the metadata and, when a new file is supplied, the stored
// image. The new file is saved before the record points at it and the old
// file is removed only after the record update succeeds, so a failure at any
// step leaves the previous image intact.
func (s *Service) Update(ctx context.Context, doctorID, patientID, imagingID uuid.UUID, req *model.UpdateRadiologyImagingRequest, upload *Upload) (*model.RadiologyImaging, error) {
	imaging, err := s.authorize(ctx, doctorID, patientID, imagingID)
	if err != nil {
		return nil, err
	}

	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}

	previous := imaging.ImageFilename

	imaging.Name = req.Name
	imaging.Date = date

	if upload != nil {
		stored, err := s.store(patientID, upload)
		if err != nil {
			return nil, err
		}
		imaging.ImageFilename = &stored
	}

	if err := s.repo.Update(ctx, imaging); err != nil {
		if upload != nil && imaging.ImageFilename != nil {
			s.removeFile(patientID, *imaging.ImageFilename)
		}
		return nil, fmt.Errorf("failed to update radiology record: %w", err)
	}

	if upload != nil && previous != nil {
		s.removeFile(patientID, *previous)
	}
	return imaging, nil
}

func (s *Service) Delete(ctx context.Context, doctorID, patientID, imagingID uuid.UUID) error {
	imaging, err := s.authorize(ctx, doctorID, patientID, imagingID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, imagingID); err != nil {
		return fmt.Errorf("failed to delete radiology record: %w", err)
	}

	if imaging.ImageFilename != nil {
		s.removeFile(patientID, *imaging.ImageFilename)
	}
	return nil
}

func (s *Service) List(ctx context.Context, doctorID, patientID uuid.UUID) ([]*model.RadiologyImaging, error) {
	if _, err := s.guard.Patient(ctx, doctorID, patientID); err != nil {
		return nil, err
	}
	records, err := s.repo.ListForPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list radiology records: %w", err)
	}
	return records, nil
}

func (s *Service) OpenImage(ctx context.Context, doctorID, patientID, imagingID uuid.UUID) (io.ReadCloser, string, error) {
	imaging, err := s.authorize(ctx, doctorID, patientID, imagingID)
	if err != nil {
		return nil, "", err
	}
	if imaging.ImageFilename == nil {
		return nil, "", access.ErrNotFound
	}

	rc, err := s.files.Open(storage.PatientPath(patientID, *imaging.ImageFilename))
	if err != nil {
		return nil, "", access.ErrNotFound
	}
	return rc, *imaging.ImageFilename, nil
}

func (s *Service) authorize(ctx context.Context, doctorID, patientID, imagingID uuid.UUID) (*model.RadiologyImaging, error) {
	if _, err := s.guard.Patient(ctx, doctorID, patientID); err != nil {
		return nil, err
	}
	imaging, err := s.repo.Get(ctx, imagingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, access.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get radiology record: %w", err)
	}
	if imaging.PatientID != patientID {
		return nil, access.ErrNotOwned
	}
	return imaging, nil
}

// store validates the upload and writes it under the patient's namespace
// with a generated name, returning the stored filename.
func (s *Service) store(patientID uuid.UUID, upload *Upload) (string, error) {
	var ve apperrors.ValidationErrors
	if !storage.AllowedExtension(upload.Filename) {
		ve.Add("file type not allowed")
	}
	if upload.Size > storage.MaxImageSize {
		ve.Add("file exceeds the 10 MB size limit")
	}
	if err := ve.ErrOrNil(); err != nil {
		return "", err
	}

	stored := storage.UniqueFilename(upload.Filename)
	limited := io.LimitReader(upload.Content, storage.MaxImageSize+1)
	if err := s.files.Save(storage.PatientPath(patientID, stored), limited); err != nil {
		return "", fmt.Errorf("failed to store image: %w", err)
	}
	return stored, nil
}

func (s *Service) removeFile(patientID uuid.UUID, filename string) {
	if err := s.files.Delete(storage.PatientPath(patientID, filename)); err != nil {
		log.Warn().Err(err).Str("file", filename).Msg("failed to remove stored image")
	}
}

func parseDate(raw string) (time.Time, error) {
	parsed, err := model.ParseDateTime(raw)
	if err != nil {
		var ve apperrors.ValidationErrors
		ve.Add("invalid date format")
		return time.Time{}, &ve
	}
	return parsed, nil
}
