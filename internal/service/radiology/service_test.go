package radiology

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclinic/ehr-api/internal/model"
	"github.com/openclinic/ehr-api/internal/repository"
	"github.com/openclinic/ehr-api/internal/service/access"
	"github.com/openclinic/ehr-api/internal/storage"
	apperrors "github.com/openclinic/ehr-api/pkg/errors"
)

type fakeRadiologyRepo struct {
	records  map[uuid.UUID]*model.RadiologyImaging
	failNext bool
}

func newFakeRadiologyRepo() *fakeRadiologyRepo {
	return &fakeRadiologyRepo{records: make(map[uuid.UUID]*model.RadiologyImaging)}
}

func (f *fakeRadiologyRepo) Create(_ context.Context, r *model.RadiologyImaging) error {
	if f.failNext {
		f.failNext = false
		return errors.New("database down")
	}
	stored := *r
	f.records[r.ID] = &stored
	return nil
}

func (f *fakeRadiologyRepo) Get(_ context.Context, id uuid.UUID) (*model.RadiologyImaging, error) {
	r, ok := f.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *r
	return &copied, nil
}

func (f *fakeRadiologyRepo) Update(_ context.Context, r *model.RadiologyImaging) error {
	if f.failNext {
		f.failNext = false
		return errors.New("database down")
	}
	if _, ok := f.records[r.ID]; !ok {
		return repository.ErrNotFound
	}
	stored := *r
	f.records[r.ID] = &stored
	return nil
}

func (f *fakeRadiologyRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.records[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.records, id)
	return nil
}

func (f *fakeRadiologyRepo) ListForPatient(_ context.Context, patientID uuid.UUID) ([]*model.RadiologyImaging, error) {
	var out []*model.RadiologyImaging
	for _, r := range f.records {
		if r.PatientID == patientID {
			out = append(out, r)
		}
	}
	return out, nil
}

type stubPatientRepo struct {
	owners map[uuid.UUID]uuid.UUID
}

func (s *stubPatientRepo) Create(context.Context, *model.Patient, *model.DemographicInfo, *model.SocialHistory) error {
	return nil
}
func (s *stubPatientRepo) Get(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	doctorID, ok := s.owners[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	p := &model.Patient{DoctorID: doctorID}
	p.ID = id
	return p, nil
}
func (s *stubPatientRepo) Update(context.Context, *model.Patient, *model.DemographicInfo, *model.SocialHistory) error {
	return nil
}
func (s *stubPatientRepo) DeleteCascade(context.Context, uuid.UUID) ([]string, error) {
	return nil, nil
}
func (s *stubPatientRepo) List(context.Context, uuid.UUID, *model.PatientFilters) ([]*model.Patient, error) {
	return nil, nil
}
func (s *stubPatientRepo) GetDemographic(context.Context, uuid.UUID) (*model.DemographicInfo, error) {
	return nil, repository.ErrNotFound
}
func (s *stubPatientRepo) GetSocialHistory(context.Context, uuid.UUID) (*model.SocialHistory, error) {
	return nil, repository.ErrNotFound
}

// memStore is an in-memory FileStore.
type memStore struct {
	files map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{files: make(map[string][]byte)}
}

func (m *memStore) Save(name string, r io.Reader) error {
	content, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.files[name] = content
	return nil
}

func (m *memStore) Open(name string) (io.ReadCloser, error) {
	content, ok := m.files[name]
	if !ok {
		return nil, errors.New("file not found")
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

func (m *memStore) Delete(name string) error {
	delete(m.files, name)
	return nil
}

func (m *memStore) Exists(name string) bool {
	_, ok := m.files[name]
	return ok
}

func setup(t *testing.T) (*Service, *fakeRadiologyRepo, *memStore, uuid.UUID, uuid.UUID) {
	t.Helper()
	doctorID := uuid.New()
	patientID := uuid.New()
	patients := &stubPatientRepo{owners: map[uuid.UUID]uuid.UUID{patientID: doctorID}}
	repo := newFakeRadiologyRepo()
	files := newMemStore()
	return NewService(repo, access.NewGuard(patients), files), repo, files, doctorID, patientID
}

func upload(name, content string) *Upload {
	return &Upload{Filename: name, Size: int64(len(content)), Content: strings.NewReader(content)}
}

func TestCreateWithImage(t *testing.T) {
	svc, _, files, doctorID, patientID := setup(t)

	created, err := svc.Create(context.Background(), doctorID, patientID, &model.CreateRadiologyImagingRequest{
		Name: "Chest X-ray", Date: "2026-02-01",
	}, upload("chest.png", "png-bytes"))
	require.NoError(t, err)
	require.NotNil(t, created.ImageFilename)

	// Stored under the patient namespace with a generated name.
	path := storage.PatientPath(patientID, *created.ImageFilename)
	assert.True(t, files.Exists(path))
	assert.NotContains(t, *created.ImageFilename, "chest")
}

func TestCreateWithoutImage(t *testing.T) {
	svc, _, files, doctorID, patientID := setup(t)

	created, err := svc.Create(context.Background(), doctorID, patientID, &model.CreateRadiologyImagingRequest{
		Name: "MRI", Date: "2026-02-01",
	}, nil)
	require.NoError(t, err)
	assert.Nil(t, created.ImageFilename)
	assert.Empty(t, files.files)
}

func TestCreateRejectsDisallowedType(t *testing.T) {
	svc, _, files, doctorID, patientID := setup(t)

	_, err := svc.Create(context.Background(), doctorID, patientID, &model.CreateRadiologyImagingRequest{
		Name: "Report", Date: "2026-02-01",
	}, upload("report.pdf", "pdf-bytes"))

	_, ok := apperrors.AsValidation(err)
	assert.True(t, ok)
	assert.Empty(t, files.files)
}

func TestCreateRejectsOversizedUpload(t *testing.T) {
	svc, _, files, doctorID, patientID := setup(t)

	big := &Upload{Filename: "huge.png", Size: storage.MaxImageSize + 1, Content: strings.NewReader("x")}
	_, err := svc.Create(context.Background(), doctorID, patientID, &model.CreateRadiologyImagingRequest{
		Name: "Huge", Date: "2026-02-01",
	}, big)

	_, ok := apperrors.AsValidation(err)
	assert.True(t, ok)
	assert.Empty(t, files.files)
}

func TestReplaceImageRemovesOldFileAfterSuccess(t *testing.T) {
	svc, _, files, doctorID, patientID := setup(t)

	created, err := svc.Create(context.Background(), doctorID, patientID, &model.CreateRadiologyImagingRequest{
		Name: "Chest X-ray", Date: "2026-02-01",
	}, upload("old.png", "old-bytes"))
	require.NoError(t, err)
	oldPath := storage.PatientPath(patientID, *created.ImageFilename)

	updated, err := svc.Update(context.Background(), doctorID, patientID, created.ID, &model.UpdateRadiologyImagingRequest{
		Name: "Chest X-ray", Date: "2026-02-01",
	}, upload("new.png", "new-bytes"))
	require.NoError(t, err)

	newPath := storage.PatientPath(patientID, *updated.ImageFilename)
	assert.NotEqual(t, oldPath, newPath)
	assert.False(t, files.Exists(oldPath))
	assert.True(t, files.Exists(newPath))
}

func TestFailedReplaceKeepsOriginalImage(t *testing.T) {
	svc, repo, files, doctorID, patientID := setup(t)

	created, err := svc.Create(context.Background(), doctorID, patientID, &model.CreateRadiologyImagingRequest{
		Name: "Chest X-ray", Date: "2026-02-01",
	}, upload("old.png", "old-bytes"))
	require.NoError(t, err)
	oldName := *created.ImageFilename
	oldPath := storage.PatientPath(patientID, oldName)

	repo.failNext = true
	_, err = svc.Update(context.Background(), doctorID, patientID, created.ID, &model.UpdateRadiologyImagingRequest{
		Name: "Chest X-ray", Date: "2026-02-01",
	}, upload("new.png", "new-bytes"))
	require.Error(t, err)

	// Record still points at the original file, which is still stored.
	current, err := svc.Get(context.Background(), doctorID, patientID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, oldName, *current.ImageFilename)
	assert.True(t, files.Exists(oldPath))
}

func TestMetadataOnlyUpdateKeepsImage(t *testing.T) {
	svc, _, files, doctorID, patientID := setup(t)

	created, err := svc.Create(context.Background(), doctorID, patientID, &model.CreateRadiologyImagingRequest{
		Name: "Chest X-ray", Date: "2026-02-01",
	}, upload("scan.png", "bytes"))
	require.NoError(t, err)
	path := storage.PatientPath(patientID, *created.ImageFilename)

	updated, err := svc.Update(context.Background(), doctorID, patientID, created.ID, &model.UpdateRadiologyImagingRequest{
		Name: "Renamed", Date: "2026-02-02",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, *created.ImageFilename, *updated.ImageFilename)
	assert.True(t, files.Exists(path))
}

func TestDeleteRemovesRecordAndFile(t *testing.T) {
	svc, repo, files, doctorID, patientID := setup(t)

	created, err := svc.Create(context.Background(), doctorID, patientID, &model.CreateRadiologyImagingRequest{
		Name: "Chest X-ray", Date: "2026-02-01",
	}, upload("scan.png", "bytes"))
	require.NoError(t, err)
	path := storage.PatientPath(patientID, *created.ImageFilename)

	require.NoError(t, svc.Delete(context.Background(), doctorID, patientID, created.ID))
	assert.Empty(t, repo.records)
	assert.False(t, files.Exists(path))
}

func TestDeleteSurvivesMissingFile(t *testing.T) {
	svc, repo, files, doctorID, patientID := setup(t)

	created, err := svc.Create(context.Background(), doctorID, patientID, &model.CreateRadiologyImagingRequest{
		Name: "Chest X-ray", Date: "2026-02-01",
	}, upload("scan.png", "bytes"))
	require.NoError(t, err)

	// Someone removed the file out of band.
	files.files = map[string][]byte{}

	assert.NoError(t, svc.Delete(context.Background(), doctorID, patientID, created.ID))
	assert.Empty(t, repo.records)
}

func TestOpenImage(t *testing.T) {
	svc, _, _, doctorID, patientID := setup(t)

	created, err := svc.Create(context.Background(), doctorID, patientID, &model.CreateRadiologyImagingRequest{
		Name: "Chest X-ray", Date: "2026-02-01",
	}, upload("scan.png", "png-bytes"))
	require.NoError(t, err)

	rc, filename, err := svc.OpenImage(context.Background(), doctorID, patientID, created.ID)
	require.NoError(t, err)
	defer rc.Close()

	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(content))
	assert.Equal(t, *created.ImageFilename, filename)
}

func TestOpenImageWithoutFile(t *testing.T) {
	svc, _, _, doctorID, patientID := setup(t)

	created, err := svc.Create(context.Background(), doctorID, patientID, &model.CreateRadiologyImagingRequest{
		Name: "MRI", Date: "2026-02-01",
	}, nil)
	require.NoError(t, err)

	_, _, err = svc.OpenImage(context.Background(), doctorID, patientID, created.ID)
	assert.ErrorIs(t, err, access.ErrNotFound)
}

func TestRadiologyAccessDenied(t *testing.T) {
	svc, _, _, doctorID, patientID := setup(t)

	created, err := svc.Create(context.Background(), doctorID, patientID, &model.CreateRadiologyImagingRequest{
		Name: "Chest X-ray", Date: "2026-02-01",
	}, nil)
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), uuid.New(), patientID, created.ID)
	assert.True(t, access.Denied(err))
}
