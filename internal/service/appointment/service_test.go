package appointment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclinic/ehr-api/internal/model"
	"github.com/openclinic/ehr-api/internal/repository"
	"github.com/openclinic/ehr-api/internal/service/access"
	apperrors "github.com/openclinic/ehr-api/pkg/errors"
)

type fakeAppointmentRepo struct {
	appointments map[uuid.UUID]*model.Appointment
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{appointments: make(map[uuid.UUID]*model.Appointment)}
}

func (f *fakeAppointmentRepo) Create(_ context.Context, a *model.Appointment) error {
	for _, existing := range f.appointments {
		if existing.DoctorID == a.DoctorID && existing.Date.Equal(a.Date) {
			return repository.ErrDuplicate
		}
	}
	f.appointments[a.ID] = a
	return nil
}

func (f *fakeAppointmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	a, ok := f.appointments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (f *fakeAppointmentRepo) Update(_ context.Context, a *model.Appointment) error {
	if _, ok := f.appointments[a.ID]; !ok {
		return repository.ErrNotFound
	}
	for _, existing := range f.appointments {
		if existing.ID != a.ID && existing.DoctorID == a.DoctorID && existing.Date.Equal(a.Date) {
			return repository.ErrDuplicate
		}
	}
	f.appointments[a.ID] = a
	return nil
}

func (f *fakeAppointmentRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.appointments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.appointments, id)
	return nil
}

func (f *fakeAppointmentRepo) ListForDoctor(_ context.Context, doctorID uuid.UUID, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, a := range f.appointments {
		if a.DoctorID != doctorID {
			continue
		}
		if filters != nil && filters.PatientID != uuid.Nil && a.PatientID != filters.PatientID {
			continue
		}
		if filters != nil && filters.Status != "" && a.Status != filters.Status {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeAppointmentRepo) ExistsForDoctorAt(_ context.Context, doctorID uuid.UUID, date time.Time, excludeID *uuid.UUID) (bool, error) {
	for _, a := range f.appointments {
		if excludeID != nil && a.ID == *excludeID {
			continue
		}
		if a.DoctorID == doctorID && a.Date.Equal(date) {
			return true, nil
		}
	}
	return false, nil
}

type stubPatientRepo struct {
	owners map[uuid.UUID]uuid.UUID // patient id -> doctor id
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

func newTestService(t *testing.T) (*Service, *fakeAppointmentRepo, uuid.UUID, uuid.UUID) {
	t.Helper()
	doctorID := uuid.New()
	patientID := uuid.New()
	patients := &stubPatientRepo{owners: map[uuid.UUID]uuid.UUID{patientID: doctorID}}
	repo := newFakeAppointmentRepo()
	return NewService(repo, access.NewGuard(patients)), repo, doctorID, patientID
}

func TestScheduleAppointment(t *testing.T) {
	svc, repo, doctorID, patientID := newTestService(t)

	created, err := svc.Schedule(context.Background(), doctorID, &model.ScheduleAppointmentRequest{
		PatientID: patientID,
		Date:      "2026-04-01T10:30",
	})
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusScheduled, created.Status)
	assert.Len(t, repo.appointments, 1)
}

func TestScheduleRejectsDoubleBooking(t *testing.T) {
	svc, _, doctorID, patientID := newTestService(t)

	_, err := svc.Schedule(context.Background(), doctorID, &model.ScheduleAppointmentRequest{
		PatientID: patientID, Date: "2026-04-01T10:30",
	})
	require.NoError(t, err)

	_, err = svc.Schedule(context.Background(), doctorID, &model.ScheduleAppointmentRequest{
		PatientID: patientID, Date: "2026-04-01T10:30",
	})
	require.Error(t, err)

	ve, ok := apperrors.AsValidation(err)
	require.True(t, ok)
	require.Len(t, ve.Violations, 1)
	assert.Contains(t, ve.Violations[0], "2026-04-01 10:30")
}

func TestScheduleAllowsDifferentTimes(t *testing.T) {
	svc, _, doctorID, patientID := newTestService(t)

	_, err := svc.Schedule(context.Background(), doctorID, &model.ScheduleAppointmentRequest{
		PatientID: patientID, Date: "2026-04-01T10:30",
	})
	require.NoError(t, err)

	_, err = svc.Schedule(context.Background(), doctorID, &model.ScheduleAppointmentRequest{
		PatientID: patientID, Date: "2026-04-01T11:00",
	})
	assert.NoError(t, err)
}

func TestUpdateExcludesItselfFromConflictCheck(t *testing.T) {
	svc, _, doctorID, patientID := newTestService(t)

	created, err := svc.Schedule(context.Background(), doctorID, &model.ScheduleAppointmentRequest{
		PatientID: patientID, Date: "2026-04-01T10:30",
	})
	require.NoError(t, err)

	// Re-saving with the same date must not conflict with itself.
	updated, err := svc.Update(context.Background(), doctorID, created.ID, &model.UpdateAppointmentRequest{
		Date:   "2026-04-01T10:30",
		Status: "Completed",
	})
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCompleted, updated.Status)
}

func TestUpdateIntoOccupiedSlotFails(t *testing.T) {
	svc, _, doctorID, patientID := newTestService(t)

	_, err := svc.Schedule(context.Background(), doctorID, &model.ScheduleAppointmentRequest{
		PatientID: patientID, Date: "2026-04-01T10:30",
	})
	require.NoError(t, err)

	second, err := svc.Schedule(context.Background(), doctorID, &model.ScheduleAppointmentRequest{
		PatientID: patientID, Date: "2026-04-01T11:00",
	})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), doctorID, second.ID, &model.UpdateAppointmentRequest{
		Date:   "2026-04-01T10:30",
		Status: "Scheduled",
	})
	_, ok := apperrors.AsValidation(err)
	assert.True(t, ok)
}

func TestDifferentDoctorsMayShareATime(t *testing.T) {
	doctorA := uuid.New()
	doctorB := uuid.New()
	patientA := uuid.New()
	patientB := uuid.New()
	patients := &stubPatientRepo{owners: map[uuid.UUID]uuid.UUID{
		patientA: doctorA,
		patientB: doctorB,
	}}
	svc := NewService(newFakeAppointmentRepo(), access.NewGuard(patients))

	_, err := svc.Schedule(context.Background(), doctorA, &model.ScheduleAppointmentRequest{
		PatientID: patientA, Date: "2026-04-01T10:30",
	})
	require.NoError(t, err)

	_, err = svc.Schedule(context.Background(), doctorB, &model.ScheduleAppointmentRequest{
		PatientID: patientB, Date: "2026-04-01T10:30",
	})
	assert.NoError(t, err)
}

func TestAppointmentAccessDenied(t *testing.T) {
	svc, _, doctorID, patientID := newTestService(t)

	created, err := svc.Schedule(context.Background(), doctorID, &model.ScheduleAppointmentRequest{
		PatientID: patientID, Date: "2026-04-01T10:30",
	})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), uuid.New(), created.ID)
	assert.True(t, access.Denied(err))

	err = svc.Delete(context.Background(), uuid.New(), created.ID)
	assert.True(t, access.Denied(err))
}

func TestSchedulingForForeignPatientDenied(t *testing.T) {
	svc, _, _, patientID := newTestService(t)

	_, err := svc.Schedule(context.Background(), uuid.New(), &model.ScheduleAppointmentRequest{
		PatientID: patientID, Date: "2026-04-01T10:30",
	})
	assert.True(t, access.Denied(err))
}
