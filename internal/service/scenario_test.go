package service_test

import (
	"context"
	"io"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/openclinic/ehr-api/internal/model"
	"github.com/openclinic/ehr-api/internal/repository"
	"github.com/openclinic/ehr-api/internal/service/access"
	appointmentservice "github.com/openclinic/ehr-api/internal/service/appointment"
	authservice "github.com/openclinic/ehr-api/internal/service/auth"
	patientservice "github.com/openclinic/ehr-api/internal/service/patient"
	recordservice "github.com/openclinic/ehr-api/internal/service/record"
	apperrors "github.com/openclinic/ehr-api/pkg/errors"
	"github.com/openclinic/ehr-api/pkg/security"
	"github.com/openclinic/ehr-api/pkg/token"
)

// Walks the whole doctor workflow through the real services wired over
// in-memory repositories: register, confirm, log in, create a patient, book
// an appointment, hit the double-booking rule, record a lab result, then
// delete the patient and check nothing is left behind.
func TestDoctorWorkflow(t *testing.T) {
	ctx := context.Background()

	doctors := newMemDoctorRepo()
	appointments := newMemAppointmentRepo()
	labs := newMemLabRepo()
	patients := newMemPatientRepo(appointments, labs)

	tokens := token.NewService("scenario-secret", time.Hour)
	mailer := &captureMailer{confirmURLs: make(chan string, 1)}
	guard := access.NewGuard(patients)

	authSvc := authservice.NewService(doctors, security.NewBcryptHasher(bcrypt.MinCost), tokens, mailer, "http://localhost")
	patientSvc := patientservice.NewService(patients, guard, nopStore{})
	appointmentSvc := appointmentservice.NewService(appointments, guard)
	recordSvc := recordservice.NewService(labs, newMemHistoryRepo(), newMemAllergyRepo(), guard)

	// Register and confirm.
	_, err := authSvc.Register(ctx, &model.RegisterDoctorRequest{
		FirstName: "Jane",
		LastName:  "Doe",
		Username:  "jdoe",
		Email:     "jdoe@x.com",
		Password:  "Password1",
	})
	require.NoError(t, err)

	confirmToken := tokenFromURL(t, waitForURL(t, mailer.confirmURLs))
	require.NoError(t, authSvc.ConfirmEmail(ctx, confirmToken))

	// Log in by username; the session token carries the doctor identity.
	session, err := authSvc.Login(ctx, &model.LoginRequest{Login: "jdoe", Password: "Password1"})
	require.NoError(t, err)
	claims, err := tokens.ValidateSession(session.AccessToken)
	require.NoError(t, err)
	doctorID := claims.DoctorID

	// Create the patient.
	ann, err := patientSvc.CreatePatient(ctx, doctorID, &model.CreatePatientRequest{
		FirstName: "Ann",
		LastName:  "Lee",
	})
	require.NoError(t, err)

	// First booking succeeds, the second at the same instant is refused.
	_, err = appointmentSvc.Schedule(ctx, doctorID, &model.ScheduleAppointmentRequest{
		PatientID: ann.ID,
		Date:      "2025-03-01T09:00",
	})
	require.NoError(t, err)

	other, err := patientSvc.CreatePatient(ctx, doctorID, &model.CreatePatientRequest{
		FirstName: "Bob",
		LastName:  "Ray",
	})
	require.NoError(t, err)

	_, err = appointmentSvc.Schedule(ctx, doctorID, &model.ScheduleAppointmentRequest{
		PatientID: other.ID,
		Date:      "2025-03-01T09:00",
	})
	require.Error(t, err)
	ve, ok := apperrors.AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, ve.Error(), "2025-03-01 09:00")

	booked, err := appointmentSvc.List(ctx, doctorID, nil)
	require.NoError(t, err)
	assert.Len(t, booked, 1)

	// Record a lab result for Ann.
	_, err = recordSvc.CreateLabResult(ctx, doctorID, ann.ID, &model.CreateLabResultRequest{
		TestName: "Glucose",
		Result:   "95 mg/dL",
		Date:     "2025-03-02",
	})
	require.NoError(t, err)

	// Deleting the patient takes the appointment and lab result with it.
	require.NoError(t, patientSvc.DeletePatient(ctx, doctorID, ann.ID))

	_, err = patientSvc.GetPatient(ctx, doctorID, ann.ID)
	assert.ErrorIs(t, err, access.ErrNotFound)

	results, err := labs.ListForPatient(ctx, ann.ID)
	require.NoError(t, err)
	assert.Empty(t, results)

	booked, err = appointmentSvc.List(ctx, doctorID, nil)
	require.NoError(t, err)
	assert.Empty(t, booked)
}

func waitForURL(t *testing.T, ch chan string) string {
	t.Helper()
	select {
	case u := <-ch:
		return u
	case <-time.After(2 * time.Second):
		t.Fatal("no email delivered")
		return ""
	}
}

func tokenFromURL(t *testing.T, raw string) string {
	t.Helper()
	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	value := parsed.Query().Get("token")
	require.NotEmpty(t, value)
	return value
}

type captureMailer struct {
	confirmURLs chan string
}

func (m *captureMailer) SendConfirmation(_ context.Context, _, _, confirmURL string) error {
	m.confirmURLs <- confirmURL
	return nil
}

func (m *captureMailer) SendPasswordReset(context.Context, string, string, string) error {
	return nil
}

type nopStore struct{}

func (nopStore) Save(string, io.Reader) error { return nil }

func (nopStore) Open(string) (io.ReadCloser, error) { return nil, os.ErrNotExist }

func (nopStore) Delete(string) error { return nil }

func (nopStore) Exists(string) bool { return false }

type memDoctorRepo struct {
	mu      sync.Mutex
	doctors map[uuid.UUID]*model.Doctor
}

func newMemDoctorRepo() *memDoctorRepo {
	return &memDoctorRepo{doctors: make(map[uuid.UUID]*model.Doctor)}
}

func (r *memDoctorRepo) Create(_ context.Context, doctor *model.Doctor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.doctors {
		if d.Username == doctor.Username || strings.EqualFold(d.Email, doctor.Email) {
			return repository.ErrDuplicate
		}
	}
	copied := *doctor
	r.doctors[doctor.ID] = &copied
	return nil
}

func (r *memDoctorRepo) Get(_ context.Context, id uuid.UUID) (*model.Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.doctors[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *d
	return &copied, nil
}

func (r *memDoctorRepo) GetByUsername(_ context.Context, username string) (*model.Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.doctors {
		if d.Username == username {
			copied := *d
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memDoctorRepo) GetByEmail(_ context.Context, email string) (*model.Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.doctors {
		if strings.EqualFold(d.Email, email) {
			copied := *d
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memDoctorRepo) Update(_ context.Context, doctor *model.Doctor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.doctors[doctor.ID]; !ok {
		return repository.ErrNotFound
	}
	copied := *doctor
	r.doctors[doctor.ID] = &copied
	return nil
}

func (r *memDoctorRepo) ConfirmEmail(_ context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.doctors[id]
	if !ok {
		return repository.ErrNotFound
	}
	d.EmailConfirmed = true
	d.EmailConfirmedAt = &at
	return nil
}

func (r *memDoctorRepo) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.doctors[id]
	if !ok {
		return repository.ErrNotFound
	}
	d.PasswordHash = passwordHash
	return nil
}

func (r *memDoctorRepo) DeleteCascade(_ context.Context, id uuid.UUID) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.doctors[id]; !ok {
		return nil, repository.ErrNotFound
	}
	delete(r.doctors, id)
	return nil, nil
}

func (r *memDoctorRepo) ListUnconfirmedBefore(context.Context, time.Time) ([]*model.Doctor, error) {
	return nil, nil
}

func (r *memDoctorRepo) SetSpecialties(context.Context, uuid.UUID, []uuid.UUID) error {
	return nil
}

func (r *memDoctorRepo) ListSpecialties(context.Context, uuid.UUID) ([]*model.Specialty, error) {
	return nil, nil
}

// memPatientRepo mirrors the application-level cascade: deleting a patient
// clears that patient's appointments and lab results too.
type memPatientRepo struct {
	mu           sync.Mutex
	patients     map[uuid.UUID]*model.Patient
	demos        map[uuid.UUID]*model.DemographicInfo
	socials      map[uuid.UUID]*model.SocialHistory
	appointments *memAppointmentRepo
	labs         *memLabRepo
}

func newMemPatientRepo(appointments *memAppointmentRepo, labs *memLabRepo) *memPatientRepo {
	return &memPatientRepo{
		patients:     make(map[uuid.UUID]*model.Patient),
		demos:        make(map[uuid.UUID]*model.DemographicInfo),
		socials:      make(map[uuid.UUID]*model.SocialHistory),
		appointments: appointments,
		labs:         labs,
	}
}

func (r *memPatientRepo) Create(_ context.Context, patient *model.Patient, demo *model.DemographicInfo, social *model.SocialHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *patient
	r.patients[patient.ID] = &copied
	if !demo.IsEmpty() {
		r.demos[patient.ID] = demo
	}
	if !social.IsEmpty() {
		r.socials[patient.ID] = social
	}
	return nil
}

func (r *memPatientRepo) Get(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.patients[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *memPatientRepo) Update(_ context.Context, patient *model.Patient, demo *model.DemographicInfo, social *model.SocialHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.patients[patient.ID]; !ok {
		return repository.ErrNotFound
	}
	copied := *patient
	r.patients[patient.ID] = &copied
	if _, ok := r.demos[patient.ID]; ok || !demo.IsEmpty() {
		r.demos[patient.ID] = demo
	}
	if _, ok := r.socials[patient.ID]; ok || !social.IsEmpty() {
		r.socials[patient.ID] = social
	}
	return nil
}

func (r *memPatientRepo) DeleteCascade(_ context.Context, id uuid.UUID) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.patients[id]; !ok {
		return nil, repository.ErrNotFound
	}
	delete(r.patients, id)
	delete(r.demos, id)
	delete(r.socials, id)
	r.appointments.deleteForPatient(id)
	r.labs.deleteForPatient(id)
	return nil, nil
}

func (r *memPatientRepo) List(_ context.Context, doctorID uuid.UUID, _ *model.PatientFilters) ([]*model.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Patient
	for _, p := range r.patients {
		if p.DoctorID == doctorID {
			copied := *p
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *memPatientRepo) GetDemographic(_ context.Context, patientID uuid.UUID) (*model.DemographicInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.demos[patientID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return d, nil
}

func (r *memPatientRepo) GetSocialHistory(_ context.Context, patientID uuid.UUID) (*model.SocialHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.socials[patientID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return s, nil
}

type memAppointmentRepo struct {
	mu           sync.Mutex
	appointments map[uuid.UUID]*model.Appointment
}

func newMemAppointmentRepo() *memAppointmentRepo {
	return &memAppointmentRepo{appointments: make(map[uuid.UUID]*model.Appointment)}
}

func (r *memAppointmentRepo) deleteForPatient(patientID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, a := range r.appointments {
		if a.PatientID == patientID {
			delete(r.appointments, id)
		}
	}
}

func (r *memAppointmentRepo) Create(_ context.Context, appointment *model.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.appointments {
		if a.DoctorID == appointment.DoctorID && a.Date.Equal(appointment.Date) {
			return repository.ErrDuplicate
		}
	}
	copied := *appointment
	r.appointments[appointment.ID] = &copied
	return nil
}

func (r *memAppointmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (r *memAppointmentRepo) Update(_ context.Context, appointment *model.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.appointments[appointment.ID]; !ok {
		return repository.ErrNotFound
	}
	copied := *appointment
	r.appointments[appointment.ID] = &copied
	return nil
}

func (r *memAppointmentRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.appointments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.appointments, id)
	return nil
}

func (r *memAppointmentRepo) ListForDoctor(_ context.Context, doctorID uuid.UUID, _ *model.AppointmentFilters) ([]*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Appointment
	for _, a := range r.appointments {
		if a.DoctorID == doctorID {
			copied := *a
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *memAppointmentRepo) ExistsForDoctorAt(_ context.Context, doctorID uuid.UUID, date time.Time, excludeID *uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, a := range r.appointments {
		if excludeID != nil && id == *excludeID {
			continue
		}
		if a.DoctorID == doctorID && a.Date.Equal(date) {
			return true, nil
		}
	}
	return false, nil
}

type memLabRepo struct {
	mu      sync.Mutex
	results map[uuid.UUID]*model.LaboratoryResult
}

func newMemLabRepo() *memLabRepo {
	return &memLabRepo{results: make(map[uuid.UUID]*model.LaboratoryResult)}
}

func (r *memLabRepo) deleteForPatient(patientID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, lr := range r.results {
		if lr.PatientID == patientID {
			delete(r.results, id)
		}
	}
}

func (r *memLabRepo) Create(_ context.Context, result *model.LaboratoryResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *result
	r.results[result.ID] = &copied
	return nil
}

func (r *memLabRepo) Get(_ context.Context, id uuid.UUID) (*model.LaboratoryResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lr, ok := r.results[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *lr
	return &copied, nil
}

func (r *memLabRepo) Update(_ context.Context, result *model.LaboratoryResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.results[result.ID]; !ok {
		return repository.ErrNotFound
	}
	copied := *result
	r.results[result.ID] = &copied
	return nil
}

func (r *memLabRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.results[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.results, id)
	return nil
}

func (r *memLabRepo) ListForPatient(_ context.Context, patientID uuid.UUID) ([]*model.LaboratoryResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.LaboratoryResult
	for _, lr := range r.results {
		if lr.PatientID == patientID {
			copied := *lr
			out = append(out, &copied)
		}
	}
	return out, nil
}

type memHistoryRepo struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*model.MedicalHistory
}

func newMemHistoryRepo() *memHistoryRepo {
	return &memHistoryRepo{entries: make(map[uuid.UUID]*model.MedicalHistory)}
}

func (r *memHistoryRepo) Create(_ context.Context, entry *model.MedicalHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *entry
	r.entries[entry.ID] = &copied
	return nil
}

func (r *memHistoryRepo) Get(_ context.Context, id uuid.UUID) (*model.MedicalHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *e
	return &copied, nil
}

func (r *memHistoryRepo) Update(_ context.Context, entry *model.MedicalHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[entry.ID]; !ok {
		return repository.ErrNotFound
	}
	copied := *entry
	r.entries[entry.ID] = &copied
	return nil
}

func (r *memHistoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.entries, id)
	return nil
}

func (r *memHistoryRepo) ListForPatient(_ context.Context, patientID uuid.UUID) ([]*model.MedicalHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.MedicalHistory
	for _, e := range r.entries {
		if e.PatientID == patientID {
			copied := *e
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *memHistoryRepo) CountForAllergy(_ context.Context, allergyID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, e := range r.entries {
		if e.AllergyID == allergyID {
			count++
		}
	}
	return count, nil
}

type memAllergyRepo struct {
	mu        sync.Mutex
	allergies map[uuid.UUID]*model.Allergy
}

func newMemAllergyRepo() *memAllergyRepo {
	return &memAllergyRepo{allergies: make(map[uuid.UUID]*model.Allergy)}
}

func (r *memAllergyRepo) Create(_ context.Context, allergy *model.Allergy) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *allergy
	r.allergies[allergy.ID] = &copied
	return nil
}

func (r *memAllergyRepo) Get(_ context.Context, id uuid.UUID) (*model.Allergy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.allergies[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (r *memAllergyRepo) GetByName(_ context.Context, name string) (*model.Allergy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.allergies {
		if a.Name == name {
			copied := *a
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memAllergyRepo) List(context.Context) ([]*model.Allergy, error) {
	return nil, nil
}

func (r *memAllergyRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.allergies[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.allergies, id)
	return nil
}
