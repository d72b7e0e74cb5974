package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// schema is the full relational layout. Uniqueness and foreign keys back the
// application-level checks; medical_history -> allergies is RESTRICT so the
// shared vocabulary can never silently destroy patient history.
const schema = `
CREATE TABLE IF NOT EXISTS doctors (
	id UUID PRIMARY KEY,
	first_name VARCHAR(100) NOT NULL DEFAULT '',
	last_name VARCHAR(100) NOT NULL,
	username VARCHAR(150) NOT NULL UNIQUE,
	phone_number VARCHAR(20),
	email VARCHAR(120) NOT NULL,
	email_confirmed BOOLEAN NOT NULL DEFAULT FALSE,
	email_confirmed_at TIMESTAMPTZ,
	password_hash VARCHAR(200) NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS uq_doctors_email_lower ON doctors (LOWER(email));
CREATE INDEX IF NOT EXISTS idx_doctors_last_name ON doctors (last_name);

CREATE TABLE IF NOT EXISTS specialties (
	id UUID PRIMARY KEY,
	name VARCHAR(100) NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS doctor_specialty (
	doctor_id UUID NOT NULL REFERENCES doctors(id) ON DELETE CASCADE,
	specialty_id UUID NOT NULL REFERENCES specialties(id) ON DELETE CASCADE,
	PRIMARY KEY (doctor_id, specialty_id)
);

CREATE TABLE IF NOT EXISTS patients (
	id UUID PRIMARY KEY,
	doctor_id UUID NOT NULL REFERENCES doctors(id),
	first_name VARCHAR(100) NOT NULL,
	last_name VARCHAR(100) NOT NULL,
	email VARCHAR(120),
	phone_number VARCHAR(20),
	age INTEGER,
	gender VARCHAR(10) CHECK (gender IN ('male', 'female', 'other')),
	date_of_birth DATE,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_patients_doctor_id ON patients (doctor_id);
CREATE INDEX IF NOT EXISTS idx_patients_last_name ON patients (last_name);

CREATE TABLE IF NOT EXISTS demographic_info (
	id UUID PRIMARY KEY,
	patient_id UUID NOT NULL UNIQUE REFERENCES patients(id),
	address VARCHAR(200),
	phone_number VARCHAR(20),
	emergency_contact VARCHAR(100)
);

CREATE TABLE IF NOT EXISTS social_history (
	id UUID PRIMARY KEY,
	patient_id UUID NOT NULL UNIQUE REFERENCES patients(id),
	smoking_status VARCHAR(50) NOT NULL DEFAULT 'no',
	smoking_units VARCHAR(50),
	alcohol_use VARCHAR(50),
	drug_use VARCHAR(50),
	occupation VARCHAR(100)
);

CREATE TABLE IF NOT EXISTS allergies (
	id UUID PRIMARY KEY,
	name VARCHAR(100) NOT NULL UNIQUE,
	description TEXT
);

CREATE TABLE IF NOT EXISTS medical_history (
	id UUID PRIMARY KEY,
	patient_id UUID NOT NULL REFERENCES patients(id),
	allergy_id UUID NOT NULL REFERENCES allergies(id) ON DELETE RESTRICT,
	description TEXT NOT NULL,
	date TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_medical_history_patient_id ON medical_history (patient_id);
CREATE INDEX IF NOT EXISTS idx_medical_history_date ON medical_history (date);

CREATE TABLE IF NOT EXISTS laboratory_results (
	id UUID PRIMARY KEY,
	patient_id UUID NOT NULL REFERENCES patients(id),
	test_name VARCHAR(100) NOT NULL,
	result VARCHAR(200) NOT NULL,
	date TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_laboratory_results_patient_id ON laboratory_results (patient_id);

CREATE TABLE IF NOT EXISTS radiology_imaging (
	id UUID PRIMARY KEY,
	patient_id UUID NOT NULL REFERENCES patients(id),
	name VARCHAR(200) NOT NULL,
	date TIMESTAMPTZ NOT NULL,
	image_filename VARCHAR(300),
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_radiology_imaging_patient_id ON radiology_imaging (patient_id);

CREATE TABLE IF NOT EXISTS appointments (
	id UUID PRIMARY KEY,
	patient_id UUID NOT NULL REFERENCES patients(id),
	doctor_id UUID NOT NULL REFERENCES doctors(id),
	date TIMESTAMPTZ NOT NULL,
	status VARCHAR(20) NOT NULL DEFAULT 'Scheduled'
		CHECK (status IN ('Scheduled', 'Completed', 'Cancelled')),
	notes TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	CONSTRAINT uq_appointment_doctor_date UNIQUE (doctor_id, date)
);
CREATE INDEX IF NOT EXISTS idx_appointments_patient_id ON appointments (patient_id);
CREATE INDEX IF NOT EXISTS idx_appointments_date ON appointments (date);

CREATE TABLE IF NOT EXISTS prescriptions (
	id UUID PRIMARY KEY,
	patient_id UUID NOT NULL REFERENCES patients(id),
	medication_name VARCHAR(100) NOT NULL,
	dosage VARCHAR(100) NOT NULL,
	frequency VARCHAR(100) NOT NULL,
	start_date TIMESTAMPTZ NOT NULL,
	end_date TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_prescriptions_patient_id ON prescriptions (patient_id);
`

// InitSchema creates all tables and indexes if they do not exist.
func InitSchema(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
