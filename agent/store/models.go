package store

import (
	"time"

	"github.com/uptrace/bun"
)

// Interaction is one recorded provider/patient encounter. A record is either
// chat-based (ChatNotes) or form-based (Symptoms/Diagnosis/Prescription)
// depending on submission mode; both may coexist after edits.
type Interaction struct {
	bun.BaseModel `bun:"table:patient_interactions"`

	ID              string     `bun:"id,pk" json:"id"`
	PatientID       *string    `bun:"patient_id" json:"patient_id"`
	InteractionType string     `bun:"interaction_type" json:"interaction_type"`
	InteractionDate time.Time  `bun:"interaction_date" json:"interaction_date"`
	DurationMinutes *int       `bun:"duration_minutes" json:"duration_minutes"`
	Symptoms        *string    `bun:"symptoms" json:"symptoms"`
	Diagnosis       *string    `bun:"diagnosis" json:"diagnosis"`
	Prescription    *string    `bun:"prescription" json:"prescription"`
	FollowUpDate    *time.Time `bun:"follow_up_date" json:"follow_up_date"`
	ChatNotes       *string    `bun:"chat_notes" json:"chat_notes"`
	IsCompliant     bool       `bun:"is_compliant" json:"is_compliant"`
	CreatedAt       time.Time  `bun:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `bun:"updated_at" json:"updated_at"`
}

// ProviderProfile is static reference data for a healthcare professional.
// Profiles are created at seed time and read-only afterwards.
type ProviderProfile struct {
	bun.BaseModel `bun:"table:hcp_profiles"`

	ID                  string `bun:"id,pk" json:"id"`
	Name                string `bun:"name,notnull" json:"name"`
	Specialization      string `bun:"specialization,notnull" json:"specialization"`
	LicenseNumber       string `bun:"license_number,notnull,unique" json:"license_number"`
	HospitalAffiliation string `bun:"hospital_affiliation" json:"hospital_affiliation"`
	YearsOfExperience   int    `bun:"years_of_experience" json:"years_of_experience"`
	ContactEmail        string `bun:"contact_email" json:"contact_email"`
}

// InteractionPatch carries the updatable fields of an interaction.
// Nil fields are left untouched.
type InteractionPatch struct {
	Diagnosis    *string
	Prescription *string
	FollowUpDate *time.Time
	IsCompliant  *bool
}
