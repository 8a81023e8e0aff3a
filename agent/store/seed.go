package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/careloop/crm/agent/contract"
)

// Init creates the schema and seeds reference data when the tables are empty.
func (s *BunStore) Init(ctx context.Context) error {
	if err := s.CreateSchema(ctx); err != nil {
		return err
	}
	if err := s.seedProviders(ctx); err != nil {
		return err
	}
	return s.seedInteractions(ctx)
}

// CreateSchema creates the tables without seeding any data.
func (s *BunStore) CreateSchema(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().Model((*Interaction)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("%w: create interactions table: %v", contractx.ErrStorage, err)
	}
	if _, err := s.db.NewCreateTable().Model((*ProviderProfile)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("%w: create provider profiles table: %v", contractx.ErrStorage, err)
	}
	return nil
}

func (s *BunStore) seedProviders(ctx context.Context) error {
	count, err := s.db.NewSelect().Model((*ProviderProfile)(nil)).Count(ctx)
	if err != nil {
		return fmt.Errorf("%w: count provider profiles: %v", contractx.ErrStorage, err)
	}
	if count > 0 {
		return nil
	}

	profiles := []ProviderProfile{
		{
			ID:                  uuid.NewString(),
			Name:                "Dr. Sarah Johnson",
			Specialization:      "Cardiology",
			LicenseNumber:       "MD123456",
			HospitalAffiliation: "General Hospital",
			YearsOfExperience:   12,
			ContactEmail:        "sarah.johnson@hospital.com",
		},
		{
			ID:                  uuid.NewString(),
			Name:                "Dr. Michael Chen",
			Specialization:      "Pediatrics",
			LicenseNumber:       "MD789012",
			HospitalAffiliation: "Children's Medical Center",
			YearsOfExperience:   8,
			ContactEmail:        "michael.chen@childrenshospital.com",
		},
		{
			ID:                  uuid.NewString(),
			Name:                "Dr. Lisa Rodriguez",
			Specialization:      "Neurology",
			LicenseNumber:       "MD345678",
			HospitalAffiliation: "Neuro Center",
			YearsOfExperience:   15,
			ContactEmail:        "lisa.rodriguez@neurocenter.com",
		},
	}

	if _, err := s.db.NewInsert().Model(&profiles).Exec(ctx); err != nil {
		return fmt.Errorf("%w: seed provider profiles: %v", contractx.ErrStorage, err)
	}
	log.Info().Int("count", len(profiles)).Msg("seeded provider profiles")
	return nil
}

func (s *BunStore) seedInteractions(ctx context.Context) error {
	count, err := s.db.NewSelect().Model((*Interaction)(nil)).Count(ctx)
	if err != nil {
		return fmt.Errorf("%w: count interactions: %v", contractx.ErrStorage, err)
	}
	if count > 0 {
		return nil
	}

	now := s.now().UTC()
	followUp := now.Add(7 * 24 * time.Hour)

	seeds := []Interaction{
		{
			ID:              uuid.NewString(),
			PatientID:       ptr("PAT001"),
			InteractionType: "consultation",
			InteractionDate: now.Add(-48 * time.Hour),
			DurationMinutes: ptr(30),
			Symptoms:        ptr("Fever, cough, headache"),
			Diagnosis:       ptr("Viral infection"),
			Prescription:    ptr("Rest, fluids, paracetamol"),
			FollowUpDate:    &followUp,
			IsCompliant:     true,
			CreatedAt:       now.Add(-48 * time.Hour),
			UpdatedAt:       now.Add(-48 * time.Hour),
		},
		{
			ID:              uuid.NewString(),
			PatientID:       ptr("PAT002"),
			InteractionType: "follow-up",
			InteractionDate: now.Add(-24 * time.Hour),
			DurationMinutes: ptr(20),
			Symptoms:        ptr("Improving, mild cough persists"),
			Diagnosis:       ptr("Recovering viral infection"),
			Prescription:    ptr("Continue rest"),
			IsCompliant:     true,
			CreatedAt:       now.Add(-24 * time.Hour),
			UpdatedAt:       now.Add(-24 * time.Hour),
		},
	}

	if _, err := s.db.NewInsert().Model(&seeds).Exec(ctx); err != nil {
		return fmt.Errorf("%w: seed interactions: %v", contractx.ErrStorage, err)
	}
	log.Info().Int("count", len(seeds)).Msg("seeded interactions")
	return nil
}

func ptr[T any](v T) *T { return &v }
