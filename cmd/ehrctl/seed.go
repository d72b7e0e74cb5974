package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/openclinic/ehr-api/internal/model"
	"github.com/openclinic/ehr-api/internal/repository"
	"github.com/openclinic/ehr-api/internal/repository/postgres"
)

// seedAllergies is the ten most common allergies plus a free-text escape
// hatch, matching what the history form offers by default.
var seedAllergies = []model.CreateAllergyRequest{
	{Name: "Penicillin", Description: "Antibiotic allergy that can cause skin rash, hives, swelling, or in severe cases, anaphylaxis. Requires alternative antibiotics."},
	{Name: "Peanuts", Description: "Food allergy that can range from mild digestive symptoms to severe anaphylactic reactions. Requires strict avoidance."},
	{Name: "Shellfish", Description: "Food allergy to crustaceans and mollusks that can cause reactions ranging from mild to life-threatening anaphylaxis."},
	{Name: "Dust Mites", Description: "Environmental allergy causing respiratory symptoms like sneezing, runny nose, and asthma symptoms."},
	{Name: "Pollen", Description: "Seasonal environmental allergy causing hay fever symptoms including sneezing, itchy eyes, and nasal congestion."},
	{Name: "Latex", Description: "Contact allergy to natural rubber latex causing skin reactions and potentially severe systemic reactions."},
	{Name: "Sulfa Drugs", Description: "Medication allergy to sulfonamide antibiotics that can cause skin rashes, fever, or more serious reactions."},
	{Name: "Aspirin", Description: "Medication allergy that can cause respiratory symptoms, skin reactions, or gastrointestinal issues."},
	{Name: "Eggs", Description: "Food allergy common in children that can cause digestive symptoms, skin reactions, or respiratory issues."},
	{Name: "Dairy/Milk", Description: "Food allergy to milk proteins that can cause digestive symptoms, skin reactions, or respiratory issues."},
	{Name: "Other", Description: "For allergies or medical conditions not listed above. Please specify in the description field."},
}

var seedSpecialties = []string{
	"General Practice",
	"Internal Medicine",
	"Pediatrics",
	"Cardiology",
	"Dermatology",
	"Neurology",
	"Orthopedics",
	"Psychiatry",
	"Radiology",
	"Surgery",
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Populate the allergy vocabulary and specialty list",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := cmd.Context()
			if err := seedAllergyVocabulary(ctx, postgres.NewAllergyRepository(db)); err != nil {
				return err
			}
			if err := seedSpecialtyList(ctx, postgres.NewSpecialtyRepository(db)); err != nil {
				return err
			}
			return nil
		},
	}
}

func seedAllergyVocabulary(ctx context.Context, repo repository.AllergyRepository) error {
	var added, skipped int
	for _, entry := range seedAllergies {
		if _, err := repo.GetByName(ctx, entry.Name); err == nil {
			skipped++
			continue
		} else if !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("failed to check allergy %q: %w", entry.Name, err)
		}

		description := entry.Description
		allergy := &model.Allergy{
			ID:          uuid.New(),
			Name:        entry.Name,
			Description: &description,
		}
		if err := repo.Create(ctx, allergy); err != nil {
			return fmt.Errorf("failed to seed allergy %q: %w", entry.Name, err)
		}
		added++
	}
	fmt.Printf("allergies: %d added, %d already present\n", added, skipped)
	return nil
}

func seedSpecialtyList(ctx context.Context, repo repository.SpecialtyRepository) error {
	existing, err := repo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list specialties: %w", err)
	}
	present := make(map[string]bool, len(existing))
	for _, s := range existing {
		present[s.Name] = true
	}

	var added int
	for _, name := range seedSpecialties {
		if present[name] {
			continue
		}
		if err := repo.Create(ctx, &model.Specialty{ID: uuid.New(), Name: name}); err != nil {
			return fmt.Errorf("failed to seed specialty %q: %w", name, err)
		}
		added++
	}
	fmt.Printf("specialties: %d added, %d already present\n", added, len(seedSpecialties)-added)
	return nil
}
