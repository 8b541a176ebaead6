package main

import (
	"context"
	"fmt"
	"log"

	"tabour/internal/auth"
	"tabour/internal/branches"
	"tabour/internal/shared/config"
	"tabour/internal/shared/database"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type Seeder struct {
	db *database.DB
}

func main() {
	fmt.Println("Starting database seeder...")

	cfg := config.Load()

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	seeder := &Seeder{db: db}

	fmt.Println("Cleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}

	fmt.Println("Seeding database...")
	if err := seeder.SeedAll(); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}

	fmt.Println("Done.")
}

func (s *Seeder) CleanDatabase() error {
	tables := []string{
		"queue_entries",
		"bookings",
		"otp_verifications",
		"sms_records",
		"customers",
		"staff_users",
		"branches",
	}
	for _, table := range tables {
		if err := s.db.GetPostgreSQL().Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clean %s: %w", table, err)
		}
	}
	return nil
}

func (s *Seeder) SeedAll() error {
	branchIDs, err := s.seedBranches()
	if err != nil {
		return err
	}
	return s.seedStaff(branchIDs)
}

func (s *Seeder) seedBranches() ([]branches.Branch, error) {
	seeds := []branches.Branch{
		{
			ID:               uuid.New(),
			Name:             "Downtown",
			Address:          "King Fahd Road, Riyadh",
			Phone:            "+966512000001",
			RoomsCount:       8,
			ExpectedWaitTime: 15,
		},
		{
			ID:               uuid.New(),
			Name:             "Corniche",
			Address:          "Corniche Road, Jeddah",
			Phone:            "+966512000002",
			RoomsCount:       6,
			ExpectedWaitTime: 20,
		},
		{
			ID:               uuid.New(),
			Name:             "Marina",
			Address:          "Marina Walk, Dubai",
			Phone:            "+97142000003",
			RoomsCount:       10,
			ExpectedWaitTime: 10,
		},
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("branch-secret"), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	for i := range seeds {
		seeds[i].PasswordHash = string(hash)
		if err := s.db.GetPostgreSQL().WithContext(ctx).Create(&seeds[i]).Error; err != nil {
			return nil, fmt.Errorf("failed to create branch %s: %w", seeds[i].Name, err)
		}
		fmt.Printf("  branch %s (%s)\n", seeds[i].Name, seeds[i].ID)
	}
	return seeds, nil
}

func (s *Seeder) seedStaff(branchSeeds []branches.Branch) error {
	adminHash, err := bcrypt.GenerateFromPassword([]byte("admin-secret"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	ctx := context.Background()
	admin := auth.StaffUser{
		ID:           uuid.New(),
		Username:     "admin",
		PasswordHash: string(adminHash),
		Role:         "admin",
	}
	if err := s.db.GetPostgreSQL().WithContext(ctx).Create(&admin).Error; err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}
	fmt.Printf("  staff admin (%s)\n", admin.ID)

	managerHash, err := bcrypt.GenerateFromPassword([]byte("manager-secret"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	for i := range branchSeeds {
		branchID := branchSeeds[i].ID
		manager := auth.StaffUser{
			ID:           uuid.New(),
			Username:     fmt.Sprintf("manager-%d", i+1),
			PasswordHash: string(managerHash),
			Role:         "manager",
			BranchID:     &branchID,
		}
		if err := s.db.GetPostgreSQL().WithContext(ctx).Create(&manager).Error; err != nil {
			return fmt.Errorf("failed to create manager for %s: %w", branchSeeds[i].Name, err)
		}
		fmt.Printf("  staff %s -> %s\n", manager.Username, branchSeeds[i].Name)
	}
	return nil
}
