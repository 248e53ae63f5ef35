package database

import (
	"log"

	"churchflow-backend/internal/config"
	"churchflow-backend/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Could not connect to the database: %v", err)
	}

	err = DB.AutoMigrate(
		&models.Church{},
		&models.Section{},
		&models.Department{},
		&models.User{},
		&models.Requisition{},
		&models.Approval{},
		&models.ActivityLogEntry{},
		&models.Attachment{},
		&models.Payment{},
		&models.LedgerEntry{},
		&models.PlatformActivity{},
	)
	if err != nil {
		log.Fatalf("AutoMigrate failed: %v", err)
	}

	seedAppOwner(cfg)

	log.Println("Database connected, migration complete.")
}

// seedAppOwner creates the platform owner from env config. The App
// Owner is the only account that cannot be created through the API.
func seedAppOwner(cfg *config.Config) {
	if cfg.AppOwnerEmail == "" || cfg.AppOwnerPassword == "" {
		log.Println("[WARN] APP_OWNER_EMAIL / APP_OWNER_PASSWORD not set, skipping App Owner seed.")
		return
	}

	var count int64
	DB.Model(&models.User{}).
		Where("role = ?", models.RoleAppOwner).
		Count(&count)
	if count > 0 {
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AppOwnerPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Could not hash the App Owner password: %v", err)
	}

	owner := models.User{
		Name:         cfg.AppOwnerName,
		Email:        cfg.AppOwnerEmail,
		PasswordHash: string(hash),
		Role:         models.RoleAppOwner,
	}
	if err := DB.Create(&owner).Error; err != nil {
		log.Fatalf("Could not seed the App Owner account: %v", err)
	}
	log.Println("App Owner account seeded:", owner.Email)
}
