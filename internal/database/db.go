package database

import (
	"fmt"
	"log"

	"stockroom-backend/internal/config"
	"stockroom-backend/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Init opens (creating if absent) the database file, migrates the schema
// and seeds the admin account. Any failure is fatal: nothing works
// without the schema in place.
func Init(cfg *config.Config) *gorm.DB {
	db, err := Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open database %s: %v", cfg.DatabasePath, err)
	}

	if err := Migrate(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	if err := Seed(db, cfg.SeedAdminPassword); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println("Database ready:", cfg.DatabasePath)
	return db
}

// Open connects to the SQLite file at path with foreign keys enforced.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path+"?_foreign_keys=on"), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return db, nil
}

// Migrate creates any missing tables and columns. Safe to run on every
// startup.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.StockCategory{},
		&models.StockItem{},
		&models.Supplier{},
		&models.PurchaseOrder{},
		&models.PurchaseOrderItem{},
		&models.StockTransaction{},
		&models.TransactionItem{},
		&models.ActivityLog{},
		&models.StockMovement{},
	)
}

// Seed creates the initial admin account when no admin exists yet.
func Seed(db *gorm.DB, adminPassword string) error {
	var count int64
	if err := db.Model(&models.User{}).
		Where("role = ?", models.RoleAdmin).
		Count(&count).Error; err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash seed password: %w", err)
	}

	admin := models.User{
		Username:     "admin",
		FullName:     "Administrator",
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		Active:       true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("create seed admin: %w", err)
	}

	log.Println("Seeded admin account")
	return nil
}
