package database

import (
	"fmt"
	"strings"

	"binarymlm-go/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Initialize opens the database named by databaseURL and migrates every model.
// Postgres DSNs select the postgres driver; anything else is a sqlite path.
func Initialize(databaseURL, environment string) (*gorm.DB, error) {
	level := logger.Warn
	if environment == "development" {
		level = logger.Info
	}

	db, err := gorm.Open(dialector(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, err
	}

	if db.Dialector.Name() == "sqlite" {
		// sqlite has a single writer; one connection keeps writers queued
		// instead of failing with SQLITE_BUSY.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

func dialector(databaseURL string) gorm.Dialector {
	if strings.HasPrefix(databaseURL, "postgres://") ||
		strings.HasPrefix(databaseURL, "postgresql://") ||
		strings.HasPrefix(databaseURL, "host=") {
		return postgres.Open(databaseURL)
	}
	return sqlite.Open(databaseURL)
}

// Migrate auto-migrates all models.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Member{},
		&models.Plan{},
		&models.Level{},
		&models.MemberPlan{},
		&models.RankAndReward{},
		&models.IncomeHistory{},
		&models.CompanyWallet{},
		&models.RechargeTransaction{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}
