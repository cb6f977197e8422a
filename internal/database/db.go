package database

import (
	"fmt"
	"time"

	"telecom-erp-backend/internal/config"
	"telecom-erp-backend/internal/logger"
	"telecom-erp-backend/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

const slowQueryThreshold = 200 * time.Millisecond

// Init connects to Postgres, migrates the schema and sets DB.
func Init(cfg *config.Config, log *zap.Logger) error {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{
		Logger: logger.NewGormLogger(log, logger.GormLevel(cfg.LogLevel), slowQueryThreshold),
	})
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return err
	}
	DB = db
	log.Info("database connected, migration complete")
	return nil
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Branch{},
		&models.Store{},
		&models.User{},
		&models.SaleRecord{},
		&models.SalesGoal{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
