package service

import (
	"fmt"

	"github.com/okumurakoki/contractguard-sub001/config"
	"github.com/okumurakoki/contractguard-sub001/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// OpenDatabase opens the Postgres connection and runs auto-migration.
// The returned handle is constructed once at startup and injected into
// every service; nothing in this package holds it globally.
func OpenDatabase(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		// Unique violations must surface as gorm.ErrDuplicatedKey so the
		// version store can tell a lost race from any other failure.
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return db, nil
}

// Migrate runs GORM auto-migration for all models.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Contract{},
		&model.ContractVersion{},
		&model.ContractReview{},
		&model.RiskItem{},
		&model.AuditLog{},
	)
}
