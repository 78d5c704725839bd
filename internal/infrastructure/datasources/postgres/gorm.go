package postgres

import (
	"database/sql"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"cryptovest.backend/internal/infrastructure/models"
)

// OpenGorm wraps an existing pool in a GORM handle.
func OpenGorm(sqlDB *sql.DB, debug bool) (*gorm.DB, error) {
	level := gormlogger.Warn
	if debug {
		level = gormlogger.Info
	}
	return gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(level),
	})
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.LedgerEntry{},
		&models.InvestmentPosition{},
		&models.CardApplication{},
	)
}
