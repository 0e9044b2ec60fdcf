package database

import (
	"fmt"
	"time"

	"github.com/mackey55555/ceo-club-app-sub000/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewPostgresDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	sqlDB.SetConnMaxIdleTime(1 * time.Minute)

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates the tables the application workflow needs. It is shared by
// the service binary and the test suites.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Event{},
		&models.Member{},
		&models.Admin{},
		&models.MemberApplication{},
		&models.GuestApplication{},
	); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	// At most one applied row per member and event. Cancelled rows stay as history.
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_event_applications_active
		ON event_applications (event_id, user_id)
		WHERE status = 'applied'
	`).Error; err != nil {
		return fmt.Errorf("create active application index: %w", err)
	}

	return nil
}
