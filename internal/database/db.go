package database

import (
	"fmt"
	"log/slog"
	"time"

	"go-pos-checkout/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the process-wide handle used by the HTTP handlers.
var DB *gorm.DB

type Options struct {
	Driver       string // mysql or postgres
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
	LogSQL       bool
}

// Connect opens the database, retrying while it comes up, and migrates the schema.
func Connect(opts Options) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch opts.Driver {
	case "mysql":
		dialector = mysql.Open(opts.DSN)
	case "postgres":
		dialector = postgres.Open(opts.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", opts.Driver)
	}

	logLevel := logger.Warn
	if opts.LogSQL {
		logLevel = logger.Info
	}

	var db *gorm.DB
	var err error

	// Wait for DB to be ready
	for i := 0; i < 5; i++ {
		db, err = gorm.Open(dialector, &gorm.Config{
			Logger:         logger.Default.LogMode(logLevel),
			TranslateError: true,
			NowFunc:        func() time.Time { return time.Now().UTC() },
		})
		if err == nil {
			break
		}
		slog.Warn("Failed to connect to database, retrying in 2 seconds", "attempt", i+1, "error", err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("connect after 5 attempts: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	slog.Info("✅ Successfully connected to database!", "driver", opts.Driver)

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	slog.Info("✅ Database Schema Synced!")

	DB = db
	return db, nil
}

// Migrate creates or updates every table the server owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Customer{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
		&models.OutboxEvent{},
	)
}

// SetTestDB swaps the process-wide handle; tests restore it in Cleanup.
func SetTestDB(testDB *gorm.DB) {
	DB = testDB
}
