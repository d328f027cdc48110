package dbmysql

import (
	"fmt"
	"time"

	"charityops/internal/config"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewMySQL returns a GORM DB instance connected to MySQL
func NewMySQL(cfg *config.Config) (*gorm.DB, error) {
	dsn := cfg.DSN()

	gormLogger := logger.Default.LogMode(logger.Warn)
	if cfg.Server.Environment == "development" {
		gormLogger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:      gormLogger,
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot connect to MySQL: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sql.DB error: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}

// Migrate creates or updates the notification tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Notification{}, &UserNotification{})
}
