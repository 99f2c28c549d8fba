package internal

import (
	"fmt"

	"github.com/dhanavadh/eldercare-backend/internal/config"
	"github.com/dhanavadh/eldercare-backend/internal/models/gorm"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	gormdb "gorm.io/gorm"
)

// OpenDB connects to MySQL and migrates the audit log table.
func OpenDB(cfg *config.Config) (*gormdb.DB, error) {
	log.WithFields(log.Fields{
		"host": cfg.Database.Host,
		"db":   cfg.Database.DBName,
	}).Info("Connecting to database")

	db, err := gormdb.Open(mysql.Open(cfg.Database.DSN()), &gormdb.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Infof("Successfully connected to MySQL database: %s", cfg.Database.DBName)

	if err := db.AutoMigrate(&gorm.SubmissionRecord{}); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

func CloseDB(db *gormdb.DB) {
	if db == nil {
		return
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
