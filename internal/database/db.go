package database

import (
	"fmt"

	"formsportal/internal/config"
	"formsportal/internal/model"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open initializes the connection pool. The returned handle is owned by the
// caller and must be released with Close.
func Open(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("Connected to PostgreSQL",
		zap.Int("max_open_conns", cfg.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.MaxIdleConns),
	)
	return db, nil
}

// Close releases the pool behind db.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate creates the shared tables with AutoMigrate and the per-form request
// tables with explicit DDL.
func Migrate(db *gorm.DB, forms []model.FormType) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.UserAccess{},
		&model.Branch{},
		&model.Department{},
		&model.StatusLog{},
		&model.AuditLog{},
	); err != nil {
		return fmt.Errorf("failed to auto-migrate models: %w", err)
	}

	for _, f := range forms {
		for _, stmt := range FormTableDDL(f) {
			if err := db.Exec(stmt).Error; err != nil {
				return fmt.Errorf("failed to create tables for %s: %w", f.Key, err)
			}
		}
	}
	return nil
}
