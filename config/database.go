package config

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"hwlock/internal/entity"
)

func ConnectDB(cfg Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DatabaseURL,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		PrepareStmt: false,
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&entity.User{},
		&entity.Product{},
		&entity.LicenseCode{},
		&entity.Session{},
		&entity.AuditLog{},
	); err != nil {
		return nil, err
	}
	return db, nil
}
