package database

import (
	"fmt"
	"log"
	"time"

	"bardev-backend/internal/config"
	"bardev-backend/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the configured driver and runs the migrations.
// sqlite (CGO-free) is meant for local runs and tests; postgres for production.
func Open(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	logLevel := logger.Warn

	switch cfg.DBDriver {
	case "", "postgres":
		dialector = postgres.Open(cfg.DatabaseDSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DatabaseDSN)
		logLevel = logger.Silent
	default:
		return nil, fmt.Errorf("driver de base de datos desconocido: %s", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("no se pudo conectar a la base de datos: %w", err)
	}

	if cfg.DBDriver == "sqlite" {
		// sqlite allows one writer; a single connection serializes writers
		// instead of failing them with SQLITE_BUSY.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Printf("Conexión a la base de datos (%s) lista. Migración completada.", dialector.Name())
	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.MenuEntry{},
		&models.Material{},
		&models.Table{},
		&models.OrderLine{},
		&models.SaleRecord{},
		&models.DailyCut{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("error de AutoMigrate: %w", err)
	}
	return nil
}
