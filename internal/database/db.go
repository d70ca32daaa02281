package database

import (
	"fmt"
	stdlog "log"
	"log/slog"
	"os"
	"strings"
	"time"

	"bintobloom/internal/config"
	"bintobloom/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewConnection opens postgres when a DSN is configured and a sqlite file otherwise,
// then migrates and seeds the schema.
func NewConnection(cfg config.DatabaseConfig, log *slog.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if dsn := cfg.PostgresDSN(); dsn != "" {
		dialector = postgres.Open(dsn)
		log.Info("database selected", "driver", "postgres", "host", cfg.Host)
	} else {
		dialector = sqlite.Open(cfg.SQLitePath)
		log.Info("database selected", "driver", "sqlite", "path", cfg.SQLitePath)
	}

	db, err := Open(dialector)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if dialector.Name() == "postgres" {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
	return db, nil
}

// Open connects through dialector, auto-migrates every model and seeds roles.
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: newLogger(stdlog.New(os.Stdout, "\r\n", stdlog.LstdFlags)),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if strings.HasPrefix(dialector.Name(), "sqlite") {
		// sqlite allows a single writer; one connection avoids SQLITE_BUSY under tx.
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	if err := SeedRoles(db); err != nil {
		return nil, err
	}
	return db, nil
}

// newLogger reports slow queries and real failures. Lookups that find nothing are an
// expected outcome of FindBy* calls and stay quiet.
func newLogger(w logger.Writer) logger.Interface {
	return logger.New(w, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

// Migrate creates or updates every table.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.User{},
		&model.Permission{},
		&model.Role{},
		&model.HouseholdDetail{},
		&model.BusinessDetail{},
		&model.Collector{},
		&model.NGO{},
		&model.NGOReport{},
		&model.PickupRequest{},
		&model.TrackingLog{},
		&model.WasteLog{},
		&model.EcoReward{},
		&model.Payment{},
		&model.Contact{},
		&model.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("failed to auto-migrate models: %w", err)
	}
	return nil
}

// SeedRoles makes the roles table match model.DefaultRolePermissions.
func SeedRoles(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for roleName, codes := range model.DefaultRolePermissions {
			perms := make([]model.Permission, 0, len(codes))
			for _, code := range codes {
				group := code
				if i := strings.IndexByte(code, '.'); i > 0 {
					group = code[:i]
				}
				perm := model.Permission{Code: code, Name: code, Group: group}
				if err := tx.Where("code = ?", code).FirstOrCreate(&perm).Error; err != nil {
					return fmt.Errorf("failed to seed permission %s: %w", code, err)
				}
				perms = append(perms, perm)
			}

			role := model.Role{Name: roleName, Description: strings.ToLower(roleName) + " accounts"}
			if err := tx.Where("name = ?", roleName).FirstOrCreate(&role).Error; err != nil {
				return fmt.Errorf("failed to seed role %s: %w", roleName, err)
			}
			if err := tx.Model(&role).Association("Permissions").Replace(perms); err != nil {
				return fmt.Errorf("failed to grant permissions to %s: %w", roleName, err)
			}
		}
		return nil
	})
}
