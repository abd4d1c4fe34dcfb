package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/beautybucket/backend/config"
)

// getDatabase opens the configured database. A relative sqlite name is
// placed under dataDir.
func getDatabase(cfg config.DBConfig, dataDir string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Type {
	case "sqlite":
		name := cfg.Name
		if !filepath.IsAbs(name) {
			if err := os.MkdirAll(dataDir, 0o755); err != nil {
				return nil, errors.Wrapf(err, "create data dir %s", dataDir)
			}
			name = filepath.Join(dataDir, name)
		}
		dialector = sqlite.Open(name + "?_busy_timeout=5000&_foreign_keys=on")
	case "postgres":
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable TimeZone=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Passwd, cfg.Name, time.Local.String())
		dialector = postgres.Open(dsn)
	default:
		return nil, errors.Errorf("unsupported database type: %s", cfg.Type)
	}

	logLevel := logger.Silent
	if cfg.Debug {
		logLevel = logger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open %s database", cfg.Type)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "database handle")
	}
	maxConn := cfg.MaxConn
	if cfg.Type == "sqlite" {
		// one writer at a time; avoids SQLITE_BUSY under concurrent requests
		maxConn = 1
	}
	if maxConn > 0 {
		sqlDB.SetMaxOpenConns(maxConn)
	}
	if cfg.IdleConn > 0 {
		sqlDB.SetMaxIdleConns(cfg.IdleConn)
	}
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}
