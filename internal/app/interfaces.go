package app

import (
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/beautybucket/backend/config"
	"github.com/beautybucket/backend/internal/catalog"
	"github.com/beautybucket/backend/internal/imagestore"
)

// DBProvider provides database access
type DBProvider interface {
	DB() *gorm.DB
}

// ConfigProvider provides application configuration
type ConfigProvider interface {
	Config() *config.AppConfig
}

// ImageStoreProvider provides the product image store
type ImageStoreProvider interface {
	Images() *imagestore.Store
}

// SchedulerProvider provides task scheduling capability
type SchedulerProvider interface {
	Scheduler() *cron.Cron
}

// AppContext combines all provider interfaces for full application context
// Services should depend on specific providers or this combined interface
type AppContext interface {
	DBProvider
	ConfigProvider
	ImageStoreProvider
	SchedulerProvider

	// Catalog returns a catalog service bound to the given database session
	Catalog(db *gorm.DB) *catalog.Service
	MigrateDB(track bool) error
}
