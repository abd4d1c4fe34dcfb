package app

import (
	"context"
	"os"
	"runtime/debug"
	"time"
	_ "time/tzdata"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"

	"github.com/beautybucket/backend/config"
	"github.com/beautybucket/backend/internal/catalog"
	"github.com/beautybucket/backend/internal/domain"
	"github.com/beautybucket/backend/internal/imagestore"
)

type Application struct {
	appConfig *config.AppConfig
	gormDB    *gorm.DB
	images    *imagestore.Store
	sched     *cron.Cron
}

// Ensure Application implements all interfaces
var (
	_ DBProvider         = (*Application)(nil)
	_ ConfigProvider     = (*Application)(nil)
	_ ImageStoreProvider = (*Application)(nil)
	_ SchedulerProvider  = (*Application)(nil)
	_ AppContext         = (*Application)(nil)
)

func NewApplication(appConfig *config.AppConfig) *Application {
	return &Application{appConfig: appConfig}
}

func (a *Application) Config() *config.AppConfig {
	return a.appConfig
}

func (a *Application) DB() *gorm.DB {
	return a.gormDB
}

// OverrideDB replaces the application's database handle (used in tests).
func (a *Application) OverrideDB(db *gorm.DB) {
	a.gormDB = db
}

func (a *Application) Images() *imagestore.Store {
	return a.images
}

// Scheduler returns the cron scheduler
func (a *Application) Scheduler() *cron.Cron {
	return a.sched
}

// Catalog returns a catalog service bound to db, normally a request-scoped
// session of DB().
func (a *Application) Catalog(db *gorm.DB) *catalog.Service {
	return catalog.NewService(db, a.images, a.appConfig.Images.DefaultImage)
}

// Init sets up logging, storage and background jobs.
func (a *Application) Init(cfg *config.AppConfig) error {
	loc, err := time.LoadLocation(cfg.System.Location)
	if err != nil {
		zap.S().Error("timezone config error")
	} else {
		time.Local = loc
	}

	if err := a.initLogger(cfg); err != nil {
		return err
	}

	if err := a.OpenStorage(); err != nil {
		return err
	}

	a.checkLegacyProducts()
	a.initJob()
	return nil
}

func (a *Application) initLogger(cfg *config.AppConfig) error {
	var zapConfig zap.Config
	if cfg.Logger.Mode == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.OutputPaths = []string{"stdout"}

	var logger *zap.Logger
	if cfg.Logger.FileEnable {
		lumberJackLogger := &lumberjack.Logger{
			Filename:   cfg.Logger.Filename,
			MaxSize:    64,
			MaxBackups: 7,
			MaxAge:     7,
			Compress:   false,
		}

		core := zapcore.NewTee(
			zapcore.NewCore(
				zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
				zapcore.AddSync(lumberJackLogger),
				zapConfig.Level,
			),
			zapcore.NewCore(
				zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
				zapcore.AddSync(os.Stdout),
				zapConfig.Level,
			),
		)
		logger = zap.New(core, zap.AddCaller())
	} else {
		var err error
		logger, err = zapConfig.Build(zap.AddCaller())
		if err != nil {
			return errors.Wrap(err, "build logger")
		}
	}

	zap.ReplaceGlobals(logger)
	return nil
}

// OpenStorage connects the database, migrates the schema and prepares the
// image directory. It is safe to call without Init, as the CLI and tests do.
func (a *Application) OpenStorage() error {
	cfg := a.appConfig
	if cfg.Database.Type == "" {
		cfg.Database.Type = "sqlite"
	}
	if a.gormDB == nil {
		db, err := getDatabase(cfg.Database, cfg.GetDataDir())
		if err != nil {
			return err
		}
		a.gormDB = db
		zap.S().Infof("Database connection successful, type: %s", cfg.Database.Type)
	}

	if err := a.MigrateDB(false); err != nil {
		return errors.Wrap(err, "database migration failed")
	}

	maxUpload, err := cfg.MaxUploadBytes()
	if err != nil {
		return err
	}
	images, err := imagestore.New(cfg.GetImageDir(), cfg.Images.AllowedExt, maxUpload)
	if err != nil {
		return err
	}
	a.images = images
	zap.S().Infof("Image directory: %s", images.Dir())
	return nil
}

// debugTraceEnv, when set, prints the stack of a recovered migration panic.
const debugTraceEnv = "GO_DEBUG_TRACE"

func (a *Application) MigrateDB(track bool) (err error) {
	defer func() {
		if err1 := recover(); err1 != nil {
			if os.Getenv(debugTraceEnv) != "" {
				debug.PrintStack()
			}
			if err2, ok := err1.(error); ok {
				err = err2
				zap.S().Error(err2.Error())
			}
		}
	}()
	db := a.gormDB
	if track {
		db = db.Debug()
	}
	return db.Migrator().AutoMigrate(domain.Tables...)
}

// Start scheduler job runner
func (a *Application) StartBackgroundJobs(ctx context.Context) {
	if a.sched == nil {
		return
	}
	a.sched.Start()
	go func() {
		<-ctx.Done()
		a.sched.Stop()
	}()
}

// Release releases application resources
func (a *Application) Release() {
	if a.sched != nil {
		a.sched.Stop()
	}
	if a.gormDB != nil {
		if sqlDB, err := a.gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	_ = zap.L().Sync()
}
