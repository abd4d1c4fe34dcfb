package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/bytes"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const envPrefix = "BEAUTYBUCKET_"

// SysConfig system configuration
type SysConfig struct {
	Appid    string `yaml:"appid"`
	Location string `yaml:"location"`
	Workdir  string `yaml:"workdir"`
	Debug    bool   `yaml:"debug"`
}

// WebConfig web server configuration
type WebConfig struct {
	Host        string   `yaml:"host"`
	Port        int      `yaml:"port"`
	MaxUpload   string   `yaml:"max_upload"` // e.g. 10MB
	CorsOrigins []string `yaml:"cors_origins"`
}

// DBConfig database configuration
type DBConfig struct {
	Type     string `yaml:"type"` // sqlite or postgres
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"` // database name, or file path for sqlite
	User     string `yaml:"user"`
	Passwd   string `yaml:"passwd"`
	MaxConn  int    `yaml:"max_conn"`
	IdleConn int    `yaml:"idle_conn"`
	Debug    bool   `yaml:"debug"`
}

// ImageConfig image store configuration
type ImageConfig struct {
	Dir               string        `yaml:"dir"`
	DefaultImage      string        `yaml:"default_image"`
	AllowedExt        []string      `yaml:"allowed_ext"`
	PendingTTL        time.Duration `yaml:"pending_ttl"`
	ReconcileInterval string        `yaml:"reconcile_interval"`
}

// LogConfig logging configuration
type LogConfig struct {
	Mode       string `yaml:"mode"` // development or production
	FileEnable bool   `yaml:"file_enable"`
	Filename   string `yaml:"filename"`
}

type AppConfig struct {
	System   SysConfig   `yaml:"system"`
	Web      WebConfig   `yaml:"web"`
	Database DBConfig    `yaml:"database"`
	Images   ImageConfig `yaml:"images"`
	Logger   LogConfig   `yaml:"logger"`
}

// GetLogDir returns the log directory under the workdir
func (c *AppConfig) GetLogDir() string {
	return filepath.Join(c.System.Workdir, "logs")
}

// GetDataDir returns the data directory under the workdir
func (c *AppConfig) GetDataDir() string {
	return filepath.Join(c.System.Workdir, "data")
}

// GetImageDir returns the absolute image directory. A relative images.dir
// is taken relative to the workdir.
func (c *AppConfig) GetImageDir() string {
	if filepath.IsAbs(c.Images.Dir) {
		return c.Images.Dir
	}
	return filepath.Join(c.System.Workdir, c.Images.Dir)
}

// MaxUploadBytes parses web.max_upload. Zero means no limit.
func (c *AppConfig) MaxUploadBytes() (int64, error) {
	if strings.TrimSpace(c.Web.MaxUpload) == "" {
		return 0, nil
	}
	n, err := bytes.Parse(c.Web.MaxUpload)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid web.max_upload %q", c.Web.MaxUpload)
	}
	return n, nil
}

// DefaultAppConfig returns the built-in configuration
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		System: SysConfig{
			Appid:    "BeautyBucket",
			Location: "Asia/Kolkata",
			Workdir:  "/var/beautybucket",
		},
		Web: WebConfig{
			Host:        "0.0.0.0",
			Port:        5000,
			MaxUpload:   "10MB",
			CorsOrigins: []string{"*"},
		},
		Database: DBConfig{
			Type:     "sqlite",
			Host:     "127.0.0.1",
			Port:     5432,
			Name:     "beautybucket.db",
			User:     "postgres",
			MaxConn:  20,
			IdleConn: 5,
		},
		Images: ImageConfig{
			Dir:               "static/images",
			AllowedExt:        []string{"png", "jpg", "jpeg", "gif"},
			PendingTTL:        time.Hour,
			ReconcileInterval: "@every 10m",
		},
		Logger: LogConfig{
			Mode:     "development",
			Filename: "/var/beautybucket/logs/beautybucket.log",
		},
	}
}

// LoadConfig reads cfgfile over the defaults, then applies environment
// overrides. A missing cfgfile is not an error; the defaults are used.
// A .env file in the working directory is loaded first when present.
func LoadConfig(cfgfile string) (*AppConfig, error) {
	_ = godotenv.Load()

	cfg := DefaultAppConfig()
	if cfgfile != "" {
		data, err := os.ReadFile(cfgfile)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, errors.Wrapf(err, "read config %s", cfgfile)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, errors.Wrapf(err, "parse config %s", cfgfile)
			}
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *AppConfig) {
	setEnvValue("SYSTEM_WORKDIR", &cfg.System.Workdir)
	setEnvValue("SYSTEM_LOCATION", &cfg.System.Location)
	setEnvBoolValue("SYSTEM_DEBUG", &cfg.System.Debug)

	setEnvValue("WEB_HOST", &cfg.Web.Host)
	setEnvIntValue("WEB_PORT", &cfg.Web.Port)
	setEnvValue("WEB_MAX_UPLOAD", &cfg.Web.MaxUpload)
	if v := os.Getenv(envPrefix + "WEB_CORS_ORIGINS"); v != "" {
		cfg.Web.CorsOrigins = strings.Split(v, ",")
	}

	setEnvValue("DB_TYPE", &cfg.Database.Type)
	setEnvValue("DB_HOST", &cfg.Database.Host)
	setEnvIntValue("DB_PORT", &cfg.Database.Port)
	setEnvValue("DB_NAME", &cfg.Database.Name)
	setEnvValue("DB_USER", &cfg.Database.User)
	setEnvValue("DB_PASSWD", &cfg.Database.Passwd)
	setEnvBoolValue("DB_DEBUG", &cfg.Database.Debug)

	setEnvValue("IMAGES_DIR", &cfg.Images.Dir)
	setEnvValue("IMAGES_DEFAULT", &cfg.Images.DefaultImage)

	setEnvValue("LOGGER_MODE", &cfg.Logger.Mode)
	setEnvBoolValue("LOGGER_FILE_ENABLE", &cfg.Logger.FileEnable)
	setEnvValue("LOGGER_FILENAME", &cfg.Logger.Filename)
}

func setEnvValue(name string, val *string) {
	if v := os.Getenv(envPrefix + name); v != "" {
		*val = v
	}
}

func setEnvBoolValue(name string, val *bool) {
	if v := os.Getenv(envPrefix + name); v != "" {
		*val = v == "true" || v == "1"
	}
}

func setEnvIntValue(name string, val *int) {
	if v := os.Getenv(envPrefix + name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*val = n
		}
	}
}
