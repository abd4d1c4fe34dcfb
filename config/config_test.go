package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Web.Port)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, []string{"png", "jpg", "jpeg", "gif"}, cfg.Images.AllowedExt)
	assert.Equal(t, time.Hour, cfg.Images.PendingTTL)
}

func TestLoadConfigYAMLAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "beautybucket.yml")
	yml := `
system:
  workdir: ` + dir + `
web:
  port: 8080
database:
  type: postgres
  name: catalog
images:
  dir: uploads
  pending_ttl: 30m
`
	require.NoError(t, os.WriteFile(file, []byte(yml), 0o644))
	t.Setenv("BEAUTYBUCKET_WEB_PORT", "9090")
	t.Setenv("BEAUTYBUCKET_DB_USER", "catalog_rw")

	cfg, err := LoadConfig(file)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Web.Port)
	assert.Equal(t, "postgres", cfg.Database.Type)
	assert.Equal(t, "catalog", cfg.Database.Name)
	assert.Equal(t, "catalog_rw", cfg.Database.User)
	assert.Equal(t, 30*time.Minute, cfg.Images.PendingTTL)
	assert.Equal(t, filepath.Join(dir, "uploads"), cfg.GetImageDir())
}

func TestLoadConfigRejectsBadYAML(t *testing.T) {
	file := filepath.Join(t.TempDir(), "bad.yml")
	require.NoError(t, os.WriteFile(file, []byte("web: [unclosed"), 0o644))

	_, err := LoadConfig(file)
	assert.Error(t, err)
}

func TestMaxUploadBytes(t *testing.T) {
	cfg := DefaultAppConfig()
	n, err := cfg.MaxUploadBytes()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(10_000_000))
	assert.LessOrEqual(t, n, int64(10*1024*1024))

	cfg.Web.MaxUpload = ""
	n, err = cfg.MaxUploadBytes()
	require.NoError(t, err)
	assert.Zero(t, n)

	cfg.Web.MaxUpload = "lots"
	_, err = cfg.MaxUploadBytes()
	assert.Error(t, err)
}

func TestGetImageDirAbsolute(t *testing.T) {
	cfg := DefaultAppConfig()
	cfg.Images.Dir = "/srv/images"
	assert.Equal(t, "/srv/images", cfg.GetImageDir())
}
