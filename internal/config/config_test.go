package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644))
	return dir
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	dir := writeConfig(t, `
server:
  mode: debug
database:
  driver: sqlite
  path: test.db
storage:
  type: minio
`)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 30, cfg.Practice.EasyPercent)
	assert.Equal(t, 40, cfg.Practice.MediumPercent)
	assert.Equal(t, 30, cfg.Practice.HardPercent)
	assert.Equal(t, 10*time.Minute, cfg.Cache.PYQStatsTTL)
}

func TestLoadConfigParsesDurationsAndSplit(t *testing.T) {
	dir := writeConfig(t, `
cache:
  pyq_stats_ttl: 90s
practice:
  easy_percent: 20
  medium_percent: 50
  hard_percent: 30
storage:
  type: minio
`)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, cfg.Cache.PYQStatsTTL)
	assert.Equal(t, 50, cfg.Practice.MediumPercent)
}

func TestLoadConfigRejectsBadSplit(t *testing.T) {
	dir := writeConfig(t, `
practice:
  easy_percent: 50
  medium_percent: 50
  hard_percent: 50
storage:
  type: minio
`)

	_, err := LoadConfig(dir)
	assert.Error(t, err)
}

func TestLoadConfigRejectsShortSecretInRelease(t *testing.T) {
	dir := writeConfig(t, `
server:
  mode: release
jwt:
  secret: short
storage:
  type: minio
`)

	_, err := LoadConfig(dir)
	assert.ErrorContains(t, err, "JWT secret is too short")
}

func TestPracticeConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultPracticeConfig().Validate())
	assert.Error(t, PracticeConfig{EasyPercent: -10, MediumPercent: 80, HardPercent: 30}.Validate())
}
