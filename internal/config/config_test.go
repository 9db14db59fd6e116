package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "Fantasy Football Draft Analyzer", cfg.App.Name)
	assert.False(t, cfg.App.Debug)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "gpt-4", cfg.OpenAI.Model)
	assert.Equal(t, 120*time.Second, cfg.OpenAI.Timeout)
	assert.Equal(t, int64(10485760), cfg.Upload.MaxFileSize)
	assert.Equal(t, "uploads", cfg.Upload.Dir)
	assert.Equal(t, "local", cfg.Storage.Driver)
	assert.Equal(t, []string{"http://localhost:3000", "http://127.0.0.1:3000"}, cfg.CORS.Origins)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
app:
  name: Test Analyzer
  debug: true
server:
  port: 9090
database:
  url: postgres://u:p@db:5432/drafts?sslmode=disable
openai:
  model: gpt-4o
  timeout: 30s
upload:
  maxFileSize: 2048
  dir: /tmp/up
cors:
  origins: ["https://example.com"]
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Test Analyzer", cfg.App.Name)
	assert.True(t, cfg.App.Debug)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
	assert.Equal(t, 30*time.Second, cfg.OpenAI.Timeout)
	assert.Equal(t, int64(2048), cfg.Upload.MaxFileSize)
	assert.Equal(t, "/tmp/up", cfg.Upload.Dir)
	assert.Equal(t, []string{"https://example.com"}, cfg.CORS.Origins)
	// untouched keys keep their defaults
	assert.Equal(t, "local", cfg.Storage.Driver)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app:\n  name: FromFile\n"), 0o600))

	t.Setenv("APP_NAME", "FromEnv")
	t.Setenv("DEBUG", "true")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("MAX_FILE_SIZE", "512")
	t.Setenv("UPLOAD_DIR", "/data/uploads")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("OPENAI_TIMEOUT", "45s")
	t.Setenv("MINIO_ENDPOINT", "minio:9000")
	t.Setenv("MINIO_BUCKET", "league-uploads")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "FromEnv", cfg.App.Name)
	assert.True(t, cfg.App.Debug)
	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.Equal(t, int64(512), cfg.Upload.MaxFileSize)
	assert.Equal(t, "/data/uploads", cfg.Upload.Dir)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.Origins)
	assert.Equal(t, 45*time.Second, cfg.OpenAI.Timeout)
	assert.Equal(t, "minio:9000", cfg.Minio.Endpoint)
	assert.Equal(t, "league-uploads", cfg.Minio.BucketName)
}

func TestLoad_BadEnvValue(t *testing.T) {
	t.Setenv("MAX_FILE_SIZE", "ten megs")

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAX_FILE_SIZE")
}

func TestDSN(t *testing.T) {
	cases := []struct {
		url        string
		wantDriver string
		wantDSN    string
	}{
		{"", DriverMySQL, "root:@tcp(localhost:3306)/fantasy_draft?parseTime=true&charset=utf8mb4&loc=UTC"},
		{"postgres://u:p@h/db", DriverPostgres, "postgres://u:p@h/db"},
		{"postgresql://u:p@h/db", DriverPostgres, "postgresql://u:p@h/db"},
		{"mysql://u:p@tcp(h:3306)/db", DriverMySQL, "u:p@tcp(h:3306)/db"},
		{"memory://", DriverMemory, ""},
		{"u:p@tcp(h:3306)/db", DriverMySQL, "u:p@tcp(h:3306)/db"},
	}
	for _, tc := range cases {
		cfg := Default()
		cfg.Database.URL = tc.url
		driver, dsn := cfg.DSN()
		assert.Equal(t, tc.wantDriver, driver, tc.url)
		assert.Equal(t, tc.wantDSN, dsn, tc.url)
	}
}
