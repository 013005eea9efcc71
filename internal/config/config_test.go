package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(m map[string]string) lookupFunc {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoadYAMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 8080
database:
  driver: postgres
  host: db
  port: 5432
  user: seo
  name: seoscan
ai:
  model: gpt-4o-mini
  timeout: 20s
worker:
  concurrency: 8
`), 0o600))

	t.Setenv("GOOGLE_API_KEY", "  psi-key ")
	t.Setenv("GEMINI_API_KEY", "gem-key")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", "9090")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "psi-key", cfg.PageSpeed.APIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.AI.Model)
	assert.Equal(t, 20*time.Second, cfg.AI.Timeout)
	assert.Equal(t, 8, cfg.Worker.Concurrency)
	// untouched defaults survive a partial file
	assert.Equal(t, 60*time.Second, cfg.PageSpeed.Timeout)
	assert.Equal(t, 3*time.Minute, cfg.Worker.AnalysisTimeout)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowedOrigins)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, 3001, cfg.Server.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "gemini-1.5-flash", cfg.AI.Model)
	assert.Equal(t, 60*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, 4, cfg.Worker.Concurrency)
	assert.Equal(t, 5.0, cfg.Server.RateLimitRPS)
	assert.Equal(t, 20, cfg.Server.RateLimitBurst)
}

func TestValidateNamesMissingVariable(t *testing.T) {
	cases := []struct {
		env  map[string]string
		want string
	}{
		{map[string]string{"GEMINI_API_KEY": "g", "JWT_SECRET": "j"}, "GOOGLE_API_KEY"},
		{map[string]string{"GOOGLE_API_KEY": "p", "GEMINI_API_KEY": "   ", "JWT_SECRET": "j"}, "GEMINI_API_KEY"},
		{map[string]string{"GOOGLE_API_KEY": "p", "GEMINI_API_KEY": "g"}, "JWT_SECRET"},
	}
	for _, tc := range cases {
		cfg := Defaults()
		require.NoError(t, cfg.applyEnv(env(tc.env)))
		cfg.trim()
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), tc.want)
	}
}

func TestValidateDriver(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.applyEnv(env(map[string]string{
		"GOOGLE_API_KEY": "p", "GEMINI_API_KEY": "g", "JWT_SECRET": "j", "DB_DRIVER": "sqlite",
	})))
	cfg.trim()
	assert.ErrorContains(t, cfg.Validate(), "sqlite")
}

func TestValidateStaleThresholdExceedsAnalysisTimeout(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.applyEnv(env(map[string]string{
		"GOOGLE_API_KEY": "p", "GEMINI_API_KEY": "g", "JWT_SECRET": "j",
	})))
	cfg.trim()
	require.NoError(t, cfg.Validate())

	cfg.Worker.StaleAfter = cfg.Worker.AnalysisTimeout
	assert.ErrorContains(t, cfg.Validate(), "staleAfter")
}

func TestApplyEnvRejectsBadPort(t *testing.T) {
	cfg := Defaults()
	assert.Error(t, cfg.applyEnv(env(map[string]string{"PORT": "eighty"})))
}

func TestCORSOriginsFromEnv(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.applyEnv(env(map[string]string{"CORS_ORIGINS": "https://a.example, https://b.example,"})))
	cfg.trim()
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
}

func TestDSNs(t *testing.T) {
	cfg := Defaults()
	cfg.Database.User = "seo"
	cfg.Database.Password = "p w'd"
	cfg.Database.Host = "db"
	cfg.Database.Port = 5432

	assert.Equal(t, "seo:p w'd@tcp(db:5432)/seoscan?parseTime=true&charset=utf8mb4&loc=UTC", cfg.MySQLDSN())
	assert.Equal(t, `host=db port=5432 user=seo password='p w\'d' dbname=seoscan sslmode=disable`, cfg.PostgresDSN())
}
