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
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "4000", cfg.Server.Port)
	assert.Equal(t, "http://localhost:5173", cfg.Server.CORSOrigin)
	assert.Equal(t, "/data/empExportBdd.csv", cfg.Reference.Path)
	assert.Equal(t, "Numéro emplacement ETC", cfg.Reference.IDColumn)
	assert.Equal(t, "http://osrm:5000", cfg.Routing.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Routing.Timeout)
	assert.Equal(t, 5*time.Minute, cfg.Server.WriteTimeout)
	assert.Equal(t, int64(20<<20), cfg.Server.MaxUploadBytes())
	assert.False(t, cfg.Database.Enabled())
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "8080"
  cors_origin: "https://verif.example"
reference:
  path: "/srv/ref.csv"
routing:
  base_url: "http://router.internal:5000/"
  timeout: "2s"
database:
  driver: sqlite
  path: /tmp/imports.db
`)
	t.Setenv("OSRM_BASE_URL", "http://osrm.local:5000/")
	t.Setenv("API_PORT", "9090")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "https://verif.example", cfg.Server.CORSOrigin)
	assert.Equal(t, "/srv/ref.csv", cfg.Reference.Path)
	assert.Equal(t, "Latitude", cfg.Reference.LatColumn, "unset keys keep their default")
	assert.Equal(t, "http://osrm.local:5000", cfg.Routing.BaseURL)
	assert.Equal(t, 2*time.Second, cfg.Routing.Timeout)
	assert.True(t, cfg.Database.Enabled())
	assert.Equal(t, "sqlite", cfg.Database.Driver)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad port", "server:\n  port: \"http\"\n"},
		{"bad routing url", "routing:\n  base_url: \"not a url\"\n"},
		{"unknown driver", "database:\n  driver: postgres\n"},
		{"sqlite without path", "database:\n  driver: sqlite\n  path: \"\"\n"},
		{"mysql without host", "database:\n  driver: mysql\n  dbname: x\n"},
		{"bad duration", "routing:\n  timeout: \"soon\"\n"},
		{"bad yaml", "server: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}
