package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("ParsesFullConfig", func(t *testing.T) {
		path := writeConfigFile(t, `
server:
  addr: ":9090"
auth:
  jwt_secret: "s3cret"
sync:
  interval: 30m
postgres:
  host: "db"
  port: "5433"
  user: "svc"
  password: "pw"
  dbname: "catalog"
suppliers:
  - name: "Mustek"
    slug: "mustek"
    type: "csv_feed"
    api_endpoint: "https://feed.example/pricelist.csv"
    credentials:
      token: "tok"
`)
		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		require.Equal(t, ":9090", cfg.Server.Addr)
		require.Equal(t, "s3cret", cfg.Auth.JWTSecret)
		require.Equal(t, 30*time.Minute, cfg.Sync.Interval)
		require.Equal(t, "catalog", cfg.Postgres.DBName)
		require.Len(t, cfg.Suppliers, 1)
		require.Equal(t, "tok", cfg.Suppliers[0].Credentials.Token)
	})

	t.Run("AppliesDefaults", func(t *testing.T) {
		path := writeConfigFile(t, `
suppliers:
  - name: "Axiz Distribution"
`)
		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		require.Equal(t, ":8080", cfg.Server.Addr)
		require.Equal(t, time.Hour, cfg.Sync.Interval)
		require.NotEmpty(t, cfg.Postgres.Host)

		require.Equal(t, "axiz-distribution", cfg.Suppliers[0].Slug)
		require.Equal(t, "rest_api", cfg.Suppliers[0].Type)
	})

	t.Run("MissingFileIsAnError", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		require.Error(t, err)
	})

	t.Run("MalformedYamlIsAnError", func(t *testing.T) {
		path := writeConfigFile(t, "server: [not: valid")
		_, err := LoadConfig(path)
		require.Error(t, err)
	})
}
