package config

import (
	"fmt"
	"os"
	"time"

	"github.com/gosimple/slug"
	"gopkg.in/yaml.v3"

	"distributorsearch_api/internal/core/models"
)

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type SyncConfig struct {
	Interval time.Duration `yaml:"interval"`
}

type AppConfig struct {
	Server    ServerConfig            `yaml:"server"`
	Postgres  PostgresConfig          `yaml:"postgres"`
	Auth      AuthConfig              `yaml:"auth"`
	Sync      SyncConfig              `yaml:"sync"`
	Suppliers []models.SupplierConfig `yaml:"suppliers"`
}

// LoadConfig reads the yaml config file and applies env fallbacks for
// anything the file leaves empty. Suppliers missing a slug get one derived
// from their name.
func LoadConfig(filename string) (*AppConfig, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	config := &AppConfig{}
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filename, err)
	}

	config.applyDefaults()
	return config, nil
}

func (c *AppConfig) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = getEnv("SERVER_ADDR", ":8080")
	}
	if c.Auth.JWTSecret == "" {
		c.Auth.JWTSecret = getEnv("JWT_SECRET", "")
	}
	if c.Sync.Interval <= 0 {
		c.Sync.Interval = time.Hour
	}
	if c.Postgres == (PostgresConfig{}) {
		c.Postgres = PostgresConfigFromEnv()
	}

	for i := range c.Suppliers {
		if c.Suppliers[i].Slug == "" {
			c.Suppliers[i].Slug = slug.Make(c.Suppliers[i].Name)
		}
		if c.Suppliers[i].Type == "" {
			c.Suppliers[i].Type = "rest_api"
		}
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
