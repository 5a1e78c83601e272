package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	AppEnv   string
	LogLevel string

	APIBaseURL string
	APITimeout time.Duration

	// CatalogSource: api | json | xlsx
	CatalogSource string
	CatalogFile   string
	CatalogTTL    time.Duration

	// StorageDriver: fs | redis | postgres | memory
	StorageDriver string
	StorageDir    string
	RedisURL      string
	SessionTTL    time.Duration
	DSN           string

	SessionKey string
}

func (c Config) Production() bool {
	return c.AppEnv == "production" || c.AppEnv == "prod"
}

// Load lee .env si existe y después el entorno.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

func FromEnv(getenv func(string) string) (Config, error) {
	env := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}
	c := Config{
		Port:          env("PORT", "8080"),
		AppEnv:        strings.ToLower(env("APP_ENV", "development")),
		LogLevel:      strings.ToLower(env("LOG_LEVEL", "info")),
		APIBaseURL:    env("API_BASE_URL", "http://localhost:5000"),
		CatalogSource: strings.ToLower(env("CATALOG_SOURCE", "api")),
		CatalogFile:   env("CATALOG_FILE", "products.json"),
		StorageDriver: strings.ToLower(env("STORAGE_DRIVER", "fs")),
		StorageDir:    env("STORAGE_DIR", "data"),
		RedisURL:      env("REDIS_URL", "redis://localhost:6379/0"),
		SessionKey:    getenv("SESSION_KEY"),
	}
	var err error
	if c.APITimeout, err = duration(env("API_TIMEOUT", "10s")); err != nil {
		return c, fmt.Errorf("API_TIMEOUT: %w", err)
	}
	if c.CatalogTTL, err = duration(env("CATALOG_TTL", "5m")); err != nil {
		return c, fmt.Errorf("CATALOG_TTL: %w", err)
	}
	if c.SessionTTL, err = duration(env("SESSION_TTL", "720h")); err != nil {
		return c, fmt.Errorf("SESSION_TTL: %w", err)
	}

	switch c.CatalogSource {
	case "api", "json", "xlsx":
	default:
		return c, fmt.Errorf("CATALOG_SOURCE inválido: %q", c.CatalogSource)
	}
	switch c.StorageDriver {
	case "fs", "redis", "postgres", "memory":
	default:
		return c, fmt.Errorf("STORAGE_DRIVER inválido: %q", c.StorageDriver)
	}
	if c.SessionKey == "" && c.Production() {
		return c, fmt.Errorf("SESSION_KEY es obligatoria en producción")
	}

	c.DSN = getenv("DB_DSN")
	if strings.TrimSpace(c.DSN) == "" {
		host := env("DB_HOST", "localhost")
		port := env("DB_PORT", "5432")
		user := env("DB_USER", env("POSTGRES_USER", "postgres"))
		pass := env("DB_PASSWORD", env("POSTGRES_PASSWORD", "postgres"))
		name := env("DB_NAME", env("POSTGRES_DB", "storefront"))
		ssl := env("DB_SSLMODE", "disable")
		c.DSN = "host=" + host + " user=" + user + " password=" + pass + " dbname=" + name + " port=" + port + " sslmode=" + ssl
	}
	return c, nil
}

// duration acepta "10s" o un número de segundos.
func duration(s string) (time.Duration, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(s)
}
