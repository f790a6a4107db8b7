package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Scope selects which seed workflow runs.
type Scope string

const (
	ScopeFull  Scope = "full"
	ScopeUsers Scope = "users"
)

// Config holds seeder configuration loaded from environment variables.
type Config struct {
	DatabaseURL string // DATABASE_URL, default "sqlite:seed.db"
	LogLevel    string // LOG_LEVEL, default "info"
	LogFormat   string // LOG_FORMAT, default "text"
	Scope       Scope  // SEED_SCOPE, default "full"
	Parallel    bool   // SEED_PARALLEL, default false
	Migrate     bool   // SEED_MIGRATE, default true
}

// Load reads configuration from environment variables with sensible defaults.
// Values from the file named by SEED_ENV_FILE (default ".env") are loaded
// first; variables already set in the environment win. A missing file is not
// an error.
func Load() (Config, error) {
	if err := loadEnvFile(envOr("SEED_ENV_FILE", ".env")); err != nil {
		return Config{}, err
	}

	cfg := Config{
		DatabaseURL: envOr("DATABASE_URL", "sqlite:seed.db"),
		LogLevel:    envOr("LOG_LEVEL", "info"),
		LogFormat:   envOr("LOG_FORMAT", "text"),
		Scope:       Scope(envOr("SEED_SCOPE", string(ScopeFull))),
	}

	var err error
	if cfg.Parallel, err = envBool("SEED_PARALLEL", false); err != nil {
		return Config{}, err
	}
	if cfg.Migrate, err = envBool("SEED_MIGRATE", true); err != nil {
		return Config{}, err
	}

	switch cfg.Scope {
	case ScopeFull, ScopeUsers:
	default:
		return Config{}, fmt.Errorf("SEED_SCOPE: unknown scope %q", cfg.Scope)
	}

	return cfg, nil
}

func loadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
