// Package config loads server configuration from the environment,
// optionally sourcing a local .env file.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port   int
	DBPath string
}

// Load reads PORT and DB_PATH from the environment. A .env file in the
// working directory is applied first if present; missing values fall
// back to the given defaults.
func Load(defaultPort int, defaultDBPath string) Config {
	_ = godotenv.Load()

	cfg := Config{Port: defaultPort, DBPath: defaultDBPath}
	if raw := os.Getenv("PORT"); raw != "" {
		if port, err := strconv.Atoi(raw); err == nil {
			cfg.Port = port
		}
	}
	if path := os.Getenv("DB_PATH"); path != "" {
		cfg.DBPath = path
	}
	return cfg
}
