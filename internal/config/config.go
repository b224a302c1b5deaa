package config

import (
	"os"
)

// Config holds application configuration
type Config struct {
	Port        string
	DBPath      string
	JWTSecret   string
	RequireAuth bool
}

// Load reads configuration from the environment with sensible defaults
func Load() *Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = ":8080"
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "./data/moveon.db"
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "your-secret-key-change-in-production"
	}

	return &Config{
		Port:        port,
		DBPath:      dbPath,
		JWTSecret:   jwtSecret,
		RequireAuth: os.Getenv("REQUIRE_AUTH") == "true",
	}
}
