package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort    string
	DatabaseDSN string
	JWTSecret   string
	CORSOrigins string

	// Trial length for newly registered churches, in days.
	TrialDays int

	// Platform owner account seeded at startup when set.
	AppOwnerName     string
	AppOwnerEmail    string
	AppOwnerPassword string
}

func Load() *Config {
	// Optional .env for local development; real deployments use env vars.
	_ = godotenv.Load()

	cfg := &Config{
		HTTPPort:         getEnv("HTTP_PORT", "8080"),
		DatabaseDSN:      getEnv("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=churchflow port=5432 sslmode=disable"),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		CORSOrigins:      getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		TrialDays:        getEnvInt("TRIAL_DAYS", 30),
		AppOwnerName:     getEnv("APP_OWNER_NAME", "Platform Owner"),
		AppOwnerEmail:    getEnv("APP_OWNER_EMAIL", ""),
		AppOwnerPassword: getEnv("APP_OWNER_PASSWORD", ""),
	}

	if cfg.JWTSecret == "" {
		log.Fatal("[FATAL] JWT_SECRET is not set; it is mandatory in production.")
	}
	if len(cfg.JWTSecret) < 32 {
		log.Fatal("[FATAL] JWT_SECRET must be at least 32 characters.")
	}
	if cfg.DatabaseDSN == "host=localhost user=postgres password=postgres dbname=churchflow port=5432 sslmode=disable" {
		log.Println("[WARN] DATABASE_DSN is using the default value; set your own Postgres connection for production.")
	}
	if cfg.CORSOrigins == "http://localhost:5173" {
		log.Println("[WARN] CORS_ALLOWED_ORIGINS is using the default value; set your own domain for production.")
	}
	if cfg.TrialDays <= 0 {
		log.Fatal("[FATAL] TRIAL_DAYS must be a positive number of days.")
	}

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("[WARN] %s is not a number, using default %d", key, def)
	}
	return def
}
