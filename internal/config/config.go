package config

import (
	"log"
	"os"
)

type Config struct {
	HTTPPort          string
	DatabasePath      string
	JWTSecret         string
	CORSOrigins       string
	ExportPath        string // folder report exports are written to
	SeedAdminPassword string // initial password for the seed admin account
}

func Load() *Config {
	cfg := &Config{
		HTTPPort:          getEnv("HTTP_PORT", "8090"),
		DatabasePath:      getEnv("DATABASE_PATH", "./stockroom.db"),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		CORSOrigins:       getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		ExportPath:        getEnv("EXPORT_PATH", "./exports"),
		SeedAdminPassword: getEnv("SEED_ADMIN_PASSWORD", "admin123"),
	}

	if cfg.JWTSecret == "" {
		log.Fatal("[FATAL] JWT_SECRET environment variable is not set")
	}
	if len(cfg.JWTSecret) < 32 {
		log.Fatal("[FATAL] JWT_SECRET must be at least 32 characters")
	}
	if cfg.SeedAdminPassword == "admin123" {
		log.Println("[WARN] SEED_ADMIN_PASSWORD is the development default, change it before deploying")
	}

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
