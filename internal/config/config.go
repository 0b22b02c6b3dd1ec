// Package config reads the application configuration from environment
// variables, with optional .env file support.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Port            string
	DBUser          string
	DBPassword      string
	DBHost          string
	DBName          string
	UploadDir       string
	MaxUploadSizeMB int64
}

// Load reads the configuration. A .env file in the working directory is
// applied first when present; system environment variables win.
func Load() Config {
	_ = godotenv.Load()
	return Config{
		Port:            getEnv("PORT", "8080"),
		DBUser:          getEnv("DBUSER", "root"),
		DBPassword:      getEnv("DBPWD", ""),
		DBHost:          getEnv("DBHOST", "localhost:3306"),
		DBName:          getEnv("DBNAME", "contacts_db"),
		UploadDir:       getEnv("UPLOAD_DIR", "uploads/images"),
		MaxUploadSizeMB: getEnvAsInt64("MAX_UPLOAD_SIZE_MB", 5),
	}
}

// MaxUploadBytes returns the request body limit in bytes.
func (c Config) MaxUploadBytes() int64 {
	return c.MaxUploadSizeMB << 20
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt64(key string, fallback int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
