package config

import (
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// DotenvFile is the file LoadDotenvIfPresent reads by default.
const DotenvFile = ".env"

// LoadDotenvIfPresent reads a local .env file for development use. It does
// not override variables already set, is a no-op when the file is absent,
// and is skipped when PANTRY_ENV=production.
func LoadDotenvIfPresent(path string) {
	if strings.EqualFold(os.Getenv("PANTRY_ENV"), "production") {
		return
	}
	if path == "" {
		path = DotenvFile
	}

	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("dotenv stat error", "path", path, "error", err)
		}
		return
	}
	if err := godotenv.Load(path); err != nil {
		slog.Warn("dotenv load error", "path", path, "error", err)
	}
}
