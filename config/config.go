package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the runtime configuration of the demo server. DatabaseURL
// may be empty, in which case the server runs on the in-memory storage.
type Config struct {
	ServerPort  int
	DatabaseURL string

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string
	R2KeyPrefix       string
}

func Load() (*Config, error) {
	// A missing .env file is fine: everything can come from the process
	// environment.
	_ = godotenv.Load(".env")

	cfg := &Config{
		ServerPort:        8080,
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
		R2KeyPrefix:       os.Getenv("R2_KEY_PREFIX"),
	}

	if port := os.Getenv("SERVER_PORT"); port != "" {
		value, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid SERVER_PORT %q: %w", port, err)
		}
		cfg.ServerPort = value
	}
	return cfg, nil
}

// SnapshotsEnabled reports whether the R2 snapshot uploader is fully
// configured.
func (c *Config) SnapshotsEnabled() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" &&
		c.R2BucketName != "" && c.R2PublicBaseURL != ""
}
