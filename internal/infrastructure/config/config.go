package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr    string
	GRPCAddr    string
	DatabaseURL string
	QRCodeSize  int
	LogLevel    string
	LogFormat   string
}

// Load reads an optional env file first; variables already present in the
// process environment win over the file.
func Load() (*Config, error) {
	envFile := getEnv("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	size, err := strconv.Atoi(getEnv("QR_CODE_SIZE", "256"))
	if err != nil {
		return nil, err
	}

	return &Config{
		HTTPAddr:    getEnv("HTTP_ADDR", ":8080"),
		GRPCAddr:    getEnv("GRPC_ADDR", ":50051"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		QRCodeSize:  size,
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "json"),
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
