package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr string

	DBDriver string
	DBDSN    string

	BlobDriver   string // fs for dev; the hosted object store mounts the same way
	BlobBasePath string

	// CORS origins for the admin frontend.
	CORSOrigins []string

	// Completeness heuristic: a question with this many choices is considered
	// fully registered. The FE exam format is fixed at 4.
	ExpectedChoiceCount int

	// Retry attempts for remote-store calls.
	StoreMaxAttempts int
}

// FromEnv loads configuration from the environment, reading a local .env
// first when present.
func FromEnv() Config {
	_ = godotenv.Load()

	return Config{
		HTTPAddr:            envOr("HTTP_ADDR", ":8080"),
		DBDriver:            envOr("DB_DRIVER", "sqlite"),
		DBDSN:               envOr("DB_DSN", ""),
		BlobDriver:          envOr("BLOB_DRIVER", "fs"),
		BlobBasePath:        envOr("BLOB_BASE_PATH", "./data"),
		CORSOrigins:         csvOr("CORS_ORIGINS", "http://localhost:3000"),
		ExpectedChoiceCount: envInt("EXPECTED_CHOICE_COUNT", 4),
		StoreMaxAttempts:    envInt("STORE_MAX_ATTEMPTS", 3),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
