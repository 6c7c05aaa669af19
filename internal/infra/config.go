package infra

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents studio configuration loaded from environment variables.
type Config struct {
	AppEnv           string
	Port             string
	LocalDBPath      string
	DatabaseURL      string
	StoragePath      string
	StorageBaseURL   string
	FlyerGenBaseURL  string
	FlyerGenAPIKey   string
	EnhanceBaseURL   string
	EnhanceAPIKey    string
	CORSOrigins      []string
	AssetSyncDelay   time.Duration
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from the environment, reading .env files
// first when present. DATABASE_URL is optional: without it the studio runs
// with local persistence only and the remote metadata mirror disabled.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env", ".env.local")

	cfg := &Config{
		AppEnv:          getEnv("APP_ENV", "development"),
		Port:            getEnv("PORT", "8080"),
		LocalDBPath:     getEnv("LOCAL_DB_PATH", "./studio.db"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		StoragePath:     getEnv("STORAGE_PATH", "./storage"),
		StorageBaseURL:  getEnv("STORAGE_BASE_URL", "http://localhost:8080/static"),
		FlyerGenBaseURL: getEnv("FLYERGEN_BASE_URL", "https://api.flyergen.example.com/v1"),
		FlyerGenAPIKey:  os.Getenv("FLYERGEN_API_KEY"),
		EnhanceBaseURL:  getEnv("ENHANCE_BASE_URL", "https://api.flyergen.example.com/v1"),
		EnhanceAPIKey:   os.Getenv("ENHANCE_API_KEY"),
		CORSOrigins:     splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		AssetSyncDelay:  time.Second * time.Duration(getEnvInt("ASSET_SYNC_DELAY_SECONDS", 5)),
		HTTPReadTimeout: time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		// Zero by default: the websocket event stream lives on the same
		// server and must not be cut by a write deadline.
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 0)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	if cfg.EnhanceAPIKey == "" {
		cfg.EnhanceAPIKey = cfg.FlyerGenAPIKey
	}

	return cfg, nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
