package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath     string
	WADBPath   string
	CacheDir   string
	OutDir     string
	OldDataDir string

	HTTPAddr           string
	HTTPTimeoutSeconds int
	PoliteDelayMs      int
	UserAgent          string
	CacheEnabled       bool

	WatchIntervalMinutes int

	SummaryTopN  int
	ResultsLimit int
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:     getEnv("NFWA_DB_PATH", filepath.Join(cwd, "data", "nfwa.db")),
		WADBPath:   getEnv("NFWA_WA_DB_PATH", filepath.Join(cwd, "data", "wa_scoring.db")),
		CacheDir:   getEnv("NFWA_CACHE_DIR", filepath.Join(cwd, "data", "cache")),
		OutDir:     getEnv("NFWA_OUT_DIR", filepath.Join(cwd, "out")),
		OldDataDir: getEnv("NFWA_OLD_DATA_DIR", filepath.Join(cwd, "data", "old")),

		HTTPAddr:           getEnv("NFWA_HTTP_ADDR", "127.0.0.1:8077"),
		HTTPTimeoutSeconds: getEnvInt("NFWA_HTTP_TIMEOUT_SECONDS", 30),
		PoliteDelayMs:      getEnvInt("NFWA_POLITE_DELAY_MS", 500),
		UserAgent:          getEnv("NFWA_USER_AGENT", "nfwa-stats/1.0"),
		CacheEnabled:       getEnvBool("NFWA_CACHE_ENABLED", true),

		WatchIntervalMinutes: getEnvInt("NFWA_WATCH_INTERVAL_MINUTES", 360),

		SummaryTopN:  getEnvInt("NFWA_SUMMARY_TOP_N", 10),
		ResultsLimit: getEnvInt("NFWA_RESULTS_LIMIT", 100),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}
