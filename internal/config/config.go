package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DriverMemory keeps sessions and attempts in process memory only.
const DriverMemory = "memory"

type CatalogSource string

const (
	CatalogMemory CatalogSource = "memory" // sample or CATALOG_PATH, held in memory
	CatalogSQL    CatalogSource = "sql"    // loaded from the database tables
)

type Config struct {
	HTTPAddr string

	DBDriver string // sqlite|postgres|mysql|memory
	DBDSN    string

	CatalogPath   string // YAML/JSON seed; empty = built-in sample
	CatalogSource CatalogSource

	AssetDir string // served under /assets when set

	CORSOrigins []string
	RedisURL    string // empty disables Redis event publishing

	// RelayInterval is how often logged events are forwarded to Redis.
	RelayInterval time.Duration

	LogLevel       string
	MetricsEnabled bool

	ChartPoints  int
	SubjectDedup bool
}

// Load reads envFile (if it exists) into the environment, then FromEnv.
// Variables already set win over the file.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	}
	return FromEnv(), nil
}

func FromEnv() Config {
	return Config{
		HTTPAddr:       envOr("HTTP_ADDR", ":8080"),
		DBDriver:       strings.ToLower(envOr("DB_DRIVER", "sqlite")),
		DBDSN:          envOr("DB_DSN", ""),
		CatalogPath:    envOr("CATALOG_PATH", ""),
		CatalogSource:  CatalogSource(strings.ToLower(envOr("CATALOG_SOURCE", string(CatalogMemory)))),
		AssetDir:       envOr("ASSET_DIR", ""),
		CORSOrigins:    csvOr("CORS_ORIGINS", "http://localhost:3000"),
		RedisURL:       envOr("REDIS_URL", ""),
		RelayInterval:  envDuration("RELAY_INTERVAL", 2*time.Second),
		LogLevel:       envOr("LOG_LEVEL", "info"),
		MetricsEnabled: envBool("METRICS_ENABLED", true),
		ChartPoints:    envInt("CHART_POINTS", 5),
		SubjectDedup:   envBool("SUBJECT_DEDUP", true),
	}
}
func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}
func envInt(k string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(k)); err == nil && v >= 0 {
		return v
	}
	return def
}
func envDuration(k string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(k)); err == nil && d > 0 {
		return d
	}
	return def
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
