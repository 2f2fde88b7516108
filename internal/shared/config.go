package shared

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	LogFile     string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string

	ContentBase string
	ContentKey  string
	ContentRPS  int
	Workers     int
	PropertyIDs []int64

	CacheTTL     time.Duration
	PageCacheTTL time.Duration

	// TemplatesDir overrides the embedded templates when set.
	TemplatesDir string
	// FragmentsURL serves common/header.html and common/footer.html; empty
	// uses the templates' own copies.
	FragmentsURL string
}

// Load reads the environment, after merging a .env file when one exists.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Msg("could not read .env")
	}

	c := Config{
		AppEnv:       env("APP_ENV", "prod"),
		LogLevel:     env("LOG_LEVEL", "info"),
		LogFile:      env("LOG_FILE", ""),
		HTTPAddr:     env("HTTP_ADDR", ":8080"),
		MetricsAddr:  env("METRICS_ADDR", ":9100"),
		MySQLDSN:     env("MYSQL_DSN", "root:root@tcp(localhost:3306)/pension?parseTime=true&charset=utf8mb4&loc=UTC"),
		RedisAddr:    env("REDIS_ADDR", "localhost:6379"),
		RedisDB:      atoi("REDIS_DB", 0),
		RedisPass:    env("REDIS_PASSWORD", ""),
		ContentBase:  env("CONTENT_API_BASE_URL", "http://localhost:8090/api"),
		ContentKey:   env("CONTENT_API_KEY", ""),
		ContentRPS:   atoi("CONTENT_API_RPS", 5),
		Workers:      atoi("INGEST_WORKERS", 8),
		PropertyIDs:  ids(env("PROPERTY_IDS", "")),
		CacheTTL:     time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
		PageCacheTTL: time.Duration(atoi("PAGE_CACHE_TTL_SECONDS", 300)) * time.Second,
		TemplatesDir: env("TEMPLATES_DIR", ""),
		FragmentsURL: env("FRAGMENTS_BASE_URL", ""),
	}
	if c.ContentKey == "" {
		log.Warn().Msg("CONTENT_API_KEY is empty")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func atoi(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Warn().Str("key", k).Str("value", v).Msg("ignoring non-numeric setting")
	}
	return def
}

// ids parses a comma separated id list, skipping blanks and junk.
func ids(s string) []int64 {
	var out []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.ParseInt(part, 10, 64)
		if err != nil || n <= 0 {
			log.Warn().Str("value", part).Msg("ignoring invalid property id")
			continue
		}
		out = append(out, n)
	}
	return out
}
