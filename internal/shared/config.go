package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv          string
	LogLevel        string
	HTTPAddr        string
	MetricsAddr     string
	MySQLDSN        string
	APIKey          string
	RPS             int
	UpstreamTimeout time.Duration
	HandlerTimeout  time.Duration
	Workers         int
	MarketsFile     string
}

// Load reads the environment, after merging a local .env file when one exists.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg(".env could not be parsed")
	}

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Int("default", def).Msg("not an integer, using default")
		}
		return def
	}
	c := Config{
		AppEnv:          env("APP_ENV", "prod"),
		LogLevel:        env("LOG_LEVEL", "info"),
		HTTPAddr:        env("HTTP_ADDR", ":8080"),
		MetricsAddr:     env("METRICS_ADDR", ""),
		MySQLDSN:        env("MYSQL_DSN", ""),
		APIKey:          env("TRANSPARENT_API_KEY", ""),
		RPS:             atoi("TRANSPARENT_RPS", 5),
		UpstreamTimeout: time.Duration(atoi("TRANSPARENT_TIMEOUT_SECONDS", 20)) * time.Second,
		Workers:         atoi("SAMPLER_WORKERS", 4),
		MarketsFile:     env("SAMPLER_MARKETS_FILE", ""),
	}
	c.HandlerTimeout = c.UpstreamTimeout + 5*time.Second
	if c.RPS <= 0 {
		c.RPS = 5
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.APIKey == "" {
		log.Warn().Msg("TRANSPARENT_API_KEY is empty")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
