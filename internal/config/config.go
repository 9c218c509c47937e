// Package config provides runtime configuration values for the
// catalog service.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds configuration knobs for the HTTP server, the durable
// store, and the metrics endpoint.
type Config struct {
	HTTPAddr        string
	ShutdownTimeout time.Duration

	// StoreDriver selects the durable backend: file, postgres, memory.
	StoreDriver string
	DataDir     string
	DatabaseURL string

	MetricsEnabled bool
	MetricsToken   string

	UploadRateLimit  int
	UploadRateWindow int
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func boolenv(key string, def bool) bool {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func durenvs(key string, defSec int) time.Duration {
	sec := atoienv(key, defSec)
	return time.Duration(sec) * time.Second
}

// Load collects configuration from environment with defaults.
func Load() Config {
	return Config{
		HTTPAddr:         getenv("HTTP_ADDR", ":8080"),
		ShutdownTimeout:  durenvs("SHUTDOWN_TIMEOUT", 10),
		StoreDriver:      getenv("STORE_DRIVER", "file"),
		DataDir:          getenv("DATA_DIR", "data"),
		DatabaseURL:      getenv("DATABASE_URL", ""),
		MetricsEnabled:   boolenv("METRICS_ENABLED", false),
		MetricsToken:     getenv("METRICS_TOKEN", ""),
		UploadRateLimit:  atoienv("UPLOAD_RATE_LIMIT", 30),
		UploadRateWindow: atoienv("UPLOAD_RATE_WINDOW_SECONDS", 60),
	}
}
