package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.StoreDriver != "file" {
		t.Fatalf("StoreDriver = %q", cfg.StoreDriver)
	}
	if cfg.DataDir != "data" {
		t.Fatalf("DataDir = %q", cfg.DataDir)
	}
	if cfg.MetricsEnabled {
		t.Fatal("MetricsEnabled default should be false")
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Fatalf("ShutdownTimeout = %v", cfg.ShutdownTimeout)
	}
	if cfg.UploadRateLimit != 30 || cfg.UploadRateWindow != 60 {
		t.Fatalf("upload limits = %d/%d", cfg.UploadRateLimit, cfg.UploadRateWindow)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/catalog")
	t.Setenv("METRICS_ENABLED", "true")
	t.Setenv("METRICS_TOKEN", "s3cret")
	t.Setenv("SHUTDOWN_TIMEOUT", "3")

	cfg := Load()

	if cfg.HTTPAddr != ":9999" {
		t.Fatalf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.StoreDriver != "postgres" || cfg.DatabaseURL != "postgres://localhost/catalog" {
		t.Fatalf("store config = %q %q", cfg.StoreDriver, cfg.DatabaseURL)
	}
	if !cfg.MetricsEnabled || cfg.MetricsToken != "s3cret" {
		t.Fatalf("metrics config = %v %q", cfg.MetricsEnabled, cfg.MetricsToken)
	}
	if cfg.ShutdownTimeout != 3*time.Second {
		t.Fatalf("ShutdownTimeout = %v", cfg.ShutdownTimeout)
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("UPLOAD_RATE_LIMIT", "many")
	t.Setenv("METRICS_ENABLED", "yep")

	cfg := Load()

	if cfg.UploadRateLimit != 30 {
		t.Fatalf("UploadRateLimit = %d, want default", cfg.UploadRateLimit)
	}
	if cfg.MetricsEnabled {
		t.Fatal("malformed bool should fall back to default")
	}
}
