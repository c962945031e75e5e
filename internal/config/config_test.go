package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"HTTP_ADDR", "API_BASE_URL", "STORAGE_DRIVER", "CORS_ALLOWED_ORIGINS", "CATALOG_CACHE_SIZE", "API_TIMEOUT_SECONDS", "AUTH_RATE_PER_SECOND", "AUTH_RATE_BURST", "CATALOG_CACHE_TTL_SECONDS"} {
		t.Setenv(key, "")
	}
	cfg := FromEnv()
	if cfg.HTTPAddr != ":3001" {
		t.Fatalf("unexpected addr %q", cfg.HTTPAddr)
	}
	if cfg.StorageDriver != StorageFile {
		t.Fatalf("unexpected driver %q", cfg.StorageDriver)
	}
	if cfg.APITimeout != 10*time.Second {
		t.Fatalf("unexpected timeout %s", cfg.APITimeout)
	}
	if cfg.CatalogCacheTTL != time.Minute {
		t.Fatalf("unexpected catalog ttl %s", cfg.CatalogCacheTTL)
	}
	if cfg.AuthRatePerSec != 1 || cfg.AuthRateBurst != 5 {
		t.Fatalf("unexpected auth rate %v/%d", cfg.AuthRatePerSec, cfg.AuthRateBurst)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "http://localhost:5173" {
		t.Fatalf("unexpected origins %v", cfg.AllowedOrigins)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://shop.example.com/api/")
	t.Setenv("STORAGE_DRIVER", "Postgres")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, ,https://b.example.com")
	t.Setenv("CATALOG_CACHE_SIZE", "-3")
	t.Setenv("API_TIMEOUT_SECONDS", "3")
	t.Setenv("AUTH_RATE_PER_SECOND", "0.5")

	cfg := FromEnv()
	if cfg.APIBaseURL != "https://shop.example.com/api" {
		t.Fatalf("trailing slash not trimmed: %q", cfg.APIBaseURL)
	}
	if cfg.StorageDriver != StoragePostgres {
		t.Fatalf("unexpected driver %q", cfg.StorageDriver)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example.com" {
		t.Fatalf("unexpected origins %v", cfg.AllowedOrigins)
	}
	if cfg.CatalogCacheSize != 256 {
		t.Fatalf("negative cache size should fall back to default, got %d", cfg.CatalogCacheSize)
	}
	if cfg.APITimeout != 3*time.Second {
		t.Fatalf("unexpected timeout %s", cfg.APITimeout)
	}
	if cfg.AuthRatePerSec != 0.5 {
		t.Fatalf("unexpected auth rate %v", cfg.AuthRatePerSec)
	}
}
