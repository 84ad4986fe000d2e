package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.HTTPAddr != ":5000" {
		t.Fatalf("HTTPAddr = %s", cfg.HTTPAddr)
	}
	if cfg.StoreMaxAttempts != 5 {
		t.Fatalf("StoreMaxAttempts = %d", cfg.StoreMaxAttempts)
	}
	if cfg.KeepAliveURL != "" {
		t.Fatalf("keep-alive should default off")
	}
	if cfg.KeepAliveInterval != 9*time.Minute {
		t.Fatalf("KeepAliveInterval = %v", cfg.KeepAliveInterval)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,")
	t.Setenv("STORE_MAX_ATTEMPTS", "9")
	t.Setenv("KEEPALIVE_URL", "https://example.com/")
	t.Setenv("KEEPALIVE_INTERVAL", "1m")

	cfg := Load()
	if cfg.HTTPAddr != ":9999" {
		t.Fatalf("HTTPAddr = %s", cfg.HTTPAddr)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "b:9092" {
		t.Fatalf("KafkaBrokers = %v", cfg.KafkaBrokers)
	}
	if cfg.StoreMaxAttempts != 9 {
		t.Fatalf("StoreMaxAttempts = %d", cfg.StoreMaxAttempts)
	}
	if cfg.KeepAliveURL != "https://example.com/" || cfg.KeepAliveInterval != time.Minute {
		t.Fatalf("keep-alive: %s %v", cfg.KeepAliveURL, cfg.KeepAliveInterval)
	}
}

func TestLoadBadValuesFallBack(t *testing.T) {
	t.Setenv("STORE_MAX_ATTEMPTS", "many")
	t.Setenv("KEEPALIVE_INTERVAL", "soon")
	cfg := Load()
	if cfg.StoreMaxAttempts != 5 || cfg.KeepAliveInterval != 9*time.Minute {
		t.Fatalf("bad values should fall back to defaults: %+v", cfg)
	}
}
