package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ROUTECAB_STORE", "")
	t.Setenv("ROUTECAB_NOTIFIER", "")
	t.Setenv("ROUTECAB_KAFKA_BROKERS", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Addr != ":8080" || cfg.Store.Backend != StorePostgres {
		t.Errorf("unexpected defaults: addr=%q store=%q", cfg.HTTP.Addr, cfg.Store.Backend)
	}
	if cfg.Matching.MaxOriginKm != 1.0 || cfg.Matching.MaxDestinationKm != 1.0 ||
		cfg.Matching.MaxDriverKm != 2.0 || cfg.Matching.MaxResults != 10 {
		t.Errorf("unexpected matching defaults: %+v", cfg.Matching)
	}
	if cfg.Notifier.Backend != NotifierFCM {
		t.Errorf("notifier = %q", cfg.Notifier.Backend)
	}
	if cfg.Routes.CacheTTL != 30*time.Second {
		t.Errorf("cache ttl = %v", cfg.Routes.CacheTTL)
	}
	if len(cfg.Kafka.Brokers) != 0 {
		t.Errorf("kafka should be disabled by default, got %v", cfg.Kafka.Brokers)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ROUTECAB_STORE", "Memory")
	t.Setenv("ROUTECAB_NOTIFIER", "LOG")
	t.Setenv("ROUTECAB_MATCH_MAX_DRIVER_KM", "3.5")
	t.Setenv("ROUTECAB_MATCH_MAX_RESULTS", "not-a-number")
	t.Setenv("ROUTECAB_KAFKA_BROKERS", "k1:9092, k2:9092,")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store.Backend != StoreMemory {
		t.Errorf("store = %q", cfg.Store.Backend)
	}
	if cfg.Notifier.Backend != NotifierLog {
		t.Errorf("notifier = %q", cfg.Notifier.Backend)
	}
	if cfg.Matching.MaxDriverKm != 3.5 {
		t.Errorf("max driver km = %v", cfg.Matching.MaxDriverKm)
	}
	if cfg.Matching.MaxResults != 10 {
		t.Errorf("unparsable int should keep default, got %d", cfg.Matching.MaxResults)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Errorf("brokers = %v", cfg.Kafka.Brokers)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("ROUTECAB_STORE", "sqlite")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown store backend")
	}
	t.Setenv("ROUTECAB_STORE", "memory")
	t.Setenv("ROUTECAB_NOTIFIER", "sms")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown notifier")
	}
	t.Setenv("ROUTECAB_NOTIFIER", "log")
	t.Setenv("ROUTECAB_MATCH_MAX_ORIGIN_KM", "-1")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for negative threshold")
	}
}
