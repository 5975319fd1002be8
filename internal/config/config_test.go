package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.GRPCAddr != ":50051" {
		t.Fatalf("addrs = %q/%q", cfg.HTTPAddr, cfg.GRPCAddr)
	}
	if cfg.StoreBackend != StoreBackendAPI {
		t.Fatalf("StoreBackend = %q, want %q", cfg.StoreBackend, StoreBackendAPI)
	}
	if cfg.BookingAPITimeout != 10*time.Second || cfg.RedisClientTTL != time.Minute {
		t.Fatalf("durations = %v/%v", cfg.BookingAPITimeout, cfg.RedisClientTTL)
	}
	if cfg.ScheduleLocation != time.UTC {
		t.Fatalf("ScheduleLocation = %v, want UTC", cfg.ScheduleLocation)
	}
	if cfg.RedisAddr != "" {
		t.Fatalf("RedisAddr = %q, want empty", cfg.RedisAddr)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HEALTHTICK_STORE_BACKEND", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/healthtick")
	t.Setenv("HEALTHTICK_REDIS_CLIENT_TTL", "30s")
	t.Setenv("HEALTHTICK_SCHEDULE_TIME_ZONE", "Asia/Kolkata")
	t.Setenv("HEALTHTICK_RATE_LIMIT_PER_MINUTE", "42")
	t.Setenv("HTTP_ADDR", ":9090")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.StoreBackend != StoreBackendPostgres {
		t.Fatalf("StoreBackend = %q, want %q", cfg.StoreBackend, StoreBackendPostgres)
	}
	if cfg.DatabaseURL != "postgres://u:p@db:5432/healthtick" {
		t.Fatalf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if cfg.RedisClientTTL != 30*time.Second {
		t.Fatalf("RedisClientTTL = %v, want 30s", cfg.RedisClientTTL)
	}
	if cfg.ScheduleLocation.String() != "Asia/Kolkata" {
		t.Fatalf("ScheduleLocation = %v", cfg.ScheduleLocation)
	}
	if cfg.RatePerMinute != 42 || cfg.HTTPAddr != ":9090" {
		t.Fatalf("RatePerMinute/HTTPAddr = %d/%q", cfg.RatePerMinute, cfg.HTTPAddr)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "bad duration", key: "HEALTHTICK_BOOKING_API_TIMEOUT", val: "ten seconds"},
		{name: "bad time zone", key: "HEALTHTICK_SCHEDULE_TIME_ZONE", val: "Mars/Olympus"},
		{name: "bad backend", key: "HEALTHTICK_STORE_BACKEND", val: "mongo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
