package config

import (
	"context"
	"testing"
	"time"
)

func TestLoad_DefaultsWithSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef0123")
	t.Setenv("SESSIONS_TTL", "5m")
	t.Setenv("REPORTS_POINTS_PER_REPORT", "25")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if cfg.Http.Port != ":8080" {
		t.Fatalf("unexpected port %s", cfg.Http.Port)
	}
	if cfg.Sessions.TTL != 5*time.Minute {
		t.Fatalf("expected 5m session ttl got %s", cfg.Sessions.TTL)
	}
	if cfg.Reports.PointsPerReport != 25 {
		t.Fatalf("expected 25 points got %d", cfg.Reports.PointsPerReport)
	}
	if cfg.Verification.CooldownSeconds != 60 || cfg.Verification.Mode != "accept_any" {
		t.Fatalf("unexpected verification defaults %+v", cfg.Verification)
	}
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(context.Background()); err == nil {
		t.Fatalf("expected error without JWT_SECRET")
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Http:         HttpConfig{Port: ":8080"},
			Postgres:     PostgresConfig{Host: "localhost"},
			Auth:         AuthConfig{JWTSecret: "0123456789abcdef"},
			Verification: VerificationConfig{Mode: "accept_any", CodeLength: 6, CooldownSeconds: 60},
			Geo:          GeoConfig{Mode: "placeholder"},
			Sessions:     SessionsConfig{TTL: time.Minute, JanitorInterval: time.Second},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"ok", func(*Config) {}, false},
		{"port without colon", func(c *Config) { c.Http.Port = "8080" }, true},
		{"unknown verification mode", func(c *Config) { c.Verification.Mode = "sms" }, true},
		{"short code", func(c *Config) { c.Verification.CodeLength = 3 }, true},
		{"dispatch without url", func(c *Config) { c.Verification.DispatchEnabled = true }, true},
		{"unknown geo mode", func(c *Config) { c.Geo.Mode = "gps" }, true},
		{"negative points", func(c *Config) { c.Reports.PointsPerReport = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("wantErr=%v got %v", tt.wantErr, err)
			}
		})
	}
}
