package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-value")
	t.Setenv("QR_TOKEN_TTL_SECONDS", "")
	t.Setenv("SWEEP_INTERVAL_MINUTES", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.QRTokenTTL != 60*time.Second {
		t.Fatalf("expected 60s qr ttl, got %s", cfg.QRTokenTTL)
	}
	if cfg.SweepInterval != 5*time.Minute {
		t.Fatalf("expected 5m sweep interval, got %s", cfg.SweepInterval)
	}
	if cfg.JWTExp != 24*time.Hour {
		t.Fatalf("expected 24h session validity, got %s", cfg.JWTExp)
	}
}

func TestLoadBuildsConnString(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-value")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_USER", "gp")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("DB_NAME", "gp_db")
	t.Setenv("DB_SSLMODE", "require")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := "host=db.internal port=6543 user=gp password=pw dbname=gp_db sslmode=require"
	if cfg.DBConnStr != want {
		t.Fatalf("conn string mismatch:\n got %q\nwant %q", cfg.DBConnStr, want)
	}
}

func TestLoadParsesCORSOrigins(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-value")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins: %#v", cfg.CORSAllowedOrigins)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := func() *Config {
		return &Config{
			APIPort:           "8080",
			JWTKey:            []byte("k"),
			JWTExp:            time.Hour,
			QRTokenTTL:        time.Minute,
			SweepInterval:     time.Minute,
			PasswordResetTTL:  time.Hour,
			DBMaxOpenConns:    1,
			PasswordMinLength: 8,
			LoginRateLimit:    5,
			EventTimezone:     "Africa/Tunis",
		}
	}
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"empty secret", func(c *Config) { c.JWTKey = nil }},
		{"default secret on public port", func(c *Config) { c.JWTKey = []byte(defaultJWTSecret); c.APIPort = "80" }},
		{"zero qr ttl", func(c *Config) { c.QRTokenTTL = 0 }},
		{"zero sweep interval", func(c *Config) { c.SweepInterval = 0 }},
		{"no db conns", func(c *Config) { c.DBMaxOpenConns = 0 }},
		{"short passwords", func(c *Config) { c.PasswordMinLength = 3 }},
		{"no rate limit", func(c *Config) { c.LoginRateLimit = 0 }},
		{"unknown timezone", func(c *Config) { c.EventTimezone = "Mars/Olympus" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			if err := c.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
	if err := base().Validate(); err != nil {
		t.Fatalf("base config should be valid: %v", err)
	}
}
