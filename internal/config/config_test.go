package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "server:\n  port: \"9090\"\npayment:\n  prices:\n    LIVE: 75\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Store.Driver != "memory" || cfg.Auth.Provider != "jwt" {
		t.Fatalf("unexpected defaults: store=%s auth=%s", cfg.Store.Driver, cfg.Auth.Provider)
	}
	if cfg.Payment.Prices["LIVE"] != 75 || cfg.Payment.Prices["IOE"] != 100 || cfg.Payment.Prices["CEE"] != 100 {
		t.Fatalf("unexpected prices %+v", cfg.Payment.Prices)
	}
	if cfg.Payment.Method != "eSewa" || cfg.Upload.MaxBytes != 5<<20 {
		t.Fatalf("unexpected payment/upload defaults %+v %+v", cfg.Payment, cfg.Upload)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env")
	t.Setenv("JWT_SECRET", "env-secret")
	path := writeConfig(t, "postgres:\n  url: postgres://file\nauth:\n  jwt_secret: file-secret\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Postgres.URL != "postgres://env" || cfg.Auth.JWTSecret != "env-secret" {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
	if cfg.Store.Driver != "postgres" {
		t.Fatalf("expected postgres driver inferred, got %s", cfg.Store.Driver)
	}
}

func TestTTLDuration(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback, got %v", got)
	}
	if got := TTLDuration("bogus", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for bad input, got %v", got)
	}
	if got := TTLDuration("30s", time.Minute); got != 30*time.Second {
		t.Fatalf("expected 30s, got %v", got)
	}
}

func TestLocationFallsBack(t *testing.T) {
	var cfg Config
	cfg.Quiz.Timezone = "Not/AZone"
	if cfg.Location() != time.Local {
		t.Fatalf("expected local fallback")
	}
}
