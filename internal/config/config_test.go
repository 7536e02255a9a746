package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMinimalConfig(t *testing.T) {
	path := writeConfig(t, "port: \"8080\"\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("expected port 8080, got %q", cfg.Port)
	}
}

func TestLoadRequiresPort(t *testing.T) {
	path := writeConfig(t, "logLevel: debug\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for missing port")
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "port: \"8080\"\ndatabaseURL: postgres://file\n")
	t.Setenv("DATABASE_URL", "postgres://env")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DatabaseURL != "postgres://env" {
		t.Fatalf("env should override file, got %q", cfg.DatabaseURL)
	}
}

func TestLoadRejectsInvertedThresholds(t *testing.T) {
	path := writeConfig(t, "port: \"8080\"\ngreenThreshold: 50\namberThreshold: 80\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for amber > green")
	}
}

func TestLoadRateLimitRequiresRedis(t *testing.T) {
	path := writeConfig(t, "port: \"8080\"\nrateLimitPerMinute: 60\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for rate limit without redis")
	}
}

func TestLoadMinioRequiresBucket(t *testing.T) {
	path := writeConfig(t, "port: \"8080\"\nminioEndpoint: localhost:9000\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for minio endpoint without bucket")
	}
}
