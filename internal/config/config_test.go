// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML loading, defaults, env overrides, and duration parsing

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_ValidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "sqlpeek.yaml")

	configContent := `
server:
  http_addr: "127.0.0.1:8080"

auth:
  credentials_path: "/etc/sqlpeek/auth.json"

session:
  ttl: "30m"

viewer:
  query_timeout: "2s"

logging:
  level: "debug"
  format: "json"
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	if err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != "127.0.0.1:8080" {
		t.Errorf("Server.HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, "127.0.0.1:8080")
	}
	if cfg.Auth.CredentialsPath != "/etc/sqlpeek/auth.json" {
		t.Errorf("Auth.CredentialsPath = %q, want %q", cfg.Auth.CredentialsPath, "/etc/sqlpeek/auth.json")
	}
	if cfg.Session.TTL != 30*time.Minute {
		t.Errorf("Session.TTL = %v, want %v", cfg.Session.TTL, 30*time.Minute)
	}
	if cfg.Viewer.QueryTimeout != 2*time.Second {
		t.Errorf("Viewer.QueryTimeout = %v, want %v", cfg.Viewer.QueryTimeout, 2*time.Second)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v, want defaults for missing file", err)
	}

	if cfg.Server.HTTPAddr != DefaultHTTPAddr {
		t.Errorf("Server.HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, DefaultHTTPAddr)
	}
	if cfg.Auth.CredentialsPath != DefaultAuthPath {
		t.Errorf("Auth.CredentialsPath = %q, want %q", cfg.Auth.CredentialsPath, DefaultAuthPath)
	}
	if cfg.Session.TTL != DefaultSessionTTL {
		t.Errorf("Session.TTL = %v, want %v", cfg.Session.TTL, DefaultSessionTTL)
	}
	if cfg.Viewer.QueryTimeout != DefaultQueryTimeout {
		t.Errorf("Viewer.QueryTimeout = %v, want %v", cfg.Viewer.QueryTimeout, DefaultQueryTimeout)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SQLPEEK_ADDR", ":9999")
	t.Setenv("SQLPEEK_AUTH", "/tmp/other-auth.json")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != ":9999" {
		t.Errorf("Server.HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, ":9999")
	}
	if cfg.Auth.CredentialsPath != "/tmp/other-auth.json" {
		t.Errorf("Auth.CredentialsPath = %q, want %q", cfg.Auth.CredentialsPath, "/tmp/other-auth.json")
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_AUTH_DIR", "/srv/sqlpeek")

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "sqlpeek.yaml")

	configContent := `
auth:
  credentials_path: "${TEST_AUTH_DIR}/auth.json"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Auth.CredentialsPath != "/srv/sqlpeek/auth.json" {
		t.Errorf("Auth.CredentialsPath = %q, want expanded path", cfg.Auth.CredentialsPath)
	}
}

func TestLoad_BadDuration(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "sqlpeek.yaml")

	configContent := `
session:
  ttl: "not-a-duration"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() expected error for bad duration")
	}
	if !strings.Contains(err.Error(), "ttl") {
		t.Errorf("error %q should mention the ttl field", err)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "sqlpeek.yaml")

	if err := os.WriteFile(configPath, []byte("server: [unclosed"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Fatal("Load() expected error for invalid YAML")
	}
}
