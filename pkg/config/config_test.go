package config

import (
	"os"
	"path/filepath"
	"testing"
)

// Test 1: a missing file yields the defaults.
func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DefaultBranch != "main" {
		t.Errorf("DefaultBranch = %q, want main", cfg.DefaultBranch)
	}
	if cfg.Quota.UnitBytes != 1<<20 || cfg.Quota.UnitPrice != 100 {
		t.Errorf("Quota = %+v", cfg.Quota)
	}
	if cfg.Redis.Stream != "permagit:events" {
		t.Errorf("Redis.Stream = %q", cfg.Redis.Stream)
	}
}

// Test 2: file values override defaults, unset fields keep them.
func TestLoad_Overrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "permagit.toml")
	body := `
state_dir = "/var/lib/permagit"
identity = "0xabc"

[redis]
addr = "localhost:6379"

[quota]
initial_bytes = 1024
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StateDir != "/var/lib/permagit" || cfg.Identity != "0xabc" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("Redis.Addr = %q", cfg.Redis.Addr)
	}
	if cfg.Quota.InitialBytes != 1024 {
		t.Errorf("Quota.InitialBytes = %d", cfg.Quota.InitialBytes)
	}
	if cfg.DefaultBranch != "main" {
		t.Errorf("DefaultBranch = %q, want default", cfg.DefaultBranch)
	}
	if got, want := cfg.StatePath(), filepath.Join("/var/lib/permagit", "state.db"); got != want {
		t.Errorf("StatePath = %q, want %q", got, want)
	}
}

// Test 3: malformed TOML is an error.
func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "permagit.toml")
	if err := os.WriteFile(path, []byte("state_dir = ["), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("Load: expected error for malformed file")
	}
}
