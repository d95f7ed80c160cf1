package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etc", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Listen != "127.0.0.1:8080" || cfg.Storage != StorageSQLite || cfg.NotifySchedule != "@every 10s" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("config perms = %o, want 600", perm)
	}
}

func TestLoadNormalizesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("listen: \":9090\"\nstorage: MEMORY\nholidays:\n  \"2025-10-09\": 한글날\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Listen != ":9090" || cfg.Storage != StorageMemory {
		t.Errorf("listen=%q storage=%q", cfg.Listen, cfg.Storage)
	}
	if cfg.MaxOccurrences != 5000 || cfg.RequestTimeoutSeconds != 15 || cfg.Capture.Width != 1280 {
		t.Errorf("zero values not normalized: %+v", cfg)
	}
	if cfg.Holidays["2025-10-09"] != "한글날" || len(cfg.Holidays) != 1 {
		t.Errorf("holidays = %v", cfg.Holidays)
	}
}

func TestEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("listen: \":9090\"\nlog_level: info\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("EVENTCAL_LISTEN", ":7070")
	t.Setenv("EVENTCAL_STORAGE", "remote")
	t.Setenv("EVENTCAL_REMOTE_URL", "http://cal.local:8080")
	t.Setenv("EVENTCAL_MAX_OCCURRENCES", "100")
	t.Setenv("EVENTCAL_BASIC_AUTH_USERNAME", "admin")
	t.Setenv("EVENTCAL_BASIC_AUTH_PASSWORD", "secret")
	t.Setenv("EVENTCAL_CAPTURE_WIDTH", "800")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Listen != ":7070" || cfg.Storage != StorageRemote || cfg.RemoteURL != "http://cal.local:8080" {
		t.Errorf("env not applied: %+v", cfg)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("unset env var overwrote yaml value: %q", cfg.LogLevel)
	}
	if cfg.MaxOccurrences != 100 || cfg.Capture.Width != 800 {
		t.Errorf("numeric overrides: max=%d width=%d", cfg.MaxOccurrences, cfg.Capture.Width)
	}
	if !cfg.BasicAuth.Enabled() || cfg.BasicAuth.Password != "secret" {
		t.Errorf("basic auth = %+v", cfg.BasicAuth)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestEnvBadValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("listen: \":9090\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("EVENTCAL_MAX_OCCURRENCES", "many")

	if _, err := Load(path); err == nil {
		t.Error("expected error for non-numeric override")
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage = StorageRemote
	if err := cfg.Validate(); err == nil {
		t.Error("remote storage without url accepted")
	}

	cfg = DefaultConfig()
	cfg.Timezone = "Mars/Olympus"
	if err := cfg.Validate(); err == nil {
		t.Error("bad timezone accepted")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.BasicAuth = BasicAuthConfig{Username: "u", Password: "p"}
	cfg.Holidays = map[string]string{"2026-01-01": "신정"}
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.BasicAuth != cfg.BasicAuth || got.Holidays["2026-01-01"] != "신정" {
		t.Errorf("round trip: %+v", got)
	}

	matches, _ := filepath.Glob(filepath.Join(filepath.Dir(path), ".eventcal-config-*.tmp"))
	if len(matches) != 0 {
		t.Errorf("temp files left behind: %v", matches)
	}
}
