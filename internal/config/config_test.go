package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/slidemote/slidemote/internal/config"
)

// clearEnv unsets every SLIDEMOTE_* variable for the test so ambient shell
// configuration cannot leak into assertions. t.Setenv registers the restore.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"SLIDEMOTE_ADDR",
		"SLIDEMOTE_DIAL_TIMEOUT",
		"SLIDEMOTE_POINTER_INTERVAL",
		"SLIDEMOTE_BACKOFF_INITIAL",
		"SLIDEMOTE_BACKOFF_MAX",
		"SLIDEMOTE_BACKOFF_MULTIPLIER",
		"SLIDEMOTE_DATA_DIR",
	} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.DialTimeout != 10*time.Second {
		t.Fatalf("expected default dial timeout 10s, got %s", cfg.DialTimeout)
	}
	if cfg.PointerInterval != 50*time.Millisecond {
		t.Fatalf("expected default pointer interval 50ms, got %s", cfg.PointerInterval)
	}
	if cfg.BackoffInitial != 500*time.Millisecond || cfg.BackoffMax != 30*time.Second {
		t.Fatalf("unexpected backoff defaults: %s..%s", cfg.BackoffInitial, cfg.BackoffMax)
	}
	if cfg.DataDir == "" {
		t.Fatal("expected data dir to default to the slidemote home")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("SLIDEMOTE_ADDR", "192.168.1.5:8080")
	t.Setenv("SLIDEMOTE_DIAL_TIMEOUT", "3s")
	t.Setenv("SLIDEMOTE_POINTER_INTERVAL", "25ms")
	t.Setenv("SLIDEMOTE_DATA_DIR", "/tmp/slidemote-test")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Addr != "192.168.1.5:8080" {
		t.Fatalf("expected addr from env, got %q", cfg.Addr)
	}
	if cfg.DialTimeout != 3*time.Second {
		t.Fatalf("expected dial timeout 3s, got %s", cfg.DialTimeout)
	}
	if cfg.PointerInterval != 25*time.Millisecond {
		t.Fatalf("expected pointer interval 25ms, got %s", cfg.PointerInterval)
	}
	if got := cfg.HistoryDB(); got != filepath.Join("/tmp/slidemote-test", "history.db") {
		t.Fatalf("unexpected history db path %q", got)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	clearEnv(t)
	t.Setenv("SLIDEMOTE_DIAL_TIMEOUT", "soon")
	if _, err := config.Load(); err == nil {
		t.Fatal("expected error for malformed duration")
	}
}

func TestLoadExpandsDataDir(t *testing.T) {
	clearEnv(t)
	t.Setenv("SLIDEMOTE_DATA_DIR", "~/slidemote-data")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatalf("user home: %v", err)
	}
	if want := filepath.Join(home, "slidemote-data"); cfg.DataDir != want {
		t.Fatalf("expected expanded data dir %q, got %q", want, cfg.DataDir)
	}
}

func TestExpandPath(t *testing.T) {
	if got := config.ExpandPath("/absolute/path"); got != "/absolute/path" {
		t.Fatalf("absolute path changed: %q", got)
	}
	if got := config.ExpandPath("~/data"); got == "~/data" {
		t.Fatal("expected ~ to be expanded")
	}
}
