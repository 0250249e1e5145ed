package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Play.Delay != nil || cfg.Paths.Recordings != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
	if _, err := LoadConfig(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestLoadConfigDecodes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[play]
delay = 0.25
trigger = "f1"
restore-clipboard = false
smooth = false

[remap]
tui = false

[paths]
recordings = "/tmp/recs"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Play.Delay == nil || *cfg.Play.Delay != 0.25 {
		t.Fatalf("unexpected delay %v", cfg.Play.Delay)
	}
	if cfg.Play.Trigger == nil || *cfg.Play.Trigger != "f1" {
		t.Fatalf("unexpected trigger %v", cfg.Play.Trigger)
	}
	if cfg.Play.RestoreClipboard == nil || *cfg.Play.RestoreClipboard {
		t.Fatalf("expected restore-clipboard false")
	}
	if cfg.Play.Smooth == nil || *cfg.Play.Smooth {
		t.Fatalf("expected smooth false")
	}
	if cfg.Remap.TUI == nil || *cfg.Remap.TUI {
		t.Fatalf("expected tui false")
	}
	if cfg.Play.Countdown != nil {
		t.Fatalf("expected unset countdown")
	}
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[play]\ndelya = 1\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "delya") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestXDGPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("XDG_DATA_HOME", "/data")
	if got := DefaultConfigPath(); got != filepath.Join("/cfg", "simonsays", "config.toml") {
		t.Fatalf("unexpected config path %s", got)
	}
	if got := DefaultDBPath(); got != filepath.Join("/data", "simonsays", "history.db") {
		t.Fatalf("unexpected db path %s", got)
	}
}

func TestEnvOverridesPaths(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	t.Setenv("SIMONSAYS_CONFIG", "/etc/ss.toml")
	t.Setenv("SIMONSAYS_DB", "/var/ss.db")
	t.Setenv("SIMONSAYS_RECORDINGS_DIR", "")
	t.Setenv("SIMONSAYS_TRIGGER", "countdown")

	env, err := LoadEnv()
	if err != nil {
		t.Fatalf("load env: %v", err)
	}
	if env.Trigger != "countdown" {
		t.Fatalf("unexpected trigger %q", env.Trigger)
	}
	fileRecs := "/file/recs"
	fileDB := "/file/db"
	paths := ResolvePaths(env, PathsConfig{Recordings: &fileRecs, Database: &fileDB})
	if paths.Config != "/etc/ss.toml" {
		t.Fatalf("unexpected config path %s", paths.Config)
	}
	if paths.Database != "/var/ss.db" {
		t.Fatalf("expected env database to win, got %s", paths.Database)
	}
	if paths.Recordings != fileRecs {
		t.Fatalf("expected file recordings dir, got %s", paths.Recordings)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := ExpandHome("~/recs"); got != filepath.Join(home, "recs") {
		t.Fatalf("unexpected expansion %s", got)
	}
	if got := ExpandHome("/abs/~x"); got != "/abs/~x" {
		t.Fatalf("expected untouched path, got %s", got)
	}
}
