package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	writeFile(t, path, "[data]\ndir = /games/allods2/data\n\n[log]\nlevel = debug\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DataDir != "/games/allods2/data" {
		t.Errorf("DataDir = %q, want /games/allods2/data", cfg.DataDir)
	}
	if cfg.LogLevel != logrus.DebugLevel {
		t.Errorf("LogLevel = %v, want debug", cfg.LogLevel)
	}
}

func TestLoadMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.ini"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg != Default() {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
}

func TestLoadBadLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	writeFile(t, path, "[log]\nlevel = chatty\n")

	if _, err := Load(path); err == nil {
		t.Error("expected error for unknown log level")
	}
}

func TestDiscoverDataDir(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "data", "world", "data", "itemname.bin"), "")
	mapPath := filepath.Join(root, "maps", "campaign", "scenario1.alm")
	writeFile(t, mapPath, "")

	got, err := DiscoverDataDir(mapPath)
	if err != nil {
		t.Fatalf("DiscoverDataDir failed: %v", err)
	}
	if want := filepath.Join(root, "data"); got != want {
		t.Errorf("DiscoverDataDir = %q, want %q", got, want)
	}

	if _, err := DiscoverDataDir(filepath.Join(t.TempDir(), "lost.alm")); err == nil {
		t.Error("expected error when no data directory exists")
	}
}

func TestResolveDataDir(t *testing.T) {
	cfg := Config{DataDir: "/from/ini"}
	if got, _ := ResolveDataDir("/from/flag", cfg, nil); got != "/from/flag" {
		t.Errorf("flag not preferred: %q", got)
	}
	if got, _ := ResolveDataDir("", cfg, nil); got != "/from/ini" {
		t.Errorf("ini not used: %q", got)
	}
	if _, err := ResolveDataDir("", Default(), nil); err == nil {
		t.Error("expected error with nothing to go on")
	}
}
