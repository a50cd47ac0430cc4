package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load with absent file: %v", err)
	}
	if cfg.Engine != "native" {
		t.Errorf("Engine = %q, want native", cfg.Engine)
	}
	if cfg.Threads != 8 {
		t.Errorf("Threads = %d, want 8", cfg.Threads)
	}
	if cfg.CookieSource != "none" {
		t.Errorf("CookieSource = %q, want none", cfg.CookieSource)
	}
	if cfg.Mirror != "auto" {
		t.Errorf("Mirror = %q, want auto", cfg.Mirror)
	}
	if cfg.Lang != "en" || cfg.Theme != "dark" {
		t.Errorf("Lang/Theme = %q/%q, want en/dark", cfg.Lang, cfg.Theme)
	}
	if cfg.DownloadDir == "" || cfg.ToolDir == "" {
		t.Error("directory defaults are empty")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	orig := &Config{
		DownloadDir:  "/data/downloads",
		ToolDir:      "/data/bin",
		Engine:       "aria2",
		Threads:      16,
		CookieSource: "file",
		CookiePath:   "/data/cookies.txt",
		Mirror:       "on",
		Lang:         "zh",
		Theme:        "light",
	}
	if err := orig.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *got != *orig {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, orig)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantSub string
	}{
		{"bad engine", "engine: turbo\n", "invalid engine"},
		{"bad cookie source", "cookie_source: opera\n", "invalid cookie_source"},
		{"bad mirror", "mirror: maybe\n", "invalid mirror"},
		{"file source without path", "cookie_source: file\n", "cookie_path is empty"},
		{"negative threads", "threads: -2\n", "threads"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if err == nil {
				t.Fatalf("Load accepted %q", tt.content)
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q does not mention %q", err, tt.wantSub)
			}
		})
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("UNIDOWN_ENGINE", "re")
	t.Setenv("UNIDOWN_THREADS", "4")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engine != "re" {
		t.Errorf("Engine = %q, want re from environment", cfg.Engine)
	}
	if cfg.Threads != 4 {
		t.Errorf("Threads = %d, want 4 from environment", cfg.Threads)
	}
}

func TestSet(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.Set("engine", "aria2"); err != nil {
		t.Errorf("Set(engine, aria2): %v", err)
	}
	if cfg.Engine != "aria2" {
		t.Errorf("Engine = %q after Set", cfg.Engine)
	}
	if err := cfg.Set("threads", "12"); err != nil {
		t.Errorf("Set(threads, 12): %v", err)
	}
	if err := cfg.Set("threads", "many"); err == nil {
		t.Error("Set accepted non-numeric threads")
	}
	if err := cfg.Set("engine", "warp"); err == nil {
		t.Error("Set accepted invalid engine")
	}
	if cfg.Engine != "aria2" {
		t.Errorf("failed Set mutated Engine to %q", cfg.Engine)
	}
	err = cfg.Set("color", "blue")
	if err == nil {
		t.Fatal("Set accepted unknown key")
	}
	if !strings.Contains(err.Error(), "valid keys") {
		t.Errorf("unknown key error %q does not list valid keys", err)
	}
}

func TestValueCoversKeys(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range Keys() {
		if key == "cookie_path" {
			continue // empty by default
		}
		if cfg.Value(key) == "" {
			t.Errorf("Value(%q) is empty", key)
		}
	}
}

func TestEffectiveThreads(t *testing.T) {
	cfg := &Config{Threads: 6}
	if got := cfg.EffectiveThreads(); got != 6 {
		t.Errorf("EffectiveThreads = %d, want 6", got)
	}
	cfg.Threads = 0
	if got := cfg.EffectiveThreads(); got < 1 || got > 32 {
		t.Errorf("auto EffectiveThreads = %d, want within [1, 32]", got)
	}
}
