package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadEmbeddedDefaults(t *testing.T) {
	cfg, err := loadDefaults()
	if err != nil {
		t.Fatalf("loadDefaults: %v", err)
	}

	if len(cfg.Sources) == 0 {
		t.Fatal("default config has no sources")
	}
	if err := validate(cfg); err != nil {
		t.Fatalf("default config does not validate: %v", err)
	}
	if cfg.LookbackDays != 7 {
		t.Errorf("lookback_days = %d, want 7", cfg.LookbackDays)
	}

	enabled := cfg.EnabledSources()
	if len(enabled) == 0 {
		t.Error("no sources enabled by default")
	}
}

func TestLoadWritesDefaultsOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Sources) == 0 {
		t.Error("first-run config has no sources")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("defaults not written to %s: %v", path, err)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing name", "sources:\n  - url: https://example.com\n    method: rss\n"},
		{"missing url", "sources:\n  - name: x\n    method: rss\n"},
		{"bad scheme", "sources:\n  - name: x\n    url: ftp://example.com\n    method: rss\n"},
		{"bad method", "sources:\n  - name: x\n    url: https://example.com\n    method: teleport\n"},
		{"scrape without selector", "sources:\n  - name: x\n    url: https://example.com\n    method: scrape\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestAccessorDefaults(t *testing.T) {
	cfg := &Config{}

	if got := cfg.LookbackDuration(); got != 7*24*time.Hour {
		t.Errorf("LookbackDuration() = %v", got)
	}
	if got := cfg.ProximityWindow(); got != 72*time.Hour {
		t.Errorf("ProximityWindow() = %v", got)
	}
	if got := cfg.SameSourceWindow(); got != 72*time.Hour {
		t.Errorf("SameSourceWindow() = %v", got)
	}
	if got := cfg.SpeakerTurnGap(); got != 400*time.Millisecond {
		t.Errorf("SpeakerTurnGap() = %v", got)
	}
	if got := cfg.MidTurnGap(); got != 200*time.Millisecond {
		t.Errorf("MidTurnGap() = %v", got)
	}
	if got := cfg.ThemeGap(); got != 800*time.Millisecond {
		t.Errorf("ThemeGap() = %v", got)
	}
	if got := cfg.MaxThemes(); got != 6 {
		t.Errorf("MaxThemes() = %d", got)
	}
	if got := cfg.SimilarityThreshold(); got != 0.45 {
		t.Errorf("SimilarityThreshold() = %v", got)
	}
	if got := cfg.MaxChunkChars(); got != 4800 {
		t.Errorf("MaxChunkChars() = %d", got)
	}
	if got := cfg.SampleRate(); got != 24000 {
		t.Errorf("SampleRate() = %d", got)
	}
}

func TestLookbackOverride(t *testing.T) {
	cfg := &Config{LookbackDays: 7, LookbackOverride: 48 * time.Hour}
	if got := cfg.LookbackDuration(); got != 48*time.Hour {
		t.Errorf("LookbackDuration() = %v, want the override", got)
	}
}

func TestParseWindow(t *testing.T) {
	if got := parseWindow("36h", time.Hour); got != 36*time.Hour {
		t.Errorf("parseWindow(36h) = %v", got)
	}
	if got := parseWindow("garbage", time.Hour); got != time.Hour {
		t.Errorf("parseWindow(garbage) = %v, want fallback", got)
	}
	if got := parseWindow("", time.Hour); got != time.Hour {
		t.Errorf("parseWindow(\"\") = %v, want fallback", got)
	}
}
