package config

import (
	"embed"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

// Source describes one publisher endpoint and how to fetch it.
type Source struct {
	Name     string `yaml:"name"`
	Provider string `yaml:"provider"`
	Method   string `yaml:"method"` // "rss" | "atom" | "scrape" | "sitemap" | "api"
	URL      string `yaml:"url"`
	Selector string `yaml:"selector,omitempty"` // CSS selector for scrape sources
	Enabled  bool   `yaml:"enabled"`
}

// Voice selects a synthesis voice for one speaker role.
type Voice struct {
	LanguageCode string `yaml:"language_code"`
	Name         string `yaml:"name"`
}

// ClusterConfig tunes theme clustering.
type ClusterConfig struct {
	MaxThemes           int     `yaml:"max_themes"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	ProximityWindow     string  `yaml:"proximity_window"`
	SameSourceWindow    string  `yaml:"same_source_window"`
}

// AudioConfig tunes synthesis chunking and stitching.
type AudioConfig struct {
	MaxChunkChars        int    `yaml:"max_chunk_chars"`
	SynthesisConcurrency int    `yaml:"synthesis_concurrency"`
	SampleRate           int    `yaml:"sample_rate"`
	SpeakerTurnGap       string `yaml:"speaker_turn_gap"`
	MidTurnGap           string `yaml:"mid_turn_gap"`
	ThemeGap             string `yaml:"theme_gap"`
}

// AIConfig selects the script generation model.
type AIConfig struct {
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

type Config struct {
	LookbackDays int           `yaml:"lookback_days"`
	ShowTitle    string        `yaml:"show_title"`
	BaseURL      string        `yaml:"base_url"`
	Sources      []Source      `yaml:"sources"`
	Cluster      ClusterConfig `yaml:"cluster"`
	Audio        AudioConfig   `yaml:"audio"`
	AI           AIConfig      `yaml:"ai"`
	Interviewer  Voice         `yaml:"interviewer_voice"`
	Expert       Voice         `yaml:"expert_voice"`

	// LookbackOverride, when nonzero, wins over LookbackDays. Set from
	// the command line, never from the file.
	LookbackOverride time.Duration `yaml:"-"`
}

// AnthropicKey returns the Anthropic API key from the environment.
func AnthropicKey() string {
	return os.Getenv("ANTHROPIC_API_KEY")
}

// TTSKey returns the Google TTS API key from the environment.
func TTSKey() string {
	return os.Getenv("GOOGLE_TTS_API_KEY")
}

func (c *Config) LookbackDuration() time.Duration {
	if c.LookbackOverride > 0 {
		return c.LookbackOverride
	}
	days := c.LookbackDays
	if days <= 0 {
		days = 7
	}
	return time.Duration(days) * 24 * time.Hour
}

func (c *Config) EnabledSources() []Source {
	var out []Source
	for _, s := range c.Sources {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

// parseWindow parses a duration string, falling back to def on any error.
func parseWindow(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

func (c *Config) ProximityWindow() time.Duration {
	return parseWindow(c.Cluster.ProximityWindow, 72*time.Hour)
}

func (c *Config) SameSourceWindow() time.Duration {
	return parseWindow(c.Cluster.SameSourceWindow, 72*time.Hour)
}

func (c *Config) SpeakerTurnGap() time.Duration {
	return parseWindow(c.Audio.SpeakerTurnGap, 400*time.Millisecond)
}

func (c *Config) MidTurnGap() time.Duration {
	return parseWindow(c.Audio.MidTurnGap, 200*time.Millisecond)
}

func (c *Config) ThemeGap() time.Duration {
	return parseWindow(c.Audio.ThemeGap, 800*time.Millisecond)
}

func (c *Config) MaxThemes() int {
	if c.Cluster.MaxThemes <= 0 {
		return 6
	}
	return c.Cluster.MaxThemes
}

func (c *Config) SimilarityThreshold() float64 {
	if c.Cluster.SimilarityThreshold <= 0 {
		return 0.45
	}
	return c.Cluster.SimilarityThreshold
}

func (c *Config) MaxChunkChars() int {
	if c.Audio.MaxChunkChars <= 0 {
		return 4800
	}
	return c.Audio.MaxChunkChars
}

func (c *Config) SynthesisConcurrency() int {
	if c.Audio.SynthesisConcurrency <= 0 {
		return 4
	}
	return c.Audio.SynthesisConcurrency
}

func (c *Config) SampleRate() int {
	if c.Audio.SampleRate <= 0 {
		return 24000
	}
	return c.Audio.SampleRate
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "aipodcast", "config.yaml")
}

func SnapshotPath() string {
	return filepath.Join(xdg.DataHome, "aipodcast", "snapshots.db")
}

func SitePath() string {
	return filepath.Join(xdg.DataHome, "aipodcast", "site")
}

func loadDefaults() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

func Load(path string) (*Config, error) {
	defaults, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Write defaults to config path on first run
			if err := writeDefaults(path); err != nil {
				// Non-fatal: just use embedded defaults
				return defaults, nil
			}
			return defaults, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func writeDefaults(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, _ := defaultConfigFS.ReadFile("default_config.yaml")
	return os.WriteFile(path, data, 0o644)
}

func validate(cfg *Config) error {
	validMethods := map[string]bool{"rss": true, "atom": true, "scrape": true, "sitemap": true, "api": true}
	for i, s := range cfg.Sources {
		if s.Name == "" {
			return fmt.Errorf("source %d: name is required", i)
		}
		if s.URL == "" {
			return fmt.Errorf("source %q: url is required", s.Name)
		}
		u, err := url.Parse(s.URL)
		if err != nil {
			return fmt.Errorf("source %q: invalid url: %w", s.Name, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("source %q: url scheme must be http or https, got %q", s.Name, u.Scheme)
		}
		if !validMethods[s.Method] {
			return fmt.Errorf("source %q: unknown method %q (valid: rss, atom, scrape, sitemap, api)", s.Name, s.Method)
		}
		if s.Method == "scrape" && s.Selector == "" {
			return fmt.Errorf("source %q: scrape sources need a selector", s.Name)
		}
	}
	return nil
}
