// Package config provides configuration loading and structs for the SmartStudy client.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// VideoAPIKeyEnv overrides video_search.api_key when set.
const VideoAPIKeyEnv = "SMARTSTUDY_VIDEO_API_KEY"

// Config holds all configuration for the application.
type Config struct {
	Debug       bool              `yaml:"debug"`
	Server      ServerConfig      `yaml:"server"`
	Backend     BackendConfig     `yaml:"backend"`
	VideoSearch VideoSearchConfig `yaml:"video_search"`
	Speech      SpeechConfig      `yaml:"speech"`
	Export      ExportConfig      `yaml:"export"`
	Storage     StorageConfig     `yaml:"storage"`
	Watch       WatchConfig       `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host       string        `yaml:"host"`
	Port       int           `yaml:"port"`
	SessionTTL time.Duration `yaml:"session_ttl"` // idle sessions are dropped after this; negative keeps them
}

// BackendConfig points at the analysis service that serves /upload and /result.
type BackendConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"` // 0 means no timeout
}

// VideoSearchConfig holds the video provider settings. The API key never leaves this process.
type VideoSearchConfig struct {
	BaseURL       string        `yaml:"base_url"`
	APIKey        string        `yaml:"api_key"`
	MaxResults    int           `yaml:"max_results"`
	FailurePolicy string        `yaml:"failure_policy"` // "silent" or "notify"
	Timeout       time.Duration `yaml:"timeout"`
}

// Enabled reports whether a key is configured.
func (v *VideoSearchConfig) Enabled() bool {
	return v.APIKey != ""
}

// SpeechConfig holds the text-to-speech command settings.
type SpeechConfig struct {
	Command   string  `yaml:"command"`
	Rate      float64 `yaml:"rate"` // 1.0 is the engine's normal speed
	VoicesDir string  `yaml:"voices_dir"`
	Language  string  `yaml:"language"`
}

// ExportConfig holds report export settings.
type ExportConfig struct {
	Title      string `yaml:"title"`
	OutputDir  string `yaml:"output_dir"`
	WrapColumn int    `yaml:"wrap_column"`
}

// StorageConfig holds history storage paths.
type StorageConfig struct {
	Enabled        bool   `yaml:"enabled"`
	DatabasePath   string `yaml:"database_path"`
	BleveIndexPath string `yaml:"bleve_index_path"`
}

// WatchConfig holds inbox watch settings.
type WatchConfig struct {
	Directory   string   `yaml:"directory"`
	Extensions  []string `yaml:"extensions"`
	SummaryType string   `yaml:"summary_type"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	if key := os.Getenv(VideoAPIKeyEnv); key != "" {
		cfg.VideoSearch.APIKey = key
	}

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.BleveIndexPath = expandPath(cfg.Storage.BleveIndexPath, configDir)
	cfg.Export.OutputDir = expandPath(cfg.Export.OutputDir, configDir)
	cfg.Watch.Directory = expandPath(cfg.Watch.Directory, configDir)
	if cfg.Speech.VoicesDir != "" {
		cfg.Speech.VoicesDir = expandPath(cfg.Speech.VoicesDir, configDir)
	}

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
