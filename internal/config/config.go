// Package config provides configuration loading and structs for the recommender server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Artifacts ArtifactsConfig `yaml:"artifacts"`
	Recommend RecommendConfig `yaml:"recommend"`
	Watch     WatchConfig     `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// ArtifactsConfig holds paths to the offline training artifacts.
// Relative file names are resolved against Dir.
type ArtifactsConfig struct {
	Dir          string `yaml:"dir"`
	UserWeights  string `yaml:"user_weights"`
	AnimeWeights string `yaml:"anime_weights"`
	UserCodec    string `yaml:"user_codec"`
	AnimeCodec   string `yaml:"anime_codec"`
	CatalogDB    string `yaml:"catalog_db"`
}

// UserWeightsPath returns the resolved path of the user embedding matrix.
func (a *ArtifactsConfig) UserWeightsPath() string { return a.resolve(a.UserWeights) }

// AnimeWeightsPath returns the resolved path of the anime embedding matrix.
func (a *ArtifactsConfig) AnimeWeightsPath() string { return a.resolve(a.AnimeWeights) }

// UserCodecPath returns the resolved path of the user id codec artifact.
func (a *ArtifactsConfig) UserCodecPath() string { return a.resolve(a.UserCodec) }

// AnimeCodecPath returns the resolved path of the anime id codec artifact.
func (a *ArtifactsConfig) AnimeCodecPath() string { return a.resolve(a.AnimeCodec) }

// CatalogDBPath returns the resolved path of the catalog database.
func (a *ArtifactsConfig) CatalogDBPath() string { return a.resolve(a.CatalogDB) }

func (a *ArtifactsConfig) resolve(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(a.Dir, name)
}

// RecommendConfig holds recommendation defaults.
type RecommendConfig struct {
	DefaultLimit  int     `yaml:"default_limit"`
	MaxLimit      int     `yaml:"max_limit"`
	TopKUsers     int     `yaml:"top_k_users"`
	TopKContent   int     `yaml:"top_k_content"`
	UserWeight    float64 `yaml:"user_weight"`
	ContentWeight float64 `yaml:"content_weight"`
}

// WatchConfig holds artifact hot-reload settings.
type WatchConfig struct {
	Enabled    bool `yaml:"enabled"`
	DebounceMS int  `yaml:"debounce_ms"`
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

	cfg.Artifacts.Dir = expandPath(cfg.Artifacts.Dir, filepath.Dir(path))

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
