package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials  CredentialsConfig  `toml:"credentials"`
	Resolver     ResolverConfig     `toml:"resolver"`
	Verification VerificationConfig `toml:"verification"`
	RateLimits   RateLimitsConfig   `toml:"ratelimits"`
	Database     DatabaseConfig     `toml:"database"`
}

// CredentialsConfig contains platform-specific credentials.
type CredentialsConfig struct {
	Spotify     SpotifyConfig     `toml:"spotify"`
	YouTube     YouTubeConfig     `toml:"youtube"`
	MusicBrainz MusicBrainzConfig `toml:"musicbrainz"`
}

// SpotifyConfig contains Spotify API credentials for the client-credentials flow.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

// YouTubeConfig contains the YouTube Data API key.
type YouTubeConfig struct {
	APIKey string `toml:"api_key"`
}

// MusicBrainzConfig contains the contact string MusicBrainz requires in the User-Agent header.
type MusicBrainzConfig struct {
	Contact string `toml:"contact"`
}

// ResolverConfig contains matching thresholds and search breadth.
type ResolverConfig struct {
	Cascade       []string `toml:"cascade"`
	Enrich        []string `toml:"enrich"`
	SoftThreshold float64  `toml:"soft_threshold"`
	HardThreshold float64  `toml:"hard_threshold"`
	HardLimit     int      `toml:"hard_limit"`
}

// VerificationConfig contains batch pacing and replacement retry settings.
type VerificationConfig struct {
	TrackDelayMS   int `toml:"track_delay_ms"`
	TimeoutSeconds int `toml:"timeout_seconds"`
	MaxRetries     int `toml:"max_retries"`
}

// RateLimitConfig contains the request spacing and backoff settings for one upstream API.
type RateLimitConfig struct {
	MinIntervalMS    int `toml:"min_interval_ms"`
	MaxRetries       int `toml:"max_retries"`
	InitialBackoffMS int `toml:"initial_backoff_ms"`
	MaxBackoffMS     int `toml:"max_backoff_ms"`
}

// RateLimitsConfig contains one [RateLimitConfig] per supported platform.
type RateLimitsConfig struct {
	MusicBrainz RateLimitConfig `toml:"musicbrainz"`
	Spotify     RateLimitConfig `toml:"spotify"`
	Apple       RateLimitConfig `toml:"apple"`
	YouTube     RateLimitConfig `toml:"youtube"`
}

// DatabaseConfig contains resolution cache database settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingConfig, err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
