package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "trackx.db" {
			t.Errorf("expected database path trackx.db, got %s", config.Database.Path)
		}

		if config.RateLimits.MusicBrainz.MinIntervalMS != 1000 {
			t.Errorf("expected musicbrainz min interval 1000ms, got %d", config.RateLimits.MusicBrainz.MinIntervalMS)
		}

		if config.Resolver.HardLimit != 5 {
			t.Errorf("expected hard limit 5, got %d", config.Resolver.HardLimit)
		}

		if config.Verification.MaxRetries != 3 {
			t.Errorf("expected max retries 3, got %d", config.Verification.MaxRetries)
		}

		if len(config.Resolver.Cascade) == 0 || config.Resolver.Cascade[0] != "musicbrainz" {
			t.Errorf("expected cascade to start with musicbrainz, got %v", config.Resolver.Cascade)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[database]
path = "/custom/path.db"
max_open_conns = 20
max_idle_conns = 10

[resolver]
cascade = ["apple", "spotify"]
soft_threshold = 0.6
hard_threshold = 0.55
hard_limit = 10

[credentials.spotify]
client_id = "test_client_id"
client_secret = "test_secret"

[credentials.youtube]
api_key = "test_api_key"

[ratelimits.musicbrainz]
min_interval_ms = 1500
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.Resolver.HardThreshold != 0.55 {
			t.Errorf("expected hard threshold 0.55, got %f", config.Resolver.HardThreshold)
		}

		if config.Credentials.Spotify.ClientID != "test_client_id" {
			t.Errorf("expected spotify client_id test_client_id, got %s", config.Credentials.Spotify.ClientID)
		}

		if config.RateLimits.MusicBrainz.MinIntervalMS != 1500 {
			t.Errorf("expected musicbrainz min interval 1500ms, got %d", config.RateLimits.MusicBrainz.MinIntervalMS)
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
		if !errors.Is(err, ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})

	t.Run("LoadConfig malformed TOML", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("database = [broken"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfig(configPath); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}
