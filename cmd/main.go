package main

import (
	"context"
	"errors"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/trackx/internal/services"
	"github.com/desertthunder/trackx/internal/shared"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
)

func main() {
	godotenv.Load()
	logger := shared.NewLogger(nil)
	if raw := os.Getenv("TRACKX_LOG_LEVEL"); raw != "" {
		if level, err := log.ParseLevel(raw); err == nil {
			shared.SetLogLevel(logger, level)
		}
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}
	applyEnvOverrides(config)

	limits := config.RateLimits
	adapters := map[services.Platform]services.SearchAdapter{
		services.PlatformMusicBrainz: services.NewMusicBrainzAdapter(config.Credentials.MusicBrainz.Contact, "", limits.MusicBrainz, logger),
		services.PlatformApple:       services.NewITunesAdapter("", limits.Apple, logger),
	}

	if id, secret := config.Credentials.Spotify.ClientID, config.Credentials.Spotify.ClientSecret; id != "" && secret != "" {
		if tokens, err := services.NewSpotifyTokenProvider(context.Background(), id, secret); err == nil {
			adapters[services.PlatformSpotify] = services.NewSpotifyAdapter(tokens, "", limits.Spotify, logger)
		}
	}
	if key := config.Credentials.YouTube.APIKey; key != "" {
		adapters[services.PlatformYouTube] = services.NewYouTubeAdapter(services.StaticTokenProvider(key), "", limits.YouTube, logger)
	}

	runner := NewRunner(RunnerOpts{
		Config:   config,
		Adapters: adapters,
		Logger:   logger,
	})

	app := &cli.Command{
		Name:     "trackx",
		Usage:    "Resolve and verify tracks across music platforms",
		Version:  "0.2.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}

// applyEnvOverrides lets environment variables (typically from a .env file)
// fill credentials the config file leaves blank.
func applyEnvOverrides(config *shared.Config) {
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		config.Credentials.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		config.Credentials.Spotify.ClientSecret = v
	}
	if v := os.Getenv("YOUTUBE_API_KEY"); v != "" {
		config.Credentials.YouTube.APIKey = v
	}
	if v := os.Getenv("MUSICBRAINZ_CONTACT"); v != "" {
		config.Credentials.MusicBrainz.Contact = v
	}
}
