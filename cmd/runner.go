package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/trackx/internal/repositories"
	"github.com/desertthunder/trackx/internal/resolver"
	"github.com/desertthunder/trackx/internal/services"
	"github.com/desertthunder/trackx/internal/shared"
	"github.com/desertthunder/trackx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config   *shared.Config
	adapters map[services.Platform]services.SearchAdapter
	logger   *log.Logger
	output   io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config   *shared.Config
	Adapters map[services.Platform]services.SearchAdapter
	Logger   *log.Logger
	Output   io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Adapters == nil {
		opts.Adapters = map[services.Platform]services.SearchAdapter{}
	}

	return &Runner{
		config:   opts.Config,
		adapters: opts.Adapters,
		logger:   opts.Logger,
		output:   opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, resolveCommand, verifyCommand, replaceCommand, cacheCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// selectAdapters maps configured platform names to constructed adapters,
// skipping names with no adapter (missing credentials or unknown platform).
func (r *Runner) selectAdapters(names []string) []services.SearchAdapter {
	var selected []services.SearchAdapter
	for _, name := range names {
		adapter, ok := r.adapters[services.Platform(name)]
		if !ok {
			r.logger.Warn("no adapter configured for platform, skipping", "platform", name)
			continue
		}
		selected = append(selected, adapter)
	}
	return selected
}

// newVerifier builds a verifier from the runner's config and the given cache.
func (r *Runner) newVerifier(cache tasks.ResolutionCache) *tasks.Verifier {
	res := resolver.New(resolver.Config{
		SoftThreshold: r.config.Resolver.SoftThreshold,
		HardThreshold: r.config.Resolver.HardThreshold,
		HardLimit:     r.config.Resolver.HardLimit,
		Logger:        r.logger,
	})

	return tasks.NewVerifier(tasks.VerifierOpts{
		Cascade:    r.selectAdapters(r.config.Resolver.Cascade),
		Enrich:     r.selectAdapters(r.config.Resolver.Enrich),
		Resolver:   res,
		Cache:      cache,
		TrackDelay: time.Duration(r.config.Verification.TrackDelayMS) * time.Millisecond,
		Timeout:    time.Duration(r.config.Verification.TimeoutSeconds) * time.Second,
		Logger:     r.logger,
	})
}

// openCache opens the configured SQLite resolution cache. The returned close
// function is safe to defer.
func (r *Runner) openCache() (*repositories.ResolutionCache, func(), error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, nil, err
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	cache, err := repositories.NewResolutionCache(db)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return cache, func() { db.Close() }, nil
}

// loadTracks reads a JSON array of track queries from path.
func loadTracks(path string) ([]services.TrackQuery, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read track file: %w", err)
	}

	var tracks []services.TrackQuery
	if err := json.Unmarshal(data, &tracks); err != nil {
		return nil, fmt.Errorf("%w: failed to parse track file: %v", shared.ErrInvalidInput, err)
	}
	return tracks, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
