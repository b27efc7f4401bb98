package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/trackx/internal/services"
	"github.com/desertthunder/trackx/internal/shared"
	"github.com/desertthunder/trackx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// filePoolSource serves replacement candidates from a pre-generated JSON pool,
// consuming entries front to back so retries see fresh suggestions.
type filePoolSource struct {
	pool []services.TrackQuery
}

func (s *filePoolSource) RequestReplacements(ctx context.Context, count int, failed []services.TrackQuery) ([]services.TrackQuery, error) {
	if len(s.pool) == 0 {
		return nil, fmt.Errorf("%w: replacement pool exhausted", shared.ErrTrackNotFound)
	}
	if count > len(s.pool) {
		count = len(s.pool)
	}
	batch := s.pool[:count]
	s.pool = s.pool[count:]
	return batch, nil
}

// loggingDeleter records deletions instead of mutating a remote collection.
// The caller applies the printed entry IDs to their own library.
type loggingDeleter struct {
	runner *Runner
}

func (d *loggingDeleter) DeleteTracks(ctx context.Context, ids []string) error {
	for _, id := range ids {
		d.runner.writePlain("  superseded: %s\n", id)
	}
	return nil
}

// Replace runs the bounded replacement loop over a file of failed tracks,
// drawing substitutes from a pre-generated candidate pool.
func (r *Runner) Replace(ctx context.Context, cmd *cli.Command) error {
	failed, err := loadTracks(cmd.String("input"))
	if err != nil {
		return err
	}
	pool, err := loadTracks(cmd.String("pool"))
	if err != nil {
		return err
	}

	var cache tasks.ResolutionCache
	if !cmd.Bool("no-cache") {
		repo, closeDB, err := r.openCache()
		if err != nil {
			return err
		}
		defer closeDB()
		cache = repo
	}

	replacer := tasks.NewReplacer(tasks.ReplacerOpts{
		Verifier:       r.newVerifier(cache),
		Source:         &filePoolSource{pool: pool},
		Deleter:        &loggingDeleter{runner: r},
		MaxRetries:     int(cmd.Int("max-retries")),
		DuplicateFloor: 0.9,
		Logger:         r.logger,
	})

	r.logger.Info("starting replacement round", "failed", len(failed), "pool", len(pool))
	r.writePlain("Replacing %d failed track(s) from a pool of %d...\n\n", len(failed), len(pool))

	progressCh := make(chan tasks.ProgressUpdate, 50)
	go func() {
		for update := range progressCh {
			switch update.Phase {
			case tasks.RequestReplacements, tasks.DeleteOriginals, tasks.RetryRound:
				r.writePlain("%s\n", update.Message)
			}
		}
	}()

	result, err := replacer.Run(ctx, failed, progressCh)
	close(progressCh)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, cmd.Bool("pretty"))
	}

	r.writePlain("\n")
	r.writePlainHeader("Replacement Complete")
	r.writePlain("Attempts: %d\n", result.Attempts)
	r.writePlain("Replaced: %d\n", result.ReplacedCount)
	r.writePlain("Still failed: %d\n", len(result.StillFailed))

	if result.UserActionNeeded {
		r.writePlain("\nManual review needed for:\n")
		for i, track := range result.StillFailed {
			r.writePlain("  %d. %s\n", i+1, track.Label())
		}
	}

	return nil
}

// replaceCommand handles the automatic replacement loop.
func replaceCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "replace",
		Usage: "Replace failed tracks from a candidate pool",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Usage:    "Path to JSON file with failed track queries",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "pool",
				Usage:    "Path to JSON file with replacement candidates",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "max-retries",
				Usage: "Maximum replacement rounds",
				Value: r.config.Verification.MaxRetries,
			},
			&cli.BoolFlag{
				Name:  "no-cache",
				Usage: "Skip the resolution cache for this run",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.Replace,
	}
}
