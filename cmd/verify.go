package main

import (
	"context"

	"github.com/desertthunder/trackx/internal/tasks"
	"github.com/desertthunder/trackx/internal/ui"
	"github.com/urfave/cli/v3"
)

// Verify runs batch verification over a JSON file of track queries.
func (r *Runner) Verify(ctx context.Context, cmd *cli.Command) error {
	tracks, err := loadTracks(cmd.String("input"))
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

	verifier := r.newVerifier(cache)

	if cmd.Bool("tui") {
		return ui.Run(ctx, func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*tasks.Summary, error) {
			_, summary := verifier.VerifyBatch(ctx, tracks, progress)
			return summary, nil
		})
	}

	r.logger.Info("starting verification", "tracks", len(tracks))
	r.writePlain("Verifying %d track(s)...\n\n", len(tracks))

	// Create progress channel and goroutine to handle updates
	progressCh := make(chan tasks.ProgressUpdate, 50)
	go func() {
		for update := range progressCh {
			if update.Data != nil {
				r.writePlain("   %s\n", update.Message)
			}
		}
	}()

	resolved, summary := verifier.VerifyBatch(ctx, tracks, progressCh)
	close(progressCh)

	if cmd.Bool("json") {
		return r.writeJSON(struct {
			Summary *tasks.Summary        `json:"summary"`
			Tracks  []tasks.ResolvedTrack `json:"tracks"`
		}{summary, resolved}, cmd.Bool("pretty"))
	}

	r.writePlain("\n")
	r.writePlainHeader("Verification Complete")
	r.writePlain("Total: %d\n", summary.Total)
	r.writePlain("Verified: %d\n", summary.Verified)
	r.writePlain("Failed: %d\n", summary.Failed)
	r.writePlain("Skipped: %d\n", summary.Skipped)
	if summary.TimedOut {
		r.writePlain("Run hit its time limit before finishing.\n")
	}

	if len(summary.Failures) > 0 {
		r.writePlain("\nFailed tracks:\n")
		for i, failure := range summary.Failures {
			r.writePlain("  %d. %s (%s)\n", i+1, failure.Track, failure.Reason)
		}
	}

	return nil
}

// verifyCommand handles batch verification operations.
func verifyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "verify",
		Usage: "Verify a batch of tracks across platforms",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Usage:    "Path to JSON file with track queries",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "tui",
				Usage: "Show interactive progress view",
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
		Action: r.Verify,
	}
}
