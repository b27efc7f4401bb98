package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/trackx/internal/resolver"
	"github.com/desertthunder/trackx/internal/services"
	"github.com/desertthunder/trackx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Resolve runs the tiered resolution algorithm for a single track against one
// platform, or against every cascade platform when none is specified.
func (r *Runner) Resolve(ctx context.Context, cmd *cli.Command) error {
	query := services.TrackQuery{
		Artist:     cmd.String("artist"),
		Title:      cmd.String("title"),
		Album:      cmd.String("album"),
		VerifiedBy: services.Platform(cmd.String("verified-by")),
	}
	if query.Incomplete() {
		return fmt.Errorf("%w: artist and title are required", shared.ErrMissingArgument)
	}

	var targets []services.SearchAdapter
	if name := cmd.String("platform"); name != "" {
		adapter, ok := r.adapters[services.Platform(name)]
		if !ok {
			return fmt.Errorf("%w: no adapter configured for platform '%s'", shared.ErrInvalidFlag, name)
		}
		targets = []services.SearchAdapter{adapter}
	} else {
		targets = r.selectAdapters(r.config.Resolver.Cascade)
	}

	res := resolver.New(resolver.Config{
		SoftThreshold: r.config.Resolver.SoftThreshold,
		HardThreshold: r.config.Resolver.HardThreshold,
		HardLimit:     r.config.Resolver.HardLimit,
		Logger:        r.logger,
	})

	results := make(map[services.Platform]resolver.Result, len(targets))
	for _, adapter := range targets {
		if !adapter.Available(ctx) {
			r.logger.Warn("platform unavailable", "platform", adapter.Platform())
			continue
		}
		results[adapter.Platform()] = res.Resolve(ctx, query, adapter)
	}

	if cmd.Bool("json") {
		return r.writeJSON(results, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Resolution: %s", query.Label()))
	for platform, result := range results {
		if result.Failed() {
			r.writePlain("%-12s ✗ %s\n", platform, result.Reason)
			continue
		}
		r.writePlain("%-12s ✓ %s (%s, confidence %.2f)\n", platform, result.ID, result.Tier, result.Confidence)
	}
	return nil
}

// resolveCommand handles single-track resolution.
func resolveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "resolve",
		Usage: "Resolve one track to platform identifiers",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "artist",
				Aliases:  []string{"a"},
				Usage:    "Track artist",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "title",
				Aliases:  []string{"t"},
				Usage:    "Track title",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "album",
				Usage: "Track album (optional)",
			},
			&cli.StringFlag{
				Name:    "platform",
				Aliases: []string{"p"},
				Usage:   "Single platform to resolve against (default: configured cascade)",
			},
			&cli.StringFlag{
				Name:  "verified-by",
				Usage: "Platform that already confirmed this track exists",
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
		Action: r.Resolve,
	}
}
