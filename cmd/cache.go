package main

import (
	"context"

	"github.com/urfave/cli/v3"
)

// CacheStats prints how many resolutions are cached per platform.
func (r *Runner) CacheStats(ctx context.Context, cmd *cli.Command) error {
	cache, closeDB, err := r.openCache()
	if err != nil {
		return err
	}
	defer closeDB()

	stats, err := cache.Stats(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(stats, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Resolution Cache")
	if len(stats) == 0 {
		r.writePlain("Cache is empty.\n")
		return nil
	}
	total := 0
	for platform, count := range stats {
		r.writePlain("%-12s %d\n", platform, count)
		total += count
	}
	r.writePlain("%-12s %d\n", "total", total)
	return nil
}

// CacheClear drops every cached resolution.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	cache, closeDB, err := r.openCache()
	if err != nil {
		return err
	}
	defer closeDB()

	removed, err := cache.Clear(ctx)
	if err != nil {
		return err
	}

	r.logger.Info("resolution cache cleared", "removed", removed)
	r.writePlain("Removed %d cached resolution(s).\n", removed)
	return nil
}

// cacheCommand handles resolution cache operations.
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect and manage the resolution cache",
		Commands: []*cli.Command{
			{
				Name:  "stats",
				Usage: "Show cached resolution counts per platform",
				Flags: []cli.Flag{
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
				Action: r.CacheStats,
			},
			{
				Name:   "clear",
				Usage:  "Remove every cached resolution",
				Action: r.CacheClear,
			},
		},
	}
}
