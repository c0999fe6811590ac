package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/playsync/internal/formatter"
	"github.com/desertthunder/playsync/internal/repositories"
	"github.com/urfave/cli/v3"
)

// CacheShow prints a playlist's sync cache.
func (r *Runner) CacheShow(ctx context.Context, cmd *cli.Command) error {
	playlistID := cmd.String("playlist")

	store, err := r.cacheStore()
	if err != nil {
		return err
	}

	cache, err := store.Load(ctx, playlistID)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(cache, true)
	}

	r.writePlain("%s\n", formatter.CacheSummary(playlistID, cache))
	if len(cache.Map) > 0 {
		r.writePlain("%s\n", formatter.CacheTable(cache))
	}
	return nil
}

// CacheForget removes one mapping. The item stays seen, so it is only re-matched when it is
// also new or its old target has gone.
func (r *Runner) CacheForget(ctx context.Context, cmd *cli.Command) error {
	playlistID := cmd.String("playlist")
	sourceID := cmd.String("id")

	store, err := r.cacheStore()
	if err != nil {
		return err
	}

	removed, err := repositories.ForgetMapping(ctx, store, playlistID, sourceID)
	if err != nil {
		return err
	}
	if !removed {
		return r.writePlain("No mapping for %s in %s\n", sourceID, playlistID)
	}

	r.logger.Info("mapping forgotten", "playlist", playlistID, "id", sourceID)
	return r.writePlain("✓ Forgot mapping for %s in %s\n", sourceID, playlistID)
}

// PairsList prints the configured pairs.
func (r *Runner) PairsList(ctx context.Context, cmd *cli.Command) error {
	if len(r.config.Pairs) == 0 {
		return r.writePlain("No pairs configured. Add a [[pairs]] entry to %s\n", r.configPath)
	}
	return r.writePlain("%s\n", formatter.PairsTable(r.config.Pairs))
}

// HistoryList prints recorded legs, newest first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	runs, err := r.runStore(false)
	if err != nil {
		return err
	}
	if runs == nil {
		return r.writePlain("No run history at %s. Run 'playsync setup database' to start recording.\n", r.config.Database.Path)
	}

	records, err := runs.List(ctx, repositories.RunCriteria{
		Pair:           cmd.String("pair"),
		SourcePlaylist: cmd.String("playlist"),
		Limit:          cmd.Int("limit"),
	})
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(records, true)
	}
	if len(records) == 0 {
		return r.writePlain("No runs recorded.\n")
	}
	return r.writePlain("%s\n", formatter.RunsTable(records))
}
