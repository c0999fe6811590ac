package main

import (
	"cmp"
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/playsync/internal/formatter"
	"github.com/desertthunder/playsync/internal/models"
	"github.com/desertthunder/playsync/internal/shared"
	"github.com/desertthunder/playsync/internal/tasks"
	"github.com/urfave/cli/v3"
)

// SyncRun reconciles the selected pairs and prints each leg's plan.
//
// A single failing pair returns its own error so callers can branch on it; a batch returns
// [shared.ErrSyncFailed] when any pair failed.
func (r *Runner) SyncRun(ctx context.Context, cmd *cli.Command) error {
	mode, err := tasks.ParseMode(cmd.String("mode"))
	if err != nil {
		return err
	}

	reqs, err := r.syncRequests(cmd, mode)
	if err != nil {
		return err
	}

	format := cmd.String("report")
	if format != "" && !formatter.ValidFormat(format) {
		return fmt.Errorf("%w: --report must be csv or json", shared.ErrInvalidArgument)
	}

	spotify, youtube, err := r.catalogs(ctx)
	if err != nil {
		return err
	}

	store, err := r.cacheStore()
	if err != nil {
		return err
	}

	var recorder tasks.RunRecorder
	if runs, err := r.runStore(r.config.Sync.CacheBackend == shared.CacheBackendSQLite); err != nil {
		r.logger.Warn("run history disabled", "error", err)
	} else if runs != nil {
		recorder = runs
	}

	reconciler := tasks.NewReconciler(store, recorder, r.logger)

	r.logger.Info("starting sync", "pairs", len(reqs), "mode", mode, "dry_run", cmd.Bool("dry-run"))

	progress, done := r.progressPrinter()
	batch, err := reconciler.SyncAll(ctx, progress, spotify, youtube, reqs, tasks.BatchOpts{
		Format:    format,
		OutputDir: cmd.String("output"),
	})
	close(progress)
	<-done

	if batch != nil {
		r.printBatch(batch)
	}
	if err != nil {
		return err
	}

	if batch.Failed > 0 {
		if len(batch.Pairs) == 1 {
			return batch.Pairs[0].Error
		}
		return fmt.Errorf("%w: %d of %d pairs failed", shared.ErrSyncFailed, batch.Failed, len(batch.Pairs))
	}
	return nil
}

// syncRequests resolves --all, --pair or --source/--target into requests, filling unset
// control inputs from the [sync] config section.
func (r *Runner) syncRequests(cmd *cli.Command, mode tasks.Mode) ([]tasks.Request, error) {
	var pairs []shared.PairConfig

	switch {
	case cmd.Bool("all"):
		if len(r.config.Pairs) == 0 {
			return nil, fmt.Errorf("%w: no [[pairs]] in %s", shared.ErrMissingConfig, r.configPath)
		}
		pairs = r.config.Pairs
	case cmd.String("pair") != "":
		p, err := r.config.Pair(cmd.String("pair"))
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
	case cmd.String("source") != "" && cmd.String("target") != "":
		pairs = append(pairs, shared.PairConfig{
			SourcePlaylist: cmd.String("source"),
			TargetPlaylist: cmd.String("target"),
		})
	default:
		return nil, fmt.Errorf("%w: use --pair, --all, or --source with --target", shared.ErrMissingArgument)
	}

	window := cmp.Or(max(cmd.Int("window"), 0), r.config.Sync.Window)
	reverseWindow := cmp.Or(max(cmd.Int("reverse-window"), 0), r.config.Sync.ReverseWindow)
	slack := time.Duration(cmp.Or(max(cmd.Int("slack"), 0), r.config.Sync.DurationSlackSeconds)) * time.Second

	reqs := make([]tasks.Request, 0, len(pairs))
	for _, p := range pairs {
		reqs = append(reqs, tasks.Request{
			Pair:           p.Name,
			Mode:           mode,
			SourcePlaylist: p.SourcePlaylist,
			TargetPlaylist: p.TargetPlaylist,
			Window:         window,
			ReverseWindow:  reverseWindow,
			Slack:          slack,
			DryRun:         cmd.Bool("dry-run"),
		})
	}
	return reqs, nil
}

// progressPrinter drains progress updates to the output until the channel is closed.
func (r *Runner) progressPrinter() (chan tasks.ProgressUpdate, <-chan struct{}) {
	progress := make(chan tasks.ProgressUpdate, 100)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for update := range progress {
			switch update.Phase {
			case tasks.SyncPair:
				r.writePlain("\n▶ %s\n", update.Message)
			case tasks.BuildPlan, tasks.Apply:
				r.writePlain("   %s\n", update.Message)
			default:
				r.writePlain("[%s] %s\n", update.Direction, update.Message)
			}
		}
	}()

	return progress, done
}

func (r *Runner) printBatch(batch *tasks.BatchResult) {
	for _, pr := range batch.Pairs {
		r.writePlainln("")
		r.writePlainHeader(pr.Pair)

		if pr.Result != nil {
			for _, leg := range pr.Result.Legs() {
				r.printLeg(leg)
			}
		}
		if pr.Error != nil {
			r.writePlain("✗ %v\n", pr.Error)
		}
		for _, path := range pr.Reports {
			r.writePlain("  report: %s\n", path)
		}
	}

	if len(batch.Pairs) > 1 {
		r.writePlainln("Pairs: %d succeeded, %d failed", batch.Succeeded, batch.Failed)
	}
	if batch.ManifestPath != "" {
		r.writePlain("Manifest written to %s\n", batch.ManifestPath)
	}
}

func (r *Runner) printLeg(leg *tasks.LegResult) {
	plan := leg.Plan
	from, to := "Spotify", "YouTube"
	if plan.Direction == models.Reverse {
		from, to = to, from
	}

	r.writePlain("\n%s %s → %s %s (window %d, %d of %d items are candidates)\n",
		from, plan.SourcePlaylist, to, plan.TargetPlaylist, leg.Window, leg.Candidates, leg.SourceItems)

	if len(plan.Entries) == 0 {
		r.writePlain("Nothing to do.\n")
		return
	}
	r.writePlain("%s\n", formatter.PlanTable(plan))

	if leg.DryRun {
		r.writePlain("Dry run: would add %d, map %d, skip %d\n",
			plan.Count(models.ActionAdd), leg.Mapped, leg.Skipped)
		return
	}
	r.writePlain("Added %d, mapped %d, skipped %d, failed %d\n", leg.Added, leg.Mapped, leg.Skipped, leg.Failed)
}
