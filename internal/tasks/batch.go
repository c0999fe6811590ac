package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/desertthunder/playsync/internal/formatter"
	"github.com/desertthunder/playsync/internal/services"
	"github.com/desertthunder/playsync/internal/shared"
)

// BatchOpts configures [Reconciler.SyncAll].
type BatchOpts struct {
	Format    string // Report format: csv or json; empty skips per-pair reports
	OutputDir string // Report directory (default: playsync_reports_{epoch})
}

// PairResult is the outcome of one pair within a batch.
type PairResult struct {
	Pair    string
	Result  *SyncResult
	Reports []string
	Error   error
}

// BatchResult summarizes a batch sync.
type BatchResult struct {
	Pairs        []PairResult
	Succeeded    int
	Failed       int
	ManifestPath string
}

// SyncAll reconciles each request in order. A failing pair is recorded and the batch moves on.
//
// Pairs run one at a time since two pairs may share a playlist. When opts.Format is set each
// leg's plan is written as a report and a manifest summarizing the batch is written last.
func (r *Reconciler) SyncAll(
	ctx context.Context,
	progress chan<- ProgressUpdate,
	spotify, youtube services.Catalog,
	reqs []Request,
	opts BatchOpts,
) (*BatchResult, error) {
	if opts.Format != "" {
		if !formatter.ValidFormat(opts.Format) {
			return nil, fmt.Errorf("%w: unsupported report format %q", shared.ErrInvalidArgument, opts.Format)
		}
		if opts.OutputDir == "" {
			opts.OutputDir = fmt.Sprintf("playsync_reports_%d", time.Now().Unix())
		}
		if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	batch := &BatchResult{Pairs: make([]PairResult, 0, len(reqs))}
	manifest := &formatter.Manifest{GeneratedAt: r.now(), Format: opts.Format}

	for i, req := range reqs {
		if err := ctx.Err(); err != nil {
			return batch, err
		}

		name := req.Pair
		if name == "" {
			name = req.SourcePlaylist
		}
		manifest.DryRun = manifest.DryRun || req.DryRun
		r.sendProgress(progress, syncPairUpdate(i+1, len(reqs), name))

		res, err := r.Sync(ctx, progress, spotify, youtube, req)
		pr := PairResult{Pair: name, Result: res, Error: err}

		if opts.Format != "" && res != nil {
			for _, leg := range res.Legs() {
				path := filepath.Join(opts.OutputDir, formatter.ReportFilename(name, leg.Plan, opts.Format))
				written, werr := formatter.WritePlanReport(leg.Plan, opts.Format, path)
				if werr != nil {
					r.logger.Warn("failed to write report", "pair", name, "error", werr)
					continue
				}
				pr.Reports = append(pr.Reports, written)
			}
		}

		entry := formatter.ManifestEntry{Pair: name, Success: err == nil, Reports: pr.Reports}
		if res != nil {
			for _, leg := range res.Legs() {
				entry.Added += leg.Added
				entry.Mapped += leg.Mapped
				entry.Skipped += leg.Skipped
				entry.Failed += leg.Failed
			}
		}

		if err != nil {
			batch.Failed++
			entry.Error = err.Error()
			r.logger.Error("pair sync failed", "pair", name, "error", err)
			r.sendProgress(progress, syncPairFailedUpdate(i+1, len(reqs), name, err))
		} else {
			batch.Succeeded++
			r.sendProgress(progress, syncPairCompletedUpdate(i+1, len(reqs), name, res.Added()))
		}

		batch.Pairs = append(batch.Pairs, pr)
		manifest.Pairs = append(manifest.Pairs, entry)
	}

	manifest.Succeeded = batch.Succeeded
	manifest.Failed = batch.Failed

	if opts.Format != "" {
		manifestPath := filepath.Join(opts.OutputDir, "sync_manifest.json")
		if err := formatter.WriteManifest(manifest, manifestPath); err != nil {
			return batch, fmt.Errorf("sync completed but failed to write manifest: %w", err)
		}
		batch.ManifestPath = manifestPath
	}
	return batch, nil
}
