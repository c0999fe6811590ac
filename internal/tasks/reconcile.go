package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playsync/internal/matching"
	"github.com/desertthunder/playsync/internal/models"
	"github.com/desertthunder/playsync/internal/repositories"
	"github.com/desertthunder/playsync/internal/services"
	"github.com/desertthunder/playsync/internal/shared"
	"golang.org/x/sync/errgroup"
)

// DefaultWindow is the number of newest source items considered per leg.
const DefaultWindow = 10

// Mode selects which legs a sync runs.
type Mode string

const (
	ModeForward Mode = "forward"
	ModeReverse Mode = "reverse"
	ModeBoth    Mode = "both"
)

// ParseMode validates a --mode value.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeForward, ModeReverse, ModeBoth:
		return m, nil
	case "":
		return ModeForward, nil
	default:
		return "", fmt.Errorf("%w: mode must be forward, reverse or both, got %q", shared.ErrInvalidArgument, s)
	}
}

// RunRecorder stores a summary of each completed, non-dry-run leg.
type RunRecorder interface {
	Record(ctx context.Context, run *models.RunRecord) error
}

// Leg is one directional pass: source items are matched into the target playlist.
type Leg struct {
	Direction      models.Direction
	Source         services.Catalog
	Target         services.Catalog
	SourcePlaylist string
	TargetPlaylist string
	Matcher        matching.Matcher
	Window         int
}

// LegResult is the outcome of one leg.
type LegResult struct {
	Pair        string
	Plan        *models.Plan
	Window      int
	DryRun      bool
	SourceItems int
	Candidates  int
	Added       int
	Mapped      int
	Skipped     int
	Failed      int
	StartedAt   time.Time
	CompletedAt time.Time
}

// Record converts the result into a [models.RunRecord].
func (r *LegResult) Record() *models.RunRecord {
	return &models.RunRecord{
		Pair:           r.Pair,
		Direction:      r.Plan.Direction,
		SourcePlaylist: r.Plan.SourcePlaylist,
		TargetPlaylist: r.Plan.TargetPlaylist,
		DryRun:         r.DryRun,
		Window:         r.Window,
		Candidates:     r.Candidates,
		Added:          r.Added,
		Mapped:         r.Mapped,
		Skipped:        r.Skipped,
		Failed:         r.Failed,
		StartedAt:      r.StartedAt,
		CompletedAt:    r.CompletedAt,
	}
}

// SyncResult holds the legs run for one pair; a leg that did not run is nil.
type SyncResult struct {
	Pair    string
	Forward *LegResult
	Reverse *LegResult
}

// Legs returns the legs that ran, in execution order.
func (r *SyncResult) Legs() []*LegResult {
	var legs []*LegResult
	for _, l := range []*LegResult{r.Forward, r.Reverse} {
		if l != nil {
			legs = append(legs, l)
		}
	}
	return legs
}

// Added totals successful additions across legs.
func (r *SyncResult) Added() int {
	n := 0
	for _, l := range r.Legs() {
		n += l.Added
	}
	return n
}

// Request describes one pair sync. SourcePlaylist is the Spotify playlist and TargetPlaylist
// the YouTube playlist regardless of mode.
type Request struct {
	Pair           string
	Mode           Mode
	SourcePlaylist string
	TargetPlaylist string
	Window         int
	ReverseWindow  int
	Slack          time.Duration
	DryRun         bool
}

// Reconciler drives reconciliation legs against a cache store.
//
// Runs are sequential: one leg at a time, one candidate at a time.
// Overlapping runs for the same pair are not supported.
type Reconciler struct {
	store  repositories.CacheStore
	runs   RunRecorder
	logger *log.Logger
	now    func() time.Time
}

// NewReconciler creates a Reconciler. runs may be nil to disable run history.
func NewReconciler(store repositories.CacheStore, runs RunRecorder, logger *log.Logger) *Reconciler {
	if logger == nil {
		logger = shared.NewNopLogger()
	}
	return &Reconciler{store: store, runs: runs, logger: logger, now: time.Now}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (r *Reconciler) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Sync runs the legs selected by req.Mode between a Spotify and a YouTube catalog.
//
// In both mode the reverse leg's window is widened by the number of successful forward additions.
func (r *Reconciler) Sync(ctx context.Context, progress chan<- ProgressUpdate, spotify, youtube services.Catalog, req Request) (*SyncResult, error) {
	if spotify == nil || youtube == nil {
		return nil, fmt.Errorf("%w: both catalogs are required", shared.ErrServiceUnavailable)
	}
	if req.SourcePlaylist == "" || req.TargetPlaylist == "" {
		return nil, fmt.Errorf("%w: source and target playlists are required", shared.ErrMissingArgument)
	}
	if req.Slack <= 0 {
		req.Slack = matching.DefaultSlack
	}
	if req.Window <= 0 {
		req.Window = DefaultWindow
	}
	if req.ReverseWindow <= 0 {
		req.ReverseWindow = DefaultWindow
	}
	mode, err := ParseMode(string(req.Mode))
	if err != nil {
		return nil, err
	}

	forward := Leg{
		Direction:      models.Forward,
		Source:         spotify,
		Target:         youtube,
		SourcePlaylist: req.SourcePlaylist,
		TargetPlaylist: req.TargetPlaylist,
		Window:         req.Window,
	}
	reverse := Leg{
		Direction:      models.Reverse,
		Source:         youtube,
		Target:         spotify,
		SourcePlaylist: req.TargetPlaylist,
		TargetPlaylist: req.SourcePlaylist,
		Window:         req.ReverseWindow,
	}

	result := &SyncResult{Pair: req.Pair}

	if mode == ModeForward || mode == ModeBoth {
		forward.Matcher = matching.NewForwardMatcher(youtube, req.Slack, r.legLogger(req.Pair, models.Forward))
		if result.Forward, err = r.RunLeg(ctx, progress, forward, req.Pair, req.DryRun); err != nil {
			return result, err
		}
	}

	if mode == ModeReverse || mode == ModeBoth {
		if result.Forward != nil {
			reverse.Window += result.Forward.Added
		}
		reverse.Matcher = matching.NewReverseMatcher(spotify, req.Slack, r.legLogger(req.Pair, models.Reverse))
		if result.Reverse, err = r.RunLeg(ctx, progress, reverse, req.Pair, req.DryRun); err != nil {
			return result, err
		}
	}

	return result, nil
}

func (r *Reconciler) legLogger(pair string, dir models.Direction) *log.Logger {
	if pair == "" {
		return shared.WithLogger(r.logger, "leg", dir)
	}
	return shared.WithLogger(r.logger, "pair", pair, "leg", dir)
}

// RunLeg executes one leg: load cache, fetch both catalogs, select candidates, build the plan,
// apply it and persist the cache. Apply and persist are skipped for a dry run, which never
// mutates the stored cache.
//
// Per-item failures are recorded in the plan. A returned error means the leg could not run or
// its cache could not be persisted.
func (r *Reconciler) RunLeg(ctx context.Context, progress chan<- ProgressUpdate, leg Leg, pair string, dryRun bool) (*LegResult, error) {
	if leg.Source == nil || leg.Target == nil {
		return nil, fmt.Errorf("%w: leg catalogs not initialized", shared.ErrServiceUnavailable)
	}
	if leg.Matcher == nil {
		return nil, fmt.Errorf("%w: leg matcher not initialized", shared.ErrInvalidArgument)
	}
	if !leg.Direction.Valid() {
		return nil, fmt.Errorf("%w: direction %q", shared.ErrInvalidArgument, leg.Direction)
	}
	if leg.Window <= 0 {
		leg.Window = DefaultWindow
	}

	logger := r.legLogger(pair, leg.Direction)
	dir := leg.Direction
	started := r.now()

	r.sendProgress(progress, loadCacheUpdate(dir, leg.SourcePlaylist))
	stored, err := r.store.Load(ctx, leg.SourcePlaylist)
	if err != nil {
		return nil, err
	}

	cache := stored
	if dryRun {
		cache = stored.Clone()
	}

	r.sendProgress(progress, fetchCatalogsUpdate(dir, leg.Source.Name(), leg.Target.Name()))
	sourceItems, targetItems, err := fetchBoth(ctx, leg)
	if err != nil {
		return nil, err
	}

	targetIDs := idSet(targetItems)
	candidates := selectCandidates(sourceItems, cache, targetIDs, leg.Window)
	r.sendProgress(progress, selectCandidatesUpdate(dir, len(candidates), leg.Window, len(sourceItems)))
	logger.Info("selected candidates",
		"candidates", len(candidates), "window", leg.Window,
		"source_items", len(sourceItems), "target_items", len(targetItems), "first_run", cache.FirstRun())

	plan := &models.Plan{
		Direction:      dir,
		SourcePlaylist: leg.SourcePlaylist,
		TargetPlaylist: leg.TargetPlaylist,
		Entries:        make([]models.PlanEntry, 0, len(candidates)),
	}

	p := newPlanner(leg.Matcher, cache, targetItems, logger)
	for i, src := range candidates {
		r.sendProgress(progress, buildPlanUpdate(dir, i+1, len(candidates), src))
		entry := p.entry(ctx, src)
		logger.Debug("planned", "source", src.Label(), "action", entry.Action, "reason", entry.Reason, "score", entry.Score)
		plan.Entries = append(plan.Entries, entry)
	}

	result := &LegResult{
		Pair:        pair,
		Plan:        plan,
		Window:      leg.Window,
		DryRun:      dryRun,
		SourceItems: len(sourceItems),
		Candidates:  len(candidates),
		StartedAt:   started,
	}

	if dryRun {
		r.markDryRun(plan, result)
		result.CompletedAt = r.now()
		logger.Info("dry run complete", "add", plan.Count(models.ActionAdd), "map_only", result.Mapped, "skip", result.Skipped)
		return result, nil
	}

	r.apply(ctx, progress, leg, plan, cache, result, logger)

	cache.MarkSeen(baselineIDs(sourceItems, plan)...)
	cache.LastSyncTimestamp = started

	r.sendProgress(progress, persistCacheUpdate(dir, leg.SourcePlaylist))
	if err := r.store.Save(ctx, leg.SourcePlaylist, cache); err != nil {
		logger.Error("cache not persisted; the next run will re-evaluate these candidates", "error", err)
		if !errors.Is(err, shared.ErrCachePersist) {
			err = fmt.Errorf("%w: %v", shared.ErrCachePersist, err)
		}
		return result, err
	}

	result.CompletedAt = r.now()
	logger.Info("leg complete", "added", result.Added, "mapped", result.Mapped, "skipped", result.Skipped, "failed", result.Failed)

	if r.runs != nil {
		if err := r.runs.Record(ctx, result.Record()); err != nil {
			logger.Warn("failed to record run history", "error", err)
		}
	}

	return result, nil
}

// fetchBoth loads both playlists concurrently.
func fetchBoth(ctx context.Context, leg Leg) (source, target []models.Item, err error) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		items, err := leg.Source.Items(gctx, leg.SourcePlaylist)
		if err != nil {
			return fmt.Errorf("fetch %s playlist %s: %w", leg.Source.Name(), leg.SourcePlaylist, err)
		}
		source = items
		return nil
	})
	g.Go(func() error {
		items, err := leg.Target.Items(gctx, leg.TargetPlaylist)
		if err != nil {
			return fmt.Errorf("fetch %s playlist %s: %w", leg.Target.Name(), leg.TargetPlaylist, err)
		}
		target = items
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return source, target, nil
}

// apply records map-only mappings, then inserts additions oldest first. A failing insert is
// logged and left unmapped so the item is retried next run.
func (r *Reconciler) apply(
	ctx context.Context,
	progress chan<- ProgressUpdate,
	leg Leg,
	plan *models.Plan,
	cache *models.SyncCache,
	result *LegResult,
	logger *log.Logger,
) {
	for i := range plan.Entries {
		e := &plan.Entries[i]
		switch e.Action {
		case models.ActionMapOnly:
			cache.SetMapping(e.Source.ID, e.Target.ID)
			e.Outcome = models.OutcomeApplied
			result.Mapped++
		case models.ActionSkip:
			result.Skipped++
		}
	}

	order := plan.AdditionOrder()
	for step, idx := range order {
		e := &plan.Entries[idx]
		if err := leg.Target.Insert(ctx, leg.TargetPlaylist, e.Target.ID); err != nil {
			logger.Warn("insert failed", "source", e.Source.Label(), "target", e.Target.ID, "error", err)
			e.Outcome = models.OutcomeFailed
			e.Error = err.Error()
			result.Failed++
		} else {
			cache.SetMapping(e.Source.ID, e.Target.ID)
			e.Outcome = models.OutcomeApplied
			result.Added++
		}
		r.sendProgress(progress, applyUpdate(leg.Direction, step+1, len(order), *e))
	}
}

func (r *Reconciler) markDryRun(plan *models.Plan, result *LegResult) {
	for i := range plan.Entries {
		e := &plan.Entries[i]
		switch e.Action {
		case models.ActionAdd:
			e.Outcome = models.OutcomeDryRun
		case models.ActionMapOnly:
			e.Outcome = models.OutcomeDryRun
			result.Mapped++
		case models.ActionSkip:
			result.Skipped++
		}
	}
}

// baselineIDs returns every source ID except those whose insert or search failed, so that the
// admission rules pick them up again on the next run.
func baselineIDs(items []models.Item, plan *models.Plan) []string {
	retry := make(map[string]struct{})
	for _, e := range plan.Entries {
		if e.Outcome == models.OutcomeFailed || e.Reason == models.ReasonSearchFailed {
			retry[e.Source.ID] = struct{}{}
		}
	}

	out := make([]string, 0, len(items))
	for _, it := range items {
		if _, ok := retry[it.ID]; !ok {
			out = append(out, it.ID)
		}
	}
	return out
}
