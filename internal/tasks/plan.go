package tasks

import (
	"context"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playsync/internal/matching"
	"github.com/desertthunder/playsync/internal/models"
)

// idSet collects item IDs for membership checks.
func idSet(items []models.Item) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it.ID] = struct{}{}
	}
	return set
}

// recentItems returns the window newest items by AddedAt, newest first. Items with equal
// timestamps keep their playlist order.
func recentItems(items []models.Item, window int) []models.Item {
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b models.Item) int {
		return b.AddedAt.Compare(a.AddedAt)
	})
	if window >= 0 && len(sorted) > window {
		sorted = sorted[:window]
	}
	return sorted
}

// validMapping reports whether id maps to a target that still exists in the destination.
func validMapping(cache *models.SyncCache, id string, targetIDs map[string]struct{}) bool {
	target, ok := cache.Target(id)
	if !ok {
		return false
	}
	_, exists := targetIDs[target]
	return exists
}

// isCandidate applies the admission rules to one recent source item.
func isCandidate(item models.Item, cache *models.SyncCache, targetIDs map[string]struct{}) bool {
	valid := validMapping(cache, item.ID, targetIDs)
	_, mapped := cache.Target(item.ID)

	switch {
	case cache.FirstRun() && !valid:
		return true
	case item.AddedAt.After(cache.LastSyncTimestamp):
		return true
	case !cache.Seen(item.ID):
		return true
	case mapped && !valid:
		return true
	default:
		return false
	}
}

// selectCandidates returns the admitted items among the window newest source items, newest first.
func selectCandidates(source []models.Item, cache *models.SyncCache, targetIDs map[string]struct{}, window int) []models.Item {
	var candidates []models.Item
	for _, item := range recentItems(source, window) {
		if isCandidate(item, cache, targetIDs) {
			candidates = append(candidates, item)
		}
	}
	return candidates
}

// planner decides one plan entry per candidate against an in-memory destination snapshot that
// grows as additions are planned.
type planner struct {
	matcher matching.Matcher
	cache   *models.SyncCache
	dest    []models.Item
	destIDs map[string]struct{}
	logger  *log.Logger
}

func newPlanner(matcher matching.Matcher, cache *models.SyncCache, dest []models.Item, logger *log.Logger) *planner {
	return &planner{
		matcher: matcher,
		cache:   cache,
		dest:    slices.Clone(dest),
		destIDs: idSet(dest),
		logger:  logger,
	}
}

func (p *planner) entry(ctx context.Context, src models.Item) models.PlanEntry {
	entry := models.PlanEntry{Source: src, Outcome: models.OutcomePending}

	if target, ok := p.cache.Target(src.ID); ok {
		if _, exists := p.destIDs[target]; exists {
			entry.Action = models.ActionSkip
			entry.Reason = models.ReasonAlreadyMapped
			entry.Outcome = models.OutcomeSkipped
			return entry
		}
		p.logger.Debug("mapped target missing from destination", "source", src.ID, "target", target)
		p.cache.Forget(src.ID)
	}

	if dupe, ok := matching.FindSoftDuplicate(src, p.dest); ok {
		p.logger.Debug("soft duplicate", "source", src.Label(), "target", dupe.Label())
		entry.Action = models.ActionMapOnly
		entry.Target = dupe
		entry.Reason = models.ReasonOK
		return entry
	}

	result, err := p.matcher.Match(ctx, src)
	if err != nil {
		p.logger.Warn("search failed", "source", src.Label(), "error", err)
		entry.Action = models.ActionSkip
		entry.Reason = models.ReasonSearchFailed
		entry.Outcome = models.OutcomeSkipped
		entry.Error = err.Error()
		return entry
	}

	entry.Score = result.Score
	entry.Escalated = result.Escalated

	if !result.Matched() {
		entry.Action = models.ActionSkip
		entry.Reason = result.Reason
		entry.Outcome = models.OutcomeSkipped
		return entry
	}

	best := *result.Best
	entry.Target = &best
	entry.Reason = models.ReasonOK

	if _, exists := p.destIDs[best.ID]; exists {
		entry.Action = models.ActionMapOnly
		return entry
	}

	entry.Action = models.ActionAdd
	p.dest = append(p.dest, best)
	p.destIDs[best.ID] = struct{}{}
	return entry
}
