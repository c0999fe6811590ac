package tasks

import (
	"fmt"

	"github.com/desertthunder/playsync/internal/models"
)

// ProgressUpdate represents a progress event during a reconciliation leg.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase     Phase            // Leg phase
	Direction models.Direction // Leg direction
	Step      int              // Current step number within phase
	Total     int              // Total steps in this phase
	Message   string           // Human-readable message for display
	Data      any              // Optional phase-specific data
}

// Leg phase enumeration, in execution order.
type Phase int

const (
	LoadCache Phase = iota
	FetchCatalogs
	SelectCandidates
	BuildPlan
	Apply
	PersistCache
	SyncPair
)

func (p Phase) String() string {
	switch p {
	case LoadCache:
		return "load_cache"
	case FetchCatalogs:
		return "fetch_catalogs"
	case SelectCandidates:
		return "select_candidates"
	case BuildPlan:
		return "build_plan"
	case Apply:
		return "apply"
	case PersistCache:
		return "persist_cache"
	case SyncPair:
		return "sync_pair"
	default:
		return ""
	}
}

func loadCacheUpdate(dir models.Direction, playlistID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:     LoadCache,
		Direction: dir,
		Step:      1,
		Total:     1,
		Message:   fmt.Sprintf("Loading sync cache for %s...", playlistID),
	}
}

func fetchCatalogsUpdate(dir models.Direction, source, target string) ProgressUpdate {
	return ProgressUpdate{
		Phase:     FetchCatalogs,
		Direction: dir,
		Step:      1,
		Total:     1,
		Message:   fmt.Sprintf("Fetching %s and %s playlists...", source, target),
	}
}

func selectCandidatesUpdate(dir models.Direction, candidates, window, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:     SelectCandidates,
		Direction: dir,
		Step:      candidates,
		Total:     min(window, total),
		Message:   fmt.Sprintf("Selected %d candidates from the %d newest of %d items", candidates, min(window, total), total),
	}
}

func buildPlanUpdate(dir models.Direction, step, total int, src models.Item) ProgressUpdate {
	return ProgressUpdate{
		Phase:     BuildPlan,
		Direction: dir,
		Step:      step,
		Total:     total,
		Message:   fmt.Sprintf("[%d/%d] %s", step, total, src.Label()),
	}
}

func applyUpdate(dir models.Direction, step, total int, entry models.PlanEntry) ProgressUpdate {
	mark := "✓"
	if entry.Outcome == models.OutcomeFailed {
		mark = "✗"
	}
	return ProgressUpdate{
		Phase:     Apply,
		Direction: dir,
		Step:      step,
		Total:     total,
		Message:   fmt.Sprintf("[%d/%d] %s added %s", step, total, mark, entry.Source.Label()),
		Data:      entry,
	}
}

func persistCacheUpdate(dir models.Direction, playlistID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:     PersistCache,
		Direction: dir,
		Step:      1,
		Total:     1,
		Message:   fmt.Sprintf("Saving sync cache for %s...", playlistID),
	}
}

func syncPairUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SyncPair,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Syncing: %s...", step, total, name),
	}
}

func syncPairCompletedUpdate(step, total int, name string, added int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SyncPair,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d added)", step, total, name, added),
	}
}

func syncPairFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SyncPair,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}
