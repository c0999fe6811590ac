package matching

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playsync/internal/models"
	"github.com/desertthunder/playsync/internal/shared"
)

// Searcher runs a free-text query against the catalog that candidates come from.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]models.Item, error)
}

// Matcher finds the counterpart of a source item among search hits.
//
// A returned error means the search itself failed; every other outcome, including "nothing
// found", is reported through [models.MatchResult.Reason].
type Matcher interface {
	Match(ctx context.Context, src models.Item) (models.MatchResult, error)
}

const (
	// DefaultSlack is the default duration tolerance for a match.
	DefaultSlack = 7 * time.Second

	// SearchLimit is the number of hits requested per query.
	SearchLimit = 10

	initialPool   = 5
	escalatedPool = 10
	shortItem     = 60 * time.Second
)

// filterFunc returns an empty string for a passing candidate, or the rejection reason.
type filterFunc func(c models.Item) string

// selectPool filters the first five hits and, when none survive, escalates once to the first ten.
func selectPool(hits []models.Item, filter filterFunc, logger *log.Logger) (survivors []models.Item, inspected int, escalated bool) {
	run := func(pool []models.Item) []models.Item {
		var out []models.Item
		for _, c := range pool {
			if why := filter(c); why != "" {
				logger.Debug("rejected candidate", "id", c.ID, "title", c.Title, "channel", c.Channel, "reason", why)
				continue
			}
			out = append(out, c)
		}
		return out
	}

	pool := hits[:min(initialPool, len(hits))]
	if survivors = run(pool); len(survivors) > 0 {
		return survivors, len(pool), false
	}

	pool = hits[:min(escalatedPool, len(hits))]
	logger.Debug("escalating candidate pool", "size", len(pool))
	return run(pool), len(pool), true
}

func durationDelta(a, b models.Item) time.Duration {
	d := a.Duration() - b.Duration()
	if d < 0 {
		return -d
	}
	return d
}

// closeness maps a duration difference onto [0, 1]: 1 for identical, 0 at or beyond slack.
func closeness(delta, slack time.Duration) float64 {
	if slack <= 0 {
		if delta == 0 {
			return 1
		}
		return 0
	}
	return max(0, 1-float64(delta)/float64(slack))
}

func orNop(logger *log.Logger) *log.Logger {
	if logger == nil {
		return shared.NewNopLogger()
	}
	return logger
}

func joinQuery(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
