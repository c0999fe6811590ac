package matching

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playsync/internal/models"
)

// Reverse score weights.
const (
	weightRevJaccard    = 1.6
	weightRevCloseness  = 1.6
	weightRevArtist     = 1.0
	weightRevPopularity = 0.6
	musicVideoBonus     = 0.3
)

// ReverseMatcher matches a YouTube video against Spotify search hits.
type ReverseMatcher struct {
	searcher Searcher
	slack    time.Duration
	logger   *log.Logger
}

// NewReverseMatcher creates a matcher with the given duration slack. A non-positive slack uses [DefaultSlack].
func NewReverseMatcher(searcher Searcher, slack time.Duration, logger *log.Logger) *ReverseMatcher {
	if slack <= 0 {
		slack = DefaultSlack
	}
	return &ReverseMatcher{searcher: searcher, slack: slack, logger: orNop(logger)}
}

// Match resolves the video's artist/title orientation, searches with up to two queries and picks
// the best surviving candidate. A candidate whose tokens equal the core title's wins outright.
func (m *ReverseMatcher) Match(ctx context.Context, src models.Item) (models.MatchResult, error) {
	o := ResolveOrientation(src.Title, src.Channel)
	logger := m.logger.With("source", src.Label())
	logger.Debug("resolved orientation", "artist", o.Artist, "title", o.TitleCore, "rule", o.Rule, "trusted", o.Trusted)

	if IsUnintelligible(o.Artist, o.TitleCore) {
		logger.Debug("unintelligible source, not searching")
		return models.MatchResult{Reason: models.ReasonUnintelligibleQuery}, nil
	}

	core := searchText(o.TitleCore)
	var queries []string
	if o.Trusted && o.Artist != "" {
		queries = append(queries, joinQuery(searchText(o.Artist), core))
	}
	queries = append(queries, core)

	hits, err := m.searchAll(ctx, queries)
	if err != nil {
		return models.MatchResult{Reason: models.ReasonSearchFailed}, err
	}
	if len(hits) == 0 {
		return models.MatchResult{Reason: models.ReasonNoSearchResults}, nil
	}

	coreTokens := TokenSet(o.TitleCore)
	survivors, inspected, escalated := selectPool(hits, func(c models.Item) string {
		return m.reject(src, o, coreTokens, c)
	}, logger)

	result := models.MatchResult{Inspected: inspected, Escalated: escalated}
	if len(survivors) == 0 {
		result.Reason = models.ReasonNoCandidatePassed
		return result, nil
	}

	if best, s, ok := m.exactMatch(src, coreTokens, survivors); ok {
		logger.Debug("exact title match", "id", best.ID, "title", best.Title)
		result.Best, result.Score, result.Reason = best, s, models.ReasonOK
		return result, nil
	}

	var best *models.Item
	bestScore := math.Inf(-1)
	for i := range survivors {
		c := survivors[i]
		s := m.score(src, o, c)
		logger.Debug("scored candidate", "id", c.ID, "title", c.Title, "artist", c.Artist, "score", fmt.Sprintf("%.3f", s))
		if s > bestScore {
			best, bestScore = &c, s
		}
	}
	if best == nil {
		result.Reason = models.ReasonNoBest
		return result, nil
	}

	result.Best, result.Score, result.Reason = best, bestScore, models.ReasonOK
	return result, nil
}

// searchAll runs every query and merges the hits by ID in first-seen order.
func (m *ReverseMatcher) searchAll(ctx context.Context, queries []string) ([]models.Item, error) {
	seen := make(map[string]bool)
	var merged []models.Item
	for _, q := range queries {
		hits, err := m.searcher.Search(ctx, q, SearchLimit)
		if err != nil {
			return nil, err
		}
		for _, h := range hits {
			if seen[h.ID] {
				continue
			}
			seen[h.ID] = true
			merged = append(merged, h)
		}
	}
	return merged, nil
}

func (m *ReverseMatcher) reject(src models.Item, o Resolved, coreTokens map[string]struct{}, c models.Item) string {
	if d := durationDelta(src, c); d > m.slack {
		return fmt.Sprintf("duration off by %s", d.Round(time.Second))
	}
	if marker, bad := ViolatesVersionRules(src.Title, c.Title, ""); bad {
		return "version marker " + marker
	}
	if marker, missing := MissingSourceVariant(src.Title, c.Title); missing {
		return "candidate lacks " + marker
	}
	if o.Trusted && !IsMusicVideo(c.Title) && !overlaps(c.Artist, o.Artist) {
		return "artist does not overlap"
	}
	if !covers(TokenSet(c.Title), coreTokens) {
		return "title tokens not covered"
	}
	return ""
}

// exactMatch picks, among non-music-video survivors whose token set equals the core title's,
// the one with the highest closeness + popularity/200.
func (m *ReverseMatcher) exactMatch(src models.Item, coreTokens map[string]struct{}, survivors []models.Item) (*models.Item, float64, bool) {
	var best *models.Item
	bestScore := math.Inf(-1)
	for i := range survivors {
		c := survivors[i]
		if IsMusicVideo(c.Title) || !sameSet(TokenSet(c.Title), coreTokens) {
			continue
		}
		s := closeness(durationDelta(src, c), m.slack) + float64(c.Popularity)/200
		if s > bestScore {
			best, bestScore = &c, s
		}
	}
	return best, bestScore, best != nil
}

func (m *ReverseMatcher) score(src models.Item, o Resolved, c models.Item) float64 {
	mv := IsMusicVideo(c.Title)
	s := Jaccard(o.TitleCore, c.Title) * weightRevJaccard
	s += closeness(durationDelta(src, c), m.slack) * weightRevCloseness
	if o.Trusted && !mv && overlaps(c.Artist, o.Artist) {
		s += weightRevArtist
	}
	s += float64(c.Popularity) / 100 * weightRevPopularity
	if mv {
		s += musicVideoBonus
	}
	return s
}

// searchText cleans a title fragment for use in a query, falling back to the raw text.
func searchText(s string) string {
	if n := Normalize(s); n != "" {
		return n
	}
	return strings.TrimSpace(s)
}
