package matching

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playsync/internal/models"
)

// Forward score weights.
const (
	weightChannelTrust  = 2.0
	weightTitleJaccard  = 1.6
	weightArtistAlign   = 1.0
	weightFwdCloseness  = 1.4
	weightContentType   = 0.6
	weightFwdPopularity = 0.4
	musicCategoryBonus  = 0.3

	freshUpload = 30 * 24 * time.Hour
)

var (
	featParenRe      = regexp.MustCompile(`(?i)[(\[]\s*(feat\.?|ft\.?|featuring|with)\s[^)\]]*[)\]]`)
	remasterSuffixRe = regexp.MustCompile(`(?i)\s+-\s+(\d{4}\s+)?remaster(ed)?(\s+\d{4})?(\s+version)?\s*$`)
)

// ForwardMatcher matches a Spotify track against YouTube search hits.
type ForwardMatcher struct {
	searcher Searcher
	slack    time.Duration
	logger   *log.Logger

	// Clock reports the current time for upload-age scoring.
	Clock func() time.Time
}

// NewForwardMatcher creates a matcher with the given duration slack. A non-positive slack uses [DefaultSlack].
func NewForwardMatcher(searcher Searcher, slack time.Duration, logger *log.Logger) *ForwardMatcher {
	if slack <= 0 {
		slack = DefaultSlack
	}
	return &ForwardMatcher{searcher: searcher, slack: slack, logger: orNop(logger), Clock: time.Now}
}

// Match searches for "artist title" once and picks the best surviving candidate.
func (m *ForwardMatcher) Match(ctx context.Context, src models.Item) (models.MatchResult, error) {
	logger := m.logger.With("source", src.Label())
	if IsUnintelligible(src.Artist, src.Title) {
		logger.Debug("unintelligible source, not searching")
		return models.MatchResult{Reason: models.ReasonUnintelligibleQuery}, nil
	}

	hits, err := m.searcher.Search(ctx, joinQuery(src.Artist, src.Title), SearchLimit)
	if err != nil {
		return models.MatchResult{Reason: models.ReasonSearchFailed}, err
	}
	if len(hits) == 0 {
		return models.MatchResult{Reason: models.ReasonNoSearchResults}, nil
	}

	coreTokens := TokenSet(stripFeaturing(src.Title))
	survivors, inspected, escalated := selectPool(hits, func(c models.Item) string {
		return m.reject(src, coreTokens, c)
	}, logger)

	result := models.MatchResult{Inspected: inspected, Escalated: escalated}
	if len(survivors) == 0 {
		result.Reason = models.ReasonNoCandidatePassed
		return result, nil
	}

	var best *models.Item
	bestScore := math.Inf(-1)
	for i := range survivors {
		c := survivors[i]
		s := m.score(src, c)
		logger.Debug("scored candidate", "id", c.ID, "title", c.Title, "score", fmt.Sprintf("%.3f", s))
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

func (m *ForwardMatcher) reject(src models.Item, coreTokens map[string]struct{}, c models.Item) string {
	if d := durationDelta(src, c); d > m.slack {
		return fmt.Sprintf("duration off by %s", d.Round(time.Second))
	}
	if src.Duration() > shortItem && c.Duration() < shortItem {
		return "candidate shorter than a minute"
	}
	if marker, bad := ViolatesVersionRules(src.Title, c.Title, c.Description); bad {
		return "version marker " + marker
	}
	if !artistAligned(src.Artist, c) {
		return "artist not in title or channel"
	}
	if !covers(TokenSet(c.Title), coreTokens) {
		return "title tokens not covered"
	}
	return ""
}

func (m *ForwardMatcher) score(src models.Item, c models.Item) float64 {
	s := channelTrust(c.Channel, src.Artist) * weightChannelTrust
	s += Jaccard(stripFeaturing(src.Title), c.Title) * weightTitleJaccard
	s += artistAlignment(src.Artist, c) * weightArtistAlign
	s += closeness(durationDelta(src, c), m.slack) * weightFwdCloseness
	if officialContent(c) {
		s += weightContentType
	}
	s += viewPopularity(c, m.Clock()) * weightFwdPopularity
	if c.CategoryID == models.MusicCategoryID {
		s += musicCategoryBonus
	}
	return s
}

// stripFeaturing removes "(feat. X)" and "(with X)" groups and a trailing "- Remastered 2011" from a title.
func stripFeaturing(title string) string {
	title = remasterSuffixRe.ReplaceAllString(title, "")
	return strings.TrimSpace(featParenRe.ReplaceAllString(title, " "))
}

func isTopic(channel string) bool {
	return topicSuffixRe.MatchString(strings.TrimSpace(channel))
}

// channelTrust ranks how strongly a channel belongs to artist: exact 1.0, "Artist - Topic" 0.85,
// "ArtistVEVO" 0.7, containment 0.5.
func channelTrust(channel, artist string) float64 {
	ch, a := Compact(channel), Compact(artist)
	if ch == "" || a == "" {
		return 0
	}
	switch {
	case ch == a:
		return 1.0
	case isTopic(channel) && Compact(topicSuffixRe.ReplaceAllString(channel, "")) == a:
		return 0.85
	case ch == a+"vevo":
		return 0.7
	case strings.Contains(ch, a):
		return 0.5
	}
	return 0
}

func artistInTitle(artist, title string) bool {
	a := Compact(artist)
	return a != "" && strings.Contains(Compact(title), a)
}

func artistAligned(artist string, c models.Item) bool {
	if Compact(artist) == "" {
		return true
	}
	return artistInTitle(artist, c.Title) || channelTrust(c.Channel, artist) > 0
}

// artistAlignment is 1 when the artist appears in the title or the channel, 0 otherwise.
func artistAlignment(artist string, c models.Item) float64 {
	if artistAligned(artist, c) {
		return 1
	}
	return 0
}

func officialContent(c models.Item) bool {
	t := strings.ToLower(c.Title)
	return strings.Contains(t, "official audio") || strings.Contains(t, "official video") || isTopic(c.Channel)
}

// viewPopularity is log10(1+views)/10 capped at 1, halved for uploads younger than thirty days.
func viewPopularity(c models.Item, now time.Time) float64 {
	p := min(1, math.Log10(1+float64(c.ViewCount))/10)
	if !c.PublishedAt.IsZero() && now.Sub(c.PublishedAt) < freshUpload {
		p /= 2
	}
	return p
}
