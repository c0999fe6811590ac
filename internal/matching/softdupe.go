package matching

import (
	"strings"
	"time"

	"github.com/desertthunder/playsync/internal/models"
)

const (
	softDupeMinTolerance = 12 * time.Second
	softDupeTolerancePct = 0.04
	softDupeMinJaccard   = 0.45
)

// SourceKey returns the artist and title used to compare an item across catalogs. Items
// without an artist field are parsed with [ResolveOrientation].
func SourceKey(item models.Item) (artist, title string) {
	if item.Artist != "" {
		return item.Artist, stripFeaturing(item.Title)
	}
	o := ResolveOrientation(item.Title, item.Channel)
	return o.Artist, o.TitleCore
}

// FindSoftDuplicate looks for an entry of dest that is already close enough to src to be
// mapped without searching: duration within max(12s, 4%), loose artist containment and title
// Jaccard of at least 0.45. The first hit in destination order is returned.
func FindSoftDuplicate(src models.Item, dest []models.Item) (*models.Item, bool) {
	artist, title := SourceKey(src)
	tolerance := max(softDupeMinTolerance, time.Duration(float64(src.Duration())*softDupeTolerancePct))
	titleTokens := TokenSet(title)

	for i := range dest {
		d := dest[i]
		if durationDelta(src, d) > tolerance {
			continue
		}
		if !looseArtistMatch(artist, d) {
			continue
		}
		if jaccardSets(titleTokens, TokenSet(d.Title)) < softDupeMinJaccard {
			continue
		}
		return &d, true
	}
	return nil, false
}

// looseArtistMatch checks containment in either direction against the destination's artist,
// channel and title. An unknown artist does not constrain.
func looseArtistMatch(artist string, d models.Item) bool {
	a := Compact(artist)
	if a == "" {
		return true
	}
	for _, field := range []string{d.Artist, d.Channel, d.Title} {
		h := Compact(field)
		if h == "" {
			continue
		}
		if strings.Contains(h, a) || strings.Contains(a, h) {
			return true
		}
	}
	return false
}
