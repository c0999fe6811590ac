package matching

import (
	"regexp"
	"strings"
)

// Orientation records which side of a "left - right" title was taken as the artist.
type Orientation string

const (
	ArtistTitle Orientation = "artist-title"
	TitleArtist Orientation = "title-artist"
	Unsplit     Orientation = "unsplit"
)

// Rule names the step of the resolution chain that decided the orientation.
type Rule string

const (
	RuleChannel    Rule = "channel"
	RuleMarker     Rule = "marker"
	RuleTokenCount Rule = "token-count"
	RuleDefault    Rule = "default"
	RuleNoDash     Rule = "no-dash"
)

// Resolved is the result of [ResolveOrientation].
type Resolved struct {
	Artist      string
	TitleCore   string
	Trusted     bool
	Orientation Orientation
	Rule        Rule
}

var (
	spacedDashRe   = regexp.MustCompile(`\s+[-–—]\s+`)
	topicSuffixRe  = regexp.MustCompile(`(?i)\s*-\s*topic$`)
	vevoSuffixRe   = regexp.MustCompile(`(?i)\s*vevo$`)
	collabMarkerRe = regexp.MustCompile(`\b(feat|ft|with|x)\b`)
	bracketGroupRe = regexp.MustCompile(`\([^)]*\)|\[[^\]]*\]`)
)

// ChannelArtist derives an artist name from a channel title. "X - Topic" and "XVEVO" channels are
// auto-generated or label-run and yield trusted=true; other channels are returned as-is with
// trusted=false. "Various Artists" never names an artist.
func ChannelArtist(channel string) (artist string, trusted bool) {
	channel = strings.TrimSpace(channel)
	switch {
	case channel == "":
		return "", false
	case topicSuffixRe.MatchString(channel):
		artist, trusted = topicSuffixRe.ReplaceAllString(channel, ""), true
	case vevoSuffixRe.MatchString(channel) && !strings.EqualFold(channel, "vevo"):
		artist, trusted = vevoSuffixRe.ReplaceAllString(channel, ""), true
	default:
		artist = channel
	}

	if Compact(artist) == "variousartists" {
		return "", false
	}
	return strings.TrimSpace(artist), trusted
}

// overlaps reports whether side and artist share a token or one's compact form contains the other's.
func overlaps(side, artist string) bool {
	cs, ca := Compact(side), Compact(artist)
	if len(cs) < 2 || len(ca) < 2 {
		return false
	}
	if strings.Contains(cs, ca) || strings.Contains(ca, cs) {
		return true
	}
	st, at := TokenSet(side), TokenSet(artist)
	for k := range st {
		if _, ok := at[k]; ok {
			return true
		}
	}
	return false
}

// hasCollabMarker ignores bracketed text, where "(feat. X)" decorates a song title.
func hasCollabMarker(side string) bool {
	s := bracketGroupRe.ReplaceAllString(strings.ToLower(side), " ")
	return strings.ContainsAny(s, "&,") || collabMarkerRe.MatchString(Fold(s))
}

// ResolveOrientation splits a target-catalog title into artist and core title.
//
// The title is split on the first spaced dash. The first rule that decides wins:
//  1. channel: exactly one side overlaps the artist derived from the channel; trusted only for
//     "- Topic" and VEVO channels
//  2. marker: exactly one side carries a collaboration marker (&, feat, ft, with, x, comma)
//  3. token count: the side with fewer words
//  4. default: the left side
//
// Titles without a dash keep the whole title as the core, with the channel artist only when the
// channel is trusted.
func ResolveOrientation(title, channel string) Resolved {
	chArtist, chTrusted := ChannelArtist(channel)

	loc := spacedDashRe.FindStringIndex(title)
	var left, right string
	if loc != nil {
		left, right = strings.TrimSpace(title[:loc[0]]), strings.TrimSpace(title[loc[1]:])
	}
	if loc == nil || left == "" || right == "" {
		r := Resolved{TitleCore: strings.TrimSpace(title), Orientation: Unsplit, Rule: RuleNoDash}
		if chTrusted {
			r.Artist, r.Trusted = chArtist, true
		}
		return r
	}

	artistLeft := func(rule Rule, trusted bool) Resolved {
		return Resolved{Artist: left, TitleCore: right, Trusted: trusted, Orientation: ArtistTitle, Rule: rule}
	}
	artistRight := func(rule Rule, trusted bool) Resolved {
		return Resolved{Artist: right, TitleCore: left, Trusted: trusted, Orientation: TitleArtist, Rule: rule}
	}

	if chArtist != "" {
		l, r := overlaps(left, chArtist), overlaps(right, chArtist)
		switch {
		case l && !r:
			return artistLeft(RuleChannel, chTrusted)
		case r && !l:
			return artistRight(RuleChannel, chTrusted)
		}
	}

	if l, r := hasCollabMarker(left), hasCollabMarker(right); l != r {
		if l {
			return artistLeft(RuleMarker, false)
		}
		return artistRight(RuleMarker, false)
	}

	if nl, nr := len(strings.Fields(Normalize(left))), len(strings.Fields(Normalize(right))); nl != nr {
		if nl < nr {
			return artistLeft(RuleTokenCount, false)
		}
		return artistRight(RuleTokenCount, false)
	}

	return artistLeft(RuleDefault, false)
}
