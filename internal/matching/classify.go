package matching

import (
	"regexp"
	"strings"
)

// VersionFlags marks which recording variants a title advertises.
type VersionFlags struct {
	Live      bool
	Remix     bool
	Acoustic  bool
	Lyric     bool
	Remaster  bool
	Clean     bool
	Explicit  bool
	RadioEdit bool
}

type marker struct {
	name string
	re   *regexp.Regexp
}

func wordRe(alternatives string) *regexp.Regexp {
	return regexp.MustCompile(`\b(` + alternatives + `)\b`)
}

// versionMarkers are variants a candidate may only carry when the source does too.
var versionMarkers = []marker{
	{"live", wordRe(`live|live at|live from|unplugged live`)},
	{"remix", wordRe(`remix|remixed|rmx`)},
	{"acoustic", wordRe(`acoustic|unplugged`)},
	{"remaster", wordRe(`remaster|remastered`)},
	{"clean", wordRe(`clean|clean version`)},
	{"explicit", wordRe(`explicit`)},
	{"radio edit", wordRe(`radio edit|radio version|radio mix`)},
	{"lyric", wordRe(`lyrics|lyric|lyric video`)},
}

// disallowedMarkers are derivative uploads that never stand in for the original.
var disallowedMarkers = []marker{
	{"cover", wordRe(`cover|covered by`)},
	{"karaoke", wordRe(`karaoke|instrumental karaoke`)},
	{"sped up", wordRe(`sped up|speed up`)},
	{"nightcore", wordRe(`nightcore`)},
	{"slowed", wordRe(`slowed`)},
	{"8d", wordRe(`8d|8d audio`)},
	{"loop", wordRe(`loop|looped`)},
	{"extended", wordRe(`extended`)},
	{"reaction", wordRe(`reaction|reacts`)},
	{"compilation", wordRe(`compilation`)},
	{"full album", wordRe(`full album`)},
	{"tribute", wordRe(`tribute`)},
	{"fan made", wordRe(`fan made|fanmade`)},
	{"reverb", wordRe(`reverb`)},
	{"bass boosted", wordRe(`bass boosted|bassboosted`)},
	{"mix", wordRe(`mix`)},
	{"edit", wordRe(`edit`)},
}

var musicVideoRe = wordRe(`music video|official video|video edit`)

// Flags classifies text by the variant markers it contains.
func Flags(text string) VersionFlags {
	s := Fold(text)
	var f VersionFlags
	for _, m := range versionMarkers {
		if !m.re.MatchString(s) {
			continue
		}
		switch m.name {
		case "live":
			f.Live = true
		case "remix":
			f.Remix = true
		case "acoustic":
			f.Acoustic = true
		case "remaster":
			f.Remaster = true
		case "clean":
			f.Clean = true
		case "explicit":
			f.Explicit = true
		case "radio edit":
			f.RadioEdit = true
		case "lyric":
			f.Lyric = true
		}
	}
	return f
}

// firstLine returns the first non-empty line of s.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

// ViolatesVersionRules reports the first marker that the candidate carries and the source title
// does not. Variant markers are looked for in the candidate title and the first line of its
// description; derivative markers (covers, nightcore, sped up, ...) in the title only.
func ViolatesVersionRules(sourceTitle, candidateTitle, candidateDescription string) (string, bool) {
	src := Fold(sourceTitle)
	title := Fold(candidateTitle)
	withDesc := title
	if line := firstLine(candidateDescription); line != "" {
		withDesc = title + " " + Fold(line)
	}

	for _, m := range disallowedMarkers {
		if m.re.MatchString(title) && !m.re.MatchString(src) {
			return m.name, true
		}
	}
	for _, m := range versionMarkers {
		if m.re.MatchString(withDesc) && !m.re.MatchString(src) {
			return m.name, true
		}
	}
	return "", false
}

// MissingSourceVariant reports a variant marker that the source title carries and the candidate
// title lacks. The source is classified after [Normalize], so presentation words it strips
// ("lyrics", "remaster") are never required of the candidate.
func MissingSourceVariant(sourceTitle, candidateTitle string) (string, bool) {
	src, cand := Flags(Normalize(sourceTitle)), Flags(candidateTitle)
	switch {
	case src.Live && !cand.Live:
		return "live", true
	case src.Remix && !cand.Remix:
		return "remix", true
	case src.Acoustic && !cand.Acoustic:
		return "acoustic", true
	case src.Lyric && !cand.Lyric:
		return "lyric", true
	case src.Remaster && !cand.Remaster:
		return "remaster", true
	}
	return "", false
}

// IsMusicVideo reports whether title presents itself as a music video upload.
func IsMusicVideo(title string) bool {
	return musicVideoRe.MatchString(Fold(title))
}
