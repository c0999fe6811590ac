package matching

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	officialBracketRe = regexp.MustCompile(`[(\[][^)\]]*\bofficial\b[^)\]]*[)\]]`)
	markerWordRe      = regexp.MustCompile(`\b(official\s+(music\s+)?video|official\s+audio|lyrics|mv|hd|4k|remastered|remaster)\b`)
	whitespaceRe      = regexp.MustCompile(`\s+`)
)

// stopwords never count as tokens.
var stopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "of": {}, "to": {}, "in": {}, "on": {}, "for": {},
	"with": {}, "by": {}, "feat": {}, "ft": {}, "vs": {}, "x": {}, "remix": {}, "edit": {},
}

const minTokenLen = 3

// foldDiacritics decomposes and drops combining marks so "Beyoncé" and "Beyonce" compare equal.
func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// keepAlnum maps every rune that is not a letter, digit or space to repl (or drops it when repl is -1).
func keepAlnum(s string, repl rune) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return repl
	}, s)
}

func collapse(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// Normalize lowercases text, removes "official" bracket groups and presentation markers
// (official video/audio, lyrics, mv, hd, 4k, remaster), folds diacritics and strips punctuation.
func Normalize(text string) string {
	s := foldDiacritics(strings.ToLower(text))
	s = officialBracketRe.ReplaceAllString(s, " ")
	s = markerWordRe.ReplaceAllString(s, " ")
	s = keepAlnum(s, -1)
	return collapse(s)
}

// Fold lowercases text, folds diacritics and turns punctuation into spaces. Unlike [Normalize]
// it keeps marker words, so classifiers can still see them.
func Fold(text string) string {
	s := foldDiacritics(strings.ToLower(text))
	return collapse(keepAlnum(s, ' '))
}

// Compact returns the normalized text with all spaces removed; "Daft Punk" and "DaftPunk" share one compact form.
func Compact(text string) string {
	return strings.ReplaceAll(Normalize(text), " ", "")
}

// Tokenize returns the significant words of text in order: normalized, at least three
// characters long and not a stopword.
func Tokenize(text string) []string {
	var tokens []string
	for _, w := range strings.Fields(Normalize(text)) {
		if len([]rune(w)) < minTokenLen {
			continue
		}
		if _, stop := stopwords[w]; stop {
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}

// TokenSet is the set form of [Tokenize].
func TokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range Tokenize(text) {
		set[t] = struct{}{}
	}
	return set
}

// Jaccard returns the token-set similarity of a and b. Two texts without any tokens are identical.
func Jaccard(a, b string) float64 {
	return jaccardSets(TokenSet(a), TokenSet(b))
}

func jaccardSets(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	inter := 0
	for k := range a {
		if _, ok := b[k]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// covers reports whether every token of want is present in have.
func covers(have, want map[string]struct{}) bool {
	for k := range want {
		if _, ok := have[k]; !ok {
			return false
		}
	}
	return true
}

func sameSet(a, b map[string]struct{}) bool {
	return len(a) == len(b) && covers(a, b)
}

// IsUnintelligible reports whether the joined parts carry too little text to search for.
//
// Text is intelligible when at least one token survives [Tokenize], or when the normalized
// form still holds two or more letters or digits (short names like "U2").
func IsUnintelligible(parts ...string) bool {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	joined := strings.Join(kept, " ")
	if len(Tokenize(joined)) > 0 {
		return false
	}

	n := 0
	for _, r := range Normalize(joined) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			n++
		}
	}
	return n < 2
}
