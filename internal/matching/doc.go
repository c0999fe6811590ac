// Package matching decides whether an entry in one music catalog is the "same" entry as a search
// hit in another, using only metadata.
//
// The pipeline for a single item is: normalize and tokenize text ([Normalize], [Tokenize]),
// reject candidates with hard filters (duration, version markers, artist alignment, title
// coverage), then rank the survivors with a weighted score. Two matchers exist because the
// catalogs are asymmetric: Spotify items carry a clean artist field ([ForwardMatcher]), while
// YouTube items pack artist and title into one string whose orientation has to be guessed
// first ([ResolveOrientation], [ReverseMatcher]).
//
// [FindSoftDuplicate] runs before any search and short-circuits items that already have a
// close counterpart in the destination playlist.
package matching
