package models

// Reason is the closed failure taxonomy for a single match attempt, plus the
// orchestrator-level skip reasons.
type Reason string

const (
	ReasonOK                  Reason = "ok"
	ReasonNoSearchResults     Reason = "no_search_results"
	ReasonNoCandidatePassed   Reason = "no_candidate_passed_filters"
	ReasonNoBest              Reason = "no_best"
	ReasonUnintelligibleQuery Reason = "unintelligible_query"
	ReasonAlreadyMapped       Reason = "already_mapped"
	ReasonSearchFailed        Reason = "search_failed"
)

// MatchResult is produced fresh by every match attempt and never persisted.
type MatchResult struct {
	Best      *Item   `json:"best,omitempty"`
	Reason    Reason  `json:"reason"`
	Inspected int     `json:"inspected"` // size of the final candidate pool
	Escalated bool    `json:"escalated"`
	Score     float64 `json:"score,omitempty"`
}

// Matched reports whether the attempt selected a candidate.
func (r MatchResult) Matched() bool {
	return r.Best != nil && r.Reason == ReasonOK
}
