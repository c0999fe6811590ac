package models

// Action is the decision recorded for one candidate.
type Action string

const (
	ActionAdd     Action = "add"
	ActionMapOnly Action = "map-only"
	ActionSkip    Action = "skip"
)

// Outcome is what happened to a plan entry when the plan was applied.
type Outcome string

const (
	OutcomePending Outcome = "pending"
	OutcomeApplied Outcome = "applied"
	OutcomeFailed  Outcome = "failed"
	OutcomeDryRun  Outcome = "dry-run"
	OutcomeSkipped Outcome = "skipped"
)

// PlanEntry is the decision for one source candidate.
type PlanEntry struct {
	Action    Action  `json:"action"`
	Source    Item    `json:"source"`
	Target    *Item   `json:"target,omitempty"`
	Reason    Reason  `json:"reason,omitempty"`
	Score     float64 `json:"score,omitempty"`
	Escalated bool    `json:"escalated,omitempty"`
	Outcome   Outcome `json:"outcome"`
	Error     string  `json:"error,omitempty"`
}

// Plan holds entries in candidate order (newest source addition first).
type Plan struct {
	Direction      Direction   `json:"direction"`
	SourcePlaylist string      `json:"source_playlist"`
	TargetPlaylist string      `json:"target_playlist"`
	Entries        []PlanEntry `json:"entries"`
}

// Count returns the number of entries with the given action.
func (p *Plan) Count(a Action) int {
	n := 0
	for _, e := range p.Entries {
		if e.Action == a {
			n++
		}
	}
	return n
}

// AdditionOrder returns the indexes of add entries in apply order: reverse plan order, so the
// oldest source addition is appended to the destination first.
func (p *Plan) AdditionOrder() []int {
	var idx []int
	for i := len(p.Entries) - 1; i >= 0; i-- {
		if p.Entries[i].Action == ActionAdd {
			idx = append(idx, i)
		}
	}
	return idx
}
