package models

import (
	"errors"
	"time"
)

// RunRecord summarizes one completed reconciliation leg.
type RunRecord struct {
	ID             string
	Sequence       int
	Pair           string
	Direction      Direction
	SourcePlaylist string
	TargetPlaylist string
	DryRun         bool
	Window         int
	Candidates     int
	Added          int
	Mapped         int
	Skipped        int
	Failed         int
	StartedAt      time.Time
	CompletedAt    time.Time
}

// Validate checks the fields required for persistence.
func (r *RunRecord) Validate() error {
	if r.SourcePlaylist == "" || r.TargetPlaylist == "" {
		return errors.New("source and target playlist are required")
	}
	if !r.Direction.Valid() {
		return errors.New("direction must be forward or reverse")
	}
	if r.StartedAt.IsZero() {
		return errors.New("started_at is required")
	}
	return nil
}
