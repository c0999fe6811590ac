package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desertthunder/playsync/internal/models"
	"github.com/desertthunder/playsync/internal/shared"
)

// RunCriteria narrows [RunRepository.List].
type RunCriteria struct {
	Pair           string
	SourcePlaylist string
	Limit          int
}

// RunRepository persists one [models.RunRecord] per completed reconciliation leg.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Record inserts run with a generated ID and sequence.
func (r *RunRepository) Record(ctx context.Context, run *models.RunRecord) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "sync_runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	run.ID = shared.GenerateID()
	run.Sequence = sequence

	query := `
		INSERT INTO sync_runs (
			id, sequence, pair, direction, source_playlist, target_playlist,
			dry_run, window_size, candidates, added, mapped, skipped, failed,
			started_at, completed_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		run.ID,
		run.Sequence,
		run.Pair,
		string(run.Direction),
		run.SourcePlaylist,
		run.TargetPlaylist,
		run.DryRun,
		run.Window,
		run.Candidates,
		run.Added,
		run.Mapped,
		run.Skipped,
		run.Failed,
		run.StartedAt,
		run.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// Get retrieves a run by ID.
func (r *RunRepository) Get(ctx context.Context, id string) (*models.RunRecord, error) {
	query := runColumns + ` WHERE id = ?`
	run, err := scanRun(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	return run, nil
}

// List returns runs matching criteria, newest first.
func (r *RunRepository) List(ctx context.Context, criteria RunCriteria) ([]*models.RunRecord, error) {
	query := runColumns + ` WHERE 1 = 1`
	args := []any{}

	if criteria.Pair != "" {
		query += " AND pair = ?"
		args = append(args, criteria.Pair)
	}
	if criteria.SourcePlaylist != "" {
		query += " AND source_playlist = ?"
		args = append(args, criteria.SourcePlaylist)
	}

	query += " ORDER BY sequence DESC"
	if criteria.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, criteria.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return runs, nil
}

const runColumns = `
	SELECT
		id, sequence, pair, direction, source_playlist, target_playlist,
		dry_run, window_size, candidates, added, mapped, skipped, failed,
		started_at, completed_at
	FROM sync_runs`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*models.RunRecord, error) {
	var (
		run       models.RunRecord
		direction string
	)
	err := row.Scan(
		&run.ID, &run.Sequence, &run.Pair, &direction, &run.SourcePlaylist, &run.TargetPlaylist,
		&run.DryRun, &run.Window, &run.Candidates, &run.Added, &run.Mapped, &run.Skipped, &run.Failed,
		&run.StartedAt, &run.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	run.Direction = models.Direction(direction)
	return &run, nil
}
