// package formatter renders plans, caches and run history as terminal tables and writes CSV/JSON reports
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/playsync/internal/models"
	"github.com/desertthunder/playsync/internal/shared"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Report formats accepted by [WritePlanReport].
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// ValidFormat reports whether f is a supported report format.
func ValidFormat(f string) bool {
	return f == FormatCSV || f == FormatJSON
}

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
			WidthMax:    48,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// FormatDuration renders milliseconds as m:ss.
func FormatDuration(ms int64) string {
	total := ms / 1000
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func formatScore(e models.PlanEntry) string {
	if e.Score == 0 {
		return ""
	}
	s := strconv.FormatFloat(e.Score, 'f', 2, 64)
	if e.Escalated {
		s += "*"
	}
	return s
}

func targetLabel(e models.PlanEntry) string {
	if e.Target == nil {
		return ""
	}
	return e.Target.Label()
}

// PlanTable renders a plan with one row per candidate in plan order.
func PlanTable(plan *models.Plan) string {
	headers := []string{"#", "Action", "Source", "Target", "Reason", "Score", "Outcome"}
	rows := make([][]string, 0, len(plan.Entries))
	for i, e := range plan.Entries {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			string(e.Action),
			e.Source.Label(),
			targetLabel(e),
			string(e.Reason),
			formatScore(e),
			string(e.Outcome),
		})
	}
	return renderTable(headers, rows, []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight})
}

// RunsTable renders run records, one per row.
func RunsTable(runs []*models.RunRecord) string {
	headers := []string{"#", "Pair", "Leg", "Source", "Target", "Window", "Added", "Mapped", "Skipped", "Failed", "Started"}
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		seq := ""
		if r.Sequence > 0 {
			seq = strconv.Itoa(r.Sequence)
		}
		leg := string(r.Direction)
		if r.DryRun {
			leg += " (dry)"
		}
		rows = append(rows, []string{
			seq,
			r.Pair,
			leg,
			r.SourcePlaylist,
			r.TargetPlaylist,
			strconv.Itoa(r.Window),
			strconv.Itoa(r.Added),
			strconv.Itoa(r.Mapped),
			strconv.Itoa(r.Skipped),
			strconv.Itoa(r.Failed),
			r.StartedAt.Local().Format(time.DateTime),
		})
	}
	aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight}
	return renderTable(headers, rows, aligns)
}

// CacheTable renders the mappings held by a sync cache, sorted by source ID.
func CacheTable(cache *models.SyncCache) string {
	headers := []string{"Source ID", "Target ID"}
	rows := make([][]string, 0, len(cache.Map))
	for _, src := range slices.Sorted(maps.Keys(cache.Map)) {
		rows = append(rows, []string{src, cache.Map[src]})
	}
	return renderTable(headers, rows, nil)
}

// CacheSummary describes a cache in one line.
func CacheSummary(playlistID string, cache *models.SyncCache) string {
	last := "never"
	if !cache.FirstRun() {
		last = cache.LastSyncTimestamp.Local().Format(time.DateTime)
	}
	return fmt.Sprintf("%s: %d seen, %d mapped, last sync %s", playlistID, len(cache.SeenIDs), len(cache.Map), last)
}

// PairsTable renders configured playlist pairs.
func PairsTable(pairs []shared.PairConfig) string {
	headers := []string{"Name", "Spotify Playlist", "YouTube Playlist"}
	rows := make([][]string, 0, len(pairs))
	for _, p := range pairs {
		rows = append(rows, []string{p.Name, p.SourcePlaylist, p.TargetPlaylist})
	}
	return renderTable(headers, rows, nil)
}

// PlanToCSV converts a plan to CSV with columns: Action, Source ID, Source, Duration, Target ID, Target, Reason, Score, Escalated, Outcome, Error
func PlanToCSV(plan *models.Plan) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Action", "Source ID", "Source", "Duration", "Target ID", "Target", "Reason", "Score", "Escalated", "Outcome", "Error"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, e := range plan.Entries {
		var targetID string
		if e.Target != nil {
			targetID = e.Target.ID
		}
		record := []string{
			string(e.Action),
			e.Source.ID,
			e.Source.Label(),
			FormatDuration(e.Source.DurationMs),
			targetID,
			targetLabel(e),
			string(e.Reason),
			strconv.FormatFloat(e.Score, 'f', 3, 64),
			strconv.FormatBool(e.Escalated),
			string(e.Outcome),
			e.Error,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// PlanToJSON converts a plan to indented JSON.
func PlanToJSON(plan *models.Plan) ([]byte, error) {
	return json.MarshalIndent(plan, "", "  ")
}

// ReportFilename names the report file for a plan: {pair}_{direction}.{format}.
func ReportFilename(pair string, plan *models.Plan, format string) string {
	name := pair
	if name == "" {
		name = plan.SourcePlaylist
	}
	name = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ' ' {
			return '_'
		}
		return r
	}, name)
	return fmt.Sprintf("%s_%s.%s", name, plan.Direction, format)
}

// WritePlanReport writes a plan to path in the given format and returns the path written.
func WritePlanReport(plan *models.Plan, format, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatCSV:
		data, err = PlanToCSV(plan)
	case FormatJSON:
		data, err = PlanToJSON(plan)
	default:
		return "", fmt.Errorf("%w: unsupported report format %q", shared.ErrInvalidArgument, format)
	}
	if err != nil {
		return "", fmt.Errorf("failed to generate report: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

// ManifestEntry summarizes one pair of a batch sync.
type ManifestEntry struct {
	Pair    string   `json:"pair"`
	Success bool     `json:"success"`
	Added   int      `json:"added"`
	Mapped  int      `json:"mapped"`
	Skipped int      `json:"skipped"`
	Failed  int      `json:"failed"`
	Reports []string `json:"reports,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// Manifest summarizes a batch sync over several pairs.
type Manifest struct {
	GeneratedAt time.Time       `json:"generated_at"`
	DryRun      bool            `json:"dry_run"`
	Format      string          `json:"format"`
	Succeeded   int             `json:"succeeded"`
	Failed      int             `json:"failed"`
	Pairs       []ManifestEntry `json:"pairs"`
}

// WriteManifest writes m as indented JSON to path.
func WriteManifest(m *Manifest, path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
