package formatter

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/playsync/internal/models"
	"github.com/desertthunder/playsync/internal/shared"
	th "github.com/desertthunder/playsync/internal/testing"
)

func samplePlan() *models.Plan {
	return &models.Plan{
		Direction:      models.Forward,
		SourcePlaylist: "sp-list",
		TargetPlaylist: "yt-list",
		Entries: []models.PlanEntry{
			{
				Action:    models.ActionAdd,
				Source:    models.Item{ID: "sp1", Title: "Song One", Artist: "Artist One", DurationMs: 185000},
				Target:    &models.Item{ID: "yt1", Title: "Song One", Channel: "Artist One - Topic"},
				Reason:    models.ReasonOK,
				Score:     6.25,
				Escalated: true,
				Outcome:   models.OutcomeApplied,
			},
			{
				Action:  models.ActionSkip,
				Source:  models.Item{ID: "sp2", Title: "Song, Two", Artist: "Artist Two", DurationMs: 61000},
				Reason:  models.ReasonNoSearchResults,
				Outcome: models.OutcomeSkipped,
			},
		},
	}
}

func TestTables(t *testing.T) {
	t.Run("PlanTable", func(t *testing.T) {
		out := PlanTable(samplePlan())

		for _, want := range []string{"Action", "Artist One - Song One", "Artist One - Topic - Song One", "no_search_results", "6.25*", "skipped"} {
			if !strings.Contains(out, want) {
				t.Errorf("plan table missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("PlanTable empty", func(t *testing.T) {
		out := PlanTable(&models.Plan{})
		if !strings.Contains(out, "Outcome") {
			t.Errorf("expected header row, got:\n%s", out)
		}
	})

	t.Run("RunsTable", func(t *testing.T) {
		runs := []*models.RunRecord{
			{Sequence: 3, Pair: "daily", Direction: models.Reverse, SourcePlaylist: "yt", TargetPlaylist: "sp", Window: 12, Added: 1, DryRun: true, StartedAt: time.Now()},
		}
		out := RunsTable(runs)
		for _, want := range []string{"daily", "reverse (dry)", "12"} {
			if !strings.Contains(out, want) {
				t.Errorf("runs table missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("CacheTable and summary", func(t *testing.T) {
		cache := models.NewSyncCache()
		cache.MarkSeen("b", "a")
		cache.SetMapping("b", "y")
		cache.SetMapping("a", "x")

		out := CacheTable(cache)
		if strings.Index(out, " a ") > strings.Index(out, " b ") {
			t.Errorf("expected mappings sorted by source ID:\n%s", out)
		}

		summary := CacheSummary("PL1", cache)
		if summary != "PL1: 2 seen, 2 mapped, last sync never" {
			t.Errorf("unexpected summary %q", summary)
		}
	})

	t.Run("PairsTable", func(t *testing.T) {
		out := PairsTable([]shared.PairConfig{{Name: "daily", SourcePlaylist: "sp", TargetPlaylist: "yt"}})
		if !strings.Contains(out, "daily") || !strings.Contains(out, "YouTube Playlist") {
			t.Errorf("unexpected pairs table:\n%s", out)
		}
	})
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		ms   int64
		want string
	}{
		{0, "0:00"},
		{61000, "1:01"},
		{185999, "3:05"},
		{3600000, "60:00"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.ms); got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}

func TestReports(t *testing.T) {
	t.Run("PlanToCSV", func(t *testing.T) {
		data, err := PlanToCSV(samplePlan())
		if err != nil {
			t.Fatalf("PlanToCSV failed: %v", err)
		}

		records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
		if err != nil {
			t.Fatalf("failed to parse CSV: %v", err)
		}
		if len(records) != 3 {
			t.Fatalf("expected header and 2 rows, got %d", len(records))
		}
		if records[0][0] != "Action" {
			t.Errorf("CSV missing headers, got: %v", records[0])
		}
		if records[1][4] != "yt1" || records[1][8] != "true" {
			t.Errorf("unexpected add row: %v", records[1])
		}
		if records[2][2] != "Artist Two - Song, Two" || records[2][4] != "" {
			t.Errorf("unexpected skip row: %v", records[2])
		}
	})

	t.Run("PlanToJSON", func(t *testing.T) {
		data, err := PlanToJSON(samplePlan())
		if err != nil {
			t.Fatalf("PlanToJSON failed: %v", err)
		}

		var decoded models.Plan
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded.Direction != models.Forward || len(decoded.Entries) != 2 {
			t.Errorf("unexpected decoded plan: %+v", decoded)
		}
		if decoded.Entries[1].Target != nil {
			t.Error("skip entry should not carry a target")
		}
	})

	t.Run("ReportFilename", func(t *testing.T) {
		plan := samplePlan()
		if got := ReportFilename("my pair", plan, FormatCSV); got != "my_pair_forward.csv" {
			t.Errorf("unexpected filename %q", got)
		}
		if got := ReportFilename("", plan, FormatJSON); got != "sp-list_forward.json" {
			t.Errorf("unexpected filename %q", got)
		}
	})
}

func TestWriters(t *testing.T) {
	t.Run("WritePlanReport", func(t *testing.T) {
		for _, format := range []string{FormatCSV, FormatJSON} {
			t.Run(format, func(t *testing.T) {
				path := filepath.Join(t.TempDir(), "reports", "plan."+format)

				written, err := WritePlanReport(samplePlan(), format, path)
				if err != nil {
					t.Fatalf("WritePlanReport failed: %v", err)
				}
				th.AssertFileExists(t, written)

				content := th.MustReadFile(t, written)
				if !strings.Contains(content, "sp1") {
					t.Errorf("report missing source ID:\n%s", content)
				}
			})
		}
	})

	t.Run("WritePlanReport unsupported format", func(t *testing.T) {
		_, err := WritePlanReport(samplePlan(), "xml", filepath.Join(t.TempDir(), "plan.xml"))
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("WriteManifest", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "manifest.json")
		m := &Manifest{
			GeneratedAt: time.Now(),
			Format:      FormatCSV,
			Succeeded:   1,
			Failed:      1,
			Pairs: []ManifestEntry{
				{Pair: "daily", Success: true, Added: 2, Reports: []string{"daily_forward.csv"}},
				{Pair: "weekly", Error: "boom"},
			},
		}

		if err := WriteManifest(m, path); err != nil {
			t.Fatalf("WriteManifest failed: %v", err)
		}

		var decoded Manifest
		if err := json.Unmarshal([]byte(th.MustReadFile(t, path)), &decoded); err != nil {
			t.Fatalf("invalid manifest JSON: %v", err)
		}
		if len(decoded.Pairs) != 2 || decoded.Pairs[1].Error != "boom" {
			t.Errorf("unexpected manifest: %+v", decoded)
		}
	})

	t.Run("ValidFormat", func(t *testing.T) {
		if !ValidFormat("csv") || !ValidFormat("json") || ValidFormat("markdown") {
			t.Error("unexpected ValidFormat result")
		}
	})
}
