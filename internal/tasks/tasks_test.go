package tasks

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/desertthunder/playsync/internal/models"
	"github.com/desertthunder/playsync/internal/shared"
	tu "github.com/desertthunder/playsync/internal/testing"
)

var (
	t0  = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
)

func sec(n int) int64 { return int64(n) * 1000 }

func spTrack(id, title string, seconds int, added time.Time) models.Item {
	return models.Item{ID: id, Title: title, Artist: "Alpha", DurationMs: sec(seconds), AddedAt: added, Popularity: 50}
}

func ytVideo(id, title string, seconds int) models.Item {
	return models.Item{ID: id, Title: title, Channel: "Alpha - Topic", DurationMs: sec(seconds), CategoryID: models.MusicCategoryID}
}

// fixture is a Spotify playlist "sp" with three tracks added at T1 < T2 < T3, an empty YouTube
// playlist "yt", and one search hit per track.
type fixture struct {
	spotify *tu.MockCatalog
	youtube *tu.MockCatalog
	store   *tu.MockCacheStore
	runs    *tu.MockRunRecorder
	rec     *Reconciler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		spotify: tu.NewMockCatalog("spotify"),
		youtube: tu.NewMockCatalog("youtube"),
		store:   tu.NewMockCacheStore(),
		runs:    &tu.MockRunRecorder{},
	}

	f.spotify.AddItems("sp",
		spTrack("sp1", "First Light", 200, t0),
		spTrack("sp2", "Second Wind", 210, t0.Add(time.Hour)),
		spTrack("sp3", "Third Rail", 220, t0.Add(2*time.Hour)),
	)
	f.youtube.Playlists["yt"] = nil
	f.youtube.SetSearch("Alpha First Light", ytVideo("yt1", "First Light", 200))
	f.youtube.SetSearch("Alpha Second Wind", ytVideo("yt2", "Second Wind", 210))
	f.youtube.SetSearch("Alpha Third Rail", ytVideo("yt3", "Third Rail", 220))

	f.rec = NewReconciler(f.store, f.runs, nil)
	f.rec.now = func() time.Time { return now }
	return f
}

func (f *fixture) sync(t *testing.T, req Request) *SyncResult {
	t.Helper()
	if req.SourcePlaylist == "" {
		req.SourcePlaylist, req.TargetPlaylist = "sp", "yt"
	}
	res, err := f.rec.Sync(context.Background(), nil, f.spotify, f.youtube, req)
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	return res
}

// stubMatcher returns canned results keyed by source ID.
type stubMatcher struct {
	results map[string]models.MatchResult
	err     error
	calls   []string
}

func (s *stubMatcher) Match(ctx context.Context, src models.Item) (models.MatchResult, error) {
	s.calls = append(s.calls, src.ID)
	if s.err != nil {
		return models.MatchResult{Reason: models.ReasonSearchFailed}, s.err
	}
	if r, ok := s.results[src.ID]; ok {
		return r, nil
	}
	return models.MatchResult{Reason: models.ReasonNoSearchResults}, nil
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"forward", ModeForward, false},
		{"reverse", ModeReverse, false},
		{"both", ModeBoth, false},
		{"", ModeForward, false},
		{"sideways", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseMode(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSelectCandidates(t *testing.T) {
	items := []models.Item{
		{ID: "a", AddedAt: t0},
		{ID: "b", AddedAt: t0.Add(time.Hour)},
		{ID: "c", AddedAt: t0.Add(2 * time.Hour)},
		{ID: "d", AddedAt: t0.Add(2 * time.Hour)},
	}

	t.Run("first run admits the window newest", func(t *testing.T) {
		got := selectCandidates(items, models.NewSyncCache(), map[string]struct{}{}, 3)
		want := []string{"c", "d", "b"}
		if ids := itemIDs(got); !slices.Equal(ids, want) {
			t.Errorf("candidates = %v, want %v", ids, want)
		}
	})

	t.Run("first run skips validly mapped", func(t *testing.T) {
		cache := models.NewSyncCache()
		cache.MarkSeen("a", "b", "c", "d")
		cache.SetMapping("c", "x")
		got := selectCandidates(items, cache, map[string]struct{}{"x": {}}, 10)

		if slices.Contains(itemIDs(got), "c") {
			t.Error("validly mapped item should not be a first-run candidate")
		}
	})

	t.Run("later run", func(t *testing.T) {
		cache := models.NewSyncCache()
		cache.LastSyncTimestamp = t0.Add(90 * time.Minute)
		cache.MarkSeen("a", "b", "c")
		cache.SetMapping("a", "gone")
		cache.SetMapping("b", "x")

		got := selectCandidates(items, cache, map[string]struct{}{"x": {}}, 10)
		want := []string{"c", "d", "a"}
		if ids := itemIDs(got); !slices.Equal(ids, want) {
			t.Errorf("candidates = %v, want %v", ids, want)
		}
	})

	t.Run("nothing new", func(t *testing.T) {
		cache := models.NewSyncCache()
		cache.LastSyncTimestamp = now
		cache.MarkSeen("a", "b", "c", "d")

		if got := selectCandidates(items, cache, map[string]struct{}{}, 10); len(got) != 0 {
			t.Errorf("expected no candidates, got %v", itemIDs(got))
		}
	})
}

func itemIDs(items []models.Item) []string {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}

func TestReconciler_Sync(t *testing.T) {
	t.Run("inserts oldest first", func(t *testing.T) {
		f := newFixture(t)
		res := f.sync(t, Request{Pair: "daily", Mode: ModeForward})

		if got, want := f.youtube.InsertedIDs(), []string{"yt1", "yt2", "yt3"}; !slices.Equal(got, want) {
			t.Errorf("insert order = %v, want %v", got, want)
		}

		plan := res.Forward.Plan
		if got := []string{plan.Entries[0].Source.ID, plan.Entries[2].Source.ID}; !slices.Equal(got, []string{"sp3", "sp1"}) {
			t.Errorf("plan should list newest first, got %v", got)
		}
		if res.Forward.Added != 3 || res.Reverse != nil {
			t.Errorf("unexpected result: added=%d reverse=%v", res.Forward.Added, res.Reverse)
		}
		for _, e := range plan.Entries {
			if e.Outcome != models.OutcomeApplied {
				t.Errorf("entry %s outcome = %s, want applied", e.Source.ID, e.Outcome)
			}
		}

		cache := f.store.Caches["sp"]
		for src, tgt := range map[string]string{"sp1": "yt1", "sp2": "yt2", "sp3": "yt3"} {
			if id, ok := cache.Target(src); !ok || id != tgt {
				t.Errorf("mapping %s = %q, want %s", src, id, tgt)
			}
		}
		if !cache.LastSyncTimestamp.Equal(now) {
			t.Errorf("last sync = %v, want %v", cache.LastSyncTimestamp, now)
		}
	})

	t.Run("second run is idempotent", func(t *testing.T) {
		f := newFixture(t)
		f.sync(t, Request{Mode: ModeBoth})
		inserts := len(f.youtube.Inserts) + len(f.spotify.Inserts)

		res := f.sync(t, Request{Mode: ModeBoth})

		if res.Added() != 0 {
			t.Errorf("second run added %d items", res.Added())
		}
		if got := len(f.youtube.Inserts) + len(f.spotify.Inserts); got != inserts {
			t.Errorf("expected no new inserts, got %d more", got-inserts)
		}
	})

	t.Run("both mode widens reverse window by forward additions", func(t *testing.T) {
		f := newFixture(t)
		res := f.sync(t, Request{Mode: ModeBoth, Window: 10, ReverseWindow: 2})

		if res.Forward.Added != 3 {
			t.Fatalf("forward added = %d, want 3", res.Forward.Added)
		}
		if res.Reverse.Window != 5 {
			t.Errorf("reverse window = %d, want 2 + 3", res.Reverse.Window)
		}
		if res.Reverse.Added != 0 || res.Reverse.Mapped != 3 {
			t.Errorf("reverse leg should map the added videos back, got added=%d mapped=%d", res.Reverse.Added, res.Reverse.Mapped)
		}
		if len(f.spotify.Searches) != 0 {
			t.Errorf("soft duplicates should not search, got %v", f.spotify.Searches)
		}
	})

	t.Run("dry run leaves cache and playlists alone", func(t *testing.T) {
		f := newFixture(t)
		res := f.sync(t, Request{Mode: ModeBoth, DryRun: true, ReverseWindow: 2})

		if len(f.youtube.Inserts) != 0 || f.store.Saves != 0 {
			t.Errorf("dry run wrote: inserts=%d saves=%d", len(f.youtube.Inserts), f.store.Saves)
		}
		if res.Forward.Plan.Count(models.ActionAdd) != 3 {
			t.Errorf("expected 3 planned additions, got %d", res.Forward.Plan.Count(models.ActionAdd))
		}
		for _, e := range res.Forward.Plan.Entries {
			if e.Outcome != models.OutcomeDryRun {
				t.Errorf("entry %s outcome = %s, want dry-run", e.Source.ID, e.Outcome)
			}
		}
		if res.Reverse.Window != 2 {
			t.Errorf("dry run should not widen the reverse window, got %d", res.Reverse.Window)
		}
		if len(f.runs.Records) != 0 {
			t.Errorf("dry runs should not be recorded, got %d", len(f.runs.Records))
		}
	})

	t.Run("records run history per leg", func(t *testing.T) {
		f := newFixture(t)
		f.sync(t, Request{Pair: "daily", Mode: ModeBoth})

		if len(f.runs.Records) != 2 {
			t.Fatalf("expected 2 records, got %d", len(f.runs.Records))
		}
		fwd, rev := f.runs.Records[0], f.runs.Records[1]
		if fwd.Direction != models.Forward || fwd.Added != 3 || fwd.Pair != "daily" {
			t.Errorf("unexpected forward record: %+v", fwd)
		}
		if rev.Direction != models.Reverse || rev.SourcePlaylist != "yt" || rev.Mapped != 3 {
			t.Errorf("unexpected reverse record: %+v", rev)
		}
	})

	t.Run("run history failure is not fatal", func(t *testing.T) {
		f := newFixture(t)
		f.runs.Err = errors.New("database locked")
		f.sync(t, Request{Mode: ModeForward})
	})

	t.Run("missing playlists", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.rec.Sync(context.Background(), nil, f.spotify, f.youtube, Request{SourcePlaylist: "sp"})
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("nil catalogs", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.rec.Sync(context.Background(), nil, nil, f.youtube, Request{SourcePlaylist: "sp", TargetPlaylist: "yt"})
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("fetch failure aborts the leg", func(t *testing.T) {
		f := newFixture(t)
		f.youtube.ItemsErr = shared.ErrServiceUnavailable

		_, err := f.rec.Sync(context.Background(), nil, f.spotify, f.youtube, Request{SourcePlaylist: "sp", TargetPlaylist: "yt"})
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
		if f.store.Saves != 0 {
			t.Error("cache should not be saved when fetching fails")
		}
	})
}

func TestReconciler_RunLeg(t *testing.T) {
	ctx := context.Background()

	leg := func(f *fixture, m *stubMatcher) Leg {
		return Leg{
			Direction:      models.Forward,
			Source:         f.spotify,
			Target:         f.youtube,
			SourcePlaylist: "sp",
			TargetPlaylist: "yt",
			Matcher:        m,
			Window:         DefaultWindow,
		}
	}

	matched := func(it models.Item) models.MatchResult {
		return models.MatchResult{Best: &it, Reason: models.ReasonOK, Score: 5}
	}

	t.Run("failing insert is left unmapped and retried", func(t *testing.T) {
		f := newFixture(t)
		f.youtube.InsertErrs["yt2"] = errors.New("quota exceeded")

		res := f.sync(t, Request{Mode: ModeForward})

		if res.Forward.Added != 2 || res.Forward.Failed != 1 {
			t.Errorf("added=%d failed=%d, want 2 and 1", res.Forward.Added, res.Forward.Failed)
		}
		if got := f.youtube.InsertedIDs(); !slices.Equal(got, []string{"yt1", "yt3"}) {
			t.Errorf("inserted = %v", got)
		}
		cache := f.store.Caches["sp"]
		if _, ok := cache.Target("sp2"); ok {
			t.Error("failed item should not be mapped")
		}
		if cache.Seen("sp2") {
			t.Error("failed item should stay unseen so the next run retries it")
		}

		delete(f.youtube.InsertErrs, "yt2")
		res = f.sync(t, Request{Mode: ModeForward})

		if res.Forward.Candidates != 1 || res.Forward.Added != 1 {
			t.Errorf("retry run: candidates=%d added=%d, want 1 and 1", res.Forward.Candidates, res.Forward.Added)
		}
		if got := f.youtube.InsertedIDs(); !slices.Equal(got, []string{"yt1", "yt3", "yt2"}) {
			t.Errorf("inserted = %v", got)
		}
	})

	t.Run("persist failure is fatal", func(t *testing.T) {
		f := newFixture(t)
		f.store.SaveErr = errors.New("disk full")

		res, err := f.rec.Sync(ctx, nil, f.spotify, f.youtube, Request{SourcePlaylist: "sp", TargetPlaylist: "yt", Mode: ModeBoth})
		if !errors.Is(err, shared.ErrCachePersist) {
			t.Fatalf("expected ErrCachePersist, got %v", err)
		}
		if res == nil || res.Forward == nil || res.Forward.Added != 3 {
			t.Error("partial result should report the applied additions")
		}
		if res.Reverse != nil {
			t.Error("reverse leg should not run after a persist failure")
		}
		if len(f.runs.Records) != 0 {
			t.Error("unpersisted legs should not be recorded")
		}
	})

	t.Run("stale mapping is re-matched", func(t *testing.T) {
		f := newFixture(t)
		cache := models.NewSyncCache()
		cache.LastSyncTimestamp = now
		cache.MarkSeen("sp1", "sp2", "sp3")
		cache.SetMapping("sp1", "deleted-video")
		f.store.Caches["sp"] = cache

		res := f.sync(t, Request{Mode: ModeForward})

		if res.Forward.Candidates != 1 || res.Forward.Added != 1 {
			t.Errorf("candidates=%d added=%d, want 1 and 1", res.Forward.Candidates, res.Forward.Added)
		}
		if id, _ := f.store.Caches["sp"].Target("sp1"); id != "yt1" {
			t.Errorf("mapping = %q, want yt1", id)
		}
	})

	t.Run("already mapped on first run", func(t *testing.T) {
		f := newFixture(t)
		f.youtube.AddItems("yt", ytVideo("yt1", "First Light", 200))
		cache := models.NewSyncCache()
		cache.SetMapping("sp1", "yt1")
		f.store.Caches["sp"] = cache

		m := &stubMatcher{}
		res, err := f.rec.RunLeg(ctx, nil, leg(f, m), "", false)
		if err != nil {
			t.Fatalf("RunLeg() error = %v", err)
		}

		entry := res.Plan.Entries[len(res.Plan.Entries)-1]
		if entry.Source.ID != "sp1" || entry.Action != models.ActionSkip || entry.Reason != models.ReasonAlreadyMapped {
			t.Errorf("unexpected entry: %+v", entry)
		}
		if slices.Contains(m.calls, "sp1") {
			t.Error("mapped item should not be matched")
		}
	})

	t.Run("soft duplicate is map-only", func(t *testing.T) {
		f := newFixture(t)
		f.youtube.AddItems("yt", models.Item{ID: "ytdup", Title: "Alpha - First Light (Official Video)", Channel: "AlphaVEVO", DurationMs: sec(207)})

		m := &stubMatcher{}
		res, err := f.rec.RunLeg(ctx, nil, leg(f, m), "", false)
		if err != nil {
			t.Fatalf("RunLeg() error = %v", err)
		}

		entry := res.Plan.Entries[2]
		if entry.Action != models.ActionMapOnly || entry.Target.ID != "ytdup" {
			t.Errorf("unexpected entry: %+v", entry)
		}
		if slices.Contains(m.calls, "sp1") {
			t.Error("soft duplicate should not be searched")
		}
		if id, _ := f.store.Caches["sp"].Target("sp1"); id != "ytdup" {
			t.Errorf("mapping = %q, want ytdup", id)
		}
		if len(f.youtube.Inserts) != 0 {
			t.Error("map-only should not insert")
		}
	})

	t.Run("match already in destination is map-only", func(t *testing.T) {
		f := newFixture(t)
		existing := models.Item{ID: "ytz", Title: "Something Else Entirely", Channel: "Other", DurationMs: sec(400)}
		f.youtube.AddItems("yt", existing)

		m := &stubMatcher{results: map[string]models.MatchResult{"sp3": matched(existing)}}
		res, err := f.rec.RunLeg(ctx, nil, leg(f, m), "", false)
		if err != nil {
			t.Fatalf("RunLeg() error = %v", err)
		}

		if entry := res.Plan.Entries[0]; entry.Action != models.ActionMapOnly || entry.Target.ID != "ytz" {
			t.Errorf("unexpected entry: %+v", entry)
		}
		if res.Mapped != 1 || res.Added != 0 {
			t.Errorf("mapped=%d added=%d", res.Mapped, res.Added)
		}
	})

	t.Run("same match planned twice is added once", func(t *testing.T) {
		f := newFixture(t)
		target := ytVideo("yt9", "Unrelated Title", 300)
		f.youtube.Register(target)

		m := &stubMatcher{results: map[string]models.MatchResult{
			"sp3": matched(target),
			"sp2": matched(target),
		}}
		res, err := f.rec.RunLeg(ctx, nil, leg(f, m), "", false)
		if err != nil {
			t.Fatalf("RunLeg() error = %v", err)
		}

		if res.Plan.Entries[0].Action != models.ActionAdd || res.Plan.Entries[1].Action != models.ActionMapOnly {
			t.Errorf("actions = %s, %s", res.Plan.Entries[0].Action, res.Plan.Entries[1].Action)
		}
		if got := f.youtube.InsertedIDs(); !slices.Equal(got, []string{"yt9"}) {
			t.Errorf("inserted = %v", got)
		}
	})

	t.Run("match failures become skips", func(t *testing.T) {
		f := newFixture(t)
		m := &stubMatcher{results: map[string]models.MatchResult{
			"sp3": {Reason: models.ReasonNoCandidatePassed, Escalated: true},
			"sp2": {Reason: models.ReasonUnintelligibleQuery},
		}}
		res, err := f.rec.RunLeg(ctx, nil, leg(f, m), "", false)
		if err != nil {
			t.Fatalf("RunLeg() error = %v", err)
		}

		want := []models.Reason{models.ReasonNoCandidatePassed, models.ReasonUnintelligibleQuery, models.ReasonNoSearchResults}
		for i, e := range res.Plan.Entries {
			if e.Action != models.ActionSkip || e.Reason != want[i] || e.Outcome != models.OutcomeSkipped {
				t.Errorf("entry %d = %s/%s/%s, want skip/%s", i, e.Action, e.Reason, e.Outcome, want[i])
			}
		}
		if res.Skipped != 3 {
			t.Errorf("skipped = %d, want 3", res.Skipped)
		}
		if !f.store.Caches["sp"].Seen("sp1") {
			t.Error("unmatched items are still part of the baseline")
		}
	})

	t.Run("search failure does not abort the plan", func(t *testing.T) {
		f := newFixture(t)
		f.youtube.SearchErr = shared.ErrServiceUnavailable

		res := f.sync(t, Request{Mode: ModeForward})

		for _, e := range res.Forward.Plan.Entries {
			if e.Reason != models.ReasonSearchFailed || e.Error == "" {
				t.Errorf("entry %s = %s (%q), want search_failed", e.Source.ID, e.Reason, e.Error)
			}
		}
		if f.store.Caches["sp"].Seen("sp1") {
			t.Error("items whose search failed should be retried")
		}
	})

	t.Run("window limits candidates", func(t *testing.T) {
		f := newFixture(t)
		l := leg(f, &stubMatcher{})
		l.Window = 2

		res, err := f.rec.RunLeg(ctx, nil, l, "", true)
		if err != nil {
			t.Fatalf("RunLeg() error = %v", err)
		}
		if got := itemIDs(planSources(res.Plan)); !slices.Equal(got, []string{"sp3", "sp2"}) {
			t.Errorf("candidates = %v", got)
		}
	})

	t.Run("invalid leg", func(t *testing.T) {
		f := newFixture(t)
		l := leg(f, nil)
		l.Matcher = nil
		if _, err := f.rec.RunLeg(ctx, nil, l, "", false); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("cache load failure", func(t *testing.T) {
		f := newFixture(t)
		f.store.LoadErr = shared.ErrCacheVersion
		if _, err := f.rec.RunLeg(ctx, nil, leg(f, &stubMatcher{}), "", false); !errors.Is(err, shared.ErrCacheVersion) {
			t.Errorf("expected ErrCacheVersion, got %v", err)
		}
	})
}

func planSources(p *models.Plan) []models.Item {
	out := make([]models.Item, len(p.Entries))
	for i, e := range p.Entries {
		out[i] = e.Source
	}
	return out
}

func TestReconciler_SyncAll(t *testing.T) {
	f := newFixture(t)
	dir := filepath.Join(t.TempDir(), "reports")

	reqs := []Request{
		{Pair: "daily", Mode: ModeForward, SourcePlaylist: "sp", TargetPlaylist: "yt"},
		{Pair: "broken", Mode: ModeForward, SourcePlaylist: "missing", TargetPlaylist: "yt"},
	}

	progressCh := make(chan ProgressUpdate, 100)
	batch, err := f.rec.SyncAll(context.Background(), progressCh, f.spotify, f.youtube, reqs, BatchOpts{Format: "csv", OutputDir: dir})
	close(progressCh)
	if err != nil {
		t.Fatalf("SyncAll() error = %v", err)
	}

	if batch.Succeeded != 1 || batch.Failed != 1 {
		t.Errorf("succeeded=%d failed=%d", batch.Succeeded, batch.Failed)
	}
	if !errors.Is(batch.Pairs[1].Error, tu.ErrMockNotFound) {
		t.Errorf("expected not found error, got %v", batch.Pairs[1].Error)
	}
	if len(batch.Pairs[0].Reports) != 1 {
		t.Fatalf("expected one report for the forward leg, got %v", batch.Pairs[0].Reports)
	}
	tu.AssertFileExists(t, batch.Pairs[0].Reports[0])
	tu.AssertFileExists(t, batch.ManifestPath)

	var phases []Phase
	for u := range progressCh {
		phases = append(phases, u.Phase)
	}
	for _, want := range []Phase{SyncPair, LoadCache, FetchCatalogs, SelectCandidates, BuildPlan, Apply, PersistCache} {
		if !slices.Contains(phases, want) {
			t.Errorf("missing progress phase %s", want)
		}
	}

	t.Run("rejects unknown format", func(t *testing.T) {
		_, err := f.rec.SyncAll(context.Background(), nil, f.spotify, f.youtube, reqs, BatchOpts{Format: "xml"})
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestProgressUpdate_NonBlocking(t *testing.T) {
	f := newFixture(t)
	progressCh := make(chan ProgressUpdate)

	done := make(chan struct{})
	go func() {
		f.rec.Sync(context.Background(), progressCh, f.spotify, f.youtube, Request{SourcePlaylist: "sp", TargetPlaylist: "yt"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Sync blocked on an unread progress channel")
	}
}

func TestPhase_String(t *testing.T) {
	if LoadCache.String() != "load_cache" || PersistCache.String() != "persist_cache" || Phase(99).String() != "" {
		t.Error("unexpected phase names")
	}
}
