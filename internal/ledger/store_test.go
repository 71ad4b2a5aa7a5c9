package ledger_test

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/sankethshetty99/discord-archiver/internal/ledger"
)

func newTestStore(t *testing.T) ledger.Store {
	t.Helper()

	db, err := ledger.NewDB(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("opening ledger database: %v", err)
	}
	t.Cleanup(func() { ledger.CloseDB(db) })

	return ledger.NewStore(db, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRunRoundTrip(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	runID, err := store.CreateRun(ctx, "guild-1", "My Guild", 2)
	if err != nil {
		t.Fatalf("creating run: %v", err)
	}
	if runID == 0 {
		t.Fatal("run id should be assigned")
	}

	results := []*ledger.RunResult{
		{RunID: runID, ChannelID: "c1", ChannelName: "general", Category: "Text", Status: "success", Detail: "Done"},
		{RunID: runID, ChannelID: "c2", ChannelName: "random", Category: "Text", Status: "error", Detail: "upload failed"},
	}
	for _, r := range results {
		if err := store.RecordResult(ctx, r); err != nil {
			t.Fatalf("recording result for %s: %v", r.ChannelID, err)
		}
		if r.ID == 0 {
			t.Errorf("result id for %s should be assigned", r.ChannelID)
		}
	}

	if err := store.FinishRun(ctx, runID); err != nil {
		t.Fatalf("finishing run: %v", err)
	}

	runs, err := store.RecentRuns(ctx, 5)
	if err != nil {
		t.Fatalf("listing runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	run := runs[0]
	if run.ID != runID || run.GuildID != "guild-1" || run.GuildName != "My Guild" || run.ChannelsTotal != 2 {
		t.Errorf("unexpected run %+v", run)
	}
	if run.StartedAt.IsZero() {
		t.Errorf("run should have a start time")
	}
	if !run.FinishedAt.Valid {
		t.Errorf("finished run should have a finish time")
	}

	stored, err := store.RunResults(ctx, runID)
	if err != nil {
		t.Fatalf("listing results: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("expected 2 results, got %d", len(stored))
	}
	if stored[0].ChannelID != "c1" || stored[1].ChannelID != "c2" {
		t.Errorf("results out of recording order: %+v", stored)
	}
	if stored[1].Status != "error" || stored[1].Detail != "upload failed" {
		t.Errorf("unexpected second result %+v", stored[1])
	}
}

func TestRecentRunsOrder(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	var ids []uint
	for _, guild := range []string{"g1", "g2", "g3"} {
		id, err := store.CreateRun(ctx, guild, guild, 1)
		if err != nil {
			t.Fatalf("creating run for %s: %v", guild, err)
		}
		ids = append(ids, id)
	}

	runs, err := store.RecentRuns(ctx, 2)
	if err != nil {
		t.Fatalf("listing runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != ids[2] || runs[1].ID != ids[1] {
		t.Errorf("runs should be newest first, got %d then %d", runs[0].ID, runs[1].ID)
	}
}

func TestRecordResultValidation(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		result *ledger.RunResult
	}{
		{"nil result", nil},
		{"missing run", &ledger.RunResult{ChannelID: "c1", Status: "success"}},
		{"missing channel", &ledger.RunResult{RunID: 1, Status: "success"}},
		{"missing status", &ledger.RunResult{RunID: 1, ChannelID: "c1"}},
	}
	for _, tc := range cases {
		if err := store.RecordResult(ctx, tc.result); err == nil {
			t.Errorf("%s: expected an error", tc.name)
		}
	}
}

func TestMaintenance(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	if err := store.Maintenance(context.Background()); err != nil {
		t.Fatalf("maintenance: %v", err)
	}
}
