package archive_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/sankethshetty99/discord-archiver/internal/archive"
	"github.com/sankethshetty99/discord-archiver/internal/config"
	"github.com/sankethshetty99/discord-archiver/internal/discord"
	"github.com/sankethshetty99/discord-archiver/internal/ledger"
)

type fakeGuildSource struct {
	guilds   []discord.Guild
	channels []discord.Channel
}

func (s *fakeGuildSource) ListGuilds(_ context.Context) ([]discord.Guild, error) {
	return s.guilds, nil
}

func (s *fakeGuildSource) ListChannels(_ context.Context, _ string) ([]discord.Channel, error) {
	return s.channels, nil
}

type fakeLedger struct {
	mu        sync.Mutex
	createErr error
	runGuild  string
	runTotal  int
	results   []ledger.RunResult
	finished  []uint
}

func (l *fakeLedger) CreateRun(_ context.Context, _, guildName string, channelsTotal int) (uint, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.createErr != nil {
		return 0, l.createErr
	}
	l.runGuild = guildName
	l.runTotal = channelsTotal
	return 42, nil
}

func (l *fakeLedger) RecordResult(_ context.Context, result *ledger.RunResult) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.results = append(l.results, *result)
	return nil
}

func (l *fakeLedger) FinishRun(_ context.Context, runID uint) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.finished = append(l.finished, runID)
	return nil
}

func (l *fakeLedger) RecentRuns(_ context.Context, _ int) ([]ledger.Run, error) {
	return nil, nil
}

func (l *fakeLedger) RunResults(_ context.Context, _ uint) ([]ledger.RunResult, error) {
	return nil, nil
}

func (l *fakeLedger) Maintenance(_ context.Context) error { return nil }

func serviceFixtures() (*fakeGuildSource, archive.Launcher) {
	source := &fakeGuildSource{
		guilds: []discord.Guild{
			{ID: "guild-1", Name: "Acme"},
			{ID: "guild-2", Name: "Other"},
		},
		channels: []discord.Channel{
			{ID: "c1", Name: "general", Category: "Text Channels"},
			{ID: "c2", Name: "random", Category: "Text Channels"},
			{ID: "c3", Name: "standup", Category: "Work"},
		},
	}
	launcher := archive.LaunchFunc(func(_ context.Context, job archive.Job) (archive.Result, error) {
		return archive.Result{
			ChannelID:   job.Channel.ID,
			ChannelName: job.Channel.Name,
			Category:    job.Channel.Category,
			Status:      archive.StatusSuccess,
			Detail:      "Done",
		}, nil
	})
	return source, launcher
}

func TestArchiveGuildRecordsRun(t *testing.T) {
	t.Parallel()

	source, launcher := serviceFixtures()
	led := &fakeLedger{}
	var cfg config.Config
	cfg.Archive.MaxWorkers = 2

	svc := archive.NewService(cfg, source, launcher, led, nil)
	results, err := svc.ArchiveGuild(context.Background(), "guild-1", nil)
	if err != nil {
		t.Fatalf("ArchiveGuild: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}

	led.mu.Lock()
	defer led.mu.Unlock()
	if led.runGuild != "Acme" || led.runTotal != 3 {
		t.Errorf("run opened with guild=%q total=%d, want Acme/3", led.runGuild, led.runTotal)
	}
	if len(led.results) != 3 {
		t.Errorf("recorded %d results, want 3", len(led.results))
	}
	for _, rec := range led.results {
		if rec.RunID != 42 {
			t.Errorf("result recorded against run %d, want 42", rec.RunID)
		}
		if rec.Status != string(archive.StatusSuccess) {
			t.Errorf("recorded status %q, want %q", rec.Status, archive.StatusSuccess)
		}
	}
	if len(led.finished) != 1 || led.finished[0] != 42 {
		t.Errorf("finished runs = %v, want [42]", led.finished)
	}
}

func TestArchiveGuildChannelFilter(t *testing.T) {
	t.Parallel()

	source, launcher := serviceFixtures()
	var cfg config.Config
	cfg.Archive.MaxWorkers = 1

	svc := archive.NewService(cfg, source, launcher, nil, nil)
	results, err := svc.ArchiveGuild(context.Background(), "guild-1", []string{"standup"})
	if err != nil {
		t.Fatalf("ArchiveGuild: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].ChannelName != "standup" {
		t.Errorf("archived channel %q, want standup", results[0].ChannelName)
	}
}

func TestArchiveGuildUnknownGuild(t *testing.T) {
	t.Parallel()

	source, launcher := serviceFixtures()
	svc := archive.NewService(config.Config{}, source, launcher, nil, nil)

	_, err := svc.ArchiveGuild(context.Background(), "guild-404", nil)
	if err == nil {
		t.Fatal("expected an error for an unknown guild")
	}
	if !strings.Contains(err.Error(), "not a member of guild guild-404") {
		t.Errorf("err = %v", err)
	}
}

func TestArchiveGuildLedgerFailureDoesNotBlock(t *testing.T) {
	t.Parallel()

	source, launcher := serviceFixtures()
	led := &fakeLedger{createErr: errors.New("database is locked")}
	var cfg config.Config
	cfg.Archive.MaxWorkers = 2

	svc := archive.NewService(cfg, source, launcher, led, nil)
	results, err := svc.ArchiveGuild(context.Background(), "guild-1", nil)
	if err != nil {
		t.Fatalf("ArchiveGuild: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}

	led.mu.Lock()
	defer led.mu.Unlock()
	if len(led.results) != 0 {
		t.Errorf("recorded %d results against a failed run, want 0", len(led.results))
	}
	if len(led.finished) != 0 {
		t.Errorf("finished %d runs, want 0", len(led.finished))
	}
}
