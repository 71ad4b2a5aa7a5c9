package archive

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/sankethshetty99/discord-archiver/internal/config"
	"github.com/sankethshetty99/discord-archiver/internal/discord"
	"github.com/sankethshetty99/discord-archiver/internal/ledger"
)

// GuildSource discovers guilds and their archivable channels.
type GuildSource interface {
	ListGuilds(ctx context.Context) ([]discord.Guild, error)
	ListChannels(ctx context.Context, guildID string) ([]discord.Channel, error)
}

// Service runs complete archive passes over a guild and records each pass
// in the run ledger. The interactive run command and the scheduled archive
// task both drive it.
type Service struct {
	cfg      config.Config
	source   GuildSource
	launcher Launcher
	ledger   ledger.Store
	log      *slog.Logger
}

// NewService assembles a Service. ledgerStore may be nil, which disables
// run recording.
func NewService(cfg config.Config, source GuildSource, launcher Launcher, ledgerStore ledger.Store, log *slog.Logger) *Service {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		cfg:      cfg,
		source:   source,
		launcher: launcher,
		ledger:   ledgerStore,
		log:      log.With("component", "archive_service"),
	}
}

// ArchiveGuild archives every text channel of the given guild, or only the
// named ones when only is non-empty, and returns the per-channel results.
// Individual channel failures are reported in the results, not as an error;
// the returned error covers discovery and setup faults only.
func (s *Service) ArchiveGuild(ctx context.Context, guildID string, only []string) ([]Result, error) {
	guild, err := s.findGuild(ctx, guildID)
	if err != nil {
		return nil, err
	}

	channels, err := s.source.ListChannels(ctx, guild.ID)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	channels = filterChannels(channels, only)
	if len(channels) == 0 {
		s.log.InfoContext(ctx, "no channels to archive", "guild", guild.Name)
		return nil, nil
	}

	jobs := NewJobs(s.cfg, guild, channels)
	s.log.InfoContext(ctx, "starting archive pass",
		"guild", guild.Name, "channels", len(jobs), "max_workers", s.cfg.Archive.MaxWorkers)

	runID := s.beginRun(ctx, guild, len(jobs))

	orch := NewOrchestrator(s.launcher, s.cfg.Archive.MaxWorkers, s.log,
		WithOnResult(func(res Result) { s.recordResult(ctx, runID, res) }))
	results := orch.Archive(ctx, jobs)

	s.finishRun(ctx, runID)
	s.log.InfoContext(ctx, "archive pass finished", "guild", guild.Name, "results", len(results))

	return results, nil
}

func (s *Service) findGuild(ctx context.Context, guildID string) (discord.Guild, error) {
	guilds, err := s.source.ListGuilds(ctx)
	if err != nil {
		return discord.Guild{}, fmt.Errorf("list guilds: %w", err)
	}
	for _, g := range guilds {
		if g.ID == guildID {
			return g, nil
		}
	}
	return discord.Guild{}, fmt.Errorf("bot is not a member of guild %s", guildID)
}

// filterChannels keeps only the channels whose name appears in only.
// An empty filter keeps everything.
func filterChannels(channels []discord.Channel, only []string) []discord.Channel {
	if len(only) == 0 {
		return channels
	}
	var kept []discord.Channel
	for _, ch := range channels {
		if slices.Contains(only, ch.Name) {
			kept = append(kept, ch)
		}
	}
	return kept
}

// beginRun opens a ledger run. A broken ledger degrades to an unrecorded
// pass instead of blocking the archive; zero means recording is off.
func (s *Service) beginRun(ctx context.Context, guild discord.Guild, channelsTotal int) uint {
	if s.ledger == nil {
		return 0
	}
	runID, err := s.ledger.CreateRun(ctx, guild.ID, guild.Name, channelsTotal)
	if err != nil {
		s.log.WarnContext(ctx, "could not record run start, continuing unrecorded", "error", err)
		return 0
	}
	return runID
}

func (s *Service) recordResult(ctx context.Context, runID uint, res Result) {
	if runID == 0 {
		return
	}
	err := s.ledger.RecordResult(ctx, &ledger.RunResult{
		RunID:       runID,
		ChannelID:   res.ChannelID,
		ChannelName: res.ChannelName,
		Category:    res.Category,
		Status:      string(res.Status),
		Detail:      res.Detail,
	})
	if err != nil {
		s.log.WarnContext(ctx, "could not record channel result",
			"channel", res.ChannelName, "error", err)
	}
}

func (s *Service) finishRun(ctx context.Context, runID uint) {
	if runID == 0 {
		return
	}
	if err := s.ledger.FinishRun(ctx, runID); err != nil {
		s.log.WarnContext(ctx, "could not record run finish", "run_id", runID, "error", err)
	}
}
