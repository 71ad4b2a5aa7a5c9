// Package main contains the entrypoint for the Discord archiver CLI.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/sankethshetty99/discord-archiver/internal/archive"
	"github.com/sankethshetty99/discord-archiver/internal/config"
	"github.com/sankethshetty99/discord-archiver/internal/discord"
	"github.com/sankethshetty99/discord-archiver/internal/gdrive"
	"github.com/sankethshetty99/discord-archiver/internal/ledger"
	"github.com/sankethshetty99/discord-archiver/internal/logger"
	"github.com/sankethshetty99/discord-archiver/internal/sanitize"
	"github.com/sankethshetty99/discord-archiver/internal/scheduler"
)

const defaultConfigPath = "./config.yaml"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

func run(ctx context.Context) int {
	if len(os.Args) < 2 {
		usage()
		return 2
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "guilds":
		return cmdGuilds(ctx, args)
	case "channels":
		return cmdChannels(ctx, args)
	case "run":
		return cmdRun(ctx, args)
	case "runs":
		return cmdRuns(ctx, args)
	case "watch":
		return cmdWatch(ctx, args)
	case "worker":
		return cmdWorker(ctx)
	case "help", "-h", "--help":
		usage()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		usage()
		return 2
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `Usage: archiver <command> [flags]

Commands:
  guilds     List the guilds the bot can see
  channels   List a guild's text channels
  run        Archive a guild's channels to Google Drive
  runs       Show recent archive runs from the ledger
  watch      Run scheduled archive passes until interrupted
  worker     Archive a single channel from a job on stdin (internal)

Run 'archiver <command> -h' for command flags.
`)
}

// cmdGuilds lists the guilds the bot belongs to.
func cmdGuilds(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("guilds", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Path to configuration file")
	_ = fs.Parse(args)

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}
	log := logger.NewWorkerLogger(cfg.Logger.Level, cfg.Logger.JSON)

	client, err := discord.NewClient(cfg.Discord.Token, log)
	if err != nil {
		log.Error("Failed to create Discord client", "error", err)
		return 1
	}

	guilds, err := client.ListGuilds(ctx)
	if err != nil {
		log.Error("Failed to list guilds", "error", err)
		return 1
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME")
	for _, g := range guilds {
		fmt.Fprintf(tw, "%s\t%s\n", g.ID, g.Name)
	}
	tw.Flush()
	return 0
}

// cmdChannels lists a guild's text channels, optionally marking which ones
// already have an archive on Drive.
func cmdChannels(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("channels", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Path to configuration file")
	guildID := fs.String("guild", "", "Guild id to list channels for")
	archived := fs.Bool("archived", false, "Check Google Drive for existing archives")
	_ = fs.Parse(args)

	if *guildID == "" {
		fmt.Fprintln(os.Stderr, "channels: -guild is required")
		fs.Usage()
		return 2
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}
	log := logger.NewWorkerLogger(cfg.Logger.Level, cfg.Logger.JSON)

	client, err := discord.NewClient(cfg.Discord.Token, log)
	if err != nil {
		log.Error("Failed to create Discord client", "error", err)
		return 1
	}

	channels, err := client.ListChannels(ctx, *guildID)
	if err != nil {
		log.Error("Failed to list channels", "guild_id", *guildID, "error", err)
		return 1
	}
	if len(channels) == 0 {
		log.Info("No text channels found", "guild_id", *guildID)
		return 0
	}

	var archivedSet map[string]struct{}
	if *archived {
		archivedSet, err = lookupArchived(ctx, cfg, client, *guildID, log)
		if err != nil {
			log.Warn("Could not check existing archives", "error", err)
		}
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	if *archived {
		fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tARCHIVED")
	} else {
		fmt.Fprintln(tw, "ID\tNAME\tCATEGORY")
	}
	for _, ch := range channels {
		if *archived {
			mark := "no"
			if _, ok := archivedSet[sanitize.FileName(ch.Name)]; ok {
				mark = "yes"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", ch.ID, ch.Name, ch.Category, mark)
		} else {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", ch.ID, ch.Name, ch.Category)
		}
	}
	tw.Flush()
	return 0
}

// cmdRun archives a guild's channels and prints the per-channel outcome.
func cmdRun(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Path to configuration file")
	guildID := fs.String("guild", "", "Guild id to archive")
	channelsFlag := fs.String("channels", "", "Comma-separated channel names to archive (default: all)")
	inline := fs.Bool("inline", false, "Archive in-process instead of spawning worker processes")
	_ = fs.Parse(args)

	if *guildID == "" {
		fmt.Fprintln(os.Stderr, "run: -guild is required")
		fs.Usage()
		return 2
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}
	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)

	client, err := discord.NewClient(cfg.Discord.Token, log)
	if err != nil {
		log.Error("Failed to create Discord client", "error", err)
		return 1
	}

	launcher, err := buildLauncher(ctx, cfg, *inline, log)
	if err != nil {
		log.Error("Failed to set up worker launcher", "error", err)
		return 1
	}

	ledStore, closeLedger := openLedger(cfg, log)
	defer closeLedger()

	svc := archive.NewService(*cfg, client, launcher, ledStore, log)

	var only []string
	if *channelsFlag != "" {
		for _, name := range strings.Split(*channelsFlag, ",") {
			if name = strings.TrimSpace(name); name != "" {
				only = append(only, name)
			}
		}
	}

	results, err := svc.ArchiveGuild(ctx, *guildID, only)
	if err != nil {
		log.Error("Archive run failed", "error", err)
		return 1
	}

	if failures := printResults(results); failures > 0 {
		return 1
	}
	return 0
}

// cmdRuns prints recent archive runs, or one run's channel results.
func cmdRuns(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Path to configuration file")
	limit := fs.Int("limit", 10, "Number of recent runs to show")
	runID := fs.Uint("id", 0, "Show the channel results of one run")
	_ = fs.Parse(args)

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}
	log := logger.NewWorkerLogger(cfg.Logger.Level, cfg.Logger.JSON)

	db, err := ledger.NewDB(cfg.Ledger.Path)
	if err != nil {
		log.Error("Failed to open run ledger", "path", cfg.Ledger.Path, "error", err)
		return 1
	}
	defer ledger.CloseDB(db)
	store := ledger.NewStore(db, log)

	if *runID != 0 {
		results, err := store.RunResults(ctx, *runID)
		if err != nil {
			log.Error("Failed to load run results", "run_id", *runID, "error", err)
			return 1
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "STATUS\tCHANNEL\tCATEGORY\tDETAIL")
		for _, res := range results {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", res.Status, res.ChannelName, res.Category, res.Detail)
		}
		tw.Flush()
		return 0
	}

	runs, err := store.RecentRuns(ctx, *limit)
	if err != nil {
		log.Error("Failed to load recent runs", "error", err)
		return 1
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tGUILD\tCHANNELS\tSTARTED\tFINISHED")
	for _, r := range runs {
		finished := "running"
		if r.FinishedAt.Valid {
			finished = r.FinishedAt.Time.Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n",
			r.ID, r.GuildName, r.ChannelsTotal, r.StartedAt.Format("2006-01-02 15:04:05"), finished)
	}
	tw.Flush()
	return 0
}

// cmdWatch runs the configured cron tasks until the process is interrupted.
func cmdWatch(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Path to configuration file")
	inline := fs.Bool("inline", false, "Archive in-process instead of spawning worker processes")
	_ = fs.Parse(args)

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}
	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)

	if err := cfg.ValidateForWatch(); err != nil {
		log.Error("Invalid watch configuration", "error", err)
		return 1
	}

	client, err := discord.NewClient(cfg.Discord.Token, log)
	if err != nil {
		log.Error("Failed to create Discord client", "error", err)
		return 1
	}

	launcher, err := buildLauncher(ctx, cfg, *inline, log)
	if err != nil {
		log.Error("Failed to set up worker launcher", "error", err)
		return 1
	}

	ledStore, closeLedger := openLedger(cfg, log)
	defer closeLedger()

	svc := archive.NewService(*cfg, client, launcher, ledStore, log)
	registry := scheduler.RegisterAll(scheduler.TaskDeps{
		Logger:   log,
		Config:   *cfg,
		Archiver: svc,
		Ledger:   ledStore,
	})

	sched, err := scheduler.NewScheduler(log, cfg.Schedule, registry)
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}
	if err := sched.Start(); err != nil {
		log.Error("Failed to start scheduler", "error", err)
		return 1
	}

	log.Info("Watching for scheduled tasks, interrupt to stop")
	<-ctx.Done()

	log.Info("Shutting down...")
	if err := sched.Stop(); err != nil {
		log.Error("Scheduler shutdown failed", "error", err)
		return 1
	}
	return 0
}

// cmdWorker archives one channel from a job payload on stdin. The parent
// process invokes it; it is not meant to be called by hand.
func cmdWorker(ctx context.Context) int {
	if err := archive.RunWorker(ctx, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "worker:", err)
		return 1
	}
	return 0
}

// buildLauncher picks process-per-channel isolation or the in-process
// worker.
func buildLauncher(ctx context.Context, cfg *config.Config, inline bool, log *slog.Logger) (archive.Launcher, error) {
	if !inline {
		return &archive.ExecLauncher{}, nil
	}
	worker, err := archive.BuildWorker(ctx, *cfg, log)
	if err != nil {
		return nil, err
	}
	return &archive.InlineLauncher{Worker: worker}, nil
}

// openLedger opens the run-history store. A broken ledger only disables
// recording; the archive itself proceeds.
func openLedger(cfg *config.Config, log *slog.Logger) (ledger.Store, func()) {
	db, err := ledger.NewDB(cfg.Ledger.Path)
	if err != nil {
		log.Warn("Run ledger unavailable, continuing without it", "path", cfg.Ledger.Path, "error", err)
		return nil, func() {}
	}
	return ledger.NewStore(db, log), func() { ledger.CloseDB(db) }
}

// printResults writes the per-channel outcome table and returns the number
// of failed channels.
func printResults(results []archive.Result) int {
	if len(results) == 0 {
		fmt.Println("No channels archived.")
		return 0
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STATUS\tCHANNEL\tCATEGORY\tDETAIL")
	failures := 0
	for _, res := range results {
		if res.Status == archive.StatusError {
			failures++
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", res.Status, res.ChannelName, res.Category, res.Detail)
	}
	tw.Flush()
	return failures
}

// lookupArchived fetches the channel names that already have a PDF in the
// guild's Drive folder.
func lookupArchived(ctx context.Context, cfg *config.Config, client *discord.Client, guildID string, log *slog.Logger) (map[string]struct{}, error) {
	guilds, err := client.ListGuilds(ctx)
	if err != nil {
		return nil, fmt.Errorf("list guilds: %w", err)
	}
	var guildName string
	for _, g := range guilds {
		if g.ID == guildID {
			guildName = g.Name
			break
		}
	}
	if guildName == "" {
		return nil, fmt.Errorf("bot is not a member of guild %s", guildID)
	}

	svc, err := gdrive.NewService(ctx, cfg.Drive)
	if err != nil {
		return nil, err
	}
	store, err := gdrive.NewStore(svc, cfg.Drive.RootFolder, log)
	if err != nil {
		return nil, err
	}
	return store.ListArchives(ctx, guildName)
}
