package scheduler

import (
	"context"
	"fmt"
	"time"
)

// newArchiveTask creates the scheduled task that archives the configured
// guild's channels. The guild and optional channel filter come from the
// schedule configuration.
func newArchiveTask(deps TaskDeps) TaskFunc {
	log := deps.Logger.With("task", "archive")

	return func(ctx context.Context) error {
		guildID := deps.Config.Schedule.GuildID
		if guildID == "" {
			return fmt.Errorf("schedule.guild_id is not configured")
		}

		log.InfoContext(ctx, "Starting scheduled archive pass", "guild_id", guildID)
		start := time.Now()

		results, err := deps.Archiver.ArchiveGuild(ctx, guildID, deps.Config.Schedule.Channels)
		if err != nil {
			log.ErrorContext(ctx, "Scheduled archive pass failed",
				"error", err, "duration", time.Since(start))
			return fmt.Errorf("archive pass: %w", err)
		}

		counts := make(map[string]int)
		for _, res := range results {
			counts[string(res.Status)]++
		}
		log.InfoContext(ctx, "Scheduled archive pass completed",
			"channels", len(results), "by_status", counts, "duration", time.Since(start))
		return nil
	}
}
