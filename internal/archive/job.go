// Package archive coordinates the channel archiving pipeline: fetch
// history, render HTML, print to PDF, and upload to Drive. The
// orchestrator fans jobs out to isolated worker processes and collects
// one terminal result per channel.
package archive

import (
	"github.com/sankethshetty99/discord-archiver/internal/config"
	"github.com/sankethshetty99/discord-archiver/internal/discord"
)

// Status classifies the terminal outcome of one channel job.
type Status string

const (
	// StatusSuccess means the channel PDF was uploaded.
	StatusSuccess Status = "success"
	// StatusExists means the channel was already archived and skipped.
	StatusExists Status = "exists"
	// StatusEmpty means the channel had no messages to archive.
	StatusEmpty Status = "empty"
	// StatusError means the job failed; Detail says how.
	StatusError Status = "error"
)

// Job carries everything one worker needs to archive a single channel.
// It crosses the process boundary as JSON on the worker's stdin.
type Job struct {
	GuildID   string          `json:"guild_id"`
	GuildName string          `json:"guild_name"`
	Channel   discord.Channel `json:"channel"`
	Config    config.Config   `json:"config"`
}

// Result is the terminal outcome of one channel job. It crosses the
// process boundary as JSON on the worker's stdout.
type Result struct {
	ChannelID   string `json:"channel_id"`
	ChannelName string `json:"channel_name"`
	Category    string `json:"category"`
	Status      Status `json:"status"`
	Detail      string `json:"detail"`
}

// NewJobs pairs every channel with the shared run parameters.
func NewJobs(cfg config.Config, guild discord.Guild, channels []discord.Channel) []Job {
	jobs := make([]Job, 0, len(channels))
	for _, ch := range channels {
		jobs = append(jobs, Job{
			GuildID:   guild.ID,
			GuildName: guild.Name,
			Channel:   ch,
			Config:    cfg,
		})
	}
	return jobs
}
