package ledger

import (
	"database/sql"
	"time"
)

// Run is one archiving invocation over a guild.
type Run struct {
	ID            uint         `db:"id"`
	GuildID       string       `db:"guild_id"`
	GuildName     string       `db:"guild_name"`
	ChannelsTotal int          `db:"channels_total"`
	StartedAt     time.Time    `db:"started_at"`
	FinishedAt    sql.NullTime `db:"finished_at"`
}

// RunResult is the terminal outcome of one channel within a run.
type RunResult struct {
	ID          uint      `db:"id"`
	RunID       uint      `db:"run_id"`
	ChannelID   string    `db:"channel_id"`
	ChannelName string    `db:"channel_name"`
	Category    string    `db:"category"`
	Status      string    `db:"status"`
	Detail      string    `db:"detail"`
	CreatedAt   time.Time `db:"created_at"`
}
