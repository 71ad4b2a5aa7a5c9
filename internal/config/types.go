// Package config manages application configuration from environment variables,
// an optional YAML file, and built-in defaults.
package config

import (
	"errors"
	"time"
)

// ErrConfiguration wraps every failure to load or validate configuration.
var ErrConfiguration = errors.New("configuration error")

// Config defines the application configuration. Values can be set via
// environment variables prefixed with ARCHIVER_ (e.g. ARCHIVER_DISCORD_TOKEN)
// or through a YAML config file.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger"`
	Discord  DiscordConfig  `mapstructure:"discord"`
	Drive    DriveConfig    `mapstructure:"drive"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	PDF      PDFConfig      `mapstructure:"pdf"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	AI       AIConfig       `mapstructure:"ai"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
}

// LoggerConfig controls log verbosity and output format.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// DiscordConfig holds the bot credentials for the message source.
type DiscordConfig struct {
	Token string `mapstructure:"token" validate:"required"`
}

// DriveConfig holds Google Drive credential locations and the archive root.
// TokenBase64, when set, takes precedence over TokenPath so workers can
// receive the token inline without a shared filesystem.
type DriveConfig struct {
	CredentialsPath string `mapstructure:"credentials_path"`
	TokenPath       string `mapstructure:"token_path"`
	TokenBase64     string `mapstructure:"token_base64"`
	RootFolder      string `mapstructure:"root_folder" validate:"required"`
}

// ArchiveConfig controls worker fan-out and local directories.
type ArchiveConfig struct {
	ScratchDir    string `mapstructure:"scratch_dir" validate:"required"`
	BackupDir     string `mapstructure:"backup_dir" validate:"required"`
	MaxWorkers    int    `mapstructure:"max_workers" validate:"min=1,max=32"`
	UploadRetries int    `mapstructure:"upload_retries" validate:"min=1,max=10"`
}

// PDFConfig controls the HTML to PDF conversion step.
type PDFConfig struct {
	SettleDelay    time.Duration `mapstructure:"settle_delay" validate:"min=0"`
	ConvertTimeout time.Duration `mapstructure:"convert_timeout" validate:"required,min=1s"`
}

// LedgerConfig locates the run-history database.
type LedgerConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// AIConfig configures the optional channel summary generation.
// Summaries are disabled when APIKey is empty.
type AIConfig struct {
	APIKey            string  `mapstructure:"api_key"`
	Model             string  `mapstructure:"model"`
	Temperature       float32 `mapstructure:"temperature" validate:"gte=0,lte=2"`
	MaxRetries        int     `mapstructure:"max_retries" validate:"min=0,max=10"`
	RetryDelaySeconds int     `mapstructure:"retry_delay_seconds" validate:"min=0"`
}

// ScheduleConfig configures watch mode: which tasks run on which cron
// schedules, and which guild the scheduled archive task targets.
type ScheduleConfig struct {
	GuildID  string                `mapstructure:"guild_id"`
	Channels []string              `mapstructure:"channels"`
	Tasks    map[string]TaskConfig `mapstructure:"tasks"`
}

// TaskConfig enables a named scheduled task with a cron expression.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}
