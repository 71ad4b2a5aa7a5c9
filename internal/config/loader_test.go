package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sankethshetty99/discord-archiver/internal/config"
)

// Subtests mutate the environment via t.Setenv, so nothing here runs in parallel.
func TestLoadConfig(t *testing.T) {
	t.Run("defaults with token from environment", func(t *testing.T) {
		t.Setenv("ARCHIVER_DISCORD_TOKEN", "abc123")

		cfg, err := config.LoadConfig(filepath.Join(t.TempDir(), "config.yaml"))
		if err != nil {
			t.Fatalf("LoadConfig returned error: %v", err)
		}

		if cfg.Discord.Token != "abc123" {
			t.Errorf("Discord.Token = %q, want %q", cfg.Discord.Token, "abc123")
		}
		if cfg.Logger.Level != config.DefaultLogLevel {
			t.Errorf("Logger.Level = %q, want %q", cfg.Logger.Level, config.DefaultLogLevel)
		}
		if cfg.Archive.MaxWorkers != config.DefaultMaxWorkers {
			t.Errorf("Archive.MaxWorkers = %d, want %d", cfg.Archive.MaxWorkers, config.DefaultMaxWorkers)
		}
		if cfg.Archive.UploadRetries != config.DefaultUploadRetries {
			t.Errorf("Archive.UploadRetries = %d, want %d", cfg.Archive.UploadRetries, config.DefaultUploadRetries)
		}
		if cfg.Drive.RootFolder != config.DefaultDriveRootFolder {
			t.Errorf("Drive.RootFolder = %q, want %q", cfg.Drive.RootFolder, config.DefaultDriveRootFolder)
		}
		if cfg.PDF.SettleDelay != time.Second {
			t.Errorf("PDF.SettleDelay = %v, want %v", cfg.PDF.SettleDelay, time.Second)
		}
		if cfg.Ledger.Path != config.DefaultLedgerPath {
			t.Errorf("Ledger.Path = %q, want %q", cfg.Ledger.Path, config.DefaultLedgerPath)
		}
		if cfg.SummaryEnabled() {
			t.Error("SummaryEnabled() = true without an API key")
		}
	})

	t.Run("missing token fails validation", func(t *testing.T) {
		_, err := config.LoadConfig(filepath.Join(t.TempDir(), "config.yaml"))
		if !errors.Is(err, config.ErrConfiguration) {
			t.Fatalf("LoadConfig error = %v, want ErrConfiguration", err)
		}
	})

	t.Run("file values override defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		content := []byte("discord:\n  token: file-token\narchive:\n  max_workers: 8\nlogger:\n  level: debug\n")
		if err := os.WriteFile(path, content, 0o600); err != nil {
			t.Fatalf("writing config file: %v", err)
		}

		cfg, err := config.LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig returned error: %v", err)
		}
		if cfg.Discord.Token != "file-token" {
			t.Errorf("Discord.Token = %q, want %q", cfg.Discord.Token, "file-token")
		}
		if cfg.Archive.MaxWorkers != 8 {
			t.Errorf("Archive.MaxWorkers = %d, want 8", cfg.Archive.MaxWorkers)
		}
		if cfg.Logger.Level != "debug" {
			t.Errorf("Logger.Level = %q, want %q", cfg.Logger.Level, "debug")
		}
	})

	t.Run("environment overrides file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte("discord:\n  token: file-token\n"), 0o600); err != nil {
			t.Fatalf("writing config file: %v", err)
		}
		t.Setenv("ARCHIVER_DISCORD_TOKEN", "env-token")

		cfg, err := config.LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig returned error: %v", err)
		}
		if cfg.Discord.Token != "env-token" {
			t.Errorf("Discord.Token = %q, want %q", cfg.Discord.Token, "env-token")
		}
	})

	t.Run("invalid log level rejected", func(t *testing.T) {
		t.Setenv("ARCHIVER_DISCORD_TOKEN", "abc123")
		t.Setenv("ARCHIVER_LOGGER_LEVEL", "loud")

		_, err := config.LoadConfig(filepath.Join(t.TempDir(), "config.yaml"))
		if !errors.Is(err, config.ErrConfiguration) {
			t.Fatalf("LoadConfig error = %v, want ErrConfiguration", err)
		}
	})
}

func TestValidateForWatch(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		schedule config.ScheduleConfig
		wantErr  bool
	}{
		{
			name:     "no tasks configured",
			schedule: config.ScheduleConfig{},
			wantErr:  true,
		},
		{
			name: "enabled task without schedule",
			schedule: config.ScheduleConfig{
				Tasks: map[string]config.TaskConfig{
					"archive": {Enabled: true},
				},
			},
			wantErr: true,
		},
		{
			name: "archive task without guild",
			schedule: config.ScheduleConfig{
				Tasks: map[string]config.TaskConfig{
					"archive": {Enabled: true, Schedule: "0 3 * * *"},
				},
			},
			wantErr: true,
		},
		{
			name: "archive task with guild",
			schedule: config.ScheduleConfig{
				GuildID: "123",
				Tasks: map[string]config.TaskConfig{
					"archive": {Enabled: true, Schedule: "0 3 * * *"},
				},
			},
			wantErr: false,
		},
		{
			name: "maintenance task alone",
			schedule: config.ScheduleConfig{
				Tasks: map[string]config.TaskConfig{
					"ledger_maintenance": {Enabled: true, Schedule: "0 4 * * 0"},
				},
			},
			wantErr: false,
		},
		{
			name: "disabled tasks do not count",
			schedule: config.ScheduleConfig{
				Tasks: map[string]config.TaskConfig{
					"archive": {Enabled: false, Schedule: "0 3 * * *"},
				},
			},
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := &config.Config{Schedule: tc.schedule}
			err := cfg.ValidateForWatch()
			if (err != nil) != tc.wantErr {
				t.Errorf("ValidateForWatch() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
