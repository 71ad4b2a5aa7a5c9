package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig loads and validates configuration from, in order of precedence:
// 1. ARCHIVER_* environment variables
// 2. the YAML file at path (missing file is not an error)
// 3. built-in defaults
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("ARCHIVER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: failed to read config file: %v", ErrConfiguration, err)
		}
		// Missing config file is fine, defaults and environment cover it.
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrConfiguration, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	return cfg, nil
}

// setDefaults registers default values for every known key. Keys without a
// meaningful default get an empty one so that environment-only configuration
// still unmarshals.
func setDefaults(v *viper.Viper) {
	// Logger defaults
	v.SetDefault("logger.level", DefaultLogLevel)
	v.SetDefault("logger.json", DefaultLogJSON)

	// Discord defaults
	v.SetDefault("discord.token", "")

	// Drive defaults
	v.SetDefault("drive.credentials_path", DefaultDriveCredentialsPath)
	v.SetDefault("drive.token_path", DefaultDriveTokenPath)
	v.SetDefault("drive.token_base64", "")
	v.SetDefault("drive.root_folder", DefaultDriveRootFolder)

	// Archive defaults
	v.SetDefault("archive.scratch_dir", filepath.Join(os.TempDir(), "discord-archiver"))
	v.SetDefault("archive.backup_dir", DefaultBackupDir)
	v.SetDefault("archive.max_workers", DefaultMaxWorkers)
	v.SetDefault("archive.upload_retries", DefaultUploadRetries)

	// PDF defaults
	v.SetDefault("pdf.settle_delay", DefaultPDFSettleDelay)
	v.SetDefault("pdf.convert_timeout", DefaultPDFConvertTimeout)

	// Ledger defaults
	v.SetDefault("ledger.path", DefaultLedgerPath)

	// AI summary defaults
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.model", DefaultAIModel)
	v.SetDefault("ai.temperature", DefaultAITemperature)
	v.SetDefault("ai.max_retries", DefaultAIMaxRetries)
	v.SetDefault("ai.retry_delay_seconds", DefaultAIRetryDelaySeconds)

	// Schedule defaults
	v.SetDefault("schedule.guild_id", "")
	v.SetDefault("schedule.channels", []string{})
}
