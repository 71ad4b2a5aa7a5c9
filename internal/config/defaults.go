package config

import "time"

// Default values for configuration
const (
	// Log defaults
	DefaultLogLevel = "info"
	DefaultLogJSON  = true

	// Drive defaults
	DefaultDriveCredentialsPath = "credentials.json"
	DefaultDriveTokenPath       = "token.json"
	DefaultDriveRootFolder      = "Discord Archive"

	// Archive defaults
	DefaultBackupDir     = "Local_Backup_PDFs"
	DefaultMaxWorkers    = 4 // Concurrent channel workers
	DefaultUploadRetries = 3 // Attempts per upload before local fallback

	// PDF defaults
	DefaultPDFSettleDelay    = time.Second // Let images and fonts finish loading
	DefaultPDFConvertTimeout = 2 * time.Minute

	// Ledger defaults
	DefaultLedgerPath = "archiver.db"

	// AI summary defaults
	DefaultAIModel             = "gemini-2.0-flash"
	DefaultAITemperature       = 0.3 // Summaries should stay close to the transcript
	DefaultAIMaxRetries        = 2
	DefaultAIRetryDelaySeconds = 5
)
