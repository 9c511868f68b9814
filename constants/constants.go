package constants

import "time"

const (
	ParquetFileExt = "parquet"
	OlakeID        = "_olake_id"
	OlakeTimestamp = "_olake_timestamp"

	// viper keys
	ConfigFolder  = "CONFIG_FOLDER"
	StatePath     = "STATE_PATH"
	StreamsPath   = "STREAMS_PATH"
	EncryptionKey = "ENCRYPTION_KEY"
	LogLevel      = "LOG_LEVEL"
	MetricsAddr   = "METRICS_ADDR"
)

// monday.com API defaults
const (
	MondayAPIURL          = "https://api.monday.com/v2"
	MondayAPIVersion      = "2025-07"
	DefaultRequestTimeout = 300 * time.Second
	DefaultMaxRetries     = 5
	DefaultRateLimit      = 5
	DefaultPageSize       = 100
	BoardItemsPageSize    = 20
	ActivityLogsPageSize  = 1000
)
