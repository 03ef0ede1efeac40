package config

import "b3data/pkg/contracts"

// Application constants
const (
	AppName    = "b3data"
	AppVersion = contracts.Version

	// EnvPrefix namespaces every environment variable, e.g. B3_LOGGING_LEVEL.
	EnvPrefix = "B3"

	// TimestampLayout is how timestamps are written to CSV.
	TimestampLayout = "2006-01-02 15:04:05"

	// File Paths (relative to the base directory)
	DefaultDataDir   = "data"
	DefaultOutputDir = "output"
	DefaultLogsDir   = "logs"
	DefaultLogFile   = "logs/b3data.log"

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)
