// Package config provides centralized configuration management for b3data.
// It loads configuration from multiple sources, validates it, and resolves
// the directories the command line tool works in.
//
// # Configuration Sources
//
// Configuration is built in the following order, later sources winning:
//
//	1. Default values (Default)
//	2. A YAML file (B3_CONFIG, or b3data.yaml / config.yaml in the working directory)
//	3. Environment variables
//
// # Environment Variables
//
// All environment variables follow the pattern B3_<SECTION>_<FIELD>:
//
//	B3_LOGGING_LEVEL=debug
//	B3_LOGGING_OUTPUT=both
//	B3_PATHS_OUTPUT_DIR=/srv/b3/output
//	B3_PROCESSING_REGION_CODES=BE,BB
//	B3_TELEMETRY_ENABLE_TRACING=true
//
// # Validation
//
// Every section carries go-playground/validator tags; Load returns a CONFIG
// AppError when any of them fails.
//
// # Path Management
//
// Paths resolves data, output and logs directories relative to a base
// directory (the executable's directory unless configured):
//
//	paths, err := config.GetPaths(cfg.Paths)
//	out := paths.OutputPath("scalars.csv")
package config
