// Package config provides configuration management for bulk-downloader.
//
// This package handles:
//   - Loading and saving settings from JSON files
//   - Default configuration values
//   - Conversion to download, request and logging configuration
//
// # Default Settings
//
// Use DefaultSettings() to get sensible defaults:
//
//	settings := config.DefaultSettings()
//	// Downloads to ~/Downloads
//	// Existing files are never overwritten
//	// History kept in ~/.config/bulkdl/history.json
//
// # Loading from File
//
//	settings, err := config.Load("/path/to/settings.json")
//	if err != nil {
//	    // Uses defaults if file doesn't exist
//	}
//
// # Environment
//
// BULKDL_REDIS_ADDR moves the download history to Redis:
//
//	BULKDL_REDIS_ADDR=localhost:6379 bulkdl files --skip-downloaded ...
//
// # Configuration Options
//
// Settings includes options for:
//   - Download directory and concurrency
//   - Timeouts, retry behavior and request pacing
//   - Request headers, referer and anonymous mode
//   - Save conflicts, name prefixes and archive folders
//   - Download history
//   - Logging and metrics
package config
