// Package config provides configuration management for mixer-downloader.
//
// This package handles:
//   - Loading and saving settings from JSON files
//   - Default configuration values
//   - The persisted account record (email, password, last selected URL)
//
// # Default Settings
//
// Use DefaultSettings() to get sensible defaults:
//
//	settings := config.DefaultSettings()
//	// Downloads to ~/Music/Mixes
//	// Headless browser session
//	// ID3 tagging enabled
//
// # Loading from File
//
//	settings, err := config.Load(config.DefaultPath())
//	// settings is always usable; err only signals that the file was
//	// unreadable and defaults were substituted.
//
// A missing or corrupt settings file is never fatal. Load always returns a
// usable Settings value; the error is informational so callers can log it.
//
// # Saving Settings
//
//	settings.LastURL = selectedMixURL
//	err := settings.Save(config.DefaultPath())
package config
