// Package config provides configuration management for the sync service.
//
// It utilizes Viper for loading configuration from environment variables and
// an optional .env file.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings,
// divided into subsections:
//   - Server: HTTP trigger server settings (port, API key)
//   - Log: logging level and format
//   - Database: MySQL audit database connection details
//   - Archive: object storage for run report JSON
//   - Sheets / Glide: store API credentials and tuning
//   - Webhook: run event emission
//   - Sync: the sync unit declarations (SYNC_UNITS_JSON)
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	units, _ := cfg.Units()
package config
