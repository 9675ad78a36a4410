// Package config provides configuration management for the profile sync
// service.
//
// It utilizes Viper for loading configuration from environment variables and
// a .env file. The Config struct is the central repository for all
// application settings, divided into subsections:
//   - Server: HTTP server settings (port, API key)
//   - Database: MySQL connection details
//   - Storage: S3/MinIO credentials and avatar bucket settings
//   - Log: Logging level and format
//   - Events: dispatch pool sizing for the in-process event bus
//   - Audit: feature flag, recency window and cap for the scheduled audit
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Server.Port)
package config
