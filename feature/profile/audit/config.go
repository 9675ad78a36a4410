package audit

// Config holds configuration for the scheduled consistency audit.
type Config struct {
	// Enabled gates the bounded audit. When false the scheduled and
	// on-demand bounded audits are skipped entirely.
	Enabled bool `mapstructure:"enabled" default:"false"`
	// WindowMinutes bounds the audit to users mutated within the last
	// N minutes.
	WindowMinutes int `mapstructure:"window_minutes" default:"60"`
	// MaxScan caps the number of users a bounded audit examines.
	MaxScan int `mapstructure:"max_scan" default:"500"`
	// Cron is the schedule for the bounded audit, with a seconds field.
	Cron string `mapstructure:"cron" default:"0 0 */1 * * *"`
	// BatchSize is the page size for full-population scans.
	BatchSize int `mapstructure:"batch_size" default:"200"`
}
