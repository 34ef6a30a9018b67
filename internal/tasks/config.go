package tasks

import "time"

// Config sizes the worker pool of a Client. Attempts, backoff, timeout and
// retention are set per task type through its backlite.QueueConfig.
type Config struct {
	Workers         int           // Concurrent task workers (default: 2)
	ReleaseAfter    time.Duration // When a stuck task returns to its queue (default: 15m)
	CleanupInterval time.Duration // How often expired tasks are purged (default: 1h)
}

// DefaultConfig returns the pool used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Workers:         2,
		ReleaseAfter:    15 * time.Minute,
		CleanupInterval: time.Hour,
	}
}

// WithDefaults fills every unset or non-positive field of c from
// DefaultConfig.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.Workers <= 0 {
		c.Workers = d.Workers
	}
	if c.ReleaseAfter <= 0 {
		c.ReleaseAfter = d.ReleaseAfter
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = d.CleanupInterval
	}
	return c
}
