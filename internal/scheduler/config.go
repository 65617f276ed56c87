package scheduler

import (
	"strings"
	"time"
)

// Config controls scheduler cadence, batch sizes and the overlap guard.
type Config struct {
	RunInterval  time.Duration
	JobTimeout   time.Duration
	BatchSize    int
	LockTTL      time.Duration
	DisabledJobs []string
}

func DefaultConfig() Config {
	return Config{
		RunInterval: time.Minute,
		JobTimeout:  30 * time.Second,
		BatchSize:   50,
		LockTTL:     2 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaults.BatchSize
	}
	if c.LockTTL <= 0 {
		c.LockTTL = defaults.LockTTL
	}
	return c
}

func (c Config) isJobEnabled(name string) bool {
	for _, disabled := range c.DisabledJobs {
		if strings.EqualFold(strings.TrimSpace(disabled), name) {
			return false
		}
	}
	return true
}
