package redis

import "time"

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// BattleTTL is how long a finished battle summary is kept
	BattleTTL time.Duration

	// HistoryLimit caps the length of the battle history index
	HistoryLimit int
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:          "redis://localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
		BattleTTL:    7 * 24 * time.Hour,
		HistoryLimit: 1000,
	}
}
