// internal/workers/restaurant-search/record-search/config.go
package recordsearch

import "time"

type Config struct {
	Timeout time.Duration
	// MaxMessageLength truncates stored messages, in runes.
	MaxMessageLength int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:          5 * time.Second,
		MaxMessageLength: 1000,
	}
}
