// internal/workers/restaurant-search/query-places/config.go
package queryplaces

import (
	"time"

	"dinediscover/internal/common/config"
)

type Config struct {
	Provider string
	BaseURL  string
	APIKey   string
	Index    string
	Timeout  time.Duration
	CacheTTL time.Duration
}

func LoadConfig(places config.PlacesConfig) *Config {
	cfg := &Config{
		Provider: places.Provider,
		BaseURL:  places.BaseURL,
		APIKey:   places.APIKey,
		Index:    places.Index,
		Timeout:  config.GetDuration(places.Timeout),
		CacheTTL: config.GetDuration(places.CacheTTL),
	}
	if cfg.Provider == "" {
		cfg.Provider = config.ProviderFoursquare
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = config.DefaultPlacesBaseURL
	}
	if cfg.Index == "" {
		cfg.Index = "places"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return cfg
}
