// internal/workers/restaurant-search/parse-search-request/config.go
package parsesearchrequest

import (
	"time"

	"dinediscover/internal/common/config"
)

const DefaultSystemPrompt = "You are a helpful assistant that converts user requests into Foursquare API search parameters. " +
	"Call the restaurant_search function with the extracted parameters. " +
	"Determine location from the user query ('near' field is usually best unless coordinates are given). " +
	"Only use parameters explicitly mentioned or strongly implied by the user. " +
	"Do NOT attempt to filter by minimum rating, as it is not supported."

type Config struct {
	BaseURL      string
	APIKey       string
	Model        string
	SystemPrompt string
	DefaultLimit int
	Timeout      time.Duration
}

func LoadConfig(llm config.LLMConfig) *Config {
	cfg := &Config{
		BaseURL:      llm.BaseURL,
		APIKey:       llm.APIKey,
		Model:        llm.Model,
		SystemPrompt: llm.SystemPrompt,
		DefaultLimit: 10,
		Timeout:      config.GetDuration(llm.Timeout),
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = config.DefaultLLMBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = config.DefaultLLMModel
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return cfg
}
