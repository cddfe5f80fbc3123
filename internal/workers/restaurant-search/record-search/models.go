// internal/workers/restaurant-search/record-search/models.go
package recordsearch

import "dinediscover/internal/models"

type Input struct {
	Message     string                   `json:"message"`
	Params      models.PlaceSearchParams `json:"params"`
	ResultCount int                      `json:"resultCount"`
	Status      models.SearchStatus      `json:"status"`
	ErrorCode   string                   `json:"errorCode,omitempty"`
	DurationMs  int64                    `json:"durationMs"`
}

type Output struct {
	Recorded bool   `json:"recorded"`
	ID       string `json:"id,omitempty"`
}
