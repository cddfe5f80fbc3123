// internal/workers/restaurant-search/query-places/models.go
package queryplaces

import "dinediscover/internal/models"

type Input struct {
	Params models.PlaceSearchParams `json:"params"`
}

type Output struct {
	Response models.SearchResponse `json:"response"`
	Cached   bool                  `json:"cached"`
}
