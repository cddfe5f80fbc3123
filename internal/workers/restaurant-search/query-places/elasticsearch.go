// internal/workers/restaurant-search/query-places/elasticsearch.go
package queryplaces

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"dinediscover/internal/common/database"
	apperrors "dinediscover/internal/common/errors"
	"dinediscover/internal/models"
)

// Searcher is the part of database.ElasticsearchClient the provider needs.
type Searcher interface {
	Search(ctx context.Context, index string, query map[string]interface{}, dst interface{}) error
}

// ElasticsearchProvider searches a local index of place documents shaped like models.Place
// plus "geo" (geo_point), "open_now" (bool) and "price" (int 1..4).
type ElasticsearchProvider struct {
	es    Searcher
	index string
}

var _ Searcher = (*database.ElasticsearchClient)(nil)

func NewElasticsearchProvider(es Searcher, index string) *ElasticsearchProvider {
	return &ElasticsearchProvider{es: es, index: index}
}

func (p *ElasticsearchProvider) Name() string { return "elasticsearch" }

type esHit struct {
	ID     string        `json:"_id"`
	Source models.Place  `json:"_source"`
	Sort   []interface{} `json:"sort"`
}

type esResponse struct {
	Hits struct {
		Hits []esHit `json:"hits"`
	} `json:"hits"`
}

func (p *ElasticsearchProvider) Search(ctx context.Context, params models.PlaceSearchParams) (*models.SearchResponse, error) {
	query, err := BuildQuery(params)
	if err != nil {
		return nil, apperrors.NewPlacesClientError(http.StatusBadRequest, err.Error(), "", "")
	}

	var res esResponse
	if err := p.es.Search(ctx, p.index, query, &res); err != nil {
		return nil, apperrors.NewSearchIndexFailedError(err)
	}

	out := &models.SearchResponse{Results: make([]models.Place, 0, len(res.Hits.Hits))}
	geoSorted := params.Sort == "DISTANCE" && params.LL != ""
	for _, hit := range res.Hits.Hits {
		place := hit.Source
		if place.FsqID == "" {
			place.FsqID = hit.ID
		}
		if geoSorted && len(hit.Sort) > 0 {
			if d, ok := hit.Sort[0].(float64); ok {
				place.Distance = int(d)
			}
		}
		out.Results = append(out.Results, place)
	}
	return out, nil
}

// BuildQuery translates search parameters into an Elasticsearch request body.
func BuildQuery(params models.PlaceSearchParams) (map[string]interface{}, error) {
	must := []interface{}{}
	filter := []interface{}{}

	if params.Query != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  params.Query,
				"fields": []string{"name^3", "categories.name^2"},
				"type":   "best_fields",
			},
		})
	}

	if params.Near != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":    params.Near,
				"fields":   []string{"location.locality^2", "location.region", "location.formatted_address"},
				"operator": "and",
			},
		})
	}

	var lat, lon float64
	if params.LL != "" {
		var err error
		lat, lon, err = parseLL(params.LL)
		if err != nil {
			return nil, err
		}
		if params.Radius != nil && *params.Radius > 0 {
			filter = append(filter, map[string]interface{}{
				"geo_distance": map[string]interface{}{
					"distance": fmt.Sprintf("%dm", *params.Radius),
					"geo":      map[string]interface{}{"lat": lat, "lon": lon},
				},
			})
		}
	}

	if params.NE != "" && params.SW != "" {
		neLat, neLon, err := parseLL(params.NE)
		if err != nil {
			return nil, err
		}
		swLat, swLon, err := parseLL(params.SW)
		if err != nil {
			return nil, err
		}
		filter = append(filter, map[string]interface{}{
			"geo_bounding_box": map[string]interface{}{
				"geo": map[string]interface{}{
					"top_right":   map[string]interface{}{"lat": neLat, "lon": neLon},
					"bottom_left": map[string]interface{}{"lat": swLat, "lon": swLon},
				},
			},
		})
	}

	if params.OpenNow != nil && *params.OpenNow {
		filter = append(filter, map[string]interface{}{
			"term": map[string]interface{}{"open_now": true},
		})
	}

	if params.Price != "" {
		levels := []int{}
		for _, s := range strings.Split(params.Price, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(s))
			if err != nil || n < 1 || n > 4 {
				return nil, fmt.Errorf("invalid price level %q", s)
			}
			levels = append(levels, n)
		}
		filter = append(filter, map[string]interface{}{
			"terms": map[string]interface{}{"price": levels},
		})
	}

	size := 10
	if params.Limit != nil && *params.Limit > 0 {
		size = *params.Limit
	}

	body := map[string]interface{}{
		"size": size,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must":   must,
				"filter": filter,
			},
		},
	}

	if params.Sort == "DISTANCE" && params.LL != "" {
		body["sort"] = []interface{}{
			map[string]interface{}{
				"_geo_distance": map[string]interface{}{
					"geo":   map[string]interface{}{"lat": lat, "lon": lon},
					"order": "asc",
					"unit":  "m",
				},
			},
		}
	}
	return body, nil
}

func parseLL(ll string) (float64, float64, error) {
	latStr, lonStr, ok := strings.Cut(ll, ",")
	if !ok {
		return 0, 0, fmt.Errorf("invalid coordinates %q", ll)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid latitude in %q", ll)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid longitude in %q", ll)
	}
	return lat, lon, nil
}
