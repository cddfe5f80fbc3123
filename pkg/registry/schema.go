// pkg/registry/schema.go
package registry

// ToolRegistry lists the LLM tools the parser may call and the pipeline activities that serve them.
type ToolRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Tools       []Tool     `json:"tools"`
	Activities  []Activity `json:"activities"`
}

// Tool is an OpenAI-style function definition. Parameters is a JSON Schema object.
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	TaskType    string                 `json:"taskType"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// Activity describes one job worker in the search pipeline.
type Activity struct {
	ID           string                 `json:"id"`
	DisplayName  string                 `json:"displayName"`
	Description  string                 `json:"description"`
	TaskType     string                 `json:"taskType"`
	InputSchema  map[string]interface{} `json:"inputSchema"`
	OutputSchema map[string]interface{} `json:"outputSchema"`
	ErrorCodes   []string               `json:"errorCodes"`
	Timeout      string                 `json:"timeout"`
	Retries      int                    `json:"retries"`
}

const (
	RestaurantSearchTool = "restaurant_search"

	TaskParseSearchRequest = "parse-search-request"
	TaskQueryPlaces        = "query-places"
	TaskRecordSearch       = "record-search"

	MaxRadius = 100000
	MaxLimit  = 50
)

// restaurantSearchParameters is the schema the LLM fills in. Nothing is required;
// the location rule is checked after validation because it spans several fields.
func restaurantSearchParameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "The type of food or restaurant name (e.g., 'pizza', 'sushi', 'Joe's Diner').",
			},
			"ll": map[string]interface{}{
				"type":        "string",
				"description": "Latitude and longitude (e.g., '40.7128,-74.0060'). Use only when coordinates are given.",
				"pattern":     `^\s*-?\d+(\.\d+)?\s*,\s*-?\d+(\.\d+)?\s*$`,
			},
			"near": map[string]interface{}{
				"type":        "string",
				"description": "A city, neighborhood or address to search near (e.g., 'downtown Los Angeles').",
			},
			"radius": map[string]interface{}{
				"type":        "integer",
				"description": "Search radius in meters around ll.",
				"minimum":     1,
				"maximum":     MaxRadius,
			},
			"limit": map[string]interface{}{
				"type":        "integer",
				"description": "Number of results to return.",
				"default":     10,
				"minimum":     1,
				"maximum":     MaxLimit,
			},
			"open_now": map[string]interface{}{
				"type":        "boolean",
				"description": "Only return places that are open right now.",
			},
			"price": map[string]interface{}{
				"type":        "string",
				"description": "Comma separated price levels from 1 (cheapest) to 4 (most expensive), e.g. '1,2'.",
				"pattern":     `^[1-4](,[1-4])*$`,
			},
			"sort": map[string]interface{}{
				"type":        "string",
				"description": "How to order results.",
				"enum":        []interface{}{"RELEVANCE", "DISTANCE"},
			},
		},
		"required": []interface{}{},
	}
}

func objectSchema(required []interface{}, props map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}
