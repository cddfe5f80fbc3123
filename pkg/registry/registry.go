// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
)

func LoadRegistry(path string) (*ToolRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ToolRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	if err := reg.Validate(); err != nil {
		return nil, fmt.Errorf("registry %s: %w", path, err)
	}
	return &reg, nil
}

// LoadOrDefault reads path when set, otherwise returns the built-in registry.
func LoadOrDefault(path string) (*ToolRegistry, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadRegistry(path)
}

// Save writes the registry as indented JSON.
func (r *ToolRegistry) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// Find returns the tool with the given name.
func (r *ToolRegistry) Find(name string) (Tool, bool) {
	for _, t := range r.Tools {
		if t.Name == name {
			return t, true
		}
	}
	return Tool{}, false
}

func (r *ToolRegistry) FindActivity(taskType string) (Activity, bool) {
	for _, a := range r.Activities {
		if a.TaskType == taskType {
			return a, true
		}
	}
	return Activity{}, false
}

// Validate checks names are unique and every tool has an object schema.
func (r *ToolRegistry) Validate() error {
	seen := make(map[string]bool, len(r.Tools))
	for _, t := range r.Tools {
		if t.Name == "" {
			return fmt.Errorf("tool with empty name")
		}
		if seen[t.Name] {
			return fmt.Errorf("duplicate tool %q", t.Name)
		}
		seen[t.Name] = true
		if typ, _ := t.Parameters["type"].(string); typ != "object" {
			return fmt.Errorf("tool %q: parameters must be an object schema", t.Name)
		}
	}

	tasks := make(map[string]bool, len(r.Activities))
	for _, a := range r.Activities {
		if a.TaskType == "" {
			return fmt.Errorf("activity %q has no taskType", a.ID)
		}
		if tasks[a.TaskType] {
			return fmt.Errorf("duplicate taskType %q", a.TaskType)
		}
		tasks[a.TaskType] = true
	}
	return nil
}

// OpenAITools renders the tools in the chat completions "tools" format.
func (r *ToolRegistry) OpenAITools() []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(r.Tools))
	for _, t := range r.Tools {
		out = append(out, t.OpenAI())
	}
	return out
}

func (t Tool) OpenAI() map[string]interface{} {
	return map[string]interface{}{
		"type": "function",
		"function": map[string]interface{}{
			"name":        t.Name,
			"description": t.Description,
			"parameters":  t.Parameters,
		},
	}
}

// Default is the registry compiled into the binaries.
func Default() *ToolRegistry {
	return &ToolRegistry{
		Version:     "1.0.0",
		LastUpdated: "2026-10-19",
		Tools: []Tool{
			{
				Name:        RestaurantSearchTool,
				Description: "Search for restaurants using the Foursquare Places API.",
				TaskType:    TaskQueryPlaces,
				Parameters:  restaurantSearchParameters(),
			},
		},
		Activities: []Activity{
			{
				ID:          TaskParseSearchRequest,
				DisplayName: "Parse Search Request",
				Description: "Turns a chat message into place search parameters with an LLM tool call.",
				TaskType:    TaskParseSearchRequest,
				InputSchema: objectSchema([]interface{}{"message"}, map[string]interface{}{
					"message": map[string]interface{}{"type": "string", "minLength": 1},
				}),
				OutputSchema: objectSchema([]interface{}{"params"}, map[string]interface{}{
					"params":   map[string]interface{}{"type": "object"},
					"toolName": map[string]interface{}{"type": "string"},
				}),
				ErrorCodes: []string{"LLM_REQUEST_FAILED", "LLM_TIMEOUT", "NO_TOOL_CALL", "INVALID_TOOL_ARGUMENTS", "INVALID_SEARCH_PARAMS", "MISSING_LOCATION"},
				Timeout:    "30s",
				Retries:    3,
			},
			{
				ID:          TaskQueryPlaces,
				DisplayName: "Query Places",
				Description: "Searches the configured places provider.",
				TaskType:    TaskQueryPlaces,
				InputSchema: objectSchema([]interface{}{"params"}, map[string]interface{}{
					"params": map[string]interface{}{"type": "object"},
				}),
				OutputSchema: objectSchema([]interface{}{"response"}, map[string]interface{}{
					"response": map[string]interface{}{"type": "object"},
					"cached":   map[string]interface{}{"type": "boolean"},
				}),
				ErrorCodes: []string{"PLACES_NOT_CONFIGURED", "PLACES_CLIENT_ERROR", "PLACES_UNAVAILABLE", "PLACES_CONNECTION_FAILED", "PLACES_RESPONSE_INVALID", "SEARCH_INDEX_FAILED"},
				Timeout:    "10s",
				Retries:    3,
			},
			{
				ID:          TaskRecordSearch,
				DisplayName: "Record Search",
				Description: "Appends the outcome of a search to the search log.",
				TaskType:    TaskRecordSearch,
				InputSchema: objectSchema([]interface{}{"message", "status"}, map[string]interface{}{
					"message":     map[string]interface{}{"type": "string"},
					"status":      map[string]interface{}{"type": "string", "enum": []interface{}{"succeeded", "failed"}},
					"params":      map[string]interface{}{"type": "object"},
					"resultCount": map[string]interface{}{"type": "integer", "minimum": 0},
					"errorCode":   map[string]interface{}{"type": "string"},
					"durationMs":  map[string]interface{}{"type": "integer", "minimum": 0},
				}),
				OutputSchema: objectSchema([]interface{}{"recorded"}, map[string]interface{}{
					"recorded": map[string]interface{}{"type": "boolean"},
					"id":       map[string]interface{}{"type": "string"},
				}),
				ErrorCodes: []string{"SEARCH_LOG_FAILED"},
				Timeout:    "5s",
				Retries:    3,
			},
		},
	}
}
