package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_RestaurantSearchTool(t *testing.T) {
	reg := Default()
	require.NoError(t, reg.Validate())

	tool, ok := reg.Find(RestaurantSearchTool)
	require.True(t, ok)
	assert.Equal(t, TaskQueryPlaces, tool.TaskType)

	props := tool.Parameters["properties"].(map[string]interface{})
	for _, name := range []string{"query", "ll", "near", "radius", "limit", "open_now", "price", "sort"} {
		assert.Contains(t, props, name)
	}
	assert.Equal(t, MaxRadius, props["radius"].(map[string]interface{})["maximum"])
	assert.Empty(t, tool.Parameters["required"])

	_, ok = reg.Find("weather_lookup")
	assert.False(t, ok)
}

func TestDefault_Activities(t *testing.T) {
	reg := Default()
	for _, task := range []string{TaskParseSearchRequest, TaskQueryPlaces, TaskRecordSearch} {
		a, ok := reg.FindActivity(task)
		require.True(t, ok, task)
		assert.NotEmpty(t, a.ErrorCodes)
	}
}

func TestOpenAITools(t *testing.T) {
	tools := Default().OpenAITools()
	require.Len(t, tools, 1)
	assert.Equal(t, "function", tools[0]["type"])
	fn := tools[0]["function"].(map[string]interface{})
	assert.Equal(t, RestaurantSearchTool, fn["name"])
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tool-registry.json")
	require.NoError(t, Default().Save(path))

	reg, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", reg.Version)
	_, ok := reg.Find(RestaurantSearchTool)
	assert.True(t, ok)

	viaDefault, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Len(t, viaDefault.Tools, 1)
}

func TestLoadRegistry_Invalid(t *testing.T) {
	dir := t.TempDir()

	dup := filepath.Join(dir, "dup.json")
	require.NoError(t, os.WriteFile(dup, []byte(`{"tools":[
		{"name":"a","parameters":{"type":"object"}},
		{"name":"a","parameters":{"type":"object"}}
	]}`), 0o600))
	_, err := LoadRegistry(dup)
	assert.ErrorContains(t, err, "duplicate tool")

	notObject := filepath.Join(dir, "obj.json")
	require.NoError(t, os.WriteFile(notObject, []byte(`{"tools":[{"name":"a","parameters":{"type":"string"}}]}`), 0o600))
	_, err = LoadRegistry(notObject)
	assert.ErrorContains(t, err, "object schema")

	_, err = LoadRegistry(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
