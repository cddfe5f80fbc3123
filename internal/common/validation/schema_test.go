package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"message": map[string]interface{}{"type": "string", "minLength": 1},
		"radius":  map[string]interface{}{"type": "integer", "maximum": 100000},
		"sort":    map[string]interface{}{"type": "string", "enum": []interface{}{"RELEVANCE", "DISTANCE"}},
	},
	"required": []interface{}{"message"},
}

func TestValidate_Valid(t *testing.T) {
	res, err := Validate(testSchema, map[string]interface{}{"message": "pho", "radius": 500})
	require.NoError(t, err)
	assert.True(t, res.Valid)
	_, has := res.First()
	assert.False(t, has)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name      string
		doc       map[string]interface{}
		wantField string
		wantCode  string
	}{
		{"missing required", map[string]interface{}{}, "message", "REQUIRED"},
		{"too far", map[string]interface{}{"message": "x", "radius": 200000}, "radius", "NUMBER_LTE"},
		{"bad enum", map[string]interface{}{"message": "x", "sort": "RATING"}, "sort", "ENUM"},
		{"wrong type", map[string]interface{}{"message": "x", "radius": "far"}, "radius", "INVALID_TYPE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Validate(testSchema, tt.doc)
			require.NoError(t, err)
			assert.False(t, res.Valid)

			first, ok := res.First()
			require.True(t, ok)
			assert.Equal(t, tt.wantField, first.Field)
			assert.Equal(t, tt.wantCode, first.Code)
			assert.NotEmpty(t, first.Message)
			assert.True(t, res.HasErrors(tt.wantField))
		})
	}
}

func TestValidate_StructDocument(t *testing.T) {
	type doc struct {
		Message string `json:"message"`
		Radius  int    `json:"radius,omitempty"`
	}
	res, err := Validate(testSchema, doc{Message: ""})
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, []string{"message: String length must be greater than or equal to 1"}, res.GetErrorMessages())
}

func TestValidate_BadSchema(t *testing.T) {
	_, err := Validate(map[string]interface{}{"type": 12}, map[string]interface{}{})
	assert.Error(t, err)
}
