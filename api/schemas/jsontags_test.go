package schemas_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xkilldash9x/formpilot/api/schemas"
)

// TestStructJSONTags pins the json tags of types that are written to run
// reports and the shortcut file.
func TestStructJSONTags(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name         string
		structRef    interface{}
		expectedTags map[string]string
	}{
		{
			name:         "FieldValue",
			structRef:    schemas.FieldValue{},
			expectedTags: map[string]string{"Name": "name", "Value": "value"},
		},
		{
			name:         "Fill",
			structRef:    schemas.Fill{},
			expectedTags: map[string]string{"Selector": "selector", "Value": "value"},
		},
		{
			name:         "Upload",
			structRef:    schemas.Upload{},
			expectedTags: map[string]string{"Selector": "selector", "Paths": "paths"},
		},
		{
			name:      "GenerationRequest",
			structRef: schemas.GenerationRequest{},
			expectedTags: map[string]string{
				"SystemPrompt": "system_prompt",
				"UserPrompt":   "user_prompt",
				"Options":      "options",
			},
		},
	}

	for _, tc := range testCases {
		tt := tc
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			structType := reflect.TypeOf(tt.structRef)
			actualTags := make(map[string]string)
			for i := 0; i < structType.NumField(); i++ {
				field := structType.Field(i)
				if jsonTag := field.Tag.Get("json"); jsonTag != "" {
					actualTags[field.Name] = jsonTag
				}
			}
			assert.Equal(t, tt.expectedTags, actualTags, "JSON tags for struct %s do not match expectations", tt.name)
		})
	}
}
