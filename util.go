package jobplace

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/openai/openai-go"
)

// FunctionToTool converts an AgentFunction to an OpenAI function tool definition
func FunctionToTool(f AgentFunction) openai.ChatCompletionToolParam {
	properties := make(map[string]interface{})
	required := make([]string, 0)

	for _, p := range f.Parameters() {
		prop := map[string]interface{}{}

		// If the type is a struct, try to get field names
		if p.Type != nil && p.Type.Kind() == reflect.Struct {
			structProperties := make(map[string]interface{})
			for j := 0; j < p.Type.NumField(); j++ {
				field := p.Type.Field(j)
				structProperties[jsonFieldName(field)] = map[string]interface{}{
					"type": getJSONType(field.Type),
				}
			}
			prop["type"] = "object"
			prop["properties"] = structProperties
		} else {
			prop["type"] = getJSONType(p.Type)
		}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		properties[p.Name] = prop

		if p.Required {
			required = append(required, p.Name)
		}
	}

	return openai.ChatCompletionToolParam{
		Function: openai.FunctionDefinitionParam{
			Name:        f.Name(),
			Description: openai.String(f.Description()),
			Parameters: openai.FunctionParameters{
				"type":       "object",
				"properties": properties,
				"required":   required,
			},
		},
	}
}

func jsonFieldName(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "" || tag == "-" {
		return field.Name
	}
	for i := 0; i < len(tag); i++ {
		if tag[i] == ',' {
			if i == 0 {
				return field.Name
			}
			return tag[:i]
		}
	}
	return tag
}

// getJSONType converts Go types to JSON schema types
func getJSONType(t reflect.Type) string {
	if t == nil {
		return "string"
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	case reflect.Interface:
		return "object" // Handle interface{} as generic object
	default:
		return "string" // Default to string for unknown types
	}
}

// stringifyResult renders a function's return value as tool message content.
func stringifyResult(v interface{}) (string, error) {
	switch r := v.(type) {
	case nil:
		return "", nil
	case string:
		return r, nil
	case *Result:
		return r.Value, nil
	case Result:
		return r.Value, nil
	case fmt.Stringer:
		return r.String(), nil
	case map[string]interface{}, []interface{}:
		b, err := json.Marshal(r)
		if err != nil {
			return "", fmt.Errorf("failed to marshal result: %w", err)
		}
		return string(b), nil
	default:
		str := fmt.Sprintf("%v", r)
		if str == "" {
			return "", fmt.Errorf("failed to cast response to string: %v", v)
		}
		return str, nil
	}
}
