package jobplace

import (
	"context"
	"fmt"
	"reflect"

	"github.com/feiskyer/jobplace/places"
)

// PlacesLookup is satisfied by *places.Client.
type PlacesLookup interface {
	Lookup(ctx context.Context, query string) (string, error)
}

// NewPlacesFunction exposes a places lookup as the google_places tool.
func NewPlacesFunction(lookup PlacesLookup) AgentFunction {
	return NewAgentFunction(
		places.ToolName,
		places.ToolDescription,
		func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			query, ok := args["query"].(string)
			if !ok {
				return nil, fmt.Errorf("query not provided")
			}
			return lookup.Lookup(ctx, query)
		},
		[]Parameter{{
			Name:        "query",
			Description: places.QueryDescription,
			Type:        reflect.TypeOf(""),
			Required:    true,
		}},
	)
}
