package api

import (
	"fmt"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// links maps operation paths to their RFC 8288 Link header values.
// Enables restish hypermedia navigation via `restish links <url>`.
var links = map[string][]string{
	"/health": {
		`</api/v1/info>; rel="info"`,
		`</api/v1/tables>; rel="tables"`,
		`</api/v1/selection>; rel="selection"`,
		`</api/v1/presets>; rel="presets"`,
		`</openapi.json>; rel="service-desc"`,
		`</docs>; rel="service-doc"`,
	},
	"/api/v1/info": {
		`</health>; rel="health"`,
		`</api/v1/tables>; rel="tables"`,
	},
	"/api/v1/tables": {
		`</api/v1/columns/{table}>; rel="item"`,
		`</api/v1/validate-layer-structure>; rel="validate"`,
	},
	"/api/v1/columns/{table}": {
		`</api/v1/tables>; rel="collection"`,
	},
	"/api/v1/geojson/{table}": {
		`</api/v1/tables>; rel="collection"`,
	},
	"/api/v1/presets": {
		`</api/v1/presets/{id}>; rel="item"`,
	},
	"/api/v1/presets/{id}": {
		`</api/v1/presets>; rel="collection"`,
	},
	"/api/v1/selection": {
		`</api/v1/events>; rel="monitor"`,
	},
}

// LinkTransformer returns a Huma Transformer that injects RFC 8288 Link headers.
func LinkTransformer() huma.Transformer {
	return func(ctx huma.Context, status string, v any) (any, error) {
		op := ctx.Operation()
		if op == nil {
			return v, nil
		}

		for _, link := range links[op.Path] {
			ctx.AppendHeader("Link", link)
		}

		// Item endpoints get a self link
		if strings.Contains(op.Path, "{") {
			ctx.AppendHeader("Link", fmt.Sprintf(`<%s>; rel="self"`, ctx.URL().Path))
		}

		return v, nil
	}
}
