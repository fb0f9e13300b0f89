package api

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/geodash/internal/schema"
)

// Pinger reports store reachability.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type InfoHandler struct {
	db             Pinger
	dbSchema       string
	selectionScope string
}

func NewInfoHandler(db Pinger, dbSchema, selectionScope string) *InfoHandler {
	return &InfoHandler{db: db, dbSchema: dbSchema, selectionScope: selectionScope}
}

func (h *InfoHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/info", h.GetInfo, huma.OperationTags("health"))
}

type InfoBody struct {
	Name           string   `json:"name" doc:"Service name"`
	Version        string   `json:"version" doc:"Service version"`
	DB             bool     `json:"db" doc:"Whether the database answered a ping"`
	Schema         string   `json:"schema" doc:"Database schema holding the tables"`
	SelectionScope string   `json:"selection_scope" doc:"global or session"`
	Tables         []string `json:"tables" doc:"Queryable tables"`
	Features       []string `json:"features" doc:"Available features"`
}

func (h *InfoHandler) GetInfo(ctx context.Context, input *struct{}) (*struct{ Body InfoBody }, error) {
	dbOK := false
	if h.db != nil {
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		dbOK = h.db.PingContext(pctx) == nil
		cancel()
	}
	return &struct{ Body InfoBody }{Body: InfoBody{
		Name:           "geodash",
		Version:        Version,
		DB:             dbOK,
		Schema:         h.dbSchema,
		SelectionScope: h.selectionScope,
		Tables:         schema.AllowedTables(),
		Features:       []string{"pie", "bar", "bar-grouped", "line", "sunburst", "presets", "geojson", "events"},
	}}, nil
}
