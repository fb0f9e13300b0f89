package api

import (
	"context"
	"net/url"

	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/geodash/internal/humastar"
	"github.com/joeblew999/geodash/internal/schema"
	"github.com/joeblew999/geodash/internal/service"
)

// TablesOutput is the response for listing tables.
type TablesOutput struct {
	Body struct {
		Tables []string `json:"tables" doc:"Queryable tables"`
	}
}

type TableInput struct {
	Table string `path:"table" doc:"Whitelisted table" example:"agri2023"`
}

type FeaturesInput struct {
	TableInput
	Limit  int `query:"limit" default:"100" doc:"Page size" example:"100"`
	Offset int `query:"offset" default:"0" doc:"Features to skip" example:"0"`
}

type FeaturesOutput struct {
	Link       string `header:"Link" doc:"RFC 8288 pagination links"`
	TotalCount int    `header:"X-Total-Count" doc:"Features with a geometry in the table"`
	Body       *geojson.FeatureCollection
}

// ListTables returns the whitelisted tables.
func (h *APIHandler) ListTables(ctx context.Context, input *struct{}) (*TablesOutput, error) {
	out := &TablesOutput{}
	out.Body.Tables = h.svc.Layers.Tables()
	return out, nil
}

func (h *APIHandler) GetColumns(ctx context.Context, input *TableInput) (*struct{ Body []schema.Column }, error) {
	cols, err := h.svc.Layers.Columns(ctx, input.Table)
	if err != nil {
		return nil, h.fail("list columns", err)
	}
	return &struct{ Body []schema.Column }{Body: cols}, nil
}

func (h *APIHandler) ValidateStructure(ctx context.Context, input *struct{ Body service.StructureRequest }) (*struct{ Body []service.TableSchema }, error) {
	schemas, err := h.svc.Layers.ValidateStructure(ctx, input.Body.TableNames)
	if err != nil {
		return nil, h.fail("validate layer structure", err)
	}
	return &struct{ Body []service.TableSchema }{Body: schemas}, nil
}

func (h *APIHandler) GetFeatures(ctx context.Context, input *FeaturesInput) (*FeaturesOutput, error) {
	page, err := h.svc.Layers.Features(ctx, input.Table, input.Limit, input.Offset)
	if err != nil {
		return nil, h.fail("list features", err)
	}
	p := humastar.Page{Total: page.Total, Offset: page.Offset, Limit: page.Limit}
	return &FeaturesOutput{
		Link:       p.LinkHeader("/api/v1/geojson/" + url.PathEscape(input.Table)),
		TotalCount: page.Total,
		Body:       page.Collection,
	}, nil
}
