// Package api defines the Huma API routes and handlers.
package api

import (
	"context"
	"log/slog"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/geodash/internal/selection"
	"github.com/joeblew999/geodash/internal/service"
)

// Version is reported by /health and /api/v1/info.
const Version = "1.0.0"

// Services holds the service dependencies for API handlers.
type Services struct {
	Charts    *service.ChartService
	Layers    *service.LayerService
	Presets   *service.PresetService
	Selection selection.Store
	Bus       *service.EventBus
	Log       *slog.Logger
}

// Types

// SessionParams carries the caller's selection slot.
type SessionParams struct {
	SessionID string `header:"X-Session-ID" doc:"Selection slot when the server runs with --selection-scope=session"`
}

func (p SessionParams) withSession(ctx context.Context) context.Context {
	return selection.WithSession(ctx, p.SessionID)
}

// SelectionParams are the alternate ways of turning on the spatial filter.
// Any of them, or useSelection in the body, enables it.
type SelectionParams struct {
	SessionParams
	UseSelectionQuery  string `query:"useSelection" doc:"1, true or yes enables the spatial filter"`
	UseSelectionHeader string `header:"X-Use-Selection" doc:"1, true or yes enables the spatial filter"`
}

func (p SelectionParams) enabled() bool {
	return truthy(p.UseSelectionQuery) || truthy(p.UseSelectionHeader)
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

type OKBody struct {
	OK bool `json:"ok" doc:"Always true on success" example:"true"`
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"1.0.0"`
}

// APIHandler holds all REST API handlers. Methods named Register* are
// auto-discovered by huma.AutoRegister.
type APIHandler struct {
	svc *Services
	log *slog.Logger
}

func NewAPIHandler(svc *Services) *APIHandler {
	log := svc.Log
	if log == nil {
		log = slog.Default()
	}
	return &APIHandler{svc: svc, log: log}
}

// RegisterRoutes registers every REST route on api.
func RegisterRoutes(api huma.API, svc *Services) {
	huma.AutoRegister(api, NewAPIHandler(svc))
}

// RegisterHealth registers health check routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
}

// RegisterSelection registers selection routes.
func (h *APIHandler) RegisterSelection(api huma.API) {
	huma.Post(api, "/api/v1/selection", h.SetSelection, huma.OperationTags("selection"))
	huma.Get(api, "/api/v1/selection", h.GetSelection, huma.OperationTags("selection"))
	huma.Delete(api, "/api/v1/selection", h.ClearSelection, huma.OperationTags("selection"))
}

// RegisterCharts registers chart aggregation routes.
func (h *APIHandler) RegisterCharts(api huma.API) {
	huma.Post(api, "/api/v1/chart-data/pie", h.PieChart, huma.OperationTags("charts"))
	huma.Register(api, huma.Operation{
		OperationID: "bar-chart",
		Method:      "POST",
		Path:        "/api/v1/chart-data/bar",
		Summary:     "Bar chart",
		Description: "Same contract as the pie chart.",
		Tags:        []string{"charts"},
	}, h.PieChart)
	huma.Post(api, "/api/v1/chart-data/bar-grouped", h.GroupedChart, huma.OperationTags("charts"))
	huma.Post(api, "/api/v1/chart-data/line", h.LineChart, huma.OperationTags("charts"))
	huma.Post(api, "/api/v1/chart-data/sunburst", h.SunburstChart, huma.OperationTags("charts"))
}

// RegisterLayers registers table metadata and feature routes.
func (h *APIHandler) RegisterLayers(api huma.API) {
	huma.Get(api, "/api/v1/tables", h.ListTables, huma.OperationTags("layers"))
	huma.Get(api, "/api/v1/columns/{table}", h.GetColumns, huma.OperationTags("layers"))
	huma.Post(api, "/api/v1/validate-layer-structure", h.ValidateStructure, huma.OperationTags("layers"))
	huma.Get(api, "/api/v1/geojson/{table}", h.GetFeatures, huma.OperationTags("layers"))
}

// RegisterPresets registers preset CRUD routes.
func (h *APIHandler) RegisterPresets(api huma.API) {
	huma.Get(api, "/api/v1/presets", h.ListPresets, huma.OperationTags("presets"))
	huma.Register(api, huma.Operation{
		OperationID:   "post-api-v1-presets",
		Method:        "POST",
		Path:          "/api/v1/presets",
		Summary:       "Create preset",
		Tags:          []string{"presets"},
		DefaultStatus: 201,
	}, h.CreatePreset)
	huma.Get(api, "/api/v1/presets/{id}", h.GetPreset, huma.OperationTags("presets"))
	huma.Put(api, "/api/v1/presets/{id}", h.PutPreset, huma.OperationTags("presets"))
	huma.Delete(api, "/api/v1/presets/{id}", h.DeletePreset, huma.OperationTags("presets"))
}

// RegisterEvents registers the change stream.
func (h *APIHandler) RegisterEvents(api huma.API) {
	huma.Get(api, "/api/v1/events", h.Events, huma.OperationTags("events"))
}

// Handlers

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: Version}}, nil
}
