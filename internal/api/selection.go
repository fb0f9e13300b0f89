package api

import (
	"context"

	"github.com/joeblew999/geodash/internal/selection"
	"github.com/joeblew999/geodash/internal/service"
)

type SetSelectionInput struct {
	SessionParams
	RawBody []byte `contentType:"application/json" doc:"GeoJSON geometry, {geometry}, Feature or FeatureCollection"`
}

type SelectionBody struct {
	Selection any `json:"selection" doc:"Current GeoJSON geometry, or null"`
}

func (h *APIHandler) SetSelection(ctx context.Context, input *SetSelectionInput) (*struct{ Body OKBody }, error) {
	g, err := selection.Parse(input.RawBody)
	if err != nil {
		return nil, h.fail("set selection", err)
	}
	h.svc.Selection.Set(input.withSession(ctx), g)
	h.log.Info("selection stored", "type", g.Geometry().GeoJSONType(), "session", input.SessionID)
	h.svc.Bus.Publish(service.Event{Resource: service.ResourceSelection, Action: "set", ID: input.SessionID})
	return &struct{ Body OKBody }{Body: OKBody{OK: true}}, nil
}

func (h *APIHandler) GetSelection(ctx context.Context, input *SessionParams) (*struct{ Body SelectionBody }, error) {
	out := &struct{ Body SelectionBody }{}
	if g, ok := h.svc.Selection.Get(input.withSession(ctx)); ok {
		out.Body.Selection = g
	}
	return out, nil
}

func (h *APIHandler) ClearSelection(ctx context.Context, input *SessionParams) (*struct{ Body OKBody }, error) {
	h.svc.Selection.Clear(input.withSession(ctx))
	h.log.Info("selection cleared", "session", input.SessionID)
	h.svc.Bus.Publish(service.Event{Resource: service.ResourceSelection, Action: "cleared", ID: input.SessionID})
	return &struct{ Body OKBody }{Body: OKBody{OK: true}}, nil
}
