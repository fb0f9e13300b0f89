package api

import (
	"context"

	"github.com/joeblew999/geodash/internal/service"
)

type PresetIDInput struct {
	ID int64 `path:"id" doc:"Preset ID" example:"1"`
}

type PresetOutput struct {
	Body service.Preset
}

func (h *APIHandler) ListPresets(ctx context.Context, input *struct{}) (*struct{ Body []service.Preset }, error) {
	presets, err := h.svc.Presets.List(ctx)
	if err != nil {
		return nil, h.fail("list presets", err)
	}
	return &struct{ Body []service.Preset }{Body: presets}, nil
}

func (h *APIHandler) CreatePreset(ctx context.Context, input *struct{ Body service.PresetInput }) (*PresetOutput, error) {
	p, err := h.svc.Presets.Create(ctx, input.Body)
	if err != nil {
		return nil, h.fail("create preset", err)
	}
	return &PresetOutput{Body: p}, nil
}

func (h *APIHandler) GetPreset(ctx context.Context, input *PresetIDInput) (*PresetOutput, error) {
	p, err := h.svc.Presets.Get(ctx, input.ID)
	if err != nil {
		return nil, h.fail("get preset", err)
	}
	return &PresetOutput{Body: p}, nil
}

func (h *APIHandler) PutPreset(ctx context.Context, input *struct {
	PresetIDInput
	Body service.PresetInput
}) (*PresetOutput, error) {
	p, err := h.svc.Presets.Update(ctx, input.ID, input.Body)
	if err != nil {
		return nil, h.fail("update preset", err)
	}
	return &PresetOutput{Body: p}, nil
}

func (h *APIHandler) DeletePreset(ctx context.Context, input *PresetIDInput) (*struct{ Body OKBody }, error) {
	if err := h.svc.Presets.Delete(ctx, input.ID); err != nil {
		return nil, h.fail("delete preset", err)
	}
	return &struct{ Body OKBody }{Body: OKBody{OK: true}}, nil
}
