package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/geodash/internal/humastar"
)

// Events streams selection and preset changes over SSE using the Datastar
// protocol: each change patches the lastEvent signal and fires a
// geodash-changed DOM event.
func (h *APIHandler) Events(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return humastar.Stream(func(sse humastar.SSE, done <-chan struct{}) {
		ch := h.svc.Bus.Subscribe()
		defer h.svc.Bus.Unsubscribe(ch)

		for {
			select {
			case <-done:
				return
			case ev := <-ch:
				if err := sse.Signals(map[string]any{"lastEvent": ev}); err != nil {
					h.log.Debug("event stream closed", "error", err)
					return
				}
				if err := sse.Dispatch("geodash-changed", ev); err != nil {
					h.log.Debug("event stream closed", "error", err)
					return
				}
			}
		}
	}), nil
}
