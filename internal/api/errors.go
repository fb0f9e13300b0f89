package api

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/geodash/internal/aggregate"
	"github.com/joeblew999/geodash/internal/schema"
	"github.com/joeblew999/geodash/internal/selection"
	"github.com/joeblew999/geodash/internal/service"
)

// fail maps a service error to its HTTP error. Anything unrecognised is
// logged and reported as a generic 500 so store diagnostics never reach
// the client.
func (h *APIHandler) fail(op string, err error) error {
	var (
		ve  *service.ValidationError
		tna *schema.TableNotAllowedError
		ice *schema.InvalidColumnError
	)
	switch {
	case errors.As(err, &ve):
		return huma.Error400BadRequest(ve.Error())
	case errors.As(err, &tna):
		return huma.Error400BadRequest(tna.Error())
	case errors.As(err, &ice):
		return huma.Error400BadRequest(ice.Error())
	case errors.Is(err, selection.ErrInvalidGeometry):
		return huma.Error400BadRequest(selection.ErrInvalidGeometry.Error())
	case errors.Is(err, aggregate.ErrNoData):
		return huma.Error404NotFound("no data found for this configuration")
	case errors.Is(err, service.ErrPresetNotFound):
		return huma.Error404NotFound("preset not found")
	case errors.Is(err, service.ErrDuplicatePreset):
		return huma.Error409Conflict("this preset name is already used")
	}
	h.log.Error(op+" failed", "error", err)
	return huma.Error500InternalServerError("internal server error")
}
