// Package humastar bridges Huma (REST/OpenAPI) with Datastar (SSE).
//
// It provides:
//   - SSE: Huma streaming → Datastar SSE protocol via [SSE] and [NewSSE]
//   - Pagination: RFC 8288 Link values for paged responses via [Page]
package humastar

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/starfederation/datastar-go/datastar"
)

// EmptyInput is a shared input struct for handlers with no parameters.
type EmptyInput struct{}

// Stream returns a Huma StreamResponse that calls fn with a ready SSE helper
// and the request context.
func Stream(fn func(sse SSE, done <-chan struct{})) *huma.StreamResponse {
	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			fn(NewSSE(humaCtx), humaCtx.Context().Done())
		},
	}
}

// SSE wraps a Datastar SSE generator with convenience methods.
type SSE struct {
	*datastar.ServerSentEventGenerator
}

// NewSSE creates a Datastar SSE helper from a Huma streaming context.
func NewSSE(ctx huma.Context) SSE {
	r, w := humago.Unwrap(ctx)
	return SSE{datastar.NewSSE(w, r)}
}

// Signals patches arbitrary signals on the client.
func (s SSE) Signals(signals map[string]any) error {
	return s.MarshalAndPatchSignals(signals)
}

// Dispatch fires a DOM custom event carrying payload.
func (s SSE) Dispatch(name string, payload any) error {
	return s.DispatchCustomEvent(name, payload)
}
