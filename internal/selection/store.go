// Package selection holds the current spatial selection used to narrow
// chart aggregations.
//
// The drawing client always authors selections in WGS84 (EPSG:4326).
package selection

import (
	"context"
	"fmt"
	"sync"

	"github.com/paulmach/orb/geojson"
)

// Scope names a Store implementation.
const (
	ScopeGlobal  = "global"
	ScopeSession = "session"
)

// Store keeps at most one selection per scope. Set replaces, Clear empties.
type Store interface {
	Set(ctx context.Context, g *geojson.Geometry)
	Clear(ctx context.Context)
	Get(ctx context.Context) (*geojson.Geometry, bool)
}

// New returns the Store for scope.
func New(scope string) (Store, error) {
	switch scope {
	case "", ScopeGlobal:
		return NewGlobal(), nil
	case ScopeSession:
		return NewSession(), nil
	default:
		return nil, fmt.Errorf("unknown selection scope %q", scope)
	}
}

// Global is a single process-wide slot: every caller sees the last write.
type Global struct {
	mu   sync.RWMutex
	geom *geojson.Geometry
}

func NewGlobal() *Global {
	return &Global{}
}

func (s *Global) Set(_ context.Context, g *geojson.Geometry) {
	s.mu.Lock()
	s.geom = g
	s.mu.Unlock()
}

func (s *Global) Clear(_ context.Context) {
	s.mu.Lock()
	s.geom = nil
	s.mu.Unlock()
}

func (s *Global) Get(_ context.Context) (*geojson.Geometry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.geom, s.geom != nil
}

// Session keeps one slot per session id carried on the context. Callers
// without a session id share the anonymous slot.
type Session struct {
	mu    sync.RWMutex
	slots map[string]*geojson.Geometry
}

func NewSession() *Session {
	return &Session{slots: make(map[string]*geojson.Geometry)}
}

func (s *Session) Set(ctx context.Context, g *geojson.Geometry) {
	s.mu.Lock()
	s.slots[SessionID(ctx)] = g
	s.mu.Unlock()
}

func (s *Session) Clear(ctx context.Context) {
	s.mu.Lock()
	delete(s.slots, SessionID(ctx))
	s.mu.Unlock()
}

func (s *Session) Get(ctx context.Context) (*geojson.Geometry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.slots[SessionID(ctx)]
	return g, ok
}

type sessionKey struct{}

// WithSession attaches a session id to ctx. An empty id leaves ctx unchanged.
func WithSession(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, id)
}

// SessionID returns the session id on ctx, or "" for the anonymous slot.
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}
