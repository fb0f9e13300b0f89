package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/jmoiron/sqlx"

	"github.com/joeblew999/geodash/internal/api"
	"github.com/joeblew999/geodash/internal/db"
	"github.com/joeblew999/geodash/internal/schema"
	"github.com/joeblew999/geodash/internal/selection"
	"github.com/joeblew999/geodash/internal/service"
)

// Config holds the server configuration.
type Config struct {
	Host           string
	Port           string
	DatabaseURL    string
	DBSchema       string
	MaxOpenConns   int
	SelectionScope string
}

// Server is the geodash HTTP server.
type Server struct {
	config   Config
	mux      *http.ServeMux
	humaAPI  huma.API
	db       *sqlx.DB
	services *api.Services
	log      *slog.Logger
}

// New creates a new geodash server. The store is not dialled until the
// first query.
func New(cfg Config, log *slog.Logger) (*Server, error) {
	store, err := selection.New(cfg.SelectionScope)
	if err != nil {
		return nil, err
	}
	conn, err := db.Open(db.Config{URL: cfg.DatabaseURL, MaxOpenConns: cfg.MaxOpenConns})
	if err != nil {
		return nil, err
	}
	return newServer(cfg, conn, store, log), nil
}

func newServer(cfg Config, conn *sqlx.DB, store selection.Store, log *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Create Huma API with humago (pure stdlib) adapter
	humaConfig := huma.DefaultConfig("geodash API", api.Version)
	humaConfig.Info.Description = "Chart aggregations over whitelisted PostGIS tables, optionally narrowed to a drawn spatial selection."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port), Description: "Local server"},
	}
	// Disable $schema property in responses (cleaner JSON)
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	humaConfig.Transformers = append(humaConfig.Transformers, api.LinkTransformer())

	humaAPI := humago.New(mux, humaConfig)

	guard := schema.NewGuard(conn, cfg.DBSchema, log)
	bus := service.NewEventBus()
	services := &api.Services{
		Charts:    service.NewChartService(conn, guard, store, log),
		Layers:    service.NewLayerService(conn, guard, log),
		Presets:   service.NewPresetService(conn, bus, log),
		Selection: store,
		Bus:       bus,
		Log:       log,
	}

	s := &Server{
		config:   cfg,
		mux:      mux,
		humaAPI:  humaAPI,
		db:       conn,
		services: services,
		log:      log,
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// OpenAPI returns the generated OpenAPI document.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// CheckDB pings the store. An unreachable store is not fatal: requests fail
// with 500 until it comes back.
func (s *Server) CheckDB(ctx context.Context) {
	if err := db.Ping(ctx, s.db.DB, 5*time.Second); err != nil {
		s.log.Warn("database unreachable", "error", err)
		return
	}
	s.log.Info("database reachable", "tables", len(s.services.Layers.Tables()))
}

// Close closes server resources.
func (s *Server) Close() error {
	return s.db.Close()
}

func (s *Server) routes() {
	// Register Huma REST API routes (OpenAPI-documented JSON endpoints)
	api.RegisterRoutes(s.humaAPI, s.services)
	api.NewInfoHandler(s.db, s.config.DBSchema, s.config.SelectionScope).RegisterRoutes(s.humaAPI)

	s.mux.HandleFunc("/", s.handleRoot)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"service": "geodash",
		"status":  "running",
		"docs":    "/docs",
	})
}
