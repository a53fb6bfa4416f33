// Package debugserver implements a small, always-optional, read-only
// introspection HTTP server: GET /healthz and GET /plugins. It is not
// part of spec.md's external interfaces — a local operability aid only,
// scaled down from the teacher's chi-based API server to the two
// endpoints this host actually needs.
package debugserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Wox-launcher/wox-plugin-host/internal/registry"
)

// Server is the debug introspection HTTP server.
type Server struct {
	Router *chi.Mux
	reg    *registry.Registry
	logger *slog.Logger
	server *http.Server
	addr   string
}

// New builds a Server bound to addr, reading from reg.
func New(addr string, reg *registry.Registry, logger *slog.Logger) *Server {
	s := &Server{
		Router: chi.NewRouter(),
		reg:    reg,
		logger: logger,
		addr:   addr,
	}
	s.registerMiddleware()
	s.registerRoutes()
	return s
}

func (s *Server) registerMiddleware() {
	s.Router.Use(middleware.RequestID)
	s.Router.Use(middleware.Recoverer)
	s.Router.Use(s.slogMiddleware())
}

func (s *Server) registerRoutes() {
	s.Router.Get("/healthz", s.handleHealthz)
	s.Router.Get("/plugins", s.handlePlugins)
}

type healthzResponse struct {
	Status       string `json:"status"`
	PluginCount  int    `json:"pluginCount"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, healthzResponse{
		Status:      "ok",
		PluginCount: s.reg.Len(),
	})
}

type pluginSummary struct {
	PluginId   string `json:"pluginId"`
	PluginName string `json:"pluginName"`
	PluginDir  string `json:"pluginDir"`
	ModuleName string `json:"moduleName"`
	HasAPI     bool   `json:"hasApi"`
}

func (s *Server) handlePlugins(w http.ResponseWriter, r *http.Request) {
	snapshot := s.reg.Snapshot()
	out := make([]pluginSummary, 0, len(snapshot))
	for _, inst := range snapshot {
		out = append(out, pluginSummary{
			PluginId:   inst.PluginId,
			PluginName: inst.PluginName,
			PluginDir:  inst.PluginDir,
			ModuleName: inst.ModuleName,
			HasAPI:     inst.API != nil,
		})
	}
	WriteJSON(w, http.StatusOK, out)
}

// Start begins listening for HTTP requests on the configured address.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.Router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  30 * time.Second,
	}
	s.logger.Info("debug server starting", slog.String("listen", s.addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("debug server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the debug server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}

// slogMiddleware logs each request at debug level — this server is an
// operability aid, not a traffic path worth info-level noise.
func (s *Server) slogMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			s.logger.Debug("debug server request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Duration("duration", time.Since(start)))
		})
	}
}
