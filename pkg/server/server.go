// Package server exposes a rendering session over HTTP: a control API
// notebook frontends post configuration and cell outputs to, and a
// byte-range capable file server for the rendered assets.
package server

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ovecast/ovecast/pkg/config"
	"github.com/ovecast/ovecast/pkg/errors"
	"github.com/ovecast/ovecast/pkg/httputil"
	"github.com/ovecast/ovecast/pkg/layout"
	"github.com/ovecast/ovecast/pkg/pipeline"
	"github.com/ovecast/ovecast/pkg/session"
)

// sessionLimit bounds how many concurrent notebook sessions the
// control API tracks before evicting the oldest.
const sessionLimit = 500

// Options configures a Server.
type Options struct {
	// Dir is the asset directory served to render apps.
	Dir string
	// Mode is reported on GET /mode and drives overview emission.
	Mode config.Mode
	// Username and Password enable basic auth when both are set.
	Username string
	Password string
	// Background suppresses per-request console logging.
	Background bool
}

// Server is the combined control API and asset file server.
type Server struct {
	runner   *pipeline.Runner
	registry *session.Registry
	opts     Options
	logger   *log.Logger
	files    *files
}

// New assembles a server around a pipeline runner.
func New(runner *pipeline.Runner, opts Options, logger *log.Logger) *Server {
	return &Server{
		runner:   runner,
		registry: session.NewRegistry(sessionLimit),
		opts:     opts,
		logger:   logger,
		files:    &files{dir: opts.Dir},
	}
}

// Router builds the HTTP routing table. Every route is CORS-permissive
// so canvas render apps on other origins can fetch assets directly.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(httputil.PermissiveCORS)
	if !s.opts.Background {
		r.Use(middleware.Logger)
	}
	if s.opts.Username != "" && s.opts.Password != "" {
		r.Use(middleware.BasicAuth("ovecast", map[string]string{s.opts.Username: s.opts.Password}))
	}

	r.Get("/mode", s.handleMode)
	r.Post("/config", s.handleConfig)
	r.Post("/tee", s.handleTee)
	r.Post("/output", s.handleOutput)
	r.Post("/controller", s.handleController)
	r.Get("/*", s.files.ServeHTTP)
	r.Head("/*", s.files.ServeHTTP)
	return r
}

func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"mode": string(s.opts.Mode)})
}

// handleConfig opens a session for the client-supplied id. Posting a
// new configuration under an existing id replaces that session.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID   string         `json:"id"`
		Data session.Config `json:"data"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if req.ID == "" {
		httputil.WriteError(w, errors.New(errors.ErrCodeInvalidConfig, "a session id is required"))
		return
	}
	if req.Data.Mode == "" {
		req.Data.Mode = s.opts.Mode
	}
	sess, err := s.runner.Start(r.Context(), req.Data)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	sess.ID = req.ID
	if evicted := s.registry.Add(sess); evicted != nil {
		s.logger.Warn("evicted session", "session", evicted.ID)
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"id":     sess.ID,
		"space":  sess.Config.Space,
		"bounds": map[string]int{"w": sess.Bounds.W, "h": sess.Bounds.H},
	})
}

// handleTee records a cell's placement arguments ahead of its outputs.
func (s *Server) handleTee(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID   string               `json:"id"`
		Data layout.PlacementArgs `json:"data"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	sess, err := s.registry.Get(req.ID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if _, err := layout.Validate(req.Data); err != nil {
		httputil.WriteError(w, err)
		return
	}
	sess.SetPlacement(req.Data.Cell(), req.Data)
	w.WriteHeader(http.StatusOK)
}

// handleOutput renders a cell's captured outputs using the placement
// recorded for it. Control URLs are returned per output unless the
// session runs a shared controller page.
func (s *Server) handleOutput(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     string                      `json:"id"`
		CellNo int                         `json:"cell_no"`
		Data   []pipeline.ClassifiedOutput `json:"data"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	sess, err := s.registry.Get(req.ID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	args, err := sess.Placement(req.CellNo)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	results, err := s.runner.RenderClassified(r.Context(), sess, args, req.Data)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	type controlURL struct {
		Index int    `json:"idx"`
		URL   string `json:"url"`
	}
	urls := []controlURL{}
	if !sess.Config.MultiController {
		for _, res := range results {
			urls = append(urls, controlURL{Index: res.Index, URL: res.ControlURL})
		}
	}
	httputil.WriteJSON(w, http.StatusOK, urls)
}

// handleController switches a session to a single shared controller
// page instead of per-output control URLs.
func (s *Server) handleController(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	sess, err := s.registry.Get(req.ID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	sess.EnableMultiController()
	w.WriteHeader(http.StatusOK)
}
