// Package api exposes the engine over HTTP for local tooling that
// prefers a socket over linking the library. The resolve endpoint is a
// thin shim: one engine query per request, answered from whichever
// snapshot is current at entry.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/jingkaihe/skillhub/pkg/descriptor"
	"github.com/jingkaihe/skillhub/pkg/engine"
	"github.com/jingkaihe/skillhub/pkg/logger"
	"github.com/jingkaihe/skillhub/pkg/resolver"
)

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Host string
	Port int
}

// Validate checks the configuration.
func (c *ServerConfig) Validate() error {
	if c.Host == "" {
		return errors.New("host cannot be empty")
	}
	if c.Port < 1 || c.Port > 65535 {
		return errors.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	return nil
}

// Server serves the engine over HTTP.
type Server struct {
	router *mux.Router
	engine *engine.Engine
	config *ServerConfig
	server *http.Server
}

// NewServer creates an HTTP server around the given engine.
func NewServer(eng *engine.Engine, config *ServerConfig) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid server configuration")
	}

	s := &Server{
		router: mux.NewRouter(),
		engine: eng,
		config: config,
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", s.handleStatus).Methods("GET")
	api.HandleFunc("/skills", s.handleListSkills).Methods("GET")
	api.HandleFunc("/skills/{name}", s.handleGetSkill).Methods("GET")
	api.HandleFunc("/agents", s.handleListAgents).Methods("GET")
	api.HandleFunc("/resolve", s.handleResolve).Methods("POST")

	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.loggingMiddleware)
}

// requestIDMiddleware tags each request with an ID for log correlation.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		ctx := logger.WithLogger(r.Context(), logger.G(r.Context()).WithField("request_id", requestID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		logger.G(r.Context()).WithFields(map[string]interface{}{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rw.statusCode,
			"duration": time.Since(start),
		}).Info("HTTP request")
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// skillView is the JSON rendering of a skill. The body is omitted from
// list responses to keep them small.
type skillView struct {
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Categories   []string  `json:"categories"`
	Languages    []string  `json:"languages,omitempty"`
	ResourceRefs []string  `json:"resourceRefs,omitempty"`
	SourcePath   string    `json:"sourcePath"`
	LastModified time.Time `json:"lastModified"`
	Body         string    `json:"body,omitempty"`
}

func toSkillView(skill *descriptor.Skill, withBody bool) skillView {
	view := skillView{
		Name:         skill.Name,
		Description:  skill.Description,
		Categories:   skill.Categories,
		Languages:    skill.Languages,
		ResourceRefs: skill.ResourceRefs,
		SourcePath:   skill.SourcePath,
		LastModified: skill.LastModified,
	}
	if withBody {
		view.Body = skill.Body
	}
	return view
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.engine.Snapshot()

	warnings := make([]map[string]string, 0, len(snap.Warnings))
	for _, warning := range snap.Warnings {
		warnings = append(warnings, map[string]string{
			"name": warning.Name,
			"path": warning.Path,
			"kept": warning.KeptPath,
		})
	}

	scanErrors := make([]map[string]string, 0, len(snap.ScanErrors))
	for _, fe := range snap.ScanErrors {
		scanErrors = append(scanErrors, map[string]string{
			"path":  fe.Path,
			"error": fe.Err.Error(),
		})
	}

	s.writeJSON(w, map[string]interface{}{
		"generation": snap.Generation,
		"skills":     len(snap.Skills),
		"agents":     len(snap.Agents),
		"categories": snap.Categories(),
		"warnings":   warnings,
		"scanErrors": scanErrors,
		"builtAt":    snap.BuiltAt,
	})
}

func (s *Server) handleListSkills(w http.ResponseWriter, r *http.Request) {
	snap := s.engine.Snapshot()

	category := r.URL.Query().Get("category")
	language := r.URL.Query().Get("language")

	views := make([]skillView, 0, len(snap.Skills))
	for _, skill := range snap.Skills {
		if category != "" && !skill.HasCategory(category) {
			continue
		}
		if language != "" && !skill.SupportsLanguage(language) {
			continue
		}
		views = append(views, toSkillView(skill, false))
	}

	s.writeJSON(w, map[string]interface{}{
		"generation": snap.Generation,
		"skills":     views,
	})
}

func (s *Server) handleGetSkill(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	skill, err := s.engine.Skill(name)
	if err != nil {
		s.writeError(w, r, http.StatusNotFound, fmt.Sprintf("skill %q not found", name), nil)
		return
	}
	s.writeJSON(w, toSkillView(skill, true))
}

func (s *Server) handleListAgents(w http.ResponseWriter, r *http.Request) {
	snap := s.engine.Snapshot()

	type agentView struct {
		Name        string   `json:"name"`
		Description string   `json:"description"`
		Categories  []string `json:"categories,omitempty"`
		SourcePath  string   `json:"sourcePath"`
	}
	views := make([]agentView, 0, len(snap.Agents))
	for _, agent := range snap.Agents {
		views = append(views, agentView{
			Name:        agent.Name,
			Description: agent.Description,
			Categories:  agent.Categories,
			SourcePath:  agent.SourcePath,
		})
	}

	s.writeJSON(w, map[string]interface{}{
		"generation": snap.Generation,
		"agents":     views,
	})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req resolver.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid request body", err)
		return
	}

	result := s.engine.Query(r.Context(), req)

	type matchView struct {
		Category string     `json:"category"`
		Skill    *skillView `json:"skill"`
		Score    int        `json:"score"`
	}
	matches := make([]matchView, 0, len(result.Matches))
	for _, m := range result.Matches {
		view := matchView{Category: m.Category, Score: m.Score}
		if m.Skill != nil {
			sv := toSkillView(m.Skill, true)
			view.Skill = &sv
		}
		matches = append(matches, view)
	}

	s.writeJSON(w, map[string]interface{}{
		"generation": result.Generation,
		"matches":    matches,
		"misses":     result.Misses,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, statusCode int, message string, err error) {
	if err != nil {
		logger.G(r.Context()).WithError(err).Error(message)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error":  message,
		"status": statusCode,
	})
}

// Start runs the server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    address,
		Handler: s.router,
	}

	logger.G(ctx).WithField("address", address).Info("Starting HTTP server")

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "http server failed")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
