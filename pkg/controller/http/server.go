package http

import (
	"net/http"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/secmon-lab/checkerboard/pkg/utils/logging"
)

// Mapper is the read side of the mapping mirror
type Mapper interface {
	Started() bool
	Map() map[string]string
	GitHubForSlackUser(slackID string) string
	SlackForGitHubUser(github string) string
}

// AppInfo is served from the root path
type AppInfo struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
}

type Server struct {
	router   *chi.Mux
	mapper   Mapper
	username string
	password string
	info     AppInfo
	metrics  bool
}

type Options func(*Server)

// WithBasicAuth protects the mapping routes. Without it they are rejected.
func WithBasicAuth(username, password string) Options {
	return func(s *Server) {
		s.username = username
		s.password = password
	}
}

func WithAppInfo(info AppInfo) Options {
	return func(s *Server) {
		s.info = info
	}
}

func WithMetrics(enabled bool) Options {
	return func(s *Server) {
		s.metrics = enabled
	}
}

func New(mapper Mapper, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
		mapper: mapper,
		info: AppInfo{
			Name: "checkerboard",
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/", s.indexHandler)
	r.Get("/healthz", s.healthHandler)
	if s.metrics {
		r.Get("/metrics", metricsHandler)
	}

	r.Group(func(r chi.Router) {
		r.Use(basicAuthMiddleware(s.username, s.password))
		r.Use(s.requireStarted)
		r.Get("/slack", s.listMappingsHandler)
		r.Get("/slack/{slack_id}", s.slackMappingHandler)
		r.Get("/github/{github_id}", s.githubMappingHandler)
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

func metricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	metrics.WritePrometheus(w, true)
}
