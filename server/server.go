package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	processorx "github.com/careloop/crm/agent/processor"
	storex "github.com/careloop/crm/agent/store"
	toolx "github.com/careloop/crm/agent/tool"
	metricsx "github.com/careloop/crm/pkg/metrics"
)

const apiVersion = "1.0.0"

type Config struct {
	Addr           string        `envconfig:"ADDR" split_words:"true" default:":8000"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" split_words:"true" default:"60s"`
	AllowedOrigin  string        `envconfig:"ALLOWED_ORIGIN" split_words:"true" default:"http://localhost:3000"`
}

// Server is the thin HTTP mapping over the interaction processor and the
// business tools: request decoding, validation and status codes only.
type Server struct {
	processor *processorx.Processor
	tools     *toolx.Toolset
	store     storex.Store
	router    chi.Router
}

func New(cfg Config, proc *processorx.Processor, tools *toolx.Toolset, st storex.Store) *Server {
	s := &Server{
		processor: proc,
		tools:     tools,
		store:     st,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(metricsx.Middleware)
	r.Use(requestLogger)
	r.Use(corsMiddleware(cfg.AllowedOrigin))

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", metricsx.Handler())

	r.Post("/log-interaction", s.handleLogInteraction)
	r.Get("/interactions", s.handleListInteractions)
	r.Get("/interactions/latest", s.handleLatestInteraction)
	r.Get("/interactions/{id}", s.handleGetInteraction)
	r.Patch("/interactions/{id}", s.handleEditInteraction)
	r.Post("/interactions/{id}/follow-up", s.handleScheduleFollowup)
	r.Post("/interactions/{id}/compliance", s.handleMarkCompliant)
	r.Get("/hcps", s.handleFetchProviders)

	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}

func corsMiddleware(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
