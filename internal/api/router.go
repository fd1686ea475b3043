package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/skyward-data/flighttrace/internal/config"
	"github.com/skyward-data/flighttrace/internal/ingest"
	"github.com/skyward-data/flighttrace/internal/storage/sqlite"
	"github.com/skyward-data/flighttrace/internal/websocket"
	"github.com/skyward-data/flighttrace/pkg/logger"
)

// Router wires the API handlers into a chi mux
type Router struct {
	handler *Handler
	config  *config.Config
	logger  *logger.Logger
}

// NewRouter creates a new API router
func NewRouter(
	ingestService *ingest.Service,
	storage *sqlite.WaypointStorage,
	cfg *config.Config,
	log *logger.Logger,
	wsServer *websocket.Server,
) *Router {
	return &Router{
		handler: NewHandler(ingestService, storage, cfg, log, wsServer),
		config:  cfg,
		logger:  log.Named("api-router"),
	}
}

// Routes returns the HTTP handler for all API routes
func (rt *Router) Routes() http.Handler {
	r := chi.NewRouter()

	// No request timeout middleware: ingest runs and WebSocket
	// connections are long-lived.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(rt.corsMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/ingest/{date}", rt.handler.RunIngest)
		r.Get("/flights", rt.handler.GetFlights)
		r.Get("/flights/{id}", rt.handler.GetFlight)
		r.Get("/flights/{id}/map", rt.handler.GetFlightMap)
		r.Get("/status", rt.handler.GetStatus)
		r.Get("/ws", rt.handler.HandleWebSocket)
	})

	return r
}

// corsMiddleware applies the configured CORS policy
func (rt *Router) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && rt.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rt *Router) originAllowed(origin string) bool {
	for _, allowed := range rt.config.Server.CORSAllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}
