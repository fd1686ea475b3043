package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/skyward-data/flighttrace/internal/config"
	"github.com/skyward-data/flighttrace/internal/flight"
	"github.com/skyward-data/flighttrace/internal/ingest"
	"github.com/skyward-data/flighttrace/internal/storage/sqlite"
	"github.com/skyward-data/flighttrace/internal/telemetry"
	"github.com/skyward-data/flighttrace/internal/websocket"
	"github.com/skyward-data/flighttrace/pkg/logger"
)

const dayLayout = "2006-01-02"

// Handler contains the API handlers
type Handler struct {
	ingestService *ingest.Service
	storage       *sqlite.WaypointStorage
	config        *config.Config
	logger        *logger.Logger
	wsServer      *websocket.Server
}

// NewHandler creates a new API handler
func NewHandler(ingestService *ingest.Service, storage *sqlite.WaypointStorage, config *config.Config, log *logger.Logger, wsServer *websocket.Server) *Handler {
	return &Handler{
		ingestService: ingestService,
		storage:       storage,
		config:        config,
		logger:        log.Named("api-handler"),
		wsServer:      wsServer,
	}
}

// RunIngest triggers a full ingest run for one UTC day
func (h *Handler) RunIngest(w http.ResponseWriter, r *http.Request) {
	dateStr := chi.URLParam(r, "date")
	day, err := time.ParseInLocation(dayLayout, dateStr, time.UTC)
	if err != nil {
		http.Error(w, "Invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	h.logger.Info("Ingest run requested", logger.String("day", dateStr))

	result, err := h.ingestService.RunDay(r.Context(), day)
	if err != nil {
		switch {
		case errors.Is(err, ingest.ErrRunInProgress):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, telemetry.ErrNoData):
			http.Error(w, "No telemetry data for requested day", http.StatusNotFound)
		default:
			h.logger.Error("Ingest run failed", logger.Error(err), logger.String("day", dateStr))
			http.Error(w, "Ingest run failed", http.StatusInternalServerError)
		}
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// GetFlights returns flight summaries, filterable by day and address
func (h *Handler) GetFlights(w http.ResponseWriter, r *http.Request) {
	day := r.URL.Query().Get("date")
	if day != "" {
		if _, err := time.Parse(dayLayout, day); err != nil {
			http.Error(w, "Invalid date filter, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
	}
	address := r.URL.Query().Get("address")

	flights, err := h.storage.ListFlights(day, address)
	if err != nil {
		h.logger.Error("Failed to list flights", logger.Error(err))
		http.Error(w, "Failed to list flights", http.StatusInternalServerError)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"count":   len(flights),
		"flights": flights,
	})
}

// GetFlight returns one flight with its full trajectory
func (h *Handler) GetFlight(w http.ResponseWriter, r *http.Request) {
	f, ok := h.loadFlight(w, r)
	if !ok {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"flight": f,
		"span":   f.Span(),
	})
}

// GetFlightMap renders one flight's trajectory as an HTML scatter map
func (h *Handler) GetFlightMap(w http.ResponseWriter, r *http.Request) {
	f, ok := h.loadFlight(w, r)
	if !ok {
		return
	}

	html, err := flight.RenderMap(f)
	if err != nil {
		h.logger.Error("Failed to render flight map",
			logger.Error(err), logger.String("flight_id", f.ID))
		http.Error(w, "Failed to render flight map", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(html)
}

// GetStatus returns the service status
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	waypoints, err := h.storage.CountWaypoints("")
	if err != nil {
		h.logger.Error("Failed to count waypoints", logger.Error(err))
		http.Error(w, "Failed to read storage", http.StatusInternalServerError)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"ingest":            h.ingestService.Status(),
		"stored_waypoints":  waypoints,
		"websocket_clients": h.wsServer.ClientCount(),
		"time":              time.Now().UTC(),
	})
}

// HandleWebSocket upgrades the connection and hands it to the hub
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	h.wsServer.HandleConnection(w, r)
}

func (h *Handler) loadFlight(w http.ResponseWriter, r *http.Request) (*flight.Flight, bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "Missing flight ID", http.StatusBadRequest)
		return nil, false
	}

	waypoints, err := h.storage.GetFlightWaypoints(id)
	if err != nil {
		h.logger.Error("Failed to load flight waypoints",
			logger.Error(err), logger.String("flight_id", id))
		http.Error(w, "Failed to load flight", http.StatusInternalServerError)
		return nil, false
	}
	if len(waypoints) == 0 {
		http.Error(w, "Flight not found", http.StatusNotFound)
		return nil, false
	}

	return &flight.Flight{
		ID:        id,
		Address:   waypoints[0].Address,
		Waypoints: waypoints,
	}, true
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
