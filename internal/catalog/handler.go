package catalog

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	errors "github.com/BollineniRohith123/nibog-platform/internal"
	"github.com/BollineniRohith123/nibog-platform/internal/transport"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	Logger  *slog.Logger
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI, logger *slog.Logger) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
		Logger:      logger,
	}
}

// GetCities handles GET /api/v1/cities
func (h *Handler) GetCities(w http.ResponseWriter, r *http.Request) {
	cities, err := h.Service.GetCities()
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, cities)
}

// GetGames handles GET /api/v1/games
func (h *Handler) GetGames(w http.ResponseWriter, r *http.Request) {
	games, err := h.Service.GetGames()
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, games)
}

// GetEvents handles GET /api/v1/events?city_id=N
func (h *Handler) GetEvents(w http.ResponseWriter, r *http.Request) {
	var cityID int64
	if raw := r.URL.Query().Get("city_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.HandleError(w, errors.NewValidationError("invalid city_id", errors.ErrCodeValidationFailed))
			return
		}
		cityID = parsed
	}

	events, err := h.Service.GetEvents(cityID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, events)
}

// GetEvent handles GET /api/v1/events/{eventID}
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "eventID"), 10, 64)
	if err != nil {
		h.HandleError(w, errors.NewValidationError("invalid event id", errors.ErrCodeValidationFailed))
		return
	}

	event, err := h.Service.GetEventResponse(id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, event)
}

// CreateCity handles POST /api/v1/admin/cities
func (h *Handler) CreateCity(w http.ResponseWriter, r *http.Request) {
	var req CreateCityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.HandleError(w, errors.NewValidationError("invalid request body", errors.ErrCodeValidationFailed))
		return
	}

	city, err := h.Service.CreateCity(&req)
	if err != nil {
		h.Logger.Error("CreateCity: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, city)
}

// CreateGame handles POST /api/v1/admin/games
func (h *Handler) CreateGame(w http.ResponseWriter, r *http.Request) {
	var req CreateGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.HandleError(w, errors.NewValidationError("invalid request body", errors.ErrCodeValidationFailed))
		return
	}

	game, err := h.Service.CreateGame(&req)
	if err != nil {
		h.Logger.Error("CreateGame: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, game)
}

// CreateEvent handles POST /api/v1/admin/events
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.HandleError(w, errors.NewValidationError("invalid request body", errors.ErrCodeValidationFailed))
		return
	}

	event, err := h.Service.CreateEvent(&req)
	if err != nil {
		h.Logger.Error("CreateEvent: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, event)
}

// UpdateEvent handles PATCH /api/v1/admin/events/{eventID}
func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "eventID"), 10, 64)
	if err != nil {
		h.HandleError(w, errors.NewValidationError("invalid event id", errors.ErrCodeValidationFailed))
		return
	}

	var req UpdateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.HandleError(w, errors.NewValidationError("invalid request body", errors.ErrCodeValidationFailed))
		return
	}

	event, err := h.Service.UpdateEvent(id, &req)
	if err != nil {
		h.Logger.Error("UpdateEvent: service error", "error", err, "event_id", id)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, event)
}
