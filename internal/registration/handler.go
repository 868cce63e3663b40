package registration

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

// CreateRegistration handles POST /api/v1/registrations
func (h *Handler) CreateRegistration(w http.ResponseWriter, r *http.Request) {
	var req CreateRegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("CreateRegistration: failed to parse request body", "error", err)
		h.HandleError(w, errors.NewValidationError("invalid request body", errors.ErrCodeValidationFailed))
		return
	}

	dto, err := h.Service.CreateRegistration(&req)
	if err != nil {
		h.Logger.Error("CreateRegistration: service error", "error", err, "event_id", req.EventID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, dto)
}

// GetRegistration handles GET /api/v1/registrations/{registrationID}
func (h *Handler) GetRegistration(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "registrationID"), 10, 64)
	if err != nil {
		h.HandleError(w, errors.NewValidationError("invalid registration id", errors.ErrCodeValidationFailed))
		return
	}

	dto, err := h.Service.GetRegistration(id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, dto)
}

// GetRegistrationsForEvent handles GET /api/v1/events/{eventID}/registrations
func (h *Handler) GetRegistrationsForEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := strconv.ParseInt(chi.URLParam(r, "eventID"), 10, 64)
	if err != nil {
		h.HandleError(w, errors.NewValidationError("invalid event id", errors.ErrCodeValidationFailed))
		return
	}

	dtos, err := h.Service.GetRegistrationsForEvent(eventID)
	if err != nil {
		h.Logger.Error("GetRegistrationsForEvent: service error", "error", err, "event_id", eventID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, dtos)
}
