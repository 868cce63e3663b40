package payment

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	errors "github.com/BollineniRohith123/nibog-platform/internal"
	"github.com/BollineniRohith123/nibog-platform/internal/auth"
	"github.com/BollineniRohith123/nibog-platform/internal/transport"
)

type Handler struct {
	*transport.BaseHandler
	PaymentService ServiceAPI
	Logger         *slog.Logger
}

func NewHandler(baseHandler *transport.BaseHandler, paymentService ServiceAPI, logger *slog.Logger) *Handler {
	return &Handler{
		BaseHandler:    baseHandler,
		PaymentService: paymentService,
		Logger:         logger,
	}
}

// InitiatePayment handles POST /api/v1/payments
func (h *Handler) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	var req InitiatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("InitiatePayment: failed to parse request body", "error", err)
		h.HandleError(w, errors.NewValidationError("invalid request body", errors.ErrCodeValidationFailed))
		return
	}

	resp, err := h.PaymentService.InitiatePayment(r.Context(), &req)
	if err != nil {
		h.Logger.Error("InitiatePayment: service error", "error", err, "registration_id", req.RegistrationID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("InitiatePayment: payment initiated",
		"registration_id", req.RegistrationID,
		"merchant_transaction_id", resp.MerchantTransactionID)

	h.WriteJSON(w, http.StatusCreated, resp)
}

// GetPayment handles GET /api/v1/payments/{merchantTransactionID}
func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	merchantTransactionID := chi.URLParam(r, "merchantTransactionID")
	if merchantTransactionID == "" {
		h.HandleError(w, errors.NewValidationError("merchant transaction id is required", errors.ErrCodeValidationFailed))
		return
	}

	attempt, err := h.PaymentService.GetByMerchantTransactionID(merchantTransactionID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ToDTO(attempt))
}

// GetPaymentsForRegistration handles GET /api/v1/registrations/{registrationID}/payments
func (h *Handler) GetPaymentsForRegistration(w http.ResponseWriter, r *http.Request) {
	registrationID, err := strconv.ParseInt(chi.URLParam(r, "registrationID"), 10, 64)
	if err != nil {
		h.HandleError(w, errors.NewValidationError("invalid registration id", errors.ErrCodeValidationFailed))
		return
	}

	attempts, err := h.PaymentService.GetByRegistrationID(registrationID)
	if err != nil {
		h.Logger.Error("GetPaymentsForRegistration: service error", "error", err, "registration_id", registrationID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ToDTOs(attempts))
}

// RefundPayment handles POST /api/v1/payments/{merchantTransactionID}/refund
func (h *Handler) RefundPayment(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("RefundPayment: user not found in context")
		h.HandleError(w, errors.NewUnauthorizedError("authentication required", errors.ErrCodeInvalidToken))
		return
	}

	merchantTransactionID := chi.URLParam(r, "merchantTransactionID")
	if merchantTransactionID == "" {
		h.HandleError(w, errors.NewValidationError("merchant transaction id is required", errors.ErrCodeValidationFailed))
		return
	}

	attempt, err := h.PaymentService.Refund(r.Context(), merchantTransactionID)
	if err != nil {
		h.Logger.Error("RefundPayment: service error",
			"error", err,
			"merchant_transaction_id", merchantTransactionID,
			"user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("RefundPayment: refund processed",
		"merchant_transaction_id", merchantTransactionID,
		"user_id", user.ID)

	h.WriteJSON(w, http.StatusOK, ToDTO(attempt))
}
