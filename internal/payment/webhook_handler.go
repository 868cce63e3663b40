package payment

import (
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"

	errors "github.com/BollineniRohith123/nibog-platform/internal"
	"github.com/BollineniRohith123/nibog-platform/internal/transport"
)

// WebhookHandler receives gateway callbacks and the browser redirect posted
// after checkout. Neither carries trusted state: every delivery is just a
// trigger to reconcile the transaction against the gateway's status API.
type WebhookHandler struct {
	*transport.BaseHandler
	paymentService ServiceAPI
	logger         *slog.Logger
}

func NewWebhookHandler(baseHandler *transport.BaseHandler, paymentService ServiceAPI, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		BaseHandler:    baseHandler,
		paymentService: paymentService,
		logger:         logger,
	}
}

type CallbackResponse struct {
	MerchantTransactionID string `json:"merchant_transaction_id"`
	Status                string `json:"status"`
	Message               string `json:"message"`
}

// HandleCallback handles POST /api/v1/payments/callback, the redirect-mode
// POST the gateway sends the customer's browser back with.
func (h *WebhookHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	h.reconcileFromDelivery(w, r, "callback")
}

// HandleWebhook handles POST /api/v1/payments/webhook, the server-to-server
// notification. Deliveries may arrive out of order and more than once.
func (h *WebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	h.reconcileFromDelivery(w, r, "webhook")
}

func (h *WebhookHandler) reconcileFromDelivery(w http.ResponseWriter, r *http.Request, source string) {
	req, err := h.parseDelivery(r)
	if err != nil {
		h.logger.Error("invalid gateway delivery", "source", source, "error", err)
		h.HandleError(w, errors.NewValidationError("invalid request body", errors.ErrCodeValidationFailed))
		return
	}

	if err := req.Validate(); err != nil {
		h.logger.Error("gateway delivery missing transaction id", "source", source)
		h.HandleServiceError(w, err)
		return
	}

	// The claimed status is logged for the audit trail but never acted on.
	h.logger.Info("received gateway delivery",
		"source", source,
		"merchant_transaction_id", req.MerchantTransactionID,
		"claimed_code", req.Code,
		"claimed_status", req.Status)

	result, err := h.paymentService.Reconcile(r.Context(), req.MerchantTransactionID)
	if err != nil {
		h.logger.Error("reconcile failed",
			"source", source,
			"merchant_transaction_id", req.MerchantTransactionID,
			"error", err)
		h.HandleServiceError(w, err)
		return
	}

	if !result.Settled {
		// Still pending at the gateway; answer 202 so redelivery retries.
		h.WriteJSON(w, http.StatusAccepted, CallbackResponse{
			MerchantTransactionID: req.MerchantTransactionID,
			Status:                result.Attempt.Status,
			Message:               "payment still processing",
		})
		return
	}

	h.WriteJSON(w, http.StatusOK, CallbackResponse{
		MerchantTransactionID: req.MerchantTransactionID,
		Status:                result.Attempt.Status,
		Message:               "delivery processed",
	})
}

// parseDelivery accepts both the bare JSON body and PhonePe's enveloped form
// where the body is {"response": "<base64 of the JSON>"}.
func (h *WebhookHandler) parseDelivery(r *http.Request) (*GatewayCallbackRequest, error) {
	var raw struct {
		GatewayCallbackRequest
		Response string `json:"response"`
	}

	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return nil, err
	}

	if raw.Response != "" {
		return decodeEnvelopedDelivery(raw.Response)
	}

	return &raw.GatewayCallbackRequest, nil
}

func decodeEnvelopedDelivery(encoded string) (*GatewayCallbackRequest, error) {
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Code string `json:"code"`
		Data struct {
			MerchantTransactionID string `json:"merchantTransactionId"`
			TransactionID         string `json:"transactionId"`
			State                 string `json:"state"`
		} `json:"data"`
	}
	if err := json.Unmarshal(decoded, &envelope); err != nil {
		return nil, err
	}

	return &GatewayCallbackRequest{
		MerchantTransactionID: envelope.Data.MerchantTransactionID,
		TransactionID:         envelope.Data.TransactionID,
		Code:                  envelope.Code,
		Status:                envelope.Data.State,
	}, nil
}
