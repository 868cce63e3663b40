package phonepe

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Verification statuses as normalized from the gateway's response codes. These
// are the only values Verify returns; an unreachable gateway is an error, never
// a status.
const (
	StateSuccess = "SUCCESS"
	StateFailed  = "FAILED"
	StatePending = "PENDING"
)

var (
	// ErrGatewayUnavailable covers transport errors, timeouts, non-2xx
	// responses and malformed bodies. Retryable.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")

	// ErrRefundRejected means the gateway explicitly declined the reversal.
	ErrRefundRejected = errors.New("refund rejected by gateway")
)

type Config struct {
	BaseURL     string
	MerchantID  string
	SaltKey     string
	SaltIndex   string
	RedirectURL string
	CallbackURL string
	Timeout     time.Duration
}

// Client talks to the PhonePe hermes API. All calls are blocking with a
// bounded timeout taken from the config.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	merchantID  string
	redirectURL string
	callbackURL string
	signer      *Signer
	logger      *slog.Logger
}

func NewClient(config Config, logger *slog.Logger) *Client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     config.BaseURL,
		merchantID:  config.MerchantID,
		redirectURL: config.RedirectURL,
		callbackURL: config.CallbackURL,
		signer:      NewSigner(config.SaltKey, config.SaltIndex),
		logger:      logger,
	}
}

type InitiateRequest struct {
	MerchantTransactionID string
	AmountPaise           int64
	CustomerName          string
	CustomerEmail         string
	CustomerPhone         string
}

type InitiateResult struct {
	PayURL string
	Raw    json.RawMessage
}

type VerifyResult struct {
	Status               string
	GatewayTransactionID string
	Raw                  json.RawMessage
}

type RefundRequest struct {
	MerchantRefundID      string
	OriginalTransactionID string
	AmountPaise           int64
}

type RefundResult struct {
	RefundID string
	Raw      json.RawMessage
}

// Initiate starts a payment and returns the gateway's hosted pay URL. The
// request body is the base64 of the JSON payload, signed into the X-VERIFY
// header.
func (c *Client) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error) {
	payload := map[string]interface{}{
		"merchantId":            c.merchantID,
		"merchantTransactionId": req.MerchantTransactionID,
		"amount":                req.AmountPaise,
		"redirectUrl":           c.redirectURL,
		"redirectMode":          "POST",
		"callbackUrl":           c.callbackURL,
		"customerName":          req.CustomerName,
		"customerEmail":         req.CustomerEmail,
		"customerPhone":         req.CustomerPhone,
	}

	encoded, err := encodeRequest(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode initiate payload: %w", err)
	}

	body, err := c.post(ctx, "/pg/v1/pay", encoded, c.signer.SignPayload(encoded))
	if err != nil {
		return nil, err
	}

	var resp struct {
		Success bool   `json:"success"`
		Code    string `json:"code"`
		Data    struct {
			MerchantTransactionID string `json:"merchantTransactionId"`
			InstrumentResponse    struct {
				RedirectInfo struct {
					URL string `json:"url"`
				} `json:"redirectInfo"`
			} `json:"instrumentResponse"`
		} `json:"data"`
	}

	if err := json.Unmarshal(body, &resp); err != nil {
		c.logger.Error("failed to decode initiate response", "error", err)
		return nil, fmt.Errorf("%w: malformed initiate response", ErrGatewayUnavailable)
	}

	payURL := resp.Data.InstrumentResponse.RedirectInfo.URL
	if !resp.Success || payURL == "" {
		c.logger.Error("gateway did not return a pay url",
			"code", resp.Code,
			"merchant_transaction_id", req.MerchantTransactionID)
		return nil, fmt.Errorf("%w: initiate returned code %s", ErrGatewayUnavailable, resp.Code)
	}

	c.logger.Info("payment initiated with gateway",
		"merchant_transaction_id", req.MerchantTransactionID,
		"amount_paise", req.AmountPaise)

	return &InitiateResult{PayURL: payURL, Raw: body}, nil
}

// Verify performs the signed status query. This is the only source of truth
// for whether money actually moved; callback bodies only prompt this call.
func (c *Client) Verify(ctx context.Context, merchantTransactionID string) (*VerifyResult, error) {
	path := fmt.Sprintf("/pg/v1/status/%s/%s", c.merchantID, merchantTransactionID)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create status request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-VERIFY", c.signer.SignPath(path))
	httpReq.Header.Set("X-MERCHANT-ID", c.merchantID)

	body, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Success bool   `json:"success"`
		Code    string `json:"code"`
		Data    struct {
			TransactionID string `json:"transactionId"`
		} `json:"data"`
	}

	if err := json.Unmarshal(body, &resp); err != nil {
		c.logger.Error("failed to decode status response", "error", err, "merchant_transaction_id", merchantTransactionID)
		return nil, fmt.Errorf("%w: malformed status response", ErrGatewayUnavailable)
	}

	status := mapStatusCode(resp.Code)

	c.logger.Info("gateway status verified",
		"merchant_transaction_id", merchantTransactionID,
		"gateway_code", resp.Code,
		"status", status)

	return &VerifyResult{
		Status:               status,
		GatewayTransactionID: resp.Data.TransactionID,
		Raw:                  body,
	}, nil
}

// Refund reverses a captured payment. Local state must not change unless the
// gateway confirms; a non-confirming response surfaces as ErrRefundRejected.
func (c *Client) Refund(ctx context.Context, req RefundRequest) (*RefundResult, error) {
	payload := map[string]interface{}{
		"merchantId":            c.merchantID,
		"merchantTransactionId": req.MerchantRefundID,
		"originalTransactionId": req.OriginalTransactionID,
		"amount":                req.AmountPaise,
	}

	encoded, err := encodeRequest(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode refund payload: %w", err)
	}

	body, err := c.post(ctx, "/pg/v1/refund", encoded, c.signer.SignPayload(encoded))
	if err != nil {
		return nil, err
	}

	var resp struct {
		Success bool   `json:"success"`
		Code    string `json:"code"`
		Data    struct {
			TransactionID string `json:"transactionId"`
		} `json:"data"`
	}

	if err := json.Unmarshal(body, &resp); err != nil {
		c.logger.Error("failed to decode refund response", "error", err)
		return nil, fmt.Errorf("%w: malformed refund response", ErrGatewayUnavailable)
	}

	if resp.Code != "REFUND_SUCCESS" {
		c.logger.Warn("gateway declined refund",
			"merchant_refund_id", req.MerchantRefundID,
			"gateway_code", resp.Code)
		return nil, fmt.Errorf("%w: code %s", ErrRefundRejected, resp.Code)
	}

	c.logger.Info("refund confirmed by gateway",
		"merchant_refund_id", req.MerchantRefundID,
		"gateway_transaction_id", resp.Data.TransactionID)

	return &RefundResult{RefundID: resp.Data.TransactionID, Raw: body}, nil
}

func encodeRequest(payload map[string]interface{}) (string, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(jsonData), nil
}

func (c *Client) post(ctx context.Context, path, encodedPayload, checksum string) (json.RawMessage, error) {
	reqBody, err := json.Marshal(map[string]string{"request": encodedPayload})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request envelope: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-VERIFY", checksum)
	httpReq.Header.Set("accept", "application/json")

	return c.do(httpReq)
}

func (c *Client) do(req *http.Request) (json.RawMessage, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("gateway request failed", "path", req.URL.Path, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrGatewayUnavailable, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		c.logger.Error("gateway returned error status",
			"path", req.URL.Path,
			"status", resp.StatusCode)
		return nil, fmt.Errorf("%w: HTTP %d", ErrGatewayUnavailable, resp.StatusCode)
	}

	return body, nil
}

// mapStatusCode normalizes the gateway's response codes. Unknown codes map to
// PENDING so a new code on the gateway side never fabricates an outcome.
func mapStatusCode(code string) string {
	switch code {
	case "PAYMENT_SUCCESS":
		return StateSuccess
	case "PAYMENT_ERROR", "PAYMENT_DECLINED", "TIMED_OUT":
		return StateFailed
	case "PAYMENT_PENDING", "INTERNAL_SERVER_ERROR":
		return StatePending
	default:
		return StatePending
	}
}
