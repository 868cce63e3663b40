package payment

import (
	"time"

	errors "github.com/BollineniRohith123/nibog-platform/internal"
	"github.com/BollineniRohith123/nibog-platform/internal/core/common/validation"
	"github.com/BollineniRohith123/nibog-platform/internal/core/datamodel/payment"
)

// InitiatePaymentRequest starts a payment for a registration. AmountPaise is
// optional: when present it must match the event price exactly, otherwise the
// price is looked up from the catalog.
type InitiatePaymentRequest struct {
	RegistrationID int64  `json:"registration_id"`
	AmountPaise    *int64 `json:"amount_paise,omitempty"`
}

func (r *InitiatePaymentRequest) Validate() error {
	validator := validation.NewValidator()

	validator.Field("registration_id", r.RegistrationID).Required()

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}

	if r.AmountPaise != nil {
		if appErr := validation.ValidatePaymentAmount(*r.AmountPaise); appErr != nil {
			return appErr
		}
	}
	return nil
}

type InitiatePaymentResponse struct {
	MerchantTransactionID string `json:"merchant_transaction_id"`
	PaymentURL            string `json:"payment_url"`
	AmountPaise           int64  `json:"amount_paise"`
	Status                string `json:"status"`
}

// GatewayCallbackRequest is the body PhonePe posts to the callback and
// webhook endpoints. Only the transaction id is trusted; the status field is
// a hint that is logged and then re-verified against the gateway.
type GatewayCallbackRequest struct {
	MerchantTransactionID string `json:"merchantTransactionId"`
	TransactionID         string `json:"transactionId,omitempty"`
	Code                  string `json:"code,omitempty"`
	Status                string `json:"status,omitempty"`
}

func (r *GatewayCallbackRequest) Validate() error {
	validator := validation.NewValidator()

	validator.Field("merchantTransactionId", r.MerchantTransactionID).Required()

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

type RefundRequestBody struct {
	Reason string `json:"reason,omitempty"`
}

// PaymentAttemptDTO is the external view of a ledger row.
type PaymentAttemptDTO struct {
	ID                    int64     `json:"id"`
	MerchantTransactionID string    `json:"merchant_transaction_id"`
	GatewayTransactionID  *string   `json:"gateway_transaction_id,omitempty"`
	RegistrationID        int64     `json:"registration_id"`
	AmountPaise           int64     `json:"amount_paise"`
	Status                string    `json:"status"`
	RefundID              *string   `json:"refund_id,omitempty"`
	FailureReason         *string   `json:"failure_reason,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

func ToDTO(p *payment.PaymentAttempt) *PaymentAttemptDTO {
	return &PaymentAttemptDTO{
		ID:                    p.ID,
		MerchantTransactionID: p.MerchantTransactionID,
		GatewayTransactionID:  p.GatewayTransactionID,
		RegistrationID:        p.RegistrationID,
		AmountPaise:           p.AmountPaise,
		Status:                p.Status,
		RefundID:              p.RefundID,
		FailureReason:         p.FailureReason,
		CreatedAt:             p.CreatedAt,
		UpdatedAt:             p.UpdatedAt,
	}
}

func ToDTOs(attempts []*payment.PaymentAttempt) []*PaymentAttemptDTO {
	dtos := make([]*PaymentAttemptDTO, 0, len(attempts))
	for _, p := range attempts {
		dtos = append(dtos, ToDTO(p))
	}
	return dtos
}

// ValidateAmountAgainstPrice enforces that a caller-supplied amount matches
// the catalog price for the event.
func ValidateAmountAgainstPrice(requested *int64, pricePaise int64) error {
	if requested != nil && *requested != pricePaise {
		return errors.ErrAmountMismatch
	}
	return nil
}
