package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypePaymentCompleted = "payment.completed"
	EventTypePaymentFailed    = "payment.failed"
	EventTypePaymentRefunded  = "payment.refunded"
)

type PaymentCompletedEvent struct {
	BaseEvent
	RegistrationID        int64  `json:"registration_id"`
	MerchantTransactionID string `json:"merchant_transaction_id"`
	GatewayTransactionID  string `json:"gateway_transaction_id"`
	AmountPaise           int64  `json:"amount_paise"`
}

func NewPaymentCompletedEvent(registrationID int64, merchantTransactionID, gatewayTransactionID string, amountPaise int64) *PaymentCompletedEvent {
	return &PaymentCompletedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentCompleted,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"registration_id":         registrationID,
				"merchant_transaction_id": merchantTransactionID,
				"gateway_transaction_id":  gatewayTransactionID,
				"amount_paise":            amountPaise,
			},
		},
		RegistrationID:        registrationID,
		MerchantTransactionID: merchantTransactionID,
		GatewayTransactionID:  gatewayTransactionID,
		AmountPaise:           amountPaise,
	}
}

type PaymentFailedEvent struct {
	BaseEvent
	RegistrationID        int64  `json:"registration_id"`
	MerchantTransactionID string `json:"merchant_transaction_id"`
	AmountPaise           int64  `json:"amount_paise"`
	FailureReason         string `json:"failure_reason"`
}

func NewPaymentFailedEvent(registrationID int64, merchantTransactionID string, amountPaise int64, failureReason string) *PaymentFailedEvent {
	return &PaymentFailedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentFailed,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"registration_id":         registrationID,
				"merchant_transaction_id": merchantTransactionID,
				"amount_paise":            amountPaise,
				"failure_reason":          failureReason,
			},
		},
		RegistrationID:        registrationID,
		MerchantTransactionID: merchantTransactionID,
		AmountPaise:           amountPaise,
		FailureReason:         failureReason,
	}
}

type PaymentRefundedEvent struct {
	BaseEvent
	RegistrationID        int64  `json:"registration_id"`
	MerchantTransactionID string `json:"merchant_transaction_id"`
	RefundID              string `json:"refund_id"`
	AmountPaise           int64  `json:"amount_paise"`
}

func NewPaymentRefundedEvent(registrationID int64, merchantTransactionID, refundID string, amountPaise int64) *PaymentRefundedEvent {
	return &PaymentRefundedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentRefunded,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"registration_id":         registrationID,
				"merchant_transaction_id": merchantTransactionID,
				"refund_id":               refundID,
				"amount_paise":            amountPaise,
			},
		},
		RegistrationID:        registrationID,
		MerchantTransactionID: merchantTransactionID,
		RefundID:              refundID,
		AmountPaise:           amountPaise,
	}
}
