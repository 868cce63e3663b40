package payment

import (
	"encoding/json"
	"time"
)

// Payment attempt statuses. Transitions are one-directional: INITIATED ->
// PENDING -> SUCCESS|FAILED, with SUCCESS -> REFUNDED as the only reverse edge.
const (
	StatusInitiated = "INITIATED"
	StatusPending   = "PENDING"
	StatusSuccess   = "SUCCESS"
	StatusFailed    = "FAILED"
	StatusRefunded  = "REFUNDED"
)

// PaymentAttempt is one row per payment attempt, keyed by the merchant-generated
// transaction id echoed back by the gateway.
type PaymentAttempt struct {
	ID                    int64           `gorm:"primaryKey"`
	MerchantTransactionID string          `gorm:"column:merchant_transaction_id;not null;uniqueIndex"`
	GatewayTransactionID  *string         `gorm:"column:gateway_transaction_id"`
	RegistrationID        int64           `gorm:"column:registration_id;not null;index"`
	AmountPaise           int64           `gorm:"column:amount_paise;not null"`
	Status                string          `gorm:"column:status;default:INITIATED"`
	GatewayResponse       json.RawMessage `gorm:"column:gateway_response;type:jsonb"`
	RefundID              *string         `gorm:"column:refund_id"`
	FailureReason         *string         `gorm:"column:failure_reason"`
	CreatedAt             time.Time       `gorm:"column:created_at;default:now()"`
	UpdatedAt             time.Time       `gorm:"column:updated_at;default:now()"`
}

func (PaymentAttempt) TableName() string {
	return "payment_attempts"
}

func (p *PaymentAttempt) IsTerminal() bool {
	switch p.Status {
	case StatusSuccess, StatusFailed, StatusRefunded:
		return true
	}
	return false
}

func (p *PaymentAttempt) IsActive() bool {
	return p.Status == StatusInitiated || p.Status == StatusPending
}

// LegalPriorStatuses returns the statuses a row may hold for a transition into
// next to be applied. Conditional updates use this set in their WHERE clause so
// a duplicate delivery becomes a no-op instead of a double transition.
func LegalPriorStatuses(next string) []string {
	switch next {
	case StatusPending:
		return []string{StatusInitiated}
	case StatusSuccess, StatusFailed:
		return []string{StatusInitiated, StatusPending}
	case StatusRefunded:
		return []string{StatusSuccess}
	}
	return nil
}
