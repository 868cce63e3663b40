package postgres

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/BollineniRohith123/nibog-platform/internal/core/datamodel/payment"
	paymentpkg "github.com/BollineniRohith123/nibog-platform/internal/payment"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) paymentpkg.RepositoryAPI {
	return &PaymentRepository{
		db: db,
	}
}

func (r *PaymentRepository) Create(attempt *payment.PaymentAttempt) error {
	return r.db.Create(attempt).Error
}

func (r *PaymentRepository) GetByID(id int64) (*payment.PaymentAttempt, error) {
	var attempt payment.PaymentAttempt
	err := r.db.First(&attempt, id).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *PaymentRepository) GetByMerchantTransactionID(merchantTransactionID string) (*payment.PaymentAttempt, error) {
	var attempt payment.PaymentAttempt
	err := r.db.Where("merchant_transaction_id = ?", merchantTransactionID).First(&attempt).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *PaymentRepository) GetByRegistrationID(registrationID int64) ([]*payment.PaymentAttempt, error) {
	var attempts []*payment.PaymentAttempt
	err := r.db.Where("registration_id = ?", registrationID).Order("created_at DESC").Find(&attempts).Error
	return attempts, err
}

// GetActiveOrPaidByRegistrationID returns the newest attempt that blocks a
// fresh initiation: in flight or already charged. SUCCESS belongs in the set
// because the gateway has taken money for it regardless of what the
// registration row says. Returns nil without error when nothing blocks.
func (r *PaymentRepository) GetActiveOrPaidByRegistrationID(registrationID int64) (*payment.PaymentAttempt, error) {
	var attempt payment.PaymentAttempt
	err := r.db.
		Where("registration_id = ? AND status IN ?", registrationID,
			[]string{payment.StatusInitiated, payment.StatusPending, payment.StatusSuccess}).
		Order("created_at DESC").
		First(&attempt).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *PaymentRepository) MarkPending(id int64, gatewayResponse json.RawMessage) error {
	updates := map[string]interface{}{
		"status":     payment.StatusPending,
		"updated_at": time.Now(),
	}
	if gatewayResponse != nil {
		updates["gateway_response"] = gatewayResponse
	}

	return r.db.Model(&payment.PaymentAttempt{}).
		Where("id = ? AND status = ?", id, payment.StatusInitiated).
		Updates(updates).Error
}

func (r *PaymentRepository) MarkFailed(id int64, failureReason string, gatewayResponse json.RawMessage) error {
	updates := map[string]interface{}{
		"status":         payment.StatusFailed,
		"failure_reason": failureReason,
		"updated_at":     time.Now(),
	}
	if gatewayResponse != nil {
		updates["gateway_response"] = gatewayResponse
	}

	return r.db.Model(&payment.PaymentAttempt{}).
		Where("id = ? AND status IN ?", id, payment.LegalPriorStatuses(payment.StatusFailed)).
		Updates(updates).Error
}

// ListUnsettled returns attempts still in flight that have not been touched
// for olderThan, oldest first. The sweep worker feeds these back through
// reconciliation.
func (r *PaymentRepository) ListUnsettled(olderThan time.Duration, limit int) ([]*payment.PaymentAttempt, error) {
	cutoff := time.Now().Add(-olderThan)

	var attempts []*payment.PaymentAttempt
	err := r.db.
		Where("status IN ? AND updated_at < ?", []string{payment.StatusInitiated, payment.StatusPending}, cutoff).
		Order("updated_at ASC").
		Limit(limit).
		Find(&attempts).Error
	return attempts, err
}

// RecordOutcome applies a terminal transition with a single conditional
// update: the WHERE clause restricts the row to the statuses the transition
// is legal from, so of N concurrent deliveries exactly one sees RowsAffected
// 1 and reports changed. Losers get the current row back unchanged.
func (r *PaymentRepository) RecordOutcome(merchantTransactionID, status string, outcome paymentpkg.OutcomeDetails) (*payment.PaymentAttempt, bool, error) {
	legalFrom := payment.LegalPriorStatuses(status)
	if legalFrom == nil {
		return nil, false, fmt.Errorf("no legal transition into status %s", status)
	}

	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if outcome.GatewayTransactionID != nil {
		updates["gateway_transaction_id"] = *outcome.GatewayTransactionID
	}
	if outcome.RefundID != nil {
		updates["refund_id"] = *outcome.RefundID
	}
	if outcome.FailureReason != nil {
		updates["failure_reason"] = *outcome.FailureReason
	}
	if outcome.GatewayResponse != nil {
		updates["gateway_response"] = outcome.GatewayResponse
	}

	result := r.db.Model(&payment.PaymentAttempt{}).
		Where("merchant_transaction_id = ? AND status IN ?", merchantTransactionID, legalFrom).
		Updates(updates)
	if result.Error != nil {
		return nil, false, result.Error
	}

	attempt, err := r.GetByMerchantTransactionID(merchantTransactionID)
	if err != nil {
		return nil, false, err
	}

	return attempt, result.RowsAffected > 0, nil
}
