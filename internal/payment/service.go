package payment

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	errors "github.com/BollineniRohith123/nibog-platform/internal"
	"github.com/BollineniRohith123/nibog-platform/internal/core/datamodel/payment"
	"github.com/BollineniRohith123/nibog-platform/internal/core/datamodel/registration"
	"github.com/BollineniRohith123/nibog-platform/internal/core/events"
	"github.com/BollineniRohith123/nibog-platform/internal/phonepe"
)

// Service is the reconciliation core. It owns every status transition on the
// ledger: initiation creates the row, reconciliation settles it from a
// verified gateway status, and refund reverses a settled success. Gateway
// callbacks never reach the ledger directly.
type Service struct {
	repo         RepositoryAPI
	gateway      Gateway
	registration RegistrationAPI
	eventBus     *events.EventBus
	logger       *slog.Logger
}

func NewService(repo RepositoryAPI, gateway Gateway, registrationService RegistrationAPI, eventBus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		repo:         repo,
		gateway:      gateway,
		registration: registrationService,
		eventBus:     eventBus,
		logger:       logger,
	}
}

// InitiatePayment creates a ledger row and asks the gateway for a hosted pay
// URL. The amount always comes from the event catalog; a caller-supplied
// amount only gets to agree or be rejected.
func (s *Service) InitiatePayment(ctx context.Context, req *InitiatePaymentRequest) (*InitiatePaymentResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	reg, err := s.registration.GetForPayment(req.RegistrationID)
	if err != nil {
		s.logger.Warn("initiate rejected: registration lookup failed",
			"registration_id", req.RegistrationID, "error", err)
		return nil, err
	}

	if reg.Paid {
		s.logger.Warn("initiate rejected: registration already paid",
			"registration_id", reg.ID)
		return nil, errors.ErrAlreadyPaid
	}

	if err := ValidateAmountAgainstPrice(req.AmountPaise, reg.PricePaise); err != nil {
		s.logger.Warn("initiate rejected: amount mismatch",
			"registration_id", reg.ID,
			"requested_paise", *req.AmountPaise,
			"price_paise", reg.PricePaise)
		return nil, err
	}

	// The ledger is the authority here, not the registration row: a SUCCESS
	// attempt whose registration update was lost must still block a second
	// charge.
	existing, err := s.repo.GetActiveOrPaidByRegistrationID(reg.ID)
	if err != nil {
		s.logger.Error("failed to check for existing attempts",
			"registration_id", reg.ID, "error", err)
		return nil, fmt.Errorf("failed to check existing payment attempts: %w", err)
	}
	if existing != nil {
		s.logger.Warn("initiate rejected: attempt already exists",
			"registration_id", reg.ID,
			"merchant_transaction_id", existing.MerchantTransactionID,
			"status", existing.Status)
		if existing.Status == payment.StatusSuccess {
			return nil, errors.ErrAlreadyPaid
		}
		return nil, errors.ErrDuplicateActivePayment
	}

	merchantTransactionID := newMerchantTransactionID(reg.ID)

	attempt := &payment.PaymentAttempt{
		MerchantTransactionID: merchantTransactionID,
		RegistrationID:        reg.ID,
		AmountPaise:           reg.PricePaise,
		Status:                payment.StatusInitiated,
	}

	if err := s.repo.Create(attempt); err != nil {
		s.logger.Error("failed to create payment attempt", "error", err, "registration_id", reg.ID)
		return nil, fmt.Errorf("failed to create payment attempt: %w", err)
	}

	s.logger.Info("payment attempt created",
		"merchant_transaction_id", merchantTransactionID,
		"registration_id", reg.ID,
		"amount_paise", reg.PricePaise)

	result, err := s.gateway.Initiate(ctx, phonepe.InitiateRequest{
		MerchantTransactionID: merchantTransactionID,
		AmountPaise:           reg.PricePaise,
		CustomerName:          reg.ParentName,
		CustomerEmail:         reg.ParentEmail,
		CustomerPhone:         reg.ParentPhone,
	})
	if err != nil {
		reason := err.Error()
		if markErr := s.repo.MarkFailed(attempt.ID, reason, nil); markErr != nil {
			s.logger.Error("failed to mark attempt failed after gateway error",
				"error", markErr, "merchant_transaction_id", merchantTransactionID)
		}
		return nil, errors.NewExternalError("payment gateway unavailable", errors.ErrCodeGatewayUnavailable, err)
	}

	if err := s.repo.MarkPending(attempt.ID, result.Raw); err != nil {
		s.logger.Error("failed to mark attempt pending",
			"error", err, "merchant_transaction_id", merchantTransactionID)
		return nil, fmt.Errorf("failed to update payment attempt: %w", err)
	}

	return &InitiatePaymentResponse{
		MerchantTransactionID: merchantTransactionID,
		PaymentURL:            result.PayURL,
		AmountPaise:           reg.PricePaise,
		Status:                payment.StatusPending,
	}, nil
}

// Reconcile settles an attempt from the gateway's verified status. It is safe
// to call any number of times for the same transaction: the ledger's
// conditional update makes repeated deliveries no-ops, and side effects
// (registration update, event publish) fire only on the call that actually
// changed the row.
func (s *Service) Reconcile(ctx context.Context, merchantTransactionID string) (*ReconcileResult, error) {
	attempt, err := s.repo.GetByMerchantTransactionID(merchantTransactionID)
	if err != nil {
		s.logger.Warn("reconcile for unknown transaction", "merchant_transaction_id", merchantTransactionID)
		return nil, errors.ErrPaymentNotFound
	}

	if attempt.IsTerminal() {
		s.logger.Info("reconcile on settled attempt, nothing to do",
			"merchant_transaction_id", merchantTransactionID,
			"status", attempt.Status)
		return &ReconcileResult{Attempt: attempt, Changed: false, Settled: true}, nil
	}

	verified, err := s.gateway.Verify(ctx, merchantTransactionID)
	if err != nil {
		// Row stays as it is; the caller answers retryable so the
		// gateway redelivers and we reconcile later.
		s.logger.Error("gateway verify failed, leaving attempt untouched",
			"merchant_transaction_id", merchantTransactionID,
			"error", err)
		return nil, errors.NewExternalError("could not verify payment status", errors.ErrCodeGatewayUnavailable, err)
	}

	switch verified.Status {
	case phonepe.StatePending:
		s.logger.Info("payment still pending at gateway",
			"merchant_transaction_id", merchantTransactionID)
		return &ReconcileResult{Attempt: attempt, Changed: false, Settled: false}, nil

	case phonepe.StateSuccess:
		return s.settle(ctx, merchantTransactionID, payment.StatusSuccess, verified)

	case phonepe.StateFailed:
		return s.settle(ctx, merchantTransactionID, payment.StatusFailed, verified)

	default:
		s.logger.Warn("unexpected verify status, treating as pending",
			"merchant_transaction_id", merchantTransactionID,
			"status", verified.Status)
		return &ReconcileResult{Attempt: attempt, Changed: false, Settled: false}, nil
	}
}

func (s *Service) settle(ctx context.Context, merchantTransactionID, status string, verified *phonepe.VerifyResult) (*ReconcileResult, error) {
	outcome := OutcomeDetails{GatewayResponse: verified.Raw}
	if verified.GatewayTransactionID != "" {
		outcome.GatewayTransactionID = &verified.GatewayTransactionID
	}
	if status == payment.StatusFailed {
		reason := "payment failed at gateway"
		outcome.FailureReason = &reason
	}

	attempt, changed, err := s.repo.RecordOutcome(merchantTransactionID, status, outcome)
	if err != nil {
		s.logger.Error("failed to record payment outcome",
			"merchant_transaction_id", merchantTransactionID,
			"status", status,
			"error", err)
		return nil, fmt.Errorf("failed to record payment outcome: %w", err)
	}

	if !changed {
		s.logger.Info("outcome already recorded by an earlier delivery",
			"merchant_transaction_id", merchantTransactionID,
			"status", attempt.Status)
		return &ReconcileResult{Attempt: attempt, Changed: false, Settled: true}, nil
	}

	s.applyOutcomeSideEffects(ctx, attempt, status)

	return &ReconcileResult{Attempt: attempt, Changed: true, Settled: true}, nil
}

// applyOutcomeSideEffects runs once per transition, on the winning call only.
// Failures here are logged, never propagated: the ledger already holds the
// truth and the registration or notification can be repaired out of band.
func (s *Service) applyOutcomeSideEffects(ctx context.Context, attempt *payment.PaymentAttempt, status string) {
	if err := s.registration.MarkPaymentResult(attempt.RegistrationID, status); err != nil {
		s.logger.Error("failed to update registration after payment outcome",
			"registration_id", attempt.RegistrationID,
			"status", status,
			"error", err)
	}

	switch status {
	case payment.StatusSuccess:
		gatewayTxID := ""
		if attempt.GatewayTransactionID != nil {
			gatewayTxID = *attempt.GatewayTransactionID
		}
		event := events.NewPaymentCompletedEvent(attempt.RegistrationID, attempt.MerchantTransactionID, gatewayTxID, attempt.AmountPaise)
		s.eventBus.Publish(ctx, event)
		s.logger.Info("published payment completed event", "event_id", event.EventID())

	case payment.StatusFailed:
		reason := ""
		if attempt.FailureReason != nil {
			reason = *attempt.FailureReason
		}
		event := events.NewPaymentFailedEvent(attempt.RegistrationID, attempt.MerchantTransactionID, attempt.AmountPaise, reason)
		s.eventBus.Publish(ctx, event)
		s.logger.Info("published payment failed event", "event_id", event.EventID())

	case payment.StatusRefunded:
		refundID := ""
		if attempt.RefundID != nil {
			refundID = *attempt.RefundID
		}
		event := events.NewPaymentRefundedEvent(attempt.RegistrationID, attempt.MerchantTransactionID, refundID, attempt.AmountPaise)
		s.eventBus.Publish(ctx, event)
		s.logger.Info("published payment refunded event", "event_id", event.EventID())
	}
}

// Refund reverses a successful payment. The precondition is checked locally
// before the gateway is ever contacted; only a gateway-confirmed refund moves
// the ledger.
func (s *Service) Refund(ctx context.Context, merchantTransactionID string) (*payment.PaymentAttempt, error) {
	attempt, err := s.repo.GetByMerchantTransactionID(merchantTransactionID)
	if err != nil {
		return nil, errors.ErrPaymentNotFound
	}

	if attempt.Status != payment.StatusSuccess {
		s.logger.Warn("refund rejected: attempt not successful",
			"merchant_transaction_id", merchantTransactionID,
			"status", attempt.Status)
		return nil, errors.ErrRefundNotAllowed
	}

	merchantRefundID := refundIDFor(merchantTransactionID)

	result, err := s.gateway.Refund(ctx, phonepe.RefundRequest{
		MerchantRefundID:      merchantRefundID,
		OriginalTransactionID: merchantTransactionID,
		AmountPaise:           attempt.AmountPaise,
	})
	if err != nil {
		if stderrors.Is(err, phonepe.ErrRefundRejected) {
			return nil, errors.NewConflictError("gateway declined the refund", errors.ErrCodeRefundFailed).WithCause(err)
		}
		return nil, errors.NewExternalError("payment gateway unavailable", errors.ErrCodeGatewayUnavailable, err)
	}

	outcome := OutcomeDetails{
		RefundID:        &result.RefundID,
		GatewayResponse: result.Raw,
	}

	updated, changed, err := s.repo.RecordOutcome(merchantTransactionID, payment.StatusRefunded, outcome)
	if err != nil {
		s.logger.Error("refund confirmed by gateway but ledger update failed",
			"merchant_transaction_id", merchantTransactionID,
			"refund_id", result.RefundID,
			"error", err)
		return nil, fmt.Errorf("failed to record refund: %w", err)
	}

	if changed {
		s.applyOutcomeSideEffects(ctx, updated, payment.StatusRefunded)
	}

	s.logger.Info("payment refunded",
		"merchant_transaction_id", merchantTransactionID,
		"refund_id", result.RefundID,
		"registration_id", updated.RegistrationID)

	return updated, nil
}

// ReconcilePending sweeps attempts stuck in INITIATED or PENDING, typically
// because a callback never arrived, and reconciles each against the gateway.
// A gateway failure on one attempt does not stop the sweep.
func (s *Service) ReconcilePending(ctx context.Context, olderThan time.Duration, limit int) (int, error) {
	attempts, err := s.repo.ListUnsettled(olderThan, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list unsettled attempts: %w", err)
	}

	settled := 0
	for _, attempt := range attempts {
		result, err := s.Reconcile(ctx, attempt.MerchantTransactionID)
		if err != nil {
			s.logger.Warn("sweep could not reconcile attempt",
				"merchant_transaction_id", attempt.MerchantTransactionID,
				"error", err)
			continue
		}
		if result.Settled {
			settled++
		}
	}

	if len(attempts) > 0 {
		s.logger.Info("pending sweep finished",
			"checked", len(attempts),
			"settled", settled)
	}

	return settled, nil
}

func (s *Service) GetByMerchantTransactionID(merchantTransactionID string) (*payment.PaymentAttempt, error) {
	attempt, err := s.repo.GetByMerchantTransactionID(merchantTransactionID)
	if err != nil {
		return nil, errors.ErrPaymentNotFound
	}
	return attempt, nil
}

func (s *Service) GetByRegistrationID(registrationID int64) ([]*payment.PaymentAttempt, error) {
	return s.repo.GetByRegistrationID(registrationID)
}

// RegistrationPaymentStatus maps a ledger status to the registration-side
// payment status written by MarkPaymentResult.
func RegistrationPaymentStatus(ledgerStatus string) string {
	switch ledgerStatus {
	case payment.StatusSuccess:
		return registration.StatusConfirmed
	case payment.StatusRefunded:
		return registration.StatusCancelled
	default:
		return registration.StatusPending
	}
}

func newMerchantTransactionID(registrationID int64) string {
	return fmt.Sprintf("MT%d%d", registrationID, time.Now().UnixMilli())
}

// refundIDFor derives the refund id from the transaction being refunded, so
// overlapping refund requests for the same payment carry the same id and the
// gateway treats the second as a retry of the first.
func refundIDFor(merchantTransactionID string) string {
	return "RF" + strings.TrimPrefix(merchantTransactionID, "MT")
}
