package payment

import (
	"context"
	"encoding/json"
	"time"

	"github.com/BollineniRohith123/nibog-platform/internal/core/datamodel/payment"
	"github.com/BollineniRohith123/nibog-platform/internal/phonepe"
)

// Re-exported so handlers and callers never import the datamodel package
// directly for status strings.
const (
	StatusInitiated = payment.StatusInitiated
	StatusPending   = payment.StatusPending
	StatusSuccess   = payment.StatusSuccess
	StatusFailed    = payment.StatusFailed
	StatusRefunded  = payment.StatusRefunded
)

// RepositoryAPI is the ledger. RecordOutcome is the only way to move an
// attempt into a terminal status: it applies a conditional update and reports
// whether this call was the one that changed the row, so concurrent
// deliveries of the same outcome race safely and exactly one wins.
type RepositoryAPI interface {
	Create(attempt *payment.PaymentAttempt) error
	GetByID(id int64) (*payment.PaymentAttempt, error)
	GetByMerchantTransactionID(merchantTransactionID string) (*payment.PaymentAttempt, error)
	GetByRegistrationID(registrationID int64) ([]*payment.PaymentAttempt, error)
	// GetActiveOrPaidByRegistrationID returns any INITIATED, PENDING or
	// SUCCESS attempt for the registration, or nil when there is none. A
	// SUCCESS row blocks initiation even when the registration itself has not
	// been marked paid yet.
	GetActiveOrPaidByRegistrationID(registrationID int64) (*payment.PaymentAttempt, error)
	MarkPending(id int64, gatewayResponse json.RawMessage) error
	MarkFailed(id int64, failureReason string, gatewayResponse json.RawMessage) error
	RecordOutcome(merchantTransactionID, status string, outcome OutcomeDetails) (*payment.PaymentAttempt, bool, error)
	ListUnsettled(olderThan time.Duration, limit int) ([]*payment.PaymentAttempt, error)
}

// OutcomeDetails carries the gateway-reported facts stored alongside a
// terminal transition.
type OutcomeDetails struct {
	GatewayTransactionID *string
	RefundID             *string
	FailureReason        *string
	GatewayResponse      json.RawMessage
}

// Gateway is the slice of the PhonePe client the reconciliation core needs.
type Gateway interface {
	Initiate(ctx context.Context, req phonepe.InitiateRequest) (*phonepe.InitiateResult, error)
	Verify(ctx context.Context, merchantTransactionID string) (*phonepe.VerifyResult, error)
	Refund(ctx context.Context, req phonepe.RefundRequest) (*phonepe.RefundResult, error)
}

// RegistrationInfo is what the payment flow needs to know about a
// registration: contact details for the gateway, whether it is already paid,
// and the authoritative price from the event catalog.
type RegistrationInfo struct {
	ID          int64
	EventID     int64
	EventName   string
	ParentName  string
	ParentEmail string
	ParentPhone string
	Paid        bool
	PricePaise  int64
}

// RegistrationAPI is implemented by the registration service. MarkPaymentResult
// is invoked only by the reconciliation core and only on a real transition.
type RegistrationAPI interface {
	GetForPayment(registrationID int64) (*RegistrationInfo, error)
	MarkPaymentResult(registrationID int64, paymentStatus string) error
}

// ServiceAPI is consumed by the HTTP handlers.
type ServiceAPI interface {
	InitiatePayment(ctx context.Context, req *InitiatePaymentRequest) (*InitiatePaymentResponse, error)
	Reconcile(ctx context.Context, merchantTransactionID string) (*ReconcileResult, error)
	Refund(ctx context.Context, merchantTransactionID string) (*payment.PaymentAttempt, error)
	GetByMerchantTransactionID(merchantTransactionID string) (*payment.PaymentAttempt, error)
	GetByRegistrationID(registrationID int64) ([]*payment.PaymentAttempt, error)
}

// ReconcileResult reports the attempt after reconciliation and whether this
// call applied the transition. A PENDING attempt comes back with Settled
// false; callers answer with a retryable status so delivery is reattempted.
type ReconcileResult struct {
	Attempt *payment.PaymentAttempt
	Changed bool
	Settled bool
}
