package payment_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apperrors "github.com/BollineniRohith123/nibog-platform/internal"
	"github.com/BollineniRohith123/nibog-platform/internal/core/datamodel/payment"
	"github.com/BollineniRohith123/nibog-platform/internal/core/events"
	paymentPkg "github.com/BollineniRohith123/nibog-platform/internal/payment"
	"github.com/BollineniRohith123/nibog-platform/internal/phonepe"
)

func TestPaymentService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Payment Service Suite")
}

// Mock ledger with the same conditional-transition semantics as the real
// repository: a transition only applies from a legal prior status. Guarded by
// a mutex so concurrent reconciles can race against it like against the real
// conditional update.
type mockLedger struct {
	mu             sync.Mutex
	attempts       map[string]*payment.PaymentAttempt
	nextID         int64
	createError    error
	getError       error
	getActiveError error
}

func newMockLedger() *mockLedger {
	return &mockLedger{attempts: make(map[string]*payment.PaymentAttempt)}
}

func (m *mockLedger) Create(attempt *payment.PaymentAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createError != nil {
		return m.createError
	}
	m.nextID++
	attempt.ID = m.nextID
	attempt.CreatedAt = time.Now()
	attempt.UpdatedAt = time.Now()
	m.attempts[attempt.MerchantTransactionID] = attempt
	return nil
}

func (m *mockLedger) GetByID(id int64) (*payment.PaymentAttempt, error) {
	for _, a := range m.attempts {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, errors.New("payment attempt not found")
}

func (m *mockLedger) GetByMerchantTransactionID(merchantTransactionID string) (*payment.PaymentAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getError != nil {
		return nil, m.getError
	}
	a, exists := m.attempts[merchantTransactionID]
	if !exists {
		return nil, errors.New("payment attempt not found")
	}
	clone := *a
	return &clone, nil
}

func (m *mockLedger) GetByRegistrationID(registrationID int64) ([]*payment.PaymentAttempt, error) {
	var attempts []*payment.PaymentAttempt
	for _, a := range m.attempts {
		if a.RegistrationID == registrationID {
			attempts = append(attempts, a)
		}
	}
	return attempts, nil
}

func (m *mockLedger) GetActiveOrPaidByRegistrationID(registrationID int64) (*payment.PaymentAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getActiveError != nil {
		return nil, m.getActiveError
	}
	for _, a := range m.attempts {
		if a.RegistrationID == registrationID && (a.IsActive() || a.Status == payment.StatusSuccess) {
			clone := *a
			return &clone, nil
		}
	}
	return nil, nil
}

func (m *mockLedger) MarkPending(id int64, gatewayResponse json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.attempts {
		if a.ID == id && a.Status == payment.StatusInitiated {
			a.Status = payment.StatusPending
			a.GatewayResponse = gatewayResponse
			a.UpdatedAt = time.Now()
		}
	}
	return nil
}

func (m *mockLedger) MarkFailed(id int64, failureReason string, gatewayResponse json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.attempts {
		if a.ID == id {
			a.Status = payment.StatusFailed
			a.FailureReason = &failureReason
			a.GatewayResponse = gatewayResponse
			a.UpdatedAt = time.Now()
		}
	}
	return nil
}

func (m *mockLedger) RecordOutcome(merchantTransactionID, status string, outcome paymentPkg.OutcomeDetails) (*payment.PaymentAttempt, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, exists := m.attempts[merchantTransactionID]
	if !exists {
		return nil, false, errors.New("payment attempt not found")
	}

	legal := false
	for _, from := range payment.LegalPriorStatuses(status) {
		if a.Status == from {
			legal = true
			break
		}
	}
	if !legal {
		clone := *a
		return &clone, false, nil
	}

	a.Status = status
	if outcome.GatewayTransactionID != nil {
		a.GatewayTransactionID = outcome.GatewayTransactionID
	}
	if outcome.RefundID != nil {
		a.RefundID = outcome.RefundID
	}
	if outcome.FailureReason != nil {
		a.FailureReason = outcome.FailureReason
	}
	if outcome.GatewayResponse != nil {
		a.GatewayResponse = outcome.GatewayResponse
	}
	a.UpdatedAt = time.Now()
	clone := *a
	return &clone, true, nil
}

func (m *mockLedger) ListUnsettled(olderThan time.Duration, limit int) ([]*payment.PaymentAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := time.Now().Add(-olderThan)
	var attempts []*payment.PaymentAttempt
	for _, a := range m.attempts {
		if a.IsActive() && a.UpdatedAt.Before(cutoff) {
			attempts = append(attempts, a)
		}
		if len(attempts) == limit {
			break
		}
	}
	return attempts, nil
}

// Mock gateway with call counters and request capture so tests can assert
// which calls happened and what went out on the wire.
type mockGateway struct {
	mu sync.Mutex

	initiateResult *phonepe.InitiateResult
	initiateError  error
	verifyResult   *phonepe.VerifyResult
	verifyError    error
	refundResult   *phonepe.RefundResult
	refundError    error

	initiateCalls int
	verifyCalls   int
	refundCalls   int
	refundRequest phonepe.RefundRequest
}

func (m *mockGateway) Initiate(ctx context.Context, req phonepe.InitiateRequest) (*phonepe.InitiateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initiateCalls++
	if m.initiateError != nil {
		return nil, m.initiateError
	}
	return m.initiateResult, nil
}

func (m *mockGateway) Verify(ctx context.Context, merchantTransactionID string) (*phonepe.VerifyResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verifyCalls++
	if m.verifyError != nil {
		return nil, m.verifyError
	}
	return m.verifyResult, nil
}

func (m *mockGateway) Refund(ctx context.Context, req phonepe.RefundRequest) (*phonepe.RefundResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refundCalls++
	m.refundRequest = req
	if m.refundError != nil {
		return nil, m.refundError
	}
	return m.refundResult, nil
}

type mockRegistrations struct {
	mu              sync.Mutex
	infos           map[int64]*paymentPkg.RegistrationInfo
	markCalls       int
	lastMarkStatus  string
	markResultError error
}

func newMockRegistrations() *mockRegistrations {
	return &mockRegistrations{infos: make(map[int64]*paymentPkg.RegistrationInfo)}
}

func (m *mockRegistrations) GetForPayment(registrationID int64) (*paymentPkg.RegistrationInfo, error) {
	info, exists := m.infos[registrationID]
	if !exists {
		return nil, apperrors.ErrRegistrationNotFound
	}
	return info, nil
}

func (m *mockRegistrations) MarkPaymentResult(registrationID int64, paymentStatus string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markCalls++
	m.lastMarkStatus = paymentStatus
	return m.markResultError
}

var _ = Describe("Service", func() {
	var (
		service       *paymentPkg.Service
		ledger        *mockLedger
		gateway       *mockGateway
		registrations *mockRegistrations
		logger        *slog.Logger
		ctx           context.Context
	)

	BeforeEach(func() {
		ledger = newMockLedger()
		gateway = &mockGateway{}
		registrations = newMockRegistrations()
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		ctx = context.Background()

		eventBus := events.NewEventBus(logger)
		service = paymentPkg.NewService(ledger, gateway, registrations, eventBus, logger)

		registrations.infos[123] = &paymentPkg.RegistrationInfo{
			ID:          123,
			EventID:     7,
			EventName:   "Baby Crawling Hyderabad",
			ParentName:  "Asha Rao",
			ParentEmail: "asha@example.com",
			ParentPhone: "9876543210",
			Paid:        false,
			PricePaise:  50000,
		}

		gateway.initiateResult = &phonepe.InitiateResult{
			PayURL: "https://mercury.phonepe.com/transact/pay123",
			Raw:    json.RawMessage(`{"success":true}`),
		}
	})

	Describe("InitiatePayment", func() {
		Context("when the registration is payable", func() {
			It("should create a pending attempt and return the pay URL", func() {
				// When
				resp, err := service.InitiatePayment(ctx, &paymentPkg.InitiatePaymentRequest{RegistrationID: 123})

				// Then
				Expect(err).ToNot(HaveOccurred())
				Expect(resp.PaymentURL).To(Equal("https://mercury.phonepe.com/transact/pay123"))
				Expect(resp.AmountPaise).To(Equal(int64(50000)))
				Expect(resp.Status).To(Equal(paymentPkg.StatusPending))
				Expect(resp.MerchantTransactionID).To(HavePrefix("MT123"))

				attempt, lookupErr := ledger.GetByMerchantTransactionID(resp.MerchantTransactionID)
				Expect(lookupErr).ToNot(HaveOccurred())
				Expect(attempt.Status).To(Equal(paymentPkg.StatusPending))
				Expect(attempt.AmountPaise).To(Equal(int64(50000)))
			})

			It("should accept a caller amount that matches the event price", func() {
				amount := int64(50000)

				resp, err := service.InitiatePayment(ctx, &paymentPkg.InitiatePaymentRequest{
					RegistrationID: 123,
					AmountPaise:    &amount,
				})

				Expect(err).ToNot(HaveOccurred())
				Expect(resp.AmountPaise).To(Equal(int64(50000)))
			})
		})

		Context("when the registration does not exist", func() {
			It("should return not found without contacting the gateway", func() {
				_, err := service.InitiatePayment(ctx, &paymentPkg.InitiatePaymentRequest{RegistrationID: 999})

				Expect(err).To(MatchError(apperrors.ErrRegistrationNotFound))
				Expect(gateway.initiateCalls).To(Equal(0))
			})
		})

		Context("when the registration is already paid", func() {
			It("should reject without contacting the gateway", func() {
				registrations.infos[123].Paid = true

				_, err := service.InitiatePayment(ctx, &paymentPkg.InitiatePaymentRequest{RegistrationID: 123})

				Expect(err).To(MatchError(apperrors.ErrAlreadyPaid))
				Expect(gateway.initiateCalls).To(Equal(0))
			})
		})

		Context("when the caller amount disagrees with the event price", func() {
			It("should reject before any row is created", func() {
				amount := int64(49900)

				_, err := service.InitiatePayment(ctx, &paymentPkg.InitiatePaymentRequest{
					RegistrationID: 123,
					AmountPaise:    &amount,
				})

				Expect(err).To(MatchError(apperrors.ErrAmountMismatch))
				Expect(gateway.initiateCalls).To(Equal(0))
				Expect(ledger.attempts).To(BeEmpty())
			})
		})

		Context("when an attempt is already in flight", func() {
			It("should reject a second initiation", func() {
				_, err := service.InitiatePayment(ctx, &paymentPkg.InitiatePaymentRequest{RegistrationID: 123})
				Expect(err).ToNot(HaveOccurred())

				_, err = service.InitiatePayment(ctx, &paymentPkg.InitiatePaymentRequest{RegistrationID: 123})

				Expect(err).To(MatchError(apperrors.ErrDuplicateActivePayment))
				Expect(gateway.initiateCalls).To(Equal(1))
			})
		})

		Context("when an earlier attempt already succeeded", func() {
			It("should reject even though the registration still reads unpaid", func() {
				resp, err := service.InitiatePayment(ctx, &paymentPkg.InitiatePaymentRequest{RegistrationID: 123})
				Expect(err).ToNot(HaveOccurred())

				gateway.verifyResult = &phonepe.VerifyResult{
					Status:               phonepe.StateSuccess,
					GatewayTransactionID: "T2408291023",
					Raw:                  json.RawMessage(`{"code":"PAYMENT_SUCCESS"}`),
				}
				_, err = service.Reconcile(ctx, resp.MerchantTransactionID)
				Expect(err).ToNot(HaveOccurred())

				// The mock registration never flips Paid, mimicking a lost
				// registration update. The SUCCESS ledger row alone must
				// block the second charge.
				_, err = service.InitiatePayment(ctx, &paymentPkg.InitiatePaymentRequest{RegistrationID: 123})

				Expect(err).To(MatchError(apperrors.ErrAlreadyPaid))
				Expect(gateway.initiateCalls).To(Equal(1))
				Expect(ledger.attempts).To(HaveLen(1))
			})
		})

		Context("when the duplicate check itself fails", func() {
			It("should abort instead of charging blind", func() {
				ledger.getActiveError = errors.New("connection reset")

				_, err := service.InitiatePayment(ctx, &paymentPkg.InitiatePaymentRequest{RegistrationID: 123})

				Expect(err).To(HaveOccurred())
				Expect(gateway.initiateCalls).To(Equal(0))
				Expect(ledger.attempts).To(BeEmpty())
			})
		})

		Context("when the gateway is unreachable", func() {
			It("should mark the attempt failed and return a retryable error", func() {
				gateway.initiateError = phonepe.ErrGatewayUnavailable

				_, err := service.InitiatePayment(ctx, &paymentPkg.InitiatePaymentRequest{RegistrationID: 123})

				Expect(err).To(HaveOccurred())
				appErr, ok := apperrors.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Code).To(Equal(apperrors.ErrCodeGatewayUnavailable))

				Expect(ledger.attempts).To(HaveLen(1))
				for _, a := range ledger.attempts {
					Expect(a.Status).To(Equal(paymentPkg.StatusFailed))
				}
			})
		})
	})

	Describe("Reconcile", func() {
		var merchantTransactionID string

		BeforeEach(func() {
			resp, err := service.InitiatePayment(ctx, &paymentPkg.InitiatePaymentRequest{RegistrationID: 123})
			Expect(err).ToNot(HaveOccurred())
			merchantTransactionID = resp.MerchantTransactionID
		})

		Context("when the transaction is unknown", func() {
			It("should return payment not found", func() {
				_, err := service.Reconcile(ctx, "MT-does-not-exist")

				Expect(err).To(MatchError(apperrors.ErrPaymentNotFound))
				Expect(gateway.verifyCalls).To(Equal(0))
			})
		})

		Context("when the gateway confirms success", func() {
			BeforeEach(func() {
				gateway.verifyResult = &phonepe.VerifyResult{
					Status:               phonepe.StateSuccess,
					GatewayTransactionID: "T2408291023",
					Raw:                  json.RawMessage(`{"code":"PAYMENT_SUCCESS"}`),
				}
			})

			It("should settle the attempt and confirm the registration", func() {
				result, err := service.Reconcile(ctx, merchantTransactionID)

				Expect(err).ToNot(HaveOccurred())
				Expect(result.Changed).To(BeTrue())
				Expect(result.Settled).To(BeTrue())
				Expect(result.Attempt.Status).To(Equal(paymentPkg.StatusSuccess))
				Expect(*result.Attempt.GatewayTransactionID).To(Equal("T2408291023"))
				Expect(registrations.markCalls).To(Equal(1))
				Expect(registrations.lastMarkStatus).To(Equal(paymentPkg.StatusSuccess))
			})

			It("should let exactly one of two concurrent deliveries apply the transition", func() {
				results := make(chan *paymentPkg.ReconcileResult, 2)

				var wg sync.WaitGroup
				for i := 0; i < 2; i++ {
					wg.Add(1)
					go func() {
						defer wg.Done()
						defer GinkgoRecover()
						result, err := service.Reconcile(ctx, merchantTransactionID)
						Expect(err).ToNot(HaveOccurred())
						results <- result
					}()
				}
				wg.Wait()
				close(results)

				changed := 0
				for result := range results {
					Expect(result.Settled).To(BeTrue())
					Expect(result.Attempt.Status).To(Equal(paymentPkg.StatusSuccess))
					if result.Changed {
						changed++
					}
				}

				Expect(changed).To(Equal(1))
				Expect(registrations.markCalls).To(Equal(1))
			})

			It("should make repeated deliveries no-ops with side effects fired once", func() {
				// First delivery wins.
				first, err := service.Reconcile(ctx, merchantTransactionID)
				Expect(err).ToNot(HaveOccurred())
				Expect(first.Changed).To(BeTrue())

				// Redeliveries of the same outcome.
				for i := 0; i < 5; i++ {
					result, err := service.Reconcile(ctx, merchantTransactionID)
					Expect(err).ToNot(HaveOccurred())
					Expect(result.Changed).To(BeFalse())
					Expect(result.Settled).To(BeTrue())
					Expect(result.Attempt.Status).To(Equal(paymentPkg.StatusSuccess))
				}

				Expect(registrations.markCalls).To(Equal(1))
				// Settled rows never trigger another verify round-trip.
				Expect(gateway.verifyCalls).To(Equal(1))
			})
		})

		Context("when the gateway reports failure", func() {
			BeforeEach(func() {
				gateway.verifyResult = &phonepe.VerifyResult{
					Status: phonepe.StateFailed,
					Raw:    json.RawMessage(`{"code":"PAYMENT_DECLINED"}`),
				}
			})

			It("should fail the attempt and record a reason", func() {
				result, err := service.Reconcile(ctx, merchantTransactionID)

				Expect(err).ToNot(HaveOccurred())
				Expect(result.Changed).To(BeTrue())
				Expect(result.Attempt.Status).To(Equal(paymentPkg.StatusFailed))
				Expect(result.Attempt.FailureReason).ToNot(BeNil())
				Expect(registrations.lastMarkStatus).To(Equal(paymentPkg.StatusFailed))
			})
		})

		Context("when the payment is still pending at the gateway", func() {
			BeforeEach(func() {
				gateway.verifyResult = &phonepe.VerifyResult{
					Status: phonepe.StatePending,
					Raw:    json.RawMessage(`{"code":"PAYMENT_PENDING"}`),
				}
			})

			It("should leave the row pending and report unsettled", func() {
				result, err := service.Reconcile(ctx, merchantTransactionID)

				Expect(err).ToNot(HaveOccurred())
				Expect(result.Settled).To(BeFalse())
				Expect(result.Attempt.Status).To(Equal(paymentPkg.StatusPending))
				Expect(registrations.markCalls).To(Equal(0))
			})
		})

		Context("when the gateway cannot be reached", func() {
			BeforeEach(func() {
				gateway.verifyError = phonepe.ErrGatewayUnavailable
			})

			It("should return a retryable error and leave the row untouched", func() {
				_, err := service.Reconcile(ctx, merchantTransactionID)

				Expect(err).To(HaveOccurred())
				appErr, ok := apperrors.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Code).To(Equal(apperrors.ErrCodeGatewayUnavailable))
				Expect(appErr.StatusCode).To(Equal(503))

				attempt, lookupErr := ledger.GetByMerchantTransactionID(merchantTransactionID)
				Expect(lookupErr).ToNot(HaveOccurred())
				Expect(attempt.Status).To(Equal(paymentPkg.StatusPending))
				Expect(registrations.markCalls).To(Equal(0))
			})
		})
	})

	Describe("Refund", func() {
		var merchantTransactionID string

		settleSuccess := func() {
			gateway.verifyResult = &phonepe.VerifyResult{
				Status:               phonepe.StateSuccess,
				GatewayTransactionID: "T2408291023",
				Raw:                  json.RawMessage(`{"code":"PAYMENT_SUCCESS"}`),
			}
			_, err := service.Reconcile(ctx, merchantTransactionID)
			Expect(err).ToNot(HaveOccurred())
		}

		BeforeEach(func() {
			resp, err := service.InitiatePayment(ctx, &paymentPkg.InitiatePaymentRequest{RegistrationID: 123})
			Expect(err).ToNot(HaveOccurred())
			merchantTransactionID = resp.MerchantTransactionID

			gateway.refundResult = &phonepe.RefundResult{
				RefundID: "R2408291024",
				Raw:      json.RawMessage(`{"code":"REFUND_SUCCESS"}`),
			}
		})

		Context("when the payment succeeded", func() {
			BeforeEach(settleSuccess)

			It("should refund and cancel the registration", func() {
				attempt, err := service.Refund(ctx, merchantTransactionID)

				Expect(err).ToNot(HaveOccurred())
				Expect(attempt.Status).To(Equal(paymentPkg.StatusRefunded))
				Expect(*attempt.RefundID).To(Equal("R2408291024"))
				Expect(gateway.refundCalls).To(Equal(1))
				Expect(registrations.lastMarkStatus).To(Equal(paymentPkg.StatusRefunded))
			})

			It("should send a refund id derived from the transaction", func() {
				_, err := service.Refund(ctx, merchantTransactionID)
				Expect(err).ToNot(HaveOccurred())

				// Deterministic per transaction: a racing duplicate reaches
				// the gateway with the same id and dedupes there.
				Expect(gateway.refundRequest.MerchantRefundID).To(
					Equal("RF" + strings.TrimPrefix(merchantTransactionID, "MT")))
				Expect(gateway.refundRequest.OriginalTransactionID).To(Equal(merchantTransactionID))
				Expect(gateway.refundRequest.AmountPaise).To(Equal(int64(50000)))
			})

			It("should reject a second refund without calling the gateway again", func() {
				_, err := service.Refund(ctx, merchantTransactionID)
				Expect(err).ToNot(HaveOccurred())

				_, err = service.Refund(ctx, merchantTransactionID)

				Expect(err).To(MatchError(apperrors.ErrRefundNotAllowed))
				Expect(gateway.refundCalls).To(Equal(1))
			})
		})

		Context("when the payment never succeeded", func() {
			It("should reject without contacting the gateway", func() {
				_, err := service.Refund(ctx, merchantTransactionID)

				Expect(err).To(MatchError(apperrors.ErrRefundNotAllowed))
				Expect(gateway.refundCalls).To(Equal(0))
			})
		})

		Context("when the gateway declines the refund", func() {
			BeforeEach(func() {
				settleSuccess()
				gateway.refundError = phonepe.ErrRefundRejected
			})

			It("should keep the attempt successful", func() {
				_, err := service.Refund(ctx, merchantTransactionID)

				Expect(err).To(HaveOccurred())
				appErr, ok := apperrors.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Code).To(Equal(apperrors.ErrCodeRefundFailed))

				attempt, lookupErr := ledger.GetByMerchantTransactionID(merchantTransactionID)
				Expect(lookupErr).ToNot(HaveOccurred())
				Expect(attempt.Status).To(Equal(paymentPkg.StatusSuccess))
			})
		})

		Context("when the gateway is unreachable", func() {
			BeforeEach(func() {
				settleSuccess()
				gateway.refundError = phonepe.ErrGatewayUnavailable
			})

			It("should keep the attempt successful and report retryable", func() {
				_, err := service.Refund(ctx, merchantTransactionID)

				Expect(err).To(HaveOccurred())
				appErr, ok := apperrors.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Code).To(Equal(apperrors.ErrCodeGatewayUnavailable))

				attempt, lookupErr := ledger.GetByMerchantTransactionID(merchantTransactionID)
				Expect(lookupErr).ToNot(HaveOccurred())
				Expect(attempt.Status).To(Equal(paymentPkg.StatusSuccess))
			})
		})
	})

	Describe("ReconcilePending", func() {
		var merchantTransactionID string

		BeforeEach(func() {
			resp, err := service.InitiatePayment(ctx, &paymentPkg.InitiatePaymentRequest{RegistrationID: 123})
			Expect(err).ToNot(HaveOccurred())
			merchantTransactionID = resp.MerchantTransactionID

			// Age the attempt so the sweep picks it up.
			ledger.attempts[merchantTransactionID].UpdatedAt = time.Now().Add(-time.Hour)
		})

		Context("when a stale attempt succeeded at the gateway", func() {
			It("should settle it", func() {
				gateway.verifyResult = &phonepe.VerifyResult{
					Status:               phonepe.StateSuccess,
					GatewayTransactionID: "T2408291023",
					Raw:                  json.RawMessage(`{"code":"PAYMENT_SUCCESS"}`),
				}

				settled, err := service.ReconcilePending(ctx, 30*time.Minute, 10)

				Expect(err).ToNot(HaveOccurred())
				Expect(settled).To(Equal(1))

				attempt, lookupErr := ledger.GetByMerchantTransactionID(merchantTransactionID)
				Expect(lookupErr).ToNot(HaveOccurred())
				Expect(attempt.Status).To(Equal(paymentPkg.StatusSuccess))
				Expect(registrations.markCalls).To(Equal(1))
			})
		})

		Context("when the attempt is still pending at the gateway", func() {
			It("should leave it for the next sweep", func() {
				gateway.verifyResult = &phonepe.VerifyResult{Status: phonepe.StatePending}

				settled, err := service.ReconcilePending(ctx, 30*time.Minute, 10)

				Expect(err).ToNot(HaveOccurred())
				Expect(settled).To(Equal(0))

				attempt, lookupErr := ledger.GetByMerchantTransactionID(merchantTransactionID)
				Expect(lookupErr).ToNot(HaveOccurred())
				Expect(attempt.Status).To(Equal(paymentPkg.StatusPending))
			})
		})

		Context("when the gateway is unreachable", func() {
			It("should skip the attempt and not fail the sweep", func() {
				gateway.verifyError = phonepe.ErrGatewayUnavailable

				settled, err := service.ReconcilePending(ctx, 30*time.Minute, 10)

				Expect(err).ToNot(HaveOccurred())
				Expect(settled).To(Equal(0))
			})
		})

		Context("when nothing is stale enough", func() {
			It("should not touch the gateway", func() {
				ledger.attempts[merchantTransactionID].UpdatedAt = time.Now()

				settled, err := service.ReconcilePending(ctx, 30*time.Minute, 10)

				Expect(err).ToNot(HaveOccurred())
				Expect(settled).To(Equal(0))
				Expect(gateway.verifyCalls).To(Equal(0))
			})
		})
	})
})
