package payment_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apperrors "github.com/BollineniRohith123/nibog-platform/internal"
	"github.com/BollineniRohith123/nibog-platform/internal/core/datamodel/payment"
	paymentPkg "github.com/BollineniRohith123/nibog-platform/internal/payment"
	"github.com/BollineniRohith123/nibog-platform/internal/transport"
)

// mockPaymentService records reconcile calls so tests can assert the handler
// reconciles instead of trusting the delivered status.
type mockPaymentService struct {
	reconcileResult *paymentPkg.ReconcileResult
	reconcileError  error
	reconcileCalls  []string
}

func (m *mockPaymentService) InitiatePayment(ctx context.Context, req *paymentPkg.InitiatePaymentRequest) (*paymentPkg.InitiatePaymentResponse, error) {
	return nil, nil
}

func (m *mockPaymentService) Reconcile(ctx context.Context, merchantTransactionID string) (*paymentPkg.ReconcileResult, error) {
	m.reconcileCalls = append(m.reconcileCalls, merchantTransactionID)
	if m.reconcileError != nil {
		return nil, m.reconcileError
	}
	return m.reconcileResult, nil
}

func (m *mockPaymentService) Refund(ctx context.Context, merchantTransactionID string) (*payment.PaymentAttempt, error) {
	return nil, nil
}

func (m *mockPaymentService) GetByMerchantTransactionID(merchantTransactionID string) (*payment.PaymentAttempt, error) {
	return nil, nil
}

func (m *mockPaymentService) GetByRegistrationID(registrationID int64) ([]*payment.PaymentAttempt, error) {
	return nil, nil
}

var _ = Describe("WebhookHandler", func() {
	var (
		handler *paymentPkg.WebhookHandler
		service *mockPaymentService
	)

	BeforeEach(func() {
		service = &mockPaymentService{}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		handler = paymentPkg.NewWebhookHandler(transport.NewBaseHandler(logger), service, logger)
	})

	post := func(body []byte) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		handler.HandleWebhook(rec, req)
		return rec
	}

	Context("when the delivery claims success and verification settles it", func() {
		It("should reconcile by transaction id and answer 200", func() {
			service.reconcileResult = &paymentPkg.ReconcileResult{
				Attempt: &payment.PaymentAttempt{
					MerchantTransactionID: "MT1231700000000000",
					Status:                payment.StatusSuccess,
				},
				Changed: true,
				Settled: true,
			}

			rec := post([]byte(`{"merchantTransactionId":"MT1231700000000000","code":"PAYMENT_SUCCESS","status":"SUCCESS"}`))

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(service.reconcileCalls).To(ConsistOf("MT1231700000000000"))

			var resp paymentPkg.CallbackResponse
			Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.Status).To(Equal(payment.StatusSuccess))
		})
	})

	Context("when the delivery claims success but verification says pending", func() {
		It("should answer 202 so the gateway redelivers", func() {
			service.reconcileResult = &paymentPkg.ReconcileResult{
				Attempt: &payment.PaymentAttempt{
					MerchantTransactionID: "MT1231700000000000",
					Status:                payment.StatusPending,
				},
				Changed: false,
				Settled: false,
			}

			// A forged claim of success must not settle anything.
			rec := post([]byte(`{"merchantTransactionId":"MT1231700000000000","code":"PAYMENT_SUCCESS","status":"SUCCESS"}`))

			Expect(rec.Code).To(Equal(http.StatusAccepted))
			Expect(service.reconcileCalls).To(HaveLen(1))
		})
	})

	Context("when the delivery is enveloped in base64", func() {
		It("should decode the envelope and reconcile", func() {
			service.reconcileResult = &paymentPkg.ReconcileResult{
				Attempt: &payment.PaymentAttempt{
					MerchantTransactionID: "MT1231700000000000",
					Status:                payment.StatusSuccess,
				},
				Changed: true,
				Settled: true,
			}

			inner := `{"code":"PAYMENT_SUCCESS","data":{"merchantTransactionId":"MT1231700000000000","transactionId":"T2408291023","state":"COMPLETED"}}`
			body, err := json.Marshal(map[string]string{
				"response": base64.StdEncoding.EncodeToString([]byte(inner)),
			})
			Expect(err).ToNot(HaveOccurred())

			rec := post(body)

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(service.reconcileCalls).To(ConsistOf("MT1231700000000000"))
		})
	})

	Context("when verification cannot reach the gateway", func() {
		It("should answer 503 so the delivery is retried", func() {
			service.reconcileError = apperrors.NewExternalError("could not verify payment status", apperrors.ErrCodeGatewayUnavailable, nil)

			rec := post([]byte(`{"merchantTransactionId":"MT1231700000000000"}`))

			Expect(rec.Code).To(Equal(http.StatusServiceUnavailable))
		})
	})

	Context("when the transaction is unknown", func() {
		It("should answer 404", func() {
			service.reconcileError = apperrors.ErrPaymentNotFound

			rec := post([]byte(`{"merchantTransactionId":"MT-missing"}`))

			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})
	})

	Context("when the body is not JSON", func() {
		It("should answer 400 without reconciling", func() {
			rec := post([]byte(`not-json`))

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(service.reconcileCalls).To(BeEmpty())
		})
	})

	Context("when the transaction id is missing", func() {
		It("should answer 400 without reconciling", func() {
			rec := post([]byte(`{"code":"PAYMENT_SUCCESS"}`))

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(service.reconcileCalls).To(BeEmpty())
		})
	})
})
