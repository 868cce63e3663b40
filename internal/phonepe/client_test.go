package phonepe_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/BollineniRohith123/nibog-platform/internal/phonepe"
)

var _ = Describe("Client", func() {
	var (
		client     *phonepe.Client
		mockServer *httptest.Server
		logger     *slog.Logger
	)

	newClient := func(baseURL string) *phonepe.Client {
		return phonepe.NewClient(phonepe.Config{
			BaseURL:     baseURL,
			MerchantID:  "MERCHANTTEST",
			SaltKey:     "test-salt-key",
			SaltIndex:   "1",
			RedirectURL: "https://nibog.example/payment/redirect",
			CallbackURL: "https://nibog.example/api/v1/payments/callback",
			Timeout:     5 * time.Second,
		}, logger)
	}

	BeforeEach(func() {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	})

	AfterEach(func() {
		if mockServer != nil {
			mockServer.Close()
		}
	})

	Describe("Initiate", func() {
		Context("when the gateway accepts the payment", func() {
			BeforeEach(func() {
				mockServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					Expect(r.Method).To(Equal(http.MethodPost))
					Expect(r.URL.Path).To(Equal("/pg/v1/pay"))
					Expect(r.Header.Get("X-VERIFY")).ToNot(BeEmpty())

					body, err := io.ReadAll(r.Body)
					Expect(err).ToNot(HaveOccurred())

					var envelope struct {
						Request string `json:"request"`
					}
					Expect(json.Unmarshal(body, &envelope)).To(Succeed())

					// The signed header must match the envelope contents.
					signer := phonepe.NewSigner("test-salt-key", "1")
					Expect(signer.Verify(envelope.Request, r.Header.Get("X-VERIFY"))).To(BeTrue())

					decoded, err := base64.StdEncoding.DecodeString(envelope.Request)
					Expect(err).ToNot(HaveOccurred())

					var payload map[string]interface{}
					Expect(json.Unmarshal(decoded, &payload)).To(Succeed())
					Expect(payload["merchantId"]).To(Equal("MERCHANTTEST"))
					Expect(payload["merchantTransactionId"]).To(Equal("MT1231700000000000"))
					Expect(payload["amount"]).To(BeNumerically("==", 50000))

					w.Header().Set("Content-Type", "application/json")
					json.NewEncoder(w).Encode(map[string]interface{}{
						"success": true,
						"code":    "PAYMENT_INITIATED",
						"data": map[string]interface{}{
							"merchantTransactionId": "MT1231700000000000",
							"instrumentResponse": map[string]interface{}{
								"redirectInfo": map[string]interface{}{
									"url": "https://mercury.phonepe.com/transact/pay123",
								},
							},
						},
					})
				}))
				client = newClient(mockServer.URL)
			})

			It("should return the hosted pay URL", func() {
				result, err := client.Initiate(context.Background(), phonepe.InitiateRequest{
					MerchantTransactionID: "MT1231700000000000",
					AmountPaise:           50000,
					CustomerName:          "Asha Rao",
					CustomerEmail:         "asha@example.com",
					CustomerPhone:         "9876543210",
				})

				Expect(err).ToNot(HaveOccurred())
				Expect(result.PayURL).To(Equal("https://mercury.phonepe.com/transact/pay123"))
			})
		})

		Context("when the gateway responds without a pay URL", func() {
			BeforeEach(func() {
				mockServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					json.NewEncoder(w).Encode(map[string]interface{}{
						"success": false,
						"code":    "BAD_REQUEST",
					})
				}))
				client = newClient(mockServer.URL)
			})

			It("should report the gateway as unavailable", func() {
				result, err := client.Initiate(context.Background(), phonepe.InitiateRequest{
					MerchantTransactionID: "MT1231700000000000",
					AmountPaise:           50000,
				})

				Expect(err).To(MatchError(phonepe.ErrGatewayUnavailable))
				Expect(result).To(BeNil())
			})
		})

		Context("when the gateway is unreachable", func() {
			It("should report the gateway as unavailable", func() {
				client = newClient("http://127.0.0.1:1")

				result, err := client.Initiate(context.Background(), phonepe.InitiateRequest{
					MerchantTransactionID: "MT1231700000000000",
					AmountPaise:           50000,
				})

				Expect(err).To(MatchError(phonepe.ErrGatewayUnavailable))
				Expect(result).To(BeNil())
			})
		})
	})

	Describe("Verify", func() {
		Context("when the payment succeeded", func() {
			BeforeEach(func() {
				mockServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					Expect(r.Method).To(Equal(http.MethodGet))
					Expect(r.URL.Path).To(Equal("/pg/v1/status/MERCHANTTEST/MT1231700000000000"))
					Expect(r.Header.Get("X-MERCHANT-ID")).To(Equal("MERCHANTTEST"))

					// Status calls sign the path, not a body.
					signer := phonepe.NewSigner("test-salt-key", "1")
					Expect(signer.Verify(r.URL.Path, r.Header.Get("X-VERIFY"))).To(BeTrue())

					json.NewEncoder(w).Encode(map[string]interface{}{
						"success": true,
						"code":    "PAYMENT_SUCCESS",
						"data": map[string]interface{}{
							"transactionId": "T2408291023",
						},
					})
				}))
				client = newClient(mockServer.URL)
			})

			It("should return SUCCESS with the gateway transaction id", func() {
				result, err := client.Verify(context.Background(), "MT1231700000000000")

				Expect(err).ToNot(HaveOccurred())
				Expect(result.Status).To(Equal(phonepe.StateSuccess))
				Expect(result.GatewayTransactionID).To(Equal("T2408291023"))
				Expect(result.Raw).ToNot(BeEmpty())
			})
		})

		Context("when the payment was declined", func() {
			BeforeEach(func() {
				mockServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					json.NewEncoder(w).Encode(map[string]interface{}{
						"success": false,
						"code":    "PAYMENT_DECLINED",
					})
				}))
				client = newClient(mockServer.URL)
			})

			It("should return FAILED", func() {
				result, err := client.Verify(context.Background(), "MT1231700000000000")

				Expect(err).ToNot(HaveOccurred())
				Expect(result.Status).To(Equal(phonepe.StateFailed))
			})
		})

		Context("when the payment is still in flight", func() {
			BeforeEach(func() {
				mockServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					json.NewEncoder(w).Encode(map[string]interface{}{
						"success": true,
						"code":    "PAYMENT_PENDING",
					})
				}))
				client = newClient(mockServer.URL)
			})

			It("should return PENDING", func() {
				result, err := client.Verify(context.Background(), "MT1231700000000000")

				Expect(err).ToNot(HaveOccurred())
				Expect(result.Status).To(Equal(phonepe.StatePending))
			})
		})

		Context("when the gateway returns an unknown code", func() {
			BeforeEach(func() {
				mockServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					json.NewEncoder(w).Encode(map[string]interface{}{
						"success": true,
						"code":    "SOME_FUTURE_CODE",
					})
				}))
				client = newClient(mockServer.URL)
			})

			It("should treat it as PENDING rather than guessing an outcome", func() {
				result, err := client.Verify(context.Background(), "MT1231700000000000")

				Expect(err).ToNot(HaveOccurred())
				Expect(result.Status).To(Equal(phonepe.StatePending))
			})
		})

		Context("when the gateway returns a server error", func() {
			BeforeEach(func() {
				mockServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusBadGateway)
				}))
				client = newClient(mockServer.URL)
			})

			It("should report the gateway as unavailable", func() {
				result, err := client.Verify(context.Background(), "MT1231700000000000")

				Expect(err).To(MatchError(phonepe.ErrGatewayUnavailable))
				Expect(result).To(BeNil())
			})
		})

		Context("when the response body is not JSON", func() {
			BeforeEach(func() {
				mockServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.Write([]byte("<html>maintenance</html>"))
				}))
				client = newClient(mockServer.URL)
			})

			It("should report the gateway as unavailable", func() {
				result, err := client.Verify(context.Background(), "MT1231700000000000")

				Expect(err).To(MatchError(phonepe.ErrGatewayUnavailable))
				Expect(result).To(BeNil())
			})
		})
	})

	Describe("Refund", func() {
		Context("when the gateway confirms the refund", func() {
			BeforeEach(func() {
				mockServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					Expect(r.URL.Path).To(Equal("/pg/v1/refund"))

					body, err := io.ReadAll(r.Body)
					Expect(err).ToNot(HaveOccurred())

					var envelope struct {
						Request string `json:"request"`
					}
					Expect(json.Unmarshal(body, &envelope)).To(Succeed())

					decoded, err := base64.StdEncoding.DecodeString(envelope.Request)
					Expect(err).ToNot(HaveOccurred())

					var payload map[string]interface{}
					Expect(json.Unmarshal(decoded, &payload)).To(Succeed())
					Expect(payload["originalTransactionId"]).To(Equal("MT1231700000000000"))
					Expect(payload["merchantTransactionId"]).To(Equal("RF1231700000099999"))

					json.NewEncoder(w).Encode(map[string]interface{}{
						"success": true,
						"code":    "REFUND_SUCCESS",
						"data": map[string]interface{}{
							"transactionId": "R2408291024",
						},
					})
				}))
				client = newClient(mockServer.URL)
			})

			It("should return the gateway refund id", func() {
				result, err := client.Refund(context.Background(), phonepe.RefundRequest{
					MerchantRefundID:      "RF1231700000099999",
					OriginalTransactionID: "MT1231700000000000",
					AmountPaise:           50000,
				})

				Expect(err).ToNot(HaveOccurred())
				Expect(result.RefundID).To(Equal("R2408291024"))
			})
		})

		Context("when the gateway declines the refund", func() {
			BeforeEach(func() {
				mockServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					json.NewEncoder(w).Encode(map[string]interface{}{
						"success": false,
						"code":    "REFUND_FAILED",
					})
				}))
				client = newClient(mockServer.URL)
			})

			It("should return a rejection error", func() {
				result, err := client.Refund(context.Background(), phonepe.RefundRequest{
					MerchantRefundID:      "RF1231700000099999",
					OriginalTransactionID: "MT1231700000000000",
					AmountPaise:           50000,
				})

				Expect(err).To(MatchError(phonepe.ErrRefundRejected))
				Expect(result).To(BeNil())
			})
		})
	})
})
