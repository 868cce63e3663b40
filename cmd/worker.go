package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/BollineniRohith123/nibog-platform/internal/catalog"
	catalogPostgres "github.com/BollineniRohith123/nibog-platform/internal/catalog/postgres"
	"github.com/BollineniRohith123/nibog-platform/internal/core/events"
	"github.com/BollineniRohith123/nibog-platform/internal/notification"
	"github.com/BollineniRohith123/nibog-platform/internal/payment"
	paymentPostgres "github.com/BollineniRohith123/nibog-platform/internal/payment/postgres"
	"github.com/BollineniRohith123/nibog-platform/internal/phonepe"
	"github.com/BollineniRohith123/nibog-platform/internal/registration"
	registrationPostgres "github.com/BollineniRohith123/nibog-platform/internal/registration/postgres"
	"github.com/BollineniRohith123/nibog-platform/pkg/logger"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start and manage background workers like the payment reconcile sweeper.`,
}

// Reconcile sweeper command
var reconcileWorkerCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Start the payment reconcile sweeper",
	Long: `Periodically re-verifies payment attempts stuck in INITIATED or PENDING
against the gateway, settling attempts whose callback never arrived.`,
	Run: func(cmd *cobra.Command, args []string) {
		startReconcileWorker()
	},
}

var (
	sweepInterval time.Duration
	sweepMinAge   time.Duration
	sweepBatch    int
)

func startReconcileWorker() {
	config, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.LoggerWrapper()

	sqlxDB, err := initDB(config.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	defer sqlxDB.Close()

	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlxDB.DB}), &gorm.Config{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize gorm: %v\n", err)
		os.Exit(1)
	}

	gatewayClient := phonepe.NewClient(phonepe.Config{
		BaseURL:     config.PhonePe.BaseURL,
		MerchantID:  config.PhonePe.MerchantID,
		SaltKey:     config.PhonePe.SaltKey,
		SaltIndex:   config.PhonePe.SaltIndex,
		RedirectURL: config.PhonePe.RedirectURL,
		CallbackURL: config.PhonePe.CallbackURL,
		Timeout:     config.PhonePe.Timeout,
	}, appLogger)

	eventBus := events.NewEventBus(appLogger)

	catalogService := catalog.NewService(catalogPostgres.NewCatalogRepository(gormDB), appLogger)
	registrationService := registration.NewService(registrationPostgres.NewRegistrationRepository(gormDB), catalogService, appLogger)
	paymentService := payment.NewService(paymentPostgres.NewPaymentRepository(gormDB), gatewayClient, registrationService, eventBus, appLogger)

	// Sweeps settle payments, so their emails go out here too.
	mailer := notification.NewMailer(config.Email, appLogger)
	notification.NewEventHandler(mailer, registrationService, appLogger).RegisterEventHandlers(eventBus)

	appLogger.Info("reconcile sweeper started",
		"interval", sweepInterval,
		"min_age", sweepMinAge,
		"batch_size", sweepBatch)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), sweepInterval)
			if _, err := paymentService.ReconcilePending(ctx, sweepMinAge, sweepBatch); err != nil {
				appLogger.Error("sweep failed", "error", err)
			}
			cancel()
		case sig := <-sigChan:
			appLogger.Info("received signal, shutting down sweeper", "signal", sig)
			return
		}
	}
}

func init() {
	reconcileWorkerCmd.Flags().DurationVar(&sweepInterval, "interval", time.Minute, "Time between sweeps")
	reconcileWorkerCmd.Flags().DurationVar(&sweepMinAge, "min-age", 5*time.Minute, "Only reconcile attempts untouched for this long")
	reconcileWorkerCmd.Flags().IntVar(&sweepBatch, "batch-size", 50, "Maximum attempts per sweep")

	workerCmd.AddCommand(reconcileWorkerCmd)

	rootCmd.AddCommand(workerCmd)
}
