package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/BollineniRohith123/nibog-platform/internal"
	"github.com/BollineniRohith123/nibog-platform/internal/auth"
	authPostgres "github.com/BollineniRohith123/nibog-platform/internal/auth/postgres"
	"github.com/BollineniRohith123/nibog-platform/internal/catalog"
	catalogPostgres "github.com/BollineniRohith123/nibog-platform/internal/catalog/postgres"
	"github.com/BollineniRohith123/nibog-platform/internal/core/events"
	"github.com/BollineniRohith123/nibog-platform/internal/notification"
	"github.com/BollineniRohith123/nibog-platform/internal/payment"
	paymentPostgres "github.com/BollineniRohith123/nibog-platform/internal/payment/postgres"
	"github.com/BollineniRohith123/nibog-platform/internal/phonepe"
	"github.com/BollineniRohith123/nibog-platform/internal/registration"
	registrationPostgres "github.com/BollineniRohith123/nibog-platform/internal/registration/postgres"
	"github.com/BollineniRohith123/nibog-platform/internal/transport"
	"github.com/BollineniRohith123/nibog-platform/internal/transport/rest"
	"github.com/BollineniRohith123/nibog-platform/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	slog.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			slog.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	loggerEnv := "development"
	if config.Observability.Logging.Format == "json" {
		loggerEnv = "production"
	}
	logger.Init(loggerEnv)
	appLogger := logger.LoggerWrapper()

	sqlxDB, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{
		Conn: sqlxDB.DB,
	}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	baseHandler := transport.NewBaseHandler(appLogger)
	eventBus := events.NewEventBus(appLogger)

	// Catalog
	catalogRepo := catalogPostgres.NewCatalogRepository(gormDB)
	catalogService := catalog.NewService(catalogRepo, appLogger)
	catalogHandler := catalog.NewHandler(baseHandler, catalogService, appLogger)

	// Registrations
	registrationRepo := registrationPostgres.NewRegistrationRepository(gormDB)
	registrationService := registration.NewService(registrationRepo, catalogService, appLogger)
	registrationHandler := registration.NewHandler(baseHandler, registrationService, appLogger)

	// Payments and gateway
	gatewayClient := phonepe.NewClient(phonepe.Config{
		BaseURL:     config.PhonePe.BaseURL,
		MerchantID:  config.PhonePe.MerchantID,
		SaltKey:     config.PhonePe.SaltKey,
		SaltIndex:   config.PhonePe.SaltIndex,
		RedirectURL: config.PhonePe.RedirectURL,
		CallbackURL: config.PhonePe.CallbackURL,
		Timeout:     config.PhonePe.Timeout,
	}, appLogger)

	paymentRepo := paymentPostgres.NewPaymentRepository(gormDB)
	paymentService := payment.NewService(paymentRepo, gatewayClient, registrationService, eventBus, appLogger)
	paymentHandler := payment.NewHandler(baseHandler, paymentService, appLogger)
	webhookHandler := payment.NewWebhookHandler(baseHandler, paymentService, appLogger)

	// Auth
	tokenGenerator := auth.NewJWTTokenGenerator(
		config.Security.AccessTokenSecret,
		config.Security.RefreshTokenSecret,
		config.Security.AccessTokenDuration,
		config.Security.RefreshTokenDuration,
	)
	authRepo := authPostgres.NewRepository(gormDB)
	authService := auth.NewService(authRepo, tokenGenerator, config.Security.BCryptCost)
	authHandler := auth.NewHandler(authService)
	permissionMiddleware := auth.NewPermissionMiddleware(baseHandler, appLogger)

	// Notifications ride on the event bus; payment flows never wait on them.
	mailer := notification.NewMailer(config.Email, appLogger)
	notificationHandler := notification.NewEventHandler(mailer, registrationService, appLogger)
	notificationHandler.RegisterEventHandlers(eventBus)

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, sqlxDB.DB, rest.Handlers{
		Auth:           authHandler,
		Permissions:    permissionMiddleware,
		Catalog:        catalogHandler,
		Registration:   registrationHandler,
		Payment:        paymentHandler,
		PaymentWebhook: webhookHandler,
	}, appLogger)

	return &Dependencies{
		Config: config,
		Logger: appLogger,
		DB:     sqlxDB,
		Router: router,
	}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// verify connection; close underlying *sql.DB on failure
	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
