// File: lumident/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lumident/config"
	"lumident/cron"
	"lumident/database"
	bookingRepo "lumident/database/repository/booking"
	"lumident/handlers"
	"lumident/routes"
	"lumident/services/booking"
	"lumident/services/calendar"
	"lumident/services/notification"
	"lumident/services/payment"
	"lumident/services/tasks"
	"lumident/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitBookingCache()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())

	// repositories.
	recordsRepo := bookingRepo.NewMongoBookingRepo()
	if err := recordsRepo.EnsureIndexes(); err != nil {
		logger.Sugar().Fatalf("main: failed to ensure booking indexes: %v", err)
	}

	// services.
	gatewayClient := payment.NewHTTPGateway(payment.GatewayConfig{
		MerchantID:  config.AppConfig.GatewayMerchantID,
		Secret:      config.AppConfig.GatewaySecret,
		BaseURL:     config.AppConfig.GatewayBaseURL,
		RedirectURL: config.AppConfig.GatewayRedirectURL,
		CallbackURL: config.AppConfig.GatewayCallbackURL,
		Currency:    config.AppConfig.Currency,
	}, logger)

	calendarService := calendar.NewHTTPCalendarService(
		config.AppConfig.CalendarBaseURL,
		config.AppConfig.CalendarAPIKey,
		logger,
	)

	mailer := notification.NewHTTPMailer(
		config.AppConfig.MailBaseURL,
		config.AppConfig.MailAPIKey,
		config.AppConfig.MailSender,
	)
	notificationService := notification.NewDefaultNotificationService(mailer, logger, config.AppConfig.NotifyMaxAttempts)

	draftStore := booking.NewRedisDraftStore(utils.GetBookingCacheClient(), config.BookingTTL())
	reminderScheduler := tasks.NewAsynqReminderScheduler()
	defer reminderScheduler.Close()

	orchestrator := booking.NewDefaultBookingOrchestrator(
		draftStore,
		gatewayClient,
		calendarService,
		notificationService,
		recordsRepo,
		reminderScheduler,
		logger,
		config.BookingTTL(),
		config.AppConfig.GatewayRetries,
		config.AppConfig.Currency,
		time.Duration(config.AppConfig.ReminderLeadHours)*time.Hour,
	)

	bookingHandler := handlers.NewBookingHandler(orchestrator, logger)

	// Register routes.
	routes.RegisterRoutes(router, bookingHandler)

	// Background workers.
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()
	go cron.StartSweepWorker(workerCtx, orchestrator, config.SweepInterval())
	cron.InitReminderWorker(notificationService)

	utils.StartHealthMonitor(utils.GetBookingCacheClient(), database.MongoClient)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	cancelWorkers()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
