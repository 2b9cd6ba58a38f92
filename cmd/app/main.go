package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"gymdesk/internal/audit"
	"gymdesk/internal/autoprocess"
	"gymdesk/internal/booking"
	"gymdesk/internal/config"
	"gymdesk/internal/db"
	"gymdesk/internal/email"
	"gymdesk/internal/events"
	"gymdesk/internal/gym"
	"gymdesk/internal/lock"
	"gymdesk/internal/logger"
	"gymdesk/internal/notification"
	"gymdesk/internal/scheduler"
	"gymdesk/internal/server"
	"gymdesk/internal/settings"
)

// @title GymDesk API
// @version 1.0
// @description Gym owner back office: automatic confirmation and cancellation of bookings.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger.Init()
	logger.Info("Starting GymDesk application")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	logger.Info("Connecting to database...")
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()
	logger.Info("Database connected")

	if err := db.RunMigrations(database, cfg.MigrationsPath); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Migrations completed")

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	emailService := email.New(
		rdb,
		cfg.EmailFrom,
		cfg.EmailFromName,
		cfg.SMTPHost,
		cfg.SMTPPort,
		cfg.SMTPUser,
		cfg.SMTPPass,
	)
	logger.Info("Email service initialized")

	var publisher autoprocess.EventPublisher
	if cfg.RabbitURL != "" {
		p, err := events.NewPublisher(cfg.RabbitURL, cfg.EventsExchange)
		if err != nil {
			logger.Warn("Event publishing disabled", "error", err)
		} else {
			defer p.Close()
			publisher = p
			logger.Info("Event publisher connected", "exchange", cfg.EventsExchange)
		}
	}

	bookings := booking.NewRepository(database)
	gymService := gym.NewService(gym.NewRepository(database))

	autoService := autoprocess.NewService(
		autoprocess.NewPolicyStore(settings.NewRepository(database)),
		bookings,
		autoprocess.NewTransitioner(database, bookings, notification.NewRepository(), audit.NewRepository()),
		emailService,
		publisher,
		autoprocess.NewRedisGate(lock.New(rdb, "gymdesk:autoprocess:", cfg.AutoProcessLockTTL)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go emailService.Start(ctx)
	go scheduler.New(autoService, cfg.AutoProcessInterval).Start(ctx)

	srv := server.New(cfg, server.Deps{
		DB:          database,
		Owners:      gymService,
		AutoProcess: autoprocess.NewHandler(autoService),
	})

	serverErrChan := make(chan error, 1)
	go func() {
		if err := srv.Start(cfg.Port); err != nil {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Infof("Received signal: %v", sig)
	case err := <-serverErrChan:
		logger.Errorf("Server error: %v", err)
	}

	logger.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during server shutdown: %v", err)
	}

	logger.Info("Server stopped")
}
