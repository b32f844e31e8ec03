package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"studio-service/internal/admin"
	"studio-service/internal/admin/admin_api"
	adminstore "studio-service/internal/admin/db"
	"studio-service/internal/auth"
	"studio-service/internal/booking"
	"studio-service/internal/booking/booking_api"
	bookingdb "studio-service/internal/booking/db"
	bookingredis "studio-service/internal/booking/redis"
	"studio-service/internal/config"
	"studio-service/internal/database/migrations"
	"studio-service/internal/docs"
	"studio-service/internal/kafka"
	"studio-service/internal/logger"
	"studio-service/internal/mailer"
	"studio-service/internal/outbox"
	"studio-service/internal/portal"
	"studio-service/internal/project"
	projectdb "studio-service/internal/project/db"
	"studio-service/internal/project/project_api"
	"studio-service/internal/storage"
)

func main() {
	_ = godotenv.Load()

	log := logger.NewLogger()
	defer log.Close()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- PostgreSQL ---
	connector := pgdriver.NewConnector(pgdriver.WithDSN(cfg.Database.DSN))
	sqldb := sql.OpenDB(connector)
	defer sqldb.Close()

	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	if err := pingWithRetry(sqldb, 5); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to Postgres: %v", err))
	}
	bunDB := bun.NewDB(sqldb, pgdialect.New())

	if cfg.Database.AutoMigrate {
		runner := migrations.NewRunner(bunDB, migrations.DefaultOptions(), log)
		if err := runner.Run(); err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("Migrations failed: %v", err))
		}
		runner.Close()
	}

	// --- Redis ---
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to Redis: %v", err))
	}

	// --- Object storage ---
	store, err := storage.NewClient(cfg.Storage)
	if err != nil {
		log.Fatal("STORAGE", fmt.Sprintf("Failed to initialise S3 client: %v", err))
	}

	// --- Kafka ---
	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, kafka.RequiredTopics()); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Could not ensure topics: %v", err))
		}
		producer = kafka.NewProducer(cfg.Kafka.Brokers)
		defer producer.Close()
	}

	// --- Services ---
	bookingStore := &bookingdb.DB{Bun: bunDB}
	projectStore := &projectdb.DB{Bun: bunDB}
	adminStore := &adminstore.DB{Bun: bunDB}

	listingCache := portal.NewListingCache(redisClient)
	hold := bookingredis.NewHold(redisClient)

	bookingService := booking.NewBookingService(bookingStore, hold, log, cfg.App.DepositRate)
	bookingService.ConfigureStripe(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret, cfg.App.BaseURL)

	projectService := project.NewProjectService(projectStore, store, bookingStore, listingCache, log)
	bookingService.Projects = projectService

	gate := portal.NewGate(projectStore, bookingStore, store, listingCache, log)
	adminService := admin.NewAdminService(adminStore, log)

	documents := docs.NewGenerator(os.Getenv("PDF_FONT_PATH"), cfg.App.BaseURL)

	bookingHandler := booking_api.NewHandler(bookingService, documents, log)
	projectHandler := project_api.NewHandler(projectService, gate, log)
	adminHandler := admin_api.NewHandler(adminService, log)

	// --- Outbox dispatcher and email consumers ---
	if producer != nil {
		dispatcher := outbox.NewDispatcher(&outbox.Store{Bun: bunDB}, producer, log)
		go dispatcher.Run(ctx)

		emails := outbox.NewEmailConsumer(mailer.NewMailer(cfg.Email, log), cfg.Email.OperatorEmail, log)

		createdConsumer := kafka.NewConsumer(cfg.Kafka.Brokers, kafka.TopicBookingCreated, cfg.Kafka.GroupID)
		defer createdConsumer.Close()
		go createdConsumer.Start(ctx, emails.HandleCreated)

		statusConsumer := kafka.NewConsumer(cfg.Kafka.Brokers, kafka.TopicBookingStatus, cfg.Kafka.GroupID)
		defer statusConsumer.Close()
		go statusConsumer.Start(ctx, emails.HandleStatus)
	}

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	authn := auth.New(cfg.Auth.OIDCIssuer, adminStore)

	// Public routes: booking form, estimator, enquiries, site content.
	// Auth is optional here so a signed-in client's submissions link to their
	// account while guests pass through.
	r.Group(func(r chi.Router) {
		r.Use(authn.Optional)
		r.Post("/api/v1/bookings", bookingHandler.SubmitBooking)
		r.Post("/api/v1/bookings/estimate", bookingHandler.Estimate)
		r.Get("/api/v1/bookings/lookup", bookingHandler.LookupBooking)
		r.Post("/api/v1/quotes", adminHandler.SubmitQuote)
		r.Get("/api/v1/services", adminHandler.ListServices)
		r.Get("/api/v1/staff", adminHandler.ListStaff)
		r.Get("/api/v1/portfolio", adminHandler.ListPortfolio)
		r.Post("/api/v1/webhooks/stripe", bookingHandler.StripeWebhook)
	})

	// Authenticated client routes.
	r.Group(func(r chi.Router) {
		r.Use(authn.Require)
		r.Get("/api/v1/me/bookings", bookingHandler.ListMyBookings)
		r.Get("/api/v1/me/projects", projectHandler.PortalList)
		r.Get("/api/v1/projects/{projectId}/view", projectHandler.PortalView)
		r.Get("/api/v1/bookings/{bookingId}", bookingHandler.GetBooking)
		r.Post("/api/v1/bookings/{bookingId}/pay-balance", bookingHandler.PayBalance)
		r.Get("/api/v1/bookings/{bookingId}/confirmation.pdf", bookingHandler.DownloadConfirmation)
		r.Get("/api/v1/bookings/{bookingId}/agreement.pdf", bookingHandler.DownloadAgreement)
	})

	// Admin console routes.
	r.Group(func(r chi.Router) {
		r.Use(authn.Require)
		r.Use(auth.RequireAdmin)

		r.Get("/api/v1/admin/dashboard", adminHandler.Dashboard)
		r.Get("/api/v1/admin/bookings", bookingHandler.ListBookings)
		r.Patch("/api/v1/admin/bookings/{bookingId}/status", bookingHandler.SetStatus)
		r.Patch("/api/v1/admin/bookings/{bookingId}/client", bookingHandler.LinkClient)

		r.Post("/api/v1/admin/services", adminHandler.CreateService)
		r.Put("/api/v1/admin/services/{serviceId}", adminHandler.UpdateService)
		r.Delete("/api/v1/admin/services/{serviceId}", adminHandler.DeleteService)

		r.Post("/api/v1/admin/staff", adminHandler.CreateStaff)
		r.Put("/api/v1/admin/staff/{staffId}", adminHandler.UpdateStaff)
		r.Delete("/api/v1/admin/staff/{staffId}", adminHandler.DeleteStaff)

		r.Post("/api/v1/admin/portfolio", adminHandler.CreatePortfolioItem)
		r.Put("/api/v1/admin/portfolio/{itemId}", adminHandler.UpdatePortfolioItem)
		r.Delete("/api/v1/admin/portfolio/{itemId}", adminHandler.DeletePortfolioItem)

		r.Get("/api/v1/admin/quotes", adminHandler.ListQuotes)
		r.Patch("/api/v1/admin/quotes/{quoteId}", adminHandler.UpdateQuote)
		r.Delete("/api/v1/admin/quotes/{quoteId}", adminHandler.DeleteQuote)

		r.Get("/api/v1/admin/blocked-dates", adminHandler.ListBlockedDates)
		r.Post("/api/v1/admin/blocked-dates", adminHandler.BlockDate)
		r.Delete("/api/v1/admin/blocked-dates/{date}", adminHandler.UnblockDate)

		r.Get("/api/v1/admin/users", adminHandler.ListUsers)
		r.Put("/api/v1/admin/users/{userId}/role", adminHandler.SetUserRole)
		r.Delete("/api/v1/admin/users/{userId}", adminHandler.DeleteUser)

		r.Post("/api/v1/admin/projects", projectHandler.CreateProject)
		r.Get("/api/v1/admin/projects", projectHandler.ListProjects)
		r.Get("/api/v1/admin/projects/{projectId}", projectHandler.GetProject)
		r.Post("/api/v1/admin/projects/{projectId}/toggle-lock", projectHandler.ToggleLock)
		r.Post("/api/v1/admin/projects/{projectId}/files", projectHandler.UploadFiles)
		r.Get("/api/v1/admin/projects/{projectId}/files", projectHandler.ListFiles)
		r.Delete("/api/v1/admin/projects/{projectId}", projectHandler.DeleteProject)
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("SERVER", fmt.Sprintf("Studio service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("SERVER", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("SERVER", "Shutdown signal received, cleaning up")
	cancel()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatal("SERVER", fmt.Sprintf("Server forced to shutdown: %v", err))
	}
	log.Info("SERVER", "Server exited gracefully")
}

func pingWithRetry(db *sql.DB, attempts int) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = db.Ping(); err == nil {
			return nil
		}
		time.Sleep(time.Duration(i+1) * time.Second)
	}
	return err
}
