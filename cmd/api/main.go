package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	_ "github.com/joho/godotenv/autoload"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/edupay/edupay-api/internal/config"
	"github.com/edupay/edupay-api/internal/database"
	"github.com/edupay/edupay-api/internal/handlers"
	"github.com/edupay/edupay-api/internal/jobs"
	"github.com/edupay/edupay-api/internal/middleware"
	"github.com/edupay/edupay-api/internal/repository"
	"github.com/edupay/edupay-api/internal/services"
	"github.com/edupay/edupay-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// @title EduPay API
// @version 1.0
// @description REST API for education-agency installment payment plans

// @contact.name API Support

// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Setup(cfg.Environment)

	// Initialize Sentry when DSN is configured
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			logger.Error("Sentry initialization failed", "error", err)
		} else {
			logger.Info("Sentry initialized")
		}
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to database")

	// Initialize repositories
	repos := repository.NewRepositories(db)

	// Initialize background worker
	worker := jobs.NewWorker(cfg.WorkerCount)
	logger.Info("Started background worker", "goroutines", cfg.WorkerCount)

	// Initialize services
	svcs := services.NewServices(db, repos, worker, cfg.SweepStaleHours)

	// Schedule recurring jobs
	scheduleJobs(worker, svcs, cfg)

	// Initialize handlers
	h := handlers.NewHandlers(svcs)

	// Setup router
	router := setupRouter(h, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Shutdown background worker
	worker.Shutdown()
	logger.Info("Background worker stopped")

	// Flush Sentry events before exit
	if cfg.SentryDSN != "" {
		sentry.Flush(5 * time.Second)
	}

	logger.Info("Server exited gracefully")
}

func setupRouter(h *handlers.Handlers, cfg *config.Config) *gin.Engine {
	router := gin.New()

	// Global middleware
	if cfg.SentryDSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Health check (public)
		v1.GET("/health", h.Health.Index)

		// Protected routes (requires authentication)
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTSecret))
		{
			// Admin-only routes
			admin := protected.Group("")
			admin.Use(middleware.RequireAdmin())
			{
				admin.PUT("/agency/settings", h.Agency.Update)
				admin.POST("/jobs/status-sweep", h.Job.TriggerSweep)
			}

			// Agency configuration
			protected.GET("/agency/settings", h.Agency.Show)

			// Commission estimation (wizard preview, nothing persisted)
			protected.POST("/commission/estimate", h.Commission.Estimate)

			// Payment plans
			plans := protected.Group("/payment-plans")
			{
				plans.GET("", h.Plan.Index)
				plans.POST("", h.Plan.Create)
				plans.GET("/:plan_id", h.Plan.Show)
				plans.POST("/:plan_id/confirm", h.Plan.Confirm)
				plans.POST("/:plan_id/cancel", h.Plan.Cancel)
			}

			// Installments
			installments := protected.Group("/installments")
			{
				installments.GET("", h.Installment.Index)
				installments.GET("/:installment_id", h.Installment.Show)
				installments.POST("/:installment_id/payments", h.Installment.RecordPayment)
				installments.POST("/:installment_id/cancel", h.Installment.Cancel)
			}

			// Students
			students := protected.Group("/students")
			{
				students.GET("", h.Student.Index)
				students.POST("", h.Student.Create)
				students.GET("/:student_id", h.Student.Show)
				students.PUT("/:student_id", h.Student.Update)
			}

			// Enrollments
			enrollments := protected.Group("/enrollments")
			{
				enrollments.GET("", h.Student.IndexEnrollments)
				enrollments.POST("", h.Student.CreateEnrollment)
				enrollments.GET("/:enrollment_id", h.Student.ShowEnrollment)
				enrollments.PUT("/:enrollment_id", h.Student.UpdateEnrollment)
			}

			// Audits
			protected.GET("/audits", h.Audit.Index)

			// Background jobs
			protected.GET("/jobs/status", h.Job.Status)
			protected.GET("/jobs/health", h.Job.Health)
			protected.GET("/jobs/runs", h.Job.Runs)
		}
	}

	return router
}

func scheduleJobs(worker *jobs.Worker, svcs *services.Services, cfg *config.Config) {
	// Daily installment status sweep across all agencies
	worker.ScheduleDailyAt(cfg.SweepHourUTC, func(ctx context.Context) error {
		logger.Info("[Job] Running installment status sweep...")
		_, err := svcs.Sweep.RunDailySweep(ctx, nil)
		return err
	})

	// Log sweep staleness hourly so a missed run surfaces in the logs
	// before anyone checks the health endpoint
	worker.ScheduleEvery(1*time.Hour, func(ctx context.Context) error {
		health, err := svcs.Job.SweepHealth(ctx)
		if err != nil {
			return err
		}
		if !health.Healthy {
			logger.Warn("[Job] Status sweep unhealthy", "reason", health.Reason)
		}
		return nil
	})

	logger.Info("Scheduled recurring jobs", "sweep_hour_utc", cfg.SweepHourUTC)
}
