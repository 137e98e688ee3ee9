package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/temcen/bookrec/internal/config"
	"github.com/temcen/bookrec/internal/database"
	"github.com/temcen/bookrec/internal/handlers"
	"github.com/temcen/bookrec/internal/middleware"
	"github.com/temcen/bookrec/internal/services"
	"github.com/temcen/bookrec/internal/validation"
)

type App struct {
	config     *config.Config
	logger     *logrus.Logger
	db         *database.Database
	services   *services.Services
	handlers   *handlers.Handlers
	validation *middleware.ValidationMiddleware
	router     *gin.Engine

	cancelConsumer context.CancelFunc
	consumerDone   sync.WaitGroup
}

func New(cfg *config.Config) (*App, error) {
	logger := setupLogger(cfg)

	db, err := database.New(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	svc, err := services.New(cfg, logger, db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return newApp(cfg, logger, db, svc)
}

func newApp(cfg *config.Config, logger *logrus.Logger, db *database.Database, svc *services.Services) (*App, error) {
	validator, err := validation.NewDefaultSchemaValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to load request schemas: %w", err)
	}

	app := &App{
		config:     cfg,
		logger:     logger,
		db:         db,
		services:   svc,
		handlers:   handlers.New(logger, svc),
		validation: middleware.NewValidationMiddleware(validator),
	}
	app.setupRouter()

	return app, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

// Start launches the rating event consumer when a message bus is configured.
func (a *App) Start(ctx context.Context) {
	if a.services.MessageBus == nil {
		a.logger.Info("Kafka not configured, rating events are handled in-process")
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	a.cancelConsumer = cancel

	a.consumerDone.Add(1)
	go func() {
		defer a.consumerDone.Done()
		a.logger.WithField("topic", a.config.Kafka.Topics.Ratings).Info("Rating event consumer started")
		err := a.services.MessageBus.ConsumeRatings(ctx, a.services.RatingEvents.Handle)
		if err != nil && !errors.Is(err, context.Canceled) {
			a.logger.WithError(err).Error("Rating event consumer stopped")
		}
	}()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Shutting down application...")

	if a.cancelConsumer != nil {
		a.cancelConsumer()
		a.consumerDone.Wait()
	}

	var errs []error
	if a.services.MessageBus != nil {
		if err := a.services.MessageBus.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if err := a.db.Close(); err != nil {
		a.logger.WithError(err).Error("Error closing database connections")
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func setupLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}

func (a *App) setupRouter() {
	if a.config.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.Logger(a.logger))
	router.Use(middleware.Recovery(a.logger))
	router.Use(middleware.CORS(a.config))

	// Health and metrics (no auth required)
	router.GET("/health", a.handlers.Health.Check)
	router.GET("/metrics", a.handlers.Metrics.Serve)

	v := a.validation

	api := router.Group("/api/v1")
	api.Use(v.ValidateHeaders())

	api.POST("/auth/token", v.ValidateTokenRequest(), a.handlers.Auth.IssueToken)

	secured := api.Group("")
	{
		secured.Use(middleware.Auth(a.services.Auth, a.logger))
		secured.Use(middleware.RateLimit(a.services.RateLimit, a.logger))

		books := secured.Group("/books")
		{
			books.POST("", v.ValidateCreateBook(), a.handlers.Book.Create)
			books.GET("", v.ValidateListParams(), a.handlers.Book.List)
			books.GET("/:bookId", v.ValidatePathIDs("bookId"), a.handlers.Book.Get)
			books.POST("/:bookId/rate", v.ValidatePathIDs("bookId"), v.ValidateRateBook(), a.handlers.Book.Rate)
		}

		recommendations := secured.Group("/recommendations")
		{
			recommendations.GET("", a.handlers.Recommendation.Get)
			recommendations.GET("/preferences", a.handlers.Preference.Get)
			recommendations.PUT("/preferences", v.ValidatePreferences(), a.handlers.Preference.Update)
			recommendations.POST("/:recommendationId/click", v.ValidatePathIDs("recommendationId"), a.handlers.Recommendation.RecordClick)
		}
	}

	a.router = router
}
