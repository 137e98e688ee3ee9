package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/temcen/bookrec/internal/config"
	"github.com/temcen/bookrec/internal/database"
	"github.com/temcen/bookrec/internal/messaging"
	"github.com/temcen/bookrec/internal/recommend"
	"github.com/temcen/bookrec/internal/store/cache"
	"github.com/temcen/bookrec/internal/store/graph"
	"github.com/temcen/bookrec/internal/store/memory"
	"github.com/temcen/bookrec/internal/store/postgres"
)

type Services struct {
	Auth            *AuthService
	Health          *HealthService
	RateLimit       *RateLimitService
	Metrics         *MetricsCollector
	MessageBus      *messaging.MessageBus
	Engine          *recommend.Engine
	Recommendations *RecommendationService
	Books           *BookService
	Preferences     *PreferenceService
	RatingEvents    *RatingEventHandler
}

// stores groups the collaborators chosen for the configured backends.
type stores struct {
	books      BookRepository
	catalog    recommend.Catalog
	ratings    RatingRepository
	history    recommend.HistoryStore
	stated     StatedPreferenceRepository
	users      recommend.UserDirectory
	learned    LearnedPreferenceRepository
	prefsCache PreferenceInvalidator
	log        RecommendationLog
	projection RatingProjection
	bookLookup graph.BookLookup
}

func New(cfg *config.Config, logger *logrus.Logger, db *database.Database) (*Services, error) {
	st, err := newStores(cfg, logger, db)
	if err != nil {
		return nil, err
	}

	metrics := NewMetricsCollector()
	authService := NewAuthService(cfg, logger, db.Redis.Preferences)
	healthService := NewHealthService(logger, db, metrics.Registry())
	rateLimitService := NewRateLimitService(cfg, logger, db.Redis.Preferences)

	engine := recommend.NewEngine(st.catalog, st.history, st.learned, st.users, cfg.Recommendation.Engine(), logger)
	recCache := NewRecommendationCache(db.Redis.Cache, cfg.Recommendation.CacheTTL, logger)
	ratingEvents := NewRatingEventHandler(st.projection, recCache, metrics, logger)

	var messageBus *messaging.MessageBus
	var publisher RatingPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		messageBus, err = messaging.NewMessageBus(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create message bus: %w", err)
		}
		publisher = messageBus
	}

	return &Services{
		Auth:            authService,
		Health:          healthService,
		RateLimit:       rateLimitService,
		Metrics:         metrics,
		MessageBus:      messageBus,
		Engine:          engine,
		Recommendations: NewRecommendationService(engine, recCache, st.log, metrics, logger),
		Books:           NewBookService(st.books, st.ratings, st.prefsCache, engine, recCache, ratingEvents, publisher, metrics, logger),
		Preferences:     NewPreferenceService(st.stated, st.learned, recCache, metrics, logger),
		RatingEvents:    ratingEvents,
	}, nil
}

func newStores(cfg *config.Config, logger *logrus.Logger, db *database.Database) (*stores, error) {
	st := &stores{}

	if db.PG != nil {
		if cfg.Database.Migrate {
			if err := postgres.Migrate(context.Background(), db.PG, logger); err != nil {
				return nil, err
			}
		}
		bookStore := postgres.NewBookStore(db.PG)
		ratingStore := postgres.NewRatingStore(db.PG)
		userStore := postgres.NewUserStore(db.PG)

		st.books, st.catalog, st.bookLookup = bookStore, bookStore, bookStore
		st.ratings, st.history = ratingStore, ratingStore
		st.stated, st.users = userStore, userStore
		st.learned = postgres.NewPreferenceStore(db.PG)
		st.log = postgres.NewRecommendationLog(db.PG)
	} else {
		mem := memory.New()
		st.books, st.catalog, st.bookLookup = mem, mem, mem
		st.ratings, st.history = mem, mem
		st.stated, st.users = mem, mem
		st.learned = mem
		st.log = mem
	}

	if db.Redis.Preferences != nil {
		prefsCache := cache.NewPreferenceCache(st.learned, db.Redis.Preferences, cfg.Recommendation.PreferenceCacheTTL, logger)
		st.learned, st.prefsCache = prefsCache, prefsCache
	}

	if db.Neo4j != nil {
		graphStore := graph.NewHistoryStore(db.Neo4j, st.bookLookup, logger)
		st.projection = graphStore
		if cfg.Recommendation.HistoryBackend == config.HistoryBackendNeo4j {
			st.history = graphStore
			logger.Info("Serving rating history from Neo4j")
		}
	} else if cfg.Recommendation.HistoryBackend == config.HistoryBackendNeo4j {
		return nil, fmt.Errorf("history backend %q requires neo4j.url", config.HistoryBackendNeo4j)
	}

	return st, nil
}
