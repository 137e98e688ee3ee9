package handlers

import (
	"github.com/sirupsen/logrus"

	"github.com/temcen/bookrec/internal/services"
)

type Handlers struct {
	Health         *HealthHandler
	Auth           *AuthHandler
	Book           *BookHandler
	Recommendation *RecommendationHandler
	Preference     *PreferenceHandler
	Metrics        *MetricsHandler
}

func New(logger *logrus.Logger, svc *services.Services) *Handlers {
	return &Handlers{
		Health:         NewHealthHandler(logger, svc.Health),
		Auth:           NewAuthHandler(svc.Auth, logger),
		Book:           NewBookHandler(svc.Books, logger),
		Recommendation: NewRecommendationHandler(svc.Recommendations, logger),
		Preference:     NewPreferenceHandler(svc.Preferences, logger),
		Metrics:        NewMetricsHandler(logger, svc.Metrics.Registry()),
	}
}
